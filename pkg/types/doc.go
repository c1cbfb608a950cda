// Package types defines the entity records, the Store and Table interfaces,
// and the standard errors for the pkgtrack package ledger.
//
// Entities are plain records. Behavior that spans entities (classification,
// manifest diffing, event logs, package lifecycle) lives in internal packages
// that depend on these records and on the Table contract.
package types
