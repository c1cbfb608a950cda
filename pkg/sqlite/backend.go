// Package sqlite provides the public API for the SQLite pkgtrack store.
// It exposes the factory while keeping the table implementations internal.
package sqlite

import (
	"github.com/mesh-intelligence/pkgtrack/internal/sqlite"
	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

// NewBackend creates a new SQLite store instance.
// The store is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	store := sqlite.NewBackend()
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".pkgtrack",
//	})
//	defer store.Detach()
func NewBackend() types.Store {
	return sqlite.NewBackend()
}
