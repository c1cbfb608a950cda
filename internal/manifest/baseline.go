// Package manifest builds package manifests: it accumulates the baseline of
// everything previously shipped for a package key and classifies a fresh
// scan against it.
package manifest

import (
	"sort"

	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

// Snapshot is a stored package together with its manifest.
type Snapshot struct {
	Package      *types.Package
	Deliverables []types.Deliverable
}

// Baseline maps each partial path to the most recent deliverable record
// shipped for it.
type Baseline map[string]types.Deliverable

// Order returns the snapshots for key at or below target, most recent
// first: maintenance descending, then patch descending, then PackageID
// ascending so equal levels have a fixed order.
func Order(history []Snapshot, key types.PackageKey, target types.Level) []Snapshot {
	var out []Snapshot
	for _, s := range history {
		if s.Package == nil || s.Package.Key() != key {
			continue
		}
		if s.Package.Level().Compare(target) > 0 {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Package, out[j].Package
		if c := a.Level().Compare(b.Level()); c != 0 {
			return c > 0
		}
		return a.PackageID < b.PackageID
	})
	return out
}

// NewBaseline walks the ordered history and keeps the first record seen for
// each path. A DELETE tombstone is a record too: it hides every older entry
// for its path and leaves the path out of the baseline.
func NewBaseline(history []Snapshot, key types.PackageKey, target types.Level) Baseline {
	b := make(Baseline)
	seen := make(map[string]bool)
	for _, s := range Order(history, key, target) {
		for _, d := range s.Deliverables {
			if seen[d.Path] {
				continue
			}
			seen[d.Path] = true
			if d.Action == types.ActionDelete {
				continue
			}
			b[d.Path] = d
		}
	}
	return b
}

// Paths returns the baseline paths in lexical order.
func (b Baseline) Paths() []string {
	out := make([]string, 0, len(b))
	for p := range b {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
