package manifest

import (
	"fmt"
	"sort"

	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

// Build classifies scan against baseline and returns the complete manifest,
// sorted by path:
//
//	scan path not in baseline             NEW
//	scan path with a different signature  UPDATE
//	scan path with the same signature     UNCHANGED
//	manual path not in scan               MANUAL_ADD
//	baseline path in neither              DELETE (tombstone)
//
// manual holds entries from a prior-manifest file; it may be nil. Input
// actions are ignored. Duplicate scan paths are an ErrIntegrity error.
func Build(scan []types.Deliverable, baseline Baseline, manual []types.Deliverable) ([]types.Deliverable, error) {
	out := make([]types.Deliverable, 0, len(scan)+len(baseline))
	inScan := make(map[string]bool, len(scan))

	for _, d := range scan {
		if inScan[d.Path] {
			return nil, fmt.Errorf("%w: path %s appears twice in scan", types.ErrIntegrity, d.Path)
		}
		inScan[d.Path] = true

		prev, ok := baseline[d.Path]
		switch {
		case !ok:
			d.Action = types.ActionNew
		case prev.Signature() != d.Signature():
			d.Action = types.ActionUpdate
		default:
			d.Action = types.ActionUnchanged
		}
		out = append(out, stripIdentity(d))
	}

	inManual := make(map[string]bool, len(manual))
	for _, d := range manual {
		if inScan[d.Path] || inManual[d.Path] {
			continue
		}
		inManual[d.Path] = true
		d.Action = types.ActionManualAdd
		out = append(out, stripIdentity(d))
	}

	for _, p := range baseline.Paths() {
		if inScan[p] || inManual[p] {
			continue
		}
		d := baseline[p]
		d.Action = types.ActionDelete
		out = append(out, stripIdentity(d))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// BuildFromHistory computes the baseline for key at target from history and
// runs Build.
func BuildFromHistory(scan []types.Deliverable, history []Snapshot, key types.PackageKey, target types.Level, manual []types.Deliverable) ([]types.Deliverable, error) {
	return Build(scan, NewBaseline(history, key, target), manual)
}

// stripIdentity clears storage identity so the record can be attached to a
// new package.
func stripIdentity(d types.Deliverable) types.Deliverable {
	d.DeliverableID = ""
	d.PackageID = ""
	return d
}

// Summary counts manifest entries per action.
type Summary map[types.Action]int

// Summarize counts ds by action.
func Summarize(ds []types.Deliverable) Summary {
	s := make(Summary)
	for _, d := range ds {
		s[d.Action]++
	}
	return s
}

// String renders the non-zero counts in a fixed action order.
func (s Summary) String() string {
	order := []types.Action{
		types.ActionNew,
		types.ActionUpdate,
		types.ActionDelete,
		types.ActionManualAdd,
		types.ActionUnchanged,
		types.ActionUnknown,
	}
	out := ""
	for _, a := range order {
		if s[a] == 0 {
			continue
		}
		if out != "" {
			out += " "
		}
		out += fmt.Sprintf("%s=%d", a, s[a])
	}
	if out == "" {
		return "empty"
	}
	return out
}
