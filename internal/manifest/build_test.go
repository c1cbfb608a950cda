package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

var key = types.PackageKey{ToolKit: "tk7", Component: "compiler", Platform: "aix"}

func pkg(id string, m, p int) *types.Package {
	return &types.Package{PackageID: id, ToolKit: key.ToolKit, Component: key.Component, Platform: key.Platform, Maintenance: m, Patch: p}
}

func del(path string, size int64, sum uint32) types.Deliverable {
	return types.Deliverable{Path: path, Size: size, Checksum: sum, ModTime: 1000, Type: types.TypeReal}
}

func withAction(d types.Deliverable, a types.Action) types.Deliverable {
	d.Action = a
	return d
}

func actions(ds []types.Deliverable) map[string]types.Action {
	out := make(map[string]types.Action, len(ds))
	for _, d := range ds {
		out[d.Path] = d.Action
	}
	return out
}

func TestBuildExample(t *testing.T) {
	baseline := Baseline{
		"bin/tool":   del("bin/tool", 100, 55),
		"lib/old.so": del("lib/old.so", 50, 9),
	}
	scan := []types.Deliverable{
		del("bin/tool", 120, 77),
		del("bin/new", 10, 1),
	}

	got, err := Build(scan, baseline, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]types.Action{
		"bin/tool":   types.ActionUpdate,
		"bin/new":    types.ActionNew,
		"lib/old.so": types.ActionDelete,
	}, actions(got))
	assert.Equal(t, []string{"bin/new", "bin/tool", "lib/old.so"}, []string{got[0].Path, got[1].Path, got[2].Path})

	tomb := got[2]
	assert.Equal(t, int64(50), tomb.Size, "tombstone keeps the last shipped signature")
	assert.Equal(t, uint32(9), tomb.Checksum)
}

func TestBuildSignatureComparison(t *testing.T) {
	base := del("a", 10, 1)
	tests := []struct {
		name string
		scan types.Deliverable
		want types.Action
	}{
		{"identical", base, types.ActionUnchanged},
		{"size differs", del("a", 11, 1), types.ActionUpdate},
		{"checksum differs", del("a", 10, 2), types.ActionUpdate},
		{"mtime differs", func() types.Deliverable { d := base; d.ModTime++; return d }(), types.ActionUpdate},
		{"type alone does not matter", func() types.Deliverable { d := base; d.Type = types.TypeLinkFollow; return d }(), types.ActionUnchanged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Build([]types.Deliverable{tt.scan}, Baseline{"a": base}, nil)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Action)
		})
	}
}

func TestBuildNeverDropsBaselinePaths(t *testing.T) {
	baseline := Baseline{}
	for _, p := range []string{"a", "b", "c", "d/e", "d/f"} {
		baseline[p] = del(p, 1, 1)
	}
	scan := []types.Deliverable{del("b", 1, 1), del("x", 2, 2)}

	got, err := Build(scan, baseline, nil)
	require.NoError(t, err)

	acts := actions(got)
	for _, p := range baseline.Paths() {
		require.Contains(t, acts, p)
		if p != "b" {
			assert.Equal(t, types.ActionDelete, acts[p], p)
		}
	}
	assert.Equal(t, types.ActionUnchanged, acts["b"])
	assert.Equal(t, types.ActionNew, acts["x"])
}

func TestBuildManualEntries(t *testing.T) {
	baseline := Baseline{
		"shipped/by-hand": del("shipped/by-hand", 5, 5),
		"gone":            del("gone", 1, 1),
	}
	scan := []types.Deliverable{del("bin/tool", 3, 3)}
	manual := []types.Deliverable{
		{Path: "shipped/by-hand", Size: 5, ModTime: 1000},
		{Path: "extra/readme", Size: 7, ModTime: 1000},
		{Path: "bin/tool", Size: 99, ModTime: 1},
	}

	got, err := Build(scan, baseline, manual)
	require.NoError(t, err)

	assert.Equal(t, map[string]types.Action{
		"bin/tool":        types.ActionNew,
		"shipped/by-hand": types.ActionManualAdd,
		"extra/readme":    types.ActionManualAdd,
		"gone":            types.ActionDelete,
	}, actions(got))

	for _, d := range got {
		if d.Path == "bin/tool" {
			assert.Equal(t, int64(3), d.Size, "scan wins over the prior manifest")
		}
	}
}

func TestBuildIgnoresInputActionAndIdentity(t *testing.T) {
	scanned := del("a", 1, 1)
	scanned.Action = types.ActionDelete
	scanned.DeliverableID = "old-row"
	scanned.PackageID = "old-pkg"

	got, err := Build([]types.Deliverable{scanned}, Baseline{}, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, types.ActionNew, got[0].Action)
	assert.Empty(t, got[0].DeliverableID)
	assert.Empty(t, got[0].PackageID)
}

func TestBuildDuplicateScanPath(t *testing.T) {
	_, err := Build([]types.Deliverable{del("a", 1, 1), del("a", 2, 2)}, Baseline{}, nil)
	assert.ErrorIs(t, err, types.ErrIntegrity)
}

func TestBuildFromHistory(t *testing.T) {
	history := []Snapshot{
		{Package: pkg("p10", 1, 0), Deliverables: []types.Deliverable{
			withAction(del("bin/tool", 100, 55), types.ActionNew),
			withAction(del("lib/old.so", 50, 9), types.ActionNew),
		}},
	}
	scan := []types.Deliverable{del("bin/tool", 120, 77), del("bin/new", 10, 1)}

	got, err := BuildFromHistory(scan, history, key, types.Level{Maintenance: 1, Patch: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]types.Action{
		"bin/tool":   types.ActionUpdate,
		"bin/new":    types.ActionNew,
		"lib/old.so": types.ActionDelete,
	}, actions(got))
}

func TestSummary(t *testing.T) {
	ds := []types.Deliverable{
		withAction(del("a", 1, 1), types.ActionNew),
		withAction(del("b", 1, 1), types.ActionNew),
		withAction(del("c", 1, 1), types.ActionDelete),
	}
	s := Summarize(ds)
	assert.Equal(t, 2, s[types.ActionNew])
	assert.Equal(t, 1, s[types.ActionDelete])
	assert.Equal(t, "NEW=2 DELETE=1", s.String())
	assert.Equal(t, "empty", Summarize(nil).String())
}
