package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

func TestOrder(t *testing.T) {
	other := &types.Package{PackageID: "x", ToolKit: "tk7", Component: "linker", Platform: "aix"}
	history := []Snapshot{
		{Package: pkg("b", 1, 0)},
		{Package: pkg("c", 2, 1)},
		{Package: pkg("a", 1, 0)},
		{Package: pkg("d", 1, 3)},
		{Package: pkg("future", 3, 0)},
		{Package: other},
		{Package: nil},
	}

	got := Order(history, key, types.Level{Maintenance: 2, Patch: 1})

	var ids []string
	for _, s := range got {
		ids = append(ids, s.Package.PackageID)
	}
	assert.Equal(t, []string{"c", "d", "a", "b"}, ids, "level desc, then id asc; above-target and other keys dropped")
}

func TestNewBaselineMostRecentWins(t *testing.T) {
	history := []Snapshot{
		{Package: pkg("p1", 1, 0), Deliverables: []types.Deliverable{
			withAction(del("bin/tool", 100, 1), types.ActionNew),
			withAction(del("lib/a.so", 10, 1), types.ActionNew),
		}},
		{Package: pkg("p2", 1, 1), Deliverables: []types.Deliverable{
			withAction(del("bin/tool", 200, 2), types.ActionUpdate),
			withAction(del("lib/a.so", 10, 1), types.ActionUnchanged),
		}},
		{Package: pkg("p3", 1, 2), Deliverables: []types.Deliverable{
			withAction(del("bin/tool", 300, 3), types.ActionUpdate),
		}},
	}

	b := NewBaseline(history, key, types.Level{Maintenance: 1, Patch: 1})
	require.Len(t, b, 2)
	assert.Equal(t, int64(200), b["bin/tool"].Size, "p3 is above target and ignored")
	assert.Equal(t, int64(10), b["lib/a.so"].Size)

	b = NewBaseline(history, key, types.Level{Maintenance: 9, Patch: 9})
	assert.Equal(t, int64(300), b["bin/tool"].Size)
	assert.Equal(t, int64(10), b["lib/a.so"].Size, "paths missing from recent packages still come from older ones")
}

func TestNewBaselineTombstoneHidesOlderEntries(t *testing.T) {
	history := []Snapshot{
		{Package: pkg("p1", 1, 0), Deliverables: []types.Deliverable{
			withAction(del("lib/old.so", 50, 9), types.ActionNew),
		}},
		{Package: pkg("p2", 1, 1), Deliverables: []types.Deliverable{
			withAction(del("lib/old.so", 50, 9), types.ActionDelete),
		}},
	}

	b := NewBaseline(history, key, types.Level{Maintenance: 1, Patch: 2})
	assert.NotContains(t, b, "lib/old.so")

	got, err := Build(nil, b, nil)
	require.NoError(t, err)
	assert.Empty(t, got, "a path is tombstoned once, not in every later package")

	got, err = Build([]types.Deliverable{del("lib/old.so", 60, 10)}, b, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, types.ActionNew, got[0].Action, "a deleted path that reappears is new")
}

func TestNewBaselineTieBreakIsDeterministic(t *testing.T) {
	a := Snapshot{Package: pkg("aaa", 1, 0), Deliverables: []types.Deliverable{del("f", 1, 1)}}
	b := Snapshot{Package: pkg("bbb", 1, 0), Deliverables: []types.Deliverable{del("f", 2, 2)}}

	first := NewBaseline([]Snapshot{a, b}, key, types.Level{Maintenance: 1})
	second := NewBaseline([]Snapshot{b, a}, key, types.Level{Maintenance: 1})
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), first["f"].Size, "lowest package id wins a tie")
}
