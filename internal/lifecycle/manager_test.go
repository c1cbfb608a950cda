package lifecycle

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pkgtrack/internal/clock"
	"github.com/mesh-intelligence/pkgtrack/internal/sqlite"
	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

var key = types.PackageKey{ToolKit: "tk1", Component: "compA", Platform: "linux"}

func openStore(t *testing.T) types.Store {
	t.Helper()
	store := sqlite.NewBackend()
	require.NoError(t, store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { store.Detach() })
	return store
}

func newManager(t *testing.T, store types.Store) (*Manager, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	m, err := New(store,
		WithLogger(logger),
		WithActor("builder"),
		WithClock(clock.NewFake(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))),
	)
	require.NoError(t, err)
	return m, hook
}

func create(t *testing.T, m *Manager, maint, patch int) *types.Package {
	t.Helper()
	pkg, err := m.Create(CreateRequest{Key: key, Level: types.Level{Maintenance: maint, Patch: patch}})
	require.NoError(t, err)
	return pkg
}

func file(path string, size int64, sum uint32, action types.Action) types.Deliverable {
	return types.Deliverable{Path: path, Size: size, Checksum: sum, ModTime: 1000, Type: types.TypeReal, Action: action}
}

func TestCreate(t *testing.T) {
	m, hook := newManager(t, openStore(t))

	pkg, err := m.Create(CreateRequest{
		Key:                 key,
		Level:               types.Level{Maintenance: 1},
		Comment:             "first cut",
		ToolKitPackageID:    "tkp-1",
		ComponentVersionIDs: []string{"cv-1", "cv-2"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, pkg.PackageID)
	assert.NotEmpty(t, pkg.EventsID)
	assert.Equal(t, "builder", pkg.CreatedBy)

	cur, err := m.Events().Current(pkg.EventsID)
	require.NoError(t, err)
	assert.Equal(t, types.PackageStateNew, cur.State)
	assert.Equal(t, "first cut", cur.Comment)

	links, err := m.fetchLinks(types.Filter{"to_id": pkg.PackageID})
	require.NoError(t, err)
	assert.Len(t, links, 3)

	got, found, err := m.Find(key, types.Level{Maintenance: 1})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, pkg.PackageID, got.PackageID)

	assert.Equal(t, "package created", hook.LastEntry().Message)
}

func TestCreateDuplicate(t *testing.T) {
	m, _ := newManager(t, openStore(t))
	create(t, m, 1, 0)

	_, err := m.Create(CreateRequest{Key: key, Level: types.Level{Maintenance: 1}})
	assert.ErrorIs(t, err, types.ErrDuplicate)

	pkgs, err := m.List(key)
	require.NoError(t, err)
	assert.Len(t, pkgs, 1)
}

func TestCreateReusesEventsCollection(t *testing.T) {
	m, _ := newManager(t, openStore(t))
	eventsID, err := m.Events().NewCollection(types.TablePackages)
	require.NoError(t, err)

	pkg, err := m.Create(CreateRequest{Key: key, Level: types.Level{Maintenance: 2}, EventsID: eventsID})
	require.NoError(t, err)
	assert.Equal(t, eventsID, pkg.EventsID)
}

func TestBuildAndAttachManifest(t *testing.T) {
	m, _ := newManager(t, openStore(t))

	p1 := create(t, m, 1, 0)
	_, err := m.AttachManifest(p1, []types.Deliverable{
		file("bin/tool", 100, 55, types.ActionNew),
		file("lib/old.so", 50, 9, types.ActionNew),
	})
	require.NoError(t, err)

	p2 := create(t, m, 1, 1)
	scan := []types.Deliverable{
		file("bin/tool", 120, 77, types.ActionUnknown),
		file("bin/new", 10, 1, types.ActionUnknown),
	}
	ds, err := m.BuildManifest(p2, scan, nil)
	require.NoError(t, err)

	got := map[string]types.Action{}
	for _, d := range ds {
		got[d.Path] = d.Action
	}
	assert.Equal(t, map[string]types.Action{
		"bin/tool":   types.ActionUpdate,
		"bin/new":    types.ActionNew,
		"lib/old.so": types.ActionDelete,
	}, got)

	n, err := m.AttachManifest(p2, ds)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	cur, err := m.Events().Current(p2.EventsID)
	require.NoError(t, err)
	assert.Equal(t, types.PackageStateManifestAttached, cur.State)
	assert.Equal(t, "NEW=1 UPDATE=1 DELETE=1", cur.Comment)
}

func TestBuildManifestIgnoresOwnAndHigherLevels(t *testing.T) {
	m, _ := newManager(t, openStore(t))

	p1 := create(t, m, 1, 0)
	_, err := m.AttachManifest(p1, []types.Deliverable{file("a", 1, 1, types.ActionNew)})
	require.NoError(t, err)
	p3 := create(t, m, 3, 0)
	_, err = m.AttachManifest(p3, []types.Deliverable{file("future", 1, 1, types.ActionNew)})
	require.NoError(t, err)

	p2 := create(t, m, 2, 0)
	_, err = m.AttachManifest(p2, []types.Deliverable{file("stale", 1, 1, types.ActionNew)})
	require.NoError(t, err)

	ds, err := m.BuildManifest(p2, []types.Deliverable{file("a", 1, 1, types.ActionUnknown)}, nil)
	require.NoError(t, err)
	require.Len(t, ds, 1, "neither p2's own rows nor p3's appear")
	assert.Equal(t, types.ActionUnchanged, ds[0].Action)
}

func TestAttachManifestReplaces(t *testing.T) {
	m, _ := newManager(t, openStore(t))
	pkg := create(t, m, 1, 0)

	_, err := m.AttachManifest(pkg, []types.Deliverable{file("a", 1, 1, types.ActionNew), file("b", 1, 1, types.ActionNew)})
	require.NoError(t, err)
	_, err = m.AttachManifest(pkg, []types.Deliverable{file("c", 1, 1, types.ActionNew)})
	require.NoError(t, err)

	ds, err := m.Deliverables(pkg)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, "c", ds[0].Path)
	assert.Equal(t, pkg.PackageID, ds[0].PackageID)
}

func TestAttachManifestRejectsBeforeWriting(t *testing.T) {
	m, _ := newManager(t, openStore(t))
	pkg := create(t, m, 1, 0)
	_, err := m.AttachManifest(pkg, []types.Deliverable{file("keep", 1, 1, types.ActionNew)})
	require.NoError(t, err)

	foreign := file("x", 1, 1, types.ActionNew)
	foreign.PackageID = "other-package"

	tests := []struct {
		name string
		ds   []types.Deliverable
	}{
		{"duplicate path", []types.Deliverable{file("a", 1, 1, types.ActionNew), file("a", 2, 2, types.ActionNew)}},
		{"owned by another package", []types.Deliverable{foreign}},
		{"unclassified", []types.Deliverable{file("a", 1, 1, types.ActionUnknown)}},
		{"empty path", []types.Deliverable{file("", 1, 1, types.ActionNew)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.AttachManifest(pkg, tt.ds)
			assert.ErrorIs(t, err, types.ErrIntegrity)

			ds, err := m.Deliverables(pkg)
			require.NoError(t, err)
			require.Len(t, ds, 1, "previous manifest untouched")
			assert.Equal(t, "keep", ds[0].Path)
		})
	}
}

func TestAssociateChangeRequests(t *testing.T) {
	m, _ := newManager(t, openStore(t))
	pkg := create(t, m, 1, 0)

	n, err := m.AssociateChangeRequests(pkg, []string{"CR-1", "CR-2", "CR-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = m.AssociateChangeRequests(pkg, []string{"CR-2", "CR-1"})
	require.NoError(t, err)
	assert.Equal(t, 0, n, "repeating the call adds nothing")

	crs, err := m.ChangeRequests(pkg)
	require.NoError(t, err)
	require.Len(t, crs, 2)
	for _, cr := range crs {
		assert.Equal(t, types.ChangeRequestPackaged, cr.Status)
	}

	history, err := m.Events().History(pkg.EventsID)
	require.NoError(t, err)
	require.Len(t, history, 2, "only the first call records a transition")
	assert.Equal(t, types.PackageStateChangesLinked, history[1].State)
}

func TestAssociateChangeRequestsReusesExisting(t *testing.T) {
	store := openStore(t)
	m, _ := newManager(t, store)
	crs, err := store.GetTable(types.TableChangeRequests)
	require.NoError(t, err)
	id, err := crs.Set("", &types.ChangeRequest{Name: "CR-9", Status: "open"})
	require.NoError(t, err)

	pkg := create(t, m, 1, 0)
	_, err = m.AssociateChangeRequests(pkg, []string{"CR-9"})
	require.NoError(t, err)

	got, err := crs.Get(id)
	require.NoError(t, err)
	assert.Equal(t, types.ChangeRequestPackaged, got.(*types.ChangeRequest).Status)
}
