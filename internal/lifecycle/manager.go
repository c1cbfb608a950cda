// Package lifecycle creates, populates and deletes packages.
//
// Manager composes the store tables, the event recorder and a logger. It
// does not lock: callers must serialize work per package key, or two runs
// can read overlapping baselines and write inconsistent manifests.
package lifecycle

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/pkgtrack/internal/clock"
	"github.com/mesh-intelligence/pkgtrack/internal/eventlog"
	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

// DefaultActor is recorded on events when no actor is configured.
const DefaultActor = "pkgtrack"

// Manager runs package lifecycle operations against a Store.
type Manager struct {
	packages       types.Table
	deliverables   types.Table
	changeRequests types.Table
	links          types.Table
	events         *eventlog.Recorder

	clock clock.Clock
	actor string
	log   *logrus.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(l *logrus.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithActor sets the name recorded as the creator of packages and events.
func WithActor(actor string) Option {
	return func(m *Manager) { m.actor = actor }
}

// WithClock sets the clock used for event timestamps.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// New creates a Manager over an attached store.
func New(store types.Store, opts ...Option) (*Manager, error) {
	m := &Manager{
		clock: clock.Real{},
		actor: DefaultActor,
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}

	tables := []struct {
		name string
		dst  *types.Table
	}{
		{types.TablePackages, &m.packages},
		{types.TableDeliverables, &m.deliverables},
		{types.TableChangeRequests, &m.changeRequests},
		{types.TableLinks, &m.links},
	}
	for _, t := range tables {
		tbl, err := store.GetTable(t.name)
		if err != nil {
			return nil, fmt.Errorf("getting %s table: %w", t.name, err)
		}
		*t.dst = tbl
	}

	rec, err := eventlog.NewRecorder(store, m.clock)
	if err != nil {
		return nil, err
	}
	m.events = rec
	return m, nil
}

// Events returns the recorder shared by packages and change requests.
func (m *Manager) Events() *eventlog.Recorder {
	return m.events
}

// Get returns the package with the given ID.
func (m *Manager) Get(packageID string) (*types.Package, error) {
	row, found, err := types.Lookup(m.packages, packageID)
	if err != nil {
		return nil, fmt.Errorf("getting package %s: %w", packageID, err)
	}
	if !found {
		return nil, fmt.Errorf("package %s: %w", packageID, types.ErrNotFound)
	}
	return asPackage(row)
}

// Find returns the package at key and level, reporting whether it exists.
func (m *Manager) Find(key types.PackageKey, level types.Level) (*types.Package, bool, error) {
	row, found, err := types.FindOne(m.packages, types.Filter{
		"tool_kit":    key.ToolKit,
		"component":   key.Component,
		"platform":    key.Platform,
		"maintenance": level.Maintenance,
		"patch":       level.Patch,
	})
	if err != nil || !found {
		return nil, false, err
	}
	pkg, err := asPackage(row)
	if err != nil {
		return nil, false, err
	}
	return pkg, true, nil
}

// List returns the packages sharing key, highest level first. Empty key
// fields are not filtered on.
func (m *Manager) List(key types.PackageKey) ([]*types.Package, error) {
	filter := types.Filter{}
	if key.ToolKit != "" {
		filter["tool_kit"] = key.ToolKit
	}
	if key.Component != "" {
		filter["component"] = key.Component
	}
	if key.Platform != "" {
		filter["platform"] = key.Platform
	}
	rows, err := m.packages.Fetch(filter)
	if err != nil {
		return nil, fmt.Errorf("listing packages: %w", err)
	}
	pkgs := make([]*types.Package, 0, len(rows))
	for _, row := range rows {
		pkg, err := asPackage(row)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs, nil
}

// Deliverables returns the manifest attached to pkg, ordered by path.
func (m *Manager) Deliverables(pkg *types.Package) ([]types.Deliverable, error) {
	rows, err := m.deliverables.Fetch(types.Filter{"package_id": pkg.PackageID})
	if err != nil {
		return nil, fmt.Errorf("fetching deliverables of %s: %w", pkg, err)
	}
	ds := make([]types.Deliverable, 0, len(rows))
	for _, row := range rows {
		d, ok := row.(*types.Deliverable)
		if !ok {
			return nil, fmt.Errorf("%w: deliverables table returned %T", types.ErrInvalidData, row)
		}
		ds = append(ds, *d)
	}
	return ds, nil
}

// ChangeRequests returns the change requests linked to pkg, ordered by link
// creation.
func (m *Manager) ChangeRequests(pkg *types.Package) ([]*types.ChangeRequest, error) {
	links, err := m.fetchLinks(types.Filter{
		"link_type": types.LinkTypePackageChangeRequest,
		"from_id":   pkg.PackageID,
	})
	if err != nil {
		return nil, err
	}
	crs := make([]*types.ChangeRequest, 0, len(links))
	for _, l := range links {
		row, found, err := types.Lookup(m.changeRequests, l.ToID)
		if err != nil {
			return nil, fmt.Errorf("getting change request %s: %w", l.ToID, err)
		}
		if !found {
			return nil, fmt.Errorf("%w: package %s links missing change request %s", types.ErrIntegrity, pkg, l.ToID)
		}
		cr, ok := row.(*types.ChangeRequest)
		if !ok {
			return nil, fmt.Errorf("%w: change requests table returned %T", types.ErrInvalidData, row)
		}
		crs = append(crs, cr)
	}
	return crs, nil
}

func (m *Manager) fetchLinks(filter types.Filter) ([]*types.Link, error) {
	rows, err := m.links.Fetch(filter)
	if err != nil {
		return nil, fmt.Errorf("fetching links: %w", err)
	}
	links := make([]*types.Link, 0, len(rows))
	for _, row := range rows {
		l, ok := row.(*types.Link)
		if !ok {
			return nil, fmt.Errorf("%w: links table returned %T", types.ErrInvalidData, row)
		}
		links = append(links, l)
	}
	return links, nil
}

func asPackage(row any) (*types.Package, error) {
	pkg, ok := row.(*types.Package)
	if !ok {
		return nil, fmt.Errorf("%w: packages table returned %T", types.ErrInvalidData, row)
	}
	return pkg, nil
}
