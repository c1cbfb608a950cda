package lifecycle

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/pkgtrack/internal/manifest"
	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

// History loads every package sharing pkg's key together with its stored
// manifest. pkg itself is left out so rebuilding a manifest never diffs
// against its own previous attempt.
func (m *Manager) History(pkg *types.Package) ([]manifest.Snapshot, error) {
	pkgs, err := m.List(pkg.Key())
	if err != nil {
		return nil, err
	}

	history := make([]manifest.Snapshot, 0, len(pkgs))
	for _, p := range pkgs {
		if p.PackageID == pkg.PackageID {
			continue
		}
		if p.Level().Compare(pkg.Level()) > 0 {
			continue
		}
		ds, err := m.Deliverables(p)
		if err != nil {
			return nil, err
		}
		history = append(history, manifest.Snapshot{Package: p, Deliverables: ds})
	}
	return history, nil
}

// BuildManifest diffs scan against the baseline of every earlier package
// with pkg's key. manual holds hand-delivered entries, typically parsed
// from a prior-manifest file.
func (m *Manager) BuildManifest(pkg *types.Package, scan, manual []types.Deliverable) ([]types.Deliverable, error) {
	history, err := m.History(pkg)
	if err != nil {
		return nil, fmt.Errorf("loading baseline for %s: %w", pkg, err)
	}
	ds, err := manifest.BuildFromHistory(scan, history, pkg.Key(), pkg.Level(), manual)
	if err != nil {
		return nil, fmt.Errorf("building manifest for %s: %w", pkg, err)
	}

	m.log.WithFields(logrus.Fields{
		"package":  pkg.String(),
		"baseline": len(history),
		"summary":  manifest.Summarize(ds).String(),
	}).Debug("manifest built")
	return ds, nil
}

// AttachManifest replaces pkg's manifest with deliverables and records the
// "manifest_attached" state. The set is validated before anything is
// written: duplicate paths, rows owned by another package and unclassified
// rows are ErrIntegrity. It returns the number of rows written.
func (m *Manager) AttachManifest(pkg *types.Package, deliverables []types.Deliverable) (int, error) {
	if err := validateManifest(pkg, deliverables); err != nil {
		return 0, err
	}

	existing, err := m.Deliverables(pkg)
	if err != nil {
		return 0, err
	}
	for _, d := range existing {
		if err := m.deliverables.Delete(d.DeliverableID); err != nil {
			return 0, fmt.Errorf("removing previous manifest row %s of %s: %w", d.Path, pkg, err)
		}
	}

	for _, d := range deliverables {
		d.DeliverableID = ""
		d.PackageID = pkg.PackageID
		if _, err := m.deliverables.Set("", &d); err != nil {
			return 0, fmt.Errorf("attaching %s to %s: %w", d.Path, pkg, err)
		}
	}

	summary := manifest.Summarize(deliverables)
	if _, err := m.events.Record(pkg.EventsID, types.PackageStateManifestAttached, summary.String(), m.actor); err != nil {
		return 0, fmt.Errorf("recording manifest state of %s: %w", pkg, err)
	}

	m.log.WithFields(logrus.Fields{
		"package":  pkg.String(),
		"replaced": len(existing),
		"count":    len(deliverables),
		"summary":  summary.String(),
	}).Info("manifest attached")
	return len(deliverables), nil
}

func validateManifest(pkg *types.Package, deliverables []types.Deliverable) error {
	seen := make(map[string]bool, len(deliverables))
	for _, d := range deliverables {
		if d.Path == "" {
			return fmt.Errorf("%w: manifest for %s has an empty path", types.ErrIntegrity, pkg)
		}
		if seen[d.Path] {
			return fmt.Errorf("%w: manifest for %s lists %s twice", types.ErrIntegrity, pkg, d.Path)
		}
		seen[d.Path] = true
		if d.PackageID != "" && d.PackageID != pkg.PackageID {
			return fmt.Errorf("%w: %s belongs to package %s, not %s", types.ErrIntegrity, d.Path, d.PackageID, pkg)
		}
		if !types.ValidDeliverableType(d.Type) {
			return fmt.Errorf("%w: %s has type %q", types.ErrIntegrity, d.Path, d.Type)
		}
		if d.Action == types.ActionUnknown || !types.ValidAction(d.Action) {
			return fmt.Errorf("%w: %s has unresolved action %q", types.ErrIntegrity, d.Path, d.Action)
		}
	}
	return nil
}
