package lifecycle

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

// CreateRequest describes a package to create.
type CreateRequest struct {
	Key   types.PackageKey
	Level types.Level

	// EventsID reuses an existing events collection. Empty allocates one.
	EventsID string

	// Comment is recorded on the initial "new" event.
	Comment string

	// ToolKitPackageID and ComponentVersionIDs, when set, are linked to the
	// new package as its owners.
	ToolKitPackageID    string
	ComponentVersionIDs []string
}

// Create inserts a package and records its initial "new" state. A package
// with the same key and level is ErrDuplicate.
func (m *Manager) Create(req CreateRequest) (*types.Package, error) {
	if _, found, err := m.Find(req.Key, req.Level); err != nil {
		return nil, fmt.Errorf("checking for existing package: %w", err)
	} else if found {
		return nil, fmt.Errorf("%w: package %s@%s", types.ErrDuplicate, req.Key, req.Level)
	}

	eventsID := req.EventsID
	if eventsID == "" {
		id, err := m.events.NewCollection(types.TablePackages)
		if err != nil {
			return nil, err
		}
		eventsID = id
	}

	pkg := &types.Package{
		ToolKit:     req.Key.ToolKit,
		Component:   req.Key.Component,
		Platform:    req.Key.Platform,
		Maintenance: req.Level.Maintenance,
		Patch:       req.Level.Patch,
		EventsID:    eventsID,
		CreatedBy:   m.actor,
		CreatedAt:   m.clock.Now(),
	}
	if _, err := m.packages.Set("", pkg); err != nil {
		return nil, fmt.Errorf("creating package %s: %w", pkg, err)
	}

	if _, err := m.events.Record(eventsID, types.PackageStateNew, req.Comment, m.actor); err != nil {
		return nil, fmt.Errorf("recording initial state of %s: %w", pkg, err)
	}

	if req.ToolKitPackageID != "" {
		if err := m.link(types.LinkTypeToolKitPackage, req.ToolKitPackageID, pkg.PackageID); err != nil {
			return nil, err
		}
	}
	for _, cv := range req.ComponentVersionIDs {
		if err := m.link(types.LinkTypeComponentVersion, cv, pkg.PackageID); err != nil {
			return nil, err
		}
	}

	m.log.WithFields(logrus.Fields{
		"package":    pkg.String(),
		"package_id": pkg.PackageID,
	}).Info("package created")
	return pkg, nil
}

func (m *Manager) link(linkType, fromID, toID string) error {
	_, err := m.links.Set("", &types.Link{
		LinkType:  linkType,
		FromID:    fromID,
		ToID:      toID,
		CreatedAt: m.clock.Now(),
	})
	if err != nil {
		return fmt.Errorf("linking %s %s -> %s: %w", linkType, fromID, toID, err)
	}
	return nil
}
