package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

var _ types.Table = (*packagesTable)(nil)

// packagesTable implements the Table interface for packages.
type packagesTable struct {
	backend *Backend
}

const packageColumns = "package_id, tool_kit, component, platform, maintenance, patch, events_id, created_by, created_at"

var packageFilters = filterColumns{
	"tool_kit":    kindString,
	"component":   kindString,
	"platform":    kindString,
	"maintenance": kindInt,
	"patch":       kindInt,
	"events_id":   kindString,
}

// Get retrieves a package by ID.
func (pt *packagesTable) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	db, err := pt.backend.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRow("SELECT "+packageColumns+" FROM packages WHERE package_id = ?", id)
	pkg, err := hydratePackage(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting package %s: %w", id, err)
	}
	return pkg, nil
}

// Set inserts or updates a package. An empty id creates the package with a
// new UUID v7 and stamps CreatedAt when unset.
func (pt *packagesTable) Set(id string, data any) (string, error) {
	pkg, ok := data.(*types.Package)
	if !ok {
		return "", types.ErrInvalidData
	}
	if pkg.ToolKit == "" || pkg.Component == "" || pkg.Platform == "" {
		return "", fmt.Errorf("%w: package key must be complete", types.ErrInvalidData)
	}
	if pkg.Maintenance < 0 || pkg.Patch < 0 {
		return "", fmt.Errorf("%w: negative level %s", types.ErrInvalidData, pkg.Level())
	}
	if pkg.EventsID == "" {
		return "", fmt.Errorf("%w: package requires an events collection", types.ErrInvalidData)
	}
	db, err := pt.backend.conn()
	if err != nil {
		return "", err
	}

	if id == "" {
		if id, err = newUUID(); err != nil {
			return "", err
		}
	}
	pkg.PackageID = id
	if pkg.CreatedAt.IsZero() {
		pkg.CreatedAt = time.Now().UTC()
	}

	found, err := exists(db, "packages", "package_id", id)
	if err != nil {
		return "", err
	}
	if found {
		_, err = db.Exec(
			"UPDATE packages SET tool_kit = ?, component = ?, platform = ?, maintenance = ?, patch = ?, events_id = ?, created_by = ?, created_at = ? WHERE package_id = ?",
			pkg.ToolKit, pkg.Component, pkg.Platform, pkg.Maintenance, pkg.Patch, pkg.EventsID, pkg.CreatedBy, formatTime(pkg.CreatedAt), id,
		)
	} else {
		_, err = db.Exec(
			"INSERT INTO packages ("+packageColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			id, pkg.ToolKit, pkg.Component, pkg.Platform, pkg.Maintenance, pkg.Patch, pkg.EventsID, pkg.CreatedBy, formatTime(pkg.CreatedAt),
		)
	}
	if err != nil {
		return "", mapWriteErr("persisting package "+pkg.String(), err)
	}
	return id, nil
}

// Delete removes a package row. It does not cascade; the lifecycle manager
// deletes dependents first.
func (pt *packagesTable) Delete(id string) error {
	db, err := pt.backend.conn()
	if err != nil {
		return err
	}
	if err := deleteByID(db, "packages", "package_id", id); err != nil {
		return mapWriteErr("deleting package "+id, err)
	}
	return nil
}

// Fetch returns packages matching the filter, highest level first, ties
// broken by package ID.
func (pt *packagesTable) Fetch(filter types.Filter) ([]any, error) {
	clause, args, err := where(filter, packageFilters)
	if err != nil {
		return nil, err
	}
	db, err := pt.backend.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		"SELECT "+packageColumns+" FROM packages"+clause+" ORDER BY maintenance DESC, patch DESC, package_id ASC",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching packages: %w", err)
	}
	return collect(rows, func(s rowScanner) (any, error) { return hydratePackage(s) })
}

func hydratePackage(s rowScanner) (*types.Package, error) {
	var (
		pkg       types.Package
		createdAt string
	)
	if err := s.Scan(&pkg.PackageID, &pkg.ToolKit, &pkg.Component, &pkg.Platform,
		&pkg.Maintenance, &pkg.Patch, &pkg.EventsID, &pkg.CreatedBy, &createdAt); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	pkg.CreatedAt = t
	return &pkg, nil
}
