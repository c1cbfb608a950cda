package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

var _ types.Table = (*deliverablesTable)(nil)

// deliverablesTable implements the Table interface for manifest rows.
type deliverablesTable struct {
	backend *Backend
}

const deliverableColumns = "deliverable_id, package_id, path, size, checksum, mod_time, type, action"

var deliverableFilters = filterColumns{
	"package_id": kindString,
	"path":       kindString,
	"action":     kindString,
	"type":       kindString,
}

func (dt *deliverablesTable) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	db, err := dt.backend.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRow("SELECT "+deliverableColumns+" FROM deliverables WHERE deliverable_id = ?", id)
	d, err := hydrateDeliverable(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting deliverable %s: %w", id, err)
	}
	return d, nil
}

// Set inserts or updates a deliverable. The owning package must exist and
// a package may hold each path only once.
func (dt *deliverablesTable) Set(id string, data any) (string, error) {
	d, ok := data.(*types.Deliverable)
	if !ok {
		return "", types.ErrInvalidData
	}
	if d.PackageID == "" || d.Path == "" {
		return "", fmt.Errorf("%w: deliverable requires package and path", types.ErrInvalidData)
	}
	if !types.ValidDeliverableType(d.Type) {
		return "", fmt.Errorf("%w: deliverable type %q", types.ErrInvalidData, d.Type)
	}
	if !types.ValidAction(d.Action) {
		return "", fmt.Errorf("%w: action %q", types.ErrInvalidData, d.Action)
	}
	db, err := dt.backend.conn()
	if err != nil {
		return "", err
	}

	if id == "" {
		if id, err = newUUID(); err != nil {
			return "", err
		}
	}
	d.DeliverableID = id

	found, err := exists(db, "deliverables", "deliverable_id", id)
	if err != nil {
		return "", err
	}
	if found {
		_, err = db.Exec(
			"UPDATE deliverables SET package_id = ?, path = ?, size = ?, checksum = ?, mod_time = ?, type = ?, action = ? WHERE deliverable_id = ?",
			d.PackageID, d.Path, d.Size, int64(d.Checksum), d.ModTime, string(d.Type), string(d.Action), id,
		)
	} else {
		_, err = db.Exec(
			"INSERT INTO deliverables ("+deliverableColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			id, d.PackageID, d.Path, d.Size, int64(d.Checksum), d.ModTime, string(d.Type), string(d.Action),
		)
	}
	if err != nil {
		return "", mapWriteErr("persisting deliverable "+d.Path, err)
	}
	return id, nil
}

func (dt *deliverablesTable) Delete(id string) error {
	db, err := dt.backend.conn()
	if err != nil {
		return err
	}
	return deleteByID(db, "deliverables", "deliverable_id", id)
}

// Fetch returns deliverables matching the filter ordered by path.
func (dt *deliverablesTable) Fetch(filter types.Filter) ([]any, error) {
	clause, args, err := where(filter, deliverableFilters)
	if err != nil {
		return nil, err
	}
	db, err := dt.backend.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		"SELECT "+deliverableColumns+" FROM deliverables"+clause+" ORDER BY path ASC, deliverable_id ASC",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching deliverables: %w", err)
	}
	return collect(rows, func(s rowScanner) (any, error) { return hydrateDeliverable(s) })
}

func hydrateDeliverable(s rowScanner) (*types.Deliverable, error) {
	var (
		d        types.Deliverable
		checksum int64
		typ      string
		action   string
	)
	if err := s.Scan(&d.DeliverableID, &d.PackageID, &d.Path, &d.Size, &checksum, &d.ModTime, &typ, &action); err != nil {
		return nil, err
	}
	d.Checksum = uint32(checksum)
	d.Type = types.DeliverableType(typ)
	d.Action = types.Action(action)
	return &d, nil
}
