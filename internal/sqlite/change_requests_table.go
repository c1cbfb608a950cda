package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

var _ types.Table = (*changeRequestsTable)(nil)

// changeRequestsTable implements the Table interface for change requests.
type changeRequestsTable struct {
	backend *Backend
}

var changeRequestFilters = filterColumns{
	"name":      kindString,
	"status":    kindString,
	"events_id": kindString,
}

func (ct *changeRequestsTable) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	db, err := ct.backend.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRow("SELECT change_request_id, name, status, events_id FROM change_requests WHERE change_request_id = ?", id)
	cr, err := hydrateChangeRequest(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting change request %s: %w", id, err)
	}
	return cr, nil
}

func (ct *changeRequestsTable) Set(id string, data any) (string, error) {
	cr, ok := data.(*types.ChangeRequest)
	if !ok {
		return "", types.ErrInvalidData
	}
	if cr.Name == "" || cr.Status == "" {
		return "", fmt.Errorf("%w: change request requires a name and a status", types.ErrInvalidData)
	}
	db, err := ct.backend.conn()
	if err != nil {
		return "", err
	}

	if id == "" {
		if id, err = newUUID(); err != nil {
			return "", err
		}
	}
	cr.ChangeRequestID = id

	_, err = db.Exec(
		"INSERT INTO change_requests (change_request_id, name, status, events_id) VALUES (?, ?, ?, ?) "+
			"ON CONFLICT(change_request_id) DO UPDATE SET name = excluded.name, status = excluded.status, events_id = excluded.events_id",
		id, cr.Name, cr.Status, nullableString(cr.EventsID),
	)
	if err != nil {
		return "", mapWriteErr("persisting change request "+cr.Name, err)
	}
	return id, nil
}

func (ct *changeRequestsTable) Delete(id string) error {
	db, err := ct.backend.conn()
	if err != nil {
		return err
	}
	return deleteByID(db, "change_requests", "change_request_id", id)
}

// Fetch returns change requests matching the filter ordered by name.
func (ct *changeRequestsTable) Fetch(filter types.Filter) ([]any, error) {
	clause, args, err := where(filter, changeRequestFilters)
	if err != nil {
		return nil, err
	}
	db, err := ct.backend.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		"SELECT change_request_id, name, status, events_id FROM change_requests"+clause+" ORDER BY name ASC",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching change requests: %w", err)
	}
	return collect(rows, func(s rowScanner) (any, error) { return hydrateChangeRequest(s) })
}

func hydrateChangeRequest(s rowScanner) (*types.ChangeRequest, error) {
	var (
		cr       types.ChangeRequest
		eventsID sql.NullString
	)
	if err := s.Scan(&cr.ChangeRequestID, &cr.Name, &cr.Status, &eventsID); err != nil {
		return nil, err
	}
	cr.EventsID = eventsID.String
	return &cr, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
