package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

var _ types.Table = (*eventsTable)(nil)

// eventsTable implements the Table interface for events. New events get
// the next sequence number within their collection.
type eventsTable struct {
	backend *Backend
}

const eventColumns = "event_id, events_id, seq, state, comment, created_by, created_at, expires_at"

var eventFilters = filterColumns{
	"events_id": kindString,
	"state":     kindString,
}

func (et *eventsTable) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	db, err := et.backend.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRow("SELECT "+eventColumns+" FROM events WHERE event_id = ?", id)
	e, err := hydrateEvent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting event %s: %w", id, err)
	}
	return e, nil
}

// Set inserts a new event or updates an existing one. Updates may change
// the comment and expiry only; events are otherwise append-only.
func (et *eventsTable) Set(id string, data any) (string, error) {
	e, ok := data.(*types.Event)
	if !ok {
		return "", types.ErrInvalidData
	}
	if e.EventsID == "" || e.State == "" {
		return "", fmt.Errorf("%w: event requires a collection and a state", types.ErrInvalidData)
	}
	db, err := et.backend.conn()
	if err != nil {
		return "", err
	}

	var found bool
	if id != "" {
		if found, err = exists(db, "events", "event_id", id); err != nil {
			return "", err
		}
	}
	if found {
		_, err = db.Exec(
			"UPDATE events SET comment = ?, expires_at = ? WHERE event_id = ?",
			e.Comment, nullableTime(e.ExpiresAt), id,
		)
		if err != nil {
			return "", mapWriteErr("updating event "+id, err)
		}
		e.EventID = id
		return id, nil
	}

	if id == "" {
		if id, err = newUUID(); err != nil {
			return "", err
		}
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if e.Seq == 0 {
		var maxSeq sql.NullInt64
		if err := tx.QueryRow("SELECT MAX(seq) FROM events WHERE events_id = ?", e.EventsID).Scan(&maxSeq); err != nil {
			return "", fmt.Errorf("reading event sequence: %w", err)
		}
		e.Seq = maxSeq.Int64 + 1
	}

	_, err = tx.Exec(
		"INSERT INTO events ("+eventColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		id, e.EventsID, e.Seq, e.State, e.Comment, e.CreatedBy, formatTime(e.CreatedAt), nullableTime(e.ExpiresAt),
	)
	if err != nil {
		return "", mapWriteErr("persisting event", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing event: %w", err)
	}
	e.EventID = id
	return id, nil
}

func (et *eventsTable) Delete(id string) error {
	db, err := et.backend.conn()
	if err != nil {
		return err
	}
	return deleteByID(db, "events", "event_id", id)
}

// Fetch returns events matching the filter in append order. Besides the
// column keys it accepts types.FilterCurrent.
func (et *eventsTable) Fetch(filter types.Filter) ([]any, error) {
	rest := types.Filter{}
	var current *bool
	for k, v := range filter {
		if k == types.FilterCurrent {
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a bool", types.ErrInvalidFilter, k)
			}
			current = &b
			continue
		}
		rest[k] = v
	}

	clause, args, err := where(rest, eventFilters)
	if err != nil {
		return nil, err
	}
	if current != nil {
		cond := "expires_at IS NULL"
		if !*current {
			cond = "expires_at IS NOT NULL"
		}
		if clause == "" {
			clause = " WHERE " + cond
		} else {
			clause += " AND " + cond
		}
	}

	db, err := et.backend.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(
		"SELECT "+eventColumns+" FROM events"+clause+" ORDER BY events_id ASC, seq ASC",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching events: %w", err)
	}
	return collect(rows, func(s rowScanner) (any, error) { return hydrateEvent(s) })
}

func hydrateEvent(s rowScanner) (*types.Event, error) {
	var (
		e         types.Event
		createdAt string
		expiresAt sql.NullString
	)
	if err := s.Scan(&e.EventID, &e.EventsID, &e.Seq, &e.State, &e.Comment, &e.CreatedBy, &createdAt, &expiresAt); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	e.CreatedAt = t
	if expiresAt.Valid {
		x, err := parseTime(expiresAt.String)
		if err != nil {
			return nil, err
		}
		e.ExpiresAt = &x
	}
	return &e, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
