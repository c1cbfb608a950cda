package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

var _ types.Table = (*eventsCollectionsTable)(nil)

// eventsCollectionsTable implements the Table interface for events
// collections. Collections are immutable once created; Set on an existing
// ID only rewrites the owner.
type eventsCollectionsTable struct {
	backend *Backend
}

var eventsCollectionFilters = filterColumns{
	"owner_table": kindString,
}

func (ct *eventsCollectionsTable) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	db, err := ct.backend.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRow("SELECT events_id, owner_table, created_at FROM events_collections WHERE events_id = ?", id)
	c, err := hydrateEventsCollection(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting events collection %s: %w", id, err)
	}
	return c, nil
}

func (ct *eventsCollectionsTable) Set(id string, data any) (string, error) {
	c, ok := data.(*types.EventsCollection)
	if !ok {
		return "", types.ErrInvalidData
	}
	if c.OwnerTable == "" {
		return "", fmt.Errorf("%w: events collection requires an owner table", types.ErrInvalidData)
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
	c.EventsID = id
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err = db.Exec(
		"INSERT INTO events_collections (events_id, owner_table, created_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(events_id) DO UPDATE SET owner_table = excluded.owner_table",
		id, c.OwnerTable, formatTime(c.CreatedAt),
	)
	if err != nil {
		return "", mapWriteErr("persisting events collection", err)
	}
	return id, nil
}

// Delete removes a collection. Events must be purged first.
func (ct *eventsCollectionsTable) Delete(id string) error {
	db, err := ct.backend.conn()
	if err != nil {
		return err
	}
	if err := deleteByID(db, "events_collections", "events_id", id); err != nil {
		return mapWriteErr("deleting events collection "+id, err)
	}
	return nil
}

func (ct *eventsCollectionsTable) Fetch(filter types.Filter) ([]any, error) {
	clause, args, err := where(filter, eventsCollectionFilters)
	if err != nil {
		return nil, err
	}
	db, err := ct.backend.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		"SELECT events_id, owner_table, created_at FROM events_collections"+clause+" ORDER BY created_at ASC, events_id ASC",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching events collections: %w", err)
	}
	return collect(rows, func(s rowScanner) (any, error) { return hydrateEventsCollection(s) })
}

func hydrateEventsCollection(s rowScanner) (*types.EventsCollection, error) {
	var (
		c         types.EventsCollection
		createdAt string
	)
	if err := s.Scan(&c.EventsID, &c.OwnerTable, &createdAt); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = t
	return &c, nil
}
