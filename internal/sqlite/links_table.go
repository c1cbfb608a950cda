package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

var _ types.Table = (*linksTable)(nil)

// linksTable implements the Table interface for join rows.
type linksTable struct {
	backend *Backend
}

var linkFilters = filterColumns{
	"link_type": kindString,
	"from_id":   kindString,
	"to_id":     kindString,
}

func (lt *linksTable) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	db, err := lt.backend.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRow("SELECT link_id, link_type, from_id, to_id, created_at FROM links WHERE link_id = ?", id)
	link, err := hydrateLink(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting link %s: %w", id, err)
	}
	return link, nil
}

// Set creates or updates a link. A second link with the same type and
// endpoints is ErrDuplicate.
func (lt *linksTable) Set(id string, data any) (string, error) {
	link, ok := data.(*types.Link)
	if !ok {
		return "", types.ErrInvalidData
	}
	if !types.ValidLinkType(link.LinkType) {
		return "", fmt.Errorf("%w: link type %q", types.ErrInvalidData, link.LinkType)
	}
	if link.FromID == "" || link.ToID == "" {
		return "", fmt.Errorf("%w: link requires both endpoints", types.ErrInvalidData)
	}
	db, err := lt.backend.conn()
	if err != nil {
		return "", err
	}

	if id == "" {
		if id, err = newUUID(); err != nil {
			return "", err
		}
	}
	link.LinkID = id
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}

	_, err = db.Exec(
		"INSERT INTO links (link_id, link_type, from_id, to_id, created_at) VALUES (?, ?, ?, ?, ?) "+
			"ON CONFLICT(link_id) DO UPDATE SET link_type = excluded.link_type, from_id = excluded.from_id, to_id = excluded.to_id",
		id, link.LinkType, link.FromID, link.ToID, formatTime(link.CreatedAt),
	)
	if err != nil {
		return "", mapWriteErr("persisting "+link.LinkType+" link", err)
	}
	return id, nil
}

func (lt *linksTable) Delete(id string) error {
	db, err := lt.backend.conn()
	if err != nil {
		return err
	}
	return deleteByID(db, "links", "link_id", id)
}

// Fetch returns links matching the filter in creation order.
func (lt *linksTable) Fetch(filter types.Filter) ([]any, error) {
	clause, args, err := where(filter, linkFilters)
	if err != nil {
		return nil, err
	}
	db, err := lt.backend.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		"SELECT link_id, link_type, from_id, to_id, created_at FROM links"+clause+" ORDER BY created_at ASC, link_id ASC",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching links: %w", err)
	}
	return collect(rows, func(s rowScanner) (any, error) { return hydrateLink(s) })
}

func hydrateLink(s rowScanner) (*types.Link, error) {
	var (
		link      types.Link
		createdAt string
	)
	if err := s.Scan(&link.LinkID, &link.LinkType, &link.FromID, &link.ToID, &createdAt); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	link.CreatedAt = t
	return &link, nil
}
