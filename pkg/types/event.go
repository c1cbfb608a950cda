package types

import "time"

// Package lifecycle states recorded in a package's events collection.
const (
	PackageStateNew              = "new"
	PackageStateManifestAttached = "manifest_attached"
	PackageStateChangesLinked    = "changes_linked"
)

// EventsCollection owns an ordered, append-only sequence of events. Any
// lifecycle-tracked entity holds the ID of exactly one collection.
type EventsCollection struct {
	EventsID   string    `json:"events_id"`
	OwnerTable string    `json:"owner_table"` // table of the owning entity, e.g. "packages"
	CreatedAt  time.Time `json:"created_at"`
}

// Event is one state transition. ExpiresAt is nil while the event is the
// current state of its collection.
type Event struct {
	EventID   string     `json:"event_id"`
	EventsID  string     `json:"events_id"`
	Seq       int64      `json:"seq"` // append order within the collection
	State     string     `json:"state"`
	Comment   string     `json:"comment"`
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Current reports whether e is the current state of its collection.
func (e *Event) Current() bool {
	return e.ExpiresAt == nil
}
