package types

import (
	"errors"
	"fmt"
)

// Filter selects entities in Table.Fetch. Keys are column names; values are
// matched for equality. A nil or empty filter matches every entity.
type Filter map[string]any

// Table provides uniform CRUD operations for a single entity type.
// Get and Fetch return any; callers type-assert to the concrete entity struct.
type Table interface {
	// Get retrieves the entity with the given ID.
	// Returns ErrNotFound if no entity exists with that ID.
	Get(id string) (any, error)

	// Set creates or updates an entity. When id is empty a new UUID v7 is
	// generated. Returns the actual ID used (generated or provided).
	Set(id string, data any) (string, error)

	// Delete removes the entity with the given ID.
	// Returns ErrNotFound if no entity exists with that ID.
	Delete(id string) error

	// Fetch returns all entities matching the filter, in a stable order
	// defined by each table.
	Fetch(filter Filter) ([]any, error)
}

// Table operation errors.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidID     = errors.New("invalid entity ID")
	ErrInvalidData   = errors.New("invalid entity data")
	ErrInvalidFilter = errors.New("invalid filter value type")
	ErrDuplicate     = errors.New("entity already exists")
)

// Domain errors. Malformed and Integrity failures abort the operation that
// hit them; ExternalTool failures are degraded by the caller.
var (
	ErrMalformed    = errors.New("malformed input")
	ErrIntegrity    = errors.New("integrity violation")
	ErrExternalTool = errors.New("external tool failed")
)

// Lookup retrieves the entity with the given ID and reports whether it was
// found. A missing entity is (nil, false, nil); err is reserved for real
// backend failures.
func Lookup(t Table, id string) (any, bool, error) {
	entity, err := t.Get(id)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return entity, true, nil
}

// FindOne fetches the single entity matching filter. No match is
// (nil, false, nil). More than one match is an ErrIntegrity error, since
// FindOne is meant for natural keys.
func FindOne(t Table, filter Filter) (any, bool, error) {
	entities, err := t.Fetch(filter)
	if err != nil {
		return nil, false, err
	}
	switch len(entities) {
	case 0:
		return nil, false, nil
	case 1:
		return entities[0], true, nil
	default:
		return nil, false, fmt.Errorf("%w: %d rows match natural key %v", ErrIntegrity, len(entities), filter)
	}
}
