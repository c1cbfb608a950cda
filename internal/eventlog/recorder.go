package eventlog

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/pkgtrack/internal/clock"
	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

// Recorder persists event collections through a Store. Packages and change
// requests both keep their history through the same Recorder.
//
// Recorder does not lock. Callers recording on the same collection from
// several processes must serialize, or two writers can both append a
// current event.
type Recorder struct {
	events      types.Table
	collections types.Table
	clock       clock.Clock
}

// NewRecorder resolves the events tables from store. A nil clock uses the
// system clock.
func NewRecorder(store types.Store, clk clock.Clock) (*Recorder, error) {
	events, err := store.GetTable(types.TableEvents)
	if err != nil {
		return nil, fmt.Errorf("getting events table: %w", err)
	}
	collections, err := store.GetTable(types.TableEventsCollections)
	if err != nil {
		return nil, fmt.Errorf("getting events collections table: %w", err)
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Recorder{events: events, collections: collections, clock: clk}, nil
}

// NewCollection allocates an empty collection owned by ownerTable and
// returns its ID.
func (r *Recorder) NewCollection(ownerTable string) (string, error) {
	id, err := r.collections.Set("", &types.EventsCollection{
		OwnerTable: ownerTable,
		CreatedAt:  r.clock.Now(),
	})
	if err != nil {
		return "", fmt.Errorf("creating events collection: %w", err)
	}
	return id, nil
}

// Record transitions the collection to state and returns the new current
// event. The collection must exist.
func (r *Recorder) Record(eventsID, state, comment, actor string) (types.Event, error) {
	if _, found, err := types.Lookup(r.collections, eventsID); err != nil {
		return types.Event{}, fmt.Errorf("looking up events collection %s: %w", eventsID, err)
	} else if !found {
		return types.Event{}, fmt.Errorf("events collection %s: %w", eventsID, types.ErrNotFound)
	}

	current, err := r.fetch(types.Filter{"events_id": eventsID, types.FilterCurrent: true})
	if err != nil {
		return types.Event{}, err
	}

	updated, next, err := RecordTransition(current, state, comment, actor, r.clock.Now())
	if err != nil {
		return types.Event{}, err
	}
	next.EventsID = eventsID
	// Seq is assigned by the store so it stays unique across the full
	// history, not just the current slice.
	next.Seq = 0

	for i := range current {
		e := updated[i]
		if _, err := r.events.Set(e.EventID, &e); err != nil {
			return types.Event{}, fmt.Errorf("expiring event %s: %w", e.EventID, err)
		}
	}
	if _, err := r.events.Set("", &next); err != nil {
		return types.Event{}, fmt.Errorf("appending %s event: %w", state, err)
	}
	return next, nil
}

// Current returns the collection's current event.
func (r *Recorder) Current(eventsID string) (types.Event, error) {
	current, err := r.fetch(types.Filter{"events_id": eventsID, types.FilterCurrent: true})
	if err != nil {
		return types.Event{}, err
	}
	if len(current) == 0 {
		return types.Event{}, integrityError(eventsID, 0)
	}
	return CurrentState(current)
}

// History returns every event of the collection in append order.
func (r *Recorder) History(eventsID string) ([]types.Event, error) {
	return r.fetch(types.Filter{"events_id": eventsID})
}

// Purge deletes every event of the collection and returns how many were
// removed. The collection row itself is left in place.
func (r *Recorder) Purge(eventsID string) (int, error) {
	events, err := r.History(eventsID)
	if err != nil {
		return 0, err
	}
	for i, e := range events {
		if err := r.events.Delete(e.EventID); err != nil {
			return i, fmt.Errorf("deleting event %s: %w", e.EventID, err)
		}
	}
	return len(events), nil
}

// DropCollection deletes the collection row. Its events must already be
// purged.
func (r *Recorder) DropCollection(eventsID string) error {
	if err := r.collections.Delete(eventsID); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return fmt.Errorf("events collection %s: %w", eventsID, err)
		}
		return fmt.Errorf("dropping events collection %s: %w", eventsID, err)
	}
	return nil
}

func (r *Recorder) fetch(filter types.Filter) ([]types.Event, error) {
	rows, err := r.events.Fetch(filter)
	if err != nil {
		return nil, fmt.Errorf("fetching events: %w", err)
	}
	events := make([]types.Event, 0, len(rows))
	for _, row := range rows {
		e, ok := row.(*types.Event)
		if !ok {
			return nil, fmt.Errorf("%w: events table returned %T", types.ErrInvalidData, row)
		}
		events = append(events, *e)
	}
	return events, nil
}
