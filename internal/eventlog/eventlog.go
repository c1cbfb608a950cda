// Package eventlog implements the append-only state history shared by every
// lifecycle-tracked entity.
//
// A collection holds an ordered list of events. Exactly one event, the last
// one appended, has no expiration; that event is the collection's current
// state. Recording a transition expires the current event and appends a new
// one with the same timestamp.
package eventlog

import (
	"fmt"
	"time"

	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

// RecordTransition expires the current event in events and appends a new
// current event in state. It returns the updated slice and the appended
// event. The input slice is not modified.
//
// The new event inherits the EventsID and the next Seq of the collection;
// for an empty collection the caller sets EventsID. A history that already
// has more than one current event is rejected with ErrIntegrity.
func RecordTransition(events []types.Event, state, comment, actor string, now time.Time) ([]types.Event, types.Event, error) {
	out := make([]types.Event, len(events), len(events)+1)
	copy(out, events)

	current := -1
	var seq int64
	var eventsID string
	for i := range out {
		if out[i].Seq > seq {
			seq = out[i].Seq
		}
		if eventsID == "" {
			eventsID = out[i].EventsID
		}
		if out[i].Current() {
			if current >= 0 {
				return nil, types.Event{}, integrityError(eventsID, countCurrent(out))
			}
			current = i
		}
	}

	if current >= 0 {
		expires := now
		out[current].ExpiresAt = &expires
	}

	next := types.Event{
		EventsID:  eventsID,
		Seq:       seq + 1,
		State:     state,
		Comment:   comment,
		CreatedBy: actor,
		CreatedAt: now,
	}
	out = append(out, next)
	return out, next, nil
}

// CurrentState returns the event with no expiration. Zero or several such
// events mean the history is malformed and yield ErrIntegrity.
func CurrentState(events []types.Event) (types.Event, error) {
	var (
		current types.Event
		n       int
	)
	for _, e := range events {
		if e.Current() {
			current = e
			n++
		}
	}
	if n != 1 {
		var eventsID string
		if len(events) > 0 {
			eventsID = events[0].EventsID
		}
		return types.Event{}, integrityError(eventsID, n)
	}
	return current, nil
}

func countCurrent(events []types.Event) int {
	n := 0
	for _, e := range events {
		if e.Current() {
			n++
		}
	}
	return n
}

func integrityError(eventsID string, n int) error {
	return fmt.Errorf("%w: events collection %q has %d current events, want 1", types.ErrIntegrity, eventsID, n)
}
