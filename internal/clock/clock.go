// Package clock abstracts the current time so event timestamps are
// deterministic under test.
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// Real implements Clock using the system time, in UTC.
type Real struct{}

// Now returns the current system time in UTC.
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Fake implements Clock with a settable time.
type Fake struct {
	current time.Time
}

// NewFake creates a Fake clock starting at t.
func NewFake(t time.Time) *Fake {
	return &Fake{current: t}
}

// Now returns the fixed time.
func (c *Fake) Now() time.Time {
	return c.current
}

// Set updates the fixed time.
func (c *Fake) Set(t time.Time) {
	c.current = t
}

// Advance moves the fixed time forward by d.
func (c *Fake) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}
