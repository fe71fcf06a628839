// Package clock abstracts the current time so date-driven billing logic
// (trial expiry, cancellation effective dates, cooldowns) is testable with
// fixed timestamps. All times are UTC.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// System returns a Clock backed by time.Now in UTC.
func System() Clock {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed returns a Clock frozen at the given instant. Intended for tests.
func Fixed(t time.Time) *FixedClock {
	return &FixedClock{now: t.UTC()}
}

// FixedClock is a manually advanced Clock for tests.
type FixedClock struct {
	now time.Time
}

func (c *FixedClock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward by d and returns the new time.
func (c *FixedClock) Advance(d time.Duration) time.Time {
	c.now = c.now.Add(d)
	return c.now
}

// Set moves the clock to an absolute instant.
func (c *FixedClock) Set(t time.Time) {
	c.now = t.UTC()
}
