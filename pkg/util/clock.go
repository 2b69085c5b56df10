package util

import "time"

// Clock supplies the current time. Order validity windows are point-in-time
// checks against it, never scheduled events.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FixedClock reports a preset instant; used by tests and replay tooling
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }
