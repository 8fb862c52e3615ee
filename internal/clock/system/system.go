// Package system provides the wall clock used to stamp reports.
package system

import "time"

// Clock reports wall time in UTC for report timestamps.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC, truncated to the millisecond as rendered in reports.
func (Clock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
