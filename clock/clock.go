// Package clock abstracts time for the cue engines
//
// A Clock delivers AfterFunc callbacks on the goroutine that owns the cue.
// The Manual clock does so synchronously inside Advance; loop.Loop does so on its
// event goroutine. Engines never see concurrent callbacks.
package clock

import "time"

// Timer is a handle to a scheduled callback
type Timer interface {
	// Stop prevents the callback from running, reports false if it already ran or was stopped
	Stop() bool
}

// Clock is a source of time and single-shot timers
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// TimeProvider returns real wall time with a monotonic reading
// Used where only Now is needed (logging, status) and no timers are armed
type TimeProvider struct{}

// NewTimeProvider creates a real time provider
func NewTimeProvider() *TimeProvider {
	return &TimeProvider{}
}

// Now returns time.Now
func (p *TimeProvider) Now() time.Time {
	return time.Now()
}
