// Package scheduler provides the timer primitive every match runs on:
// non-blocking one-shot and repeating callbacks with cancellable handles.
package scheduler

import "time"

// Handle is a cancellable reference to a scheduled callback. Cancel is
// idempotent and tolerant of a callback that already fired.
type Handle interface {
	Cancel()
}

// Scheduler schedules callbacks without blocking the caller. Callbacks must
// not block; delayed effects are expressed as further scheduled callbacks,
// never as sleeps.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) Handle
	ScheduleRepeating(period time.Duration, fn func()) Handle
	Shutdown()
}

type noopHandle struct{}

func (noopHandle) Cancel() {}
