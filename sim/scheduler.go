package sim

import "time"

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop prevents the callback from firing. It returns false if the
	// callback already ran or was already stopped.
	Stop() bool
}

// Scheduler runs callbacks after a delay. The session's three suspension
// points (feasibility delay, inference delay, wait tick) go through it.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// RealtimeScheduler fires callbacks on the wall clock via time.AfterFunc.
// Callbacks run on their own goroutines; Session serializes them.
type RealtimeScheduler struct{}

// NewRealtimeScheduler returns a wall-clock scheduler.
func NewRealtimeScheduler() *RealtimeScheduler {
	return &RealtimeScheduler{}
}

// Now returns the wall-clock time.
func (*RealtimeScheduler) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules fn after d.
func (*RealtimeScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
