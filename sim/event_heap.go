package sim

import (
	"container/heap"
	"time"
)

// maxVirtualEvents bounds RunUntilIdle so a callback that keeps rescheduling
// itself cannot spin forever.
const maxVirtualEvents = 1 << 20

// virtualEvent is a callback queued on a VirtualScheduler.
type virtualEvent struct {
	at      time.Duration
	seq     uint64
	fn      func()
	stopped bool
	fired   bool
}

// Stop implements Timer.
func (e *virtualEvent) Stop() bool {
	if e.stopped || e.fired {
		return false
	}
	e.stopped = true
	return true
}

// eventHeap implements heap.Interface with deterministic ordering.
// Order by: due time → scheduling sequence.
type eventHeap []*virtualEvent

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*virtualEvent))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[0 : n-1]
	return item
}

// VirtualScheduler is a discrete-event clock: time only moves when Advance or
// RunUntilIdle is called, and callbacks run synchronously on the caller's
// goroutine in due-time order. Used by tests and the bench command.
//
// Thread-safety: NOT thread-safe. Drive it from a single goroutine.
type VirtualScheduler struct {
	epoch  time.Time
	now    time.Duration
	seq    uint64
	events eventHeap
}

// NewVirtualScheduler creates a scheduler whose clock starts at epoch.
func NewVirtualScheduler(epoch time.Time) *VirtualScheduler {
	s := &VirtualScheduler{epoch: epoch, events: make(eventHeap, 0)}
	heap.Init(&s.events)
	return s
}

// Now returns epoch plus the virtual time elapsed.
func (s *VirtualScheduler) Now() time.Time {
	return s.epoch.Add(s.now)
}

// Elapsed returns the virtual time elapsed since epoch.
func (s *VirtualScheduler) Elapsed() time.Duration {
	return s.now
}

// AfterFunc queues fn to run d after the current virtual time.
func (s *VirtualScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	s.seq++
	ev := &virtualEvent{at: s.now + d, seq: s.seq, fn: fn}
	heap.Push(&s.events, ev)
	return ev
}

// Pending returns the number of queued callbacks that have not been stopped.
func (s *VirtualScheduler) Pending() int {
	n := 0
	for _, ev := range s.events {
		if !ev.stopped {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, running every callback due on the way.
// It returns the number of callbacks run.
func (s *VirtualScheduler) Advance(d time.Duration) int {
	target := s.now + d
	ran := 0
	for {
		ev := s.next()
		if ev == nil || ev.at > target {
			break
		}
		heap.Pop(&s.events)
		s.fire(ev)
		ran++
	}
	s.now = target
	return ran
}

// RunUntilIdle runs callbacks in order until none are queued, advancing the
// clock to each one's due time. It returns the number of callbacks run.
func (s *VirtualScheduler) RunUntilIdle() int {
	ran := 0
	for ran < maxVirtualEvents {
		ev := s.next()
		if ev == nil {
			break
		}
		heap.Pop(&s.events)
		s.fire(ev)
		ran++
	}
	return ran
}

// next discards stopped events and peeks at the earliest live one.
func (s *VirtualScheduler) next() *virtualEvent {
	for s.events.Len() > 0 {
		ev := s.events[0]
		if !ev.stopped {
			return ev
		}
		heap.Pop(&s.events)
	}
	return nil
}

func (s *VirtualScheduler) fire(ev *virtualEvent) {
	if ev.at > s.now {
		s.now = ev.at
	}
	ev.fired = true
	ev.fn()
}
