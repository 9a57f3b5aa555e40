package vkpresent

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// latencyController paces how many frames a client may have in flight
// before Present blocks (spec §4.8). Two independent signal paths can
// release a waiting client: present-wait, when the backend supports it
// (preferred, driven by the waiter goroutine consuming present IDs), or
// otherwise a direct release by the worker as soon as it has finished the
// request; no GPU fence or event is involved in that second path. Both
// converge on the same latencySem; callers never need to know which path
// is active.
type latencyController struct {
	sem          *semaphore.Weighted
	maxLatency   int64
	waitable     bool // true once SetFrameLatency has succeeded
	supportsWait bool // backend-reported GPUBackend.SupportsPresentWait()
}

func newLatencyController(sem *semaphore.Weighted, initialLatency int64, supportsWait bool) *latencyController {
	return &latencyController{
		sem:          sem,
		maxLatency:   initialLatency,
		supportsWait: supportsWait,
	}
}

// acquireSlot blocks the calling Present until a latency slot is free,
// which is the only backpressure Present applies; a full request ring is
// reported as an error instead (spec §4.6, §4.8).
func (l *latencyController) acquireSlot(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire frame-latency slot: %w", err)
	}
	return nil
}

// releaseSlot is called once a present's result has been signaled to the
// client, by whichever path (present-wait or fence fallback) observed it
// first.
func (l *latencyController) releaseSlot() {
	l.sem.Release(1)
}

// setMaxLatency changes the waitable swap chain's latency frame count
// (spec §4.8, SetFrameLatency). It only widens or narrows the semaphore's
// effective capacity for future acquires; outstanding acquires are not
// retroactively affected, matching the source's own non-blocking
// SetFrameLatency semantics.
func (l *latencyController) setMaxLatency(n uint32) error {
	if n == 0 || n > MaxBuffers {
		return fmt.Errorf("%w: frame latency %d out of range [1,%d]", ErrInvalidArg, n, MaxBuffers)
	}
	delta := int64(n) - l.maxLatency
	switch {
	case delta > 0:
		l.sem.Release(delta)
	case delta < 0:
		// Best-effort narrowing: acquire the slack without blocking. If the
		// slots are currently all in flight, the capacity shrinks lazily as
		// releases happen instead of blocking the setter.
		l.sem.TryAcquire(-delta)
	}
	l.maxLatency = int64(n)
	l.waitable = true
	return nil
}
