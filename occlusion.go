package vkpresent

import "sync/atomic"

// presentCounters tracks the two monotonic counters whose comparison
// decides whether the worker is idle (spec §4.9): presentCount is bumped
// by the worker after each finished request, userPresentCount by the
// client for every request Present enqueues. They intentionally live together
// outside both presentState and the request ring, since is_occluded reads
// them without taking the worker's state lock.
type presentCounters struct {
	presentCount     atomic.Uint64 // release-stored by the worker
	userPresentCount atomic.Uint64 // stored by the client under Present
}

// presentTaskIsIdle reports whether the worker has drained every request
// the client has submitted so far (SPEC_FULL §C.1, shared helper lifted
// from the occlusion/drain predicates): presentCount == userPresentCount,
// both read with acquire ordering so a true result also publishes
// everything the worker wrote before its last counter bump.
func (c *presentCounters) presentTaskIsIdle() bool {
	return c.presentCount.Load() == c.userPresentCount.Load()
}

// occlusionState is the zero-extent / surface-occluded cache (spec §4.9).
// The worker updates isOccluded with a relaxed store whenever it observes a
// zero-extent surface or an occluded present result; is_occluded() prefers
// a direct surface query when the worker is idle (cheap and current) and
// falls back to the cached flag when a present is in flight (can't query
// safely without racing the worker's swapchain recreation).
type occlusionState struct {
	isOccluded atomic.Bool
}

func (o *occlusionState) setOccluded(v bool) { o.isOccluded.Store(v) }

// isOccludedNow implements is_occluded(): if the worker is idle, it asks
// the backend directly for current surface extent; otherwise it trusts the
// cached flag the worker last published.
func isOccludedNow(gpu GPUBackend, surface SurfaceHandle, counters *presentCounters, occl *occlusionState) bool {
	if counters.presentTaskIsIdle() {
		caps, err := gpu.SurfaceCapabilities(surface)
		if err != nil {
			return occl.isOccluded.Load()
		}
		occluded := caps.CurrentWidth == 0 || caps.CurrentHeight == 0
		occl.setOccluded(occluded)
		return occluded
	}
	return occl.isOccluded.Load()
}
