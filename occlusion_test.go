package vkpresent

import "testing"

func TestPresentTaskIsIdle(t *testing.T) {
	c := &presentCounters{}
	if !c.presentTaskIsIdle() {
		t.Error("a fresh counter pair should be idle")
	}
	c.userPresentCount.Store(1)
	if c.presentTaskIsIdle() {
		t.Error("a pending present should not be idle")
	}
	c.presentCount.Store(1)
	if !c.presentTaskIsIdle() {
		t.Error("matching counters should be idle again")
	}
}

func TestIsOccludedNowQueriesWhenIdle(t *testing.T) {
	gpu := newFakeBackend(800, 600)
	surface, _ := gpu.BindSurface(fakeHandle(0))
	counters := &presentCounters{}
	occl := &occlusionState{}

	if isOccludedNow(gpu, surface, counters, occl) {
		t.Error("a nonzero-extent surface should not be occluded")
	}

	gpu.mu.Lock()
	gpu.surfaceW = 0
	gpu.mu.Unlock()

	if !isOccludedNow(gpu, surface, counters, occl) {
		t.Error("a zero-extent surface should be reported as occluded")
	}
}

func TestIsOccludedNowTrustsCacheWhenBusy(t *testing.T) {
	gpu := newFakeBackend(0, 0)
	surface, _ := gpu.BindSurface(fakeHandle(0))
	counters := &presentCounters{}
	counters.userPresentCount.Store(1) // present in flight, not yet matched

	occl := &occlusionState{}
	occl.setOccluded(false)

	if isOccludedNow(gpu, surface, counters, occl) {
		t.Error("a busy worker should trust the cached flag, not re-query a zero-extent surface")
	}
}
