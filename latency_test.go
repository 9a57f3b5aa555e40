package vkpresent

import (
	"context"
	"testing"
	"time"

	"golang.org/x/sync/semaphore"
)

func TestLatencyControllerAcquireRelease(t *testing.T) {
	sem := semaphore.NewWeighted(2)
	l := newLatencyController(sem, 2, false)

	ctx := context.Background()
	if err := l.acquireSlot(ctx); err != nil {
		t.Fatalf("acquireSlot: %v", err)
	}
	if err := l.acquireSlot(ctx); err != nil {
		t.Fatalf("acquireSlot: %v", err)
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := l.acquireSlot(ctxTimeout); err == nil {
		t.Error("acquireSlot should block once both slots are held")
	}

	l.releaseSlot()
	if err := l.acquireSlot(ctx); err != nil {
		t.Fatalf("acquireSlot after release: %v", err)
	}
}

func TestLatencyControllerSetMaxLatencyWidensAndNarrows(t *testing.T) {
	sem := semaphore.NewWeighted(int64(MaxBuffers))
	// Hold everything but the initial latency, as newSyncObjects does, so
	// widening has held units to release.
	if !sem.TryAcquire(int64(MaxBuffers) - 2) {
		t.Fatal("seed semaphore: TryAcquire failed")
	}
	l := newLatencyController(sem, 2, false)

	if err := l.setMaxLatency(4); err != nil {
		t.Fatalf("setMaxLatency(4): %v", err)
	}
	if l.maxLatency != 4 {
		t.Errorf("maxLatency = %d, want 4", l.maxLatency)
	}

	if err := l.setMaxLatency(1); err != nil {
		t.Fatalf("setMaxLatency(1): %v", err)
	}
	if l.maxLatency != 1 {
		t.Errorf("maxLatency = %d, want 1", l.maxLatency)
	}
}

func TestLatencyControllerSetMaxLatencyRejectsOutOfRange(t *testing.T) {
	sem := semaphore.NewWeighted(int64(MaxBuffers))
	l := newLatencyController(sem, 2, false)

	if err := l.setMaxLatency(0); err == nil {
		t.Error("expected an error for a zero frame latency")
	}
	if err := l.setMaxLatency(MaxBuffers + 1); err == nil {
		t.Error("expected an error for a frame latency beyond MaxBuffers")
	}
}

// TestLatencyControllerSetMaxLatencyThroughRealConstruction exercises spec
// §8 Scenario 3 (SetFrameLatency(4) from a current latency of 1) against a
// latencyController built the way New() actually builds one — through
// newSyncObjects, not a hand-sized semaphore — so a semaphore capacity that
// is too small to ever widen up to MaxBuffers would surface here as a
// panic inside semaphore.Weighted.Release, not just a wrong maxLatency.
func TestLatencyControllerSetMaxLatencyThroughRealConstruction(t *testing.T) {
	gpu := newFakeBackend(800, 600)
	so, err := newSyncObjects(gpu, 1)
	if err != nil {
		t.Fatalf("newSyncObjects: %v", err)
	}
	l := newLatencyController(so.latencySem, 1, false)

	if err := l.setMaxLatency(4); err != nil {
		t.Fatalf("setMaxLatency(4): %v", err)
	}
	if l.maxLatency != 4 {
		t.Errorf("maxLatency = %d, want 4", l.maxLatency)
	}

	// Widen all the way to MaxBuffers: this is the largest Release the
	// semaphore will ever be asked to perform, and must not panic.
	if err := l.setMaxLatency(MaxBuffers); err != nil {
		t.Fatalf("setMaxLatency(MaxBuffers): %v", err)
	}
}
