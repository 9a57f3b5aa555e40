package vkpresent

import (
	"context"
	"sync"
)

// presentWorker is the single goroutine that owns the GPU queue end of the
// present state machine (spec §4.7): it drains the request ring, recreates
// the GPU swapchain when a request demands it, runs the acquire/blit/
// submit/present cycle, and republishes the occlusion and idle counters
// every other part of the package reads without locking.
type presentWorker struct {
	gpu     GPUBackend
	surface SurfaceHandle

	ring     *requestRing
	sync     *syncObjects
	counters *presentCounters
	occl     *occlusionState
	latency  *latencyController
	waiter   *waiterThread

	descMu sync.Mutex
	desc   Descriptor

	poolMu sync.Mutex
	pool   *bufferPool

	stateMu sync.Mutex
	state   *gpuSwapchainState
	last    *presentRequest

	breadcrumb BreadcrumbSink

	stop   chan struct{}
	done   chan struct{}
}

func newPresentWorker(gpu GPUBackend, surface SurfaceHandle, desc Descriptor, pool *bufferPool, sync_ *syncObjects, counters *presentCounters, occl *occlusionState, latency *latencyController, waiter *waiterThread, breadcrumb BreadcrumbSink) *presentWorker {
	if breadcrumb == nil {
		breadcrumb = defaultBreadcrumbSink
	}
	return &presentWorker{
		gpu:        gpu,
		surface:    surface,
		ring:       newRequestRing(),
		sync:       sync_,
		counters:   counters,
		occl:       occl,
		latency:    latency,
		waiter:     waiter,
		desc:       desc,
		pool:       pool,
		breadcrumb: breadcrumb,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// enqueue pushes a present request onto the ring; the caller (facade.go's
// Present) is the only writer, and it bumps userPresentCount only after a
// successful push, matching the source's happens-before edge between the
// client write and the worker's read (spec §4.6).
func (w *presentWorker) enqueue(req presentRequest) bool {
	if !w.ring.push(req) {
		return false
	}
	w.counters.userPresentCount.Add(1)
	return true
}

// run is the worker goroutine body; it is started once from New and
// stopped from SwapChain.Close.
func (w *presentWorker) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case <-w.ring.wait():
		}

		for {
			req, ok := w.ring.pop()
			if !ok {
				break
			}
			w.dispatch(ctx, req)
		}
	}
}

// dispatch handles one request's full repeat count (spec §4.6 step 3 /
// swapInterval semantics: a request with swapInterval N is submitted N
// times, once per vertical blank it should hold the image for).
func (w *presentWorker) dispatch(ctx context.Context, req presentRequest) {
	w.descMu.Lock()
	desc := w.desc
	w.descMu.Unlock()

	w.poolMu.Lock()
	buf, err := w.pool.at(req.userIndex)
	w.poolMu.Unlock()
	if err != nil {
		w.breadcrumb("dispatch: %v", err)
		w.finishRequest(req, nil)
		return
	}
	buf.addPrivateRef()
	defer buf.releasePrivateRef()

	repeats := req.repeatCount()
	var outcome presentOutcome

	w.stateMu.Lock()
	state := w.state
	last := w.last
	w.stateMu.Unlock()

	if state.needsRecreation(desc, req, last) {
		state = nil
	}

	for i := uint32(0); i < repeats; i++ {
		outcome, err = processOneRequest(ctx, w.gpu, w.surface, state, w.waiter, desc, req, buf)
		state = outcome.state
		if outcome.surfaceLost {
			w.breadcrumb("surface lost: %v", err)
			w.occl.setOccluded(true)
			break
		}
		if err != nil {
			w.breadcrumb("present: %v", err)
		}
		w.occl.setOccluded(outcome.occluded)
	}

	w.stateMu.Lock()
	w.state = state
	reqCopy := req
	w.last = &reqCopy
	w.stateMu.Unlock()

	w.finishRequest(req, &outcome)
}

// finishRequest publishes the post-present bookkeeping every observer
// (occlusion query, drain, frame-latency signal) depends on: the
// presentCount release-store that marks the worker idle again (spec §4.9),
// the blit-counter timeline bump clients drain on (spec §4.6 step 7), and
// the present-ID handoff to the waiter thread or fence-fallback path (spec
// §4.8).
func (w *presentWorker) finishRequest(req presentRequest, outcome *presentOutcome) {
	blitCount := w.counters.presentCount.Add(1)
	if w.sync != nil {
		if err := w.gpu.SignalTimeline(w.sync.blitCounter, blitCount); err != nil {
			w.breadcrumb("signal blit counter: %v", err)
		}
	}

	if outcome != nil && outcome.hadID && w.waiter != nil {
		w.waiter.notify(outcome.presentedID)
	} else {
		w.latency.releaseSlot()
	}
}

func (w *presentWorker) close() {
	close(w.stop)
	<-w.done
}
