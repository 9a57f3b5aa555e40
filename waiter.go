package vkpresent

import (
	"context"
	"sync"
)

// waiterThread is the dedicated goroutine that consumes present IDs and
// releases the frame-latency semaphore once the backend reports the
// present actually completed (spec §4.8, "waiter thread", preferred over
// the timeline-fence fallback whenever GPUBackend.SupportsPresentWait is
// true). It owns its own queue, mutex, and condvar-equivalent, matching the
// source's separation of the waiter from the present worker: the waiter
// never touches the swapchain or the request ring, only present IDs and
// the latency semaphore.
type waiterThread struct {
	gpu     GPUBackend
	state   func() SwapchainHandle // reads the worker's current swapchain handle
	latency *latencyController

	mu      sync.Mutex
	cond    *sync.Cond
	pending []uint64
	closed  bool

	done chan struct{}
}

func newWaiterThread(gpu GPUBackend, stateFn func() SwapchainHandle, latency *latencyController) *waiterThread {
	w := &waiterThread{
		gpu:     gpu,
		state:   stateFn,
		latency: latency,
		done:    make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// notify hands the waiter a newly-completed present's ID (called from the
// worker goroutine, never from a client thread, spec §4.8).
func (w *waiterThread) notify(presentID uint64) {
	w.mu.Lock()
	w.pending = append(w.pending, presentID)
	w.mu.Unlock()
	w.cond.Signal()
}

// run drains the pending queue, waiting on each present ID in turn and
// releasing one frame-latency slot per completion. It only starts when the
// backend reports present-wait support; otherwise finishRequest in
// worker.go releases slots directly and this goroutine is
// never started (spec §4.8).
func (w *waiterThread) run(ctx context.Context) {
	defer close(w.done)
	for {
		w.mu.Lock()
		for len(w.pending) == 0 && !w.closed {
			w.cond.Wait()
		}
		if w.closed && len(w.pending) == 0 {
			w.mu.Unlock()
			return
		}
		id := w.pending[0]
		w.mu.Unlock()

		sc := w.state()
		if sc != nil {
			// Errors here are breadcrumb-worthy but not fatal to the
			// waiter loop: a lost surface simply means this present ID
			// will never complete, and the latency slot is released
			// anyway so clients aren't starved.
			_, _ = w.gpu.WaitForPresentID(sc, id, ^uint64(0))
		}
		w.latency.releaseSlot()

		// The ID is only dequeued once its wait has actually completed, not
		// when it's picked up: drainPending relies on this to mean "no
		// present-wait against this swapchain's images is still in flight"
		// (dxgi_vk_swap_chain_drain_waiter).
		w.mu.Lock()
		w.pending = w.pending[1:]
		w.cond.Broadcast()
		w.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// drainPending blocks until every present ID handed to notify has been
// processed by run, matching dxgi_vk_swap_chain_drain_waiter: a swapchain's
// per-image views and semaphores must not be destroyed while a present-wait
// against one of its images could still be outstanding.
func (w *waiterThread) drainPending() {
	w.mu.Lock()
	for len(w.pending) > 0 && !w.closed {
		w.cond.Wait()
	}
	w.mu.Unlock()
}

func (w *waiterThread) close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.cond.Signal()
	<-w.done
}
