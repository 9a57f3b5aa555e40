package vkpresent

import "sync"

// requestRing is the fixed-capacity circular buffer of pending present
// requests (spec §3 "Request Ring", §4.6). Writes come only from client
// threads calling Present; reads come only from the worker goroutine. The
// mutex here only protects the head/tail/count bookkeeping — the teacher
// idiom of mixing a mutex for short critical sections with atomics for hot
// counters (video_voodoo.go) is followed here with the mutex, since ring
// slots are structs, not scalars a single atomic could carry.
type requestRing struct {
	mu    sync.Mutex
	slots [MaxBuffers]presentRequest
	head  int // next slot the worker reads
	tail  int // next slot a client writes
	count int

	notEmpty chan struct{} // buffered size 1, used as a doorbell
}

func newRequestRing() *requestRing {
	return &requestRing{notEmpty: make(chan struct{}, 1)}
}

// push enqueues a request, returning false if the ring is full (Present
// does not retry: it releases its latency slot and returns ErrInvalidCall).
func (r *requestRing) push(req presentRequest) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == MaxBuffers {
		return false
	}
	r.slots[r.tail] = req
	r.tail = (r.tail + 1) % MaxBuffers
	r.count++
	select {
	case r.notEmpty <- struct{}{}:
	default:
	}
	return true
}

// pop dequeues the oldest request, the worker-enqueue callback's
// happens-before edge in practice since it always runs after push (spec
// §4.6, "written only by client, read only by worker").
func (r *requestRing) pop() (presentRequest, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == 0 {
		return presentRequest{}, false
	}
	req := r.slots[r.head]
	r.head = (r.head + 1) % MaxBuffers
	r.count--
	return req, true
}

func (r *requestRing) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// wait returns the doorbell channel; a receive on it completes once push
// has been called since the previous receive. It does not block itself.
func (r *requestRing) wait() <-chan struct{} {
	return r.notEmpty
}
