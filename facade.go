package vkpresent

import (
	"context"
	"fmt"
	"sync"
)

// SwapChain is the client-facing facade (spec §3, "Client Facade"): it
// owns the stable user buffer pool, the present worker, and (when the
// backend supports present-wait) the waiter goroutine, and presents a
// DXGI-shaped call surface over all three.
type SwapChain struct {
	gpu     GPUBackend
	surface SurfaceHandle

	descMu sync.Mutex
	desc   Descriptor

	poolMu sync.Mutex
	pool   *bufferPool

	sync     *syncObjects
	counters *presentCounters
	occl     *occlusionState
	latency  *latencyController
	worker   *presentWorker
	waiter   *waiterThread

	ctx    context.Context
	cancel context.CancelFunc

	breadcrumb BreadcrumbSink
}

// New creates a swap chain over window using the supplied backend (spec
// §4.1): it binds the surface, verifies present support, allocates the
// initial user buffer pool, creates the sync objects, and starts the
// present worker (and waiter, when available).
func New(gpu GPUBackend, window WindowHandle, desc Descriptor, breadcrumb BreadcrumbSink) (*SwapChain, error) {
	surface, err := gpu.BindSurface(window)
	if err != nil {
		return nil, fmt.Errorf("bind surface: %w", err)
	}
	if err := createSurface(gpu, surface); err != nil {
		return nil, err
	}

	pool, err := reallocateUserBuffers(gpu, int(desc.BufferCount), desc.Width, desc.Height, desc.Format)
	if err != nil {
		return nil, fmt.Errorf("allocate user buffers: %w", err)
	}

	waitable := desc.Flags&LatencyWaitable != 0
	initialLatency := int64(DefaultLatency)
	supportsWait := gpu.SupportsPresentWait()
	if !waitable {
		initialLatency = DefaultLatency - 1
	}

	so, err := newSyncObjects(gpu, initialLatency)
	if err != nil {
		pool.destroy()
		return nil, err
	}

	latency := newLatencyController(so.latencySem, initialLatency, supportsWait)

	if breadcrumb == nil {
		breadcrumb = defaultBreadcrumbSink
	}

	counters := &presentCounters{}
	occl := &occlusionState{}

	worker := newPresentWorker(gpu, surface, desc, pool, so, counters, occl, latency, nil, breadcrumb)

	sc := &SwapChain{
		gpu:        gpu,
		surface:    surface,
		desc:       desc,
		pool:       pool,
		sync:       so,
		counters:   counters,
		occl:       occl,
		latency:    latency,
		worker:     worker,
		breadcrumb: breadcrumb,
	}

	if supportsWait {
		waiter := newWaiterThread(gpu, sc.currentSwapchainHandle, latency)
		worker.waiter = waiter
		sc.waiter = waiter
	}

	sc.ctx, sc.cancel = context.WithCancel(context.Background())
	go worker.run(sc.ctx)
	if sc.waiter != nil {
		go sc.waiter.run(sc.ctx)
	}

	return sc, nil
}

func (sc *SwapChain) currentSwapchainHandle() SwapchainHandle {
	sc.worker.stateMu.Lock()
	defer sc.worker.stateMu.Unlock()
	if sc.worker.state == nil {
		return nil
	}
	return sc.worker.state.handle
}

// GetDesc returns the swap chain's current descriptor (spec §3).
func (sc *SwapChain) GetDesc() Descriptor {
	sc.descMu.Lock()
	defer sc.descMu.Unlock()
	return sc.desc
}

// GetImage returns the user back buffer at index, adding a public
// reference the caller must release (spec §4.1, "GetImage").
func (sc *SwapChain) GetImage(index uint32) (UserTexture, error) {
	sc.poolMu.Lock()
	defer sc.poolMu.Unlock()
	buf, err := sc.pool.at(index)
	if err != nil {
		return nil, err
	}
	buf.addPublicRef()
	return buf.texture, nil
}

// ReleaseImage drops the public reference GetImage added.
func (sc *SwapChain) ReleaseImage(index uint32) error {
	sc.poolMu.Lock()
	defer sc.poolMu.Unlock()
	buf, err := sc.pool.at(index)
	if err != nil {
		return err
	}
	if buf.releasePublicRef() < 0 {
		buf.addPublicRef()
		return fmt.Errorf("%w: released image %d more times than acquired", ErrInvalidCall, index)
	}
	return nil
}

// GetImageIndex returns the index of the back buffer the next Present call
// will consume, following the source's own round-robin allocation: it is
// simply the worker's next unconsumed slot, tracked by the userPresentCount
// counter modulo the buffer count.
func (sc *SwapChain) GetImageIndex() uint32 {
	sc.poolMu.Lock()
	count := uint32(sc.pool.count())
	sc.poolMu.Unlock()
	if count == 0 {
		return 0
	}
	return uint32(sc.counters.userPresentCount.Load()) % count
}

// PresentParams carries the arguments to Present that aren't implied by
// the swap chain's current descriptor (spec §4.6).
type PresentParams struct {
	UserIndex    uint32
	ColorSpace   ColorSpace
	HDRMetadata  HDR10MetaData
	ModifiesHDR  bool
	SwapInterval uint32
	NodeMask     uint32
	PresentID    uint64
	HasPresentID bool

	// Test requests the DXGI_PRESENT_TEST short-circuit (§4.6 step 2): no
	// frame is enqueued, and a nil return only confirms the swap chain
	// could currently accept a present.
	Test bool
}

// Present enqueues a present request (spec §4.6). Occlusion is checked
// first (step 1): an occluded or zero-extent surface returns ErrOccluded
// without enqueuing anything. The test flag is checked next (step 2): it
// short-circuits before the frame-latency semaphore is ever touched, since
// a test present must not consume backpressure capacity. Only past both
// checks does Present block on the frame-latency semaphore (step 6
// reordered ahead of the ring write, as before).
func (sc *SwapChain) Present(params PresentParams) error {
	if isOccludedNow(sc.gpu, sc.surface, sc.counters, sc.occl) {
		return ErrOccluded
	}
	if params.Test {
		return nil
	}

	if err := sc.latency.acquireSlot(sc.ctx); err != nil {
		return err
	}

	sc.descMu.Lock()
	scaling := sc.desc.Scaling
	format := sc.desc.Format
	sc.descMu.Unlock()

	req := presentRequest{
		userIndex:      params.UserIndex,
		format:         format,
		colorSpace:     params.ColorSpace,
		hdrMetadata:    params.HDRMetadata,
		modifiesHDR:    params.ModifiesHDR,
		swapInterval:   params.SwapInterval,
		nodeMask:       params.NodeMask,
		presentIDValid: params.HasPresentID,
		presentID:      params.PresentID,
		scaling:        scaling,
	}

	if params.ModifiesHDR && colorSpaceIsHDR10(params.ColorSpace) {
		if err := sc.gpu.SetHDRMetadata(sc.currentSwapchainHandle(), convertHDR10(params.HDRMetadata)); err != nil {
			sc.latency.releaseSlot()
			return fmt.Errorf("push hdr metadata: %w", err)
		}
	}

	if !sc.worker.enqueue(req) {
		sc.latency.releaseSlot()
		return fmt.Errorf("%w: request ring full", ErrInvalidCall)
	}
	return nil
}

// ChangeProperties reallocates the user buffer pool against a new
// descriptor (spec §4.2). It is only legal when every buffer's public
// refcount is zero, and it drains every outstanding present before
// swapping pools, by waiting on the blit-counter timeline semaphore to
// reach the request count already enqueued (spec §4.6 step 7) rather than a
// broad QueueWaitIdle.
func (sc *SwapChain) ChangeProperties(next Descriptor) error {
	sc.descMu.Lock()
	unchanged := sc.desc.sameGeometry(next)
	sc.descMu.Unlock()
	if unchanged {
		return nil
	}

	sc.poolMu.Lock()
	if !sc.pool.allPublicRefsZero() {
		sc.poolMu.Unlock()
		return fmt.Errorf("%w: outstanding public buffer references", ErrInvalidCall)
	}
	sc.poolMu.Unlock()

	drainTo := sc.counters.userPresentCount.Load()
	if err := sc.gpu.WaitTimeline(sc.ctx, sc.sync.blitCounter, drainTo); err != nil {
		return fmt.Errorf("drain outstanding presents: %w", err)
	}

	newPool, err := reallocateUserBuffers(sc.gpu, int(next.BufferCount), next.Width, next.Height, next.Format)
	if err != nil {
		return fmt.Errorf("reallocate user buffers: %w", err)
	}

	sc.poolMu.Lock()
	old := sc.pool
	sc.pool = newPool
	sc.poolMu.Unlock()
	old.destroy()

	sc.worker.poolMu.Lock()
	sc.worker.pool = newPool
	sc.worker.poolMu.Unlock()

	sc.descMu.Lock()
	sc.desc = next
	sc.descMu.Unlock()

	sc.worker.descMu.Lock()
	sc.worker.desc = next
	sc.worker.descMu.Unlock()

	return nil
}

// SetFrameLatency changes the maximum number of frames a client may have
// in flight (spec §4.8). It is only valid on a waitable swap chain; a
// non-waitable one manages its own fixed latency internally.
func (sc *SwapChain) SetFrameLatency(n uint32) error {
	sc.descMu.Lock()
	waitable := sc.desc.Flags&LatencyWaitable != 0
	sc.descMu.Unlock()
	if !waitable {
		return fmt.Errorf("%w: SetFrameLatency requires a waitable swap chain", ErrInvalidCall)
	}
	return sc.latency.setMaxLatency(n)
}

// FrameLatency reports the currently configured maximum frame latency
// (supplemental getter, SPEC_FULL §C.5, not present in the distilled
// spec's facade but restored from the source's own accessor).
func (sc *SwapChain) FrameLatency() uint32 {
	return uint32(sc.latency.maxLatency)
}

// CheckColorSpaceSupport reports whether cs can be negotiated against the
// current surface (SPEC_FULL §C.4).
func (sc *SwapChain) CheckColorSpaceSupport(cs ColorSpace) (ColorSpaceSupportFlags, error) {
	formats, err := sc.gpu.SurfaceFormats(sc.surface)
	if err != nil {
		return 0, err
	}
	sc.descMu.Lock()
	want := SurfaceFormat{Format: sc.desc.Format, ColorSpace: cs}
	sc.descMu.Unlock()
	if _, err := negotiateSurfaceFormat(formats, want); err != nil {
		return 0, nil
	}
	return ColorSpaceSupportPresent, nil
}

// IsOccluded reports whether the swap chain's surface is currently
// occluded or has a zero extent (spec §4.9).
func (sc *SwapChain) IsOccluded() bool {
	return isOccludedNow(sc.gpu, sc.surface, sc.counters, sc.occl)
}

// SetPresentRegion and SetGammaControl are part of the DXGI vtable this
// facade otherwise mirrors but are explicitly out of scope: partial
// present regions and gamma ramps are not implemented (Non-goals).
func (sc *SwapChain) SetPresentRegion(_ any) error { return ErrNotImplemented }
func (sc *SwapChain) SetGammaControl(_ any) error  { return ErrNotImplemented }

// Close stops the worker and waiter goroutines and releases every GPU
// resource the swap chain owns.
func (sc *SwapChain) Close() error {
	sc.cancel()
	sc.worker.close()
	if sc.waiter != nil {
		sc.waiter.close()
	}

	sc.worker.stateMu.Lock()
	state := sc.worker.state
	sc.worker.stateMu.Unlock()

	if err := sc.gpu.QueueWaitIdle(); err != nil {
		sc.breadcrumb("queue wait idle on close: %v", err)
	}
	if state != nil {
		state.destroy(sc.gpu)
	}

	sc.poolMu.Lock()
	sc.pool.destroy()
	sc.poolMu.Unlock()

	sc.sync.destroy(sc.gpu)
	return nil
}
