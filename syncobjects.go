package vkpresent

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// perImageSync holds the GPU sync objects lazily created for one
// swapchain image slot the first time it is ever acquired (spec §4.3,
// "per-image lazy sync objects"): a fence the blit submit signals, a
// binary semaphore the blit submit signals and present waits on, and the
// command pool/buffer the blit is recorded into.
type perImageSync struct {
	acquireFence  FenceHandle
	blitDone      SemaphoreHandle
	pool          CommandPool
	cmd           CommandBuffer
	initialized   bool
}

func newPerImageSync(gpu GPUBackend) (*perImageSync, error) {
	fence, err := gpu.NewFence(false)
	if err != nil {
		return nil, fmt.Errorf("acquire fence: %w", err)
	}
	sem, err := gpu.NewBinarySemaphore()
	if err != nil {
		gpu.DestroyFence(fence)
		return nil, fmt.Errorf("blit-done semaphore: %w", err)
	}
	pool, err := gpu.NewCommandPool()
	if err != nil {
		gpu.DestroySemaphore(sem)
		gpu.DestroyFence(fence)
		return nil, fmt.Errorf("command pool: %w", err)
	}
	cb, err := gpu.NewCommandBuffer(pool)
	if err != nil {
		gpu.FreeCommandPool(pool)
		gpu.DestroySemaphore(sem)
		gpu.DestroyFence(fence)
		return nil, fmt.Errorf("command buffer: %w", err)
	}
	return &perImageSync{
		acquireFence: fence,
		blitDone:     sem,
		pool:         pool,
		cmd:          cb,
		initialized:  true,
	}, nil
}

func (s *perImageSync) destroy(gpu GPUBackend) {
	if !s.initialized {
		return
	}
	gpu.FreeCommandPool(s.pool)
	gpu.DestroySemaphore(s.blitDone)
	gpu.DestroyFence(s.acquireFence)
	s.initialized = false
}

// syncObjects bundles the swap-chain-wide (not per-image) sync primitives:
// the blit-counter timeline semaphore clients drain on during
// ChangeProperties (spec §4.3, §4.6 step 7), and a latency fence. The
// latency fence is created and destroyed with the swap chain but is never
// signaled or waited on: when no present ID goes to the waiter, the worker's
// finishRequest releases the latency slot directly (§4.8).
type syncObjects struct {
	blitCounter   TimelineSemaphore
	latencyFence  FenceHandle

	// latencySem models the OS counting semaphore the source uses for
	// frame-latency pacing on the non-waitable path; x/sync/semaphore.Weighted
	// is this package's realization of it (SPEC_FULL §B).
	latencySem *semaphore.Weighted
}

func newSyncObjects(gpu GPUBackend, initialLatency int64) (*syncObjects, error) {
	blitCounter, err := gpu.NewTimelineSemaphore(0)
	if err != nil {
		return nil, fmt.Errorf("blit-counter timeline semaphore: %w", err)
	}
	latencyFence, err := gpu.NewFence(false)
	if err != nil {
		gpu.DestroyTimelineSemaphore(blitCounter)
		return nil, fmt.Errorf("latency fence: %w", err)
	}

	// Capacity is MaxBuffers (spec §3, "maximum count = MAX_BUFFERS"), not
	// DefaultLatency: SetFrameLatency can widen the effective count up to
	// MaxBuffers later, and Release against an under-sized semaphore would
	// panic once it does.
	sem := semaphore.NewWeighted(int64(MaxBuffers))
	// Pre-acquire down to the initial count: DEFAULT_LATENCY-1 on the
	// non-waitable path, the "implicit first acquire" preserved verbatim
	// from the open question rather than reinterpreted (spec §9).
	if held := int64(MaxBuffers) - initialLatency; held > 0 {
		if err := sem.Acquire(context.Background(), held); err != nil {
			gpu.DestroyFence(latencyFence)
			gpu.DestroyTimelineSemaphore(blitCounter)
			return nil, fmt.Errorf("seed latency semaphore: %w", err)
		}
	}

	return &syncObjects{
		blitCounter:  blitCounter,
		latencyFence: latencyFence,
		latencySem:   sem,
	}, nil
}

func (s *syncObjects) destroy(gpu GPUBackend) {
	gpu.DestroyFence(s.latencyFence)
	gpu.DestroyTimelineSemaphore(s.blitCounter)
}
