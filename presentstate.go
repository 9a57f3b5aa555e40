package vkpresent

import (
	"context"
	"errors"
	"fmt"
)

// maxPresentRetries bounds the acquire/present retry loop (spec §4.4): an
// OUT_OF_DATE result from acquire or present, or a SUBOPTIMAL result from
// present, triggers a swapchain recreate and one more attempt, up to this
// many times, before the request is dropped and the swap chain is marked
// occluded. A SUBOPTIMAL acquire result is presented as is and does not by
// itself trigger a recreate.
const maxPresentRetries = 3

// presentOutcome is what processOneRequest reports back to the worker loop
// so it can advance counters, signal the blit-counter timeline semaphore,
// and decide whether to keep the GPU swapchain state it ends with.
type presentOutcome struct {
	state       *gpuSwapchainState
	occluded    bool
	surfaceLost bool
	presentedID uint64
	hadID       bool
}

// processOneRequest runs one acquire -> blit -> submit -> present cycle
// against the given source user buffer, retrying through recreation on a
// bounded schedule (spec §4.4). It is called once per repeatCount() of a
// present request with swapInterval > 1, matching the source's own
// "submit the same image N times for a throttled present" behavior.
func processOneRequest(ctx context.Context, gpu GPUBackend, surface SurfaceHandle, state *gpuSwapchainState, waiter *waiterThread, desc Descriptor, req presentRequest, buf *userBuffer) (presentOutcome, error) {
	var lastErr error

	for attempt := 0; attempt <= maxPresentRetries; attempt++ {
		if state == nil {
			var err error
			state, err = recreateSwapchain(gpu, surface, nil, waiter, desc, req)
			if err != nil {
				lastErr = err
				continue
			}
		}

		outcome, err := tryPresentOnce(ctx, gpu, state, req, buf)
		switch {
		case err == nil && !outcome.needsRecreate:
			return presentOutcome{state: state, presentedID: req.presentID, hadID: req.presentIDValid}, nil

		case err == nil && outcome.needsRecreate:
			next, rerr := recreateSwapchain(gpu, surface, state, waiter, desc, req)
			if rerr != nil {
				lastErr = rerr
				state = nil
				continue
			}
			state = next
			continue

		case isSurfaceLost(err):
			return presentOutcome{state: state, surfaceLost: true}, err

		default:
			lastErr = err
		}
	}

	if lastErr != nil {
		return presentOutcome{state: state, occluded: true}, fmt.Errorf("present retries exhausted: %w", lastErr)
	}
	return presentOutcome{state: state, occluded: true}, nil
}

type presentAttemptResult struct {
	needsRecreate bool
}

// tryPresentOnce performs exactly one acquire/blit/submit/present cycle
// with no retry logic of its own (spec §4.4 steps 1-5).
func tryPresentOnce(ctx context.Context, gpu GPUBackend, state *gpuSwapchainState, req presentRequest, buf *userBuffer) (presentAttemptResult, error) {
	// Step 1: acquire via fence, not semaphore — deliberate, giving the
	// worker synchronous acquire semantics instead of GPU-side waiting.
	acquireFence, err := gpu.NewFence(false)
	if err != nil {
		return presentAttemptResult{}, fmt.Errorf("acquire fence: %w", err)
	}
	defer gpu.DestroyFence(acquireFence)

	imageIndex, result, err := gpu.AcquireNextImage(state.handle, acquireFence, ^uint64(0))
	if err != nil {
		return presentAttemptResult{}, fmt.Errorf("acquire: %w", err)
	}
	if result == PresentResultOutOfDate {
		return presentAttemptResult{needsRecreate: true}, nil
	}
	if result == PresentResultSurfaceLost {
		return presentAttemptResult{}, fmt.Errorf("acquire: %w", ErrSurfaceLost)
	}

	if err := gpu.WaitFence(ctx, acquireFence, ^uint64(0)); err != nil {
		return presentAttemptResult{}, fmt.Errorf("wait acquire fence: %w", err)
	}

	sync, err := state.syncFor(gpu, imageIndex)
	if err != nil {
		return presentAttemptResult{}, err
	}
	if err := gpu.ResetCommandBuffer(sync.cmd); err != nil {
		return presentAttemptResult{}, fmt.Errorf("reset command buffer: %w", err)
	}

	// Step 2: record the blit, keyed by {filter, format} (spec §4.4 step 2).
	key := BlitPipelineKey{Linear: req.scaling == ScalingStretch, Format: state.format.Format}
	dstExtent := [2]uint32{state.width, state.height}
	if err := gpu.RecordBlit(sync.cmd, key, buf.view, state.views[imageIndex], dstExtent, dstExtent, buf.everWritten); err != nil {
		return presentAttemptResult{}, fmt.Errorf("record blit: %w", err)
	}
	buf.everWritten = true

	// Step 3: submit, signaling the per-image binary semaphore present
	// waits on and the per-image fence acquire will wait on next time this
	// image is reused (spec §4.4 step 3). The blit-counter timeline is not
	// signaled here: finishRequest (worker.go) signals it once per request.
	if err := gpu.Submit(sync.cmd, nil, []SemaphoreHandle{sync.blitDone}, nil, 0, sync.acquireFence); err != nil {
		return presentAttemptResult{}, fmt.Errorf("submit: %w", err)
	}

	// Step 4: present, attaching the present ID when the client asked for
	// one (spec §4.4 step 4, feeding the present-wait signal path).
	presentID := uint64(0)
	if req.presentIDValid {
		presentID = req.presentID
	}
	presResult, err := gpu.Present(state.handle, imageIndex, sync.blitDone, presentID)
	if err != nil {
		return presentAttemptResult{}, fmt.Errorf("present: %w", err)
	}

	switch presResult {
	case PresentResultSuccess:
		return presentAttemptResult{}, nil
	case PresentResultSuboptimal:
		// Suboptimal still presented this frame, but it is handled like
		// OUT_OF_DATE: processOneRequest recreates the swapchain and
		// presents the frame again at once. Recreation is not deferred to
		// the next request.
		return presentAttemptResult{needsRecreate: true}, nil
	case PresentResultOutOfDate:
		return presentAttemptResult{needsRecreate: true}, nil
	case PresentResultSurfaceLost:
		return presentAttemptResult{}, fmt.Errorf("present: %w", ErrSurfaceLost)
	default:
		return presentAttemptResult{}, fmt.Errorf("present: %w", ErrInvalidCall)
	}
}

func isSurfaceLost(err error) bool {
	return err != nil && errors.Is(err, ErrSurfaceLost)
}
