package vkpresent

import "testing"

func TestRecreateSwapchainFromNil(t *testing.T) {
	gpu := newFakeBackend(800, 600)
	surface, _ := gpu.BindSurface(fakeHandle(0))
	desc := Descriptor{Width: 800, Height: 600, Format: FormatB8G8R8A8UNorm, BufferCount: 2}
	req := presentRequest{colorSpace: ColorSpaceRGBFullG22NoneP709, swapInterval: 1}

	state, err := recreateSwapchain(gpu, surface, nil, nil, desc, req)
	if err != nil {
		t.Fatalf("recreateSwapchain: %v", err)
	}
	if len(state.images) != 2 {
		t.Errorf("len(images) = %d, want 2", len(state.images))
	}
	if state.presentMode != PresentModeFIFO {
		t.Errorf("presentMode = %v, want FIFO (swapInterval=1 forces vsync)", state.presentMode)
	}
}

func TestRecreateSwapchainZeroExtentFails(t *testing.T) {
	gpu := newFakeBackend(0, 0)
	surface, _ := gpu.BindSurface(fakeHandle(0))
	desc := Descriptor{Width: 800, Height: 600, Format: FormatB8G8R8A8UNorm, BufferCount: 2}
	req := presentRequest{colorSpace: ColorSpaceRGBFullG22NoneP709}

	if _, err := recreateSwapchain(gpu, surface, nil, nil, desc, req); err == nil {
		t.Error("expected an error recreating a swapchain on a zero-extent surface")
	}
}

func TestGpuSwapchainStateSyncForIsLazyAndCached(t *testing.T) {
	gpu := newFakeBackend(800, 600)
	surface, _ := gpu.BindSurface(fakeHandle(0))
	desc := Descriptor{Width: 800, Height: 600, Format: FormatB8G8R8A8UNorm, BufferCount: 2}
	req := presentRequest{colorSpace: ColorSpaceRGBFullG22NoneP709}

	state, err := recreateSwapchain(gpu, surface, nil, nil, desc, req)
	if err != nil {
		t.Fatalf("recreateSwapchain: %v", err)
	}

	s1, err := state.syncFor(gpu, 0)
	if err != nil {
		t.Fatalf("syncFor(0): %v", err)
	}
	s2, err := state.syncFor(gpu, 0)
	if err != nil {
		t.Fatalf("syncFor(0) second call: %v", err)
	}
	if s1 != s2 {
		t.Error("syncFor should cache and return the same per-image sync object")
	}

	if _, err := state.syncFor(gpu, 99); err == nil {
		t.Error("expected an error for an out-of-range image index")
	}
}

// TestRecreateSwapchainDrainsQueueBeforeDestroyingPrevious exercises spec
// §4.5's recreate ordering: the previous swapchain's per-image resources
// must not be torn down until the GPU queue has gone idle, matching
// Close's own QueueWaitIdle-before-destroy ordering.
func TestRecreateSwapchainDrainsQueueBeforeDestroyingPrevious(t *testing.T) {
	gpu := newFakeBackend(800, 600)
	surface, _ := gpu.BindSurface(fakeHandle(0))
	desc := Descriptor{Width: 800, Height: 600, Format: FormatB8G8R8A8UNorm, BufferCount: 2}
	req := presentRequest{colorSpace: ColorSpaceRGBFullG22NoneP709}

	prev, err := recreateSwapchain(gpu, surface, nil, nil, desc, req)
	if err != nil {
		t.Fatalf("recreateSwapchain (initial): %v", err)
	}

	before := gpu.queueWaitIdleCalls
	if _, err := recreateSwapchain(gpu, surface, prev, nil, desc, req); err != nil {
		t.Fatalf("recreateSwapchain (replace): %v", err)
	}
	if gpu.queueWaitIdleCalls != before+1 {
		t.Errorf("QueueWaitIdle calls = %d, want %d", gpu.queueWaitIdleCalls, before+1)
	}
}

func TestNeedsRecreation(t *testing.T) {
	var state *gpuSwapchainState
	desc := Descriptor{Width: 800, Height: 600, Format: FormatB8G8R8A8UNorm, BufferCount: 2}
	req := presentRequest{colorSpace: ColorSpaceRGBFullG22NoneP709}

	if !state.needsRecreation(desc, req, nil) {
		t.Error("a nil state should always need recreation")
	}

	gpu := newFakeBackend(800, 600)
	surface, _ := gpu.BindSurface(fakeHandle(0))
	state, err := recreateSwapchain(gpu, surface, nil, nil, desc, req)
	if err != nil {
		t.Fatalf("recreateSwapchain: %v", err)
	}

	if state.needsRecreation(desc, req, &req) {
		t.Error("an unchanged request against a freshly built state should not need recreation")
	}

	resized := desc
	resized.Width = 1024
	if !state.needsRecreation(resized, req, &req) {
		t.Error("a changed descriptor extent should force recreation")
	}

	vsyncChanged := req
	vsyncChanged.swapInterval = 1
	if !state.needsRecreation(desc, vsyncChanged, &req) {
		t.Error("a vsync class change relative to the last request should force recreation")
	}
}
