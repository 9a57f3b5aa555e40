package vkpresent

import "fmt"

// gpuSwapchainState is the short-lived GPU-side half of the two-layer
// image model (spec §3 "GPU Swapchain Image", contrasted with the stable
// userBuffer pool): the Vulkan swapchain handle, its current images, and
// the per-image lazy sync objects keyed by image index. It is torn down
// and rebuilt wholesale by recreateSwapchain whenever the surface goes
// suboptimal/out-of-date or the request changes format, color space, or
// vsync class (spec §4.5, §4.7).
type gpuSwapchainState struct {
	handle SwapchainHandle
	images []ImageHandle
	views  []ImageViewHandle
	sync   []*perImageSync

	format      SurfaceFormat
	presentMode PresentMode
	width       uint32
	height      uint32
}

// drainQueue performs the full GPU queue wait-idle the source calls before
// tearing down any swapchain object
// (dxgi_vk_swap_chain_destroy_swapchain_in_present_task), not the narrower
// blit-timeline wait ChangeProperties uses for its own draining.
func drainQueue(gpu GPUBackend) error {
	return gpu.QueueWaitIdle()
}

// drainUserImages blocks until the waiter thread has finished processing
// every present ID queued against the swapchain being replaced, mirroring
// dxgi_vk_swap_chain_drain_waiter. The previous swapchain's per-image views
// and semaphores must not be destroyed while a present-wait on one of its
// images could still be outstanding. A nil waiter (the backend does not
// support present-wait, so the worker releases latency slots directly,
// spec §4.8) makes this a no-op.
func drainUserImages(waiter *waiterThread) {
	if waiter != nil {
		waiter.drainPending()
	}
}

// recreateSwapchain (re)creates the GPU-side swapchain for the current
// surface against the requested descriptor and present request, following
// the source's own recreate-in-present-task ordering: query capabilities,
// negotiate format, select present mode, clamp extent/image count, create,
// wire per-image views and lazy sync state, drain the outgoing swapchain's
// in-flight work, then destroy it last (old-swapchain handoff, spec §4.5).
func recreateSwapchain(gpu GPUBackend, surface SurfaceHandle, prev *gpuSwapchainState, waiter *waiterThread, desc Descriptor, req presentRequest) (*gpuSwapchainState, error) {
	caps, err := gpu.SurfaceCapabilities(surface)
	if err != nil {
		return nil, fmt.Errorf("surface capabilities: %w", err)
	}
	if caps.CurrentWidth == 0 || caps.CurrentHeight == 0 {
		return nil, fmt.Errorf("%w: zero-extent surface", errGiveUpPresentMode)
	}

	formats, err := gpu.SurfaceFormats(surface)
	if err != nil {
		return nil, fmt.Errorf("surface formats: %w", err)
	}
	wanted := SurfaceFormat{Format: desc.Format, ColorSpace: req.colorSpace}
	format, err := negotiateSurfaceFormat(formats, wanted)
	if err != nil {
		return nil, err
	}

	modes, err := gpu.SurfacePresentModes(surface)
	if err != nil {
		return nil, fmt.Errorf("surface present modes: %w", err)
	}
	mode, err := selectPresentMode(modes, req.swapInterval)
	if err != nil {
		return nil, err
	}

	width, height := clampExtent(caps, desc.Width, desc.Height)
	count := clampImageCount(caps, desc.BufferCount)

	var old SwapchainHandle
	if prev != nil {
		old = prev.handle
	}

	handle, images, err := gpu.CreateSwapchain(SwapchainCreateInfo{
		Surface:       surface,
		OldSwapchain:  old,
		MinImageCount: count,
		Format:        format,
		Width:         width,
		Height:        height,
		PresentMode:   mode,
	})
	if err != nil {
		return nil, fmt.Errorf("create swapchain: %w", err)
	}

	next := &gpuSwapchainState{
		handle:      handle,
		images:      images,
		views:       make([]ImageViewHandle, len(images)),
		sync:        make([]*perImageSync, len(images)),
		format:      format,
		presentMode: mode,
		width:       width,
		height:      height,
	}

	for i, img := range images {
		view, err := gpu.ImageView(img)
		if err != nil {
			next.destroy(gpu)
			return nil, fmt.Errorf("image view %d: %w", i, err)
		}
		next.views[i] = view
	}

	if prev != nil {
		if err := drainQueue(gpu); err != nil {
			next.destroy(gpu)
			return nil, fmt.Errorf("drain queue before recreate: %w", err)
		}
		drainUserImages(waiter)
		prev.destroy(gpu)
	}

	return next, nil
}

// syncFor lazily creates the per-image sync objects for imageIndex the
// first time it is acquired, matching the source's own "lazy sync object"
// comment at the swapchain-recreate call site (spec §4.3).
func (s *gpuSwapchainState) syncFor(gpu GPUBackend, imageIndex uint32) (*perImageSync, error) {
	if int(imageIndex) >= len(s.sync) {
		return nil, fmt.Errorf("%w: image index %d out of range", ErrInvalidArg, imageIndex)
	}
	if s.sync[imageIndex] == nil {
		sync, err := newPerImageSync(gpu)
		if err != nil {
			return nil, err
		}
		s.sync[imageIndex] = sync
	}
	return s.sync[imageIndex], nil
}

// destroy tears down the swapchain and every per-image resource it owns.
// It does not wait for in-flight work itself; callers are responsible for
// draining first — recreateSwapchain does so via drainQueue/
// drainUserImages, and Close via a direct QueueWaitIdle.
func (s *gpuSwapchainState) destroy(gpu GPUBackend) {
	for _, sync := range s.sync {
		if sync != nil {
			sync.destroy(gpu)
		}
	}
	if s.handle != nil {
		gpu.DestroySwapchain(s.handle)
	}
}

// needsRecreation reports whether the current GPU swapchain state can
// still serve req against desc, or must be rebuilt first (spec §4.7,
// "request-needs-recreation predicate").
func (s *gpuSwapchainState) needsRecreation(desc Descriptor, req presentRequest, lastRequest *presentRequest) bool {
	if s == nil {
		return true
	}
	if s.width != desc.Width || s.height != desc.Height {
		return true
	}
	if s.format.Format != desc.Format || s.format.ColorSpace != req.colorSpace {
		return true
	}
	if lastRequest != nil && changedSwapchainClass(*lastRequest, req) {
		return true
	}
	return false
}
