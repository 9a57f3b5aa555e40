package vkpresent

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// fakeBackend is an in-memory GPUBackend used by this package's own tests.
// It tracks just enough state to exercise the present state machine without
// any real GPU: a map of live "objects" keyed by a monotonically
// increasing handle, and a single surface offering FIFO and mailbox present
// modes and two 8-bit UNORM formats in the sRGB color space.
type fakeBackend struct {
	mu sync.Mutex

	nextHandle         int
	surfaceW           uint32
	surfaceH           uint32
	presentWait        bool
	lastPresentID      uint64
	queueWaitIdleCalls int
}

type fakeHandle int

func newFakeBackend(w, h uint32) *fakeBackend {
	return &fakeBackend{surfaceW: w, surfaceH: h}
}

var _ GPUBackend = (*fakeBackend)(nil)

func (f *fakeBackend) handle() fakeHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextHandle++
	return fakeHandle(f.nextHandle)
}

func (f *fakeBackend) BindSurface(window WindowHandle) (SurfaceHandle, error) {
	return f.handle(), nil
}

func (f *fakeBackend) SurfaceCapabilities(surface SurfaceHandle) (SurfaceCapabilities, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return SurfaceCapabilities{
		MinImageCount: 2, MaxImageCount: 8,
		CurrentWidth: f.surfaceW, CurrentHeight: f.surfaceH,
		MinWidth: 1, MaxWidth: 16384,
		MinHeight: 1, MaxHeight: 16384,
	}, nil
}

func (f *fakeBackend) SurfaceFormats(surface SurfaceHandle) ([]SurfaceFormat, error) {
	return []SurfaceFormat{
		{Format: FormatB8G8R8A8UNorm, ColorSpace: ColorSpaceRGBFullG22NoneP709},
		{Format: FormatR8G8B8A8UNorm, ColorSpace: ColorSpaceRGBFullG22NoneP709},
	}, nil
}

func (f *fakeBackend) SurfacePresentModes(surface SurfaceHandle) ([]PresentMode, error) {
	return []PresentMode{PresentModeFIFO, PresentModeMailbox}, nil
}

func (f *fakeBackend) QueueSupportsPresent(surface SurfaceHandle) (bool, error) { return true, nil }

func (f *fakeBackend) CreateSwapchain(info SwapchainCreateInfo) (SwapchainHandle, []ImageHandle, error) {
	h := f.handle()
	images := make([]ImageHandle, info.MinImageCount)
	for i := range images {
		images[i] = f.handle()
	}
	return h, images, nil
}

func (f *fakeBackend) DestroySwapchain(sc SwapchainHandle) {}

func (f *fakeBackend) ImageView(img ImageHandle) (ImageViewHandle, error) { return f.handle(), nil }

func (f *fakeBackend) AcquireNextImage(sc SwapchainHandle, fence FenceHandle, timeoutNanos uint64) (uint32, PresentResult, error) {
	return 0, PresentResultSuccess, nil
}

func (f *fakeBackend) RecordBlit(cb CommandBuffer, key BlitPipelineKey, src UserTextureView, dst ImageViewHandle, srcExtent, dstExtent [2]uint32, everWritten bool) error {
	return nil
}

func (f *fakeBackend) Submit(cb CommandBuffer, wait []SemaphoreHandle, signalBinary []SemaphoreHandle, signalTimeline TimelineSemaphore, timelineValue uint64, fence FenceHandle) error {
	return nil
}

func (f *fakeBackend) Present(sc SwapchainHandle, imageIndex uint32, wait SemaphoreHandle, presentID uint64) (PresentResult, error) {
	f.mu.Lock()
	f.lastPresentID = presentID
	f.mu.Unlock()
	return PresentResultSuccess, nil
}

func (f *fakeBackend) SupportsPresentWait() bool { return f.presentWait }

func (f *fakeBackend) WaitForPresentID(sc SwapchainHandle, presentID uint64, timeoutNanos uint64) (PresentResult, error) {
	return PresentResultSuccess, nil
}

func (f *fakeBackend) NewCommandPool() (CommandPool, error)                { return f.handle(), nil }
func (f *fakeBackend) NewCommandBuffer(pool CommandPool) (CommandBuffer, error) { return f.handle(), nil }
func (f *fakeBackend) ResetCommandBuffer(cb CommandBuffer) error            { return nil }
func (f *fakeBackend) FreeCommandPool(pool CommandPool)                     {}

func (f *fakeBackend) NewFence(signaled bool) (FenceHandle, error) { return f.handle(), nil }
func (f *fakeBackend) WaitFence(ctx context.Context, fe FenceHandle, timeoutNanos uint64) error {
	return nil
}
func (f *fakeBackend) ResetFence(fe FenceHandle) error { return nil }
func (f *fakeBackend) DestroyFence(fe FenceHandle)     {}

func (f *fakeBackend) NewBinarySemaphore() (SemaphoreHandle, error) { return f.handle(), nil }
func (f *fakeBackend) DestroySemaphore(s SemaphoreHandle)           {}

type fakeTimeline struct {
	mu    sync.Mutex
	value uint64
}

func (f *fakeBackend) NewTimelineSemaphore(initial uint64) (TimelineSemaphore, error) {
	return &fakeTimeline{value: initial}, nil
}
func (f *fakeBackend) SignalTimeline(t TimelineSemaphore, value uint64) error {
	tl, ok := t.(*fakeTimeline)
	if !ok {
		return fmt.Errorf("bad timeline handle")
	}
	tl.mu.Lock()
	tl.value = value
	tl.mu.Unlock()
	return nil
}
func (f *fakeBackend) TimelineValue(t TimelineSemaphore) (uint64, error) {
	tl := t.(*fakeTimeline)
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.value, nil
}
func (f *fakeBackend) WaitTimeline(ctx context.Context, t TimelineSemaphore, value uint64) error {
	tl := t.(*fakeTimeline)
	for {
		tl.mu.Lock()
		v := tl.value
		tl.mu.Unlock()
		if v >= value {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}
func (f *fakeBackend) DestroyTimelineSemaphore(t TimelineSemaphore) {}

func (f *fakeBackend) AllocateUserTexture(width, height uint32, format Format) (UserTexture, UserTextureView, error) {
	return f.handle(), f.handle(), nil
}
func (f *fakeBackend) FreeUserTexture(tex UserTexture, view UserTextureView) {}

func (f *fakeBackend) BlitPipeline(key BlitPipelineKey) (Pipeline, PipelineLayout, error) {
	return f.handle(), f.handle(), nil
}

func (f *fakeBackend) SetHDRMetadata(sc SwapchainHandle, md HDR10Payload) error { return nil }

func (f *fakeBackend) QueueWaitIdle() error {
	f.mu.Lock()
	f.queueWaitIdleCalls++
	f.mu.Unlock()
	return nil
}
