package vkpresent

import "context"

// Opaque GPU resource handles. Each is a named `any` rather than a concrete
// struct so this package never imports a Vulkan binding directly — the
// vkgpu subpackage is free to hand back whatever value it likes (a
// vk.Image, a wrapped struct, a pointer, anything) and this package only
// ever passes the handle back through the same GPUBackend it came from.
type (
	SurfaceHandle      any
	SwapchainHandle    any
	ImageHandle        any // a single Vulkan swapchain image
	ImageViewHandle    any
	FenceHandle        any
	SemaphoreHandle    any // binary semaphore
	TimelineSemaphore  any
	CommandPool        any
	CommandBuffer      any
	Pipeline           any
	PipelineLayout     any
	UserTexture        any // resource-allocator-owned back buffer storage
	UserTextureView    any
	QueueHandle        any
)

// SurfaceCapabilities mirrors the handful of VkSurfaceCapabilitiesKHR
// fields the present state machine actually consults (spec §4.5).
type SurfaceCapabilities struct {
	MinImageCount, MaxImageCount uint32
	CurrentWidth, CurrentHeight  uint32
	MinWidth, MaxWidth           uint32
	MinHeight, MaxHeight         uint32
}

// SurfaceFormat pairs a pixel format with the color space it is validated
// against (spec §4.5 step 3, the exact-match-then-fallback ladder).
type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// PresentMode is the WSI present mode a swapchain is created with.
type PresentMode int

const (
	PresentModeFIFO PresentMode = iota
	PresentModeMailbox
	PresentModeImmediate
)

// PresentResult classifies a vkQueuePresentKHR-equivalent outcome (§4.4).
type PresentResult int

const (
	PresentResultSuccess PresentResult = iota
	PresentResultSuboptimal
	PresentResultOutOfDate
	PresentResultSurfaceLost
	PresentResultError
)

// BlitPipelineKey selects a cached blit pipeline by the two axes that
// change its shader permutation and render target format (spec §4.4 step
// 2, "pipeline keyed by {filter, format}").
type BlitPipelineKey struct {
	Linear bool
	Format Format
}

// SwapchainCreateInfo is everything (Re)CreateSwapchain needs; it is built
// fresh on every (re)creation pass from the current Descriptor and the
// negotiated surface format (§4.5).
type SwapchainCreateInfo struct {
	Surface      SurfaceHandle
	OldSwapchain SwapchainHandle // may be nil
	MinImageCount uint32
	Format        SurfaceFormat
	Width, Height uint32
	PresentMode   PresentMode
}

// GPUBackend bundles every external collaborator the present layer
// reaches outside of itself: the device/queue, the resource allocator, the
// blit pipeline factory, and the format tables (spec §6, scoped as
// external and opaque). vkgpu provides the github.com/goki/vulkan-backed
// implementation; tests substitute a fake.
type GPUBackend interface {
	// --- surface & capability queries ---
	BindSurface(window WindowHandle) (SurfaceHandle, error)
	SurfaceCapabilities(surface SurfaceHandle) (SurfaceCapabilities, error)
	SurfaceFormats(surface SurfaceHandle) ([]SurfaceFormat, error)
	SurfacePresentModes(surface SurfaceHandle) ([]PresentMode, error)
	QueueSupportsPresent(surface SurfaceHandle) (bool, error)

	// --- swapchain lifecycle ---
	CreateSwapchain(info SwapchainCreateInfo) (SwapchainHandle, []ImageHandle, error)
	DestroySwapchain(sc SwapchainHandle)
	ImageView(img ImageHandle) (ImageViewHandle, error)

	// --- per-frame acquire / submit / present ---
	AcquireNextImage(sc SwapchainHandle, fence FenceHandle, timeoutNanos uint64) (imageIndex uint32, result PresentResult, err error)
	RecordBlit(cb CommandBuffer, key BlitPipelineKey, src UserTextureView, dst ImageViewHandle, srcExtent, dstExtent [2]uint32, everWritten bool) error
	Submit(cb CommandBuffer, wait []SemaphoreHandle, signalBinary []SemaphoreHandle, signalTimeline TimelineSemaphore, timelineValue uint64, fence FenceHandle) error
	Present(sc SwapchainHandle, imageIndex uint32, wait SemaphoreHandle, presentID uint64) (PresentResult, error)

	// --- present-wait (preferred frame-latency signal path, §4.8) ---
	SupportsPresentWait() bool
	WaitForPresentID(sc SwapchainHandle, presentID uint64, timeoutNanos uint64) (PresentResult, error)

	// --- command recording ---
	NewCommandPool() (CommandPool, error)
	NewCommandBuffer(pool CommandPool) (CommandBuffer, error)
	ResetCommandBuffer(cb CommandBuffer) error
	FreeCommandPool(pool CommandPool)

	// --- sync object lifecycle ---
	NewFence(signaled bool) (FenceHandle, error)
	WaitFence(ctx context.Context, f FenceHandle, timeoutNanos uint64) error
	ResetFence(f FenceHandle) error
	DestroyFence(f FenceHandle)

	NewBinarySemaphore() (SemaphoreHandle, error)
	DestroySemaphore(s SemaphoreHandle)

	NewTimelineSemaphore(initial uint64) (TimelineSemaphore, error)
	SignalTimeline(t TimelineSemaphore, value uint64) error
	TimelineValue(t TimelineSemaphore) (uint64, error)
	WaitTimeline(ctx context.Context, t TimelineSemaphore, value uint64) error
	DestroyTimelineSemaphore(t TimelineSemaphore)

	// --- resource allocator (user back buffer storage, §6) ---
	AllocateUserTexture(width, height uint32, format Format) (UserTexture, UserTextureView, error)
	FreeUserTexture(tex UserTexture, view UserTextureView)

	// --- blit pipeline factory (§6) ---
	BlitPipeline(key BlitPipelineKey) (Pipeline, PipelineLayout, error)

	// --- HDR metadata push (§6), no-op on backends that don't support it ---
	SetHDRMetadata(sc SwapchainHandle, md HDR10Payload) error

	// QueueWaitIdle blocks until all submitted work on the present queue
	// has completed; used before a replaced swapchain is destroyed
	// (recreateSwapchain) and during Close. ChangeProperties waits on the
	// blit-counter timeline instead.
	QueueWaitIdle() error
}

// HDR10Payload is the Vulkan-shaped HDR10 payload produced by convertHDR10
// (hdr.go) from the caller-supplied HDR10MetaData.
type HDR10Payload struct {
	DisplayPrimaryRed, DisplayPrimaryGreen, DisplayPrimaryBlue [2]float32
	WhitePoint                                                 [2]float32
	MaxLuminance, MinLuminance                                 float32
	MaxContentLightLevel, MaxFrameAverageLightLevel             float32
}
