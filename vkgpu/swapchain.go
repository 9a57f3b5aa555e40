package vkgpu

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/intuitionamiga/vkpresent"
)

// CreateSwapchain implements vkpresent.GPUBackend.
func (b *Backend) CreateSwapchain(info vkpresent.SwapchainCreateInfo) (vkpresent.SwapchainHandle, []vkpresent.ImageHandle, error) {
	surface, err := asVkSurface(info.Surface)
	if err != nil {
		return nil, nil, err
	}

	var old vk.Swapchain
	if info.OldSwapchain != nil {
		old, _ = info.OldSwapchain.(vk.Swapchain)
	}

	createInfo := vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         surface,
		MinImageCount:   info.MinImageCount,
		ImageFormat:     toVkFormat(info.Format.Format),
		ImageColorSpace: toVkColorSpace(info.Format.ColorSpace),
		ImageExtent:     vk.Extent2D{Width: info.Width, Height: info.Height},
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransferDstBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     vk.SurfaceTransformIdentityBit,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      toVkPresentMode(info.PresentMode),
		Clipped:          vk.True,
		OldSwapchain:     old,
	}

	var swapchain vk.Swapchain
	if res := vk.CreateSwapchain(b.device, &createInfo, nil, &swapchain); res != vk.Success {
		return nil, nil, fmt.Errorf("vkgpu: vkCreateSwapchainKHR: %v", res)
	}

	var count uint32
	vk.GetSwapchainImages(b.device, swapchain, &count, nil)
	images := make([]vk.Image, count)
	vk.GetSwapchainImages(b.device, swapchain, &count, images)

	handles := make([]vkpresent.ImageHandle, count)
	for i, img := range images {
		handles[i] = img
	}

	return swapchain, handles, nil
}

// DestroySwapchain implements vkpresent.GPUBackend.
func (b *Backend) DestroySwapchain(sc vkpresent.SwapchainHandle) {
	swapchain, ok := sc.(vk.Swapchain)
	if !ok {
		return
	}
	vk.DestroySwapchain(b.device, swapchain, nil)
}

// ImageView implements vkpresent.GPUBackend.
func (b *Backend) ImageView(img vkpresent.ImageHandle) (vkpresent.ImageViewHandle, error) {
	vkImage, ok := img.(vk.Image)
	if !ok {
		return nil, fmt.Errorf("vkgpu: expected a vk.Image handle, got %T", img)
	}

	createInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    vkImage,
		ViewType: vk.ImageViewType2d,
		Format:   vk.FormatB8g8r8a8Unorm,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var view vk.ImageView
	if res := vk.CreateImageView(b.device, &createInfo, nil, &view); res != vk.Success {
		return nil, fmt.Errorf("vkgpu: vkCreateImageView: %v", res)
	}
	return view, nil
}

// AcquireNextImage implements vkpresent.GPUBackend. The acquire is made
// against a fence, not a semaphore, giving the present worker synchronous
// acquire semantics instead of leaving the wait to the GPU timeline.
func (b *Backend) AcquireNextImage(sc vkpresent.SwapchainHandle, fence vkpresent.FenceHandle, timeoutNanos uint64) (uint32, vkpresent.PresentResult, error) {
	swapchain, ok := sc.(vk.Swapchain)
	if !ok {
		return 0, vkpresent.PresentResultError, fmt.Errorf("vkgpu: expected a vk.Swapchain handle, got %T", sc)
	}
	vkFence, ok := fence.(vk.Fence)
	if !ok {
		return 0, vkpresent.PresentResultError, fmt.Errorf("vkgpu: expected a vk.Fence handle, got %T", fence)
	}

	var imageIndex uint32
	res := vk.AcquireNextImage(b.device, swapchain, timeoutNanos, vk.NullSemaphore, vkFence, &imageIndex)
	switch res {
	case vk.Success:
		return imageIndex, vkpresent.PresentResultSuccess, nil
	case vk.Suboptimal:
		return imageIndex, vkpresent.PresentResultSuboptimal, nil
	case vk.ErrorOutOfDate:
		return 0, vkpresent.PresentResultOutOfDate, nil
	case vk.ErrorSurfaceLost:
		return 0, vkpresent.PresentResultSurfaceLost, nil
	default:
		return 0, vkpresent.PresentResultError, fmt.Errorf("vkgpu: vkAcquireNextImageKHR: %v", res)
	}
}

// Present implements vkpresent.GPUBackend.
func (b *Backend) Present(sc vkpresent.SwapchainHandle, imageIndex uint32, wait vkpresent.SemaphoreHandle, presentID uint64) (vkpresent.PresentResult, error) {
	swapchain, ok := sc.(vk.Swapchain)
	if !ok {
		return vkpresent.PresentResultError, fmt.Errorf("vkgpu: expected a vk.Swapchain handle, got %T", sc)
	}

	var waitSemaphores []vk.Semaphore
	if wait != nil {
		sem, ok := wait.(vk.Semaphore)
		if !ok {
			return vkpresent.PresentResultError, fmt.Errorf("vkgpu: expected a vk.Semaphore handle, got %T", wait)
		}
		waitSemaphores = []vk.Semaphore{sem}
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(waitSemaphores)),
		PWaitSemaphores:    waitSemaphores,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{swapchain},
		PImageIndices:      []uint32{imageIndex},
	}

	if presentID != 0 {
		idInfo := vk.PresentIdKHR{
			SType:          vk.StructureTypePresentIdKhr,
			SwapchainCount: 1,
			PPresentIds:    []uint64{presentID},
		}
		presentInfo.PNext = unsafe.Pointer(&idInfo)
	}

	res := vk.QueuePresent(b.queue, &presentInfo)
	switch res {
	case vk.Success:
		return vkpresent.PresentResultSuccess, nil
	case vk.Suboptimal:
		return vkpresent.PresentResultSuboptimal, nil
	case vk.ErrorOutOfDate:
		return vkpresent.PresentResultOutOfDate, nil
	case vk.ErrorSurfaceLost:
		return vkpresent.PresentResultSurfaceLost, nil
	default:
		return vkpresent.PresentResultError, fmt.Errorf("vkgpu: vkQueuePresentKHR: %v", res)
	}
}

// SupportsPresentWait implements vkpresent.GPUBackend. It always reports
// false: New never enables VK_KHR_present_wait/VK_KHR_present_id and never
// sets presentWaitSupported.
func (b *Backend) SupportsPresentWait() bool {
	return b.presentWaitSupported
}

// WaitForPresentID implements vkpresent.GPUBackend.
func (b *Backend) WaitForPresentID(sc vkpresent.SwapchainHandle, presentID uint64, timeoutNanos uint64) (vkpresent.PresentResult, error) {
	swapchain, ok := sc.(vk.Swapchain)
	if !ok {
		return vkpresent.PresentResultError, fmt.Errorf("vkgpu: expected a vk.Swapchain handle, got %T", sc)
	}
	res := vk.WaitForPresentKHR(b.device, swapchain, presentID, timeoutNanos)
	switch res {
	case vk.Success:
		return vkpresent.PresentResultSuccess, nil
	case vk.ErrorOutOfDate:
		return vkpresent.PresentResultOutOfDate, nil
	case vk.ErrorSurfaceLost:
		return vkpresent.PresentResultSurfaceLost, nil
	default:
		return vkpresent.PresentResultError, fmt.Errorf("vkgpu: vkWaitForPresentKHR: %v", res)
	}
}

// SetHDRMetadata implements vkpresent.GPUBackend.
func (b *Backend) SetHDRMetadata(sc vkpresent.SwapchainHandle, md vkpresent.HDR10Payload) error {
	// vkgpu has no HDR10 push wired yet: VK_EXT_hdr_metadata requires an
	// instance/device extension this backend does not enable (see
	// DESIGN.md). Accept and no-op so callers can exercise the rest of the
	// color-space path without the swap chain erroring out on HDR10
	// content, matching the source's own no-op gamma/region setters.
	return nil
}
