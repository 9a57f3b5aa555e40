package vkgpu

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/intuitionamiga/vkpresent"
)

// blitPipelineKeyInternal mirrors vkpresent.BlitPipelineKey; kept as its
// own type so the pipeline cache map key never leaks a vkpresent type into
// this package's internal bookkeeping.
type blitPipelineKeyInternal struct {
	linear bool
	format vk.Format
}

type cachedPipeline struct {
	pipeline vk.Pipeline
	layout   vk.PipelineLayout
}

// NewCommandPool implements vkpresent.GPUBackend. Each swapchain image gets
// its own pool (per-image lazy sync objects, spec §4.3) so command buffer
// resets never contend across images.
func (b *Backend) NewCommandPool() (vkpresent.CommandPool, error) {
	createInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: b.queueFamily,
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(b.device, &createInfo, nil, &pool); res != vk.Success {
		return nil, fmt.Errorf("vkgpu: vkCreateCommandPool: %v", res)
	}
	return pool, nil
}

// NewCommandBuffer implements vkpresent.GPUBackend.
func (b *Backend) NewCommandBuffer(pool vkpresent.CommandPool) (vkpresent.CommandBuffer, error) {
	vkPool, ok := pool.(vk.CommandPool)
	if !ok {
		return nil, fmt.Errorf("vkgpu: expected a vk.CommandPool handle, got %T", pool)
	}
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        vkPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	buffers := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(b.device, &allocInfo, buffers); res != vk.Success {
		return nil, fmt.Errorf("vkgpu: vkAllocateCommandBuffers: %v", res)
	}
	return buffers[0], nil
}

// ResetCommandBuffer implements vkpresent.GPUBackend.
func (b *Backend) ResetCommandBuffer(cb vkpresent.CommandBuffer) error {
	vkCB, ok := cb.(vk.CommandBuffer)
	if !ok {
		return fmt.Errorf("vkgpu: expected a vk.CommandBuffer handle, got %T", cb)
	}
	if res := vk.ResetCommandBuffer(vkCB, vk.CommandBufferResetFlags(0)); res != vk.Success {
		return fmt.Errorf("vkgpu: vkResetCommandBuffer: %v", res)
	}
	return nil
}

// FreeCommandPool implements vkpresent.GPUBackend.
func (b *Backend) FreeCommandPool(pool vkpresent.CommandPool) {
	vkPool, ok := pool.(vk.CommandPool)
	if !ok {
		return
	}
	vk.DestroyCommandPool(b.device, vkPool, nil)
}

// AllocateUserTexture implements vkpresent.GPUBackend: the resource
// allocator contract backing the stable user buffer pool (spec §3, §6,
// scoped as an external collaborator but given a concrete realization
// here since this package is the one place that owns real GPU memory).
func (b *Backend) AllocateUserTexture(width, height uint32, format vkpresent.Format) (vkpresent.UserTexture, vkpresent.UserTextureView, error) {
	createInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    toVkFormat(format),
		Extent:    vk.Extent3D{Width: width, Height: height, Depth: 1},
		MipLevels: 1,
		ArrayLayers: 1,
		Samples:     vk.SampleCount1Bit,
		Tiling:      vk.ImageTilingOptimal,
		Usage:       vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit | vk.ImageUsageColorAttachmentBit | vk.ImageUsageSampledBit),
		SharingMode: vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}

	var image vk.Image
	if res := vk.CreateImage(b.device, &createInfo, nil, &image); res != vk.Success {
		return nil, nil, fmt.Errorf("vkgpu: vkCreateImage: %v", res)
	}

	var memReqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(b.device, image, &memReqs)
	memReqs.Deref()

	memTypeIndex, err := b.findMemoryType(memReqs.MemoryTypeBits, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		vk.DestroyImage(b.device, image, nil)
		return nil, nil, err
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memTypeIndex,
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(b.device, &allocInfo, nil, &memory); res != vk.Success {
		vk.DestroyImage(b.device, image, nil)
		return nil, nil, fmt.Errorf("vkgpu: vkAllocateMemory: %v", res)
	}
	if res := vk.BindImageMemory(b.device, image, memory, 0); res != vk.Success {
		vk.FreeMemory(b.device, memory, nil)
		vk.DestroyImage(b.device, image, nil)
		return nil, nil, fmt.Errorf("vkgpu: vkBindImageMemory: %v", res)
	}

	view, err := b.ImageView(image)
	if err != nil {
		vk.FreeMemory(b.device, memory, nil)
		vk.DestroyImage(b.device, image, nil)
		return nil, nil, err
	}

	return userTexture{image: image, memory: memory}, view, nil
}

// FreeUserTexture implements vkpresent.GPUBackend.
func (b *Backend) FreeUserTexture(tex vkpresent.UserTexture, view vkpresent.UserTextureView) {
	if v, ok := view.(vk.ImageView); ok {
		vk.DestroyImageView(b.device, v, nil)
	}
	if t, ok := tex.(userTexture); ok {
		vk.DestroyImage(b.device, t.image, nil)
		vk.FreeMemory(b.device, t.memory, nil)
	}
}

// userTexture is this backend's concrete realization of
// vkpresent.UserTexture: the image and the memory backing it, kept
// together so FreeUserTexture can tear both down.
type userTexture struct {
	image  vk.Image
	memory vk.DeviceMemory
}

func (b *Backend) findMemoryType(typeBits uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	var memProps vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(b.physicalDevice, &memProps)
	memProps.Deref()

	for i := uint32(0); i < memProps.MemoryTypeCount; i++ {
		memProps.MemoryTypes[i].Deref()
		if typeBits&(1<<i) != 0 && memProps.MemoryTypes[i].PropertyFlags&properties == properties {
			return i, nil
		}
	}
	return 0, fmt.Errorf("vkgpu: no suitable memory type for mask 0x%x", typeBits)
}

// BlitPipeline implements vkpresent.GPUBackend: returns (creating and
// caching, if necessary) the graphics pipeline for the {filter, format}
// blit key (spec §4.4 step 2).
func (b *Backend) BlitPipeline(key vkpresent.BlitPipelineKey) (vkpresent.Pipeline, vkpresent.PipelineLayout, error) {
	internalKey := blitPipelineKeyInternal{linear: key.Linear, format: toVkFormat(key.Format)}
	if cached, ok := b.pipelineCache[internalKey]; ok {
		return cached.pipeline, cached.layout, nil
	}

	pipeline, layout, err := b.createBlitPipeline(internalKey)
	if err != nil {
		return nil, nil, err
	}
	b.pipelineCache[internalKey] = cachedPipeline{pipeline: pipeline, layout: layout}
	return pipeline, layout, nil
}

// Submit implements vkpresent.GPUBackend.
func (b *Backend) Submit(cb vkpresent.CommandBuffer, wait []vkpresent.SemaphoreHandle, signalBinary []vkpresent.SemaphoreHandle, signalTimeline vkpresent.TimelineSemaphore, timelineValue uint64, fence vkpresent.FenceHandle) error {
	vkCB, ok := cb.(vk.CommandBuffer)
	if !ok {
		return fmt.Errorf("vkgpu: expected a vk.CommandBuffer handle, got %T", cb)
	}
	vkFence, ok := fence.(vk.Fence)
	if !ok {
		return fmt.Errorf("vkgpu: expected a vk.Fence handle, got %T", fence)
	}

	waitSems := make([]vk.Semaphore, 0, len(wait))
	waitStages := make([]vk.PipelineStageFlags, 0, len(wait))
	for _, w := range wait {
		sem, ok := w.(vk.Semaphore)
		if !ok {
			return fmt.Errorf("vkgpu: expected a vk.Semaphore handle, got %T", w)
		}
		waitSems = append(waitSems, sem)
		waitStages = append(waitStages, vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit))
	}

	signalSems := make([]vk.Semaphore, 0, len(signalBinary)+1)
	for _, s := range signalBinary {
		sem, ok := s.(vk.Semaphore)
		if !ok {
			return fmt.Errorf("vkgpu: expected a vk.Semaphore handle, got %T", s)
		}
		signalSems = append(signalSems, sem)
	}

	var timelineSem vk.Semaphore
	var timelineValues []uint64
	if signalTimeline != nil {
		sem, ok := signalTimeline.(vk.Semaphore)
		if !ok {
			return fmt.Errorf("vkgpu: expected a vk.Semaphore handle, got %T", signalTimeline)
		}
		signalSems = append(signalSems, sem)
		timelineValues = append(timelineValues, timelineValue)
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(waitSems)),
		PWaitSemaphores:      waitSems,
		PWaitDstStageMask:    waitStages,
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{vkCB},
		SignalSemaphoreCount: uint32(len(signalSems)),
		PSignalSemaphores:    signalSems,
	}

	if len(timelineValues) > 0 {
		timelineInfo := vk.TimelineSemaphoreSubmitInfo{
			SType:                     vk.StructureTypeTimelineSemaphoreSubmitInfo,
			SignalSemaphoreValueCount: uint32(len(timelineValues)),
			PSignalSemaphoreValues:    timelineValues,
		}
		submitInfo.PNext = unsafe.Pointer(&timelineInfo)
	}

	if res := vk.QueueSubmit(b.queue, 1, []vk.SubmitInfo{submitInfo}, vkFence); res != vk.Success {
		return fmt.Errorf("vkgpu: vkQueueSubmit: %v", res)
	}
	return nil
}
