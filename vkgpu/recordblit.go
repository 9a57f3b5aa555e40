package vkgpu

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/intuitionamiga/vkpresent"
)

// RecordBlit implements vkpresent.GPUBackend: records the render pass
// (whose initial/final layouts perform the transitions) and draw call that
// copies src onto dst (spec §4.4 step 2). everWritten is not used: the
// render pass always uses LOAD_OP_DONT_CARE and dst is never cleared.
func (b *Backend) RecordBlit(cb vkpresent.CommandBuffer, key vkpresent.BlitPipelineKey, src vkpresent.UserTextureView, dst vkpresent.ImageViewHandle, srcExtent, dstExtent [2]uint32, everWritten bool) error {
	vkCB, ok := cb.(vk.CommandBuffer)
	if !ok {
		return fmt.Errorf("vkgpu: expected a vk.CommandBuffer handle, got %T", cb)
	}
	srcView, ok := src.(vk.ImageView)
	if !ok {
		return fmt.Errorf("vkgpu: expected a vk.ImageView handle, got %T", src)
	}
	dstView, ok := dst.(vk.ImageView)
	if !ok {
		return fmt.Errorf("vkgpu: expected a vk.ImageView handle, got %T", dst)
	}

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if res := vk.BeginCommandBuffer(vkCB, &beginInfo); res != vk.Success {
		return fmt.Errorf("vkgpu: vkBeginCommandBuffer: %v", res)
	}

	internalKey := blitPipelineKeyInternal{linear: key.Linear, format: toVkFormat(key.Format)}
	renderPass, ok := b.blitRenderPasses[internalKey]
	if !ok {
		return fmt.Errorf("vkgpu: blit render pass not initialized for key %+v; call BlitPipeline first", key)
	}
	pipeline, ok := b.pipelineCache[internalKey]
	if !ok {
		return fmt.Errorf("vkgpu: blit pipeline not initialized for key %+v; call BlitPipeline first", key)
	}

	framebuffer, err := b.framebufferFor(renderPass, dstView, dstExtent)
	if err != nil {
		vk.EndCommandBuffer(vkCB)
		return err
	}

	descSet, err := b.blitDescriptorSet(srcView)
	if err != nil {
		vk.EndCommandBuffer(vkCB)
		return err
	}

	renderArea := vk.Rect2D{Extent: vk.Extent2D{Width: dstExtent[0], Height: dstExtent[1]}}
	clearValues := []vk.ClearValue{vk.NewClearValue([]float32{0, 0, 0, 1})}

	beginRP := vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      renderPass,
		Framebuffer:     framebuffer,
		RenderArea:      renderArea,
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}

	// everWritten only affects whether a prior layout is LOAD_OP-relevant:
	// the blit draw always covers the full target extent, so the render
	// pass's LOAD_OP_DONT_CARE is safe on first write too (spec §4.4 step
	// 4's clear-vs-dont-care choice collapses to DONT_CARE either way once
	// the draw is full-coverage).
	_ = everWritten

	vk.CmdBeginRenderPass(vkCB, &beginRP, vk.SubpassContentsInline)
	vk.CmdBindPipeline(vkCB, vk.PipelineBindPointGraphics, pipeline.pipeline)

	viewport := vk.Viewport{Width: float32(dstExtent[0]), Height: float32(dstExtent[1]), MinDepth: 0, MaxDepth: 1}
	vk.CmdSetViewport(vkCB, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(vkCB, 0, 1, []vk.Rect2D{renderArea})

	vk.CmdBindDescriptorSets(vkCB, vk.PipelineBindPointGraphics, pipeline.layout, 0, 1, []vk.DescriptorSet{descSet}, 0, nil)
	vk.CmdDraw(vkCB, 3, 1, 0, 0) // fullscreen triangle, UVs derived in the vertex shader

	vk.CmdEndRenderPass(vkCB)

	if res := vk.EndCommandBuffer(vkCB); res != vk.Success {
		return fmt.Errorf("vkgpu: vkEndCommandBuffer: %v", res)
	}
	return nil
}

func (b *Backend) framebufferFor(renderPass vk.RenderPass, view vk.ImageView, extent [2]uint32) (vk.Framebuffer, error) {
	if fb, ok := b.framebuffers[view]; ok {
		return fb, nil
	}
	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderPass,
		AttachmentCount: 1,
		PAttachments:    []vk.ImageView{view},
		Width:           extent[0],
		Height:          extent[1],
		Layers:          1,
	}
	var fb vk.Framebuffer
	if res := vk.CreateFramebuffer(b.device, &createInfo, nil, &fb); res != vk.Success {
		return vk.NullFramebuffer, fmt.Errorf("vkgpu: vkCreateFramebuffer: %v", res)
	}
	b.framebuffers[view] = fb
	return fb, nil
}

// blitDescriptorSet allocates (or reuses) a descriptor set binding src as
// the blit's combined image sampler. A fresh set is allocated per distinct
// source view and left in the pool for the swap chain's lifetime; the
// pool's MaxBlitDescriptorSets cap bounds this the same way MaxBuffers
// bounds the user buffer pool.
func (b *Backend) blitDescriptorSet(src vk.ImageView) (vk.DescriptorSet, error) {
	if set, ok := b.descriptorSets[src]; ok {
		return set, nil
	}

	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     b.blit.descPool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{b.blit.descSetLayout},
	}
	sets := make([]vk.DescriptorSet, 1)
	if res := vk.AllocateDescriptorSets(b.device, &allocInfo, sets); res != vk.Success {
		return vk.NullDescriptorSet, fmt.Errorf("vkgpu: vkAllocateDescriptorSets: %v", res)
	}

	imageInfo := vk.DescriptorImageInfo{
		Sampler:     b.blit.sampler,
		ImageView:   src,
		ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          sets[0],
		DstBinding:      0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo:      []vk.DescriptorImageInfo{imageInfo},
	}
	vk.UpdateDescriptorSets(b.device, 1, []vk.WriteDescriptorSet{write}, 0, nil)

	if b.descriptorSets == nil {
		b.descriptorSets = make(map[vk.ImageView]vk.DescriptorSet)
	}
	b.descriptorSets[src] = sets[0]
	return sets[0], nil
}
