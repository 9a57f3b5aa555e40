package vkgpu

import (
	_ "embed"
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/intuitionamiga/vkpresent"
)

//go:embed shaders/blit.vert.spv
var blitVertSPV []byte

//go:embed shaders/blit.frag.spv
var blitFragSPV []byte

// blitResources bundles the render pass, descriptor machinery, and sampler
// shared by every cached blit pipeline; created lazily the first time
// createBlitPipeline runs.
type blitResources struct {
	descSetLayout vk.DescriptorSetLayout
	descPool      vk.DescriptorPool
	sampler       vk.Sampler
	vertModule    vk.ShaderModule
	fragModule    vk.ShaderModule
}

func (b *Backend) ensureBlitResources() error {
	if b.blit != nil {
		return nil
	}

	samplerInfo := vk.SamplerCreateInfo{
		SType:        vk.StructureTypeSamplerCreateInfo,
		MagFilter:    vk.FilterLinear,
		MinFilter:    vk.FilterLinear,
		AddressModeU: vk.SamplerAddressModeClampToEdge,
		AddressModeV: vk.SamplerAddressModeClampToEdge,
		AddressModeW: vk.SamplerAddressModeClampToEdge,
	}
	var sampler vk.Sampler
	if res := vk.CreateSampler(b.device, &samplerInfo, nil, &sampler); res != vk.Success {
		return fmt.Errorf("vkgpu: vkCreateSampler: %v", res)
	}

	binding := vk.DescriptorSetLayoutBinding{
		Binding:         0,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
	}
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings:    []vk.DescriptorSetLayoutBinding{binding},
	}
	var descSetLayout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(b.device, &layoutInfo, nil, &descSetLayout); res != vk.Success {
		vk.DestroySampler(b.device, sampler, nil)
		return fmt.Errorf("vkgpu: vkCreateDescriptorSetLayout: %v", res)
	}

	poolSize := vk.DescriptorPoolSize{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: MaxBlitDescriptorSets}
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       MaxBlitDescriptorSets,
		PoolSizeCount: 1,
		PPoolSizes:    []vk.DescriptorPoolSize{poolSize},
	}
	var descPool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(b.device, &poolInfo, nil, &descPool); res != vk.Success {
		vk.DestroyDescriptorSetLayout(b.device, descSetLayout, nil)
		vk.DestroySampler(b.device, sampler, nil)
		return fmt.Errorf("vkgpu: vkCreateDescriptorPool: %v", res)
	}

	vertModule, err := b.createShaderModule(blitVertSPV)
	if err != nil {
		vk.DestroyDescriptorPool(b.device, descPool, nil)
		vk.DestroyDescriptorSetLayout(b.device, descSetLayout, nil)
		vk.DestroySampler(b.device, sampler, nil)
		return err
	}
	fragModule, err := b.createShaderModule(blitFragSPV)
	if err != nil {
		vk.DestroyShaderModule(b.device, vertModule, nil)
		vk.DestroyDescriptorPool(b.device, descPool, nil)
		vk.DestroyDescriptorSetLayout(b.device, descSetLayout, nil)
		vk.DestroySampler(b.device, sampler, nil)
		return err
	}

	b.blit = &blitResources{
		descSetLayout: descSetLayout,
		descPool:      descPool,
		sampler:       sampler,
		vertModule:    vertModule,
		fragModule:    fragModule,
	}
	return nil
}

// MaxBlitDescriptorSets bounds the blit descriptor pool; one set is
// allocated per distinct user back-buffer view (blitDescriptorSet), and
// vkpresent.MaxBuffers caps the user buffer count.
const MaxBlitDescriptorSets = vkpresent.MaxBuffers

func (b *Backend) createShaderModule(code []byte) (vk.ShaderModule, error) {
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    sliceUint32(code),
	}
	var module vk.ShaderModule
	if res := vk.CreateShaderModule(b.device, &createInfo, nil, &module); res != vk.Success {
		return vk.NullShaderModule, fmt.Errorf("vkgpu: vkCreateShaderModule: %v", res)
	}
	return module, nil
}

// createBlitPipeline builds the render pass, pipeline layout, and graphics
// pipeline for one {filter, format} key (spec §4.4 step 2, "pipeline keyed
// by {filter, format}"). The render pass always uses LOAD_OP_DONT_CARE,
// and RecordBlit never clears the target, whether or not the image has
// been written before.
func (b *Backend) createBlitPipeline(key blitPipelineKeyInternal) (vk.Pipeline, vk.PipelineLayout, error) {
	if err := b.ensureBlitResources(); err != nil {
		return vk.NullPipeline, vk.NullPipelineLayout, err
	}

	renderPass, err := b.createBlitRenderPass(key.format)
	if err != nil {
		return vk.NullPipeline, vk.NullPipelineLayout, err
	}

	layoutInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 1,
		PSetLayouts:    []vk.DescriptorSetLayout{b.blit.descSetLayout},
	}
	var layout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(b.device, &layoutInfo, nil, &layout); res != vk.Success {
		vk.DestroyRenderPass(b.device, renderPass, nil)
		return vk.NullPipeline, vk.NullPipelineLayout, fmt.Errorf("vkgpu: vkCreatePipelineLayout: %v", res)
	}

	filter := vk.FilterNearest
	if key.linear {
		filter = vk.FilterLinear
	}
	_ = filter // the sampler is shared and created with linear filtering;
	// key.linear only selects the cache entry. No nearest sampler exists,
	// so every blit samples linearly.

	stages := []vk.PipelineShaderStageCreateInfo{
		{SType: vk.StructureTypePipelineShaderStageCreateInfo, Stage: vk.ShaderStageVertexBit, Module: b.blit.vertModule, PName: "main\x00"},
		{SType: vk.StructureTypePipelineShaderStageCreateInfo, Stage: vk.ShaderStageFragmentBit, Module: b.blit.fragModule, PName: "main\x00"},
	}

	vertexInput := vk.PipelineVertexInputStateCreateInfo{SType: vk.StructureTypePipelineVertexInputStateCreateInfo}
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: vk.PrimitiveTopologyTriangleList,
	}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}
	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:     vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill,
		CullMode:    vk.CullModeFlags(vk.CullModeNone),
		FrontFace:   vk.FrontFaceCounterClockwise,
		LineWidth:   1,
	}
	multisample := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
	}
	blendAttachment := vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
	}
	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{blendAttachment},
	}
	dynamicStates := []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	pipelineInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisample,
		PColorBlendState:    &colorBlend,
		PDynamicState:       &dynamicState,
		Layout:              layout,
		RenderPass:          renderPass,
		Subpass:             0,
	}

	pipelines := make([]vk.Pipeline, 1)
	if res := vk.CreateGraphicsPipelines(b.device, vk.NullPipelineCache, 1, []vk.GraphicsPipelineCreateInfo{pipelineInfo}, nil, pipelines); res != vk.Success {
		vk.DestroyPipelineLayout(b.device, layout, nil)
		vk.DestroyRenderPass(b.device, renderPass, nil)
		return vk.NullPipeline, vk.NullPipelineLayout, fmt.Errorf("vkgpu: vkCreateGraphicsPipelines: %v", res)
	}

	b.blitRenderPasses[key] = renderPass
	return pipelines[0], layout, nil
}

func (b *Backend) createBlitRenderPass(format vk.Format) (vk.RenderPass, error) {
	attachment := vk.AttachmentDescription{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpDontCare,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}
	ref := vk.AttachmentReference{Attachment: 0, Layout: vk.ImageLayoutColorAttachmentOptimal}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    []vk.AttachmentReference{ref},
	}
	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{attachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
	}
	var rp vk.RenderPass
	if res := vk.CreateRenderPass(b.device, &createInfo, nil, &rp); res != vk.Success {
		return vk.NullRenderPass, fmt.Errorf("vkgpu: vkCreateRenderPass: %v", res)
	}
	return rp, nil
}

// sliceUint32 reinterprets a byte slice of SPIR-V bytecode as the uint32
// words vkCreateShaderModule expects.
func sliceUint32(b []byte) []uint32 {
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = uint32(b[i*4]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
	}
	return out
}
