// Package vkgpu is the github.com/goki/vulkan-backed implementation of the
// vkpresent.GPUBackend collaborator contract: device/queue setup, surface
// negotiation, swapchain lifecycle, per-frame sync objects, and the blit
// pipeline that copies a user back buffer onto a swapchain image.
package vkgpu

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// Backend owns the Vulkan instance, physical/logical device, and present
// queue. It implements vkpresent.GPUBackend; construct one with New and
// pass it to vkpresent.New.
type Backend struct {
	instance       vk.Instance
	physicalDevice vk.PhysicalDevice
	device         vk.Device
	queue          vk.Queue
	queueFamily    uint32

	cmdPool vk.CommandPool // scratch pool for one-off allocations outside per-image pools

	presentWaitSupported bool

	pipelineCache    map[blitPipelineKeyInternal]cachedPipeline
	blitRenderPasses map[blitPipelineKeyInternal]vk.RenderPass
	framebuffers     map[vk.ImageView]vk.Framebuffer
	descriptorSets   map[vk.ImageView]vk.DescriptorSet
	blit             *blitResources
}

// New creates a Vulkan instance and selects the first physical device
// whose queue family supports both graphics and (once a surface exists)
// presentation, following the same staged-init-with-unwind-on-failure
// shape as an offscreen renderer's own instance/device bring-up: each
// creation step is wrapped so a later failure tears down everything
// already created.
func New(appName string, enableValidation bool) (*Backend, error) {
	b := &Backend{
		pipelineCache:    make(map[blitPipelineKeyInternal]cachedPipeline),
		blitRenderPasses: make(map[blitPipelineKeyInternal]vk.RenderPass),
		framebuffers:     make(map[vk.ImageView]vk.Framebuffer),
	}

	if err := vk.Init(); err != nil {
		return nil, fmt.Errorf("vkgpu: load vulkan: %w", err)
	}

	if err := b.createInstance(appName, enableValidation); err != nil {
		return nil, err
	}
	if err := b.selectPhysicalDevice(); err != nil {
		b.destroyInstance()
		return nil, err
	}
	if err := b.createDevice(); err != nil {
		b.destroyInstance()
		return nil, err
	}
	if err := b.createCommandPool(); err != nil {
		b.destroyDevice()
		b.destroyInstance()
		return nil, err
	}

	return b, nil
}

func (b *Backend) createInstance(appName string, enableValidation bool) error {
	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   appName + "\x00",
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        "vkpresent\x00",
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         vk.ApiVersion11,
	}

	extensions := []string{
		"VK_KHR_surface\x00",
		platformSurfaceExtension,
	}

	var layers []string
	if enableValidation {
		layers = []string{"VK_LAYER_KHRONOS_validation\x00"}
	}

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, nil, &instance); res != vk.Success {
		return fmt.Errorf("vkgpu: vkCreateInstance: %v", res)
	}
	b.instance = instance
	vk.InitInstance(instance)
	return nil
}

func (b *Backend) destroyInstance() {
	vk.DestroyInstance(b.instance, nil)
}

func (b *Backend) selectPhysicalDevice() error {
	var count uint32
	vk.EnumeratePhysicalDevices(b.instance, &count, nil)
	if count == 0 {
		return fmt.Errorf("vkgpu: no vulkan physical devices")
	}
	devices := make([]vk.PhysicalDevice, count)
	vk.EnumeratePhysicalDevices(b.instance, &count, devices)

	for _, dev := range devices {
		var familyCount uint32
		vk.GetPhysicalDeviceQueueFamilyProperties(dev, &familyCount, nil)
		families := make([]vk.QueueFamilyProperties, familyCount)
		vk.GetPhysicalDeviceQueueFamilyProperties(dev, &familyCount, families)

		for i, f := range families {
			f.Deref()
			if f.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
				b.physicalDevice = dev
				b.queueFamily = uint32(i)
				return nil
			}
		}
	}
	return fmt.Errorf("vkgpu: no physical device with a graphics queue family")
}

func (b *Backend) createDevice() error {
	priorities := []float32{1.0}
	queueCreateInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: b.queueFamily,
		QueueCount:       1,
		PQueuePriorities: priorities,
	}

	extensions := []string{"VK_KHR_swapchain\x00"}

	// Enable the timeline semaphore feature; the vkpresent core's blit
	// counter depends on timeline semaphores unconditionally. The
	// present-wait/present-id extensions are not enabled, so
	// SupportsPresentWait reports false.
	timelineFeatures := vk.PhysicalDeviceTimelineSemaphoreFeatures{
		SType:             vk.StructureTypePhysicalDeviceTimelineSemaphoreFeatures,
		TimelineSemaphore: vk.True,
	}

	createInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		PNext:                   unsafe.Pointer(&timelineFeatures),
		QueueCreateInfoCount:    1,
		PQueueCreateInfos:       []vk.DeviceQueueCreateInfo{queueCreateInfo},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}

	var device vk.Device
	if res := vk.CreateDevice(b.physicalDevice, &createInfo, nil, &device); res != vk.Success {
		return fmt.Errorf("vkgpu: vkCreateDevice: %v", res)
	}
	b.device = device

	var queue vk.Queue
	vk.GetDeviceQueue(device, b.queueFamily, 0, &queue)
	b.queue = queue
	return nil
}

func (b *Backend) destroyDevice() {
	vk.DestroyDevice(b.device, nil)
}

func (b *Backend) createCommandPool() error {
	createInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: b.queueFamily,
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(b.device, &createInfo, nil, &pool); res != vk.Success {
		return fmt.Errorf("vkgpu: vkCreateCommandPool: %v", res)
	}
	b.cmdPool = pool
	return nil
}

// QueueWaitIdle implements vkpresent.GPUBackend.
func (b *Backend) QueueWaitIdle() error {
	if res := vk.QueueWaitIdle(b.queue); res != vk.Success {
		return fmt.Errorf("vkgpu: vkQueueWaitIdle: %v", res)
	}
	return nil
}

// Close releases the instance, device, and scratch command pool. Swapchain
// and per-image resources must already have been destroyed through the
// GPUBackend calls vkpresent.SwapChain.Close makes.
func (b *Backend) Close() {
	vk.DestroyCommandPool(b.device, b.cmdPool, nil)
	b.destroyDevice()
	b.destroyInstance()
}
