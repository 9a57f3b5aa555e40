package vkgpu

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/intuitionamiga/vkpresent"
)

// toVkFormat/fromVkFormat and their color-space counterparts are the only
// place this package's client-facing Format/ColorSpace enums are mapped to
// native Vulkan values; everything above this package deals exclusively in
// vkpresent.Format/vkpresent.ColorSpace.
func toVkFormat(f vkpresent.Format) vk.Format {
	switch f {
	case vkpresent.FormatR8G8B8A8UNorm:
		return vk.FormatR8g8b8a8Unorm
	case vkpresent.FormatB8G8R8A8UNorm:
		return vk.FormatB8g8r8a8Unorm
	default:
		return vk.FormatUndefined
	}
}

func fromVkFormat(f vk.Format) vkpresent.Format {
	switch f {
	case vk.FormatR8g8b8a8Unorm:
		return vkpresent.FormatR8G8B8A8UNorm
	case vk.FormatB8g8r8a8Unorm:
		return vkpresent.FormatB8G8R8A8UNorm
	default:
		return vkpresent.FormatUnknown
	}
}

func toVkColorSpace(cs vkpresent.ColorSpace) vk.ColorSpace {
	switch cs {
	case vkpresent.ColorSpaceRGBFullG22NoneP709:
		return vk.ColorspaceSrgbNonlinear
	case vkpresent.ColorSpaceRGBFullG2084NoneP2020:
		return vk.ColorSpace(1000104008) // VK_COLOR_SPACE_HDR10_ST2084_EXT
	case vkpresent.ColorSpaceRGBFullG10NoneP709:
		return vk.ColorSpace(1000104002) // VK_COLOR_SPACE_EXTENDED_SRGB_LINEAR_EXT
	default:
		return vk.ColorspaceSrgbNonlinear
	}
}

func fromVkColorSpace(cs vk.ColorSpace) vkpresent.ColorSpace {
	switch cs {
	case vk.ColorSpace(1000104008):
		return vkpresent.ColorSpaceRGBFullG2084NoneP2020
	case vk.ColorSpace(1000104002):
		return vkpresent.ColorSpaceRGBFullG10NoneP709
	default:
		return vkpresent.ColorSpaceRGBFullG22NoneP709
	}
}

func toVkPresentMode(m vkpresent.PresentMode) vk.PresentMode {
	switch m {
	case vkpresent.PresentModeMailbox:
		return vk.PresentModeMailbox
	case vkpresent.PresentModeImmediate:
		return vk.PresentModeImmediate
	default:
		return vk.PresentModeFifo
	}
}

func fromVkPresentMode(m vk.PresentMode) vkpresent.PresentMode {
	switch m {
	case vk.PresentModeMailbox:
		return vkpresent.PresentModeMailbox
	case vk.PresentModeImmediate:
		return vkpresent.PresentModeImmediate
	default:
		return vkpresent.PresentModeFIFO
	}
}

// SurfaceCapabilities implements vkpresent.GPUBackend.
func (b *Backend) SurfaceCapabilities(surface vkpresent.SurfaceHandle) (vkpresent.SurfaceCapabilities, error) {
	vkSurface, err := asVkSurface(surface)
	if err != nil {
		return vkpresent.SurfaceCapabilities{}, err
	}

	var caps vk.SurfaceCapabilities
	if res := vk.GetPhysicalDeviceSurfaceCapabilities(b.physicalDevice, vkSurface, &caps); res != vk.Success {
		return vkpresent.SurfaceCapabilities{}, fmt.Errorf("vkgpu: vkGetPhysicalDeviceSurfaceCapabilitiesKHR: %v", res)
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	return vkpresent.SurfaceCapabilities{
		MinImageCount: caps.MinImageCount,
		MaxImageCount: caps.MaxImageCount,
		CurrentWidth:  caps.CurrentExtent.Width,
		CurrentHeight: caps.CurrentExtent.Height,
		MinWidth:      caps.MinImageExtent.Width,
		MaxWidth:      caps.MaxImageExtent.Width,
		MinHeight:     caps.MinImageExtent.Height,
		MaxHeight:     caps.MaxImageExtent.Height,
	}, nil
}

// SurfaceFormats implements vkpresent.GPUBackend.
func (b *Backend) SurfaceFormats(surface vkpresent.SurfaceHandle) ([]vkpresent.SurfaceFormat, error) {
	vkSurface, err := asVkSurface(surface)
	if err != nil {
		return nil, err
	}

	var count uint32
	vk.GetPhysicalDeviceSurfaceFormats(b.physicalDevice, vkSurface, &count, nil)
	if count == 0 {
		return nil, fmt.Errorf("vkgpu: surface exposes no formats")
	}
	formats := make([]vk.SurfaceFormat, count)
	vk.GetPhysicalDeviceSurfaceFormats(b.physicalDevice, vkSurface, &count, formats)

	out := make([]vkpresent.SurfaceFormat, 0, count)
	for _, f := range formats {
		f.Deref()
		pf := fromVkFormat(f.Format)
		if pf == vkpresent.FormatUnknown {
			continue
		}
		out = append(out, vkpresent.SurfaceFormat{Format: pf, ColorSpace: fromVkColorSpace(f.ColorSpace)})
	}
	return out, nil
}

// SurfacePresentModes implements vkpresent.GPUBackend.
func (b *Backend) SurfacePresentModes(surface vkpresent.SurfaceHandle) ([]vkpresent.PresentMode, error) {
	vkSurface, err := asVkSurface(surface)
	if err != nil {
		return nil, err
	}

	var count uint32
	vk.GetPhysicalDeviceSurfacePresentModes(b.physicalDevice, vkSurface, &count, nil)
	modes := make([]vk.PresentMode, count)
	vk.GetPhysicalDeviceSurfacePresentModes(b.physicalDevice, vkSurface, &count, modes)

	out := make([]vkpresent.PresentMode, len(modes))
	for i, m := range modes {
		out[i] = fromVkPresentMode(m)
	}
	return out, nil
}

// QueueSupportsPresent implements vkpresent.GPUBackend.
func (b *Backend) QueueSupportsPresent(surface vkpresent.SurfaceHandle) (bool, error) {
	vkSurface, err := asVkSurface(surface)
	if err != nil {
		return false, err
	}
	var supported vk.Bool32
	if res := vk.GetPhysicalDeviceSurfaceSupport(b.physicalDevice, b.queueFamily, vkSurface, &supported); res != vk.Success {
		return false, fmt.Errorf("vkgpu: vkGetPhysicalDeviceSurfaceSupportKHR: %v", res)
	}
	return supported == vk.True, nil
}

func asVkSurface(h vkpresent.SurfaceHandle) (vk.Surface, error) {
	s, ok := h.(vk.Surface)
	if !ok {
		return vk.Surface(vk.NullHandle), fmt.Errorf("vkgpu: expected a vk.Surface handle, got %T", h)
	}
	return s, nil
}
