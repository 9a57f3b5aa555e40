//go:build linux

package vkgpu

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/intuitionamiga/vkpresent"
)

// platformSurfaceExtension is the WSI surface extension this platform's
// BindSurface call requires, alongside the base VK_KHR_surface extension
// every platform enables.
const platformSurfaceExtension = "VK_KHR_xlib_surface\x00"

// XlibWindow is the native windowing handle this backend expects on
// Linux/X11: a raw Xlib display pointer and window ID, the same pair the
// rest of the WSI-facing ecosystem (GLFW, SDL) exposes for interop.
type XlibWindow struct {
	Display unsafe.Pointer
	Window  uint64
}

// BindSurface implements vkpresent.GPUBackend.
func (b *Backend) BindSurface(window vkpresent.WindowHandle) (vkpresent.SurfaceHandle, error) {
	xw, ok := window.(XlibWindow)
	if !ok {
		return nil, fmt.Errorf("vkgpu: expected vkgpu.XlibWindow, got %T", window)
	}

	createInfo := vk.XlibSurfaceCreateInfo{
		SType:  vk.StructureTypeXlibSurfaceCreateInfo,
		Dpy:    xw.Display,
		Window: vk.Window(xw.Window),
	}

	var surface vk.Surface
	if res := vk.CreateXlibSurface(b.instance, &createInfo, nil, &surface); res != vk.Success {
		return nil, fmt.Errorf("vkgpu: vkCreateXlibSurfaceKHR: %v", res)
	}
	return surface, nil
}
