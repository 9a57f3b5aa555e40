//go:build windows

package vkgpu

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/intuitionamiga/vkpresent"
)

const platformSurfaceExtension = "VK_KHR_win32_surface\x00"

// Win32Window is the native windowing handle this backend expects on
// Windows: the process instance handle and window handle pair every
// Win32 WSI integration needs.
type Win32Window struct {
	HInstance unsafe.Pointer
	HWnd      unsafe.Pointer
}

// BindSurface implements vkpresent.GPUBackend.
func (b *Backend) BindSurface(window vkpresent.WindowHandle) (vkpresent.SurfaceHandle, error) {
	w, ok := window.(Win32Window)
	if !ok {
		return nil, fmt.Errorf("vkgpu: expected vkgpu.Win32Window, got %T", window)
	}

	createInfo := vk.Win32SurfaceCreateInfo{
		SType:     vk.StructureTypeWin32SurfaceCreateInfo,
		Hinstance: w.HInstance,
		Hwnd:      w.HWnd,
	}

	var surface vk.Surface
	if res := vk.CreateWin32Surface(b.instance, &createInfo, nil, &surface); res != vk.Success {
		return nil, fmt.Errorf("vkgpu: vkCreateWin32SurfaceKHR: %v", res)
	}
	return surface, nil
}
