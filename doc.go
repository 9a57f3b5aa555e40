// Package vkpresent implements a DXGI-style presentation swapchain on top of
// an opaque GPU/WSI collaborator (modeled on Vulkan). It owns the
// presentation state machine only: a stable pool of user-visible back
// buffers, a present worker that blits them onto short-lived GPU swapchain
// images, a waiter goroutine that paces frame latency, and the client-facing
// facade (SwapChain) that ties them together.
//
// The GPU device, its command queue, the texture allocator, the blit
// pipeline factory, and the format/color-space tables are all external
// collaborators reached through the interfaces in gpu.go. A concrete
// implementation backed by github.com/goki/vulkan lives in the vkgpu
// subpackage; tests substitute a fake that implements the same interfaces.
package vkpresent
