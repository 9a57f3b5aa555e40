package vkgpu

import (
	"context"
	"fmt"
	"time"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/intuitionamiga/vkpresent"
)

// NewFence implements vkpresent.GPUBackend.
func (b *Backend) NewFence(signaled bool) (vkpresent.FenceHandle, error) {
	var flags vk.FenceCreateFlags
	if signaled {
		flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	createInfo := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo, Flags: flags}
	var fence vk.Fence
	if res := vk.CreateFence(b.device, &createInfo, nil, &fence); res != vk.Success {
		return nil, fmt.Errorf("vkgpu: vkCreateFence: %v", res)
	}
	return fence, nil
}

// WaitFence implements vkpresent.GPUBackend. goki/vulkan's WaitForFences
// call is not itself context-aware, so long timeouts are chopped into
// polling slices that check ctx between each one, the same shape the
// source's own acquire-fence wait loop uses to stay cancellable.
func (b *Backend) WaitFence(ctx context.Context, f vkpresent.FenceHandle, timeoutNanos uint64) error {
	fence, ok := f.(vk.Fence)
	if !ok {
		return fmt.Errorf("vkgpu: expected a vk.Fence handle, got %T", f)
	}

	const pollSlice = uint64(50 * time.Millisecond)
	remaining := timeoutNanos
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		slice := pollSlice
		if remaining < slice {
			slice = remaining
		}
		res := vk.WaitForFences(b.device, 1, []vk.Fence{fence}, vk.True, slice)
		if res == vk.Success {
			return nil
		}
		if res != vk.Timeout {
			return fmt.Errorf("vkgpu: vkWaitForFences: %v", res)
		}
		if remaining <= slice {
			return fmt.Errorf("vkgpu: vkWaitForFences: timed out")
		}
		remaining -= slice
	}
}

// ResetFence implements vkpresent.GPUBackend.
func (b *Backend) ResetFence(f vkpresent.FenceHandle) error {
	fence, ok := f.(vk.Fence)
	if !ok {
		return fmt.Errorf("vkgpu: expected a vk.Fence handle, got %T", f)
	}
	if res := vk.ResetFences(b.device, 1, []vk.Fence{fence}); res != vk.Success {
		return fmt.Errorf("vkgpu: vkResetFences: %v", res)
	}
	return nil
}

// DestroyFence implements vkpresent.GPUBackend.
func (b *Backend) DestroyFence(f vkpresent.FenceHandle) {
	fence, ok := f.(vk.Fence)
	if !ok {
		return
	}
	vk.DestroyFence(b.device, fence, nil)
}

// NewBinarySemaphore implements vkpresent.GPUBackend.
func (b *Backend) NewBinarySemaphore() (vkpresent.SemaphoreHandle, error) {
	createInfo := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	var sem vk.Semaphore
	if res := vk.CreateSemaphore(b.device, &createInfo, nil, &sem); res != vk.Success {
		return nil, fmt.Errorf("vkgpu: vkCreateSemaphore: %v", res)
	}
	return sem, nil
}

// DestroySemaphore implements vkpresent.GPUBackend.
func (b *Backend) DestroySemaphore(s vkpresent.SemaphoreHandle) {
	sem, ok := s.(vk.Semaphore)
	if !ok {
		return
	}
	vk.DestroySemaphore(b.device, sem, nil)
}

// NewTimelineSemaphore implements vkpresent.GPUBackend. The blit-counter
// semaphore facade.go's ChangeProperties drains against is one of
// these, created with the initial value the caller already processed.
func (b *Backend) NewTimelineSemaphore(initial uint64) (vkpresent.TimelineSemaphore, error) {
	typeInfo := vk.SemaphoreTypeCreateInfo{
		SType:         vk.StructureTypeSemaphoreTypeCreateInfo,
		SemaphoreType: vk.SemaphoreTypeTimeline,
		InitialValue:  initial,
	}
	createInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
		PNext: unsafe.Pointer(&typeInfo),
	}
	var sem vk.Semaphore
	if res := vk.CreateSemaphore(b.device, &createInfo, nil, &sem); res != vk.Success {
		return nil, fmt.Errorf("vkgpu: vkCreateSemaphore (timeline): %v", res)
	}
	return sem, nil
}

// SignalTimeline implements vkpresent.GPUBackend.
func (b *Backend) SignalTimeline(t vkpresent.TimelineSemaphore, value uint64) error {
	sem, ok := t.(vk.Semaphore)
	if !ok {
		return fmt.Errorf("vkgpu: expected a vk.Semaphore handle, got %T", t)
	}
	signalInfo := vk.SemaphoreSignalInfo{
		SType:     vk.StructureTypeSemaphoreSignalInfo,
		Semaphore: sem,
		Value:     value,
	}
	if res := vk.SignalSemaphore(b.device, &signalInfo); res != vk.Success {
		return fmt.Errorf("vkgpu: vkSignalSemaphore: %v", res)
	}
	return nil
}

// TimelineValue implements vkpresent.GPUBackend.
func (b *Backend) TimelineValue(t vkpresent.TimelineSemaphore) (uint64, error) {
	sem, ok := t.(vk.Semaphore)
	if !ok {
		return 0, fmt.Errorf("vkgpu: expected a vk.Semaphore handle, got %T", t)
	}
	var value uint64
	if res := vk.GetSemaphoreCounterValue(b.device, sem, &value); res != vk.Success {
		return 0, fmt.Errorf("vkgpu: vkGetSemaphoreCounterValue: %v", res)
	}
	return value, nil
}

// WaitTimeline implements vkpresent.GPUBackend, used by ChangeProperties to
// drain outstanding presents (spec §4.6 step 7) instead of a broad queue
// wait idle.
func (b *Backend) WaitTimeline(ctx context.Context, t vkpresent.TimelineSemaphore, value uint64) error {
	sem, ok := t.(vk.Semaphore)
	if !ok {
		return fmt.Errorf("vkgpu: expected a vk.Semaphore handle, got %T", t)
	}

	waitInfo := vk.SemaphoreWaitInfo{
		SType:          vk.StructureTypeSemaphoreWaitInfo,
		SemaphoreCount: 1,
		PSemaphores:    []vk.Semaphore{sem},
		PValues:        []uint64{value},
	}

	const pollSlice = uint64(50 * time.Millisecond)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		res := vk.WaitSemaphores(b.device, &waitInfo, pollSlice)
		if res == vk.Success {
			return nil
		}
		if res != vk.Timeout {
			return fmt.Errorf("vkgpu: vkWaitSemaphores: %v", res)
		}
	}
}

// DestroyTimelineSemaphore implements vkpresent.GPUBackend.
func (b *Backend) DestroyTimelineSemaphore(t vkpresent.TimelineSemaphore) {
	sem, ok := t.(vk.Semaphore)
	if !ok {
		return
	}
	vk.DestroySemaphore(b.device, sem, nil)
}
