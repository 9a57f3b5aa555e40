package vkpresent

import (
	"errors"
	"testing"
)

func newTestSwapChain(t *testing.T) (*SwapChain, *fakeBackend) {
	t.Helper()
	gpu := newFakeBackend(800, 600)
	desc := Descriptor{Width: 800, Height: 600, Format: FormatB8G8R8A8UNorm, BufferCount: 3}
	sc, err := New(gpu, fakeHandle(0), desc, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { sc.Close() })
	return sc, gpu
}

func TestNewAndGetDesc(t *testing.T) {
	sc, _ := newTestSwapChain(t)
	desc := sc.GetDesc()
	if desc.Width != 800 || desc.Height != 600 {
		t.Errorf("GetDesc() = %+v", desc)
	}
}

func TestGetImageAndRelease(t *testing.T) {
	sc, _ := newTestSwapChain(t)
	if _, err := sc.GetImage(0); err != nil {
		t.Fatalf("GetImage(0): %v", err)
	}
	if err := sc.ReleaseImage(0); err != nil {
		t.Fatalf("ReleaseImage(0): %v", err)
	}
	if err := sc.ReleaseImage(0); err == nil {
		t.Error("expected an error releasing an image with no outstanding reference")
	}
}

func TestGetImageOutOfRange(t *testing.T) {
	sc, _ := newTestSwapChain(t)
	if _, err := sc.GetImage(99); err == nil {
		t.Error("expected an error for an out-of-range image index")
	}
}

func TestPresentDrains(t *testing.T) {
	sc, _ := newTestSwapChain(t)
	if err := sc.Present(PresentParams{UserIndex: 0, ColorSpace: ColorSpaceRGBFullG22NoneP709, SwapInterval: 1}); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if err := sc.gpu.WaitTimeline(sc.ctx, sc.sync.blitCounter, 1); err != nil {
		t.Fatalf("drain: %v", err)
	}
}

// TestPresentOccludedDoesNotEnqueue exercises spec §8 Scenario 2: a
// minimized window (zero-extent surface) must make Present return
// ErrOccluded without touching the worker at all, leaving the blit
// counter exactly where it was.
func TestPresentOccludedDoesNotEnqueue(t *testing.T) {
	gpu := newFakeBackend(0, 0)
	desc := Descriptor{Width: 800, Height: 600, Format: FormatB8G8R8A8UNorm, BufferCount: 3}
	sc, err := New(gpu, fakeHandle(0), desc, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { sc.Close() })

	before, err := gpu.TimelineValue(sc.sync.blitCounter)
	if err != nil {
		t.Fatalf("TimelineValue: %v", err)
	}

	err = sc.Present(PresentParams{UserIndex: 0, ColorSpace: ColorSpaceRGBFullG22NoneP709, SwapInterval: 1})
	if !errors.Is(err, ErrOccluded) {
		t.Fatalf("Present on occluded surface error = %v, want ErrOccluded", err)
	}

	after, err := gpu.TimelineValue(sc.sync.blitCounter)
	if err != nil {
		t.Fatalf("TimelineValue: %v", err)
	}
	if after != before {
		t.Errorf("blit counter moved from %d to %d on an occluded present", before, after)
	}
}

// TestPresentTestFlagShortCircuits exercises spec §4.6 step 2: the TEST
// flag returns success without enqueuing a frame or consuming a
// frame-latency slot.
func TestPresentTestFlagShortCircuits(t *testing.T) {
	sc, gpu := newTestSwapChain(t)

	before, err := gpu.TimelineValue(sc.sync.blitCounter)
	if err != nil {
		t.Fatalf("TimelineValue: %v", err)
	}

	if err := sc.Present(PresentParams{UserIndex: 0, ColorSpace: ColorSpaceRGBFullG22NoneP709, Test: true}); err != nil {
		t.Fatalf("Present(Test): %v", err)
	}

	after, err := gpu.TimelineValue(sc.sync.blitCounter)
	if err != nil {
		t.Fatalf("TimelineValue: %v", err)
	}
	if after != before {
		t.Errorf("blit counter moved from %d to %d on a test present", before, after)
	}
}

func TestChangePropertiesRejectsOutstandingRefs(t *testing.T) {
	sc, _ := newTestSwapChain(t)
	if _, err := sc.GetImage(0); err != nil {
		t.Fatalf("GetImage(0): %v", err)
	}
	next := Descriptor{Width: 1024, Height: 768, Format: FormatB8G8R8A8UNorm, BufferCount: 3}
	if err := sc.ChangeProperties(next); err == nil {
		t.Error("expected ChangeProperties to refuse while a buffer is referenced")
	}
}

func TestChangePropertiesSucceedsOnceDrained(t *testing.T) {
	sc, _ := newTestSwapChain(t)
	next := Descriptor{Width: 1024, Height: 768, Format: FormatB8G8R8A8UNorm, BufferCount: 2}
	if err := sc.ChangeProperties(next); err != nil {
		t.Fatalf("ChangeProperties: %v", err)
	}
	if sc.GetDesc().BufferCount != 2 {
		t.Errorf("BufferCount = %d, want 2", sc.GetDesc().BufferCount)
	}
}

func TestChangePropertiesNoOpOnIdenticalDescriptor(t *testing.T) {
	sc, _ := newTestSwapChain(t)
	if _, err := sc.GetImage(0); err != nil {
		t.Fatalf("GetImage(0): %v", err)
	}
	// An outstanding reference would normally reject ChangeProperties, but an
	// identical descriptor should short-circuit before that check runs.
	if err := sc.ChangeProperties(sc.GetDesc()); err != nil {
		t.Fatalf("ChangeProperties(unchanged): %v", err)
	}
}

func TestCheckColorSpaceSupport(t *testing.T) {
	sc, _ := newTestSwapChain(t)
	flags, err := sc.CheckColorSpaceSupport(ColorSpaceRGBFullG22NoneP709)
	if err != nil {
		t.Fatalf("CheckColorSpaceSupport: %v", err)
	}
	if flags&ColorSpaceSupportPresent == 0 {
		t.Error("expected sRGB color space to be reported as supported")
	}
}

func TestSetFrameLatencyRequiresWaitable(t *testing.T) {
	sc, _ := newTestSwapChain(t)
	if err := sc.SetFrameLatency(2); err == nil {
		t.Error("expected an error setting frame latency on a non-waitable swap chain")
	}
}

func TestSetPresentRegionNotImplemented(t *testing.T) {
	sc, _ := newTestSwapChain(t)
	if err := sc.SetPresentRegion(nil); err != ErrNotImplemented {
		t.Errorf("SetPresentRegion error = %v, want ErrNotImplemented", err)
	}
}
