package vkpresent

import "testing"

func TestNegotiateSurfaceFormatExactMatch(t *testing.T) {
	available := []SurfaceFormat{
		{Format: FormatB8G8R8A8UNorm, ColorSpace: ColorSpaceRGBFullG2084NoneP2020},
	}
	want := SurfaceFormat{Format: FormatB8G8R8A8UNorm, ColorSpace: ColorSpaceRGBFullG2084NoneP2020}

	got, err := negotiateSurfaceFormat(available, want)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestNegotiateSurfaceFormatFallsBackToSRGB(t *testing.T) {
	available := []SurfaceFormat{
		{Format: FormatR8G8B8A8UNorm, ColorSpace: ColorSpaceRGBFullG22NoneP709},
	}
	want := SurfaceFormat{Format: FormatB8G8R8A8UNorm, ColorSpace: ColorSpaceRGBFullG22NoneP709}

	got, err := negotiateSurfaceFormat(available, want)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Format != FormatR8G8B8A8UNorm {
		t.Errorf("expected fallback to R8G8B8A8, got %v", got.Format)
	}
}

func TestNegotiateSurfaceFormatRefusesHDRWithNoMatch(t *testing.T) {
	available := []SurfaceFormat{
		{Format: FormatR8G8B8A8UNorm, ColorSpace: ColorSpaceRGBFullG22NoneP709},
	}
	want := SurfaceFormat{Format: FormatB8G8R8A8UNorm, ColorSpace: ColorSpaceRGBFullG2084NoneP2020}

	if _, err := negotiateSurfaceFormat(available, want); err == nil {
		t.Fatal("expected an error for an unmatched HDR color space")
	}
}

func TestSelectPresentModeVsync(t *testing.T) {
	available := []PresentMode{PresentModeMailbox, PresentModeFIFO}
	got, err := selectPresentMode(available, 1)
	if err != nil {
		t.Fatalf("selectPresentMode: %v", err)
	}
	if got != PresentModeFIFO {
		t.Errorf("swapInterval=1 should force FIFO, got %v", got)
	}
}

func TestSelectPresentModeNoVsyncPrefersImmediate(t *testing.T) {
	available := []PresentMode{PresentModeFIFO, PresentModeMailbox, PresentModeImmediate}
	got, err := selectPresentMode(available, 0)
	if err != nil {
		t.Fatalf("selectPresentMode: %v", err)
	}
	if got != PresentModeImmediate {
		t.Errorf("swapInterval=0 should prefer immediate, got %v", got)
	}
}

func TestSelectPresentModeNoVsyncFallsBackToMailbox(t *testing.T) {
	available := []PresentMode{PresentModeFIFO, PresentModeMailbox}
	got, err := selectPresentMode(available, 0)
	if err != nil {
		t.Fatalf("selectPresentMode: %v", err)
	}
	if got != PresentModeMailbox {
		t.Errorf("swapInterval=0 should fall back to mailbox when immediate is unavailable, got %v", got)
	}
}

func TestSelectPresentModeGivesUpWithNeitherImmediateNorMailbox(t *testing.T) {
	available := []PresentMode{PresentModeFIFO}
	if _, err := selectPresentMode(available, 0); err == nil {
		t.Error("expected an error when neither immediate nor mailbox is available")
	}
}

func TestClampExtent(t *testing.T) {
	caps := SurfaceCapabilities{MinWidth: 100, MaxWidth: 200, MinHeight: 100, MaxHeight: 200}
	w, h := clampExtent(caps, 50, 300)
	if w != 100 || h != 200 {
		t.Errorf("clampExtent(50,300) = (%d,%d), want (100,200)", w, h)
	}
}

func TestClampImageCount(t *testing.T) {
	caps := SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 4}
	if got := clampImageCount(caps, 1); got != 2 {
		t.Errorf("clampImageCount(1) = %d, want 2", got)
	}
	if got := clampImageCount(caps, 10); got != 4 {
		t.Errorf("clampImageCount(10) = %d, want 4", got)
	}
	unbounded := SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 0}
	if got := clampImageCount(unbounded, 100); got != 100 {
		t.Errorf("clampImageCount with MaxImageCount=0 should not clamp, got %d", got)
	}
}
