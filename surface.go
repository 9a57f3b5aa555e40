package vkpresent

import "fmt"

// WindowHandle is the native windowing handle a caller supplies to New; it
// is opaque to this package (spec §6, native windowing collaborator) and
// only ever forwarded to the GPUBackend that knows how to turn it into a
// SurfaceHandle.
type WindowHandle any

// createSurface verifies that the present queue can actually present to a
// surface New has already bound with GPUBackend.BindSurface, matching the
// source's own check-before-commit ordering (spec §4.1).
func createSurface(gpu GPUBackend, surface SurfaceHandle) error {
	ok, err := gpu.QueueSupportsPresent(surface)
	if err != nil {
		return fmt.Errorf("query present support: %w", err)
	}
	if !ok {
		return ErrNoPresentSupport
	}
	return nil
}

// negotiateSurfaceFormat applies the exact-match-then-fallback ladder
// (spec §4.5 step 3): an exact {format, color space} match wins; failing
// that, the sRGB-nonlinear fallback set is tried in a fixed priority order;
// failing that, negotiation is refused.
func negotiateSurfaceFormat(available []SurfaceFormat, want SurfaceFormat) (SurfaceFormat, error) {
	for _, f := range available {
		if f.Format == want.Format && f.ColorSpace == want.ColorSpace {
			return f, nil
		}
	}

	if want.ColorSpace != ColorSpaceRGBFullG22NoneP709 {
		return SurfaceFormat{}, errFormatMismatch
	}

	fallbackFormats := []Format{FormatR8G8B8A8UNorm, FormatB8G8R8A8UNorm}
	for _, fallback := range fallbackFormats {
		for _, f := range available {
			if f.Format == fallback && f.ColorSpace == ColorSpaceRGBFullG22NoneP709 {
				return f, nil
			}
		}
	}

	return SurfaceFormat{}, errFormatMismatch
}

// selectPresentMode picks the best available present mode for the
// requested swap interval: FIFO when vsync (interval != 0) is requested,
// otherwise immediate (true tearing, lowest latency) falling back to
// mailbox when immediate is unsupported. If neither exists, the caller
// must give up this recreate iteration rather than force FIFO on a client
// that explicitly asked for vsync off (spec §4.5).
func selectPresentMode(available []PresentMode, swapInterval uint32) (PresentMode, error) {
	has := func(m PresentMode) bool {
		for _, a := range available {
			if a == m {
				return true
			}
		}
		return false
	}

	if swapInterval != 0 {
		return PresentModeFIFO, nil
	}
	if has(PresentModeImmediate) {
		return PresentModeImmediate, nil
	}
	if has(PresentModeMailbox) {
		return PresentModeMailbox, nil
	}
	return 0, fmt.Errorf("%w: no immediate or mailbox present mode", errGiveUpPresentMode)
}

// clampExtent pins a requested width/height to the surface's reported
// bounds (spec §4.5), the same clamping the source applies before calling
// into swapchain creation.
func clampExtent(caps SurfaceCapabilities, width, height uint32) (uint32, uint32) {
	if width < caps.MinWidth {
		width = caps.MinWidth
	} else if width > caps.MaxWidth {
		width = caps.MaxWidth
	}
	if height < caps.MinHeight {
		height = caps.MinHeight
	} else if height > caps.MaxHeight {
		height = caps.MaxHeight
	}
	return width, height
}

// clampImageCount pins a requested buffer count to the surface's reported
// min/max image count (spec §4.5); MaxImageCount of 0 means "no upper
// bound", per the WSI convention the source also relies on.
func clampImageCount(caps SurfaceCapabilities, count uint32) uint32 {
	if count < caps.MinImageCount {
		count = caps.MinImageCount
	}
	if caps.MaxImageCount != 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}
