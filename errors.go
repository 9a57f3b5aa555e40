package vkpresent

import "errors"

// Argument and call-sequencing errors (spec §7). Checked with errors.Is.
var (
	// ErrInvalidArg is returned for out-of-range buffer indices and
	// unsupported color spaces.
	ErrInvalidArg = errors.New("vkpresent: invalid argument")

	// ErrInvalidCall is returned when an operation is illegal in the
	// current state: ChangeProperties with outstanding public buffer
	// references, or SetFrameLatency on a non-waitable swap chain.
	ErrInvalidCall = errors.New("vkpresent: invalid call")

	// ErrNotImplemented is returned by the gamma-ramp and present-region
	// setters, which spec.md scopes as Non-goals but which the facade
	// still exposes for API completeness.
	ErrNotImplemented = errors.New("vkpresent: not implemented")

	// ErrSurfaceLost is reported to the breadcrumb sink when an acquire or
	// present reports the native surface lost, rather than returned to
	// callers: the worker stops presenting that request and marks the swap
	// chain occluded. The loss is not remembered; the next request tries to
	// present again.
	ErrSurfaceLost = errors.New("vkpresent: surface lost")

	// ErrNoPresentSupport is returned by New when the device's queue
	// family cannot present to the given surface (§4.1).
	ErrNoPresentSupport = errors.New("vkpresent: queue family does not support presentation")

	// ErrOccluded is returned by Present when the surface is currently
	// occluded or has a zero extent (§4.6 step 1, §4.9). It is not a
	// failure — it is the distinct "occluded" success code spec.md
	// describes — callers that treat every non-nil Present error as fatal
	// should check for it with errors.Is first.
	ErrOccluded = errors.New("vkpresent: occluded")

	// errFormatMismatch is returned internally when no acceptable surface
	// format exists for the requested color space (§4.5 step 3); it is
	// never surfaced to callers directly, only through a failed
	// (re)creation that keeps the swap chain occluded.
	errFormatMismatch = errors.New("vkpresent: no acceptable surface format for requested color space")

	// errGiveUpPresentMode signals that no usable present mode exists this
	// iteration (§4.5 present-mode ladder); handled as a no-op retry.
	errGiveUpPresentMode = errors.New("vkpresent: no acceptable present mode this iteration")
)
