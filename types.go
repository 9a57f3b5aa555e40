package vkpresent

import "sync/atomic"

// MaxBuffers is the build-time cap on back buffers and ring-slot count
// (spec §3). Chosen as 16, matching the source's build constant.
const MaxBuffers = 16

// DefaultLatency is the frame-latency default on the non-waitable path
// (spec §4.8). The effective initial semaphore count is DefaultLatency-1,
// an open question spec.md says to preserve verbatim ("implicit first
// acquire") rather than infer a different constant.
const DefaultLatency = 3

// SwapChainFlags are bit flags on a Descriptor.
type SwapChainFlags uint32

// LatencyWaitable marks a swap chain as waitable: SetFrameLatency is only
// accepted when it is set, and the initial latency is DefaultLatency rather
// than DefaultLatency-1. Present blocks on the frame-latency semaphore
// whether or not the flag is set; no waitable object is handed to callers.
const LatencyWaitable SwapChainFlags = 1 << 0

// ScalingMode controls whether the blit stretches the user image to the
// swapchain extent or draws it 1:1 (spec §3).
type ScalingMode int

const (
	// ScalingNone selects the nearest-filter blit pipeline key. The blit is
	// still recorded with the swapchain's current extent as both source and
	// destination extent; the viewport is not sized to the user back buffer.
	ScalingNone ScalingMode = iota
	// ScalingStretch selects the linear-filter blit pipeline key, viewport
	// sized to the swapchain's current extent.
	ScalingStretch
)

// Format is the client-facing pixel format, named in the DXGI style the
// facade presents to callers. The native Vulkan format it maps to is an
// internal concern of the GPUBackend implementation (§6 format tables).
type Format int

const (
	FormatUnknown Format = iota
	FormatR8G8B8A8UNorm
	FormatB8G8R8A8UNorm
)

// ColorSpace is the client-facing color space, named in the DXGI style.
type ColorSpace int

const (
	ColorSpaceRGBFullG22NoneP709 ColorSpace = iota // sRGB, gamma 2.2, Rec.709 primaries
	ColorSpaceRGBFullG2084NoneP2020                // HDR10 (ST.2084 PQ, Rec.2020 primaries)
	ColorSpaceRGBFullG10NoneP709                    // scRGB / extended linear
)

// ColorSpaceSupportFlags mirrors the single-bit DXGI contract for
// CheckColorSpaceSupport (SPEC_FULL §C.4): only bit 0 is ever defined.
type ColorSpaceSupportFlags uint32

// ColorSpaceSupportPresent is the one bit CheckColorSpaceSupport can set.
const ColorSpaceSupportPresent ColorSpaceSupportFlags = 1 << 0

// HDRMetadataType distinguishes metadata payload shapes. Only HDR10 is
// implemented (spec §6); other values are stored but never pushed to the
// GPU.
type HDRMetadataType int

const (
	HDRMetadataTypeNone HDRMetadataType = iota
	HDRMetadataTypeHDR10
)

// HDR10MetaData carries the raw DXGI-scaled values a caller supplies;
// convertHDR10 (hdr.go) performs the bit-exact conversion from spec §6.
type HDR10MetaData struct {
	RedPrimary          [2]uint16
	GreenPrimary        [2]uint16
	BluePrimary         [2]uint16
	WhitePoint          [2]uint16
	MaxMasteringLuminance uint32 // nits
	MinMasteringLuminance uint32 // 1/10000 nit units
	MaxContentLightLevel  uint16
	MaxFrameAverageLightLevel uint16
}

// Descriptor is the immutable-per-epoch swapchain descriptor (spec §3).
type Descriptor struct {
	Width, Height uint32
	Format        Format
	BufferCount   uint32
	Flags         SwapChainFlags
	Scaling       ScalingMode
}

func (d Descriptor) sameGeometry(other Descriptor) bool {
	return d.Width == other.Width && d.Height == other.Height &&
		d.Format == other.Format && d.BufferCount == other.BufferCount &&
		d.Flags == other.Flags && d.Scaling == other.Scaling
}

// userBuffer is one user-visible back buffer slot (spec §3 "User Buffer
// Slot"). The public refcount is what GetImage/Release affect; the private
// refcount is the facade's own internal hold used during teardown and
// reallocation, kept distinct per spec's invariant that ChangeProperties is
// only legal when every slot's public refcount is zero.
type userBuffer struct {
	texture UserTexture
	view    UserTextureView

	publicRefs  atomic.Int32
	privateRefs atomic.Int32

	// everWritten records whether the worker has already blitted from this
	// slot. It is passed to GPUBackend.RecordBlit; the vkgpu backend does
	// not act on it and never clears the target.
	everWritten bool
}

func (b *userBuffer) addPublicRef() int32  { return b.publicRefs.Add(1) }
func (b *userBuffer) releasePublicRef() int32 { return b.publicRefs.Add(-1) }
func (b *userBuffer) addPrivateRef() int32 { return b.privateRefs.Add(1) }
func (b *userBuffer) releasePrivateRef() int32 { return b.privateRefs.Add(-1) }

// presentRequest is one ring entry (spec §3 "Present Request").
type presentRequest struct {
	userIndex         uint32
	format            Format
	colorSpace        ColorSpace
	hdrMetadata       HDR10MetaData
	modifiesHDR       bool
	swapInterval      uint32
	nodeMask          uint32 // recognized, never dispatched (SPEC_FULL §C.6)
	presentIDValid    bool
	presentID         uint64
	scaling           ScalingMode
}

func (r presentRequest) repeatCount() uint32 {
	if r.swapInterval == 0 {
		return 1
	}
	return r.swapInterval
}

// changedSwapchainClass reports whether color space, format, or the
// truth-value of swap_interval differs between two requests, each of which
// forces swapchain recreation per §4.7.
func changedSwapchainClass(prev, next presentRequest) bool {
	return prev.colorSpace != next.colorSpace ||
		prev.format != next.format ||
		(prev.swapInterval == 0) != (next.swapInterval == 0)
}
