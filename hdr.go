package vkpresent

// convertHDR10 turns a caller-supplied, DXGI-scaled HDR10MetaData into the
// Vulkan-shaped payload GPUBackend.SetHDRMetadata expects. The scale
// factors are fixed by the DXGI wire format, not derived: chromaticity
// coordinates are in 1/50000ths, mastering luminance max/min/MaxCLL/MaxFALL
// share a nits scale except MinMasteringLuminance, which DXGI encodes in
// 1/10000 nit units (spec §6).
func convertHDR10(md HDR10MetaData) HDR10Payload {
	const chromaScale = 1.0 / 50000.0
	const minLumaScale = 1.0 / 0.0001 // == 10000.0

	return HDR10Payload{
		DisplayPrimaryRed: [2]float32{
			float32(md.RedPrimary[0]) * chromaScale,
			float32(md.RedPrimary[1]) * chromaScale,
		},
		DisplayPrimaryGreen: [2]float32{
			float32(md.GreenPrimary[0]) * chromaScale,
			float32(md.GreenPrimary[1]) * chromaScale,
		},
		DisplayPrimaryBlue: [2]float32{
			float32(md.BluePrimary[0]) * chromaScale,
			float32(md.BluePrimary[1]) * chromaScale,
		},
		WhitePoint: [2]float32{
			float32(md.WhitePoint[0]) * chromaScale,
			float32(md.WhitePoint[1]) * chromaScale,
		},
		MaxLuminance:             float32(md.MaxMasteringLuminance),
		MinLuminance:             float32(md.MinMasteringLuminance) * minLumaScale,
		MaxContentLightLevel:     float32(md.MaxContentLightLevel),
		MaxFrameAverageLightLevel: float32(md.MaxFrameAverageLightLevel),
	}
}

// colorSpaceIsHDR10 reports whether colorSpace requires an HDR metadata
// push when a request modifies it (spec §4.4 step 3, §6).
func colorSpaceIsHDR10(cs ColorSpace) bool {
	return cs == ColorSpaceRGBFullG2084NoneP2020
}
