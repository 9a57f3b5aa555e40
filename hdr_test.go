package vkpresent

import "testing"

func TestConvertHDR10(t *testing.T) {
	md := HDR10MetaData{
		RedPrimary:            [2]uint16{35000, 15000},
		MaxMasteringLuminance: 1000,
		MinMasteringLuminance: 5, // -> 5 / 0.0001 = 50000
		MaxContentLightLevel:  1000,
	}

	got := convertHDR10(md)

	if want := float32(35000) / 50000.0; got.DisplayPrimaryRed[0] != want {
		t.Errorf("DisplayPrimaryRed[0] = %v, want %v", got.DisplayPrimaryRed[0], want)
	}
	if want := float32(1000); got.MaxLuminance != want {
		t.Errorf("MaxLuminance = %v, want %v", got.MaxLuminance, want)
	}
	if want := float32(5) * 10000.0; got.MinLuminance != want {
		t.Errorf("MinLuminance = %v, want %v", got.MinLuminance, want)
	}
}

func TestColorSpaceIsHDR10(t *testing.T) {
	if !colorSpaceIsHDR10(ColorSpaceRGBFullG2084NoneP2020) {
		t.Error("expected HDR10 color space to be recognized")
	}
	if colorSpaceIsHDR10(ColorSpaceRGBFullG22NoneP709) {
		t.Error("sRGB should not be classified as HDR10")
	}
}
