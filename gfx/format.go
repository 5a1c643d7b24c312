// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"fmt"
	"strings"
)

// Format identifies a texel or vertex attribute format.
type Format uint32

// Formats known to kiln. Values mirror VkFormat.
const (
	FormatUndefined          Format = 0
	FormatR8Unorm            Format = 9
	FormatR8G8Unorm          Format = 16
	FormatR8G8B8A8Unorm      Format = 37
	FormatR8G8B8A8Srgb       Format = 43
	FormatB8G8R8A8Unorm      Format = 44
	FormatB8G8R8A8Srgb       Format = 50
	FormatA2B10G10R10Unorm   Format = 64
	FormatR16G16B16A16Sfloat Format = 97
	FormatR32Uint            Format = 98
	FormatR32Sint            Format = 99
	FormatR32Sfloat          Format = 100
	FormatR32G32Sfloat       Format = 103
	FormatR32G32B32Sfloat    Format = 106
	FormatR32G32B32A32Sfloat Format = 109
	FormatD16Unorm           Format = 124
	FormatD32Sfloat          Format = 126
	FormatD24UnormS8Uint     Format = 129
	FormatD32SfloatS8Uint    Format = 130
)

type formatInfo struct {
	name string
	size uint32
}

var formats = map[Format]formatInfo{
	FormatUndefined:          {"UNDEFINED", 0},
	FormatR8Unorm:            {"R8_UNORM", 1},
	FormatR8G8Unorm:          {"R8G8_UNORM", 2},
	FormatR8G8B8A8Unorm:      {"R8G8B8A8_UNORM", 4},
	FormatR8G8B8A8Srgb:       {"R8G8B8A8_SRGB", 4},
	FormatB8G8R8A8Unorm:      {"B8G8R8A8_UNORM", 4},
	FormatB8G8R8A8Srgb:       {"B8G8R8A8_SRGB", 4},
	FormatA2B10G10R10Unorm:   {"A2B10G10R10_UNORM_PACK32", 4},
	FormatR16G16B16A16Sfloat: {"R16G16B16A16_SFLOAT", 8},
	FormatR32Uint:            {"R32_UINT", 4},
	FormatR32Sint:            {"R32_SINT", 4},
	FormatR32Sfloat:          {"R32_SFLOAT", 4},
	FormatR32G32Sfloat:       {"R32G32_SFLOAT", 8},
	FormatR32G32B32Sfloat:    {"R32G32B32_SFLOAT", 12},
	FormatR32G32B32A32Sfloat: {"R32G32B32A32_SFLOAT", 16},
	FormatD16Unorm:           {"D16_UNORM", 2},
	FormatD32Sfloat:          {"D32_SFLOAT", 4},
	FormatD24UnormS8Uint:     {"D24_UNORM_S8_UINT", 4},
	FormatD32SfloatS8Uint:    {"D32_SFLOAT_S8_UINT", 5},
}

// Size returns the size of one element of the format in bytes.
// ok is false for formats kiln does not know about.
func (f Format) Size() (size uint32, ok bool) {
	info, ok := formats[f]
	if !ok || f == FormatUndefined {
		return 0, false
	}
	return info.size, true
}

func (f Format) String() string {
	if info, ok := formats[f]; ok {
		return info.name
	}
	return fmt.Sprintf("FORMAT(%d)", uint32(f))
}

// ParseFormat parses names such as "B8G8R8A8_SRGB". The VK_FORMAT_ prefix
// is optional and case is ignored.
func ParseFormat(s string) (Format, error) {
	name := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "VK_FORMAT_")
	for f, info := range formats {
		if info.name == name {
			return f, nil
		}
	}
	return FormatUndefined, fmt.Errorf("unknown format %q", s)
}

// ColorSpace identifies how a presentation engine interprets image data.
type ColorSpace uint32

// Color spaces. Values mirror VkColorSpaceKHR.
const (
	ColorSpaceSrgbNonlinear         ColorSpace = 0
	ColorSpaceDisplayP3Nonlinear    ColorSpace = 1000104001
	ColorSpaceExtendedSrgbLinear    ColorSpace = 1000104002
	ColorSpaceHdr10St2084           ColorSpace = 1000104008
	ColorSpacePassThrough           ColorSpace = 1000104013
	ColorSpaceExtendedSrgbNonlinear ColorSpace = 1000104014
)

var colorSpaceNames = map[ColorSpace]string{
	ColorSpaceSrgbNonlinear:         "SRGB_NONLINEAR",
	ColorSpaceDisplayP3Nonlinear:    "DISPLAY_P3_NONLINEAR",
	ColorSpaceExtendedSrgbLinear:    "EXTENDED_SRGB_LINEAR",
	ColorSpaceHdr10St2084:           "HDR10_ST2084",
	ColorSpacePassThrough:           "PASS_THROUGH",
	ColorSpaceExtendedSrgbNonlinear: "EXTENDED_SRGB_NONLINEAR",
}

func (c ColorSpace) String() string {
	if name, ok := colorSpaceNames[c]; ok {
		return name
	}
	return fmt.Sprintf("COLOR_SPACE(%d)", uint32(c))
}

// ParseColorSpace parses names such as "SRGB_NONLINEAR".
func ParseColorSpace(s string) (ColorSpace, error) {
	name := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "VK_COLOR_SPACE_")
	name = strings.TrimSuffix(name, "_KHR")
	name = strings.TrimSuffix(name, "_EXT")
	for c, n := range colorSpaceNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown color space %q", s)
}

// SurfaceFormat pairs a format with the color space it is presented in.
type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

func (s SurfaceFormat) String() string {
	return s.Format.String() + "/" + s.ColorSpace.String()
}
