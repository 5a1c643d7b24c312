// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"fmt"
	"math"
	"math/bits"
	"strings"
)

// UndefinedExtent is reported by surfaces whose size is determined by the
// swapchain that targets them.
const UndefinedExtent = math.MaxUint32

// Extent2D is a size in pixels.
type Extent2D struct {
	Width  uint32
	Height uint32
}

func (e Extent2D) String() string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}

// PresentMode is the way a swapchain queues images for presentation.
type PresentMode uint32

// Present modes. Values mirror VkPresentModeKHR.
const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFifo        PresentMode = 2
	PresentModeFifoRelaxed PresentMode = 3
)

var presentModeNames = map[PresentMode]string{
	PresentModeImmediate:   "immediate",
	PresentModeMailbox:     "mailbox",
	PresentModeFifo:        "fifo",
	PresentModeFifoRelaxed: "fifo_relaxed",
}

func (p PresentMode) String() string {
	if name, ok := presentModeNames[p]; ok {
		return name
	}
	return fmt.Sprintf("present_mode(%d)", uint32(p))
}

// ParsePresentMode parses "immediate", "mailbox", "fifo" or "fifo_relaxed".
func ParsePresentMode(s string) (PresentMode, error) {
	name := strings.Replace(strings.ToLower(strings.TrimSpace(s)), "-", "_", -1)
	for p, n := range presentModeNames {
		if n == name {
			return p, nil
		}
	}
	return PresentModeFifo, fmt.Errorf("unknown present mode %q", s)
}

// SampleCount is a single multisample count bit.
type SampleCount uint32

// Sample counts. Values mirror VkSampleCountFlagBits.
const (
	SampleCount1  SampleCount = 0x01
	SampleCount2  SampleCount = 0x02
	SampleCount4  SampleCount = 0x04
	SampleCount8  SampleCount = 0x08
	SampleCount16 SampleCount = 0x10
	SampleCount32 SampleCount = 0x20
	SampleCount64 SampleCount = 0x40
)

// Single reports whether exactly one sample count bit is set.
func (s SampleCount) Single() bool {
	return s != 0 && s&(s-1) == 0
}

// SampleCountFromInt converts 1, 2, 4 ... 64 into its flag bit.
func SampleCountFromInt(n int) (SampleCount, error) {
	if n <= 0 || n > 64 || n&(n-1) != 0 {
		return 0, fmt.Errorf("invalid sample count %d", n)
	}
	return SampleCount(n), nil
}

// SampleCountFlags is a set of SampleCount bits.
type SampleCountFlags uint32

// Has reports whether s is part of the set.
func (f SampleCountFlags) Has(s SampleCount) bool {
	return s != 0 && SampleCountFlags(s)&f == SampleCountFlags(s)
}

// Max returns the highest sample count in the set, or SampleCount1 when empty.
func (f SampleCountFlags) Max() SampleCount {
	f &= SampleCountFlags(SampleCount64<<1 - 1)
	if f == 0 {
		return SampleCount1
	}
	return SampleCount(1 << uint(31-bits.LeadingZeros32(uint32(f))))
}

// DeviceType classifies a physical device.
type DeviceType uint32

// Device types. Values mirror VkPhysicalDeviceType.
const (
	DeviceTypeOther         DeviceType = 0
	DeviceTypeIntegratedGPU DeviceType = 1
	DeviceTypeDiscreteGPU   DeviceType = 2
	DeviceTypeVirtualGPU    DeviceType = 3
	DeviceTypeCPU           DeviceType = 4
)

func (d DeviceType) String() string {
	switch d {
	case DeviceTypeIntegratedGPU:
		return "integrated"
	case DeviceTypeDiscreteGPU:
		return "discrete"
	case DeviceTypeVirtualGPU:
		return "virtual"
	case DeviceTypeCPU:
		return "cpu"
	default:
		return "other"
	}
}

// QueueFlags describes the operations a queue family supports.
type QueueFlags uint32

// Queue capabilities. Values mirror VkQueueFlagBits.
const (
	QueueGraphics QueueFlags = 0x1
	QueueCompute  QueueFlags = 0x2
	QueueTransfer QueueFlags = 0x4
)

// SurfaceTransform is a presentation transform bit.
type SurfaceTransform uint32

// SurfaceTransformIdentity presents images unrotated. Value mirrors
// VkSurfaceTransformFlagBitsKHR.
const SurfaceTransformIdentity SurfaceTransform = 0x1

// CompositeAlpha is a presentation alpha compositing bit.
type CompositeAlpha uint32

// Composite alpha modes. Values mirror VkCompositeAlphaFlagBitsKHR.
const (
	CompositeAlphaOpaque         CompositeAlpha = 0x1
	CompositeAlphaPreMultiplied  CompositeAlpha = 0x2
	CompositeAlphaPostMultiplied CompositeAlpha = 0x4
	CompositeAlphaInherit        CompositeAlpha = 0x8
)

// ShaderStage identifies a programmable pipeline stage.
type ShaderStage uint32

// Shader stages. Values mirror VkShaderStageFlagBits.
const (
	ShaderStageVertex                 ShaderStage = 0x01
	ShaderStageTessellationControl    ShaderStage = 0x02
	ShaderStageTessellationEvaluation ShaderStage = 0x04
	ShaderStageGeometry               ShaderStage = 0x08
	ShaderStageFragment               ShaderStage = 0x10
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vert"
	case ShaderStageTessellationControl:
		return "tesc"
	case ShaderStageTessellationEvaluation:
		return "tese"
	case ShaderStageGeometry:
		return "geom"
	case ShaderStageFragment:
		return "frag"
	default:
		return fmt.Sprintf("stage(%d)", uint32(s))
	}
}

// PrimitiveTopology is the way vertices are assembled into primitives.
type PrimitiveTopology uint32

// Topologies. Values mirror VkPrimitiveTopology.
const (
	TopologyPointList     PrimitiveTopology = 0
	TopologyLineList      PrimitiveTopology = 1
	TopologyLineStrip     PrimitiveTopology = 2
	TopologyTriangleList  PrimitiveTopology = 3
	TopologyTriangleStrip PrimitiveTopology = 4
	TopologyTriangleFan   PrimitiveTopology = 5
)

// List reports whether the topology is a list topology.
func (t PrimitiveTopology) List() bool {
	return t == TopologyPointList || t == TopologyLineList || t == TopologyTriangleList
}

// PolygonMode is the rasterization mode of polygons.
type PolygonMode uint32

// Polygon modes. Values mirror VkPolygonMode.
const (
	PolygonModeFill  PolygonMode = 0
	PolygonModeLine  PolygonMode = 1
	PolygonModePoint PolygonMode = 2
)

// CullMode selects which faces are discarded.
type CullMode uint32

// Cull modes. Values mirror VkCullModeFlagBits.
const (
	CullModeNone         CullMode = 0
	CullModeFront        CullMode = 1
	CullModeBack         CullMode = 2
	CullModeFrontAndBack CullMode = 3
)

// FrontFace is the winding order of front-facing polygons.
type FrontFace uint32

// Windings. Values mirror VkFrontFace.
const (
	FrontFaceCounterClockwise FrontFace = 0
	FrontFaceClockwise        FrontFace = 1
)

// VertexInputRate selects per-vertex or per-instance attribute stepping.
type VertexInputRate uint32

// Input rates. Values mirror VkVertexInputRate.
const (
	InputRateVertex   VertexInputRate = 0
	InputRateInstance VertexInputRate = 1
)

// ColorComponents is a color write mask.
type ColorComponents uint32

// Color components. Values mirror VkColorComponentFlagBits.
const (
	ColorComponentR    ColorComponents = 0x1
	ColorComponentG    ColorComponents = 0x2
	ColorComponentB    ColorComponents = 0x4
	ColorComponentA    ColorComponents = 0x8
	ColorComponentRGBA                 = ColorComponentR | ColorComponentG | ColorComponentB | ColorComponentA
)
