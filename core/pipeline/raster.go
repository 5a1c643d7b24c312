// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pipeline

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/kiln/gfx"
)

// InputAssembly is the primitive assembly state.
type InputAssembly struct {
	Topology         gfx.PrimitiveTopology
	PrimitiveRestart bool
}

// NewInputAssembly validates and returns the input assembly state.
func NewInputAssembly(topology gfx.PrimitiveTopology, primitiveRestart bool) (InputAssembly, error) {
	ia := InputAssembly{
		Topology:         topology,
		PrimitiveRestart: primitiveRestart,
	}
	if err := ia.Validate(); err != nil {
		return InputAssembly{}, err
	}
	return ia, nil
}

// Validate checks the topology and primitive restart combination.
func (ia InputAssembly) Validate() error {
	if ia.Topology > gfx.TopologyTriangleFan {
		return invalid("unknown topology %d", ia.Topology)
	}
	if ia.PrimitiveRestart && ia.Topology.List() {
		return invalid("primitive restart is not allowed for list topology %d", ia.Topology)
	}
	return nil
}

// DepthBias offsets the depth of rasterized fragments.
type DepthBias struct {
	Enable         bool
	ConstantFactor float32
	Clamp          float32
	SlopeFactor    float32
}

// Rasterizer is the rasterization state.
type Rasterizer struct {
	DepthClamp  bool
	Discard     bool
	PolygonMode gfx.PolygonMode
	CullMode    gfx.CullMode
	FrontFace   gfx.FrontFace
	DepthBias   DepthBias
	LineWidth   float32
}

// NewRasterizer validates r. Line widths other than 1.0 are accepted only
// when wideLines is true.
func NewRasterizer(r Rasterizer, wideLines bool) (Rasterizer, error) {
	if err := r.Validate(wideLines); err != nil {
		return Rasterizer{}, err
	}
	return r, nil
}

// Validate checks the rasterization parameters.
func (r Rasterizer) Validate(wideLines bool) error {
	if r.PolygonMode > gfx.PolygonModePoint {
		return invalid("unknown polygon mode %d", r.PolygonMode)
	}
	if r.CullMode > gfx.CullModeFrontAndBack {
		return invalid("unknown cull mode %d", r.CullMode)
	}
	if r.FrontFace > gfx.FrontFaceClockwise {
		return invalid("unknown front face %d", r.FrontFace)
	}
	if !(r.LineWidth > 0) {
		return invalid("line width must be positive, got %g", r.LineWidth)
	}
	if !wideLines && !mgl32.FloatEqual(r.LineWidth, 1.0) {
		return invalid("line width %g requires the wide lines feature", r.LineWidth)
	}
	return nil
}

// Multisample is the multisampling state.
type Multisample struct {
	Samples          gfx.SampleCount
	SampleShading    bool
	MinSampleShading float32
}

// NewMultisample validates m against the sample counts a device supports.
func NewMultisample(m Multisample, supported gfx.SampleCountFlags) (Multisample, error) {
	if err := m.Validate(supported); err != nil {
		return Multisample{}, err
	}
	return m, nil
}

// Validate checks the sample count and shading fraction.
func (m Multisample) Validate(supported gfx.SampleCountFlags) error {
	if !m.Samples.Single() {
		return invalid("sample count %#x is not a single count", uint32(m.Samples))
	}
	if !supported.Has(m.Samples) {
		return invalid("sample count %d not supported by the device", uint32(m.Samples))
	}
	if !unit(m.MinSampleShading) {
		return invalid("minimum sample shading %g outside of [0, 1]", m.MinSampleShading)
	}
	return nil
}

// ColorBlend is the blend state of the single color attachment.
type ColorBlend struct {
	Enable    bool
	WriteMask gfx.ColorComponents
}

// DefaultColorBlend writes every channel without blending.
func DefaultColorBlend() ColorBlend {
	return ColorBlend{
		Enable:    false,
		WriteMask: gfx.ColorComponentRGBA,
	}
}
