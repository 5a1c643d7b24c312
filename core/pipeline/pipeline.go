// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package pipeline assembles the fixed-function state of a graphics pipeline.
// Every stage has its own builder that validates its input and returns a plain
// value. Builders never substitute defaults for the values they are given, so
// a Descriptor reads back exactly what it was built from.
package pipeline

import (
	"github.com/cockroachdb/errors"

	"github.com/devblok/kiln/gfx"
)

// ErrInvalidState marks every error returned by the builders in this package.
var ErrInvalidState = errors.New("invalid pipeline state")

// stateError is a builder rejection. It matches ErrInvalidState.
type stateError struct {
	cause error
}

func (e *stateError) Error() string { return e.cause.Error() }

func (e *stateError) Unwrap() error { return e.cause }

func (e *stateError) Is(target error) bool { return target == ErrInvalidState }

func invalid(format string, args ...interface{}) error {
	return &stateError{cause: errors.Newf(format, args...)}
}

// Descriptor is the complete fixed-function configuration of a pipeline.
type Descriptor struct {
	VertexInput   VertexInput
	InputAssembly InputAssembly
	Viewport      ViewportState
	Rasterizer    Rasterizer
	Multisample   Multisample
	ColorBlend    ColorBlend
}

// NewDescriptor composes validated stage fragments into a Descriptor.
func NewDescriptor(
	vertexInput VertexInput,
	inputAssembly InputAssembly,
	viewport ViewportState,
	rasterizer Rasterizer,
	multisample Multisample,
	colorBlend ColorBlend,
) Descriptor {
	return Descriptor{
		VertexInput:   vertexInput,
		InputAssembly: inputAssembly,
		Viewport:      viewport,
		Rasterizer:    rasterizer,
		Multisample:   multisample,
		ColorBlend:    colorBlend,
	}
}

// Capabilities are the device properties a Descriptor is checked against.
type Capabilities struct {
	// WideLines is true when the wide lines feature is enabled on the device.
	WideLines bool
	// LineWidthRange is the supported [min, max] line width. A zero range
	// is not checked.
	LineWidthRange [2]float32
	// SampleRateShading is true when per-sample shading is enabled.
	SampleRateShading bool
	// SampleCounts are the framebuffer sample counts the device supports.
	SampleCounts gfx.SampleCountFlags
}

// Validate checks every stage of d against the device capabilities.
func (d Descriptor) Validate(caps Capabilities) error {
	if err := d.VertexInput.Validate(); err != nil {
		return errors.Wrap(err, "vertex input")
	}
	if err := d.InputAssembly.Validate(); err != nil {
		return errors.Wrap(err, "input assembly")
	}
	if err := d.Viewport.Validate(); err != nil {
		return errors.Wrap(err, "viewport")
	}
	if err := d.Rasterizer.Validate(caps.WideLines); err != nil {
		return errors.Wrap(err, "rasterizer")
	}
	if caps.WideLines && caps.LineWidthRange[1] > 0 {
		if w := d.Rasterizer.LineWidth; w < caps.LineWidthRange[0] || w > caps.LineWidthRange[1] {
			return errors.Wrap(invalid("line width %g outside of supported range [%g, %g]",
				w, caps.LineWidthRange[0], caps.LineWidthRange[1]), "rasterizer")
		}
	}
	if err := d.Multisample.Validate(caps.SampleCounts); err != nil {
		return errors.Wrap(err, "multisample")
	}
	if d.Multisample.SampleShading && !caps.SampleRateShading {
		return errors.Wrap(invalid("sample shading requested but not enabled on the device"), "multisample")
	}
	return nil
}
