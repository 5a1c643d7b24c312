// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pipeline

import "github.com/devblok/kiln/gfx"

// Viewport maps normalized device coordinates to framebuffer coordinates.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// Rect2D is a scissor rectangle.
type Rect2D struct {
	X, Y          int32
	Width, Height uint32
}

// ViewportState pairs every viewport with the scissor at the same index.
type ViewportState struct {
	Viewports []Viewport
	Scissors  []Rect2D
}

// NewViewportState validates and returns the viewport state.
func NewViewportState(viewports []Viewport, scissors []Rect2D) (ViewportState, error) {
	v := ViewportState{}
	if viewports != nil {
		v.Viewports = append(make([]Viewport, 0, len(viewports)), viewports...)
	}
	if scissors != nil {
		v.Scissors = append(make([]Rect2D, 0, len(scissors)), scissors...)
	}
	if err := v.Validate(); err != nil {
		return ViewportState{}, err
	}
	return v, nil
}

// FullViewport covers extent with a single viewport and scissor.
func FullViewport(extent gfx.Extent2D) ViewportState {
	return ViewportState{
		Viewports: []Viewport{{
			Width:    float32(extent.Width),
			Height:   float32(extent.Height),
			MinDepth: 0.0,
			MaxDepth: 1.0,
		}},
		Scissors: []Rect2D{{
			Width:  extent.Width,
			Height: extent.Height,
		}},
	}
}

// Validate checks the viewport and scissor lists.
func (v ViewportState) Validate() error {
	if len(v.Viewports) == 0 {
		return invalid("at least one viewport is required")
	}
	if len(v.Viewports) != len(v.Scissors) {
		return invalid("%d viewports but %d scissors", len(v.Viewports), len(v.Scissors))
	}
	for i, vp := range v.Viewports {
		if !(vp.Width > 0) {
			return invalid("viewport %d has non-positive width %g", i, vp.Width)
		}
		if vp.Height == 0 || vp.Height != vp.Height {
			return invalid("viewport %d has zero height", i)
		}
		if !unit(vp.MinDepth) || !unit(vp.MaxDepth) {
			return invalid("viewport %d depth range [%g, %g] outside of [0, 1]", i, vp.MinDepth, vp.MaxDepth)
		}
	}
	for i, s := range v.Scissors {
		if s.X < 0 || s.Y < 0 {
			return invalid("scissor %d has negative offset (%d, %d)", i, s.X, s.Y)
		}
	}
	return nil
}

// unit reports whether f lies in [0, 1]. NaN does not.
func unit(f float32) bool {
	return f >= 0 && f <= 1
}
