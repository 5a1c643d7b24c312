// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pipeline

import "github.com/devblok/kiln/gfx"

// VertexBinding describes one vertex buffer binding.
type VertexBinding struct {
	Binding   uint32
	Stride    uint32
	InputRate gfx.VertexInputRate
}

// VertexAttribute describes one attribute read from a binding.
type VertexAttribute struct {
	Location uint32
	Binding  uint32
	Format   gfx.Format
	Offset   uint32
}

// VertexInput is the vertex input state. The zero value describes a pipeline
// that generates its vertices in the shader.
type VertexInput struct {
	Bindings   []VertexBinding
	Attributes []VertexAttribute
}

// NewVertexInput validates and returns the vertex input state.
func NewVertexInput(bindings []VertexBinding, attributes []VertexAttribute) (VertexInput, error) {
	v := VertexInput{
		Bindings:   copyBindings(bindings),
		Attributes: copyAttributes(attributes),
	}
	if err := v.Validate(); err != nil {
		return VertexInput{}, err
	}
	return v, nil
}

// Validate checks that every attribute fits within the stride of its binding.
func (v VertexInput) Validate() error {
	strides := make(map[uint32]uint32, len(v.Bindings))
	for _, b := range v.Bindings {
		if _, ok := strides[b.Binding]; ok {
			return invalid("binding %d declared more than once", b.Binding)
		}
		if b.InputRate != gfx.InputRateVertex && b.InputRate != gfx.InputRateInstance {
			return invalid("binding %d has unknown input rate %d", b.Binding, b.InputRate)
		}
		strides[b.Binding] = b.Stride
	}

	locations := make(map[uint32]struct{}, len(v.Attributes))
	for _, a := range v.Attributes {
		if _, ok := locations[a.Location]; ok {
			return invalid("location %d assigned more than once", a.Location)
		}
		locations[a.Location] = struct{}{}

		stride, ok := strides[a.Binding]
		if !ok {
			return invalid("attribute at location %d references undeclared binding %d", a.Location, a.Binding)
		}
		size, ok := a.Format.Size()
		if !ok {
			return invalid("attribute at location %d has unsupported format %s", a.Location, a.Format)
		}
		if uint64(a.Offset)+uint64(size) > uint64(stride) {
			return invalid("attribute at location %d (offset %d, %s) exceeds stride %d of binding %d",
				a.Location, a.Offset, a.Format, stride, a.Binding)
		}
	}
	return nil
}

func copyBindings(s []VertexBinding) []VertexBinding {
	if s == nil {
		return nil
	}
	return append(make([]VertexBinding, 0, len(s)), s...)
}

func copyAttributes(s []VertexAttribute) []VertexAttribute {
	if s == nil {
		return nil
	}
	return append(make([]VertexAttribute, 0, len(s)), s...)
}
