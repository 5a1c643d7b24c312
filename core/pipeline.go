// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/devblok/kiln/core/pipeline"
	"github.com/devblok/kiln/gfx"
)

// ShaderEntryPoint is the function every shader stage starts in.
const ShaderEntryPoint = "main"

// RenderTarget is the render pass and pipeline layout a pipeline is built
// against.
type RenderTarget struct {
	device *Device

	RenderPass gfx.Handle
	Layout     gfx.Handle
	Format     gfx.Format
	Samples    gfx.SampleCount
}

// CreateRenderTarget creates a single subpass render pass drawing into
// images of format, and an empty pipeline layout.
func CreateRenderTarget(device *Device, format gfx.Format, samples gfx.SampleCount) (*RenderTarget, error) {
	driver := device.driver()
	renderPass, err := driver.CreateRenderPass(device.handle, RenderPassCreateInfo{
		Format:  format,
		Samples: samples,
	})
	if err != nil {
		return nil, fail(ErrPipelineCreationFailed, err, "create render pass")
	}
	layout, err := driver.CreatePipelineLayout(device.handle)
	if err != nil {
		driver.DestroyRenderPass(device.handle, renderPass)
		return nil, fail(ErrPipelineCreationFailed, err, "create pipeline layout")
	}
	return &RenderTarget{
		device:     device,
		RenderPass: renderPass,
		Layout:     layout,
		Format:     format,
		Samples:    samples,
	}, nil
}

// Destroy destroys the pipeline layout and the render pass.
func (t *RenderTarget) Destroy() {
	if t == nil {
		return
	}
	driver := t.device.driver()
	if t.Layout.Valid() {
		driver.DestroyPipelineLayout(t.device.handle, t.Layout)
		t.Layout = gfx.NullHandle
	}
	if t.RenderPass.Valid() {
		driver.DestroyRenderPass(t.device.handle, t.RenderPass)
		t.RenderPass = gfx.NullHandle
	}
}

// Pipeline is a graphics pipeline ready to record draw commands with.
type Pipeline struct {
	device *Device
	handle gfx.Handle

	Descriptor pipeline.Descriptor
}

// BuildPipeline creates a graphics pipeline from the fixed-function state
// in descriptor and the given shader stages. The shader modules may be
// destroyed once it returns.
func BuildPipeline(device *Device, descriptor pipeline.Descriptor, stages []*ShaderModule, target *RenderTarget) (*Pipeline, error) {
	if target == nil {
		return nil, fail(ErrPipelineCreationFailed, nil, "build pipeline: no render target")
	}
	if err := descriptor.Validate(device.Capabilities()); err != nil {
		return nil, fail(ErrPipelineCreationFailed, err, "build pipeline")
	}
	if descriptor.Multisample.Samples != target.Samples {
		return nil, fail(ErrPipelineCreationFailed, nil, "build pipeline: %d samples do not match the render target's %d",
			descriptor.Multisample.Samples, target.Samples)
	}

	infos := make([]ShaderStageInfo, 0, len(stages))
	seen := make(map[gfx.ShaderStage]bool, len(stages))
	for _, s := range stages {
		if s == nil || !s.handle.Valid() {
			return nil, fail(ErrPipelineCreationFailed, nil, "build pipeline: destroyed shader module")
		}
		if seen[s.Stage] {
			return nil, fail(ErrPipelineCreationFailed, nil, "build pipeline: more than one %s stage", s.Stage)
		}
		seen[s.Stage] = true
		infos = append(infos, ShaderStageInfo{
			Module: s.handle,
			Stage:  s.Stage,
			Entry:  ShaderEntryPoint,
		})
	}
	if !seen[gfx.ShaderStageVertex] {
		return nil, fail(ErrPipelineCreationFailed, nil, "build pipeline: no vertex stage")
	}

	handle, err := device.driver().CreateGraphicsPipeline(device.handle, GraphicsPipelineCreateInfo{
		Descriptor: descriptor,
		Stages:     infos,
		Layout:     target.Layout,
		RenderPass: target.RenderPass,
	})
	if err != nil {
		return nil, fail(ErrPipelineCreationFailed, err, "build pipeline")
	}
	device.log().WithField("stages", len(infos)).Info("pipeline created")
	return &Pipeline{
		device:     device,
		handle:     handle,
		Descriptor: descriptor,
	}, nil
}

// Handle returns the driver handle of the pipeline.
func (p *Pipeline) Handle() gfx.Handle {
	return p.handle
}

// Destroy destroys the pipeline.
func (p *Pipeline) Destroy() {
	if p == nil || !p.handle.Valid() {
		return
	}
	p.device.driver().DestroyPipeline(p.device.handle, p.handle)
	p.handle = gfx.NullHandle
}
