// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/kiln/core"
	"github.com/devblok/kiln/core/pipeline"
	"github.com/devblok/kiln/gfx"
)

// renderPassInfo describes a single subpass writing one color attachment.
// A multisampled attachment is resolved into a presentable one.
func renderPassInfo(info core.RenderPassCreateInfo) vk.RenderPassCreateInfo {
	samples := info.Samples
	if samples == 0 {
		samples = gfx.SampleCount1
	}
	color := vk.AttachmentDescription{
		Format:         vk.Format(info.Format),
		Samples:        vk.SampleCountFlagBits(samples),
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{{
			Attachment: 0,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}},
	}
	attachments := []vk.AttachmentDescription{color}

	if samples != gfx.SampleCount1 {
		attachments[0].StoreOp = vk.AttachmentStoreOpDontCare
		attachments[0].FinalLayout = vk.ImageLayoutColorAttachmentOptimal
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         vk.Format(info.Format),
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpDontCare,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutPresentSrc,
		})
		subpass.PResolveAttachments = []vk.AttachmentReference{{
			Attachment: 1,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}}
	}

	return vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies: []vk.SubpassDependency{{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		}},
	}
}

// CreateRenderPass implements core.Driver.
func (v *Vulkan) CreateRenderPass(device gfx.Handle, info core.RenderPassCreateInfo) (gfx.Handle, error) {
	dev, ok := lookup[vk.Device](v.handles, device)
	if !ok {
		return gfx.NullHandle, unknown("device", device)
	}
	ci := renderPassInfo(info)
	var renderPass vk.RenderPass
	if err := check("vkCreateRenderPass", vk.CreateRenderPass(dev, &ci, nil, &renderPass)); err != nil {
		return gfx.NullHandle, err
	}
	return v.handles.put(renderPass), nil
}

// DestroyRenderPass implements core.Driver.
func (v *Vulkan) DestroyRenderPass(device, renderPass gfx.Handle) {
	dev, dok := lookup[vk.Device](v.handles, device)
	rp, ok := lookup[vk.RenderPass](v.handles, renderPass)
	if !dok || !ok {
		v.stale("render pass", renderPass)
		return
	}
	v.handles.remove(renderPass)
	vk.DestroyRenderPass(dev, rp, nil)
}

func vertexInputState(in pipeline.VertexInput) vk.PipelineVertexInputStateCreateInfo {
	bindings := make([]vk.VertexInputBindingDescription, 0, len(in.Bindings))
	for _, b := range in.Bindings {
		bindings = append(bindings, vk.VertexInputBindingDescription{
			Binding:   b.Binding,
			Stride:    b.Stride,
			InputRate: vk.VertexInputRate(b.InputRate),
		})
	}
	attributes := make([]vk.VertexInputAttributeDescription, 0, len(in.Attributes))
	for _, a := range in.Attributes {
		attributes = append(attributes, vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  a.Binding,
			Format:   vk.Format(a.Format),
			Offset:   a.Offset,
		})
	}
	return vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(bindings)),
		PVertexBindingDescriptions:      bindings,
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}
}

func viewportState(vs pipeline.ViewportState) vk.PipelineViewportStateCreateInfo {
	viewports := make([]vk.Viewport, 0, len(vs.Viewports))
	for _, vp := range vs.Viewports {
		viewports = append(viewports, vk.Viewport{
			X:        vp.X,
			Y:        vp.Y,
			Width:    vp.Width,
			Height:   vp.Height,
			MinDepth: vp.MinDepth,
			MaxDepth: vp.MaxDepth,
		})
	}
	scissors := make([]vk.Rect2D, 0, len(vs.Scissors))
	for _, s := range vs.Scissors {
		scissors = append(scissors, vk.Rect2D{
			Offset: vk.Offset2D{X: s.X, Y: s.Y},
			Extent: vk.Extent2D{Width: s.Width, Height: s.Height},
		})
	}
	return vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: uint32(len(viewports)),
		PViewports:    viewports,
		ScissorCount:  uint32(len(scissors)),
		PScissors:     scissors,
	}
}

func rasterizationState(r pipeline.Rasterizer) vk.PipelineRasterizationStateCreateInfo {
	return vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        bool32(r.DepthClamp),
		RasterizerDiscardEnable: bool32(r.Discard),
		PolygonMode:             vk.PolygonMode(r.PolygonMode),
		CullMode:                vk.CullModeFlags(r.CullMode),
		FrontFace:               vk.FrontFace(r.FrontFace),
		DepthBiasEnable:         bool32(r.DepthBias.Enable),
		DepthBiasConstantFactor: r.DepthBias.ConstantFactor,
		DepthBiasClamp:          r.DepthBias.Clamp,
		DepthBiasSlopeFactor:    r.DepthBias.SlopeFactor,
		LineWidth:               r.LineWidth,
	}
}

func multisampleState(m pipeline.Multisample) vk.PipelineMultisampleStateCreateInfo {
	return vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples:  vk.SampleCountFlagBits(m.Samples),
		SampleShadingEnable:   bool32(m.SampleShading),
		MinSampleShading:      m.MinSampleShading,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}
}

func colorBlendState(cb pipeline.ColorBlend) vk.PipelineColorBlendStateCreateInfo {
	return vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments: []vk.PipelineColorBlendAttachmentState{{
			BlendEnable:         bool32(cb.Enable),
			ColorWriteMask:      vk.ColorComponentFlags(cb.WriteMask),
			SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
			DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
			ColorBlendOp:        vk.BlendOpAdd,
			SrcAlphaBlendFactor: vk.BlendFactorOne,
			DstAlphaBlendFactor: vk.BlendFactorZero,
			AlphaBlendOp:        vk.BlendOpAdd,
		}},
	}
}

// CreateGraphicsPipeline implements core.Driver.
func (v *Vulkan) CreateGraphicsPipeline(device gfx.Handle, info core.GraphicsPipelineCreateInfo) (gfx.Handle, error) {
	dev, ok := lookup[vk.Device](v.handles, device)
	if !ok {
		return gfx.NullHandle, unknown("device", device)
	}
	layout, ok := lookup[vk.PipelineLayout](v.handles, info.Layout)
	if !ok {
		return gfx.NullHandle, unknown("pipeline layout", info.Layout)
	}
	renderPass, ok := lookup[vk.RenderPass](v.handles, info.RenderPass)
	if !ok {
		return gfx.NullHandle, unknown("render pass", info.RenderPass)
	}

	stages := make([]vk.PipelineShaderStageCreateInfo, 0, len(info.Stages))
	for _, s := range info.Stages {
		module, ok := lookup[vk.ShaderModule](v.handles, s.Module)
		if !ok {
			return gfx.NullHandle, unknown("shader module", s.Module)
		}
		stages = append(stages, vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFlagBits(s.Stage),
			Module: module,
			PName:  cstr(s.Entry),
		})
	}

	d := info.Descriptor
	vertexInput := vertexInputState(d.VertexInput)
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopology(d.InputAssembly.Topology),
		PrimitiveRestartEnable: bool32(d.InputAssembly.PrimitiveRestart),
	}
	viewport := viewportState(d.Viewport)
	rasterizer := rasterizationState(d.Rasterizer)
	multisample := multisampleState(d.Multisample)
	colorBlend := colorBlendState(d.ColorBlend)

	ci := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewport,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisample,
		PColorBlendState:    &colorBlend,
		Layout:              layout,
		RenderPass:          renderPass,
		Subpass:             info.Subpass,
		BasePipelineHandle:  vk.Pipeline(vk.NullHandle),
		BasePipelineIndex:   -1,
	}
	pipelines := make([]vk.Pipeline, 1)
	if err := check("vkCreateGraphicsPipelines", vk.CreateGraphicsPipelines(
		dev, vk.PipelineCache(vk.NullHandle), 1, []vk.GraphicsPipelineCreateInfo{ci}, nil, pipelines)); err != nil {
		return gfx.NullHandle, err
	}
	return v.handles.put(pipelines[0]), nil
}

// DestroyPipeline implements core.Driver.
func (v *Vulkan) DestroyPipeline(device, handle gfx.Handle) {
	dev, dok := lookup[vk.Device](v.handles, device)
	p, ok := lookup[vk.Pipeline](v.handles, handle)
	if !dok || !ok {
		v.stale("pipeline", handle)
		return
	}
	v.handles.remove(handle)
	vk.DestroyPipeline(dev, p, nil)
}
