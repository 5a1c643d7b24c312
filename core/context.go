// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/loov/hrtime"
	"github.com/sirupsen/logrus"

	"github.com/devblok/kiln/core/pipeline"
	"github.com/devblok/kiln/gfx"
)

// Context is a complete rendering context. It owns every object it was
// built from and releases them in reverse order on Destroy.
type Context struct {
	// ID identifies the context in logs.
	ID string

	Instance       *Instance
	Surface        *Surface
	PhysicalDevice PhysicalDeviceInfo
	Device         *Device
	Swapchain      *Swapchain
	ImageViews     []*ImageView
	RenderTarget   *RenderTarget
	// Pipeline is nil when the context was bootstrapped without shaders.
	Pipeline *Pipeline

	log   logrus.FieldLogger
	stack *ReleaseStack
}

// Bootstrap builds a rendering context presenting to window. When any step
// fails, everything created before it is released and the error is
// returned. Without shaders the context stops short of the pipeline.
func Bootstrap(driver Driver, window Window, cfg Configuration, shaders []ShaderCode) (*Context, error) {
	id := uuid.New().String()
	log := loggerOrDefault(cfg.Logger).WithField("context", id)
	c := &Context{
		ID:    id,
		log:   log,
		stack: NewReleaseStack(log),
	}

	start := hrtime.Now()
	if err := c.bootstrap(driver, window, cfg, shaders); err != nil {
		log.WithError(err).Error("bootstrap failed, releasing resources")
		c.stack.Unwind()
		return nil, err
	}
	log.WithField("elapsed", hrtime.Since(start)).Info("context ready")
	return c, nil
}

// stage runs one bootstrap step and logs how long it took.
func (c *Context) stage(name string, step func() error) error {
	start := hrtime.Now()
	err := step()
	entry := c.log.WithFields(logrus.Fields{
		"stage":   name,
		"elapsed": hrtime.Since(start),
	})
	if err != nil {
		entry.WithError(err).Debug("stage failed")
		return err
	}
	entry.Debug("stage complete")
	return nil
}

func (c *Context) bootstrap(driver Driver, window Window, cfg Configuration, shaders []ShaderCode) error {
	if window == nil {
		return fail(ErrPlatformSurfaceUnsupported, nil, "bootstrap: no window")
	}

	instanceCfg := cfg.Instance
	instanceCfg.Extensions = appendUnique(appendUnique(nil, window.RequiredExtensions()...), cfg.Instance.Extensions...)
	if err := c.stage("instance", func() (err error) {
		if c.Instance, err = CreateInstance(driver, instanceCfg, c.log); err != nil {
			return err
		}
		c.stack.PushFunc("instance", c.Instance.Destroy)
		return nil
	}); err != nil {
		return err
	}

	if err := c.stage("surface", func() (err error) {
		if c.Surface, err = CreateSurface(c.Instance, window); err != nil {
			return err
		}
		c.stack.PushFunc("surface", c.Surface.Destroy)
		return nil
	}); err != nil {
		return err
	}

	if err := c.stage("physical device", func() (err error) {
		c.PhysicalDevice, err = SelectPhysicalDevice(c.Instance, c.Surface, Requirements{
			Extensions:    cfg.Device.Extensions,
			PreferredName: cfg.Device.PreferredName,
		})
		return err
	}); err != nil {
		return err
	}

	if err := c.stage("device", func() (err error) {
		if c.Device, err = CreateDevice(c.Instance, c.PhysicalDevice, cfg.Device); err != nil {
			return err
		}
		c.stack.PushFunc("device", c.Device.Destroy)
		return nil
	}); err != nil {
		return err
	}

	if err := c.stage("swapchain", func() (err error) {
		size := window.DrawableSize()
		if size.Width == 0 || size.Height == 0 {
			size = gfx.Extent2D{Width: cfg.Window.Width, Height: cfg.Window.Height}
		}
		props := ChooseSwapchainProperties(c.PhysicalDevice.Surface, size, SwapchainPreferences{
			Format:      cfg.Swapchain.PreferredFormat,
			PresentMode: cfg.Swapchain.PreferredPresentMode,
		})
		if c.Swapchain, err = CreateSwapchain(c.Device, c.Surface, props, cfg.Swapchain.DesiredImageCount); err != nil {
			return err
		}
		c.stack.PushFunc("swapchain", c.Swapchain.Destroy)
		return nil
	}); err != nil {
		return err
	}

	if err := c.stage("image views", func() (err error) {
		format := c.Swapchain.Properties().Format.Format
		if c.ImageViews, err = CreateImageViews(c.Device, c.Swapchain.Images, format); err != nil {
			return err
		}
		views := c.ImageViews
		c.stack.PushFunc("image views", func() { DestroyImageViews(views) })
		return nil
	}); err != nil {
		return err
	}

	var descriptor pipeline.Descriptor
	if err := c.stage("pipeline state", func() (err error) {
		descriptor, err = c.describePipeline(cfg.Pipeline)
		return err
	}); err != nil {
		return err
	}

	if err := c.stage("render target", func() (err error) {
		format := c.Swapchain.Properties().Format.Format
		if c.RenderTarget, err = CreateRenderTarget(c.Device, format, descriptor.Multisample.Samples); err != nil {
			return err
		}
		c.stack.PushFunc("render target", c.RenderTarget.Destroy)
		return nil
	}); err != nil {
		return err
	}

	if len(shaders) == 0 {
		c.log.Info("no shaders, context stops before the pipeline")
		return nil
	}

	return c.stage("pipeline", func() error {
		modules := NewReleaseStack(c.log)
		defer modules.Unwind()

		stages := make([]*ShaderModule, 0, len(shaders))
		for _, s := range shaders {
			m, err := LoadShaderModule(c.Device, s.Code, s.Stage)
			if err != nil {
				return errors.Wrapf(err, "shader %s", s.Name)
			}
			modules.PushFunc("shader "+s.Name+"."+s.Stage.String(), m.Destroy)
			stages = append(stages, m)
		}

		p, err := BuildPipeline(c.Device, descriptor, stages, c.RenderTarget)
		if err != nil {
			return err
		}
		c.Pipeline = p
		c.stack.PushFunc("pipeline", p.Destroy)
		return nil
	})
}

// describePipeline builds the fixed-function state for the swapchain.
func (c *Context) describePipeline(cfg PipelineConfiguration) (pipeline.Descriptor, error) {
	caps := c.Device.Capabilities()

	vertexInput, err := pipeline.NewVertexInput(cfg.VertexInput.Bindings, cfg.VertexInput.Attributes)
	if err != nil {
		return pipeline.Descriptor{}, fail(ErrPipelineCreationFailed, err, "vertex input")
	}
	inputAssembly, err := pipeline.NewInputAssembly(cfg.Topology, false)
	if err != nil {
		return pipeline.Descriptor{}, fail(ErrPipelineCreationFailed, err, "input assembly")
	}
	rasterizer, err := pipeline.NewRasterizer(pipeline.Rasterizer{
		PolygonMode: cfg.PolygonMode,
		CullMode:    cfg.CullMode,
		FrontFace:   cfg.FrontFace,
		LineWidth:   cfg.LineWidth,
	}, caps.WideLines)
	if err != nil {
		return pipeline.Descriptor{}, fail(ErrPipelineCreationFailed, err, "rasterizer")
	}
	multisample, err := pipeline.NewMultisample(pipeline.Multisample{
		Samples:          cfg.Samples,
		SampleShading:    caps.SampleRateShading && cfg.MinSampleShading > 0,
		MinSampleShading: cfg.MinSampleShading,
	}, caps.SampleCounts)
	if err != nil {
		return pipeline.Descriptor{}, fail(ErrPipelineCreationFailed, err, "multisample")
	}

	return pipeline.NewDescriptor(
		vertexInput,
		inputAssembly,
		pipeline.FullViewport(c.Swapchain.Properties().Extent),
		rasterizer,
		multisample,
		pipeline.DefaultColorBlend(),
	), nil
}

// Owned lists the resources owned by the context in creation order.
func (c *Context) Owned() []string {
	return c.stack.Names()
}

// Destroy waits for the device to go idle and releases every resource of
// the context in reverse order.
func (c *Context) Destroy() {
	if c == nil {
		return
	}
	if err := c.Device.WaitIdle(); err != nil {
		c.log.WithError(err).Warn("device did not go idle")
	}
	c.stack.Unwind()
	c.log.Info("context destroyed")
}
