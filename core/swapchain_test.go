// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/kiln/core"
	"github.com/devblok/kiln/core/drivertest"
	"github.com/devblok/kiln/gfx"
)

var (
	srgb  = gfx.SurfaceFormat{Format: gfx.FormatB8G8R8A8Srgb, ColorSpace: gfx.ColorSpaceSrgbNonlinear}
	unorm = gfx.SurfaceFormat{Format: gfx.FormatB8G8R8A8Unorm, ColorSpace: gfx.ColorSpaceSrgbNonlinear}
)

var defaultPreferences = core.SwapchainPreferences{
	Format:      srgb,
	PresentMode: gfx.PresentModeMailbox,
}

func TestChooseSwapchainPropertiesIsDeterministic(t *testing.T) {
	c := qt.New(t)

	support := drivertest.GoodDevice("any", gfx.DeviceTypeDiscreteGPU).Support
	window := gfx.Extent2D{Width: 1024, Height: 768}
	first := core.ChooseSwapchainProperties(support, window, defaultPreferences)
	for i := 0; i < 10; i++ {
		c.Assert(core.ChooseSwapchainProperties(support, window, defaultPreferences), qt.DeepEquals, first)
	}
	c.Assert(first, qt.DeepEquals, core.SwapchainProperties{
		Format:         srgb,
		PresentMode:    gfx.PresentModeMailbox,
		Extent:         window,
		MinImageCount:  2,
		MaxImageCount:  8,
		PreTransform:   gfx.SurfaceTransformIdentity,
		CompositeAlpha: gfx.CompositeAlphaOpaque,
	})
}

func TestChooseSwapchainExtent(t *testing.T) {
	c := qt.New(t)

	undefined := gfx.Extent2D{Width: gfx.UndefinedExtent, Height: gfx.UndefinedExtent}
	tests := []struct {
		about   string
		current gfx.Extent2D
		window  gfx.Extent2D
		want    gfx.Extent2D
	}{{
		about:   "window size when the surface leaves it open",
		current: undefined,
		window:  gfx.Extent2D{Width: 800, Height: 600},
		want:    gfx.Extent2D{Width: 800, Height: 600},
	}, {
		about:   "clamped to the maximum",
		current: undefined,
		window:  gfx.Extent2D{Width: 5000, Height: 5000},
		want:    gfx.Extent2D{Width: 4096, Height: 4096},
	}, {
		about:   "clamped to the minimum",
		current: undefined,
		window:  gfx.Extent2D{Width: 0, Height: 300},
		want:    gfx.Extent2D{Width: 1, Height: 300},
	}, {
		about:   "current extent wins over the window",
		current: gfx.Extent2D{Width: 1920, Height: 1080},
		window:  gfx.Extent2D{Width: 800, Height: 600},
		want:    gfx.Extent2D{Width: 1920, Height: 1080},
	}}
	for _, test := range tests {
		c.Run(test.about, func(c *qt.C) {
			support := drivertest.GoodDevice("any", gfx.DeviceTypeDiscreteGPU).Support
			support.Capabilities.CurrentExtent = test.current
			props := core.ChooseSwapchainProperties(support, test.window, defaultPreferences)
			c.Assert(props.Extent, qt.Equals, test.want)
		})
	}
}

func TestChooseSurfaceFormat(t *testing.T) {
	c := qt.New(t)

	rgba := gfx.SurfaceFormat{Format: gfx.FormatR8G8B8A8Unorm, ColorSpace: gfx.ColorSpaceSrgbNonlinear}
	tests := []struct {
		about   string
		formats []gfx.SurfaceFormat
		want    gfx.SurfaceFormat
	}{{
		about:   "preferred available",
		formats: []gfx.SurfaceFormat{unorm, srgb},
		want:    srgb,
	}, {
		about:   "first when preferred missing",
		formats: []gfx.SurfaceFormat{rgba, unorm},
		want:    rgba,
	}, {
		about:   "color space must match too",
		formats: []gfx.SurfaceFormat{unorm, {Format: gfx.FormatB8G8R8A8Srgb, ColorSpace: gfx.ColorSpaceHdr10St2084}},
		want:    unorm,
	}, {
		about:   "anything goes",
		formats: []gfx.SurfaceFormat{{Format: gfx.FormatUndefined}},
		want:    srgb,
	}}
	for _, test := range tests {
		c.Run(test.about, func(c *qt.C) {
			support := core.SwapchainSupport{
				Formats:      test.formats,
				PresentModes: []gfx.PresentMode{gfx.PresentModeFifo},
			}
			props := core.ChooseSwapchainProperties(support, gfx.Extent2D{}, defaultPreferences)
			c.Assert(props.Format, qt.Equals, test.want)
		})
	}
}

func TestChoosePresentMode(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		about     string
		preferred gfx.PresentMode
		modes     []gfx.PresentMode
		want      gfx.PresentMode
	}{{
		about:     "preferred",
		preferred: gfx.PresentModeImmediate,
		modes:     []gfx.PresentMode{gfx.PresentModeFifo, gfx.PresentModeImmediate},
		want:      gfx.PresentModeImmediate,
	}, {
		about:     "mailbox first",
		preferred: gfx.PresentModeImmediate,
		modes:     []gfx.PresentMode{gfx.PresentModeFifo, gfx.PresentModeFifoRelaxed, gfx.PresentModeMailbox},
		want:      gfx.PresentModeMailbox,
	}, {
		about:     "relaxed before fifo",
		preferred: gfx.PresentModeMailbox,
		modes:     []gfx.PresentMode{gfx.PresentModeFifo, gfx.PresentModeFifoRelaxed},
		want:      gfx.PresentModeFifoRelaxed,
	}, {
		about:     "fifo when nothing else",
		preferred: gfx.PresentModeMailbox,
		modes:     []gfx.PresentMode{gfx.PresentModeImmediate},
		want:      gfx.PresentModeFifo,
	}}
	for _, test := range tests {
		c.Run(test.about, func(c *qt.C) {
			support := core.SwapchainSupport{
				Formats:      []gfx.SurfaceFormat{srgb},
				PresentModes: test.modes,
			}
			props := core.ChooseSwapchainProperties(support, gfx.Extent2D{}, core.SwapchainPreferences{
				Format:      srgb,
				PresentMode: test.preferred,
			})
			c.Assert(props.PresentMode, qt.Equals, test.want)
		})
	}
}

func TestChooseTransformAndAlpha(t *testing.T) {
	c := qt.New(t)

	support := drivertest.GoodDevice("any", gfx.DeviceTypeDiscreteGPU).Support
	support.Capabilities.SupportedTransforms = 0x2
	support.Capabilities.CurrentTransform = 0x2
	support.Capabilities.SupportedCompositeAlpha = gfx.CompositeAlphaInherit | gfx.CompositeAlphaPostMultiplied
	props := core.ChooseSwapchainProperties(support, gfx.Extent2D{Width: 1, Height: 1}, defaultPreferences)
	c.Assert(props.PreTransform, qt.Equals, gfx.SurfaceTransform(0x2))
	c.Assert(props.CompositeAlpha, qt.Equals, gfx.CompositeAlphaPostMultiplied)
}

func TestChooseImageCount(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		min, max, hint uint32
		want           uint32
	}{
		{min: 2, max: 3, hint: 1, want: 3},
		{min: 2, max: 0, hint: 5, want: 5},
		{min: 2, max: 8, hint: 3, want: 3},
		{min: 2, max: 2, hint: 4, want: 2},
		{min: 1, max: 0, hint: 0, want: 2},
	}
	for _, test := range tests {
		c.Check(core.ChooseImageCount(test.min, test.max, test.hint), qt.Equals, test.want,
			qt.Commentf("min %d max %d hint %d", test.min, test.max, test.hint))
	}
}

func createSwapchain(c *qt.C, d *drivertest.Driver, hint uint32) (*core.Device, *core.Swapchain) {
	surface, device := newDevice(c, d)
	support := device.PhysicalDevice().Surface
	props := core.ChooseSwapchainProperties(support, gfx.Extent2D{Width: 640, Height: 480}, defaultPreferences)
	swapchain, err := core.CreateSwapchain(device, surface, props, hint)
	c.Assert(err, qt.IsNil)
	c.Cleanup(swapchain.Destroy)
	return device, swapchain
}

func TestCreateSwapchain(t *testing.T) {
	c := qt.New(t)

	d := drivertest.New()
	_, swapchain := createSwapchain(c, d, 3)
	c.Assert(swapchain.Handle().Valid(), qt.IsTrue)
	c.Assert(swapchain.Images, qt.HasLen, 3)
	c.Assert(d.Swapchain.MinImageCount, qt.Equals, uint32(3))
	c.Assert(d.Swapchain.Extent, qt.Equals, gfx.Extent2D{Width: 640, Height: 480})
	c.Assert(d.Swapchain.Format, qt.Equals, srgb)
	c.Assert(d.Swapchain.PresentMode, qt.Equals, gfx.PresentModeMailbox)
	c.Assert(d.Swapchain.QueueFamilies, qt.IsNil)
	c.Assert(swapchain.Properties().Extent, qt.Equals, gfx.Extent2D{Width: 640, Height: 480})

	swapchain.Destroy()
	c.Assert(d.Live(drivertest.KindSwapchain), qt.Equals, 0)
	c.Assert(d.Live(drivertest.KindImage), qt.Equals, 0)
	c.Assert(swapchain.Images, qt.IsNil)
	swapchain.Destroy()
	c.Assert(d.Violations, qt.IsNil)
}

func TestCreateSwapchainSplitFamilies(t *testing.T) {
	c := qt.New(t)

	dev := drivertest.GoodDevice("Split", gfx.DeviceTypeDiscreteGPU)
	dev.QueueFamilies = []core.QueueFamily{
		{Index: 0, Flags: gfx.QueueGraphics, Count: 1},
		{Index: 1, Flags: gfx.QueueTransfer, Count: 1, Present: true},
	}
	d := drivertest.New()
	d.Devices = []drivertest.Device{dev}
	createSwapchain(c, d, 0)
	c.Assert(d.Swapchain.QueueFamilies, qt.DeepEquals, []uint32{0, 1})
	c.Assert(d.Swapchain.MinImageCount, qt.Equals, uint32(3))
}

func TestCreateSwapchainFailures(t *testing.T) {
	c := qt.New(t)

	for _, method := range []string{"CreateSwapchain", "SwapchainImages"} {
		c.Run(method, func(c *qt.C) {
			d := drivertest.New()
			surface, device := newDevice(c, d)
			d.Fail(method, 0, nil)
			props := core.ChooseSwapchainProperties(device.PhysicalDevice().Surface, gfx.Extent2D{Width: 1, Height: 1}, defaultPreferences)
			swapchain, err := core.CreateSwapchain(device, surface, props, 2)
			c.Assert(swapchain, qt.IsNil)
			c.Assert(err, qt.ErrorIs, core.ErrSwapchainCreationFailed)
			c.Assert(d.Live(drivertest.KindSwapchain), qt.Equals, 0)
			c.Assert(d.Violations, qt.IsNil)
		})
	}
}

func TestCreateImageViews(t *testing.T) {
	c := qt.New(t)

	d := drivertest.New()
	device, swapchain := createSwapchain(c, d, 4)
	views, err := core.CreateImageViews(device, swapchain.Images, gfx.FormatB8G8R8A8Srgb)
	c.Assert(err, qt.IsNil)
	c.Assert(views, qt.HasLen, 4)
	for i, v := range views {
		c.Assert(v.Image(), qt.Equals, swapchain.Images[i])
		c.Assert(v.Handle().Valid(), qt.IsTrue)
	}
	c.Assert(d.Live(drivertest.KindImageView), qt.Equals, 4)

	core.DestroyImageViews(views)
	created := d.Created(drivertest.KindImageView)
	destroyed := d.Destroyed(drivertest.KindImageView)
	c.Assert(destroyed, qt.DeepEquals, []gfx.Handle{created[3], created[2], created[1], created[0]})
	core.DestroyImageViews(views)
	c.Assert(d.Violations, qt.IsNil)
}

func TestCreateImageViewsPartialFailure(t *testing.T) {
	c := qt.New(t)

	d := drivertest.New()
	device, swapchain := createSwapchain(c, d, 5)
	c.Assert(swapchain.Images, qt.HasLen, 5)

	d.Fail("CreateImageView", 3, nil)
	views, err := core.CreateImageViews(device, swapchain.Images, gfx.FormatB8G8R8A8Srgb)
	c.Assert(views, qt.IsNil)
	c.Assert(err, qt.ErrorIs, core.ErrImageViewCreationFailed)
	c.Assert(err, qt.ErrorMatches, "create image view 3 of 5: .*")
	c.Assert(d.Calls("CreateImageView"), qt.Equals, 3)
	c.Assert(d.Created(drivertest.KindImageView), qt.HasLen, 2)
	c.Assert(d.Destroyed(drivertest.KindImageView), qt.HasLen, 2)
	c.Assert(d.Live(drivertest.KindImageView), qt.Equals, 0)
	c.Assert(d.Violations, qt.IsNil)
}
