// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/kiln/gfx"
)

func TestFormatSize(t *testing.T) {
	c := qt.New(t)

	size, ok := gfx.FormatR32G32B32Sfloat.Size()
	c.Assert(ok, qt.IsTrue)
	c.Assert(size, qt.Equals, uint32(12))

	_, ok = gfx.FormatUndefined.Size()
	c.Assert(ok, qt.IsFalse)

	_, ok = gfx.Format(7777).Size()
	c.Assert(ok, qt.IsFalse)
}

func TestParseFormat(t *testing.T) {
	c := qt.New(t)

	f, err := gfx.ParseFormat("vk_format_b8g8r8a8_srgb")
	c.Assert(err, qt.IsNil)
	c.Assert(f, qt.Equals, gfx.FormatB8G8R8A8Srgb)
	c.Assert(f.String(), qt.Equals, "B8G8R8A8_SRGB")

	_, err = gfx.ParseFormat("R5G5B5")
	c.Assert(err, qt.ErrorMatches, `unknown format "R5G5B5"`)
}

func TestParseColorSpace(t *testing.T) {
	c := qt.New(t)

	cs, err := gfx.ParseColorSpace("VK_COLOR_SPACE_SRGB_NONLINEAR_KHR")
	c.Assert(err, qt.IsNil)
	c.Assert(cs, qt.Equals, gfx.ColorSpaceSrgbNonlinear)
}

func TestParsePresentMode(t *testing.T) {
	c := qt.New(t)

	for in, want := range map[string]gfx.PresentMode{
		"mailbox":      gfx.PresentModeMailbox,
		"FIFO":         gfx.PresentModeFifo,
		"fifo-relaxed": gfx.PresentModeFifoRelaxed,
		"fifo_relaxed": gfx.PresentModeFifoRelaxed,
		"immediate":    gfx.PresentModeImmediate,
	} {
		got, err := gfx.ParsePresentMode(in)
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.Equals, want, qt.Commentf("input %q", in))
	}

	_, err := gfx.ParsePresentMode("vsync")
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestSampleCounts(t *testing.T) {
	c := qt.New(t)

	flags := gfx.SampleCountFlags(gfx.SampleCount1 | gfx.SampleCount2 | gfx.SampleCount8)
	c.Assert(flags.Max(), qt.Equals, gfx.SampleCount8)
	c.Assert(flags.Has(gfx.SampleCount2), qt.IsTrue)
	c.Assert(flags.Has(gfx.SampleCount4), qt.IsFalse)
	c.Assert(flags.Has(0), qt.IsFalse)
	c.Assert(gfx.SampleCountFlags(0).Max(), qt.Equals, gfx.SampleCount1)

	c.Assert(gfx.SampleCount4.Single(), qt.IsTrue)
	c.Assert((gfx.SampleCount4 | gfx.SampleCount1).Single(), qt.IsFalse)

	s, err := gfx.SampleCountFromInt(4)
	c.Assert(err, qt.IsNil)
	c.Assert(s, qt.Equals, gfx.SampleCount4)
	_, err = gfx.SampleCountFromInt(3)
	c.Assert(err, qt.ErrorMatches, "invalid sample count 3")
}

func TestAPIError(t *testing.T) {
	c := qt.New(t)

	err := &gfx.APIError{Call: "vkCreateDevice", Code: gfx.ResultErrorFeatureNotPresent}
	c.Assert(err.Error(), qt.Equals, "vkCreateDevice: VK_ERROR_FEATURE_NOT_PRESENT")

	err = &gfx.APIError{Call: "vkCreateDevice", Code: -424242}
	c.Assert(err.Error(), qt.Equals, "vkCreateDevice: VkResult(-424242)")
}

func TestTopology(t *testing.T) {
	c := qt.New(t)

	c.Assert(gfx.TopologyTriangleList.List(), qt.IsTrue)
	c.Assert(gfx.TopologyTriangleStrip.List(), qt.IsFalse)
}
