// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus"

	"github.com/devblok/kiln/core"
	"github.com/devblok/kiln/gfx"
)

func TestReadConfigurationDefaults(t *testing.T) {
	c := qt.New(t)

	cfg, err := core.ReadConfiguration(strings.NewReader(""))
	c.Assert(err, qt.IsNil)

	want := core.DefaultConfiguration()
	c.Assert(cfg.Instance.Validation, qt.Equals, core.ValidationOptional)
	c.Assert(cfg.Swapchain, qt.DeepEquals, want.Swapchain)
	c.Assert(cfg.Device.Extensions, qt.DeepEquals, []string{core.SwapchainExtension})
	c.Assert(cfg.Pipeline.Samples, qt.Equals, gfx.SampleCount1)
	c.Assert(cfg.LogLevel, qt.Equals, logrus.InfoLevel)
}

func TestReadConfiguration(t *testing.T) {
	c := qt.New(t)

	cfg, err := core.ReadConfiguration(strings.NewReader(`
# comment
KILN_APP_NAME=demo
KILN_VALIDATION=required
KILN_EXTENSIONS=VK_EXT_a, VK_EXT_b
KILN_DEVICE=radeon
KILN_SURFACE_FORMAT=R8G8B8A8_UNORM
KILN_PRESENT_MODE=fifo_relaxed
KILN_IMAGE_COUNT=4
KILN_WIDTH=1920
KILN_HEIGHT=1080
KILN_SAMPLES=4
KILN_WIDE_LINES=true
KILN_LINE_WIDTH=2.5
KILN_SAMPLE_SHADING=1
KILN_SHADERS=shaders.kar
KILN_LOG_LEVEL=debug
`))
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Instance.ApplicationName, qt.Equals, "demo")
	c.Assert(cfg.Window.Title, qt.Equals, "demo")
	c.Assert(cfg.Instance.Validation, qt.Equals, core.ValidationRequired)
	c.Assert(cfg.Instance.Extensions, qt.DeepEquals, []string{"VK_EXT_a", "VK_EXT_b"})
	c.Assert(cfg.Device.PreferredName, qt.Equals, "radeon")
	c.Assert(cfg.Swapchain.PreferredFormat, qt.Equals, gfx.SurfaceFormat{
		Format:     gfx.FormatR8G8B8A8Unorm,
		ColorSpace: gfx.ColorSpaceSrgbNonlinear,
	})
	c.Assert(cfg.Swapchain.PreferredPresentMode, qt.Equals, gfx.PresentModeFifoRelaxed)
	c.Assert(cfg.Swapchain.DesiredImageCount, qt.Equals, uint32(4))
	c.Assert(cfg.Window.Width, qt.Equals, uint32(1920))
	c.Assert(cfg.Window.Height, qt.Equals, uint32(1080))
	c.Assert(cfg.Pipeline.Samples, qt.Equals, gfx.SampleCount4)
	c.Assert(cfg.Device.WideLines, qt.IsTrue)
	c.Assert(cfg.Pipeline.LineWidth, qt.Equals, float32(2.5))
	c.Assert(cfg.Device.SampleShading, qt.IsTrue)
	c.Assert(cfg.Pipeline.MinSampleShading, qt.Equals, float32(1))
	c.Assert(cfg.Shaders, qt.Equals, "shaders.kar")
	c.Assert(cfg.LogLevel, qt.Equals, logrus.DebugLevel)
}

func TestReadConfigurationErrors(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		env string
		err string
	}{
		{"KILN_VALIDATION=maybe", `configuration key KILN_VALIDATION: unknown validation mode "maybe"`},
		{"KILN_PRESENT_MODE=vsync", `configuration key KILN_PRESENT_MODE: unknown present mode "vsync"`},
		{"KILN_SAMPLES=3", `configuration key KILN_SAMPLES: invalid sample count 3`},
		{"KILN_IMAGE_COUNT=-1", `configuration key KILN_IMAGE_COUNT: .*`},
		{"KILN_LOG_LEVEL=loud", `configuration key KILN_LOG_LEVEL: .*`},
	}
	for _, test := range tests {
		_, err := core.ReadConfiguration(strings.NewReader(test.env))
		c.Assert(err, qt.ErrorMatches, test.err, qt.Commentf("env %s", test.env))
	}
}

func TestParseConfigurationLookup(t *testing.T) {
	c := qt.New(t)

	env := map[string]string{core.KeyValidation: "false"}
	cfg, err := core.ParseConfiguration(func(key, fallback string) string {
		if v, ok := env[key]; ok {
			return v
		}
		return fallback
	})
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Instance.Validation, qt.Equals, core.ValidationOff)
}

func TestLoadConfigurationSkipsMissingFiles(t *testing.T) {
	c := qt.New(t)

	_, err := core.LoadConfiguration("testdata/does-not-exist.env")
	c.Assert(err, qt.IsNil)
}

func TestParseValidationMode(t *testing.T) {
	c := qt.New(t)

	for in, want := range map[string]core.ValidationMode{
		"required": core.ValidationRequired,
		"Optional": core.ValidationOptional,
		"off":      core.ValidationOff,
		"true":     core.ValidationRequired,
		"0":        core.ValidationOff,
	} {
		got, err := core.ParseValidationMode(in)
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.Equals, want)
	}
}
