// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/devblok/kiln/core/pipeline"
	"github.com/devblok/kiln/gfx"
)

// ValidationMode decides what happens when validation layers are missing.
type ValidationMode string

// Validation modes.
const (
	// ValidationRequired fails instance creation without validation layers.
	ValidationRequired ValidationMode = "required"
	// ValidationOptional enables validation layers when they are present.
	ValidationOptional ValidationMode = "optional"
	// ValidationOff never enables validation layers.
	ValidationOff ValidationMode = "off"
)

// ParseValidationMode accepts a mode name or a boolean, where true means
// required and false means off.
func ParseValidationMode(s string) (ValidationMode, error) {
	switch mode := ValidationMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case ValidationRequired, ValidationOptional, ValidationOff:
		return mode, nil
	}
	enabled, err := strconv.ParseBool(s)
	if err != nil {
		return ValidationOff, errors.Newf("unknown validation mode %q", s)
	}
	if enabled {
		return ValidationRequired, nil
	}
	return ValidationOff, nil
}

// SwapchainExtension is the device extension required for presentation.
const SwapchainExtension = "VK_KHR_swapchain"

// Configuration defines a complete bootstrap configuration.
type Configuration struct {
	Window    WindowConfiguration
	Instance  InstanceConfiguration
	Device    DeviceConfiguration
	Swapchain SwapchainConfiguration
	Pipeline  PipelineConfiguration

	// Shaders is a directory or kar archive of compiled shaders.
	Shaders string

	LogLevel logrus.Level
	// Logger receives every log line of the bootstrap. Defaults to the
	// logrus standard logger.
	Logger logrus.FieldLogger
}

// WindowConfiguration is used to configure the presentation window.
type WindowConfiguration struct {
	Title  string
	Width  uint32
	Height uint32
}

// InstanceConfiguration is used to configure the API instance.
type InstanceConfiguration struct {
	ApplicationName string
	Validation      ValidationMode
	Extensions      []string
	Layers          []string
}

// DeviceConfiguration is used to configure device selection and creation.
type DeviceConfiguration struct {
	Extensions []string
	// PreferredName selects the first suitable device whose name contains it.
	PreferredName string
	WideLines     bool
	SampleShading bool
}

// SwapchainConfiguration is used to configure the swapchain.
type SwapchainConfiguration struct {
	PreferredFormat      gfx.SurfaceFormat
	PreferredPresentMode gfx.PresentMode
	DesiredImageCount    uint32
}

// PipelineConfiguration is used to configure the fixed-function state of
// the pipeline built during bootstrap.
type PipelineConfiguration struct {
	VertexInput      pipeline.VertexInput
	Topology         gfx.PrimitiveTopology
	PolygonMode      gfx.PolygonMode
	CullMode         gfx.CullMode
	FrontFace        gfx.FrontFace
	LineWidth        float32
	Samples          gfx.SampleCount
	MinSampleShading float32
}

// DefaultConfiguration returns the configuration used for every key that
// is not set.
func DefaultConfiguration() Configuration {
	return Configuration{
		Window: WindowConfiguration{
			Title:  "kiln",
			Width:  1280,
			Height: 720,
		},
		Instance: InstanceConfiguration{
			ApplicationName: "kiln",
			Validation:      ValidationOptional,
		},
		Device: DeviceConfiguration{
			Extensions: []string{SwapchainExtension},
		},
		Swapchain: SwapchainConfiguration{
			PreferredFormat: gfx.SurfaceFormat{
				Format:     gfx.FormatB8G8R8A8Srgb,
				ColorSpace: gfx.ColorSpaceSrgbNonlinear,
			},
			PreferredPresentMode: gfx.PresentModeMailbox,
			DesiredImageCount:    3,
		},
		Pipeline: PipelineConfiguration{
			Topology:    gfx.TopologyTriangleList,
			PolygonMode: gfx.PolygonModeFill,
			CullMode:    gfx.CullModeBack,
			FrontFace:   gfx.FrontFaceClockwise,
			LineWidth:   1.0,
			Samples:     gfx.SampleCount1,
		},
		LogLevel: logrus.InfoLevel,
	}
}

// Configuration keys.
const (
	KeyAppName       = "KILN_APP_NAME"
	KeyValidation    = "KILN_VALIDATION"
	KeyExtensions    = "KILN_EXTENSIONS"
	KeyLayers        = "KILN_LAYERS"
	KeyDevice        = "KILN_DEVICE"
	KeySurfaceFormat = "KILN_SURFACE_FORMAT"
	KeyColorSpace    = "KILN_COLOR_SPACE"
	KeyPresentMode   = "KILN_PRESENT_MODE"
	KeyImageCount    = "KILN_IMAGE_COUNT"
	KeyWidth         = "KILN_WIDTH"
	KeyHeight        = "KILN_HEIGHT"
	KeySamples       = "KILN_SAMPLES"
	KeyWideLines     = "KILN_WIDE_LINES"
	KeyLineWidth     = "KILN_LINE_WIDTH"
	KeySampleShading = "KILN_SAMPLE_SHADING"
	KeyShaders       = "KILN_SHADERS"
	KeyLogLevel      = "KILN_LOG_LEVEL"
)

// LoadConfiguration loads the given .env files into the environment and
// reads the configuration from it. Missing files are skipped.
func LoadConfiguration(files ...string) (Configuration, error) {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		if err := envy.Load(existing...); err != nil {
			return Configuration{}, errors.Wrap(err, "loading configuration")
		}
	}
	return ParseConfiguration(envy.Get)
}

// ReadConfiguration reads .env formatted configuration from r. Keys absent
// from r take their default values.
func ReadConfiguration(r io.Reader) (Configuration, error) {
	values, err := godotenv.Parse(r)
	if err != nil {
		return Configuration{}, errors.Wrap(err, "reading configuration")
	}
	return ParseConfiguration(func(key, fallback string) string {
		if v, ok := values[key]; ok {
			return v
		}
		return fallback
	})
}

// ParseConfiguration builds a configuration from lookup, which returns
// the value of key or fallback when key is not set.
func ParseConfiguration(lookup func(key, fallback string) string) (Configuration, error) {
	cfg := DefaultConfiguration()
	p := parser{lookup: lookup}

	cfg.Instance.ApplicationName = lookup(KeyAppName, cfg.Instance.ApplicationName)
	cfg.Window.Title = cfg.Instance.ApplicationName
	cfg.Instance.Extensions = p.list(KeyExtensions)
	cfg.Instance.Layers = p.list(KeyLayers)
	if v := lookup(KeyValidation, ""); v != "" {
		mode, err := ParseValidationMode(v)
		p.check(KeyValidation, err)
		cfg.Instance.Validation = mode
	}

	cfg.Device.PreferredName = lookup(KeyDevice, "")
	cfg.Device.WideLines = p.boolean(KeyWideLines, cfg.Device.WideLines)
	cfg.Device.SampleShading = p.boolean(KeySampleShading, cfg.Device.SampleShading)

	if v := lookup(KeySurfaceFormat, ""); v != "" {
		f, err := gfx.ParseFormat(v)
		p.check(KeySurfaceFormat, err)
		cfg.Swapchain.PreferredFormat.Format = f
	}
	if v := lookup(KeyColorSpace, ""); v != "" {
		cs, err := gfx.ParseColorSpace(v)
		p.check(KeyColorSpace, err)
		cfg.Swapchain.PreferredFormat.ColorSpace = cs
	}
	if v := lookup(KeyPresentMode, ""); v != "" {
		mode, err := gfx.ParsePresentMode(v)
		p.check(KeyPresentMode, err)
		cfg.Swapchain.PreferredPresentMode = mode
	}
	cfg.Swapchain.DesiredImageCount = p.number(KeyImageCount, cfg.Swapchain.DesiredImageCount)

	cfg.Window.Width = p.number(KeyWidth, cfg.Window.Width)
	cfg.Window.Height = p.number(KeyHeight, cfg.Window.Height)

	if samples := p.number(KeySamples, uint32(cfg.Pipeline.Samples)); samples != uint32(cfg.Pipeline.Samples) {
		s, err := gfx.SampleCountFromInt(int(samples))
		p.check(KeySamples, err)
		cfg.Pipeline.Samples = s
	}
	if v := lookup(KeyLineWidth, ""); v != "" {
		w, err := strconv.ParseFloat(v, 32)
		p.check(KeyLineWidth, err)
		cfg.Pipeline.LineWidth = float32(w)
	}
	if cfg.Device.SampleShading {
		cfg.Pipeline.MinSampleShading = 1.0
	}

	cfg.Shaders = lookup(KeyShaders, cfg.Shaders)

	if v := lookup(KeyLogLevel, ""); v != "" {
		level, err := logrus.ParseLevel(v)
		p.check(KeyLogLevel, err)
		cfg.LogLevel = level
	}

	if p.err != nil {
		return Configuration{}, p.err
	}
	return cfg, nil
}

// parser keeps the first error encountered while reading keys.
type parser struct {
	lookup func(key, fallback string) string
	err    error
}

func (p *parser) check(key string, err error) {
	if err != nil && p.err == nil {
		p.err = errors.Wrapf(err, "configuration key %s", key)
	}
}

func (p *parser) list(key string) []string {
	var out []string
	for _, item := range strings.Split(p.lookup(key, ""), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (p *parser) boolean(key string, fallback bool) bool {
	v := p.lookup(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	p.check(key, err)
	return b
}

func (p *parser) number(key string, fallback uint32) uint32 {
	v := p.lookup(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, 32)
	p.check(key, err)
	return uint32(n)
}
