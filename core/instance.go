// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/sirupsen/logrus"

	"github.com/devblok/kiln/gfx"
)

// DebugReportExtension carries validation messages to the debug callback.
const DebugReportExtension = "VK_EXT_debug_report"

// validationLayers in order of preference.
var validationLayers = []string{
	"VK_LAYER_KHRONOS_validation",
	"VK_LAYER_LUNARG_standard_validation",
}

// Instance is a connection to the graphics API. It is the root every
// other object of a context is created from.
type Instance struct {
	driver Driver
	log    logrus.FieldLogger

	handle        gfx.Handle
	debugCallback gfx.Handle
	extensions    []string
	layers        []string
	validation    bool
}

// CreateInstance creates an instance with the extensions and layers from
// cfg enabled. Validation layers are enabled according to cfg.Validation.
func CreateInstance(driver Driver, cfg InstanceConfiguration, log logrus.FieldLogger) (*Instance, error) {
	log = loggerOrDefault(log)

	available, err := driver.InstanceExtensions()
	if err != nil {
		return nil, fail(ErrInstanceCreationFailed, err, "create instance: enumerate extensions")
	}
	extensions := appendUnique(nil, cfg.Extensions...)
	for _, ext := range extensions {
		if !contains(available, ext) {
			return nil, fail(ErrExtensionUnavailable, nil, "create instance: extension %s not available", ext)
		}
	}

	layers := appendUnique(nil, cfg.Layers...)
	var availableLayers []string
	if len(layers) > 0 || (cfg.Validation != ValidationOff && cfg.Validation != "") {
		if availableLayers, err = driver.InstanceLayers(); err != nil {
			return nil, fail(ErrInstanceCreationFailed, err, "create instance: enumerate layers")
		}
	}
	for _, layer := range layers {
		if !contains(availableLayers, layer) {
			return nil, fail(ErrLayerUnavailable, nil, "create instance: layer %s not available", layer)
		}
	}

	var validation, debugReport bool
	switch cfg.Validation {
	case ValidationRequired, ValidationOptional:
		layer := firstOf(validationLayers, availableLayers)
		if layer == "" {
			if cfg.Validation == ValidationRequired {
				return nil, fail(ErrLayerUnavailable, nil, "create instance: validation layer not available")
			}
			log.Warn("validation layers not available, continuing without validation")
			break
		}
		validation = true
		layers = appendUnique(layers, layer)
		if contains(available, DebugReportExtension) {
			extensions = appendUnique(extensions, DebugReportExtension)
			debugReport = true
		} else {
			log.Warnf("%s not available, validation messages will not be logged", DebugReportExtension)
		}
	case ValidationOff, "":
	default:
		return nil, fail(ErrInstanceCreationFailed, nil, "create instance: unknown validation mode %q", cfg.Validation)
	}

	handle, err := driver.CreateInstance(InstanceCreateInfo{
		ApplicationName: cfg.ApplicationName,
		EngineName:      "kiln",
		Extensions:      extensions,
		Layers:          layers,
	})
	if err != nil {
		kind := ErrInstanceCreationFailed
		if code, ok := resultCode(err); ok {
			switch code {
			case gfx.ResultErrorExtensionNotPresent:
				kind = ErrExtensionUnavailable
			case gfx.ResultErrorLayerNotPresent:
				kind = ErrLayerUnavailable
			}
		}
		return nil, fail(kind, err, "create instance")
	}

	instance := &Instance{
		driver:     driver,
		log:        log,
		handle:     handle,
		extensions: extensions,
		layers:     layers,
		validation: validation,
	}

	if debugReport {
		callback, err := driver.CreateDebugCallback(handle, RouteDebugMessages(log))
		if err != nil {
			if cfg.Validation == ValidationRequired {
				instance.Destroy()
				return nil, fail(ErrLayerUnavailable, err, "create instance: install debug callback")
			}
			log.WithError(err).Warn("debug callback not installed")
		} else {
			instance.debugCallback = callback
		}
	}

	log.WithFields(logrus.Fields{
		"extensions": extensions,
		"layers":     layers,
	}).Info("instance created")
	return instance, nil
}

// Handle returns the driver handle of the instance.
func (i *Instance) Handle() gfx.Handle {
	return i.handle
}

// Driver returns the driver the instance was created with.
func (i *Instance) Driver() Driver {
	return i.driver
}

// Extensions returns the enabled instance extensions.
func (i *Instance) Extensions() []string {
	return i.extensions
}

// Layers returns the enabled instance layers.
func (i *Instance) Layers() []string {
	return i.layers
}

// ValidationEnabled reports whether a validation layer is enabled.
func (i *Instance) ValidationEnabled() bool {
	return i.validation
}

// DebugCallback returns the installed debug callback, or the null handle.
func (i *Instance) DebugCallback() gfx.Handle {
	return i.debugCallback
}

// Destroy removes the debug callback and destroys the instance.
func (i *Instance) Destroy() {
	if i == nil || !i.handle.Valid() {
		return
	}
	if i.debugCallback.Valid() {
		i.driver.DestroyDebugCallback(i.handle, i.debugCallback)
		i.debugCallback = gfx.NullHandle
	}
	i.driver.DestroyInstance(i.handle)
	i.handle = gfx.NullHandle
}

// Surface is a presentation target bound to a window.
type Surface struct {
	instance *Instance
	window   Window
	handle   gfx.Handle
}

// CreateSurface creates a surface presenting to window.
func CreateSurface(instance *Instance, window Window) (*Surface, error) {
	if window == nil {
		return nil, fail(ErrPlatformSurfaceUnsupported, nil, "create surface: no window")
	}
	handle, err := instance.driver.CreateSurface(instance.handle, window)
	if err != nil {
		return nil, fail(ErrPlatformSurfaceUnsupported, err, "create surface")
	}
	return &Surface{
		instance: instance,
		window:   window,
		handle:   handle,
	}, nil
}

// Handle returns the driver handle of the surface.
func (s *Surface) Handle() gfx.Handle {
	if s == nil {
		return gfx.NullHandle
	}
	return s.handle
}

// Window returns the window the surface presents to.
func (s *Surface) Window() Window {
	return s.window
}

// Destroy destroys the surface.
func (s *Surface) Destroy() {
	if s == nil || !s.handle.Valid() {
		return
	}
	s.instance.driver.DestroySurface(s.instance.handle, s.handle)
	s.handle = gfx.NullHandle
}
