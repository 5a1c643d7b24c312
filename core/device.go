// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/sirupsen/logrus"

	"github.com/devblok/kiln/core/pipeline"
	"github.com/devblok/kiln/gfx"
)

// PortabilitySubsetExtension must be enabled on devices that advertise it.
const PortabilitySubsetExtension = "VK_KHR_portability_subset"

// Device is a logical device with its render and present queues. The two
// queues are the same queue when the families coincide.
type Device struct {
	instance *Instance
	physical PhysicalDeviceInfo
	handle   gfx.Handle

	extensions []string
	features   DeviceFeatures

	GraphicsQueue gfx.Handle
	PresentQueue  gfx.Handle
}

// CreateDevice creates a logical device on the selected physical device.
// One queue is created per distinct queue family.
func CreateDevice(instance *Instance, info PhysicalDeviceInfo, cfg DeviceConfiguration) (*Device, error) {
	log := instance.log.WithField("device", info.Name)

	if !info.Queues.Complete() {
		return nil, fail(ErrDeviceCreationFailed, nil, "create device: %s has no render and present queue families", info.Name)
	}
	extensions := appendUnique(nil, cfg.Extensions...)
	if miss := missing(extensions, info.Extensions); len(miss) > 0 {
		return nil, fail(ErrDeviceCreationFailed, nil, "create device: %s lacks extensions %v", info.Name, miss)
	}
	if contains(info.Extensions, PortabilitySubsetExtension) {
		extensions = appendUnique(extensions, PortabilitySubsetExtension)
	}

	features := DeviceFeatures{
		WideLines:         cfg.WideLines && info.Features.WideLines,
		SampleRateShading: cfg.SampleShading && info.Features.SampleRateShading,
	}
	if cfg.WideLines && !features.WideLines {
		log.Warn("wide lines requested but not supported")
	}
	if cfg.SampleShading && !features.SampleRateShading {
		log.Warn("sample shading requested but not supported")
	}

	families := info.Queues.Unique()
	handle, err := instance.driver.CreateDevice(info.Handle, DeviceCreateInfo{
		QueueFamilies: families,
		Extensions:    extensions,
		Layers:        instance.layers,
		Features:      features,
	})
	if err != nil {
		return nil, fail(ErrDeviceCreationFailed, err, "create device on %s", info.Name)
	}

	device := &Device{
		instance:      instance,
		physical:      info,
		handle:        handle,
		extensions:    extensions,
		features:      features,
		GraphicsQueue: instance.driver.DeviceQueue(handle, info.Queues.Graphics, 0),
		PresentQueue:  instance.driver.DeviceQueue(handle, info.Queues.Present, 0),
	}
	log.WithFields(logrus.Fields{
		"queues":     families,
		"extensions": extensions,
	}).Info("device created")
	return device, nil
}

// Handle returns the driver handle of the device.
func (d *Device) Handle() gfx.Handle {
	return d.handle
}

// PhysicalDevice returns the snapshot the device was created from.
func (d *Device) PhysicalDevice() PhysicalDeviceInfo {
	return d.physical
}

// Extensions returns the enabled device extensions.
func (d *Device) Extensions() []string {
	return d.extensions
}

// Features returns the enabled optional features.
func (d *Device) Features() DeviceFeatures {
	return d.features
}

// Capabilities returns what pipeline state is checked against.
func (d *Device) Capabilities() pipeline.Capabilities {
	return pipeline.Capabilities{
		WideLines:         d.features.WideLines,
		LineWidthRange:    d.physical.LineWidthRange,
		SampleRateShading: d.features.SampleRateShading,
		SampleCounts:      d.physical.SampleCounts(),
	}
}

// WaitIdle blocks until the device has finished all submitted work.
func (d *Device) WaitIdle() error {
	if d == nil || !d.handle.Valid() {
		return nil
	}
	return d.instance.driver.WaitIdle(d.handle)
}

// Destroy destroys the device and its queues.
func (d *Device) Destroy() {
	if d == nil || !d.handle.Valid() {
		return
	}
	d.instance.driver.DestroyDevice(d.handle)
	d.handle = gfx.NullHandle
	d.GraphicsQueue = gfx.NullHandle
	d.PresentQueue = gfx.NullHandle
}

func (d *Device) driver() Driver {
	return d.instance.driver
}

func (d *Device) log() logrus.FieldLogger {
	return d.instance.log
}
