// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"encoding/binary"

	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/devblok/kiln/core"
	"github.com/devblok/kiln/core/drivertest"
)

func quietLogger() *logrus.Logger {
	log, _ := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return log
}

func instanceConfig(validation core.ValidationMode) core.InstanceConfiguration {
	return core.InstanceConfiguration{
		ApplicationName: "test",
		Validation:      validation,
		Extensions:      []string{"VK_KHR_surface", "VK_KHR_xcb_surface"},
	}
}

func newInstance(c *qt.C, d *drivertest.Driver) *core.Instance {
	instance, err := core.CreateInstance(d, instanceConfig(core.ValidationOff), quietLogger())
	c.Assert(err, qt.IsNil)
	c.Cleanup(instance.Destroy)
	return instance
}

func newSurface(c *qt.C, instance *core.Instance) *core.Surface {
	surface, err := core.CreateSurface(instance, drivertest.NewWindow())
	c.Assert(err, qt.IsNil)
	c.Cleanup(surface.Destroy)
	return surface
}

// newDevice creates a device on the first suitable physical device. The
// objects are destroyed in reverse order when the test ends.
func newDevice(c *qt.C, d *drivertest.Driver) (*core.Surface, *core.Device) {
	instance := newInstance(c, d)
	surface := newSurface(c, instance)
	info, err := core.SelectPhysicalDevice(instance, surface, core.Requirements{
		Extensions: []string{core.SwapchainExtension},
	})
	c.Assert(err, qt.IsNil)
	device, err := core.CreateDevice(instance, info, core.DeviceConfiguration{
		Extensions:    []string{core.SwapchainExtension},
		WideLines:     true,
		SampleShading: true,
	})
	c.Assert(err, qt.IsNil)
	c.Cleanup(device.Destroy)
	return surface, device
}

// spirv returns a minimal module: the header followed by words.
func spirv(words ...uint32) []byte {
	header := []uint32{core.SpirvMagic, 0x00010000, 0, 1, 0}
	all := append(header, words...)
	code := make([]byte, 4*len(all))
	for i, w := range all {
		binary.LittleEndian.PutUint32(code[4*i:], w)
	}
	return code
}
