// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"

	"github.com/devblok/kiln/core"
	"github.com/devblok/kiln/core/drivertest"
	"github.com/devblok/kiln/gfx"
)

var swapchainRequirements = core.Requirements{Extensions: []string{core.SwapchainExtension}}

func selectDevice(c *qt.C, d *drivertest.Driver, req core.Requirements) (core.PhysicalDeviceInfo, error) {
	instance := newInstance(c, d)
	surface := newSurface(c, instance)
	return core.SelectPhysicalDevice(instance, surface, req)
}

func TestSelectPhysicalDeviceSatisfiesRequirements(t *testing.T) {
	c := qt.New(t)

	noSwapchain := drivertest.GoodDevice("No Swapchain", gfx.DeviceTypeDiscreteGPU)
	noSwapchain.Extensions = nil
	noPresent := drivertest.GoodDevice("No Present", gfx.DeviceTypeDiscreteGPU)
	noPresent.QueueFamilies[0].Present = false
	noGraphics := drivertest.GoodDevice("Compute Only", gfx.DeviceTypeDiscreteGPU)
	noGraphics.QueueFamilies[0].Flags = gfx.QueueCompute
	noFormats := drivertest.GoodDevice("No Formats", gfx.DeviceTypeDiscreteGPU)
	noFormats.Support.Formats = nil
	noModes := drivertest.GoodDevice("No Modes", gfx.DeviceTypeDiscreteGPU)
	noModes.Support.PresentModes = nil
	good := drivertest.GoodDevice("Integrated", gfx.DeviceTypeIntegratedGPU)

	d := drivertest.New()
	d.Devices = []drivertest.Device{noSwapchain, noPresent, noGraphics, noFormats, noModes, good}
	info, err := selectDevice(c, d, swapchainRequirements)
	c.Assert(err, qt.IsNil)
	c.Assert(info.Name, qt.Equals, "Integrated")
	c.Assert(info.Index, qt.Equals, 5)
	c.Assert(info.Queues.Complete(), qt.IsTrue)
	c.Assert(info.Extensions, qt.Contains, core.SwapchainExtension)
}

func TestSelectPhysicalDeviceNoneSuitable(t *testing.T) {
	c := qt.New(t)

	noSwapchain := drivertest.GoodDevice("No Swapchain", gfx.DeviceTypeDiscreteGPU)
	noSwapchain.Extensions = nil
	empty := drivertest.GoodDevice("Empty Queue", gfx.DeviceTypeDiscreteGPU)
	empty.QueueFamilies[0].Count = 0

	d := drivertest.New()
	d.Devices = []drivertest.Device{noSwapchain, empty}
	_, err := selectDevice(c, d, swapchainRequirements)
	c.Assert(err, qt.ErrorIs, core.ErrNoSuitableDevice)
	c.Assert(err, qt.ErrorMatches, "select physical device: none of 2 devices qualify")
	details := errors.GetAllDetails(err)
	c.Assert(details, qt.HasLen, 2)
	c.Assert(details, qt.Contains, `0 "No Swapchain": missing extensions VK_KHR_swapchain`)
	c.Assert(details, qt.Contains, `1 "Empty Queue": no graphics queue family`)

	d = drivertest.New()
	d.Devices = nil
	_, err = selectDevice(c, d, swapchainRequirements)
	c.Assert(err, qt.ErrorIs, core.ErrNoSuitableDevice)
}

func TestSelectPhysicalDeviceTieBreak(t *testing.T) {
	c := qt.New(t)

	split := drivertest.GoodDevice("Discrete Split", gfx.DeviceTypeDiscreteGPU)
	split.QueueFamilies = []core.QueueFamily{
		{Index: 0, Flags: gfx.QueueGraphics, Count: 1},
		{Index: 1, Flags: gfx.QueueTransfer, Count: 1, Present: true},
	}

	tests := []struct {
		about   string
		devices []drivertest.Device
		want    string
	}{{
		about: "discrete beats integrated",
		devices: []drivertest.Device{
			drivertest.GoodDevice("Integrated", gfx.DeviceTypeIntegratedGPU),
			drivertest.GoodDevice("Discrete", gfx.DeviceTypeDiscreteGPU),
		},
		want: "Discrete",
	}, {
		about: "first of equals",
		devices: []drivertest.Device{
			drivertest.GoodDevice("First", gfx.DeviceTypeDiscreteGPU),
			drivertest.GoodDevice("Second", gfx.DeviceTypeDiscreteGPU),
		},
		want: "First",
	}, {
		about: "shared family beats split within type",
		devices: []drivertest.Device{
			split,
			drivertest.GoodDevice("Discrete Shared", gfx.DeviceTypeDiscreteGPU),
		},
		want: "Discrete Shared",
	}, {
		about: "split discrete beats shared integrated",
		devices: []drivertest.Device{
			drivertest.GoodDevice("Integrated", gfx.DeviceTypeIntegratedGPU),
			split,
		},
		want: "Discrete Split",
	}, {
		about: "cpu last",
		devices: []drivertest.Device{
			drivertest.GoodDevice("Software", gfx.DeviceTypeCPU),
			drivertest.GoodDevice("Virtual", gfx.DeviceTypeVirtualGPU),
		},
		want: "Virtual",
	}}
	for _, test := range tests {
		c.Run(test.about, func(c *qt.C) {
			for i := 0; i < 3; i++ {
				d := drivertest.New()
				d.Devices = test.devices
				info, err := selectDevice(c, d, swapchainRequirements)
				c.Assert(err, qt.IsNil)
				c.Assert(info.Name, qt.Equals, test.want)
			}
		})
	}
}

func TestSelectPhysicalDevicePreferredName(t *testing.T) {
	c := qt.New(t)

	d := drivertest.New()
	d.Devices = []drivertest.Device{
		drivertest.GoodDevice("NVIDIA GeForce", gfx.DeviceTypeDiscreteGPU),
		drivertest.GoodDevice("AMD Radeon Graphics", gfx.DeviceTypeIntegratedGPU),
	}
	info, err := selectDevice(c, d, core.Requirements{
		Extensions:    []string{core.SwapchainExtension},
		PreferredName: "radeon",
	})
	c.Assert(err, qt.IsNil)
	c.Assert(info.Name, qt.Equals, "AMD Radeon Graphics")

	d = drivertest.New()
	info, err = selectDevice(c, d, core.Requirements{
		Extensions:    []string{core.SwapchainExtension},
		PreferredName: "intel",
	})
	c.Assert(err, qt.IsNil)
	c.Assert(info.Name, qt.Equals, "Fake Discrete")
}

func TestQueueFamilySearch(t *testing.T) {
	c := qt.New(t)

	dev := drivertest.GoodDevice("Split", gfx.DeviceTypeDiscreteGPU)
	dev.QueueFamilies = []core.QueueFamily{
		{Index: 0, Flags: gfx.QueueGraphics, Count: 0, Present: true},
		{Index: 1, Flags: gfx.QueueGraphics, Count: 4},
		{Index: 2, Flags: gfx.QueueTransfer, Count: 1, Present: true},
		{Index: 3, Flags: gfx.QueueGraphics, Count: 1, Present: true},
	}
	d := drivertest.New()
	d.Devices = []drivertest.Device{dev}
	info, err := selectDevice(c, d, swapchainRequirements)
	c.Assert(err, qt.IsNil)
	c.Assert(info.Queues, qt.Equals, core.QueueFamilyIndices{
		Graphics:      3,
		Present:       3,
		GraphicsFound: true,
		PresentFound:  true,
	})

	dev.QueueFamilies = dev.QueueFamilies[:3]
	d = drivertest.New()
	d.Devices = []drivertest.Device{dev}
	info, err = selectDevice(c, d, swapchainRequirements)
	c.Assert(err, qt.IsNil)
	c.Assert(info.Queues.Graphics, qt.Equals, uint32(1))
	c.Assert(info.Queues.Present, qt.Equals, uint32(2))
	c.Assert(info.Queues.Unique(), qt.DeepEquals, []uint32{1, 2})
}

func TestEnumerateDevicesWithoutSurface(t *testing.T) {
	c := qt.New(t)

	d := drivertest.New()
	failing := drivertest.GoodDevice("Broken", gfx.DeviceTypeOther)
	d.Devices = append(d.Devices, failing)
	d.Fail("DeviceExtensions", 2, nil)
	instance := newInstance(c, d)

	infos, err := core.EnumerateDevices(instance, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(infos, qt.HasLen, 2)
	c.Assert(infos[0].Queues.GraphicsFound, qt.IsTrue)
	c.Assert(infos[0].Queues.PresentFound, qt.IsFalse)
	c.Assert(infos[0].MaxUsableSampleCount(), qt.Equals, gfx.SampleCount8)
	c.Assert(infos[1].Invalid, qt.IsTrue)
	c.Assert(infos[1].Reason, qt.Matches, "querying extensions: .*")
	c.Assert(d.Calls("SwapchainSupport"), qt.Equals, 0)
}
