// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/kiln/core"
	"github.com/devblok/kiln/gfx"
)

// PhysicalDevices implements core.Driver. Physical devices are released
// with the instance.
func (v *Vulkan) PhysicalDevices(instance gfx.Handle) ([]gfx.Handle, error) {
	inst, ok := lookup[vk.Instance](v.handles, instance)
	if !ok {
		return nil, unknown("instance", instance)
	}
	var count uint32
	if err := check("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(inst, &count, nil)); err != nil {
		return nil, err
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := check("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(inst, &count, devices)); err != nil {
		return nil, err
	}
	handles := make([]gfx.Handle, 0, count)
	for _, d := range devices[:count] {
		handles = append(handles, v.handles.child(instance, d))
	}
	return handles, nil
}

// PhysicalDeviceProperties implements core.Driver.
func (v *Vulkan) PhysicalDeviceProperties(physicalDevice gfx.Handle) (core.DeviceProperties, error) {
	pd, ok := lookup[vk.PhysicalDevice](v.handles, physicalDevice)
	if !ok {
		return core.DeviceProperties{}, unknown("physical device", physicalDevice)
	}

	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &properties)
	properties.Deref()
	properties.Limits.Deref()

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(pd, &features)
	features.Deref()

	var memory vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(pd, &memory)
	memory.Deref()
	var total uint64
	for _, heap := range memory.MemoryHeaps[:memory.MemoryHeapCount] {
		heap.Deref()
		total += uint64(heap.Size)
	}

	return core.DeviceProperties{
		ID:            properties.DeviceID,
		VendorID:      properties.VendorID,
		DriverVersion: properties.DriverVersion,
		Name:          vk.ToString(properties.DeviceName[:]),
		Type:          gfx.DeviceType(properties.DeviceType),
		Memory:        total,
		Features: core.DeviceFeatures{
			WideLines:         features.WideLines.B(),
			SampleRateShading: features.SampleRateShading.B(),
		},
		ColorSampleCounts: gfx.SampleCountFlags(properties.Limits.FramebufferColorSampleCounts),
		DepthSampleCounts: gfx.SampleCountFlags(properties.Limits.FramebufferDepthSampleCounts),
		LineWidthRange:    properties.Limits.LineWidthRange,
	}, nil
}

// DeviceExtensions implements core.Driver.
func (v *Vulkan) DeviceExtensions(physicalDevice gfx.Handle) ([]string, error) {
	pd, ok := lookup[vk.PhysicalDevice](v.handles, physicalDevice)
	if !ok {
		return nil, unknown("physical device", physicalDevice)
	}
	var count uint32
	if err := check("vkEnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(pd, "", &count, nil)); err != nil {
		return nil, err
	}
	props := make([]vk.ExtensionProperties, count)
	if err := check("vkEnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(pd, "", &count, props)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, p := range props[:count] {
		p.Deref()
		names = append(names, vk.ToString(p.ExtensionName[:]))
	}
	return names, nil
}

// QueueFamilies implements core.Driver.
func (v *Vulkan) QueueFamilies(physicalDevice, surface gfx.Handle) ([]core.QueueFamily, error) {
	pd, ok := lookup[vk.PhysicalDevice](v.handles, physicalDevice)
	if !ok {
		return nil, unknown("physical device", physicalDevice)
	}
	var s vk.Surface
	if surface.Valid() {
		if s, ok = lookup[vk.Surface](v.handles, surface); !ok {
			return nil, unknown("surface", surface)
		}
	}

	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, props)

	families := make([]core.QueueFamily, 0, count)
	for i, p := range props[:count] {
		p.Deref()
		family := core.QueueFamily{
			Index: uint32(i),
			Flags: gfx.QueueFlags(p.QueueFlags),
			Count: p.QueueCount,
		}
		if surface.Valid() {
			var supported vk.Bool32
			if err := check("vkGetPhysicalDeviceSurfaceSupportKHR",
				vk.GetPhysicalDeviceSurfaceSupport(pd, uint32(i), s, &supported)); err != nil {
				return nil, err
			}
			family.Present = supported.B()
		}
		families = append(families, family)
	}
	return families, nil
}

func extent(e vk.Extent2D) gfx.Extent2D {
	e.Deref()
	return gfx.Extent2D{Width: e.Width, Height: e.Height}
}

// SwapchainSupport implements core.Driver.
func (v *Vulkan) SwapchainSupport(physicalDevice, surface gfx.Handle) (core.SwapchainSupport, error) {
	pd, ok := lookup[vk.PhysicalDevice](v.handles, physicalDevice)
	if !ok {
		return core.SwapchainSupport{}, unknown("physical device", physicalDevice)
	}
	s, ok := lookup[vk.Surface](v.handles, surface)
	if !ok {
		return core.SwapchainSupport{}, unknown("surface", surface)
	}

	var caps vk.SurfaceCapabilities
	if err := check("vkGetPhysicalDeviceSurfaceCapabilitiesKHR",
		vk.GetPhysicalDeviceSurfaceCapabilities(pd, s, &caps)); err != nil {
		return core.SwapchainSupport{}, err
	}
	caps.Deref()

	var count uint32
	if err := check("vkGetPhysicalDeviceSurfaceFormatsKHR",
		vk.GetPhysicalDeviceSurfaceFormats(pd, s, &count, nil)); err != nil {
		return core.SwapchainSupport{}, err
	}
	surfaceFormats := make([]vk.SurfaceFormat, count)
	if err := check("vkGetPhysicalDeviceSurfaceFormatsKHR",
		vk.GetPhysicalDeviceSurfaceFormats(pd, s, &count, surfaceFormats)); err != nil {
		return core.SwapchainSupport{}, err
	}
	formats := make([]gfx.SurfaceFormat, 0, count)
	for _, f := range surfaceFormats[:count] {
		f.Deref()
		formats = append(formats, gfx.SurfaceFormat{
			Format:     gfx.Format(f.Format),
			ColorSpace: gfx.ColorSpace(f.ColorSpace),
		})
	}

	if err := check("vkGetPhysicalDeviceSurfacePresentModesKHR",
		vk.GetPhysicalDeviceSurfacePresentModes(pd, s, &count, nil)); err != nil {
		return core.SwapchainSupport{}, err
	}
	presentModes := make([]vk.PresentMode, count)
	if err := check("vkGetPhysicalDeviceSurfacePresentModesKHR",
		vk.GetPhysicalDeviceSurfacePresentModes(pd, s, &count, presentModes)); err != nil {
		return core.SwapchainSupport{}, err
	}
	modes := make([]gfx.PresentMode, 0, count)
	for _, m := range presentModes[:count] {
		modes = append(modes, gfx.PresentMode(m))
	}

	return core.SwapchainSupport{
		Capabilities: core.SurfaceCapabilities{
			MinImageCount:           caps.MinImageCount,
			MaxImageCount:           caps.MaxImageCount,
			CurrentExtent:           extent(caps.CurrentExtent),
			MinImageExtent:          extent(caps.MinImageExtent),
			MaxImageExtent:          extent(caps.MaxImageExtent),
			SupportedTransforms:     gfx.SurfaceTransform(caps.SupportedTransforms),
			CurrentTransform:        gfx.SurfaceTransform(caps.CurrentTransform),
			SupportedCompositeAlpha: gfx.CompositeAlpha(caps.SupportedCompositeAlpha),
		},
		Formats:      formats,
		PresentModes: modes,
	}, nil
}
