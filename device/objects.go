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

// queuePriority is shared by every queue the bootstrap creates.
const queuePriority float32 = 1.0

// CreateDevice implements core.Driver.
func (v *Vulkan) CreateDevice(physicalDevice gfx.Handle, info core.DeviceCreateInfo) (gfx.Handle, error) {
	pd, ok := lookup[vk.PhysicalDevice](v.handles, physicalDevice)
	if !ok {
		return gfx.NullHandle, unknown("physical device", physicalDevice)
	}

	queues := make([]vk.DeviceQueueCreateInfo, 0, len(info.QueueFamilies))
	for _, family := range info.QueueFamilies {
		queues = append(queues, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{queuePriority},
		})
	}
	extensions := cstrs(info.Extensions)
	layers := cstrs(info.Layers)

	ci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queues)),
		PQueueCreateInfos:       queues,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
		PEnabledFeatures: []vk.PhysicalDeviceFeatures{{
			WideLines:         bool32(info.Features.WideLines),
			SampleRateShading: bool32(info.Features.SampleRateShading),
		}},
	}
	var device vk.Device
	if err := check("vkCreateDevice", vk.CreateDevice(pd, &ci, nil, &device)); err != nil {
		return gfx.NullHandle, err
	}
	return v.handles.put(device), nil
}

// DestroyDevice implements core.Driver. Queues of the device are released
// with it.
func (v *Vulkan) DestroyDevice(device gfx.Handle) {
	dev, ok := lookup[vk.Device](v.handles, device)
	if !ok {
		v.stale("device", device)
		return
	}
	v.handles.remove(device)
	vk.DestroyDevice(dev, nil)
}

// DeviceQueue implements core.Driver. It returns the null handle for an
// unknown device.
func (v *Vulkan) DeviceQueue(device gfx.Handle, family, index uint32) gfx.Handle {
	dev, ok := lookup[vk.Device](v.handles, device)
	if !ok {
		return gfx.NullHandle
	}
	var queue vk.Queue
	vk.GetDeviceQueue(dev, family, index, &queue)
	return v.handles.child(device, queue)
}

// WaitIdle implements core.Driver.
func (v *Vulkan) WaitIdle(device gfx.Handle) error {
	dev, ok := lookup[vk.Device](v.handles, device)
	if !ok {
		return unknown("device", device)
	}
	return check("vkDeviceWaitIdle", vk.DeviceWaitIdle(dev))
}

// sharingMode returns how swapchain images are shared between families.
func sharingMode(families []uint32) (vk.SharingMode, []uint32) {
	if len(families) > 1 {
		return vk.SharingModeConcurrent, families
	}
	return vk.SharingModeExclusive, nil
}

// CreateSwapchain implements core.Driver.
func (v *Vulkan) CreateSwapchain(device gfx.Handle, info core.SwapchainCreateInfo) (gfx.Handle, error) {
	dev, ok := lookup[vk.Device](v.handles, device)
	if !ok {
		return gfx.NullHandle, unknown("device", device)
	}
	surface, ok := lookup[vk.Surface](v.handles, info.Surface)
	if !ok {
		return gfx.NullHandle, unknown("surface", info.Surface)
	}
	old := vk.Swapchain(vk.NullHandle)
	if info.OldSwapchain.Valid() {
		if old, ok = lookup[vk.Swapchain](v.handles, info.OldSwapchain); !ok {
			return gfx.NullHandle, unknown("swapchain", info.OldSwapchain)
		}
	}

	mode, families := sharingMode(info.QueueFamilies)
	ci := vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         surface,
		MinImageCount:   info.MinImageCount,
		ImageFormat:     vk.Format(info.Format.Format),
		ImageColorSpace: vk.ColorSpace(info.Format.ColorSpace),
		ImageExtent: vk.Extent2D{
			Width:  info.Extent.Width,
			Height: info.Extent.Height,
		},
		ImageArrayLayers:      1,
		ImageUsage:            vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode:      mode,
		QueueFamilyIndexCount: uint32(len(families)),
		PQueueFamilyIndices:   families,
		PreTransform:          vk.SurfaceTransformFlagBits(info.PreTransform),
		CompositeAlpha:        vk.CompositeAlphaFlagBits(info.CompositeAlpha),
		PresentMode:           vk.PresentMode(info.PresentMode),
		Clipped:               vk.True,
		OldSwapchain:          old,
	}
	var swapchain vk.Swapchain
	if err := check("vkCreateSwapchainKHR", vk.CreateSwapchain(dev, &ci, nil, &swapchain)); err != nil {
		return gfx.NullHandle, err
	}
	return v.handles.put(swapchain), nil
}

// DestroySwapchain implements core.Driver. Swapchain images are released
// with it.
func (v *Vulkan) DestroySwapchain(device, swapchain gfx.Handle) {
	dev, dok := lookup[vk.Device](v.handles, device)
	sc, ok := lookup[vk.Swapchain](v.handles, swapchain)
	if !dok || !ok {
		v.stale("swapchain", swapchain)
		return
	}
	v.handles.remove(swapchain)
	vk.DestroySwapchain(dev, sc, nil)
}

// SwapchainImages implements core.Driver.
func (v *Vulkan) SwapchainImages(device, swapchain gfx.Handle) ([]gfx.Handle, error) {
	dev, ok := lookup[vk.Device](v.handles, device)
	if !ok {
		return nil, unknown("device", device)
	}
	sc, ok := lookup[vk.Swapchain](v.handles, swapchain)
	if !ok {
		return nil, unknown("swapchain", swapchain)
	}
	var count uint32
	if err := check("vkGetSwapchainImagesKHR", vk.GetSwapchainImages(dev, sc, &count, nil)); err != nil {
		return nil, err
	}
	images := make([]vk.Image, count)
	if err := check("vkGetSwapchainImagesKHR", vk.GetSwapchainImages(dev, sc, &count, images)); err != nil {
		return nil, err
	}
	handles := make([]gfx.Handle, 0, count)
	for _, image := range images[:count] {
		handles = append(handles, v.handles.child(swapchain, image))
	}
	return handles, nil
}

// CreateImageView implements core.Driver.
func (v *Vulkan) CreateImageView(device gfx.Handle, info core.ImageViewCreateInfo) (gfx.Handle, error) {
	dev, ok := lookup[vk.Device](v.handles, device)
	if !ok {
		return gfx.NullHandle, unknown("device", device)
	}
	image, ok := lookup[vk.Image](v.handles, info.Image)
	if !ok {
		return gfx.NullHandle, unknown("image", info.Image)
	}
	ci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   vk.Format(info.Format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	var view vk.ImageView
	if err := check("vkCreateImageView", vk.CreateImageView(dev, &ci, nil, &view)); err != nil {
		return gfx.NullHandle, err
	}
	return v.handles.put(view), nil
}

// DestroyImageView implements core.Driver.
func (v *Vulkan) DestroyImageView(device, view gfx.Handle) {
	dev, dok := lookup[vk.Device](v.handles, device)
	iv, ok := lookup[vk.ImageView](v.handles, view)
	if !dok || !ok {
		v.stale("image view", view)
		return
	}
	v.handles.remove(view)
	vk.DestroyImageView(dev, iv, nil)
}

// CreateShaderModule implements core.Driver.
func (v *Vulkan) CreateShaderModule(device gfx.Handle, code []uint32) (gfx.Handle, error) {
	dev, ok := lookup[vk.Device](v.handles, device)
	if !ok {
		return gfx.NullHandle, unknown("device", device)
	}
	ci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code) * 4),
		PCode:    code,
	}
	var module vk.ShaderModule
	if err := check("vkCreateShaderModule", vk.CreateShaderModule(dev, &ci, nil, &module)); err != nil {
		return gfx.NullHandle, err
	}
	return v.handles.put(module), nil
}

// DestroyShaderModule implements core.Driver.
func (v *Vulkan) DestroyShaderModule(device, module gfx.Handle) {
	dev, dok := lookup[vk.Device](v.handles, device)
	sm, ok := lookup[vk.ShaderModule](v.handles, module)
	if !dok || !ok {
		v.stale("shader module", module)
		return
	}
	v.handles.remove(module)
	vk.DestroyShaderModule(dev, sm, nil)
}

// CreatePipelineLayout implements core.Driver. The layout has no
// descriptor sets and no push constants.
func (v *Vulkan) CreatePipelineLayout(device gfx.Handle) (gfx.Handle, error) {
	dev, ok := lookup[vk.Device](v.handles, device)
	if !ok {
		return gfx.NullHandle, unknown("device", device)
	}
	ci := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}
	var layout vk.PipelineLayout
	if err := check("vkCreatePipelineLayout", vk.CreatePipelineLayout(dev, &ci, nil, &layout)); err != nil {
		return gfx.NullHandle, err
	}
	return v.handles.put(layout), nil
}

// DestroyPipelineLayout implements core.Driver.
func (v *Vulkan) DestroyPipelineLayout(device, layout gfx.Handle) {
	dev, dok := lookup[vk.Device](v.handles, device)
	pl, ok := lookup[vk.PipelineLayout](v.handles, layout)
	if !dok || !ok {
		v.stale("pipeline layout", layout)
		return
	}
	v.handles.remove(layout)
	vk.DestroyPipelineLayout(dev, pl, nil)
}
