// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core bootstraps a rendering context: instance, surface, device,
// swapchain, image views and a graphics pipeline. Each step consumes what
// the previous one produced, and every step releases what it created
// when it fails. The graphics API itself is reached through a Driver.
package core

import (
	"unsafe"

	"github.com/devblok/kiln/core/pipeline"
	"github.com/devblok/kiln/gfx"
)

// Window is the presentation window the context renders into.
type Window interface {
	// RequiredExtensions lists the instance extensions the platform
	// needs to present to this window.
	RequiredExtensions() []string

	// CreateSurface creates a presentation surface for the native
	// instance handle given.
	CreateSurface(instance interface{}) (unsafe.Pointer, error)

	// DrawableSize returns the size of the window in pixels.
	DrawableSize() gfx.Extent2D
}

// Driver is the graphics API as seen by the bootstrap. Create calls return
// handles that are valid until the matching Destroy call.
type Driver interface {
	// InstanceExtensions returns available instance extensions
	InstanceExtensions() ([]string, error)
	// InstanceLayers returns available instance layers
	InstanceLayers() ([]string, error)
	CreateInstance(info InstanceCreateInfo) (gfx.Handle, error)
	DestroyInstance(instance gfx.Handle)

	// CreateDebugCallback installs callback to receive validation messages.
	CreateDebugCallback(instance gfx.Handle, callback DebugCallback) (gfx.Handle, error)
	DestroyDebugCallback(instance, callback gfx.Handle)

	CreateSurface(instance gfx.Handle, window Window) (gfx.Handle, error)
	DestroySurface(instance, surface gfx.Handle)

	// PhysicalDevices returns handles of physical devices in
	// enumeration order.
	PhysicalDevices(instance gfx.Handle) ([]gfx.Handle, error)
	PhysicalDeviceProperties(physicalDevice gfx.Handle) (DeviceProperties, error)
	DeviceExtensions(physicalDevice gfx.Handle) ([]string, error)
	// QueueFamilies reports the queue families of physicalDevice and
	// whether each can present to surface. surface may be null.
	QueueFamilies(physicalDevice, surface gfx.Handle) ([]QueueFamily, error)
	SwapchainSupport(physicalDevice, surface gfx.Handle) (SwapchainSupport, error)

	CreateDevice(physicalDevice gfx.Handle, info DeviceCreateInfo) (gfx.Handle, error)
	DestroyDevice(device gfx.Handle)
	DeviceQueue(device gfx.Handle, family, index uint32) gfx.Handle
	WaitIdle(device gfx.Handle) error

	CreateSwapchain(device gfx.Handle, info SwapchainCreateInfo) (gfx.Handle, error)
	DestroySwapchain(device, swapchain gfx.Handle)
	// SwapchainImages returns the images owned by swapchain. They are
	// released together with it.
	SwapchainImages(device, swapchain gfx.Handle) ([]gfx.Handle, error)

	CreateImageView(device gfx.Handle, info ImageViewCreateInfo) (gfx.Handle, error)
	DestroyImageView(device, view gfx.Handle)

	CreateShaderModule(device gfx.Handle, code []uint32) (gfx.Handle, error)
	DestroyShaderModule(device, module gfx.Handle)

	CreateRenderPass(device gfx.Handle, info RenderPassCreateInfo) (gfx.Handle, error)
	DestroyRenderPass(device, renderPass gfx.Handle)
	CreatePipelineLayout(device gfx.Handle) (gfx.Handle, error)
	DestroyPipelineLayout(device, layout gfx.Handle)
	CreateGraphicsPipeline(device gfx.Handle, info GraphicsPipelineCreateInfo) (gfx.Handle, error)
	DestroyPipeline(device, pipeline gfx.Handle)
}

// InstanceCreateInfo describes the instance to create.
type InstanceCreateInfo struct {
	ApplicationName string
	EngineName      string
	Extensions      []string
	Layers          []string
}

// DeviceFeatures are the optional device features the bootstrap knows.
type DeviceFeatures struct {
	WideLines         bool
	SampleRateShading bool
}

// DeviceProperties describes a physical device.
type DeviceProperties struct {
	ID            uint32
	VendorID      uint32
	DriverVersion uint32
	Name          string
	Type          gfx.DeviceType
	// Memory is the total size of all memory heaps in bytes.
	Memory   uint64
	Features DeviceFeatures

	ColorSampleCounts gfx.SampleCountFlags
	DepthSampleCounts gfx.SampleCountFlags
	LineWidthRange    [2]float32
}

// QueueFamily describes one queue family of a physical device.
type QueueFamily struct {
	Index   uint32
	Flags   gfx.QueueFlags
	Count   uint32
	Present bool
}

// SurfaceCapabilities are the swapchain limits of a surface.
type SurfaceCapabilities struct {
	MinImageCount uint32
	// MaxImageCount of 0 means there is no upper bound.
	MaxImageCount uint32
	// CurrentExtent is gfx.UndefinedExtent on both axes when the surface
	// size follows the swapchain.
	CurrentExtent           gfx.Extent2D
	MinImageExtent          gfx.Extent2D
	MaxImageExtent          gfx.Extent2D
	SupportedTransforms     gfx.SurfaceTransform
	CurrentTransform        gfx.SurfaceTransform
	SupportedCompositeAlpha gfx.CompositeAlpha
}

// SwapchainSupport is what a physical device can do with a surface.
type SwapchainSupport struct {
	Capabilities SurfaceCapabilities
	Formats      []gfx.SurfaceFormat
	PresentModes []gfx.PresentMode
}

// DeviceCreateInfo describes the logical device to create.
type DeviceCreateInfo struct {
	// QueueFamilies lists unique family indices, one queue is created
	// in each.
	QueueFamilies []uint32
	Extensions    []string
	Layers        []string
	Features      DeviceFeatures
}

// SwapchainCreateInfo describes the swapchain to create.
type SwapchainCreateInfo struct {
	Surface        gfx.Handle
	MinImageCount  uint32
	Format         gfx.SurfaceFormat
	Extent         gfx.Extent2D
	PresentMode    gfx.PresentMode
	PreTransform   gfx.SurfaceTransform
	CompositeAlpha gfx.CompositeAlpha
	// QueueFamilies shares images concurrently between the listed
	// families when there is more than one.
	QueueFamilies []uint32
	OldSwapchain  gfx.Handle
}

// ImageViewCreateInfo describes a 2D color view of one swapchain image.
type ImageViewCreateInfo struct {
	Image  gfx.Handle
	Format gfx.Format
}

// RenderPassCreateInfo describes a single subpass render pass with one
// color attachment that ends up presentable.
type RenderPassCreateInfo struct {
	Format  gfx.Format
	Samples gfx.SampleCount
}

// ShaderStageInfo binds a shader module to a pipeline stage.
type ShaderStageInfo struct {
	Module gfx.Handle
	Stage  gfx.ShaderStage
	Entry  string
}

// GraphicsPipelineCreateInfo describes the graphics pipeline to create.
type GraphicsPipelineCreateInfo struct {
	Descriptor pipeline.Descriptor
	Stages     []ShaderStageInfo
	Layout     gfx.Handle
	RenderPass gfx.Handle
	Subpass    uint32
}
