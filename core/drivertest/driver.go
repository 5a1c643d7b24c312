// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package drivertest provides a recording core.Driver for tests. It keeps
// a journal of every object created and destroyed, can be told to fail any
// call, and reports objects destroyed while their children were alive.
package drivertest

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/devblok/kiln/core"
	"github.com/devblok/kiln/gfx"
)

// Object kinds recorded in the journal.
const (
	KindInstance       = "instance"
	KindDebugCallback  = "debug callback"
	KindSurface        = "surface"
	KindPhysicalDevice = "physical device"
	KindDevice         = "device"
	KindQueue          = "queue"
	KindSwapchain      = "swapchain"
	KindImage          = "image"
	KindImageView      = "image view"
	KindShaderModule   = "shader module"
	KindRenderPass     = "render pass"
	KindPipelineLayout = "pipeline layout"
	KindPipeline       = "pipeline"
)

// Event is one create or destroy recorded by the Driver.
type Event struct {
	Destroy bool
	Kind    string
	Handle  gfx.Handle
}

func (e Event) String() string {
	op := "create"
	if e.Destroy {
		op = "destroy"
	}
	return fmt.Sprintf("%s %s#%d", op, e.Kind, e.Handle)
}

// Device is a physical device exposed by the Driver.
type Device struct {
	Properties    core.DeviceProperties
	Extensions    []string
	QueueFamilies []core.QueueFamily
	Support       core.SwapchainSupport
}

// GoodDevice returns a device that satisfies every requirement of the
// bootstrap, with a single family that renders and presents.
func GoodDevice(name string, kind gfx.DeviceType) Device {
	counts := gfx.SampleCountFlags(gfx.SampleCount1 | gfx.SampleCount2 | gfx.SampleCount4 | gfx.SampleCount8)
	return Device{
		Properties: core.DeviceProperties{
			ID:       0x1234,
			VendorID: 0x10de,
			Name:     name,
			Type:     kind,
			Memory:   4 << 30,
			Features: core.DeviceFeatures{
				WideLines:         true,
				SampleRateShading: true,
			},
			ColorSampleCounts: counts,
			DepthSampleCounts: counts,
			LineWidthRange:    [2]float32{1, 8},
		},
		Extensions: []string{core.SwapchainExtension},
		QueueFamilies: []core.QueueFamily{{
			Index:   0,
			Flags:   gfx.QueueGraphics | gfx.QueueCompute | gfx.QueueTransfer,
			Count:   1,
			Present: true,
		}},
		Support: core.SwapchainSupport{
			Capabilities: core.SurfaceCapabilities{
				MinImageCount:           2,
				MaxImageCount:           8,
				CurrentExtent:           gfx.Extent2D{Width: gfx.UndefinedExtent, Height: gfx.UndefinedExtent},
				MinImageExtent:          gfx.Extent2D{Width: 1, Height: 1},
				MaxImageExtent:          gfx.Extent2D{Width: 4096, Height: 4096},
				SupportedTransforms:     gfx.SurfaceTransformIdentity,
				CurrentTransform:        gfx.SurfaceTransformIdentity,
				SupportedCompositeAlpha: gfx.CompositeAlphaOpaque,
			},
			Formats: []gfx.SurfaceFormat{
				{Format: gfx.FormatB8G8R8A8Srgb, ColorSpace: gfx.ColorSpaceSrgbNonlinear},
				{Format: gfx.FormatB8G8R8A8Unorm, ColorSpace: gfx.ColorSpaceSrgbNonlinear},
			},
			PresentModes: []gfx.PresentMode{gfx.PresentModeFifo, gfx.PresentModeMailbox},
		},
	}
}

type object struct {
	kind     string
	parent   gfx.Handle
	children int
	// managed objects are released by their parent, not destroyed.
	managed bool
	device  int
}

type failure struct {
	nth int
	err error
}

// Driver is a fake core.Driver.
type Driver struct {
	Extensions []string
	Layers     []string
	Devices    []Device

	// Events is the journal of every object created and destroyed.
	Events []Event
	// Violations lists destroy calls that broke the ownership rules.
	Violations []string
	// Callback is the installed debug callback.
	Callback core.DebugCallback

	Instance  core.InstanceCreateInfo
	Device    core.DeviceCreateInfo
	Swapchain core.SwapchainCreateInfo
	Pipeline  core.GraphicsPipelineCreateInfo
	// ShaderCode holds the words of every shader module created.
	ShaderCode [][]uint32

	next     gfx.Handle
	live     map[gfx.Handle]*object
	calls    map[string]int
	failures map[string]failure
}

// New returns a Driver with one suitable discrete device, the platform
// surface extensions and a validation layer.
func New() *Driver {
	return &Driver{
		Extensions: []string{"VK_KHR_surface", "VK_KHR_xcb_surface", core.DebugReportExtension},
		Layers:     []string{"VK_LAYER_KHRONOS_validation"},
		Devices:    []Device{GoodDevice("Fake Discrete", gfx.DeviceTypeDiscreteGPU)},
	}
}

// Fail makes the nth call of method fail with err. An nth of 0 fails every
// call. A nil err fails with VK_ERROR_INITIALIZATION_FAILED.
func (d *Driver) Fail(method string, nth int, err error) {
	if d.failures == nil {
		d.failures = make(map[string]failure)
	}
	if err == nil {
		err = &gfx.APIError{Call: "vk" + method, Code: gfx.ResultErrorInitializationFailed}
	}
	d.failures[method] = failure{nth: nth, err: err}
}

// Calls returns how many times method was called.
func (d *Driver) Calls(method string) int {
	return d.calls[method]
}

func (d *Driver) call(method string) error {
	if d.calls == nil {
		d.calls = make(map[string]int)
	}
	d.calls[method]++
	f, ok := d.failures[method]
	if !ok {
		return nil
	}
	if f.nth == 0 || f.nth == d.calls[method] {
		return f.err
	}
	return nil
}

func (d *Driver) create(kind string, parent gfx.Handle, managed bool) gfx.Handle {
	if d.live == nil {
		d.live = make(map[gfx.Handle]*object)
	}
	d.next++
	h := d.next
	d.live[h] = &object{kind: kind, parent: parent, managed: managed}
	if p, ok := d.live[parent]; ok && !managed {
		p.children++
	}
	if !managed {
		d.Events = append(d.Events, Event{Kind: kind, Handle: h})
	}
	return h
}

func (d *Driver) destroy(kind string, parent, h gfx.Handle) {
	o, ok := d.live[h]
	switch {
	case !ok:
		d.violate("destroy of unknown or destroyed %s #%d", kind, h)
		return
	case o.kind != kind:
		d.violate("destroy of %s #%d as %s", o.kind, h, kind)
		return
	case o.managed:
		d.violate("destroy of %s #%d owned by its parent", kind, h)
		return
	case o.parent != parent:
		d.violate("destroy of %s #%d through #%d, created from #%d", kind, h, parent, o.parent)
	}
	if o.children > 0 {
		d.violate("destroy of %s #%d with %d live children", kind, h, o.children)
	}
	for child, c := range d.live {
		if c.parent == h && c.managed {
			delete(d.live, child)
		}
	}
	if p, ok := d.live[o.parent]; ok {
		p.children--
	}
	delete(d.live, h)
	d.Events = append(d.Events, Event{Destroy: true, Kind: kind, Handle: h})
}

func (d *Driver) violate(format string, args ...interface{}) {
	d.Violations = append(d.Violations, fmt.Sprintf(format, args...))
}

func (d *Driver) object(h gfx.Handle, kind string) (*object, error) {
	o, ok := d.live[h]
	if !ok || o.kind != kind {
		return nil, fmt.Errorf("%d is not a live %s", h, kind)
	}
	return o, nil
}

// Leaks lists every object that was created but not destroyed.
func (d *Driver) Leaks() []string {
	var leaks []string
	for h, o := range d.live {
		if !o.managed {
			leaks = append(leaks, fmt.Sprintf("%s #%d", o.kind, h))
		}
	}
	return leaks
}

// Live returns how many objects of kind are alive.
func (d *Driver) Live(kind string) int {
	n := 0
	for _, o := range d.live {
		if o.kind == kind {
			n++
		}
	}
	return n
}

// Created returns the handles of kind in creation order.
func (d *Driver) Created(kind string) []gfx.Handle {
	return d.filter(false, kind)
}

// Destroyed returns the handles of kind in destruction order.
func (d *Driver) Destroyed(kind string) []gfx.Handle {
	return d.filter(true, kind)
}

func (d *Driver) filter(destroy bool, kind string) []gfx.Handle {
	var out []gfx.Handle
	for _, e := range d.Events {
		if e.Destroy == destroy && e.Kind == kind {
			out = append(out, e.Handle)
		}
	}
	return out
}

// Emit sends m to the installed debug callback.
func (d *Driver) Emit(m core.DebugMessage) bool {
	if d.Callback == nil {
		return false
	}
	d.Callback(m)
	return true
}

// InstanceExtensions implements core.Driver.
func (d *Driver) InstanceExtensions() ([]string, error) {
	if err := d.call("InstanceExtensions"); err != nil {
		return nil, err
	}
	return d.Extensions, nil
}

// InstanceLayers implements core.Driver.
func (d *Driver) InstanceLayers() ([]string, error) {
	if err := d.call("InstanceLayers"); err != nil {
		return nil, err
	}
	return d.Layers, nil
}

// CreateInstance implements core.Driver.
func (d *Driver) CreateInstance(info core.InstanceCreateInfo) (gfx.Handle, error) {
	if err := d.call("CreateInstance"); err != nil {
		return gfx.NullHandle, err
	}
	d.Instance = info
	h := d.create(KindInstance, gfx.NullHandle, false)
	for i := range d.Devices {
		pd := d.create(KindPhysicalDevice, h, true)
		d.live[pd].device = i
	}
	return h, nil
}

// DestroyInstance implements core.Driver.
func (d *Driver) DestroyInstance(instance gfx.Handle) {
	d.destroy(KindInstance, gfx.NullHandle, instance)
}

// CreateDebugCallback implements core.Driver.
func (d *Driver) CreateDebugCallback(instance gfx.Handle, callback core.DebugCallback) (gfx.Handle, error) {
	if err := d.call("CreateDebugCallback"); err != nil {
		return gfx.NullHandle, err
	}
	d.Callback = callback
	return d.create(KindDebugCallback, instance, false), nil
}

// DestroyDebugCallback implements core.Driver.
func (d *Driver) DestroyDebugCallback(instance, callback gfx.Handle) {
	d.Callback = nil
	d.destroy(KindDebugCallback, instance, callback)
}

// CreateSurface implements core.Driver.
func (d *Driver) CreateSurface(instance gfx.Handle, window core.Window) (gfx.Handle, error) {
	if err := d.call("CreateSurface"); err != nil {
		return gfx.NullHandle, err
	}
	if _, err := window.CreateSurface(instance); err != nil {
		return gfx.NullHandle, err
	}
	return d.create(KindSurface, instance, false), nil
}

// DestroySurface implements core.Driver.
func (d *Driver) DestroySurface(instance, surface gfx.Handle) {
	d.destroy(KindSurface, instance, surface)
}

// PhysicalDevices implements core.Driver.
func (d *Driver) PhysicalDevices(instance gfx.Handle) ([]gfx.Handle, error) {
	if err := d.call("PhysicalDevices"); err != nil {
		return nil, err
	}
	handles := make([]gfx.Handle, len(d.Devices))
	for h, o := range d.live {
		if o.kind == KindPhysicalDevice && o.parent == instance {
			handles[o.device] = h
		}
	}
	return handles, nil
}

func (d *Driver) physical(h gfx.Handle) (Device, error) {
	o, err := d.object(h, KindPhysicalDevice)
	if err != nil {
		return Device{}, err
	}
	return d.Devices[o.device], nil
}

// PhysicalDeviceProperties implements core.Driver.
func (d *Driver) PhysicalDeviceProperties(physicalDevice gfx.Handle) (core.DeviceProperties, error) {
	if err := d.call("PhysicalDeviceProperties"); err != nil {
		return core.DeviceProperties{}, err
	}
	dev, err := d.physical(physicalDevice)
	return dev.Properties, err
}

// DeviceExtensions implements core.Driver.
func (d *Driver) DeviceExtensions(physicalDevice gfx.Handle) ([]string, error) {
	if err := d.call("DeviceExtensions"); err != nil {
		return nil, err
	}
	dev, err := d.physical(physicalDevice)
	return dev.Extensions, err
}

// QueueFamilies implements core.Driver.
func (d *Driver) QueueFamilies(physicalDevice, surface gfx.Handle) ([]core.QueueFamily, error) {
	if err := d.call("QueueFamilies"); err != nil {
		return nil, err
	}
	dev, err := d.physical(physicalDevice)
	if err != nil {
		return nil, err
	}
	families := append([]core.QueueFamily(nil), dev.QueueFamilies...)
	if !surface.Valid() {
		for i := range families {
			families[i].Present = false
		}
	}
	return families, nil
}

// SwapchainSupport implements core.Driver.
func (d *Driver) SwapchainSupport(physicalDevice, surface gfx.Handle) (core.SwapchainSupport, error) {
	if err := d.call("SwapchainSupport"); err != nil {
		return core.SwapchainSupport{}, err
	}
	if _, err := d.object(surface, KindSurface); err != nil {
		return core.SwapchainSupport{}, err
	}
	dev, err := d.physical(physicalDevice)
	return dev.Support, err
}

// CreateDevice implements core.Driver.
func (d *Driver) CreateDevice(physicalDevice gfx.Handle, info core.DeviceCreateInfo) (gfx.Handle, error) {
	if err := d.call("CreateDevice"); err != nil {
		return gfx.NullHandle, err
	}
	o, err := d.object(physicalDevice, KindPhysicalDevice)
	if err != nil {
		return gfx.NullHandle, err
	}
	d.Device = info
	return d.create(KindDevice, o.parent, false), nil
}

// DestroyDevice implements core.Driver.
func (d *Driver) DestroyDevice(device gfx.Handle) {
	o, ok := d.live[device]
	parent := gfx.NullHandle
	if ok {
		parent = o.parent
	}
	d.destroy(KindDevice, parent, device)
}

// DeviceQueue implements core.Driver.
func (d *Driver) DeviceQueue(device gfx.Handle, family, index uint32) gfx.Handle {
	for h, o := range d.live {
		if o.kind == KindQueue && o.parent == device && o.device == int(family) {
			return h
		}
	}
	h := d.create(KindQueue, device, true)
	d.live[h].device = int(family)
	return h
}

// WaitIdle implements core.Driver.
func (d *Driver) WaitIdle(device gfx.Handle) error {
	return d.call("WaitIdle")
}

// CreateSwapchain implements core.Driver.
func (d *Driver) CreateSwapchain(device gfx.Handle, info core.SwapchainCreateInfo) (gfx.Handle, error) {
	if err := d.call("CreateSwapchain"); err != nil {
		return gfx.NullHandle, err
	}
	d.Swapchain = info
	h := d.create(KindSwapchain, device, false)
	for i := uint32(0); i < info.MinImageCount; i++ {
		d.create(KindImage, h, true)
	}
	return h, nil
}

// DestroySwapchain implements core.Driver.
func (d *Driver) DestroySwapchain(device, swapchain gfx.Handle) {
	d.destroy(KindSwapchain, device, swapchain)
}

// SwapchainImages implements core.Driver.
func (d *Driver) SwapchainImages(device, swapchain gfx.Handle) ([]gfx.Handle, error) {
	if err := d.call("SwapchainImages"); err != nil {
		return nil, err
	}
	var images []gfx.Handle
	for h := swapchain + 1; h <= d.next; h++ {
		o, ok := d.live[h]
		if !ok || o.kind != KindImage || o.parent != swapchain {
			break
		}
		images = append(images, h)
	}
	return images, nil
}

// CreateImageView implements core.Driver.
func (d *Driver) CreateImageView(device gfx.Handle, info core.ImageViewCreateInfo) (gfx.Handle, error) {
	if err := d.call("CreateImageView"); err != nil {
		return gfx.NullHandle, err
	}
	return d.create(KindImageView, device, false), nil
}

// DestroyImageView implements core.Driver.
func (d *Driver) DestroyImageView(device, view gfx.Handle) {
	d.destroy(KindImageView, device, view)
}

// CreateShaderModule implements core.Driver.
func (d *Driver) CreateShaderModule(device gfx.Handle, code []uint32) (gfx.Handle, error) {
	if err := d.call("CreateShaderModule"); err != nil {
		return gfx.NullHandle, err
	}
	d.ShaderCode = append(d.ShaderCode, code)
	return d.create(KindShaderModule, device, false), nil
}

// DestroyShaderModule implements core.Driver.
func (d *Driver) DestroyShaderModule(device, module gfx.Handle) {
	d.destroy(KindShaderModule, device, module)
}

// CreateRenderPass implements core.Driver.
func (d *Driver) CreateRenderPass(device gfx.Handle, info core.RenderPassCreateInfo) (gfx.Handle, error) {
	if err := d.call("CreateRenderPass"); err != nil {
		return gfx.NullHandle, err
	}
	return d.create(KindRenderPass, device, false), nil
}

// DestroyRenderPass implements core.Driver.
func (d *Driver) DestroyRenderPass(device, renderPass gfx.Handle) {
	d.destroy(KindRenderPass, device, renderPass)
}

// CreatePipelineLayout implements core.Driver.
func (d *Driver) CreatePipelineLayout(device gfx.Handle) (gfx.Handle, error) {
	if err := d.call("CreatePipelineLayout"); err != nil {
		return gfx.NullHandle, err
	}
	return d.create(KindPipelineLayout, device, false), nil
}

// DestroyPipelineLayout implements core.Driver.
func (d *Driver) DestroyPipelineLayout(device, layout gfx.Handle) {
	d.destroy(KindPipelineLayout, device, layout)
}

// CreateGraphicsPipeline implements core.Driver.
func (d *Driver) CreateGraphicsPipeline(device gfx.Handle, info core.GraphicsPipelineCreateInfo) (gfx.Handle, error) {
	if err := d.call("CreateGraphicsPipeline"); err != nil {
		return gfx.NullHandle, err
	}
	for _, s := range info.Stages {
		if _, err := d.object(s.Module, KindShaderModule); err != nil {
			return gfx.NullHandle, err
		}
	}
	d.Pipeline = info
	return d.create(KindPipeline, device, false), nil
}

// DestroyPipeline implements core.Driver.
func (d *Driver) DestroyPipeline(device, pipeline gfx.Handle) {
	d.destroy(KindPipeline, device, pipeline)
}

// Window is a fake core.Window.
type Window struct {
	Extensions []string
	Size       gfx.Extent2D
	// Err fails surface creation when set.
	Err error

	native byte
}

// NewWindow returns an 800x600 window needing the xcb surface extension.
func NewWindow() *Window {
	return &Window{
		Extensions: []string{"VK_KHR_surface", "VK_KHR_xcb_surface"},
		Size:       gfx.Extent2D{Width: 800, Height: 600},
	}
}

// RequiredExtensions implements core.Window.
func (w *Window) RequiredExtensions() []string {
	return w.Extensions
}

// CreateSurface implements core.Window.
func (w *Window) CreateSurface(instance interface{}) (unsafe.Pointer, error) {
	if w.Err != nil {
		return nil, w.Err
	}
	return unsafe.Pointer(&w.native), nil
}

// DrawableSize implements core.Window.
func (w *Window) DrawableSize() gfx.Extent2D {
	return w.Size
}

// Journal renders the events as one line each.
func (d *Driver) Journal() string {
	lines := make([]string, len(d.Events))
	for i, e := range d.Events {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}
