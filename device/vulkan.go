// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package device implements core.Driver on top of the Vulkan API.
package device

import (
	"strings"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/kiln/core"
	"github.com/devblok/kiln/gfx"
)

// EngineVersion is reported to the driver in the application info.
var EngineVersion = vk.MakeVersion(0, 1, 0)

// Vulkan is a core.Driver backed by the system Vulkan loader.
type Vulkan struct {
	handles *handleTable
	log     logrus.FieldLogger
}

var _ core.Driver = (*Vulkan)(nil)

// NewVulkan loads the Vulkan entry points. procAddr is the
// vkGetInstanceProcAddr function of a windowing library, or nil to use
// the default loader.
func NewVulkan(procAddr unsafe.Pointer, log logrus.FieldLogger) (*Vulkan, error) {
	if procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.Wrap(err, "vk.SetDefaultGetInstanceProcAddr")
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}
	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "vk.Init")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Vulkan{
		handles: newHandleTable(),
		log:     log,
	}, nil
}

// check turns a failing result into a *gfx.APIError.
func check(call string, res vk.Result) error {
	if res >= vk.Success {
		return nil
	}
	return &gfx.APIError{Call: call, Code: int32(res)}
}

// unknown is returned when a handle does not name an object of the
// expected kind.
func unknown(kind string, h gfx.Handle) error {
	return errors.Newf("%d is not a live %s", h, kind)
}

// stale logs a destroy call for a handle that is no longer known.
func (v *Vulkan) stale(kind string, h gfx.Handle) {
	v.log.WithFields(logrus.Fields{
		"kind":   kind,
		"handle": h,
	}).Warn("destroy of unknown handle ignored")
}

// cstr null terminates s as the loader expects.
func cstr(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

func cstrs(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = cstr(s)
	}
	return out
}

func bool32(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}

// InstanceExtensions implements core.Driver.
func (v *Vulkan) InstanceExtensions() ([]string, error) {
	var count uint32
	if err := check("vkEnumerateInstanceExtensionProperties", vk.EnumerateInstanceExtensionProperties("", &count, nil)); err != nil {
		return nil, err
	}
	props := make([]vk.ExtensionProperties, count)
	if err := check("vkEnumerateInstanceExtensionProperties", vk.EnumerateInstanceExtensionProperties("", &count, props)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, p := range props[:count] {
		p.Deref()
		names = append(names, vk.ToString(p.ExtensionName[:]))
	}
	return names, nil
}

// InstanceLayers implements core.Driver.
func (v *Vulkan) InstanceLayers() ([]string, error) {
	var count uint32
	if err := check("vkEnumerateInstanceLayerProperties", vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, err
	}
	props := make([]vk.LayerProperties, count)
	if err := check("vkEnumerateInstanceLayerProperties", vk.EnumerateInstanceLayerProperties(&count, props)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, p := range props[:count] {
		p.Deref()
		names = append(names, vk.ToString(p.LayerName[:]))
	}
	return names, nil
}

// CreateInstance implements core.Driver.
func (v *Vulkan) CreateInstance(info core.InstanceCreateInfo) (gfx.Handle, error) {
	extensions := cstrs(info.Extensions)
	layers := cstrs(info.Layers)
	ci := vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         vk.MakeVersion(1, 0, 0),
			ApplicationVersion: vk.MakeVersion(1, 0, 0),
			PApplicationName:   cstr(info.ApplicationName),
			EngineVersion:      EngineVersion,
			PEngineName:        cstr(info.EngineName),
		},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	var instance vk.Instance
	if err := check("vkCreateInstance", vk.CreateInstance(&ci, nil, &instance)); err != nil {
		return gfx.NullHandle, err
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return gfx.NullHandle, errors.Wrap(err, "vk.InitInstance")
	}
	return v.handles.put(instance), nil
}

// DestroyInstance implements core.Driver.
func (v *Vulkan) DestroyInstance(instance gfx.Handle) {
	inst, ok := lookup[vk.Instance](v.handles, instance)
	if !ok {
		v.stale("instance", instance)
		return
	}
	v.handles.remove(instance)
	vk.DestroyInstance(inst, nil)
}

// debugSeverity maps report flags to the severity of the message.
func debugSeverity(flags vk.DebugReportFlags) core.DebugSeverity {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		return core.SeverityError
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
		return core.SeverityWarning
	case flags&vk.DebugReportFlags(vk.DebugReportInformationBit) != 0:
		return core.SeverityInfo
	default:
		return core.SeverityVerbose
	}
}

// debugReportFlags selects every message class. The router drops what the
// logger level filters out.
func debugReportFlags() vk.DebugReportFlags {
	return vk.DebugReportFlags(vk.DebugReportErrorBit |
		vk.DebugReportWarningBit |
		vk.DebugReportPerformanceWarningBit |
		vk.DebugReportInformationBit |
		vk.DebugReportDebugBit)
}

// CreateDebugCallback implements core.Driver.
func (v *Vulkan) CreateDebugCallback(instance gfx.Handle, callback core.DebugCallback) (gfx.Handle, error) {
	inst, ok := lookup[vk.Instance](v.handles, instance)
	if !ok {
		return gfx.NullHandle, unknown("instance", instance)
	}
	ci := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: debugReportFlags(),
		PfnCallback: func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
			object uint64, location uint, messageCode int32, pLayerPrefix string,
			pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
			callback(core.DebugMessage{
				Severity: debugSeverity(flags),
				Layer:    pLayerPrefix,
				Code:     messageCode,
				Text:     pMessage,
			})
			return vk.Bool32(vk.False)
		},
	}
	var cb vk.DebugReportCallback
	if err := check("vkCreateDebugReportCallbackEXT", vk.CreateDebugReportCallback(inst, &ci, nil, &cb)); err != nil {
		return gfx.NullHandle, err
	}
	return v.handles.put(cb), nil
}

// DestroyDebugCallback implements core.Driver.
func (v *Vulkan) DestroyDebugCallback(instance, callback gfx.Handle) {
	inst, iok := lookup[vk.Instance](v.handles, instance)
	cb, ok := lookup[vk.DebugReportCallback](v.handles, callback)
	if !iok || !ok {
		v.stale("debug callback", callback)
		return
	}
	v.handles.remove(callback)
	vk.DestroyDebugReportCallback(inst, cb, nil)
}

// CreateSurface implements core.Driver. The window creates the surface,
// the driver takes ownership of it.
func (v *Vulkan) CreateSurface(instance gfx.Handle, window core.Window) (gfx.Handle, error) {
	inst, ok := lookup[vk.Instance](v.handles, instance)
	if !ok {
		return gfx.NullHandle, unknown("instance", instance)
	}
	ptr, err := window.CreateSurface(inst)
	if err != nil {
		return gfx.NullHandle, err
	}
	return v.handles.put(vk.SurfaceFromPointer(uintptr(ptr))), nil
}

// DestroySurface implements core.Driver.
func (v *Vulkan) DestroySurface(instance, surface gfx.Handle) {
	inst, iok := lookup[vk.Instance](v.handles, instance)
	s, ok := lookup[vk.Surface](v.handles, surface)
	if !iok || !ok {
		v.stale("surface", surface)
		return
	}
	v.handles.remove(surface)
	vk.DestroySurface(inst, s, nil)
}
