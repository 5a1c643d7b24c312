// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/devblok/kiln/gfx"
)

// QueueFamilyIndices are the queue families a device renders and
// presents with.
type QueueFamilyIndices struct {
	Graphics      uint32
	Present       uint32
	GraphicsFound bool
	PresentFound  bool
}

// Complete reports whether both families were found.
func (q QueueFamilyIndices) Complete() bool {
	return q.GraphicsFound && q.PresentFound
}

// Shared reports whether rendering and presentation use the same family.
func (q QueueFamilyIndices) Shared() bool {
	return q.Complete() && q.Graphics == q.Present
}

// Unique returns the distinct family indices, graphics first.
func (q QueueFamilyIndices) Unique() []uint32 {
	if !q.Complete() {
		return nil
	}
	if q.Shared() {
		return []uint32{q.Graphics}
	}
	return []uint32{q.Graphics, q.Present}
}

// findQueueFamilies prefers a single family that can both render and
// present, otherwise it takes the first of each. Families without queues
// are skipped.
func findQueueFamilies(families []QueueFamily) QueueFamilyIndices {
	var idx QueueFamilyIndices
	for _, f := range families {
		if f.Count == 0 {
			continue
		}
		graphics := f.Flags&gfx.QueueGraphics != 0
		if graphics && f.Present {
			return QueueFamilyIndices{
				Graphics:      f.Index,
				Present:       f.Index,
				GraphicsFound: true,
				PresentFound:  true,
			}
		}
		if graphics && !idx.GraphicsFound {
			idx.Graphics, idx.GraphicsFound = f.Index, true
		}
		if f.Present && !idx.PresentFound {
			idx.Present, idx.PresentFound = f.Index, true
		}
	}
	return idx
}

// PhysicalDeviceInfo describes available physical properties of a rendering
// device. It is captured once and never re-queried.
type PhysicalDeviceInfo struct {
	DeviceProperties

	Handle gfx.Handle
	// Index is the position of the device in enumeration order.
	Index         int
	Extensions    []string
	QueueFamilies []QueueFamily
	Queues        QueueFamilyIndices
	Surface       SwapchainSupport

	// Invalid is set when the device could not be queried, Reason
	// says why.
	Invalid bool
	Reason  string
}

// SampleCounts returns the sample counts usable for both color and depth.
func (p PhysicalDeviceInfo) SampleCounts() gfx.SampleCountFlags {
	return p.ColorSampleCounts & p.DepthSampleCounts
}

// MaxUsableSampleCount returns the highest sample count usable for both
// color and depth.
func (p PhysicalDeviceInfo) MaxUsableSampleCount() gfx.SampleCount {
	return p.SampleCounts().Max()
}

// EnumerateDevices returns a snapshot of every physical device. When
// surface is nil, no device reports presentation support.
func EnumerateDevices(instance *Instance, surface *Surface) ([]PhysicalDeviceInfo, error) {
	driver := instance.driver
	handles, err := driver.PhysicalDevices(instance.handle)
	if err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}

	infos := make([]PhysicalDeviceInfo, len(handles))
	for i, h := range handles {
		info := &infos[i]
		info.Handle = h
		info.Index = i

		if info.DeviceProperties, err = driver.PhysicalDeviceProperties(h); err != nil {
			info.invalidate("properties", err)
			continue
		}
		if info.Extensions, err = driver.DeviceExtensions(h); err != nil {
			info.invalidate("extensions", err)
			continue
		}
		if info.QueueFamilies, err = driver.QueueFamilies(h, surface.Handle()); err != nil {
			info.invalidate("queue families", err)
			continue
		}
		info.Queues = findQueueFamilies(info.QueueFamilies)
		if surface == nil {
			continue
		}
		if info.Surface, err = driver.SwapchainSupport(h, surface.Handle()); err != nil {
			info.invalidate("surface support", err)
		}
	}
	return infos, nil
}

func (p *PhysicalDeviceInfo) invalidate(query string, err error) {
	p.Invalid = true
	p.Reason = fmt.Sprintf("querying %s: %v", query, err)
}

// Requirements are the capabilities a physical device must have.
type Requirements struct {
	Extensions []string
	// PreferredName picks the first suitable device whose name contains
	// it, ignoring case.
	PreferredName string
}

// unsuitable returns why the device cannot be used, or "" if it can.
func (p PhysicalDeviceInfo) unsuitable(req Requirements) string {
	switch {
	case p.Invalid:
		return p.Reason
	case !p.Queues.GraphicsFound:
		return "no graphics queue family"
	case !p.Queues.PresentFound:
		return "no present queue family"
	}
	if miss := missing(req.Extensions, p.Extensions); len(miss) > 0 {
		return "missing extensions " + strings.Join(miss, ", ")
	}
	if len(p.Surface.Formats) == 0 {
		return "no surface formats"
	}
	if len(p.Surface.PresentModes) == 0 {
		return "no present modes"
	}
	return ""
}

var deviceTypeScore = map[gfx.DeviceType]int{
	gfx.DeviceTypeDiscreteGPU:   4,
	gfx.DeviceTypeIntegratedGPU: 3,
	gfx.DeviceTypeVirtualGPU:    2,
	gfx.DeviceTypeCPU:           1,
	gfx.DeviceTypeOther:         0,
}

// score ranks suitable devices. The device type decides, a shared render
// and present family breaks ties within a type.
func (p PhysicalDeviceInfo) score() int {
	s := deviceTypeScore[p.Type] * 10
	if p.Queues.Shared() {
		s++
	}
	return s
}

// SelectPhysicalDevice picks the device to render with. Devices lacking a
// graphics or present family, a required extension, surface formats or
// present modes are rejected. Of the rest the highest score wins, and the
// first enumerated wins among equal scores.
func SelectPhysicalDevice(instance *Instance, surface *Surface, req Requirements) (PhysicalDeviceInfo, error) {
	log := instance.log
	if surface == nil {
		return PhysicalDeviceInfo{}, fail(ErrNoSuitableDevice, nil, "select physical device: no surface")
	}
	devices, err := EnumerateDevices(instance, surface)
	if err != nil {
		return PhysicalDeviceInfo{}, fail(ErrNoSuitableDevice, err, "select physical device")
	}

	best, bestScore, preferred := -1, -1, -1
	var rejections []string
	for i, d := range devices {
		if reason := d.unsuitable(req); reason != "" {
			log.WithFields(logrus.Fields{
				"device": d.Name,
				"reason": reason,
			}).Debug("physical device rejected")
			rejections = append(rejections, fmt.Sprintf("%d %q: %s", i, d.Name, reason))
			continue
		}
		if req.PreferredName != "" && preferred < 0 && containsFold(d.Name, req.PreferredName) {
			preferred = i
		}
		if s := d.score(); s > bestScore {
			best, bestScore = i, s
		}
	}

	if best < 0 {
		err := fail(ErrNoSuitableDevice, nil, "select physical device: none of %d devices qualify", len(devices))
		for _, r := range rejections {
			err = errors.WithDetail(err, r)
		}
		return PhysicalDeviceInfo{}, err
	}
	if req.PreferredName != "" {
		if preferred >= 0 {
			best = preferred
		} else {
			log.WithField("preferred", req.PreferredName).Warn("preferred device not found or unsuitable")
		}
	}

	selected := devices[best]
	log.WithFields(logrus.Fields{
		"device":   selected.Name,
		"type":     selected.Type,
		"graphics": selected.Queues.Graphics,
		"present":  selected.Queues.Present,
	}).Info("selected physical device")
	return selected, nil
}
