// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/sirupsen/logrus"

	"github.com/devblok/kiln/gfx"
)

// SwapchainPreferences are the choices made when the surface allows them.
type SwapchainPreferences struct {
	Format      gfx.SurfaceFormat
	PresentMode gfx.PresentMode
}

// SwapchainProperties are the negotiated parameters of a swapchain.
type SwapchainProperties struct {
	Format         gfx.SurfaceFormat
	PresentMode    gfx.PresentMode
	Extent         gfx.Extent2D
	MinImageCount  uint32
	MaxImageCount  uint32
	PreTransform   gfx.SurfaceTransform
	CompositeAlpha gfx.CompositeAlpha
}

// presentModeOrder is the fallback order when the preferred mode is not
// supported. FIFO is always available.
var presentModeOrder = []gfx.PresentMode{
	gfx.PresentModeMailbox,
	gfx.PresentModeFifoRelaxed,
	gfx.PresentModeFifo,
}

var compositeAlphaOrder = []gfx.CompositeAlpha{
	gfx.CompositeAlphaOpaque,
	gfx.CompositeAlphaPreMultiplied,
	gfx.CompositeAlphaPostMultiplied,
	gfx.CompositeAlphaInherit,
}

// ChooseSwapchainProperties negotiates swapchain parameters from what the
// surface supports. window is the drawable size of the window, used when
// the surface leaves the extent to the swapchain.
func ChooseSwapchainProperties(support SwapchainSupport, window gfx.Extent2D, prefs SwapchainPreferences) SwapchainProperties {
	caps := support.Capabilities
	return SwapchainProperties{
		Format:         chooseSurfaceFormat(support.Formats, prefs.Format),
		PresentMode:    choosePresentMode(support.PresentModes, prefs.PresentMode),
		Extent:         chooseExtent(caps, window),
		MinImageCount:  caps.MinImageCount,
		MaxImageCount:  caps.MaxImageCount,
		PreTransform:   choosePreTransform(caps),
		CompositeAlpha: chooseCompositeAlpha(caps.SupportedCompositeAlpha),
	}
}

func chooseSurfaceFormat(formats []gfx.SurfaceFormat, preferred gfx.SurfaceFormat) gfx.SurfaceFormat {
	if len(formats) == 0 {
		return preferred
	}
	// A lone undefined format means the surface takes any format.
	if len(formats) == 1 && formats[0].Format == gfx.FormatUndefined {
		return preferred
	}
	for _, f := range formats {
		if f == preferred {
			return f
		}
	}
	return formats[0]
}

func choosePresentMode(modes []gfx.PresentMode, preferred gfx.PresentMode) gfx.PresentMode {
	supported := func(mode gfx.PresentMode) bool {
		for _, m := range modes {
			if m == mode {
				return true
			}
		}
		return false
	}
	if supported(preferred) {
		return preferred
	}
	for _, mode := range presentModeOrder {
		if supported(mode) {
			return mode
		}
	}
	return gfx.PresentModeFifo
}

func chooseExtent(caps SurfaceCapabilities, window gfx.Extent2D) gfx.Extent2D {
	extent := caps.CurrentExtent
	if extent.Width == gfx.UndefinedExtent {
		extent = window
	}
	return gfx.Extent2D{
		Width:  clamp(extent.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(extent.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func clamp(v, min, max uint32) uint32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func choosePreTransform(caps SurfaceCapabilities) gfx.SurfaceTransform {
	if caps.SupportedTransforms&gfx.SurfaceTransformIdentity != 0 {
		return gfx.SurfaceTransformIdentity
	}
	return caps.CurrentTransform
}

func chooseCompositeAlpha(supported gfx.CompositeAlpha) gfx.CompositeAlpha {
	for _, a := range compositeAlphaOrder {
		if supported&a != 0 {
			return a
		}
	}
	return gfx.CompositeAlphaOpaque
}

// ChooseImageCount returns max(min+1, hint) limited to max. A max of 0
// means there is no limit.
func ChooseImageCount(min, max, hint uint32) uint32 {
	count := min + 1
	if hint > count {
		count = hint
	}
	if max != 0 && count > max {
		count = max
	}
	return count
}

// Swapchain is a ring of presentable images.
type Swapchain struct {
	device     *Device
	handle     gfx.Handle
	properties SwapchainProperties

	// Images are owned by the swapchain and released with it.
	Images []gfx.Handle
}

// CreateSwapchain creates a swapchain for surface with the negotiated
// properties. imageCountHint asks for more images than the minimum.
func CreateSwapchain(device *Device, surface *Surface, props SwapchainProperties, imageCountHint uint32) (*Swapchain, error) {
	driver := device.driver()
	count := ChooseImageCount(props.MinImageCount, props.MaxImageCount, imageCountHint)

	var families []uint32
	if queues := device.physical.Queues; !queues.Shared() {
		families = queues.Unique()
	}

	handle, err := driver.CreateSwapchain(device.handle, SwapchainCreateInfo{
		Surface:        surface.Handle(),
		MinImageCount:  count,
		Format:         props.Format,
		Extent:         props.Extent,
		PresentMode:    props.PresentMode,
		PreTransform:   props.PreTransform,
		CompositeAlpha: props.CompositeAlpha,
		QueueFamilies:  families,
	})
	if err != nil {
		return nil, fail(ErrSwapchainCreationFailed, err, "create swapchain")
	}

	images, err := driver.SwapchainImages(device.handle, handle)
	if err != nil {
		driver.DestroySwapchain(device.handle, handle)
		return nil, fail(ErrSwapchainCreationFailed, err, "create swapchain: get images")
	}

	device.log().WithFields(logrus.Fields{
		"format":  props.Format,
		"present": props.PresentMode,
		"extent":  props.Extent,
		"images":  len(images),
	}).Info("swapchain created")
	return &Swapchain{
		device:     device,
		handle:     handle,
		properties: props,
		Images:     images,
	}, nil
}

// Handle returns the driver handle of the swapchain.
func (s *Swapchain) Handle() gfx.Handle {
	return s.handle
}

// Properties returns the properties the swapchain was created with.
func (s *Swapchain) Properties() SwapchainProperties {
	return s.properties
}

// Destroy destroys the swapchain along with its images.
func (s *Swapchain) Destroy() {
	if s == nil || !s.handle.Valid() {
		return
	}
	s.device.driver().DestroySwapchain(s.device.handle, s.handle)
	s.handle = gfx.NullHandle
	s.Images = nil
}

// ImageView is a color view of a single swapchain image.
type ImageView struct {
	device *Device
	handle gfx.Handle
	image  gfx.Handle
}

// CreateImageViews creates a 2D view for every image. When one of them
// fails, the views created before it are destroyed.
func CreateImageViews(device *Device, images []gfx.Handle, format gfx.Format) ([]*ImageView, error) {
	driver := device.driver()
	views := make([]*ImageView, 0, len(images))
	for i, image := range images {
		handle, err := driver.CreateImageView(device.handle, ImageViewCreateInfo{
			Image:  image,
			Format: format,
		})
		if err != nil {
			DestroyImageViews(views)
			return nil, fail(ErrImageViewCreationFailed, err, "create image view %d of %d", i+1, len(images))
		}
		views = append(views, &ImageView{
			device: device,
			handle: handle,
			image:  image,
		})
	}
	return views, nil
}

// DestroyImageViews destroys views in reverse order.
func DestroyImageViews(views []*ImageView) {
	for i := len(views) - 1; i >= 0; i-- {
		views[i].Destroy()
	}
}

// Handle returns the driver handle of the view.
func (v *ImageView) Handle() gfx.Handle {
	return v.handle
}

// Image returns the image the view was created for.
func (v *ImageView) Image() gfx.Handle {
	return v.image
}

// Destroy destroys the view.
func (v *ImageView) Destroy() {
	if v == nil || !v.handle.Valid() {
		return
	}
	v.device.driver().DestroyImageView(v.device.handle, v.handle)
	v.handle = gfx.NullHandle
}
