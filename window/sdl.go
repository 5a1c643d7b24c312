// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package window adapts SDL windows for presentation.
package window

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/kiln/core"
	"github.com/devblok/kiln/gfx"
)

// SDL presents into an SDL window created with the Vulkan flag.
type SDL struct {
	window *sdl.Window
}

var _ core.Window = (*SDL)(nil)

// New creates a Vulkan capable window centered on the screen.
func New(cfg core.WindowConfiguration) (*SDL, error) {
	w, err := sdl.CreateWindow(cfg.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width),
		int32(cfg.Height),
		sdl.WINDOW_VULKAN|sdl.WINDOW_SHOWN)
	if err != nil {
		return nil, errors.Wrap(err, "sdl.CreateWindow")
	}
	return &SDL{window: w}, nil
}

// Wrap adapts an existing SDL window.
func Wrap(w *sdl.Window) *SDL {
	return &SDL{window: w}
}

// Window returns the underlying SDL window.
func (s *SDL) Window() *sdl.Window {
	return s.window
}

// RequiredExtensions implements core.Window.
func (s *SDL) RequiredExtensions() []string {
	return s.window.VulkanGetInstanceExtensions()
}

// CreateSurface implements core.Window.
func (s *SDL) CreateSurface(instance interface{}) (unsafe.Pointer, error) {
	surface, err := s.window.VulkanCreateSurface(instance)
	if err != nil {
		return nil, errors.Wrap(err, "sdl.VulkanCreateSurface")
	}
	return surface, nil
}

// DrawableSize implements core.Window.
func (s *SDL) DrawableSize() gfx.Extent2D {
	w, h := s.window.VulkanGetDrawableSize()
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return gfx.Extent2D{Width: uint32(w), Height: uint32(h)}
}

// Destroy closes the window.
func (s *SDL) Destroy() error {
	return s.window.Destroy()
}
