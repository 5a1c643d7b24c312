// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines the graphics value types shared between the bootstrap
// core and the drivers that implement it. Enumerations carry the same numeric
// values as their Vulkan counterparts so drivers can convert them directly.
package gfx

// Handle is an opaque reference to an object owned by a driver.
// The zero Handle is the null handle.
type Handle uint64

// NullHandle refers to no object.
const NullHandle Handle = 0

// Valid reports whether h refers to an object.
func (h Handle) Valid() bool {
	return h != NullHandle
}

// Releasable defines any memory-occupying item that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	Release()
}

// ReleaseFunc adapts an ordinary function into a Releasable.
type ReleaseFunc func()

// Release implements Releasable.
func (f ReleaseFunc) Release() {
	f()
}
