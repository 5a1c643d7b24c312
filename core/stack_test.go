// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/kiln/core"
)

func TestReleaseStackUnwindsInReverse(t *testing.T) {
	c := qt.New(t)

	var released []string
	s := core.NewReleaseStack(quietLogger())
	for _, name := range []string{"instance", "device", "swapchain"} {
		name := name
		s.PushFunc(name, func() { released = append(released, name) })
	}
	c.Assert(s.Len(), qt.Equals, 3)
	c.Assert(s.Names(), qt.DeepEquals, []string{"instance", "device", "swapchain"})

	s.Unwind()
	c.Assert(released, qt.DeepEquals, []string{"swapchain", "device", "instance"})
	c.Assert(s.Len(), qt.Equals, 0)

	s.Unwind()
	c.Assert(released, qt.HasLen, 3)
}

func TestReleaseStackNil(t *testing.T) {
	var s *core.ReleaseStack
	s.Unwind()
}
