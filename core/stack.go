// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/sirupsen/logrus"

	"github.com/devblok/kiln/gfx"
)

// ReleaseStack owns a set of resources and releases them in the reverse
// order of their acquisition.
type ReleaseStack struct {
	log     logrus.FieldLogger
	entries []stackEntry
}

type stackEntry struct {
	name     string
	resource gfx.Releasable
}

// NewReleaseStack creates an empty stack. Releases are logged to log,
// which may be nil.
func NewReleaseStack(log logrus.FieldLogger) *ReleaseStack {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReleaseStack{log: log}
}

// Push takes ownership of resource.
func (s *ReleaseStack) Push(name string, resource gfx.Releasable) {
	s.entries = append(s.entries, stackEntry{name: name, resource: resource})
}

// PushFunc takes ownership of whatever release frees.
func (s *ReleaseStack) PushFunc(name string, release func()) {
	s.Push(name, gfx.ReleaseFunc(release))
}

// Len returns the number of resources owned by the stack.
func (s *ReleaseStack) Len() int {
	return len(s.entries)
}

// Names lists the owned resources in acquisition order.
func (s *ReleaseStack) Names() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.name
	}
	return names
}

// Unwind releases every owned resource, newest first. The stack is empty
// afterwards, so Unwind can be called more than once.
func (s *ReleaseStack) Unwind() {
	if s == nil {
		return
	}
	for len(s.entries) > 0 {
		last := len(s.entries) - 1
		e := s.entries[last]
		s.entries = s.entries[:last]
		s.log.WithField("resource", e.name).Debug("releasing")
		e.resource.Release()
	}
}
