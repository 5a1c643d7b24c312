// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

type fakeInstance struct{ name string }

type fakeDevice struct{ name string }

func TestHandleTable(t *testing.T) {
	c := qt.New(t)

	table := newHandleTable()
	instance := &fakeInstance{"instance"}
	h := table.put(instance)
	c.Assert(h.Valid(), qt.IsTrue)

	got, ok := lookup[*fakeInstance](table, h)
	c.Assert(ok, qt.IsTrue)
	c.Assert(got, qt.Equals, instance)

	_, ok = lookup[*fakeDevice](table, h)
	c.Assert(ok, qt.IsFalse)

	gpu := &fakeDevice{"gpu"}
	first := table.child(h, gpu)
	c.Assert(table.child(h, gpu), qt.Equals, first)
	second := table.child(h, &fakeDevice{"other"})
	c.Assert(second, qt.Not(qt.Equals), first)
	c.Assert(table.len(), qt.Equals, 3)

	obj, ok := table.remove(h)
	c.Assert(ok, qt.IsTrue)
	c.Assert(obj, qt.Equals, instance)
	c.Assert(table.len(), qt.Equals, 0)
	_, ok = lookup[*fakeDevice](table, first)
	c.Assert(ok, qt.IsFalse)

	_, ok = table.remove(h)
	c.Assert(ok, qt.IsFalse)
}

func TestHandlesAreNeverReused(t *testing.T) {
	c := qt.New(t)

	table := newHandleTable()
	a := table.put(1)
	table.remove(a)
	b := table.put(1)
	c.Assert(b, qt.Not(qt.Equals), a)
}
