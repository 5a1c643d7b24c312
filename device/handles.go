// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"sync"

	"github.com/devblok/kiln/gfx"
)

// handleTable hands out opaque handles for native objects. Objects put
// with a parent are released together with it.
type handleTable struct {
	mutex    sync.Mutex
	next     gfx.Handle
	objects  map[gfx.Handle]interface{}
	children map[gfx.Handle][]gfx.Handle
}

func newHandleTable() *handleTable {
	return &handleTable{
		objects:  make(map[gfx.Handle]interface{}),
		children: make(map[gfx.Handle][]gfx.Handle),
	}
}

func (t *handleTable) put(obj interface{}) gfx.Handle {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.insert(obj)
}

func (t *handleTable) insert(obj interface{}) gfx.Handle {
	t.next++
	t.objects[t.next] = obj
	return t.next
}

// child returns the handle of obj under parent, registering it on first use.
func (t *handleTable) child(parent gfx.Handle, obj interface{}) gfx.Handle {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	for _, h := range t.children[parent] {
		if t.objects[h] == obj {
			return h
		}
	}
	h := t.insert(obj)
	t.children[parent] = append(t.children[parent], h)
	return h
}

func (t *handleTable) get(h gfx.Handle) (interface{}, bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	obj, ok := t.objects[h]
	return obj, ok
}

// remove forgets h and everything registered under it.
func (t *handleTable) remove(h gfx.Handle) (interface{}, bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	obj, ok := t.objects[h]
	if !ok {
		return nil, false
	}
	t.drop(h)
	return obj, true
}

func (t *handleTable) drop(h gfx.Handle) {
	for _, c := range t.children[h] {
		t.drop(c)
	}
	delete(t.children, h)
	delete(t.objects, h)
}

func (t *handleTable) len() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.objects)
}

// lookup returns the object behind h if it is a T.
func lookup[T any](t *handleTable, h gfx.Handle) (T, bool) {
	var zero T
	obj, ok := t.get(h)
	if !ok {
		return zero, false
	}
	v, ok := obj.(T)
	return v, ok
}
