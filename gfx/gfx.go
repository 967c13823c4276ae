// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines rendering related features that renderers must implement.
package gfx

import "sync"

// Releasable defines any memory-occupying item that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	Release()
}

// ReleaseFunc adapts a plain function to Releasable.
type ReleaseFunc func()

// Release implements Releasable.
func (f ReleaseFunc) Release() {
	f()
}

// ReleaseStack owns a set of resources and frees them in the
// reverse order they were pushed. Resources that depend on others
// must be pushed after their dependencies.
type ReleaseStack struct {
	mutex sync.Mutex
	items []Releasable
}

// Push takes ownership of r.
func (s *ReleaseStack) Push(r Releasable) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.items = append(s.items, r)
}

// PushFunc takes ownership of a resource represented by its release function.
func (s *ReleaseStack) PushFunc(f func()) {
	s.Push(ReleaseFunc(f))
}

// Len returns the number of resources still owned.
func (s *ReleaseStack) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.items)
}

// Release frees every owned resource, last pushed first.
// The stack is empty afterwards and can be reused.
func (s *ReleaseStack) Release() {
	s.mutex.Lock()
	items := s.items
	s.items = nil
	s.mutex.Unlock()

	for idx := len(items) - 1; idx >= 0; idx-- {
		items[idx].Release()
	}
}
