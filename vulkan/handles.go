package vulkan

import (
	"sync"
	"sync/atomic"
)

// registry maps the opaque handles handed out to package vkquad to the
// native Vulkan objects they stand for. Handles are never reused.
type registry[T any] struct {
	mu      sync.Mutex
	counter *atomic.Uint64
	objects map[uint64]T
}

func newRegistry[T any](counter *atomic.Uint64) *registry[T] {
	return &registry[T]{counter: counter, objects: make(map[uint64]T)}
}

func (r *registry[T]) add(v T) uint64 {
	h := r.counter.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects[h] = v
	return h
}

func (r *registry[T]) get(h uint64) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.objects[h]
	return v, ok
}

// take removes h and returns what it stood for
func (r *registry[T]) take(h uint64) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.objects[h]
	delete(r.objects, h)
	return v, ok
}

func (r *registry[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.objects)
}
