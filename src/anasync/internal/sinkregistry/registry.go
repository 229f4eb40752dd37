// Package sinkregistry provides an ordered, keyed set of subscribers that tolerates mutation while being iterated.
package sinkregistry

import (
	"fmt"
	"sync"
)

// Registration is one entry of a Snapshot.
type Registration[K comparable, V any] struct {
	Key   K
	Value V

	seq uint64
}

type slot[V any] struct {
	value V
	seq   uint64
}

// Registry keeps values in registration order, at most one per key. It is safe for concurrent use.
type Registry[K comparable, V any] struct {
	mu    sync.RWMutex
	order []K
	slots map[K]slot[V]
	seq   uint64
}

// New creates an empty Registry.
func New[K comparable, V any]() *Registry[K, V] {
	return &Registry[K, V]{
		slots: make(map[K]slot[V]),
	}
}

// Add registers value under key. If key is already registered the existing value is kept and returned with false.
func (r *Registry[K, V]) Add(key K, value V) (V, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.slots[key]; ok {
		return s.value, false
	}
	r.seq++
	r.slots[key] = slot[V]{value: value, seq: r.seq}
	r.order = append(r.order, key)
	return value, true
}

// Set registers value under key, replacing an existing value in place. A replaced value is a new registration.
func (r *Registry[K, V]) Set(key K, value V) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.slots[key]; !ok {
		r.order = append(r.order, key)
	}
	r.seq++
	r.slots[key] = slot[V]{value: value, seq: r.seq}
}

// Get returns the value registered under key.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.slots[key]
	return s.value, ok
}

// Remove unregisters key and returns the removed value.
func (r *Registry[K, V]) Remove(key K) (V, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[key]
	if !ok {
		return s.value, false
	}
	r.removeLocked(key)
	return s.value, true
}

func (r *Registry[K, V]) removeLocked(key K) {
	delete(r.slots, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered values.
func (r *Registry[K, V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Snapshot returns the current registrations in registration order. Later mutations do not affect the result.
func (r *Registry[K, V]) Snapshot() []Registration[K, V] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Registration[K, V], 0, len(r.order))
	for _, k := range r.order {
		s := r.slots[k]
		result = append(result, Registration[K, V]{Key: k, Value: s.value, seq: s.seq})
	}
	return result
}

// Active reports whether reg, taken from a Snapshot, is still registered. A key removed and added again is a new
// registration.
func (r *Registry[K, V]) Active(reg Registration[K, V]) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.slots[reg.Key]
	return ok && s.seq == reg.seq
}

// RemoveRegistration unregisters reg if it is still active.
func (r *Registry[K, V]) RemoveRegistration(reg Registration[K, V]) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[reg.Key]
	if !ok || s.seq != reg.seq {
		return false
	}
	r.removeLocked(reg.Key)
	return true
}

// Clear removes every registration.
func (r *Registry[K, V]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = nil
	r.slots = make(map[K]slot[V])
}

// Lookup returns the value under key as a T.
func Lookup[T any, K comparable, V any](r *Registry[K, V], key K) (T, bool) {
	v, ok := r.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := any(v).(T)
	return t, ok
}

// GetOrAdd returns the T registered under key, registering the result of create if none is. It fails if the key is
// registered with a value of another type or if T cannot be stored as a V.
func GetOrAdd[T any, K comparable, V any](r *Registry[K, V], key K, create func() T) (T, error) {
	var zero T
	if existing, ok := r.Get(key); ok {
		t, ok := any(existing).(T)
		if !ok {
			return zero, fmt.Errorf("key %v holds %T, not %T", key, existing, zero)
		}
		return t, nil
	}

	created := create()
	v, ok := any(created).(V)
	if !ok {
		return zero, fmt.Errorf("%T cannot be registered as %T", created, v)
	}
	stored, _ := r.Add(key, v)
	t, ok := any(stored).(T)
	if !ok {
		return zero, fmt.Errorf("key %v holds %T, not %T", key, stored, zero)
	}
	return t, nil
}
