// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package xsync

import "sync"

// Map is a generic, concurrency-safe map guarded by a read-write mutex.
type Map[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]V
}

// NewMap creates and returns a new instance of Map.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{
		data: make(map[K]V),
	}
}

// Set stores a key-value pair in the Map.
func (s *Map[K, V]) Set(k K, v V) {
	s.mu.Lock()
	s.data[k] = v
	s.mu.Unlock()
}

// Get retrieves the value associated with the given key.
func (s *Map[K, V]) Get(k K) (V, bool) {
	s.mu.RLock()
	val, ok := s.data[k]
	s.mu.RUnlock()
	return val, ok
}

// GetOrSet returns the existing value for the key when present.
// Otherwise it stores the value built by create and returns it.
// The loaded result is true when the value was already there.
func (s *Map[K, V]) GetOrSet(k K, create func() V) (actual V, loaded bool) {
	s.mu.RLock()
	val, ok := s.data[k]
	s.mu.RUnlock()
	if ok {
		return val, true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if val, ok = s.data[k]; ok {
		return val, true
	}
	val = create()
	s.data[k] = val
	return val, false
}

// Delete removes the key-value pair associated with the given key.
func (s *Map[K, V]) Delete(k K) {
	s.mu.Lock()
	delete(s.data, k)
	s.mu.Unlock()
}

// LoadAndDelete removes the key and returns the value it held.
func (s *Map[K, V]) LoadAndDelete(k K) (V, bool) {
	s.mu.Lock()
	val, ok := s.data[k]
	delete(s.data, k)
	s.mu.Unlock()
	return val, ok
}

// DeleteFunc removes the key when match returns true for its value.
// It reports whether the key was removed.
func (s *Map[K, V]) DeleteFunc(k K, match func(V) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.data[k]
	if !ok || !match(val) {
		return false
	}
	delete(s.data, k)
	return true
}

// Len returns the number of key-value pairs currently stored.
func (s *Map[K, V]) Len() int {
	s.mu.RLock()
	l := len(s.data)
	s.mu.RUnlock()
	return l
}

// Range calls f for every pair. The iteration order is not guaranteed and
// f must not write to the map.
func (s *Map[K, V]) Range(f func(K, V)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.data {
		f(k, v)
	}
}

// Values returns the values in the Map
func (s *Map[K, V]) Values() []V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	values := make([]V, 0, len(s.data))
	for _, v := range s.data {
		values = append(values, v)
	}
	return values
}

// Keys returns the keys in the Map
func (s *Map[K, V]) Keys() []K {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]K, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

// Reset clears all key-value pairs from the Map.
func (s *Map[K, V]) Reset() {
	s.mu.Lock()
	clear(s.data)
	s.mu.Unlock()
}
