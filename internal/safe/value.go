// Copyright 2024 The MaxMQ Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package safe

import "sync"

// Value represent a value which can be used concurrently.
type Value[T any] struct {
	mu    sync.RWMutex
	value T
}

// NewValue creates a new instance of the Value.
func NewValue[T any](val T) *Value[T] {
	return &Value[T]{value: val}
}

// Load loads the value. This function is thread-safe.
func (v *Value[T]) Load() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Store stores a new value. This function is thread-safe.
func (v *Value[T]) Store(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = val
}

// Swap stores a new value and returns the previous one. This function is thread-safe.
func (v *Value[T]) Swap(val T) (old T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	old, v.value = v.value, val
	return old
}

// Update replaces the value with the result of fn, which receives the current value, and returns
// the new value. The value is locked while fn runs, so fn must not call other methods of v.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = fn(v.value)
	return v.value
}
