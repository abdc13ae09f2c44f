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

// Package requestcontext carries request scoped values alongside a message:
// placement hints, call chain identifiers and the like.
package requestcontext

import (
	"context"
	"maps"
)

// Data is the request scoped key/value bag attached to a message
type Data map[string]any

type contextKey struct{}

// New returns an empty Data
func New() Data {
	return make(Data)
}

// Get returns the value stored under key
func (d Data) Get(key string) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d[key]
	return v, ok
}

// Set stores value under key
func (d Data) Set(key string, value any) {
	d[key] = value
}

// Clone returns a shallow copy. Cloning nil returns nil.
func (d Data) Clone() Data {
	if d == nil {
		return nil
	}
	return maps.Clone(d)
}

// NewContext returns a child context carrying data
func NewContext(ctx context.Context, data Data) context.Context {
	return context.WithValue(ctx, contextKey{}, data)
}

// FromContext returns the Data carried by ctx, or nil
func FromContext(ctx context.Context) Data {
	data, _ := ctx.Value(contextKey{}).(Data)
	return data
}
