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

package actor

import (
	"reflect"

	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/internal/xsync"
)

// CanInterleave decides whether a message may run while another one is in
// flight on the same activation. It is the only component a stateless
// worker pool accepts, and it is shared by every worker of the kind.
type CanInterleave func(message *Message) bool

// GetComponent returns the component of type T registered on the grain context
func GetComponent[T any](grainCtx GrainContext) (T, bool) {
	var zero T
	value, ok := grainCtx.GetComponent(reflect.TypeFor[T]())
	if !ok {
		return zero, false
	}
	typed, ok := value.(T)
	return typed, ok
}

// SetComponent registers value as the component of type T of the grain context
func SetComponent[T any](grainCtx GrainContext, value T) error {
	var boxed any = value
	if isNil(boxed) {
		boxed = nil
	}
	return grainCtx.SetComponent(reflect.TypeFor[T](), boxed)
}

// components is a typed component bag
type components struct {
	values *xsync.Map[reflect.Type, any]
}

func newComponents() *components {
	return &components{values: xsync.NewMap[reflect.Type, any]()}
}

func (c *components) get(key reflect.Type) (any, bool) {
	return c.values.Get(key)
}

func (c *components) set(key reflect.Type, value any) error {
	if key == nil {
		return gerrors.ErrInvalidComponent
	}

	if isNil(value) {
		c.values.Delete(key)
		return nil
	}

	if !reflect.TypeOf(value).AssignableTo(key) {
		return gerrors.ErrInvalidComponent
	}

	c.values.Set(key, value)
	return nil
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}
