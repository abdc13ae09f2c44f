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

package validation

import (
	"fmt"
	"math"
)

type rangeValidator struct {
	name     string
	value    float64
	min, max float64
}

// NewRangeValidator creates a validator that checks value lies in the closed interval [min, max].
// NaN is always rejected.
func NewRangeValidator(name string, value, min, max float64) Validator {
	return &rangeValidator{name: name, value: value, min: min, max: max}
}

// Validate implements Validator
func (v rangeValidator) Validate() error {
	if math.IsNaN(v.value) || v.value < v.min || v.value > v.max {
		return fmt.Errorf("%s must be in [%g, %g], got %g", v.name, v.min, v.max, v.value)
	}
	return nil
}

type positiveDurationValidator struct {
	name  string
	value int64
}

// NewPositiveValidator creates a validator that checks an integral setting is strictly positive
func NewPositiveValidator(name string, value int64) Validator {
	return &positiveDurationValidator{name: name, value: value}
}

// Validate implements Validator
func (v positiveDurationValidator) Validate() error {
	if v.value <= 0 {
		return fmt.Errorf("%s must be positive, got %d", v.name, v.value)
	}
	return nil
}
