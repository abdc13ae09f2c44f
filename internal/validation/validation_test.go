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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestValidation(t *testing.T) {
	t.Run("With all errors", func(t *testing.T) {
		err := New(AllErrors()).
			AddValidator(NewRangeValidator("cpu weight", 1.5, 0, 1)).
			AddValidator(NewEmptyStringValidator("host", " ")).
			AddAssertion(false, "weights must sum to 1").
			Validate()
		require.Error(t, err)
		assert.Len(t, multierr.Errors(err), 3)
	})
	t.Run("With fail fast", func(t *testing.T) {
		err := New(FailFast()).
			AddValidator(NewRangeValidator("margin", -0.1, 0, 1)).
			AddAssertion(false, "never reached").
			Validate()
		require.EqualError(t, err, "margin must be in [0, 1], got -0.1")
	})
	t.Run("With a valid chain", func(t *testing.T) {
		err := New().
			AddValidator(NewRangeValidator("margin", 0, 0, 1)).
			AddValidator(NewRangeValidator("cpu weight", 1, 0, 1)).
			AddValidator(NewPositiveValidator("period", 500)).
			AddValidator(NewEmptyStringValidator("host", "127.0.0.1")).
			AddAssertion(true, "ok").
			Validate()
		require.NoError(t, err)
	})
	t.Run("With NaN", func(t *testing.T) {
		require.Error(t, NewRangeValidator("jitter", math.NaN(), 0, 1).Validate())
	})
	t.Run("With a non positive value", func(t *testing.T) {
		require.EqualError(t, NewPositiveValidator("period", 0).Validate(), "period must be positive, got 0")
	})
}
