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

package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	t.Run("With NoCompatibleNodeError", func(t *testing.T) {
		err := NewNoCompatibleNodeError("counter/1")
		require.EqualError(t, err, "no compatible node for grain counter/1")
		assert.ErrorIs(t, err, ErrNoCompatibleNode)
	})
	t.Run("With ConfigurationError", func(t *testing.T) {
		cause := errors.New("weights must sum to 1")
		err := NewConfigurationError(cause)
		require.EqualError(t, err, "invalid configuration: weights must sum to 1")
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
		assert.ErrorIs(t, err, cause)
	})
	t.Run("With RejectionError", func(t *testing.T) {
		cause := errors.New("activation timed out")
		err := NewRejectionError(RejectionTransient, "exception while creating grain context", cause)
		require.EqualError(t, err, "message rejected (Transient): exception while creating grain context: activation timed out")
		assert.True(t, err.Transient())
		assert.Equal(t, RejectionTransient, err.Kind())
		assert.ErrorIs(t, err, cause)

		permanent := NewRejectionError(RejectionPermanent, "unknown grain", nil)
		require.EqualError(t, permanent, "message rejected (Permanent): unknown grain")
		assert.False(t, permanent.Transient())
	})
	t.Run("With AggregateDisposalError", func(t *testing.T) {
		require.Nil(t, NewAggregateDisposalError(nil, nil))

		first := errors.New("worker 1")
		second := errors.New("worker 2")
		err := NewAggregateDisposalError(first, nil, second)
		require.NotNil(t, err)
		require.Len(t, err.Errors(), 2)
		assert.ErrorIs(t, err, first)
		assert.ErrorIs(t, err, second)
		require.EqualError(t, err, "2 disposal(s) failed: worker 1; worker 2")
	})
	t.Run("With PanicError", func(t *testing.T) {
		cause := fmt.Errorf("boom")
		err := NewPanicError(cause)
		require.EqualError(t, err, "panic: boom")
		assert.ErrorIs(t, err, cause)
	})
	t.Run("With canceled errors", func(t *testing.T) {
		assert.True(t, IsCanceled(context.Canceled))
		assert.True(t, IsCanceled(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
		assert.False(t, IsCanceled(ErrQueueFull))
	})
}
