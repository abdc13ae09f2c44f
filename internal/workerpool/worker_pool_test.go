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

package workerpool

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	gerrors "github.com/tochemey/silo/errors"
)

func TestWorkerPool(t *testing.T) {
	t.Run("With happy path", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		pool := New(WithNumShards(256), WithPassivateAfter(50*time.Millisecond))
		pool.Start()
		pool.Start()
		require.Zero(t, pool.SpawnedWorkers())

		const workCount = 1000
		var executed atomic.Int64
		var wg sync.WaitGroup
		wg.Add(workCount)
		for i := range workCount {
			err := pool.SubmitWork(fmt.Sprintf("grain-%d", i%17), func() {
				defer wg.Done()
				time.Sleep(time.Millisecond)
				executed.Add(1)
			})
			require.NoError(t, err)
		}
		require.NotZero(t, pool.SpawnedWorkers())

		wg.Wait()
		assert.EqualValues(t, workCount, executed.Load())

		require.Eventually(t, func() bool {
			return pool.SpawnedWorkers() == 0
		}, 2*time.Second, 20*time.Millisecond)

		pool.Stop()
		pool.Stop()
	})
	t.Run("When not started", func(t *testing.T) {
		pool := New()
		err := pool.SubmitWork("grain", func() {})
		require.ErrorIs(t, err, gerrors.ErrDispatcherNotStarted)
		pool.Stop()
		require.False(t, pool.stopped.Load())
	})
	t.Run("When stopped", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		pool := New(WithNumShards(4))
		pool.Start()
		done := make(chan struct{})
		require.NoError(t, pool.SubmitWork("grain", func() { close(done) }))
		<-done
		pool.Stop()

		err := pool.SubmitWork("grain", func() {})
		require.ErrorIs(t, err, gerrors.ErrDispatcherNotStarted)
		require.Eventually(t, func() bool {
			return pool.SpawnedWorkers() == 0
		}, time.Second, 10*time.Millisecond)
	})
}
