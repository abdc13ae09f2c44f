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

package scheduler

import (
	gods "github.com/Workiva/go-datastructures/queue"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/internal/queue"
)

// taskQueue is the private queue of an activation. Push may be called
// concurrently; pop only from the drain loop.
type taskQueue interface {
	push(task Task) error
	pop() (Task, bool)
	len() int64
	isEmpty() bool
	dispose()
}

type unboundedQueue struct {
	underlying *queue.Mpsc[Task]
}

func newUnboundedQueue() *unboundedQueue {
	return &unboundedQueue{underlying: queue.NewMpsc[Task]()}
}

func (q *unboundedQueue) push(task Task) error {
	q.underlying.Push(task)
	return nil
}

func (q *unboundedQueue) pop() (Task, bool) { return q.underlying.Pop() }
func (q *unboundedQueue) len() int64        { return q.underlying.Len() }
func (q *unboundedQueue) isEmpty() bool     { return q.underlying.IsEmpty() }
func (q *unboundedQueue) dispose()          {}

// boundedQueue rejects instead of blocking when full. The ring buffer
// rounds its size up to a power of two, so slots are reserved against the
// requested capacity before offering.
type boundedQueue struct {
	underlying *gods.RingBuffer
	capacity   int64
	reserved   *atomic.Int64
}

func newBoundedQueue(capacity int) *boundedQueue {
	return &boundedQueue{
		underlying: gods.NewRingBuffer(uint64(capacity)),
		capacity:   int64(capacity),
		reserved:   atomic.NewInt64(0),
	}
}

func (q *boundedQueue) push(task Task) error {
	if q.reserved.Inc() > q.capacity {
		q.reserved.Dec()
		return gerrors.ErrQueueFull
	}

	ok, err := q.underlying.Offer(task)
	if err != nil {
		q.reserved.Dec()
		return gerrors.ErrDisposed
	}
	if !ok {
		q.reserved.Dec()
		return gerrors.ErrQueueFull
	}
	return nil
}

func (q *boundedQueue) pop() (Task, bool) {
	if q.underlying.Len() == 0 {
		return nil, false
	}
	item, err := q.underlying.Get()
	if err != nil {
		return nil, false
	}
	q.reserved.Dec()
	task, ok := item.(Task)
	return task, ok
}

func (q *boundedQueue) len() int64    { return int64(q.underlying.Len()) }
func (q *boundedQueue) isEmpty() bool { return q.underlying.Len() == 0 }
func (q *boundedQueue) dispose()      { q.underlying.Dispose() }
