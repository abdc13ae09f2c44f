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
	"context"
	"fmt"

	"github.com/tochemey/silo/internal/metric"
	"github.com/tochemey/silo/log"
)

// ActivationScheduler runs the tasks of one activation in enqueue order,
// one at a time, on the shared Dispatcher.
type ActivationScheduler struct {
	name       string
	group      *WorkItemGroup
	logger     log.Logger
	metric     *metric.RuntimeMetric
	capacity   int
	throughput int
}

// SchedulerOption configures an ActivationScheduler
type SchedulerOption func(*ActivationScheduler)

// WithQueueCapacity bounds the queue. Enqueue fails with errors.ErrQueueFull
// once it holds capacity tasks.
func WithQueueCapacity(capacity int) SchedulerOption {
	return func(s *ActivationScheduler) {
		s.capacity = capacity
	}
}

// WithThroughput sets how many tasks a drain loop runs before yielding its
// goroutine. Zero means the loop runs until the queue is empty.
func WithThroughput(throughput int) SchedulerOption {
	return func(s *ActivationScheduler) {
		s.throughput = throughput
	}
}

// WithSchedulerLogger sets the logger
func WithSchedulerLogger(logger log.Logger) SchedulerOption {
	return func(s *ActivationScheduler) {
		s.logger = logger
	}
}

// NewActivationScheduler creates the scheduler of the named activation.
// The dispatcher inherits its logger and instruments.
func NewActivationScheduler(name string, dispatcher *Dispatcher, opts ...SchedulerOption) *ActivationScheduler {
	s := &ActivationScheduler{
		name:   name,
		logger: dispatcher.logger,
		metric: dispatcher.metric,
	}
	for _, opt := range opts {
		opt(s)
	}

	var queue taskQueue = newUnboundedQueue()
	if s.capacity > 0 {
		queue = newBoundedQueue(s.capacity)
	}

	s.group = newWorkItemGroup(name, queue, dispatcher, s.throughput, s.run)
	s.group.ctx = withCurrent(context.Background(), s)
	return s
}

// Enqueue appends the task to the queue and never blocks. It fails when
// the bounded queue is full or the dispatcher is not running.
func (s *ActivationScheduler) Enqueue(task Task) error {
	if task == nil {
		return nil
	}
	return s.group.enqueue(task)
}

// TryExecuteInline runs the task on the calling goroutine when the caller
// is the drain loop of this scheduler and the task was not queued before.
// It returns false when the task must be enqueued instead.
func (s *ActivationScheduler) TryExecuteInline(ctx context.Context, task Task, previouslyQueued bool) bool {
	if previouslyQueued || task == nil || Current(ctx) != s {
		return false
	}
	s.run(ctx, task)
	return true
}

// Len returns the number of queued tasks
func (s *ActivationScheduler) Len() int64 {
	return s.group.Len()
}

// IsEmpty reports whether no task is queued
func (s *ActivationScheduler) IsEmpty() bool {
	return s.group.Len() == 0
}

// IsDraining reports whether the drain loop is scheduled or running
func (s *ActivationScheduler) IsDraining() bool {
	return s.group.IsDraining()
}

// String describes the scheduler
func (s *ActivationScheduler) String() string {
	return fmt.Sprintf("ActivationScheduler(%s, queued=%d)", s.name, s.Len())
}

// Dispose releases the queue. Queued tasks are dropped.
func (s *ActivationScheduler) Dispose() {
	s.group.queue.dispose()
}

func (s *ActivationScheduler) run(ctx context.Context, task Task) {
	err := runTask(ctx, task)
	s.metric.RecordTask(ctx, err != nil)
	if err != nil {
		s.logger.Warnf("task of %s did not complete: %v", s.name, err)
	}
}
