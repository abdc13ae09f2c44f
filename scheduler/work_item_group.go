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

	"go.uber.org/atomic"

	gerrors "github.com/tochemey/silo/errors"
)

const (
	idle int32 = iota
	busy
)

// WorkItemGroup is the ordered queue of one activation and its drain
// state. At most one drain loop runs at any time: the loop is submitted to
// the Dispatcher on the idle to busy transition only.
type WorkItemGroup struct {
	name       string
	queue      taskQueue
	state      *atomic.Int32
	dispatcher *Dispatcher
	throughput int
	execute    func(ctx context.Context, task Task)
	ctx        context.Context
}

func newWorkItemGroup(name string, queue taskQueue, dispatcher *Dispatcher, throughput int, execute func(context.Context, Task)) *WorkItemGroup {
	return &WorkItemGroup{
		name:       name,
		queue:      queue,
		state:      atomic.NewInt32(idle),
		dispatcher: dispatcher,
		throughput: throughput,
		execute:    execute,
		ctx:        context.Background(),
	}
}

// enqueue appends the task and schedules a drain loop when none is running.
// A task whose enqueue failed is never executed.
func (g *WorkItemGroup) enqueue(task Task) error {
	if !g.dispatcher.IsRunning() {
		return gerrors.ErrDispatcherNotStarted
	}
	if err := g.queue.push(task); err != nil {
		return err
	}
	return g.schedule()
}

func (g *WorkItemGroup) schedule() error {
	if !g.state.CompareAndSwap(idle, busy) {
		return nil
	}

	if err := g.dispatcher.submit(g.name, g.drain); err != nil {
		// the dispatcher stopped: no drain loop will ever run, drop the queue
		for {
			if _, ok := g.queue.pop(); !ok {
				break
			}
		}
		g.state.Store(idle)
		return err
	}
	return nil
}

// drain runs queued tasks one at a time. After throughput tasks it hands
// the goroutine back to the pool and reschedules itself.
func (g *WorkItemGroup) drain() {
	executed := 0
	for {
		if task, ok := g.queue.pop(); ok {
			g.execute(g.ctx, task)
			executed++
			if g.throughput > 0 && executed >= g.throughput && !g.queue.isEmpty() {
				if err := g.dispatcher.submit(g.name, g.drain); err == nil {
					return
				}
				executed = 0
			}
			continue
		}

		g.state.Store(idle)

		// a producer may have pushed between the last pop and the store
		if !g.queue.isEmpty() && g.state.CompareAndSwap(idle, busy) {
			continue
		}
		return
	}
}

// IsDraining reports whether a drain loop is scheduled or running
func (g *WorkItemGroup) IsDraining() bool {
	return g.state.Load() == busy
}

// Len returns the number of queued tasks
func (g *WorkItemGroup) Len() int64 {
	return g.queue.len()
}
