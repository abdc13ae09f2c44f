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

// Package workerpool provides the sharded goroutine pool shared by every
// activation of a node. Idle goroutines are reused and reaped after a
// configurable idle period.
package workerpool

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeebo/xxh3"

	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/internal/ticker"
)

const maxShards = 128

// WorkerPool executes submitted tasks on reusable goroutines spread across shards.
type WorkerPool struct {
	passivateAfter time.Duration
	numShards      int
	shards         []*poolShard
	mutex          sync.RWMutex
	started        atomic.Bool
	stopped        atomic.Bool
	spawnedWorkers atomic.Int64
	cleaner        *ticker.Ticker
	cleanerDone    chan struct{}
}

type worker struct {
	workChan chan func()
	shard    *poolShard
	lastUsed atomic.Int64
}

type poolShard struct {
	wp      *WorkerPool
	mu      sync.Mutex
	idle    []*worker
	stopped bool
}

// New creates a new worker pool with the given options.
func New(opts ...Option) *WorkerPool {
	wp := &WorkerPool{
		passivateAfter: time.Second,
		numShards:      1,
	}

	for _, opt := range opts {
		opt.Apply(wp)
	}

	switch {
	case wp.numShards < 1:
		wp.numShards = 1
	case wp.numShards > maxShards:
		wp.numShards = maxShards
	}

	if wp.passivateAfter <= 0 {
		wp.passivateAfter = time.Second
	}

	return wp
}

// Start initializes the shards and begins reaping idle workers.
// It's safe to call Start multiple times.
func (wp *WorkerPool) Start() {
	wp.mutex.Lock()
	defer wp.mutex.Unlock()
	if wp.started.Load() {
		return
	}

	wp.shards = make([]*poolShard, wp.numShards)
	for i := range wp.numShards {
		wp.shards[i] = &poolShard{wp: wp, idle: make([]*worker, 0, 64)}
	}

	wp.cleaner = ticker.New(wp.passivateAfter)
	wp.cleanerDone = make(chan struct{})
	wp.cleaner.Start()
	wp.started.Store(true)
	go wp.cleanup()
}

// Stop shuts the pool down. Running tasks complete; idle workers exit.
// Tasks submitted after Stop are rejected.
func (wp *WorkerPool) Stop() {
	wp.mutex.Lock()
	if !wp.started.Load() || wp.stopped.Swap(true) {
		wp.mutex.Unlock()
		return
	}

	for _, shard := range wp.shards {
		shard.mu.Lock()
		shard.stopped = true
		for i, w := range shard.idle {
			close(w.workChan)
			shard.idle[i] = nil
		}
		shard.idle = shard.idle[:0]
		shard.mu.Unlock()
	}
	wp.mutex.Unlock()

	close(wp.cleanerDone)
	wp.cleaner.Stop()
}

// IsRunning reports whether the pool accepts tasks
func (wp *WorkerPool) IsRunning() bool {
	return wp.started.Load() && !wp.stopped.Load()
}

// SpawnedWorkers returns the number of live worker goroutines.
func (wp *WorkerPool) SpawnedWorkers() int {
	return int(wp.spawnedWorkers.Load())
}

// SubmitWork runs task on a worker of the shard owning key.
// Tasks sharing a key land on the same shard.
func (wp *WorkerPool) SubmitWork(key string, task func()) error {
	wp.mutex.RLock()
	if !wp.started.Load() || wp.stopped.Load() {
		wp.mutex.RUnlock()
		return gerrors.ErrDispatcherNotStarted
	}
	shard := wp.shards[xxh3.HashString(key)%uint64(wp.numShards)]
	wp.mutex.RUnlock()

	if !shard.dispatch(task) {
		return gerrors.ErrDispatcherNotStarted
	}
	return nil
}

func (shard *poolShard) dispatch(task func()) bool {
	shard.mu.Lock()
	if shard.stopped {
		shard.mu.Unlock()
		return false
	}

	if n := len(shard.idle); n > 0 {
		w := shard.idle[n-1]
		shard.idle[n-1] = nil
		shard.idle = shard.idle[:n-1]
		shard.mu.Unlock()
		w.workChan <- task
		return true
	}
	shard.mu.Unlock()

	w := &worker{workChan: make(chan func(), 1), shard: shard}
	shard.wp.spawnedWorkers.Add(1)
	w.workChan <- task
	go w.run()
	return true
}

// release parks the worker on its shard. It returns false when the shard stopped.
func (shard *poolShard) release(w *worker) bool {
	w.lastUsed.Store(time.Now().UnixNano())
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if shard.stopped {
		return false
	}
	shard.idle = append(shard.idle, w)
	return true
}

func (w *worker) run() {
	defer w.shard.wp.spawnedWorkers.Add(-1)
	for task := range w.workChan {
		task()
		if !w.shard.release(w) {
			return
		}
	}
}

// cleanup reaps workers idle for longer than passivateAfter.
// Idle slices are ordered by release time, oldest first.
func (wp *WorkerPool) cleanup() {
	for {
		select {
		case <-wp.cleanerDone:
			return
		case <-wp.cleaner.Ticks:
			cutoff := time.Now().Add(-wp.passivateAfter).UnixNano()
			for _, shard := range wp.shards {
				shard.reap(cutoff)
			}
		}
	}
}

func (shard *poolShard) reap(cutoff int64) {
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if shard.stopped {
		return
	}

	expired := 0
	for expired < len(shard.idle) && shard.idle[expired].lastUsed.Load() < cutoff {
		close(shard.idle[expired].workChan)
		expired++
	}

	if expired == 0 {
		return
	}

	remaining := copy(shard.idle, shard.idle[expired:])
	clear(shard.idle[remaining:])
	shard.idle = shard.idle[:remaining]
}
