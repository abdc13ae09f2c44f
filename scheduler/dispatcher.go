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

// Package scheduler serializes the work of every activation on a shared
// pool of goroutines. Each activation owns an ordered queue drained by at
// most one goroutine at a time; different activations drain concurrently.
package scheduler

import (
	"runtime"
	"time"

	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/tochemey/silo/internal/metric"
	"github.com/tochemey/silo/internal/workerpool"
	"github.com/tochemey/silo/log"
)

// Dispatcher is the goroutine pool shared by the activations of a node
type Dispatcher struct {
	pool        *workerpool.WorkerPool
	shards      int
	idleTimeout time.Duration
	logger      log.Logger

	metricEnabled bool
	meterProvider otelmetric.MeterProvider
	metric        *metric.RuntimeMetric
}

// Option is the interface that applies a Dispatcher option.
type Option interface {
	// Apply sets the Option value of a Dispatcher.
	Apply(dispatcher *Dispatcher)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(dispatcher *Dispatcher)

// Apply applies the Dispatcher's option
func (f OptionFunc) Apply(dispatcher *Dispatcher) {
	f(dispatcher)
}

// WithShards sets the number of shards of the pool
func WithShards(shards int) Option {
	return OptionFunc(func(dispatcher *Dispatcher) {
		dispatcher.shards = shards
	})
}

// WithIdleTimeout sets how long an idle goroutine is kept around
func WithIdleTimeout(timeout time.Duration) Option {
	return OptionFunc(func(dispatcher *Dispatcher) {
		dispatcher.idleTimeout = timeout
	})
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(dispatcher *Dispatcher) {
		dispatcher.logger = logger
	})
}

// WithMetric enables the scheduler metrics. The instruments are created
// from the global otel meter provider unless WithMeterProvider is set.
func WithMetric() Option {
	return OptionFunc(func(dispatcher *Dispatcher) {
		dispatcher.metricEnabled = true
	})
}

// WithMeterProvider enables the scheduler metrics recorded through mp
func WithMeterProvider(mp otelmetric.MeterProvider) Option {
	return OptionFunc(func(dispatcher *Dispatcher) {
		dispatcher.metricEnabled = true
		dispatcher.meterProvider = mp
	})
}

// NewDispatcher creates a Dispatcher with one shard per CPU by default
func NewDispatcher(opts ...Option) *Dispatcher {
	dispatcher := &Dispatcher{
		shards:      runtime.GOMAXPROCS(0),
		idleTimeout: time.Second,
		logger:      log.DefaultLogger,
	}
	for _, opt := range opts {
		opt.Apply(dispatcher)
	}

	if dispatcher.metricEnabled {
		m, err := metric.New(dispatcher.meterProvider)
		if err != nil {
			dispatcher.logger.Errorf("failed to create the scheduler metrics: %v", err)
		}
		dispatcher.metric = m
	}

	dispatcher.pool = workerpool.New(
		workerpool.WithNumShards(dispatcher.shards),
		workerpool.WithPassivateAfter(dispatcher.idleTimeout),
	)
	return dispatcher
}

// Start starts the pool. It's safe to call Start multiple times.
func (d *Dispatcher) Start() {
	d.pool.Start()
}

// Stop stops the pool. Running drain loops finish their current turn;
// later submissions fail with errors.ErrDispatcherNotStarted.
func (d *Dispatcher) Stop() {
	d.pool.Stop()
}

// IsRunning reports whether the Dispatcher accepts work
func (d *Dispatcher) IsRunning() bool {
	return d.pool.IsRunning()
}

// Goroutines returns the number of live pool goroutines
func (d *Dispatcher) Goroutines() int {
	return d.pool.SpawnedWorkers()
}

// submit runs fn on the pool. Submissions sharing a key share a shard.
func (d *Dispatcher) submit(key string, fn func()) error {
	return d.pool.SubmitWork(key, fn)
}
