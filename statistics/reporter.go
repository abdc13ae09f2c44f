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

package statistics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/reugn/go-quartz/job"
	quartzlogger "github.com/reugn/go-quartz/logger"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/atomic"

	"github.com/tochemey/silo/address"
	"github.com/tochemey/silo/internal/errorschain"
	"github.com/tochemey/silo/log"
)

const reportJobKey = "statistics-report"

// Reporter periodically collects the local statistics, publishes them into
// the local sink and broadcasts them to the cluster.
type Reporter struct {
	mu           sync.Mutex
	node         address.Node
	collector    *Collector
	sink         Sink
	broadcasters []Broadcaster
	interval     time.Duration
	stopTimeout  time.Duration
	logger       log.Logger
	scheduler    quartz.Scheduler
	started      *atomic.Bool
}

// ReporterOption configures a Reporter
type ReporterOption func(*Reporter)

// WithBroadcasters adds the transports the snapshots are sent through
func WithBroadcasters(broadcasters ...Broadcaster) ReporterOption {
	return func(r *Reporter) {
		r.broadcasters = append(r.broadcasters, broadcasters...)
	}
}

// WithReportInterval sets the collection interval. Default is one second.
func WithReportInterval(interval time.Duration) ReporterOption {
	return func(r *Reporter) {
		r.interval = interval
	}
}

// WithReporterLogger sets the logger
func WithReporterLogger(logger log.Logger) ReporterOption {
	return func(r *Reporter) {
		r.logger = logger
	}
}

// NewReporter creates a Reporter for the local node
func NewReporter(node address.Node, collector *Collector, sink Sink, opts ...ReporterOption) (*Reporter, error) {
	scheduler, err := quartz.NewStdScheduler(quartz.WithLogger(quartzlogger.NewSimpleLogger(nil, quartzlogger.LevelOff)))
	if err != nil {
		return nil, err
	}

	reporter := &Reporter{
		node:        node,
		collector:   collector,
		sink:        sink,
		interval:    time.Second,
		stopTimeout: 5 * time.Second,
		logger:      log.DefaultLogger,
		scheduler:   scheduler,
		started:     atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt(reporter)
	}

	if reporter.interval <= 0 {
		return nil, fmt.Errorf("invalid report interval %s", reporter.interval)
	}
	return reporter, nil
}

// Start reports once and then every interval
func (r *Reporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started.Load() {
		return nil
	}

	if err := r.Report(ctx); err != nil {
		r.logger.Warnf("initial statistics report of node %s failed: %v", r.node, err)
	}

	reportJob := job.NewFunctionJob[bool](func(ctx context.Context) (bool, error) {
		err := r.Report(ctx)
		return err == nil, err
	})

	r.scheduler.Start(ctx)
	detail := quartz.NewJobDetail(reportJob, quartz.NewJobKey(reportJobKey))
	if err := r.scheduler.ScheduleJob(detail, quartz.NewSimpleTrigger(r.interval)); err != nil {
		r.scheduler.Stop()
		return err
	}

	r.started.Store(r.scheduler.IsStarted())
	r.logger.Infof("statistics reporter of node %s started (interval=%s)", r.node, r.interval)
	return nil
}

// Report collects the statistics once, publishes and broadcasts them
func (r *Reporter) Report(ctx context.Context) error {
	stats, err := r.collector.Collect(ctx)
	if err != nil {
		return err
	}

	r.sink.Publish(r.node, stats)

	chain := errorschain.New(errorschain.ReturnAll())
	for _, broadcaster := range r.broadcasters {
		chain.AddError(broadcaster.Broadcast(r.node, stats))
	}
	return chain.Error()
}

// Stop stops reporting and announces the node removal to the cluster
func (r *Reporter) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started.Load() {
		return nil
	}

	_ = r.scheduler.Clear()
	r.scheduler.Stop()
	r.started.Store(false)

	waitCtx, cancel := context.WithTimeout(ctx, r.stopTimeout)
	defer cancel()
	r.scheduler.Wait(waitCtx)

	chain := errorschain.New(errorschain.ReturnAll())
	for _, broadcaster := range r.broadcasters {
		chain.AddError(broadcaster.BroadcastRemoval(r.node))
	}

	r.logger.Infof("statistics reporter of node %s stopped", r.node)
	return chain.Error()
}
