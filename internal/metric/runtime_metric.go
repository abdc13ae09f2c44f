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

package metric

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RuntimeMetric groups the instruments of placement, scheduling and the
// stateless worker pools. A nil RuntimeMetric records nothing.
type RuntimeMetric struct {
	placements       metric.Int64Counter
	placementLatency metric.Float64Histogram
	tasksExecuted    metric.Int64Counter
	tasksFailed      metric.Int64Counter
	poolSize         metric.Int64UpDownCounter
	workersCreated   metric.Int64Counter
	workersRemoved   metric.Int64Counter
	rejections       metric.Int64Counter
}

// New creates the runtime instruments from the given meter provider, or
// from the global otel meter provider when mp is nil
func New(mp metric.MeterProvider) (*RuntimeMetric, error) {
	return NewRuntimeMetric(NewProvider(WithMeterProvider(mp)).Meter())
}

// NewRuntimeMetric creates the runtime instruments on the given meter
func NewRuntimeMetric(meter metric.Meter) (*RuntimeMetric, error) {
	m := new(RuntimeMetric)
	var err error

	if m.placements, err = meter.Int64Counter(
		"silo.placement.count",
		metric.WithDescription("Total number of placement decisions"),
	); err != nil {
		return nil, fmt.Errorf("failed to create placements instrument, %w", err)
	}

	if m.placementLatency, err = meter.Float64Histogram(
		"silo.placement.duration",
		metric.WithDescription("Latency of placement decisions"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("failed to create placementLatency instrument, %w", err)
	}

	if m.tasksExecuted, err = meter.Int64Counter(
		"silo.scheduler.tasks.count",
		metric.WithDescription("Total number of work items executed by activation schedulers"),
	); err != nil {
		return nil, fmt.Errorf("failed to create tasksExecuted instrument, %w", err)
	}

	if m.tasksFailed, err = meter.Int64Counter(
		"silo.scheduler.tasks.failed",
		metric.WithDescription("Total number of work items that failed or panicked"),
	); err != nil {
		return nil, fmt.Errorf("failed to create tasksFailed instrument, %w", err)
	}

	if m.poolSize, err = meter.Int64UpDownCounter(
		"silo.workers.size",
		metric.WithDescription("Number of live stateless workers"),
	); err != nil {
		return nil, fmt.Errorf("failed to create poolSize instrument, %w", err)
	}

	if m.workersCreated, err = meter.Int64Counter(
		"silo.workers.created",
		metric.WithDescription("Total number of stateless workers created"),
	); err != nil {
		return nil, fmt.Errorf("failed to create workersCreated instrument, %w", err)
	}

	if m.workersRemoved, err = meter.Int64Counter(
		"silo.workers.removed",
		metric.WithDescription("Total number of stateless workers removed by the pool controller"),
	); err != nil {
		return nil, fmt.Errorf("failed to create workersRemoved instrument, %w", err)
	}

	if m.rejections, err = meter.Int64Counter(
		"silo.messages.rejected",
		metric.WithDescription("Total number of messages rejected back to their sender"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rejections instrument, %w", err)
	}

	return m, nil
}

// RecordPlacement records one placement decision
func (x *RuntimeMetric) RecordPlacement(ctx context.Context, strategy string, err error, elapsed time.Duration) {
	if x == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	attrs := metric.WithAttributes(attribute.String("strategy", strategy), attribute.String("outcome", outcome))
	x.placements.Add(ctx, 1, attrs)
	x.placementLatency.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}

// RecordTask records the execution of one work item
func (x *RuntimeMetric) RecordTask(ctx context.Context, failed bool) {
	if x == nil {
		return
	}
	x.tasksExecuted.Add(ctx, 1)
	if failed {
		x.tasksFailed.Add(ctx, 1)
	}
}

// RecordWorkerCreated records a new worker of the given grain kind
func (x *RuntimeMetric) RecordWorkerCreated(ctx context.Context, kind string) {
	if x == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("grain.kind", kind))
	x.workersCreated.Add(ctx, 1, attrs)
	x.poolSize.Add(ctx, 1, attrs)
}

// RecordWorkerDestroyed records a worker leaving its pool
func (x *RuntimeMetric) RecordWorkerDestroyed(ctx context.Context, kind string) {
	if x == nil {
		return
	}
	x.poolSize.Add(ctx, -1, metric.WithAttributes(attribute.String("grain.kind", kind)))
}

// RecordWorkerRemoved records a worker collected by the pool controller
func (x *RuntimeMetric) RecordWorkerRemoved(ctx context.Context, kind string) {
	if x == nil {
		return
	}
	x.workersRemoved.Add(ctx, 1, metric.WithAttributes(attribute.String("grain.kind", kind)))
}

// RecordRejection records a rejected message
func (x *RuntimeMetric) RecordRejection(ctx context.Context, kind string) {
	if x == nil {
		return
	}
	x.rejections.Add(ctx, 1, metric.WithAttributes(attribute.String("rejection", kind)))
}
