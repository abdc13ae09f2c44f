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

package placement

import (
	"context"
	"fmt"
	"time"

	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/tochemey/silo/address"
	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/internal/metric"
	"github.com/tochemey/silo/internal/xsync"
	"github.com/tochemey/silo/log"
)

// Service resolves the Director of a strategy and places activations with it
type Service struct {
	directors *xsync.Map[string, Director]
	logger    log.Logger

	metricEnabled bool
	meterProvider otelmetric.MeterProvider
	metric        *metric.RuntimeMetric
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithServiceLogger sets the logger
func WithServiceLogger(logger log.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithServiceMetric enables the placement metrics. The instruments are
// created from the global otel meter provider unless WithServiceMeterProvider is set.
func WithServiceMetric() ServiceOption {
	return func(s *Service) {
		s.metricEnabled = true
	}
}

// WithServiceMeterProvider enables the placement metrics recorded through mp
func WithServiceMeterProvider(mp otelmetric.MeterProvider) ServiceOption {
	return func(s *Service) {
		s.metricEnabled = true
		s.meterProvider = mp
	}
}

// NewService creates a Service with the Random, PreferLocal and
// StatelessWorker directors registered. The ResourceOptimized director
// needs a statistics feed and must be registered by the caller.
func NewService(opts ...ServiceOption) *Service {
	s := &Service{
		directors: xsync.NewMap[string, Director](),
		logger:    log.DefaultLogger,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.metricEnabled {
		m, err := metric.New(s.meterProvider)
		if err != nil {
			s.logger.Errorf("failed to create the placement metrics: %v", err)
		}
		s.metric = m
	}

	s.Register(Random{}, NewRandomDirector())
	s.Register(PreferLocal{}, NewPreferLocalDirector())
	s.Register(StatelessWorker{}, NewStatelessWorkerDirector())
	return s
}

// Register sets the director serving the strategy, replacing any previous one
func (s *Service) Register(strategy Strategy, director Director) {
	s.directors.Set(strategy.Name(), director)
}

// PlaceActivation returns the node hosting the target
func (s *Service) PlaceActivation(ctx context.Context, strategy Strategy, target *Target, pctx Context) (address.Node, error) {
	director, ok := s.directors.Get(strategy.Name())
	if !ok {
		return address.Node{}, fmt.Errorf("%w: %s", gerrors.ErrUnknownPlacementStrategy, strategy.Name())
	}

	start := time.Now()
	node, err := director.OnAddActivation(ctx, strategy, target, pctx)
	s.metric.RecordPlacement(ctx, strategy.Name(), err, time.Since(start))
	if err != nil {
		s.logger.Warnf("failed to place grain %s with %s: %v", target.GrainID, strategy.Name(), err)
		return address.Node{}, err
	}

	s.logger.Debugf("grain %s placed on %s with %s", target.GrainID, node, strategy.Name())
	return node, nil
}
