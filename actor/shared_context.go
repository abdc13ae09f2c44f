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

package actor

import (
	"reflect"
	"runtime"
	"time"

	otelmetric "go.opentelemetry.io/otel/metric"

	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/internal/metric"
	"github.com/tochemey/silo/internal/validation"
	"github.com/tochemey/silo/log"
	"github.com/tochemey/silo/placement"
)

// GrainTypeSharedContext holds what every activation of a grain kind shares
type GrainTypeSharedContext struct {
	kind                 string
	strategy             placement.Strategy
	logger               log.Logger
	catalog              Catalog
	rejector             Rejector
	metricEnabled        bool
	meterProvider        otelmetric.MeterProvider
	metric               *metric.RuntimeMetric
	activationTimeout    time.Duration
	deactivationTimeout  time.Duration
	activationRetries    int
	activationRetryDelay time.Duration
	controller           ControllerConfig
	components           *components
}

// SharedContextOption configures a GrainTypeSharedContext
type SharedContextOption func(*GrainTypeSharedContext)

// WithPlacementStrategy sets the placement strategy of the kind
func WithPlacementStrategy(strategy placement.Strategy) SharedContextOption {
	return func(s *GrainTypeSharedContext) {
		s.strategy = strategy
	}
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) SharedContextOption {
	return func(s *GrainTypeSharedContext) {
		s.logger = logger
	}
}

// WithCatalog sets the catalog activations unregister from
func WithCatalog(catalog Catalog) SharedContextOption {
	return func(s *GrainTypeSharedContext) {
		s.catalog = catalog
	}
}

// WithRejector sets the rejection channel
func WithRejector(rejector Rejector) SharedContextOption {
	return func(s *GrainTypeSharedContext) {
		s.rejector = rejector
	}
}

// WithMetric enables the activation metrics. The instruments are created
// from the global otel meter provider unless WithMeterProvider is set.
func WithMetric() SharedContextOption {
	return func(s *GrainTypeSharedContext) {
		s.metricEnabled = true
	}
}

// WithMeterProvider enables the activation metrics recorded through mp
func WithMeterProvider(mp otelmetric.MeterProvider) SharedContextOption {
	return func(s *GrainTypeSharedContext) {
		s.metricEnabled = true
		s.meterProvider = mp
	}
}

// WithActivationTimeout bounds Grain.OnActivate
func WithActivationTimeout(timeout time.Duration) SharedContextOption {
	return func(s *GrainTypeSharedContext) {
		s.activationTimeout = timeout
	}
}

// WithDeactivationTimeout bounds Grain.OnDeactivate
func WithDeactivationTimeout(timeout time.Duration) SharedContextOption {
	return func(s *GrainTypeSharedContext) {
		s.deactivationTimeout = timeout
	}
}

// WithActivationRetries sets how many times Grain.OnActivate is attempted
// and the delay between two attempts
func WithActivationRetries(retries int, delay time.Duration) SharedContextOption {
	return func(s *GrainTypeSharedContext) {
		s.activationRetries = retries
		s.activationRetryDelay = delay
	}
}

// WithControllerConfig tunes the stateless worker shrink controller
func WithControllerConfig(config ControllerConfig) SharedContextOption {
	return func(s *GrainTypeSharedContext) {
		s.controller = config
	}
}

// NewGrainTypeSharedContext creates the shared context of the grain kind
func NewGrainTypeSharedContext(kind string, opts ...SharedContextOption) (*GrainTypeSharedContext, error) {
	shared := &GrainTypeSharedContext{
		kind:                 kind,
		strategy:             placement.Random{},
		logger:               log.DefaultLogger,
		activationTimeout:    DefaultActivationTimeout,
		deactivationTimeout:  DefaultDeactivationTimeout,
		activationRetries:    DefaultActivationRetries,
		activationRetryDelay: DefaultActivationRetryDelay,
		controller:           DefaultControllerConfig(),
		components:           newComponents(),
	}
	for _, opt := range opts {
		opt(shared)
	}

	if shared.metricEnabled {
		m, err := metric.New(shared.meterProvider)
		if err != nil {
			return nil, gerrors.NewConfigurationError(err)
		}
		shared.metric = m
	}

	if shared.catalog == nil {
		shared.catalog = NewInMemoryCatalog(shared.logger)
	}
	if shared.rejector == nil {
		shared.rejector = newResponseRejector(shared.logger, shared.metric)
	}

	if err := shared.validate(); err != nil {
		return nil, err
	}
	return shared, nil
}

func (s *GrainTypeSharedContext) validate() error {
	err := validation.New(validation.AllErrors()).
		AddValidator(validation.NewEmptyStringValidator("kind", s.kind)).
		AddValidator(validation.NewPositiveValidator("activation timeout", int64(s.activationTimeout))).
		AddValidator(validation.NewPositiveValidator("deactivation timeout", int64(s.deactivationTimeout))).
		AddValidator(validation.NewPositiveValidator("activation retries", int64(s.activationRetries))).
		AddAssertion(s.strategy != nil, "placement strategy is required").
		AddAssertion(s.logger != nil, "logger is required").
		AddAssertion(s.activationRetryDelay >= 0, "activation retry delay must not be negative").
		AddValidator(s.controller).
		Validate()
	if err != nil {
		return gerrors.NewConfigurationError(err)
	}
	return nil
}

// Kind returns the grain kind
func (s *GrainTypeSharedContext) Kind() string { return s.kind }

// PlacementStrategy returns the placement strategy of the kind
func (s *GrainTypeSharedContext) PlacementStrategy() placement.Strategy { return s.strategy }

// Logger returns the logger
func (s *GrainTypeSharedContext) Logger() log.Logger { return s.logger }

// Catalog returns the catalog
func (s *GrainTypeSharedContext) Catalog() Catalog { return s.catalog }

// Rejector returns the rejection channel
func (s *GrainTypeSharedContext) Rejector() Rejector { return s.rejector }

// Metric returns the runtime instruments. It can be nil.
func (s *GrainTypeSharedContext) Metric() *metric.RuntimeMetric { return s.metric }

// ActivationTimeout returns the bound of Grain.OnActivate
func (s *GrainTypeSharedContext) ActivationTimeout() time.Duration { return s.activationTimeout }

// DeactivationTimeout returns the bound of Grain.OnDeactivate
func (s *GrainTypeSharedContext) DeactivationTimeout() time.Duration { return s.deactivationTimeout }

// ControllerConfig returns the shrink controller settings
func (s *GrainTypeSharedContext) ControllerConfig() ControllerConfig { return s.controller }

// MaxWorkers returns the worker bound of a stateless worker kind.
// It defaults to GOMAXPROCS.
func (s *GrainTypeSharedContext) MaxWorkers() int {
	if worker, ok := s.strategy.(placement.StatelessWorker); ok && worker.MaxLocal > 0 {
		return worker.MaxLocal
	}
	return runtime.GOMAXPROCS(0)
}

// GetComponent returns a component shared by the activations of the kind
func (s *GrainTypeSharedContext) GetComponent(key reflect.Type) (any, bool) {
	return s.components.get(key)
}

// SetComponent registers a component shared by the activations of the kind
func (s *GrainTypeSharedContext) SetComponent(key reflect.Type, value any) error {
	return s.components.set(key, value)
}
