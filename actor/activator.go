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
	"context"
	"fmt"

	"github.com/tochemey/silo/address"
	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/placement"
	"github.com/tochemey/silo/requestcontext"
	"github.com/tochemey/silo/scheduler"
)

// Activator creates physical activations
type Activator interface {
	CreateContext(addr *address.GrainAddress) (WorkerContext, error)
}

// GrainActivator creates the activations of one grain kind
type GrainActivator struct {
	shared     *GrainTypeSharedContext
	factory    GrainFactory
	dispatcher *scheduler.Dispatcher
	options    []scheduler.SchedulerOption
}

var _ Activator = (*GrainActivator)(nil)

// NewGrainActivator creates a GrainActivator. The scheduler options apply
// to every activation it creates.
func NewGrainActivator(shared *GrainTypeSharedContext, factory GrainFactory, dispatcher *scheduler.Dispatcher, opts ...scheduler.SchedulerOption) *GrainActivator {
	return &GrainActivator{
		shared:     shared,
		factory:    factory,
		dispatcher: dispatcher,
		options:    opts,
	}
}

// CreateContext implements Activator
func (x *GrainActivator) CreateContext(addr *address.GrainAddress) (WorkerContext, error) {
	if addr == nil {
		return nil, gerrors.ErrInvalidGrainID
	}
	if err := addr.GrainID().Validate(); err != nil {
		return nil, err
	}

	grain, err := x.factory(addr.GrainID())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gerrors.ErrActivationFailure, err)
	}
	if grain == nil {
		return nil, fmt.Errorf("%w: factory returned no grain for %s", gerrors.ErrActivationFailure, addr.GrainID())
	}

	return NewActivation(addr, grain, x.shared, x.dispatcher, x.options...), nil
}

// CreateGrainContext creates the addressable target of the grain and
// registers it in the catalog. Stateless worker kinds get a worker pool,
// other kinds a plain activation which is activated at once. When another
// target won the registration, the new one is disposed and the registered
// one is returned.
func (x *GrainActivator) CreateGrainContext(ctx context.Context, addr *address.GrainAddress) (GrainContext, error) {
	var target GrainContext
	if _, ok := x.shared.PlacementStrategy().(placement.StatelessWorker); ok {
		pool, err := NewStatelessWorkerContext(addr, x.shared, x)
		if err != nil {
			return nil, err
		}
		target = pool
	} else {
		activation, err := x.CreateContext(addr)
		if err != nil {
			return nil, err
		}
		if err := activation.Activate(ctx, requestcontext.FromContext(ctx)); err != nil {
			return nil, err
		}
		target = activation
	}

	catalog := x.shared.Catalog()
	if catalog.RegisterMessageTarget(target) {
		return target, nil
	}

	if err := target.Dispose(ctx); err != nil {
		x.shared.Logger().Warnf("failed to dispose duplicate target %s: %v", target.Address(), err)
	}
	if existing, ok := catalog.Lookup(addr.GrainID()); ok {
		return existing, nil
	}
	return nil, fmt.Errorf("%w: %s was unregistered concurrently", gerrors.ErrNotActive, addr.GrainID())
}
