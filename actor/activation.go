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
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"time"

	"github.com/flowchartsman/retry"
	"go.uber.org/atomic"
	"google.golang.org/protobuf/proto"

	"github.com/tochemey/silo/address"
	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/placement"
	"github.com/tochemey/silo/requestcontext"
	"github.com/tochemey/silo/scheduler"
)

type activationState int32

const (
	stateCreated activationState = iota
	stateActivating
	stateValid
	stateDeactivating
	stateInvalid
)

// Activation is a single live instance of a grain. Its work runs on its own
// ActivationScheduler: activation first, then messages in arrival order,
// then deactivation.
type Activation struct {
	address    *address.GrainAddress
	grain      Grain
	shared     *GrainTypeSharedContext
	scheduler  *scheduler.ActivationScheduler
	components *components

	state                 *atomic.Int32
	waiting               *atomic.Int64
	lastActivity          *atomic.Time
	deactivationRequested *atomic.Bool
	disposed              *atomic.Bool
	deactivated           *completion
}

var _ WorkerContext = (*Activation)(nil)

// NewActivation creates an activation of grain at addr. Nothing runs until
// Activate is called.
func NewActivation(addr *address.GrainAddress, grain Grain, shared *GrainTypeSharedContext, dispatcher *scheduler.Dispatcher, opts ...scheduler.SchedulerOption) *Activation {
	opts = append([]scheduler.SchedulerOption{scheduler.WithSchedulerLogger(shared.Logger())}, opts...)
	return &Activation{
		address:               addr,
		grain:                 grain,
		shared:                shared,
		scheduler:             scheduler.NewActivationScheduler(addr.String(), dispatcher, opts...),
		components:            newComponents(),
		state:                 atomic.NewInt32(int32(stateCreated)),
		waiting:               atomic.NewInt64(0),
		lastActivity:          atomic.NewTime(time.Now()),
		deactivationRequested: atomic.NewBool(false),
		disposed:              atomic.NewBool(false),
		deactivated:           new(completion),
	}
}

// GrainID implements GrainContext
func (a *Activation) GrainID() address.GrainID { return a.address.GrainID() }

// ActivationID implements GrainContext
func (a *Activation) ActivationID() string { return a.address.ActivationID() }

// Address implements GrainContext
func (a *Activation) Address() *address.GrainAddress { return a.address }

// PlacementStrategy implements GrainContext
func (a *Activation) PlacementStrategy() placement.Strategy { return a.shared.PlacementStrategy() }

// Grain returns the hosted grain instance
func (a *Activation) Grain() Grain { return a.grain }

// LastActivity returns the time the last message started
func (a *Activation) LastActivity() time.Time { return a.lastActivity.Load() }

// IsValid reports whether the activation completed OnActivate and is not deactivating
func (a *Activation) IsValid() bool {
	return activationState(a.state.Load()) == stateValid
}

// WaitingCount implements WorkerContext
func (a *Activation) WaitingCount() int {
	return int(a.waiting.Load())
}

// IsInactive implements WorkerContext
func (a *Activation) IsInactive() bool {
	return a.IsValid() && !a.deactivationRequested.Load() && a.waiting.Load() == 0
}

// Activate implements WorkerContext. OnActivate runs as the first task of
// the activation, bounded by the activation timeout of the kind and retried
// as configured. The request context is visible to OnActivate.
func (a *Activation) Activate(ctx context.Context, data requestcontext.Data) error {
	if !a.state.CompareAndSwap(int32(stateCreated), int32(stateActivating)) {
		return fmt.Errorf("%w: %s is already activated", gerrors.ErrActivationFailure, a.address)
	}

	if err := a.scheduler.Enqueue(func(context.Context) error {
		a.activate(ctx, data)
		return nil
	}); err != nil {
		a.fail(err)
		return fmt.Errorf("%w: %w", gerrors.ErrActivationFailure, err)
	}
	return nil
}

func (a *Activation) activate(ctx context.Context, data requestcontext.Data) {
	logger := a.shared.Logger()
	logger.Debugf("activating %s", a.address)

	ctx, cancel := context.WithTimeout(requestcontext.NewContext(context.WithoutCancel(ctx), data), a.shared.ActivationTimeout())
	defer cancel()

	retrier := retry.NewRetrier(a.shared.activationRetries, a.shared.activationRetryDelay, a.shared.activationRetryDelay)
	err := retrier.RunContext(ctx, func(ctx context.Context) error {
		return safeCall(func() error { return a.grain.OnActivate(ctx, a) })
	})
	if err != nil {
		logger.Errorf("activation of %s failed: %v", a.address, err)
		a.fail(err)
		return
	}

	a.state.Store(int32(stateValid))
	logger.Debugf("%s activated", a.address)
	if observer, ok := GetComponent[LifecycleObserver](a); ok {
		observer.OnCreateActivation(a)
	}
}

// fail invalidates an activation whose OnActivate did not complete
func (a *Activation) fail(cause error) {
	a.state.Store(int32(stateInvalid))
	a.destroy(fmt.Errorf("%w: %w", gerrors.ErrActivationFailure, cause))
}

// ReceiveMessage implements GrainContext
func (a *Activation) ReceiveMessage(message *Message) {
	if a.deactivationRequested.Load() || activationState(a.state.Load()) == stateInvalid {
		a.shared.Rejector().RejectMessage(message, gerrors.RejectionTransient, gerrors.ErrNotActive, "activation is deactivating")
		return
	}

	a.waiting.Inc()
	err := a.scheduler.Enqueue(func(ctx context.Context) error {
		defer a.waiting.Dec()
		return a.handle(ctx, message)
	})
	if err != nil {
		a.waiting.Dec()
		a.shared.Rejector().RejectMessage(message, gerrors.RejectionTransient, err, "activation cannot accept messages")
	}
}

func (a *Activation) handle(ctx context.Context, message *Message) error {
	if !a.IsValid() {
		a.shared.Rejector().RejectMessage(message, gerrors.RejectionTransient, gerrors.ErrNotActive, "activation is not valid")
		return nil
	}

	a.lastActivity.Store(time.Now())
	ctx = requestcontext.NewContext(ctx, message.RequestContext())

	var response proto.Message
	err := safeCall(func() error {
		var err error
		response, err = a.grain.OnReceive(ctx, a, message)
		return err
	})
	if err != nil {
		message.Fail(err)
		return err
	}

	message.Respond(response)
	return nil
}

// Deactivate implements GrainContext. OnDeactivate runs after the work
// already queued, bounded by the deactivation timeout of the kind.
func (a *Activation) Deactivate(ctx context.Context, reason DeactivationReason) {
	if !a.deactivationRequested.CompareAndSwap(false, true) {
		return
	}

	switch activationState(a.state.Load()) {
	case stateCreated:
		a.state.Store(int32(stateInvalid))
		a.destroy(nil)
		return
	case stateInvalid:
		return
	}

	if err := a.scheduler.Enqueue(func(context.Context) error {
		a.deactivate(ctx, reason)
		return nil
	}); err != nil {
		a.state.Store(int32(stateInvalid))
		a.destroy(fmt.Errorf("%w: %w", gerrors.ErrDeactivationFailure, err))
	}
}

func (a *Activation) deactivate(ctx context.Context, reason DeactivationReason) {
	if !a.state.CompareAndSwap(int32(stateValid), int32(stateDeactivating)) {
		// activation failed and already reported
		return
	}

	logger := a.shared.Logger()
	logger.Debugf("deactivating %s (%s)", a.address, reason)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.shared.DeactivationTimeout())
	defer cancel()

	var result error
	if err := safeCall(func() error { return a.grain.OnDeactivate(ctx, a, reason) }); err != nil {
		logger.Errorf("deactivation of %s failed: %v", a.address, err)
		result = fmt.Errorf("%w: %w", gerrors.ErrDeactivationFailure, err)
	}

	a.state.Store(int32(stateInvalid))
	a.destroy(result)
}

// destroy notifies the observer, leaves the catalog and completes Deactivated
func (a *Activation) destroy(result error) {
	if !a.deactivated.complete(result) {
		return
	}

	a.shared.Catalog().UnregisterMessageTarget(a)
	if observer, ok := GetComponent[LifecycleObserver](a); ok {
		observer.OnDestroyActivation(a)
	}
	a.shared.Logger().Debugf("%s deactivated", a.address)
}

// Deactivated implements GrainContext
func (a *Activation) Deactivated() <-chan error {
	return a.deactivated.wait()
}

// Dispose implements GrainContext. It deactivates the activation when
// needed and waits for the outcome. Later calls return nil.
func (a *Activation) Dispose(ctx context.Context) error {
	if !a.disposed.CompareAndSwap(false, true) {
		return nil
	}

	a.Deactivate(ctx, NewDeactivationReason(DeactivationDisposed, "activation disposed"))
	select {
	case err := <-a.Deactivated():
		a.scheduler.Dispose()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Rehydrate implements GrainContext. Migration is not supported, the
// carried state is released.
func (a *Activation) Rehydrate(rc RehydrationContext) {
	releaseRehydrationContext(a.shared, rc)
}

// Migrate implements GrainContext. Migration is not supported.
func (a *Activation) Migrate(context.Context, requestcontext.Data) {}

// GetComponent implements GrainContext. Components of the activation come
// first, then the ones shared by the kind.
func (a *Activation) GetComponent(key reflect.Type) (any, bool) {
	if value, ok := a.components.get(key); ok {
		return value, true
	}
	if key == reflect.TypeOf(a) {
		return a, true
	}
	return a.shared.GetComponent(key)
}

// SetComponent implements GrainContext
func (a *Activation) SetComponent(key reflect.Type, value any) error {
	return a.components.set(key, value)
}

// String describes the activation
func (a *Activation) String() string {
	return fmt.Sprintf("Activation(%s, waiting=%d)", a.address, a.WaitingCount())
}

func releaseRehydrationContext(shared *GrainTypeSharedContext, rc RehydrationContext) {
	if rc == nil {
		return
	}
	if err := rc.Dispose(); err != nil {
		shared.Logger().Warnf("failed to release rehydration context: %v", err)
	}
}

// safeCall turns a panic of user code into an error
func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			pc, file, line, _ := runtime.Caller(2)
			if cause, ok := r.(error); ok {
				var pe *gerrors.PanicError
				if errors.As(cause, &pe) {
					err = pe
					return
				}
				err = gerrors.NewPanicError(fmt.Errorf("%w at %s[%s:%d]", cause, runtime.FuncForPC(pc).Name(), file, line))
				return
			}
			err = gerrors.NewPanicError(fmt.Errorf("%#v at %s[%s:%d]", r, runtime.FuncForPC(pc).Name(), file, line))
		}
	}()
	return fn()
}
