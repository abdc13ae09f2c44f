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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/atomic"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/tochemey/silo/address"
	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/log"
	"github.com/tochemey/silo/placement"
	"github.com/tochemey/silo/requestcontext"
	"github.com/tochemey/silo/scheduler"
)

const askTimeout = 2 * time.Second

type testGrain struct {
	activateErr   error
	deactivateErr error
	block         <-chan struct{}
	activated     *atomic.Int32
	deactivated   *atomic.Int32
	received      *atomic.Int32
}

func newTestGrain() *testGrain {
	return &testGrain{
		activated:   atomic.NewInt32(0),
		deactivated: atomic.NewInt32(0),
		received:    atomic.NewInt32(0),
	}
}

func (g *testGrain) OnActivate(context.Context, GrainContext) error {
	g.activated.Inc()
	return g.activateErr
}

func (g *testGrain) OnReceive(ctx context.Context, _ GrainContext, message *Message) (proto.Message, error) {
	g.received.Inc()
	if g.block != nil {
		<-g.block
	}

	payload, ok := message.Payload().(*wrapperspb.StringValue)
	if !ok {
		return nil, nil
	}

	switch payload.GetValue() {
	case "panic":
		panic("boom")
	case "fail":
		return nil, errors.New("failed")
	case "tenant":
		tenant, _ := requestcontext.FromContext(ctx).Get("tenant")
		return wrapperspb.String(fmt.Sprint(tenant)), nil
	default:
		return wrapperspb.String("echo:" + payload.GetValue()), nil
	}
}

func (g *testGrain) OnDeactivate(context.Context, GrainContext, DeactivationReason) error {
	g.deactivated.Inc()
	return g.deactivateErr
}

type recordingObserver struct {
	created   *atomic.Int32
	destroyed *atomic.Int32
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{created: atomic.NewInt32(0), destroyed: atomic.NewInt32(0)}
}

func (o *recordingObserver) OnCreateActivation(GrainContext)  { o.created.Inc() }
func (o *recordingObserver) OnDestroyActivation(GrainContext) { o.destroyed.Inc() }

type rehydration struct {
	disposed *atomic.Bool
}

func (r *rehydration) Dispose() error {
	r.disposed.Store(true)
	return nil
}

type reply struct {
	response proto.Message
	err      error
}

func send(target GrainContext, payload proto.Message, data requestcontext.Data) <-chan reply {
	replies := make(chan reply, 1)
	target.ReceiveMessage(NewMessage(target.Address(), payload,
		WithRequestContext(data),
		WithResponseHandler(func(response proto.Message, err error) {
			replies <- reply{response: response, err: err}
		})))
	return replies
}

func ask(t *testing.T, target GrainContext, payload proto.Message) (proto.Message, error) {
	t.Helper()
	select {
	case r := <-send(target, payload, nil):
		return r.response, r.err
	case <-time.After(askTimeout):
		t.Fatal("no reply received")
		return nil, nil
	}
}

func awaitDeactivated(t *testing.T, grainCtx GrainContext) error {
	t.Helper()
	select {
	case err := <-grainCtx.Deactivated():
		return err
	case <-time.After(askTimeout):
		t.Fatal("deactivation did not complete")
		return nil
	}
}

func newDispatcher(t *testing.T) *scheduler.Dispatcher {
	t.Helper()
	dispatcher := scheduler.NewDispatcher(scheduler.WithShards(4), scheduler.WithLogger(log.DiscardLogger))
	dispatcher.Start()
	t.Cleanup(dispatcher.Stop)
	return dispatcher
}

func newShared(t *testing.T, strategy placement.Strategy, opts ...SharedContextOption) *GrainTypeSharedContext {
	t.Helper()
	opts = append([]SharedContextOption{WithLogger(log.DiscardLogger), WithPlacementStrategy(strategy)}, opts...)
	shared, err := NewGrainTypeSharedContext("echo", opts...)
	require.NoError(t, err)
	return shared
}

func newAddress(key string) *address.GrainAddress {
	return address.NewGrainAddress(address.NewNode("127.0.0.1", 11111, 1), address.NewGrainID("echo", key), address.NewActivationID())
}

func newActivation(t *testing.T, grain Grain, shared *GrainTypeSharedContext) *Activation {
	t.Helper()
	return NewActivation(newAddress("1"), grain, shared, newDispatcher(t))
}

func TestGrainTypeSharedContext(t *testing.T) {
	t.Run("With defaults", func(t *testing.T) {
		shared, err := NewGrainTypeSharedContext("echo", WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		assert.Equal(t, "echo", shared.Kind())
		assert.Equal(t, placement.Random{}, shared.PlacementStrategy())
		assert.Equal(t, DefaultActivationTimeout, shared.ActivationTimeout())
		assert.Equal(t, DefaultDeactivationTimeout, shared.DeactivationTimeout())
		assert.Equal(t, DefaultControllerConfig(), shared.ControllerConfig())
		assert.NotNil(t, shared.Catalog())
		assert.NotNil(t, shared.Rejector())
		assert.Nil(t, shared.Metric())
	})
	t.Run("With metrics", func(t *testing.T) {
		shared, err := NewGrainTypeSharedContext("echo",
			WithLogger(log.DiscardLogger),
			WithMeterProvider(noop.NewMeterProvider()))
		require.NoError(t, err)
		require.NotNil(t, shared.Metric())

		rejector, ok := shared.Rejector().(*ResponseRejector)
		require.True(t, ok)
		assert.Same(t, shared.Metric(), rejector.metric)
	})
	t.Run("With invalid settings", func(t *testing.T) {
		_, err := NewGrainTypeSharedContext("",
			WithLogger(log.DiscardLogger),
			WithActivationTimeout(0),
			WithControllerConfig(ControllerConfig{}))
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrInvalidConfiguration)
		assert.Contains(t, err.Error(), "kind")
		assert.Contains(t, err.Error(), "activation timeout")
		assert.Contains(t, err.Error(), "controller period")
	})
	t.Run("With max workers", func(t *testing.T) {
		shared := newShared(t, placement.StatelessWorker{MaxLocal: 3})
		assert.Equal(t, 3, shared.MaxWorkers())

		shared = newShared(t, placement.StatelessWorker{})
		assert.Positive(t, shared.MaxWorkers())
	})
}

func TestActivation(t *testing.T) {
	ctx := context.Background()

	t.Run("With messages answered after activation", func(t *testing.T) {
		grain := newTestGrain()
		shared := newShared(t, placement.Random{})
		activation := newActivation(t, grain, shared)
		observer := newRecordingObserver()
		require.NoError(t, SetComponent[LifecycleObserver](activation, observer))

		require.NoError(t, activation.Activate(ctx, nil))
		response, err := ask(t, activation, wrapperspb.String("hello"))
		require.NoError(t, err)
		assert.True(t, proto.Equal(wrapperspb.String("echo:hello"), response))

		assert.EqualValues(t, 1, grain.activated.Load())
		assert.EqualValues(t, 1, observer.created.Load())
		assert.True(t, activation.IsValid())
		assert.Eventually(t, activation.IsInactive, time.Second, 5*time.Millisecond)
		assert.Zero(t, activation.WaitingCount())

		err = activation.Activate(ctx, nil)
		assert.ErrorIs(t, err, gerrors.ErrActivationFailure)
	})
	t.Run("With request context visible to the grain", func(t *testing.T) {
		activation := newActivation(t, newTestGrain(), newShared(t, placement.Random{}))
		require.NoError(t, activation.Activate(ctx, nil))

		data := requestcontext.New()
		data.Set("tenant", "acme")
		r := <-send(activation, wrapperspb.String("tenant"), data)
		require.NoError(t, r.err)
		assert.Equal(t, "acme", r.response.(*wrapperspb.StringValue).GetValue())
	})
	t.Run("With a failing and a panicking message", func(t *testing.T) {
		activation := newActivation(t, newTestGrain(), newShared(t, placement.Random{}))
		require.NoError(t, activation.Activate(ctx, nil))

		_, err := ask(t, activation, wrapperspb.String("fail"))
		assert.EqualError(t, err, "failed")

		_, err = ask(t, activation, wrapperspb.String("panic"))
		var pe *gerrors.PanicError
		require.ErrorAs(t, err, &pe)

		response, err := ask(t, activation, wrapperspb.String("after"))
		require.NoError(t, err)
		assert.Equal(t, "echo:after", response.(*wrapperspb.StringValue).GetValue())
	})
	t.Run("With an activation failure", func(t *testing.T) {
		grain := newTestGrain()
		grain.activateErr = errors.New("storage unavailable")
		activation := newActivation(t, grain, newShared(t, placement.Random{}, WithActivationRetries(3, time.Millisecond)))
		observer := newRecordingObserver()
		require.NoError(t, SetComponent[LifecycleObserver](activation, observer))

		require.NoError(t, activation.Activate(ctx, nil))
		_, err := ask(t, activation, wrapperspb.String("queued"))
		require.Error(t, err)

		var rejection *gerrors.RejectionError
		require.ErrorAs(t, err, &rejection)
		assert.True(t, rejection.Transient())

		err = awaitDeactivated(t, activation)
		assert.ErrorIs(t, err, gerrors.ErrActivationFailure)
		assert.EqualValues(t, 3, grain.activated.Load())
		assert.EqualValues(t, 0, observer.created.Load())
		assert.EqualValues(t, 1, observer.destroyed.Load())
		assert.False(t, activation.IsValid())
	})
	t.Run("With deactivation behind queued work", func(t *testing.T) {
		grain := newTestGrain()
		release := make(chan struct{})
		grain.block = release
		catalog := NewInMemoryCatalog(log.DiscardLogger)
		activation := newActivation(t, grain, newShared(t, placement.Random{}, WithCatalog(catalog)))
		require.True(t, catalog.RegisterMessageTarget(activation))

		require.NoError(t, activation.Activate(ctx, nil))
		queued := send(activation, wrapperspb.String("queued"), nil)
		require.Eventually(t, func() bool { return grain.received.Load() == 1 }, time.Second, time.Millisecond)
		assert.Equal(t, 1, activation.WaitingCount())
		assert.False(t, activation.IsInactive())

		activation.Deactivate(ctx, NewDeactivationReason(DeactivationApplicationRequested, "done"))
		_, err := ask(t, activation, wrapperspb.String("late"))
		var rejection *gerrors.RejectionError
		require.ErrorAs(t, err, &rejection)
		assert.ErrorIs(t, err, gerrors.ErrNotActive)

		close(release)
		r := <-queued
		require.NoError(t, r.err)
		require.NoError(t, awaitDeactivated(t, activation))
		assert.EqualValues(t, 1, grain.deactivated.Load())

		_, ok := catalog.Lookup(activation.GrainID())
		assert.False(t, ok)
	})
	t.Run("With a deactivation failure", func(t *testing.T) {
		grain := newTestGrain()
		grain.deactivateErr = errors.New("flush failed")
		activation := newActivation(t, grain, newShared(t, placement.Random{}))
		require.NoError(t, activation.Activate(ctx, nil))

		err := activation.Dispose(ctx)
		assert.ErrorIs(t, err, gerrors.ErrDeactivationFailure)
		assert.NoError(t, activation.Dispose(ctx))
	})
	t.Run("With a deactivation before activation", func(t *testing.T) {
		grain := newTestGrain()
		activation := newActivation(t, grain, newShared(t, placement.Random{}))
		activation.Deactivate(ctx, NewDeactivationReason(DeactivationShuttingDown, "stop"))
		require.NoError(t, awaitDeactivated(t, activation))
		assert.Zero(t, grain.deactivated.Load())
		assert.Error(t, activation.Activate(ctx, nil))
	})
	t.Run("With components", func(t *testing.T) {
		shared := newShared(t, placement.Random{})
		activation := newActivation(t, newTestGrain(), shared)

		err := activation.SetComponent(reflectTypeOfObserver(), "not an observer")
		assert.ErrorIs(t, err, gerrors.ErrInvalidComponent)

		observer := newRecordingObserver()
		require.NoError(t, SetComponent[LifecycleObserver](activation, observer))
		got, ok := GetComponent[LifecycleObserver](activation)
		require.True(t, ok)
		assert.Same(t, observer, got)

		require.NoError(t, SetComponent[LifecycleObserver](activation, nil))
		_, ok = GetComponent[LifecycleObserver](activation)
		assert.False(t, ok)

		self, ok := GetComponent[*Activation](activation)
		require.True(t, ok)
		assert.Same(t, activation, self)

		interleave := CanInterleave(func(*Message) bool { return true })
		require.NoError(t, shared.SetComponent(reflectTypeOfCanInterleave(), interleave))
		_, ok = GetComponent[CanInterleave](activation)
		assert.True(t, ok)
	})
	t.Run("With rehydration and migration", func(t *testing.T) {
		activation := newActivation(t, newTestGrain(), newShared(t, placement.Random{}))
		rc := &rehydration{disposed: atomic.NewBool(false)}
		activation.Rehydrate(rc)
		assert.True(t, rc.disposed.Load())
		activation.Rehydrate(nil)
		activation.Migrate(ctx, requestcontext.New())
	})
}

func TestMessage(t *testing.T) {
	t.Run("With a single answer", func(t *testing.T) {
		answers := atomic.NewInt32(0)
		message := NewMessage(newAddress("1"), wrapperspb.String("x"), WithResponseHandler(func(proto.Message, error) {
			answers.Inc()
		}))
		assert.NotEmpty(t, message.ID())
		assert.False(t, message.IsOneWay())
		message.Respond(wrapperspb.String("a"))
		message.Fail(errors.New("b"))
		assert.True(t, message.Answered())
		assert.EqualValues(t, 1, answers.Load())
	})
	t.Run("With a one way message", func(t *testing.T) {
		message := NewMessage(newAddress("1"), wrapperspb.String("x"))
		assert.True(t, message.IsOneWay())
		message.Respond(nil)
	})
}

func TestCatalog(t *testing.T) {
	catalog := NewInMemoryCatalog(log.DiscardLogger)
	shared := newShared(t, placement.Random{}, WithCatalog(catalog))
	dispatcher := newDispatcher(t)
	first := NewActivation(newAddress("1"), newTestGrain(), shared, dispatcher)
	second := NewActivation(newAddress("1"), newTestGrain(), shared, dispatcher)

	require.True(t, catalog.RegisterMessageTarget(first))
	assert.True(t, catalog.RegisterMessageTarget(first))
	assert.False(t, catalog.RegisterMessageTarget(second))

	catalog.UnregisterMessageTarget(second)
	got, ok := catalog.Lookup(first.GrainID())
	require.True(t, ok)
	assert.Same(t, first, got)

	catalog.UnregisterMessageTarget(first)
	assert.Zero(t, catalog.Len())
}

func TestGrainActivator(t *testing.T) {
	ctx := context.Background()

	t.Run("With a plain grain", func(t *testing.T) {
		shared := newShared(t, placement.Random{})
		activator := NewGrainActivator(shared, func(address.GrainID) (Grain, error) { return newTestGrain(), nil }, newDispatcher(t))

		target, err := activator.CreateGrainContext(ctx, newAddress("1"))
		require.NoError(t, err)
		_, isActivation := target.(*Activation)
		assert.True(t, isActivation)

		response, err := ask(t, target, wrapperspb.String("hi"))
		require.NoError(t, err)
		assert.Equal(t, "echo:hi", response.(*wrapperspb.StringValue).GetValue())

		again, err := activator.CreateGrainContext(ctx, newAddress("1"))
		require.NoError(t, err)
		assert.Same(t, target, again)
		require.NoError(t, target.Dispose(ctx))
	})
	t.Run("With a stateless worker grain", func(t *testing.T) {
		shared := newShared(t, placement.StatelessWorker{MaxLocal: 2})
		activator := NewGrainActivator(shared, func(address.GrainID) (Grain, error) { return newTestGrain(), nil }, newDispatcher(t))

		target, err := activator.CreateGrainContext(ctx, newAddress("1"))
		require.NoError(t, err)
		_, isPool := target.(*StatelessWorkerContext)
		assert.True(t, isPool)

		response, err := ask(t, target, wrapperspb.String("hi"))
		require.NoError(t, err)
		assert.Equal(t, "echo:hi", response.(*wrapperspb.StringValue).GetValue())
		require.NoError(t, target.Dispose(ctx))
	})
	t.Run("With a factory failure", func(t *testing.T) {
		shared := newShared(t, placement.Random{})
		activator := NewGrainActivator(shared, func(address.GrainID) (Grain, error) { return nil, errors.New("unknown kind") }, newDispatcher(t))
		_, err := activator.CreateContext(newAddress("1"))
		assert.ErrorIs(t, err, gerrors.ErrActivationFailure)

		_, err = activator.CreateContext(nil)
		assert.ErrorIs(t, err, gerrors.ErrInvalidGrainID)
	})
}

func reflectTypeOfObserver() reflect.Type      { return reflect.TypeFor[LifecycleObserver]() }
func reflectTypeOfCanInterleave() reflect.Type { return reflect.TypeFor[CanInterleave]() }
