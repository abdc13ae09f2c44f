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
	"math/rand/v2"
	"reflect"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/silo/address"
	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/internal/queue"
	"github.com/tochemey/silo/internal/ticker"
	"github.com/tochemey/silo/placement"
	"github.com/tochemey/silo/requestcontext"
)

const workerCreationFailureReason = "exception while creating grain context"

// StatelessWorkerContext fronts a bounded pool of interchangeable worker
// activations under a single grain address.
//
// Every pool decision runs on one goroutine fed by a queue of work items:
// message routing, worker creation, removal bookkeeping and shutdown.
// Producers only enqueue and signal. A message goes to the first idle
// worker in creation order. When every worker is busy a new one is created
// until MaxWorkers is reached; past that the worker with the fewest waiting
// messages gets it.
//
// With ProactiveWorkerCollection set on the strategy, a PID controller
// samples the waiting counts every period and deactivates one idle worker
// once the control signal stayed negative long enough.
//
// The drain goroutine exits when the pool is disposed.
type StatelessWorkerContext struct {
	address    *address.GrainAddress
	shared     *GrainTypeSharedContext
	activator  Activator
	maxWorkers int
	random     func(n int) int

	// owned by the drain loop
	workers    []WorkerContext
	retiring   mapset.Set[WorkerContext]
	disposing  bool
	controller *shrinkController
	collector  *ticker.Ticker

	items       *queue.Mpsc[workItem]
	signal      chan struct{}
	stop        chan struct{}
	stopped     chan struct{}
	stopOnce    sync.Once
	closeMu     sync.RWMutex
	closed      bool
	workerCount *atomic.Int64
}

var (
	_ GrainContext      = (*StatelessWorkerContext)(nil)
	_ LifecycleObserver = (*StatelessWorkerContext)(nil)
)

// NewStatelessWorkerContext creates the pool of the grain at addr and starts
// its drain loop. The strategy of the kind must be placement.StatelessWorker.
func NewStatelessWorkerContext(addr *address.GrainAddress, shared *GrainTypeSharedContext, activator Activator) (*StatelessWorkerContext, error) {
	strategy, ok := shared.PlacementStrategy().(placement.StatelessWorker)
	if !ok {
		return nil, gerrors.NewConfigurationError(fmt.Errorf("grain kind %s is not a stateless worker", shared.Kind()))
	}
	if activator == nil {
		return nil, gerrors.NewConfigurationError(fmt.Errorf("grain kind %s has no activator", shared.Kind()))
	}

	pool := &StatelessWorkerContext{
		address:     addr,
		shared:      shared,
		activator:   activator,
		maxWorkers:  shared.MaxWorkers(),
		random:      rand.IntN,
		retiring:    mapset.NewThreadUnsafeSet[WorkerContext](),
		items:       queue.NewMpsc[workItem](),
		signal:      make(chan struct{}, 1),
		stop:        make(chan struct{}),
		stopped:     make(chan struct{}),
		workerCount: atomic.NewInt64(0),
	}

	var ticks <-chan time.Time
	if strategy.ProactiveWorkerCollection {
		config := shared.ControllerConfig()
		pool.controller = newShrinkController(config)
		pool.collector = ticker.New(config.Period)
		pool.collector.Start()
		ticks = pool.collector.Ticks
	}

	go pool.run(ticks)
	return pool, nil
}

// GrainID implements GrainContext
func (s *StatelessWorkerContext) GrainID() address.GrainID { return s.address.GrainID() }

// ActivationID implements GrainContext
func (s *StatelessWorkerContext) ActivationID() string { return s.address.ActivationID() }

// Address implements GrainContext
func (s *StatelessWorkerContext) Address() *address.GrainAddress { return s.address }

// PlacementStrategy implements GrainContext
func (s *StatelessWorkerContext) PlacementStrategy() placement.Strategy {
	return s.shared.PlacementStrategy()
}

// MaxWorkers returns the bound of the pool
func (s *StatelessWorkerContext) MaxWorkers() int { return s.maxWorkers }

// Workers returns the number of live workers
func (s *StatelessWorkerContext) Workers() int { return int(s.workerCount.Load()) }

// ReceiveMessage implements GrainContext
func (s *StatelessWorkerContext) ReceiveMessage(message *Message) {
	if !s.enqueue(workItem{kind: workItemMessage, state: message}) {
		s.shared.Rejector().RejectMessage(message, gerrors.RejectionTransient, gerrors.ErrDisposed, "stateless worker pool is disposed")
	}
}

// Deactivate implements GrainContext. Every worker is deactivated and the
// controller stops.
func (s *StatelessWorkerContext) Deactivate(ctx context.Context, reason DeactivationReason) {
	s.enqueue(workItem{kind: workItemDeactivate, state: deactivateState{ctx: ctx, reason: reason}})
}

// Deactivated implements GrainContext. The channel receives nil once every
// worker present when the request is handled has deactivated, or the first
// worker failure.
func (s *StatelessWorkerContext) Deactivated() <-chan error {
	done := new(completion)
	if !s.enqueue(workItem{kind: workItemDeactivated, state: done}) {
		done.complete(nil)
	}
	return done.wait()
}

// Dispose implements GrainContext. Every worker is disposed concurrently; the
// failures are combined into an *errors.AggregateDisposalError once all of
// them finished. The drain loop stops afterwards.
func (s *StatelessWorkerContext) Dispose(ctx context.Context) error {
	done := new(completion)
	if !s.enqueue(workItem{kind: workItemDispose, state: done}) {
		return nil
	}

	select {
	case err := <-done.wait():
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Rehydrate implements GrainContext. Migration is not supported, the
// carried state is released.
func (s *StatelessWorkerContext) Rehydrate(rc RehydrationContext) {
	releaseRehydrationContext(s.shared, rc)
}

// Migrate implements GrainContext. Stateless workers never migrate.
func (s *StatelessWorkerContext) Migrate(context.Context, requestcontext.Data) {}

// GetComponent implements GrainContext. The pool answers the keys it
// implements itself, other components come from the kind.
func (s *StatelessWorkerContext) GetComponent(key reflect.Type) (any, bool) {
	if key != nil && reflect.TypeOf(s).AssignableTo(key) {
		return s, true
	}
	return s.shared.GetComponent(key)
}

// SetComponent implements GrainContext. Only CanInterleave is accepted; it
// is stored on the kind so every worker sees it.
func (s *StatelessWorkerContext) SetComponent(key reflect.Type, value any) error {
	if key != reflect.TypeFor[CanInterleave]() {
		return fmt.Errorf("%w: a stateless worker pool does not accept %v", gerrors.ErrInvalidComponent, key)
	}
	return s.shared.SetComponent(key, value)
}

// OnCreateActivation implements LifecycleObserver
func (s *StatelessWorkerContext) OnCreateActivation(GrainContext) {}

// OnDestroyActivation implements LifecycleObserver
func (s *StatelessWorkerContext) OnDestroyActivation(grainCtx GrainContext) {
	s.enqueue(workItem{kind: workItemWorkerDestroyed, state: grainCtx})
}

// String describes the pool
func (s *StatelessWorkerContext) String() string {
	return fmt.Sprintf("StatelessWorkerContext(%s, workers=%d/%d)", s.address, s.Workers(), s.maxWorkers)
}

// enqueue hands the item to the drain loop. It returns false once the loop stopped.
func (s *StatelessWorkerContext) enqueue(item workItem) bool {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return false
	}

	s.items.Push(item)
	select {
	case s.signal <- struct{}{}:
	default:
	}
	return true
}

func (s *StatelessWorkerContext) run(ticks <-chan time.Time) {
	defer close(s.stopped)
	for {
		s.drain()
		select {
		case <-s.signal:
		case <-ticks:
			s.items.Push(workItem{kind: workItemCollectWorkers})
		case <-s.stop:
			s.close()
			return
		}
	}
}

func (s *StatelessWorkerContext) drain() {
	for {
		item, ok := s.items.Pop()
		if !ok {
			return
		}
		s.process(item)
	}
}

// process runs one item. A failing item is logged and the loop goes on.
func (s *StatelessWorkerContext) process(item workItem) {
	defer func() {
		if r := recover(); r != nil {
			s.shared.Logger().Errorf("error in stateless worker message loop of %s: %v", s.address, r)
		}
	}()

	switch item.kind {
	case workItemMessage:
		s.receiveMessage(item.state.(*Message))
	case workItemDeactivate:
		state := item.state.(deactivateState)
		s.deactivateWorkers(state.ctx, state.reason)
	case workItemDeactivated:
		s.awaitWorkers(item.state.(*completion))
	case workItemDispose:
		s.disposeWorkers(item.state.(*completion))
	case workItemWorkerDestroyed:
		s.removeWorker(item.state.(GrainContext))
	case workItemCollectWorkers:
		s.collectWorkers(time.Now())
	default:
		s.shared.Logger().Errorf("unsupported work item %d on %s", item.kind, s.address)
	}
}

func (s *StatelessWorkerContext) receiveMessage(message *Message) {
	defer func() {
		if r := recover(); r != nil {
			s.shared.Rejector().RejectMessage(message, gerrors.RejectionTransient, gerrors.NewPanicError(fmt.Errorf("%v", r)), workerCreationFailureReason)
		}
	}()

	if s.disposing {
		s.shared.Rejector().RejectMessage(message, gerrors.RejectionTransient, gerrors.ErrDisposed, "stateless worker pool is disposing")
		return
	}

	worker, err := s.route(message)
	if err != nil {
		s.shared.Rejector().RejectMessage(message, gerrors.RejectionTransient, err, workerCreationFailureReason)
		return
	}
	worker.ReceiveMessage(message)
}

// route picks the worker handling the message
func (s *StatelessWorkerContext) route(message *Message) (WorkerContext, error) {
	var minimum WorkerContext
	minimumWaiting := int(^uint(0) >> 1)

	for _, worker := range s.workers {
		if s.retiring.Contains(worker) {
			continue
		}
		if worker.IsInactive() {
			return worker, nil
		}
		if waiting := worker.WaitingCount(); waiting < minimumWaiting {
			minimumWaiting = waiting
			minimum = worker
		}
	}

	if len(s.workers) < s.maxWorkers {
		return s.createWorker(message)
	}
	if minimum == nil {
		return nil, fmt.Errorf("%w: every worker of %s is deactivating", gerrors.ErrNotActive, s.address)
	}
	return minimum, nil
}

func (s *StatelessWorkerContext) createWorker(message *Message) (WorkerContext, error) {
	addr := s.address.WithActivationID(address.NewActivationID())
	worker, err := s.activator.CreateContext(addr)
	if err != nil {
		return nil, err
	}

	if err := SetComponent[LifecycleObserver](worker, s); err != nil {
		return nil, err
	}

	var data requestcontext.Data
	if message != nil {
		data = message.RequestContext().Clone()
	}

	if err := worker.Activate(context.Background(), data); err != nil {
		return nil, err
	}

	s.workers = append(s.workers, worker)
	s.workerCount.Store(int64(len(s.workers)))
	s.shared.Metric().RecordWorkerCreated(context.Background(), s.shared.Kind())
	s.shared.Logger().Debugf("worker %s added to %s", worker.ActivationID(), s.address)
	return worker, nil
}

func (s *StatelessWorkerContext) removeWorker(grainCtx GrainContext) {
	for i, worker := range s.workers {
		if GrainContext(worker) != grainCtx {
			continue
		}

		s.workers = append(s.workers[:i], s.workers[i+1:]...)
		s.retiring.Remove(worker)
		s.workerCount.Store(int64(len(s.workers)))
		s.shared.Metric().RecordWorkerDestroyed(context.Background(), s.shared.Kind())

		if len(s.workers) == 0 {
			// the pool is gone with its last worker
			s.shared.Catalog().UnregisterMessageTarget(s)
		}
		return
	}
}

// collectWorkers runs one controller period
func (s *StatelessWorkerContext) collectWorkers(now time.Time) {
	if s.controller == nil {
		return
	}

	waiting := make([]int, len(s.workers))
	for i, worker := range s.workers {
		waiting[i] = worker.WaitingCount()
	}

	if !s.controller.step(waiting, now) {
		return
	}

	idle := make([]WorkerContext, 0, len(s.workers))
	for _, worker := range s.workers {
		if worker.IsInactive() && !s.retiring.Contains(worker) {
			idle = append(idle, worker)
		}
	}
	if len(idle) == 0 {
		return
	}

	victim := idle[s.random(len(idle))]
	s.retiring.Add(victim)
	victim.Deactivate(context.Background(), NewDeactivationReason(DeactivationRuntimeRequested, "worker deactivated due to inactivity"))
	s.controller.removed(len(idle), now)
	s.shared.Metric().RecordWorkerRemoved(context.Background(), s.shared.Kind())
	s.shared.Logger().Debugf("idle worker %s removed from %s", victim.ActivationID(), s.address)
}

func (s *StatelessWorkerContext) stopCollector() {
	if s.collector != nil {
		s.collector.Stop()
	}
}

func (s *StatelessWorkerContext) deactivateWorkers(ctx context.Context, reason DeactivationReason) {
	for _, worker := range s.workers {
		worker.Deactivate(ctx, reason)
	}
	s.stopCollector()
}

// awaitWorkers completes done once the current workers deactivated
func (s *StatelessWorkerContext) awaitWorkers(done *completion) {
	s.stopCollector()
	workers := append([]WorkerContext(nil), s.workers...)
	go func() {
		var group errgroup.Group
		for _, worker := range workers {
			group.Go(func() error {
				return <-worker.Deactivated()
			})
		}
		done.complete(group.Wait())
	}()
}

// disposeWorkers disposes every worker concurrently and stops the loop
func (s *StatelessWorkerContext) disposeWorkers(done *completion) {
	s.disposing = true
	s.stopCollector()
	workers := append([]WorkerContext(nil), s.workers...)
	go func() {
		errs := make([]error, len(workers))
		var group errgroup.Group
		for i, worker := range workers {
			group.Go(func() error {
				errs[i] = safeCall(func() error { return worker.Dispose(context.Background()) })
				return nil
			})
		}
		_ = group.Wait()

		s.stopOnce.Do(func() { close(s.stop) })
		<-s.stopped

		if err := gerrors.NewAggregateDisposalError(errs...); err != nil {
			done.complete(err)
			return
		}
		done.complete(nil)
	}()
}

// close refuses new items and settles the ones left in the queue
func (s *StatelessWorkerContext) close() {
	s.closeMu.Lock()
	s.closed = true
	s.closeMu.Unlock()

	for {
		item, ok := s.items.Pop()
		if !ok {
			return
		}
		switch item.kind {
		case workItemMessage:
			s.shared.Rejector().RejectMessage(item.state.(*Message), gerrors.RejectionTransient, gerrors.ErrDisposed, "stateless worker pool is disposed")
		case workItemDeactivated, workItemDispose:
			item.state.(*completion).complete(nil)
		}
	}
}
