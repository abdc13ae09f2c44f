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

// Package nats shares the node statistics of a cluster over a NATS subject.
// Every node publishes its own snapshots and feeds the snapshots of its
// peers into the local statistics sink.
package nats

import (
	"context"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/nats-io/nats.go"
	"go.uber.org/atomic"

	"github.com/tochemey/silo/address"
	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/log"
	"github.com/tochemey/silo/statistics"
)

// Transport broadcasts statistics through NATS
type Transport struct {
	mu     sync.Mutex
	config Config
	local  address.Node
	sink   statistics.Sink
	logger log.Logger

	connection   *nats.Conn
	subscription *nats.Subscription
	started      *atomic.Bool
}

// enforce compilation error
var _ statistics.Broadcaster = (*Transport)(nil)

// NewTransport creates a Transport for the local node. Snapshots received
// from the peers are published into sink.
func NewTransport(config *Config, local address.Node, sink statistics.Sink, opts ...Option) (*Transport, error) {
	if config == nil {
		return nil, gerrors.NewConfigurationError(gerrors.ErrInvalidConfiguration)
	}

	if err := config.Validate(); err != nil {
		return nil, gerrors.NewConfigurationError(err)
	}

	transport := &Transport{
		config:  *config,
		local:   local,
		sink:    sink,
		logger:  log.DefaultLogger,
		started: atomic.NewBool(false),
	}
	transport.config.sanitize()

	for _, opt := range opts {
		opt.Apply(transport)
	}
	return transport, nil
}

// Start connects to the server and subscribes to the statistics subject
func (t *Transport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started.Load() {
		return nil
	}

	opts := nats.GetDefaultOptions()
	opts.Url = t.config.Server
	opts.Name = t.local.String()
	opts.ReconnectWait = t.config.ReconnectWait
	opts.MaxReconnect = -1

	var connection *nats.Conn
	retrier := retry.NewRetrier(t.config.ConnectRetries, 100*time.Millisecond, t.config.ReconnectWait)
	if err := retrier.RunContext(ctx, func(context.Context) error {
		var err error
		connection, err = opts.Connect()
		return err
	}); err != nil {
		return err
	}

	subscription, err := connection.Subscribe(t.config.Subject, t.handle)
	if err != nil {
		connection.Close()
		return err
	}

	if err := connection.Flush(); err != nil {
		connection.Close()
		return err
	}

	t.connection = connection
	t.subscription = subscription
	t.started.Store(true)
	t.logger.Infof("statistics of node %s shared on nats subject %s", t.local, t.config.Subject)
	return nil
}

// Broadcast implements statistics.Broadcaster
func (t *Transport) Broadcast(node address.Node, stats *statistics.NodeStatistics) error {
	return t.publish(statistics.NewUpdateEnvelope(node, stats))
}

// BroadcastRemoval implements statistics.Broadcaster
func (t *Transport) BroadcastRemoval(node address.Node) error {
	return t.publish(statistics.NewRemovalEnvelope(node))
}

// Stop unsubscribes and drains the connection
func (t *Transport) Stop(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started.Swap(false) {
		return nil
	}

	if t.subscription != nil && t.subscription.IsValid() {
		if err := t.subscription.Unsubscribe(); err != nil {
			t.logger.Warnf("failed to unsubscribe from %s: %v", t.config.Subject, err)
		}
	}

	err := t.connection.Drain()
	t.connection = nil
	t.subscription = nil
	return err
}

func (t *Transport) publish(envelope *statistics.Envelope) error {
	t.mu.Lock()
	connection := t.connection
	t.mu.Unlock()

	if !t.started.Load() || connection == nil {
		return gerrors.ErrTransportNotStarted
	}

	payload, err := envelope.Marshal()
	if err != nil {
		return err
	}
	return connection.Publish(t.config.Subject, payload)
}

// handle feeds the snapshots of the peers into the sink
func (t *Transport) handle(msg *nats.Msg) {
	envelope, err := statistics.UnmarshalEnvelope(msg.Data)
	if err != nil {
		t.logger.Errorf("failed to decode statistics message: %v", err)
		return
	}

	if envelope.Node == t.local.String() {
		return
	}

	if err := envelope.Deliver(t.sink); err != nil {
		t.logger.Errorf("failed to deliver statistics of %s: %v", envelope.Node, err)
	}
}
