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

// Package redis shares the node statistics of a cluster over a Redis
// Pub/Sub channel.
package redis

import (
	"context"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/atomic"

	"github.com/tochemey/silo/address"
	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/log"
	"github.com/tochemey/silo/statistics"
)

// Transport broadcasts statistics through Redis Pub/Sub
type Transport struct {
	mu     sync.Mutex
	config Config
	local  address.Node
	sink   statistics.Sink
	logger log.Logger

	client   *redis.Client
	pubSub   *redis.PubSub
	consumed chan struct{}
	started  *atomic.Bool
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

// Start connects to the server and subscribes to the statistics channel
func (t *Transport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started.Load() {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     t.config.Address,
		Username: t.config.Username,
		Password: t.config.Password,
		DB:       t.config.DB,
	})

	retrier := retry.NewRetrier(t.config.ConnectRetries, 100*time.Millisecond, t.config.ConnectTimeout)
	if err := retrier.RunContext(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, t.config.ConnectTimeout)
		defer cancel()
		return client.Ping(ctx).Err()
	}); err != nil {
		_ = client.Close()
		return err
	}

	pubSub := client.Subscribe(ctx, t.config.Channel)
	// wait for the subscription to be confirmed
	if _, err := pubSub.Receive(ctx); err != nil {
		_ = pubSub.Close()
		_ = client.Close()
		return err
	}

	t.client = client
	t.pubSub = pubSub
	t.consumed = make(chan struct{})
	t.started.Store(true)
	go t.consume(pubSub.Channel(), t.consumed)

	t.logger.Infof("statistics of node %s shared on redis channel %s", t.local, t.config.Channel)
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

// Stop closes the subscription and the client
func (t *Transport) Stop(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started.Swap(false) {
		return nil
	}

	err := t.pubSub.Close()
	<-t.consumed
	if cerr := t.client.Close(); err == nil {
		err = cerr
	}

	t.pubSub = nil
	t.client = nil
	return err
}

func (t *Transport) publish(envelope *statistics.Envelope) error {
	t.mu.Lock()
	client := t.client
	t.mu.Unlock()

	if !t.started.Load() || client == nil {
		return gerrors.ErrTransportNotStarted
	}

	payload, err := envelope.Marshal()
	if err != nil {
		return err
	}
	return client.Publish(context.Background(), t.config.Channel, payload).Err()
}

// consume feeds the snapshots of the peers into the sink until the
// subscription closes
func (t *Transport) consume(messages <-chan *redis.Message, done chan<- struct{}) {
	defer close(done)
	for message := range messages {
		envelope, err := statistics.UnmarshalEnvelope([]byte(message.Payload))
		if err != nil {
			t.logger.Errorf("failed to decode statistics message: %v", err)
			continue
		}

		if envelope.Node == t.local.String() {
			continue
		}

		if err := envelope.Deliver(t.sink); err != nil {
			t.logger.Errorf("failed to deliver statistics of %s: %v", envelope.Node, err)
		}
	}
}
