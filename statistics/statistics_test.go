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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/silo/address"
	"github.com/tochemey/silo/log"
	"github.com/tochemey/silo/memory"
)

type recordingListener struct {
	mu      sync.Mutex
	updates map[address.Node]*NodeStatistics
	removed []address.Node
}

func newRecordingListener() *recordingListener {
	return &recordingListener{updates: make(map[address.Node]*NodeStatistics)}
}

func (l *recordingListener) OnStatistics(node address.Node, stats *NodeStatistics) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.updates[node] = stats
}

func (l *recordingListener) OnNodeRemoved(node address.Node) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.removed = append(l.removed, node)
}

func (l *recordingListener) updateCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.updates)
}

type fakeSampler struct {
	sample memory.Sample
	err    error
}

func (f *fakeSampler) Sample(context.Context) (memory.Sample, error) {
	return f.sample, f.err
}

type fakeBroadcaster struct {
	mu       sync.Mutex
	sent     int
	removals int
	err      error
}

func (f *fakeBroadcaster) Broadcast(address.Node, *NodeStatistics) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent++
	return f.err
}

func (f *fakeBroadcaster) BroadcastRemoval(address.Node) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removals++
	return nil
}

func (f *fakeBroadcaster) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent, f.removals
}

func TestLoadPublisher(t *testing.T) {
	node1 := address.NewNode("10.0.0.1", 3322, 1)
	node2 := address.NewNode("10.0.0.2", 3322, 1)

	t.Run("With replay on subscribe", func(t *testing.T) {
		publisher := NewLoadPublisher(log.DiscardLogger)
		publisher.Publish(node1, &NodeStatistics{CPUUsage: 10})
		publisher.Publish(node2, nil)

		listener := newRecordingListener()
		publisher.Subscribe(listener)
		require.Equal(t, 1, listener.updateCount())
		assert.Equal(t, 10.0, listener.updates[node1].CPUUsage)
		assert.ElementsMatch(t, []address.Node{node1}, publisher.Nodes())
	})
	t.Run("With fan out and removal", func(t *testing.T) {
		publisher := NewLoadPublisher(log.DiscardLogger)
		first := newRecordingListener()
		second := newRecordingListener()
		publisher.Subscribe(first)
		publisher.Subscribe(second)

		publisher.Publish(node2, &NodeStatistics{CPUUsage: 50})
		assert.Equal(t, 1, first.updateCount())
		assert.Equal(t, 1, second.updateCount())

		snapshot, ok := publisher.Snapshot(node2)
		require.True(t, ok)
		assert.Equal(t, 50.0, snapshot.CPUUsage)

		publisher.Unsubscribe(second)
		publisher.RemoveNode(node2)
		publisher.RemoveNode(node2)
		assert.Equal(t, []address.Node{node2}, first.removed)
		assert.Empty(t, second.removed)

		_, ok = publisher.Snapshot(node2)
		assert.False(t, ok)
	})
}

func TestEnvelope(t *testing.T) {
	node := address.NewNode("10.0.0.1", 3322, 4)

	t.Run("With update", func(t *testing.T) {
		stats := &NodeStatistics{
			ActivationCount:        12,
			CPUUsage:               42.5,
			AvailableMemory:        1 << 30,
			MemoryUsage:            1 << 28,
			MaximumAvailableMemory: 1 << 32,
			IsOverloaded:           true,
			DateTime:               time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		}
		bytea, err := NewUpdateEnvelope(node, stats).Marshal()
		require.NoError(t, err)

		envelope, err := UnmarshalEnvelope(bytea)
		require.NoError(t, err)
		assert.Equal(t, EnvelopeUpdate, envelope.Kind)
		assert.Equal(t, stats.CPUUsage, envelope.Statistics.CPUUsage)
		assert.True(t, envelope.Statistics.DateTime.Equal(stats.DateTime))

		publisher := NewLoadPublisher(log.DiscardLogger)
		require.NoError(t, envelope.Deliver(publisher))
		got, ok := publisher.Snapshot(node)
		require.True(t, ok)
		assert.EqualValues(t, 12, got.ActivationCount)
	})
	t.Run("With removal", func(t *testing.T) {
		publisher := NewLoadPublisher(log.DiscardLogger)
		publisher.Publish(node, &NodeStatistics{})

		bytea, err := NewRemovalEnvelope(node).Marshal()
		require.NoError(t, err)
		envelope, err := UnmarshalEnvelope(bytea)
		require.NoError(t, err)
		require.NoError(t, envelope.Deliver(publisher))
		assert.Empty(t, publisher.Nodes())
	})
	t.Run("With invalid payloads", func(t *testing.T) {
		_, err := UnmarshalEnvelope([]byte("garbage"))
		require.Error(t, err)

		bytea, err := (&Envelope{Kind: 9, Node: node.String()}).Marshal()
		require.NoError(t, err)
		_, err = UnmarshalEnvelope(bytea)
		require.Error(t, err)

		bytea, err = (&Envelope{Kind: EnvelopeUpdate, Node: node.String()}).Marshal()
		require.NoError(t, err)
		_, err = UnmarshalEnvelope(bytea)
		require.Error(t, err)

		envelope := &Envelope{Kind: EnvelopeRemoval, Node: "nope"}
		require.Error(t, envelope.Deliver(NewLoadPublisher(log.DiscardLogger)))
	})
}

func TestCollector(t *testing.T) {
	sample := memory.Sample{CPUUsage: 97, Total: 1000, Available: 400, ProcessUsage: 100}

	t.Run("With counters and load shedding disabled", func(t *testing.T) {
		counters := NewCounters()
		counters.ActivationCreated()
		counters.ActivationCreated()
		counters.ActivationDestroyed()
		counters.SetRecentlyUsedActivations(1)
		counters.ClientConnected()
		counters.ClientConnected()
		counters.ClientDisconnected()
		counters.MessageReceived()
		counters.MessageSent()
		counters.MessageSent()

		collector, err := NewCollector(&fakeSampler{sample: sample}, counters, DefaultLoadSheddingConfig())
		require.NoError(t, err)

		stats, err := collector.Collect(context.Background())
		require.NoError(t, err)
		assert.EqualValues(t, 1, stats.ActivationCount)
		assert.EqualValues(t, 1, stats.RecentlyUsedActivationCount)
		assert.EqualValues(t, 1, stats.ClientCount)
		assert.EqualValues(t, 1, stats.ReceivedMessages)
		assert.EqualValues(t, 2, stats.SentMessages)
		assert.EqualValues(t, 400, stats.AvailableMemory)
		assert.EqualValues(t, 100, stats.MemoryUsage)
		assert.EqualValues(t, 1000, stats.MaximumAvailableMemory)
		assert.False(t, stats.IsOverloaded)
		assert.False(t, stats.DateTime.IsZero())
	})
	t.Run("With load shedding", func(t *testing.T) {
		config := LoadSheddingConfig{Enabled: true, CPULimit: 95, MemoryLimit: 90}
		assert.True(t, config.IsOverloaded(sample))
		assert.False(t, config.IsOverloaded(memory.Sample{CPUUsage: 50, Total: 1000, Available: 400}))
		assert.True(t, config.IsOverloaded(memory.Sample{CPUUsage: 50, Total: 1000, Available: 50}))
		assert.False(t, config.IsOverloaded(memory.Sample{CPUUsage: 50}))
	})
	t.Run("With invalid config", func(t *testing.T) {
		_, err := NewCollector(&fakeSampler{}, NewCounters(), LoadSheddingConfig{CPULimit: 120})
		require.Error(t, err)
	})
	t.Run("With sampler failure", func(t *testing.T) {
		collector, err := NewCollector(&fakeSampler{err: errors.New("no procfs")}, NewCounters(), DefaultLoadSheddingConfig())
		require.NoError(t, err)
		_, err = collector.Collect(context.Background())
		require.Error(t, err)
	})
}

func TestReporter(t *testing.T) {
	node := address.NewNode("10.0.0.1", 3322, 1)

	t.Run("With periodic reports", func(t *testing.T) {
		ctx := context.Background()
		collector, err := NewCollector(&fakeSampler{sample: memory.Sample{CPUUsage: 5, Total: 100, Available: 50}}, NewCounters(), DefaultLoadSheddingConfig())
		require.NoError(t, err)

		publisher := NewLoadPublisher(log.DiscardLogger)
		listener := newRecordingListener()
		publisher.Subscribe(listener)

		broadcaster := &fakeBroadcaster{}
		reporter, err := NewReporter(node, collector, publisher,
			WithBroadcasters(broadcaster),
			WithReportInterval(50*time.Millisecond),
			WithReporterLogger(log.DiscardLogger))
		require.NoError(t, err)

		require.NoError(t, reporter.Start(ctx))
		require.NoError(t, reporter.Start(ctx))
		require.Equal(t, 1, listener.updateCount())

		require.Eventually(t, func() bool {
			sent, _ := broadcaster.counts()
			return sent >= 3
		}, 2*time.Second, 10*time.Millisecond)

		require.NoError(t, reporter.Stop(ctx))
		require.NoError(t, reporter.Stop(ctx))
		_, removals := broadcaster.counts()
		assert.Equal(t, 1, removals)
	})
	t.Run("With broadcast failure", func(t *testing.T) {
		collector, err := NewCollector(&fakeSampler{}, NewCounters(), DefaultLoadSheddingConfig())
		require.NoError(t, err)
		publisher := NewLoadPublisher(log.DiscardLogger)
		reporter, err := NewReporter(node, collector, publisher,
			WithBroadcasters(&fakeBroadcaster{err: errors.New("nats down")}),
			WithReporterLogger(log.DiscardLogger))
		require.NoError(t, err)

		require.Error(t, reporter.Report(context.Background()))
		// the local feed is updated regardless
		_, ok := publisher.Snapshot(node)
		assert.True(t, ok)
	})
	t.Run("With invalid interval", func(t *testing.T) {
		collector, err := NewCollector(&fakeSampler{}, NewCounters(), DefaultLoadSheddingConfig())
		require.NoError(t, err)
		_, err = NewReporter(node, collector, NewLoadPublisher(log.DiscardLogger), WithReportInterval(0))
		require.Error(t, err)
	})
}
