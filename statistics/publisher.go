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
	"github.com/google/uuid"

	"github.com/tochemey/silo/address"
	"github.com/tochemey/silo/internal/xsync"
	"github.com/tochemey/silo/log"
)

// LoadPublisher is the in-process statistics feed of a node. Local and
// remote snapshots are published into it and fanned out to its listeners.
type LoadPublisher struct {
	snapshots   *xsync.Map[address.Node, *NodeStatistics]
	subscribers *xsync.Map[string, Listener]
	logger      log.Logger
}

var (
	_ Publisher = (*LoadPublisher)(nil)
	_ Sink      = (*LoadPublisher)(nil)
)

// NewLoadPublisher creates a LoadPublisher
func NewLoadPublisher(logger log.Logger) *LoadPublisher {
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &LoadPublisher{
		snapshots:   xsync.NewMap[address.Node, *NodeStatistics](),
		subscribers: xsync.NewMap[string, Listener](),
		logger:      logger,
	}
}

// Subscribe registers the listener and replays the known snapshots to it
func (p *LoadPublisher) Subscribe(listener Listener) {
	p.subscribers.Set(uuid.NewString(), listener)
	p.snapshots.Range(func(node address.Node, stats *NodeStatistics) {
		listener.OnStatistics(node, stats)
	})
}

// Unsubscribe removes the listener
func (p *LoadPublisher) Unsubscribe(listener Listener) {
	for _, id := range p.subscribers.Keys() {
		if current, ok := p.subscribers.Get(id); ok && current == listener {
			p.subscribers.Delete(id)
		}
	}
}

// Publish records the snapshot and notifies every listener
func (p *LoadPublisher) Publish(node address.Node, stats *NodeStatistics) {
	if stats == nil {
		return
	}
	p.snapshots.Set(node, stats)
	p.logger.Debugf("statistics of node %s: cpu=%.2f%% overloaded=%t", node, stats.CPUUsage, stats.IsOverloaded)
	for _, listener := range p.subscribers.Values() {
		listener.OnStatistics(node, stats)
	}
}

// RemoveNode forgets the node and notifies every listener
func (p *LoadPublisher) RemoveNode(node address.Node) {
	if _, ok := p.snapshots.LoadAndDelete(node); !ok {
		return
	}
	p.logger.Infof("node %s removed from statistics feed", node)
	for _, listener := range p.subscribers.Values() {
		listener.OnNodeRemoved(node)
	}
}

// Snapshot returns the last snapshot of the node
func (p *LoadPublisher) Snapshot(node address.Node) (*NodeStatistics, bool) {
	return p.snapshots.Get(node)
}

// Nodes returns the nodes with a known snapshot
func (p *LoadPublisher) Nodes() []address.Node {
	return p.snapshots.Keys()
}
