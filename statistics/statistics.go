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

// Package statistics produces and distributes the runtime statistics of the
// nodes of a cluster. Placement subscribes to a Publisher to learn the load
// of every node.
package statistics

import (
	"time"

	"github.com/tochemey/silo/address"
)

// NodeStatistics is a snapshot of the runtime statistics of one node
type NodeStatistics struct {
	// ActivationCount is the number of live activations
	ActivationCount int64 `cbor:"1,keyasint"`
	// RecentlyUsedActivationCount is the number of activations used within the collection window
	RecentlyUsedActivationCount int64 `cbor:"2,keyasint"`
	// CPUUsage is the CPU usage in percent
	CPUUsage float64 `cbor:"3,keyasint"`
	// AvailableMemory is the memory available on the host in bytes
	AvailableMemory int64 `cbor:"4,keyasint"`
	// MemoryUsage is the memory used by the node process in bytes
	MemoryUsage int64 `cbor:"5,keyasint"`
	// MaximumAvailableMemory is the physical memory of the host in bytes
	MaximumAvailableMemory int64 `cbor:"6,keyasint"`
	// IsOverloaded is set when the node sheds load
	IsOverloaded bool `cbor:"7,keyasint"`
	// ClientCount is the number of connected clients
	ClientCount int64 `cbor:"8,keyasint"`
	// ReceivedMessages is the total number of messages received
	ReceivedMessages int64 `cbor:"9,keyasint"`
	// SentMessages is the total number of messages sent
	SentMessages int64 `cbor:"10,keyasint"`
	// DateTime is the time the snapshot was taken
	DateTime time.Time `cbor:"11,keyasint"`
}

// Listener receives the statistics feed
type Listener interface {
	// OnStatistics is called with the latest snapshot of a node
	OnStatistics(node address.Node, stats *NodeStatistics)
	// OnNodeRemoved is called when a node leaves the cluster
	OnNodeRemoved(node address.Node)
}

// Publisher is the cluster wide statistics feed
type Publisher interface {
	// Subscribe registers the listener. Snapshots already known are replayed to it.
	Subscribe(listener Listener)
	// Unsubscribe removes the listener
	Unsubscribe(listener Listener)
}

// Sink accepts statistics coming from any source: the local collector or a
// remote node through a transport.
type Sink interface {
	// Publish records the snapshot of the node and notifies every listener
	Publish(node address.Node, stats *NodeStatistics)
	// RemoveNode forgets the node and notifies every listener
	RemoveNode(node address.Node)
}

// Broadcaster sends the local statistics to the other nodes of the cluster
type Broadcaster interface {
	// Broadcast sends the snapshot of node to every peer
	Broadcast(node address.Node, stats *NodeStatistics) error
	// BroadcastRemoval tells every peer that node is leaving
	BroadcastRemoval(node address.Node) error
}
