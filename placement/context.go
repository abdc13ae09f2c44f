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

package placement

import (
	"context"
	"slices"

	"github.com/tochemey/silo/address"
	"github.com/tochemey/silo/requestcontext"
)

// PlacementHintKey is the request context key naming the node a caller wants the activation on
const PlacementHintKey = "#PlacementHint"

// NodeStatus is the membership status of a node as seen locally
type NodeStatus int

const (
	// NodeStatusNone means the status is unknown
	NodeStatusNone NodeStatus = iota
	// NodeStatusJoining means the node is joining the cluster
	NodeStatusJoining
	// NodeStatusActive means the node accepts activations
	NodeStatusActive
	// NodeStatusShuttingDown means the node is leaving gracefully
	NodeStatusShuttingDown
	// NodeStatusDead means the node left the cluster
	NodeStatusDead
)

// String returns the status name
func (s NodeStatus) String() string {
	switch s {
	case NodeStatusJoining:
		return "Joining"
	case NodeStatusActive:
		return "Active"
	case NodeStatusShuttingDown:
		return "ShuttingDown"
	case NodeStatusDead:
		return "Dead"
	default:
		return "None"
	}
}

// Target describes the activation being placed
type Target struct {
	// GrainID is the identity of the grain to activate
	GrainID address.GrainID
	// RequestContext is the request context of the message that triggered the activation
	RequestContext requestcontext.Data
}

// Context resolves the candidate nodes of a placement
type Context interface {
	// CompatibleNodes returns the nodes able to host the target
	CompatibleNodes(ctx context.Context, target *Target) ([]address.Node, error)
	// LocalNode returns the node making the placement decision
	LocalNode() address.Node
	// LocalNodeStatus returns the membership status of the local node
	LocalNodeStatus() NodeStatus
}

// WithPlacementHint returns a copy of data naming node as the preferred host
func WithPlacementHint(data requestcontext.Data, node address.Node) requestcontext.Data {
	hinted := data.Clone()
	if hinted == nil {
		hinted = requestcontext.New()
	}
	hinted.Set(PlacementHintKey, node)
	return hinted
}

// HintFromRequestContext returns the hinted node when it is one of the compatible nodes.
// The hint may be stored as an address.Node or in its string form.
func HintFromRequestContext(data requestcontext.Data, compatible []address.Node) (address.Node, bool) {
	value, ok := data.Get(PlacementHintKey)
	if !ok {
		return address.Node{}, false
	}

	var hint address.Node
	switch v := value.(type) {
	case address.Node:
		hint = v
	case string:
		parsed, err := address.ParseNode(v)
		if err != nil {
			return address.Node{}, false
		}
		hint = parsed
	default:
		return address.Node{}, false
	}

	if !slices.Contains(compatible, hint) {
		return address.Node{}, false
	}
	return hint, true
}
