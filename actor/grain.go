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

// Package actor holds the addressable activation contract and its two
// implementations: the plain Activation, backed by one grain instance and
// its own scheduler, and the StatelessWorkerContext which fronts a
// self-scaling pool of interchangeable activations under a single address.
package actor

import (
	"context"

	"google.golang.org/protobuf/proto"

	"github.com/tochemey/silo/address"
)

// Grain is the user code hosted by an activation.
//
// The runtime calls the methods of one grain instance one at a time, in the
// order the work was enqueued. Implementations therefore need no locking of
// their own state.
//
//   - OnActivate runs before any message. An error fails the activation and
//     every message queued behind it is rejected as transient.
//   - OnReceive handles one message and returns the reply. A nil reply is
//     fine for one-way messages.
//   - OnDeactivate runs after the messages queued before the deactivation
//     request. Use it to persist state and release resources.
//
// The context carries the deadline of the call and the request context of
// the triggering message (see requestcontext.FromContext).
type Grain interface {
	OnActivate(ctx context.Context, grainCtx GrainContext) error
	OnReceive(ctx context.Context, grainCtx GrainContext, message *Message) (proto.Message, error)
	OnDeactivate(ctx context.Context, grainCtx GrainContext, reason DeactivationReason) error
}

// GrainFactory creates the grain instance of a new activation
type GrainFactory func(id address.GrainID) (Grain, error)
