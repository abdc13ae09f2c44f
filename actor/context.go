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
	"reflect"

	"github.com/tochemey/silo/address"
	"github.com/tochemey/silo/placement"
	"github.com/tochemey/silo/requestcontext"
)

// DeactivationCode classifies why an activation is deactivated
type DeactivationCode int

const (
	// DeactivationApplicationRequested is a deactivation asked for by user code
	DeactivationApplicationRequested DeactivationCode = iota
	// DeactivationRuntimeRequested is a deactivation decided by the runtime, e.g. an idle worker
	DeactivationRuntimeRequested
	// DeactivationShuttingDown is a deactivation caused by the node shutting down
	DeactivationShuttingDown
	// DeactivationActivationFailed is a deactivation caused by a failed OnActivate
	DeactivationActivationFailed
	// DeactivationDisposed is a deactivation caused by the disposal of the context
	DeactivationDisposed
)

// String returns the code name
func (c DeactivationCode) String() string {
	switch c {
	case DeactivationApplicationRequested:
		return "ApplicationRequested"
	case DeactivationRuntimeRequested:
		return "RuntimeRequested"
	case DeactivationShuttingDown:
		return "ShuttingDown"
	case DeactivationActivationFailed:
		return "ActivationFailed"
	case DeactivationDisposed:
		return "Disposed"
	default:
		return "Unknown"
	}
}

// DeactivationReason describes why an activation is deactivated
type DeactivationReason struct {
	Code        DeactivationCode
	Description string
}

// NewDeactivationReason creates a DeactivationReason
func NewDeactivationReason(code DeactivationCode, description string) DeactivationReason {
	return DeactivationReason{Code: code, Description: description}
}

// String describes the reason
func (r DeactivationReason) String() string {
	return fmt.Sprintf("%s: %s", r.Code, r.Description)
}

// RehydrationContext carries the state of a grain migrated from another
// node. Whoever receives it must dispose it.
type RehydrationContext interface {
	Dispose() error
}

// GrainContext is the addressable activation contract. Plain activations
// and stateless worker pools both implement it, so callers cannot tell a
// pooled logical grain from a single one.
type GrainContext interface {
	// GrainID returns the identity of the grain
	GrainID() address.GrainID
	// ActivationID returns the id of this activation
	ActivationID() string
	// Address returns the full address of the activation
	Address() *address.GrainAddress
	// PlacementStrategy returns the placement strategy of the grain kind
	PlacementStrategy() placement.Strategy
	// ReceiveMessage delivers a message. It never blocks.
	ReceiveMessage(message *Message)
	// Deactivate asks the activation to deactivate after the work already queued
	Deactivate(ctx context.Context, reason DeactivationReason)
	// Deactivated returns a channel receiving the deactivation outcome
	Deactivated() <-chan error
	// Dispose deactivates the activation when needed and releases its resources
	Dispose(ctx context.Context) error
	// Rehydrate receives the state of a migrated grain
	Rehydrate(rc RehydrationContext)
	// Migrate asks the activation to move to another node. Migration is best effort.
	Migrate(ctx context.Context, data requestcontext.Data)
	// GetComponent returns the component registered under key
	GetComponent(key reflect.Type) (any, bool)
	// SetComponent registers a component under key. A nil value removes it.
	SetComponent(key reflect.Type, value any) error
}

// WorkerContext is a physical activation that can be started and observed
// by a worker pool.
type WorkerContext interface {
	GrainContext
	// Activate schedules Grain.OnActivate ahead of any message. It does not wait for it.
	Activate(ctx context.Context, data requestcontext.Data) error
	// WaitingCount returns the number of queued and in-flight messages
	WaitingCount() int
	// IsInactive reports whether the activation is valid and has nothing to do
	IsInactive() bool
}
