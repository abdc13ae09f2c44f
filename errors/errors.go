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

package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

var (
	// ErrNoCompatibleNode is returned when placement finds no node able to host the activation.
	ErrNoCompatibleNode = errors.New("no compatible node")

	// ErrInvalidConfiguration is returned when a component is constructed with an invalid configuration.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrQueueFull is returned when a bounded activation queue cannot accept more work.
	ErrQueueFull = errors.New("activation queue is full")

	// ErrDispatcherNotStarted is returned when work is submitted to a dispatcher that is not running.
	ErrDispatcherNotStarted = errors.New("dispatcher has not started")

	// ErrActivationFailure is returned when a grain activation could not complete OnActivate.
	ErrActivationFailure = errors.New("activation failed")

	// ErrDeactivationFailure is returned when a grain failed while running OnDeactivate.
	ErrDeactivationFailure = errors.New("deactivation failed")

	// ErrInvalidComponent is returned when a component cannot be attached to a grain context.
	ErrInvalidComponent = errors.New("invalid component")

	// ErrDisposed is returned when an operation targets a context that has been disposed.
	ErrDisposed = errors.New("grain context is disposed")

	// ErrInvalidGrainID is returned when a grain identity is missing its kind or key.
	ErrInvalidGrainID = errors.New("invalid grain id")

	// ErrInvalidNode is returned when a node address is malformed.
	ErrInvalidNode = errors.New("invalid node address")

	// ErrNotActive is returned when a message reaches an activation that is not valid anymore.
	ErrNotActive = errors.New("activation is not active")

	// ErrUnknownPlacementStrategy is returned when no director serves a placement strategy.
	ErrUnknownPlacementStrategy = errors.New("unknown placement strategy")

	// ErrTransportClosed is returned when a statistics transport is used after being closed.
	ErrTransportClosed = errors.New("transport is closed")

	// ErrTransportNotStarted is returned when a statistics transport is used before being started.
	ErrTransportNotStarted = errors.New("transport has not started")
)

// NoCompatibleNodeError is returned by placement when no candidate node
// can host the given grain.
type NoCompatibleNodeError struct {
	grain string
}

// enforce compilation error
var _ error = (*NoCompatibleNodeError)(nil)

// NewNoCompatibleNodeError creates an instance of NoCompatibleNodeError
func NewNoCompatibleNodeError(grain string) *NoCompatibleNodeError {
	return &NoCompatibleNodeError{grain: grain}
}

// Error implements the standard error interface
func (e *NoCompatibleNodeError) Error() string {
	return fmt.Sprintf("%s for grain %s", ErrNoCompatibleNode.Error(), e.grain)
}

func (e *NoCompatibleNodeError) Unwrap() error {
	return ErrNoCompatibleNode
}

// ConfigurationError wraps the validation failures of a component configuration
type ConfigurationError struct {
	err error
}

// enforce compilation error
var _ error = (*ConfigurationError)(nil)

// NewConfigurationError creates an instance of ConfigurationError
func NewConfigurationError(err error) *ConfigurationError {
	return &ConfigurationError{err: err}
}

// Error implements the standard error interface
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %v", ErrInvalidConfiguration.Error(), e.err)
}

func (e *ConfigurationError) Unwrap() []error {
	return []error{ErrInvalidConfiguration, e.err}
}

// RejectionType classifies a rejected message
type RejectionType int

const (
	// RejectionTransient tells the sender the failure may succeed on retry
	RejectionTransient RejectionType = iota
	// RejectionPermanent tells the sender not to retry
	RejectionPermanent
)

// String returns the rejection type name
func (r RejectionType) String() string {
	switch r {
	case RejectionTransient:
		return "Transient"
	case RejectionPermanent:
		return "Permanent"
	default:
		return "Unknown"
	}
}

// RejectionError is delivered to the sender of a message that could not be handled
type RejectionError struct {
	kind   RejectionType
	reason string
	err    error
}

// enforce compilation error
var _ error = (*RejectionError)(nil)

// NewRejectionError creates an instance of RejectionError
func NewRejectionError(kind RejectionType, reason string, err error) *RejectionError {
	return &RejectionError{kind: kind, reason: reason, err: err}
}

// Kind returns the rejection classification
func (e *RejectionError) Kind() RejectionType {
	return e.kind
}

// Reason returns the human readable reason
func (e *RejectionError) Reason() string {
	return e.reason
}

// Transient reports whether the sender may retry
func (e *RejectionError) Transient() bool {
	return e.kind == RejectionTransient
}

// Error implements the standard error interface
func (e *RejectionError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("message rejected (%s): %s", e.kind, e.reason)
	}
	return fmt.Sprintf("message rejected (%s): %s: %v", e.kind, e.reason, e.err)
}

func (e *RejectionError) Unwrap() error {
	return e.err
}

// AggregateDisposalError holds every failure raised while disposing child contexts
type AggregateDisposalError struct {
	err error
}

// enforce compilation error
var _ error = (*AggregateDisposalError)(nil)

// NewAggregateDisposalError combines the given errors. It returns nil when all of them are nil.
func NewAggregateDisposalError(errs ...error) *AggregateDisposalError {
	combined := multierr.Combine(errs...)
	if combined == nil {
		return nil
	}
	return &AggregateDisposalError{err: combined}
}

// Errors returns the individual disposal failures
func (e *AggregateDisposalError) Errors() []error {
	return multierr.Errors(e.err)
}

// Error implements the standard error interface
func (e *AggregateDisposalError) Error() string {
	errs := e.Errors()
	messages := make([]string, 0, len(errs))
	for _, err := range errs {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("%d disposal(s) failed: %s", len(errs), strings.Join(messages, "; "))
}

func (e *AggregateDisposalError) Unwrap() []error {
	return e.Errors()
}

// PanicError defines the panic error
// wrapping the underlying error
type PanicError struct {
	err error
}

// enforce compilation error
var _ error = (*PanicError)(nil)

// NewPanicError creates an instance of PanicError
func NewPanicError(err error) *PanicError {
	return &PanicError{err}
}

// Error implements the standard error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.err)
}

func (e *PanicError) Unwrap() error {
	return e.err
}

// IsCanceled reports whether err is the expected outcome of a shutdown or a timeout
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
