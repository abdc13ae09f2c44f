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

package address

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/internal/validation"
)

// GrainID is the logical identity of a grain: its kind and its key.
// Many activations may share one GrainID when the grain is a stateless worker.
type GrainID struct {
	kind string
	key  string
}

var _ validation.Validator = GrainID{}

// NewGrainID creates a GrainID
func NewGrainID(kind, key string) GrainID {
	return GrainID{kind: kind, key: key}
}

// ParseGrainID parses the kind/key form returned by String
func ParseGrainID(s string) (GrainID, error) {
	kind, key, ok := strings.Cut(s, "/")
	if !ok {
		return GrainID{}, fmt.Errorf("%w: %q", gerrors.ErrInvalidGrainID, s)
	}
	id := NewGrainID(kind, key)
	return id, id.Validate()
}

// Kind returns the grain kind
func (g GrainID) Kind() string {
	return g.kind
}

// Key returns the grain key
func (g GrainID) Key() string {
	return g.key
}

// String returns kind/key
func (g GrainID) String() string {
	return g.kind + "/" + g.key
}

// Validate implements validation.Validator
func (g GrainID) Validate() error {
	if err := validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("kind", g.kind)).
		AddValidator(validation.NewEmptyStringValidator("key", g.key)).
		Validate(); err != nil {
		return fmt.Errorf("%w: %v", gerrors.ErrInvalidGrainID, err)
	}
	return nil
}

// NewActivationID returns a fresh activation identifier
func NewActivationID() string {
	return uuid.NewString()
}

// GrainAddress locates one activation: the node hosting it, the grain it
// belongs to and its activation id.
type GrainAddress struct {
	node         Node
	grainID      GrainID
	activationID string
}

// NewGrainAddress creates a GrainAddress
func NewGrainAddress(node Node, grainID GrainID, activationID string) *GrainAddress {
	return &GrainAddress{node: node, grainID: grainID, activationID: activationID}
}

// Node returns the hosting node
func (a *GrainAddress) Node() Node {
	return a.node
}

// GrainID returns the grain identity
func (a *GrainAddress) GrainID() GrainID {
	return a.grainID
}

// ActivationID returns the activation id
func (a *GrainAddress) ActivationID() string {
	return a.activationID
}

// WithActivationID returns a copy of the address with a different activation id
func (a *GrainAddress) WithActivationID(activationID string) *GrainAddress {
	return &GrainAddress{node: a.node, grainID: a.grainID, activationID: activationID}
}

// Equals reports whether both addresses point at the same activation
func (a *GrainAddress) Equals(other *GrainAddress) bool {
	if a == nil || other == nil {
		return a == other
	}
	return *a == *other
}

// String returns grain/kind/key#activation@node
func (a *GrainAddress) String() string {
	return fmt.Sprintf("grain/%s#%s@%s", a.grainID, a.activationID, a.node)
}
