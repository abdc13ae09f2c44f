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
	"github.com/tochemey/silo/address"
	"github.com/tochemey/silo/internal/xsync"
	"github.com/tochemey/silo/log"
)

// Catalog is the registry of the addressable targets of a node
type Catalog interface {
	// RegisterMessageTarget makes the target reachable by its grain id.
	// It returns false when another target already serves the grain.
	RegisterMessageTarget(target GrainContext) bool
	// UnregisterMessageTarget removes the target when it is the registered one
	UnregisterMessageTarget(target GrainContext)
	// Lookup returns the target serving the grain
	Lookup(id address.GrainID) (GrainContext, bool)
}

// InMemoryCatalog is a Catalog backed by a concurrent map
type InMemoryCatalog struct {
	targets *xsync.Map[address.GrainID, GrainContext]
	logger  log.Logger
}

var _ Catalog = (*InMemoryCatalog)(nil)

// NewInMemoryCatalog creates an empty catalog
func NewInMemoryCatalog(logger log.Logger) *InMemoryCatalog {
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &InMemoryCatalog{
		targets: xsync.NewMap[address.GrainID, GrainContext](),
		logger:  logger,
	}
}

// RegisterMessageTarget implements Catalog
func (c *InMemoryCatalog) RegisterMessageTarget(target GrainContext) bool {
	actual, loaded := c.targets.GetOrSet(target.GrainID(), func() GrainContext { return target })
	if loaded && actual != target {
		return false
	}
	c.logger.Debugf("message target %s registered", target.Address())
	return true
}

// UnregisterMessageTarget implements Catalog
func (c *InMemoryCatalog) UnregisterMessageTarget(target GrainContext) {
	removed := c.targets.DeleteFunc(target.GrainID(), func(current GrainContext) bool {
		return current == target
	})
	if removed {
		c.logger.Debugf("message target %s unregistered", target.Address())
	}
}

// Lookup implements Catalog
func (c *InMemoryCatalog) Lookup(id address.GrainID) (GrainContext, bool) {
	return c.targets.Get(id)
}

// Len returns the number of registered targets
func (c *InMemoryCatalog) Len() int {
	return c.targets.Len()
}
