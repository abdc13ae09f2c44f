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
	"go.uber.org/atomic"
)

// Counters are the process wide counters reported in NodeStatistics.
// They are created once per node and handed to the components that update them.
type Counters struct {
	activations             *atomic.Int64
	recentlyUsedActivations *atomic.Int64
	clients                 *atomic.Int64
	receivedMessages        *atomic.Int64
	sentMessages            *atomic.Int64
}

// NewCounters creates zeroed counters
func NewCounters() *Counters {
	return &Counters{
		activations:             atomic.NewInt64(0),
		recentlyUsedActivations: atomic.NewInt64(0),
		clients:                 atomic.NewInt64(0),
		receivedMessages:        atomic.NewInt64(0),
		sentMessages:            atomic.NewInt64(0),
	}
}

// ActivationCreated increments the live activations
func (c *Counters) ActivationCreated() {
	c.activations.Inc()
}

// ActivationDestroyed decrements the live activations
func (c *Counters) ActivationDestroyed() {
	c.activations.Dec()
}

// SetRecentlyUsedActivations sets the number of activations used within the collection window
func (c *Counters) SetRecentlyUsedActivations(count int64) {
	c.recentlyUsedActivations.Store(count)
}

// ClientConnected increments the connected clients
func (c *Counters) ClientConnected() {
	c.clients.Inc()
}

// ClientDisconnected decrements the connected clients
func (c *Counters) ClientDisconnected() {
	c.clients.Dec()
}

// MessageReceived increments the received messages
func (c *Counters) MessageReceived() {
	c.receivedMessages.Inc()
}

// MessageSent increments the sent messages
func (c *Counters) MessageSent() {
	c.sentMessages.Inc()
}

// Activations returns the live activations
func (c *Counters) Activations() int64 {
	return c.activations.Load()
}

// RecentlyUsedActivations returns the activations used within the collection window
func (c *Counters) RecentlyUsedActivations() int64 {
	return c.recentlyUsedActivations.Load()
}

// Clients returns the connected clients
func (c *Counters) Clients() int64 {
	return c.clients.Load()
}

// ReceivedMessages returns the received messages
func (c *Counters) ReceivedMessages() int64 {
	return c.receivedMessages.Load()
}

// SentMessages returns the sent messages
func (c *Counters) SentMessages() int64 {
	return c.sentMessages.Load()
}
