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
	"go.uber.org/atomic"
	"google.golang.org/protobuf/proto"

	"github.com/tochemey/silo/address"
	"github.com/tochemey/silo/requestcontext"
)

// ResponseHandler receives the reply of a message, or the error that
// prevented it. It is called at most once.
type ResponseHandler func(response proto.Message, err error)

// Message is a request addressed to a grain
type Message struct {
	id             string
	target         *address.GrainAddress
	payload        proto.Message
	requestContext requestcontext.Data
	handler        ResponseHandler
	answered       *atomic.Bool
}

// MessageOption configures a Message
type MessageOption func(*Message)

// WithRequestContext attaches the request context of the caller
func WithRequestContext(data requestcontext.Data) MessageOption {
	return func(m *Message) {
		m.requestContext = data
	}
}

// WithResponseHandler sets the callback receiving the reply
func WithResponseHandler(handler ResponseHandler) MessageOption {
	return func(m *Message) {
		m.handler = handler
	}
}

// NewMessage creates a message carrying payload to target
func NewMessage(target *address.GrainAddress, payload proto.Message, opts ...MessageOption) *Message {
	m := &Message{
		id:       address.NewActivationID(),
		target:   target,
		payload:  payload,
		answered: atomic.NewBool(false),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ID returns the unique id of the message
func (m *Message) ID() string {
	return m.id
}

// Target returns the address the message was sent to
func (m *Message) Target() *address.GrainAddress {
	return m.target
}

// Payload returns the message body
func (m *Message) Payload() proto.Message {
	return m.payload
}

// RequestContext returns the request context of the caller. It can be nil.
func (m *Message) RequestContext() requestcontext.Data {
	return m.requestContext
}

// IsOneWay reports whether the sender expects no reply
func (m *Message) IsOneWay() bool {
	return m.handler == nil
}

// Respond delivers the reply. Only the first answer is delivered.
func (m *Message) Respond(response proto.Message) {
	m.answer(response, nil)
}

// Fail delivers err in place of a reply. Only the first answer is delivered.
func (m *Message) Fail(err error) {
	m.answer(nil, err)
}

// Answered reports whether a reply or an error was delivered
func (m *Message) Answered() bool {
	return m.answered.Load()
}

func (m *Message) answer(response proto.Message, err error) {
	if !m.answered.CompareAndSwap(false, true) {
		return
	}
	if m.handler != nil {
		m.handler(response, err)
	}
}
