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
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/tochemey/silo/address"
)

// EnvelopeKind tells what an Envelope carries
type EnvelopeKind uint8

const (
	// EnvelopeUpdate carries the statistics of a node
	EnvelopeUpdate EnvelopeKind = iota + 1
	// EnvelopeRemoval announces that a node left
	EnvelopeRemoval
)

// Envelope is the wire form of the statistics feed shared by every transport
type Envelope struct {
	Kind       EnvelopeKind    `cbor:"1,keyasint"`
	Node       string          `cbor:"2,keyasint"`
	Statistics *NodeStatistics `cbor:"3,keyasint,omitempty"`
}

var encMode = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

// NewUpdateEnvelope wraps the statistics of node
func NewUpdateEnvelope(node address.Node, stats *NodeStatistics) *Envelope {
	return &Envelope{Kind: EnvelopeUpdate, Node: node.String(), Statistics: stats}
}

// NewRemovalEnvelope announces that node left
func NewRemovalEnvelope(node address.Node) *Envelope {
	return &Envelope{Kind: EnvelopeRemoval, Node: node.String()}
}

// Marshal encodes the envelope with CBOR
func (e *Envelope) Marshal() ([]byte, error) {
	return encMode.Marshal(e)
}

// UnmarshalEnvelope decodes an envelope
func UnmarshalEnvelope(data []byte) (*Envelope, error) {
	envelope := new(Envelope)
	if err := cbor.Unmarshal(data, envelope); err != nil {
		return nil, err
	}
	if envelope.Kind != EnvelopeUpdate && envelope.Kind != EnvelopeRemoval {
		return nil, fmt.Errorf("unknown statistics envelope kind %d", envelope.Kind)
	}
	if envelope.Kind == EnvelopeUpdate && envelope.Statistics == nil {
		return nil, fmt.Errorf("statistics envelope for %s carries no statistics", envelope.Node)
	}
	return envelope, nil
}

// Deliver applies the envelope to the sink
func (e *Envelope) Deliver(sink Sink) error {
	node, err := address.ParseNode(e.Node)
	if err != nil {
		return err
	}
	switch e.Kind {
	case EnvelopeUpdate:
		sink.Publish(node, e.Statistics)
	case EnvelopeRemoval:
		sink.RemoveNode(node)
	}
	return nil
}
