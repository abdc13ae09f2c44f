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

// Package address holds the identities used by placement and activation:
// nodes of the cluster, grain identities and activation addresses.
package address

import (
	"fmt"
	"strconv"
	"strings"

	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/internal/tcp"
	"github.com/tochemey/silo/internal/validation"
)

// Node identifies one process of the cluster. The generation distinguishes
// successive incarnations of a process reusing the same endpoint.
// Node is a comparable value and can be used as a map key.
type Node struct {
	host       string
	port       int
	generation int64
}

var _ validation.Validator = Node{}

// NewNode creates a Node
func NewNode(host string, port int, generation int64) Node {
	return Node{host: host, port: port, generation: generation}
}

// LocalNode creates a Node for this process bound on the given address.
// An unspecified host resolves to the machine private IP.
func LocalNode(bindAddr string, generation int64) (Node, error) {
	host, err := tcp.GetBindIP(bindAddr)
	if err != nil {
		return Node{}, err
	}
	_, port, err := tcp.GetHostPort(bindAddr)
	if err != nil {
		return Node{}, err
	}
	return NewNode(host, port, generation), nil
}

// ParseNode parses the host:port@generation form returned by String
func ParseNode(s string) (Node, error) {
	endpoint, gen, ok := strings.Cut(s, "@")
	if !ok {
		return Node{}, fmt.Errorf("%w: %q", gerrors.ErrInvalidNode, s)
	}
	host, port, err := tcp.GetHostPort(endpoint)
	if err != nil {
		return Node{}, fmt.Errorf("%w: %v", gerrors.ErrInvalidNode, err)
	}
	generation, err := strconv.ParseInt(gen, 10, 64)
	if err != nil {
		return Node{}, fmt.Errorf("%w: %v", gerrors.ErrInvalidNode, err)
	}
	node := NewNode(host, port, generation)
	return node, node.Validate()
}

// Host returns the node host
func (n Node) Host() string {
	return n.host
}

// Port returns the node port
func (n Node) Port() int {
	return n.port
}

// Generation returns the node generation
func (n Node) Generation() int64 {
	return n.generation
}

// Endpoint returns host:port
func (n Node) Endpoint() string {
	return tcp.JoinHostPort(n.host, n.port)
}

// IsZero reports whether n is the zero Node
func (n Node) IsZero() bool {
	return n == Node{}
}

// String returns host:port@generation
func (n Node) String() string {
	return fmt.Sprintf("%s@%d", n.Endpoint(), n.generation)
}

// Validate implements validation.Validator
func (n Node) Validate() error {
	if err := validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("host", n.host)).
		AddAssertion(n.port > 0 && n.port <= 65535, "port must be in (0, 65535]").
		Validate(); err != nil {
		return fmt.Errorf("%w: %v", gerrors.ErrInvalidNode, err)
	}
	return nil
}
