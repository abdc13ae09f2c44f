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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/silo/errors"
)

func TestNode(t *testing.T) {
	t.Run("With valid node", func(t *testing.T) {
		node := NewNode("127.0.0.1", 3322, 7)
		require.NoError(t, node.Validate())
		assert.Equal(t, "127.0.0.1:3322@7", node.String())
		assert.Equal(t, "127.0.0.1:3322", node.Endpoint())
		assert.False(t, node.IsZero())
		assert.True(t, Node{}.IsZero())

		parsed, err := ParseNode(node.String())
		require.NoError(t, err)
		assert.Equal(t, node, parsed)
	})
	t.Run("With invalid node", func(t *testing.T) {
		err := NewNode("", 3322, 1).Validate()
		require.ErrorIs(t, err, gerrors.ErrInvalidNode)

		err = NewNode("127.0.0.1", 0, 1).Validate()
		require.ErrorIs(t, err, gerrors.ErrInvalidNode)

		_, err = ParseNode("127.0.0.1:3322")
		require.ErrorIs(t, err, gerrors.ErrInvalidNode)

		_, err = ParseNode("127.0.0.1:3322@abc")
		require.ErrorIs(t, err, gerrors.ErrInvalidNode)
	})
	t.Run("With local node", func(t *testing.T) {
		node, err := LocalNode("127.0.0.1:4000", 2)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1", node.Host())
		assert.Equal(t, 4000, node.Port())
		assert.EqualValues(t, 2, node.Generation())
	})
	t.Run("With nodes as map keys", func(t *testing.T) {
		nodes := map[Node]int{NewNode("10.0.0.1", 80, 1): 1}
		_, ok := nodes[NewNode("10.0.0.1", 80, 1)]
		assert.True(t, ok)
		_, ok = nodes[NewNode("10.0.0.1", 80, 2)]
		assert.False(t, ok)
	})
}

func TestGrainAddress(t *testing.T) {
	t.Run("With grain id", func(t *testing.T) {
		id := NewGrainID("counter", "1")
		require.NoError(t, id.Validate())
		assert.Equal(t, "counter/1", id.String())

		parsed, err := ParseGrainID("counter/1")
		require.NoError(t, err)
		assert.Equal(t, id, parsed)

		_, err = ParseGrainID("counter")
		require.ErrorIs(t, err, gerrors.ErrInvalidGrainID)
		require.ErrorIs(t, NewGrainID("", "1").Validate(), gerrors.ErrInvalidGrainID)
	})
	t.Run("With grain address", func(t *testing.T) {
		node := NewNode("127.0.0.1", 3322, 1)
		id := NewGrainID("counter", "1")
		activation := NewActivationID()
		addr := NewGrainAddress(node, id, activation)

		assert.Equal(t, node, addr.Node())
		assert.Equal(t, id, addr.GrainID())
		assert.Equal(t, activation, addr.ActivationID())
		assert.Equal(t, "grain/counter/1#"+activation+"@127.0.0.1:3322@1", addr.String())

		other := addr.WithActivationID(NewActivationID())
		assert.False(t, addr.Equals(other))
		assert.True(t, addr.Equals(NewGrainAddress(node, id, activation)))
		assert.NotEqual(t, addr.ActivationID(), other.ActivationID())
		assert.Equal(t, addr.GrainID(), other.GrainID())
	})
}
