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

package remote

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/silo/address"
	gerrors "github.com/tochemey/silo/errors"
	ihttp "github.com/tochemey/silo/internal/http"
	"github.com/tochemey/silo/internal/xsync"
	"github.com/tochemey/silo/log"
	"github.com/tochemey/silo/statistics"
)

// Peers returns the nodes the statistics are pushed to
type Peers func() []address.Node

// StaticPeers always returns nodes
func StaticPeers(nodes ...address.Node) Peers {
	return func() []address.Node { return nodes }
}

// peerClient holds the stubs of one peer
type peerClient struct {
	push   *connect.Client[PushRequest, Ack]
	remove *connect.Client[RemoveRequest, Ack]
}

// Client pushes the statistics of the local node to every peer
type Client struct {
	config *Config
	peers  Peers
	http   *http.Client
	opts   []connect.ClientOption
	stubs  *xsync.Map[address.Node, *peerClient]
	logger log.Logger
}

// enforce compilation error
var _ statistics.Broadcaster = (*Client)(nil)

// NewClient creates a Client. peers is evaluated on every broadcast.
func NewClient(config *Config, peers Peers) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, gerrors.NewConfigurationError(err)
	}

	if peers == nil {
		peers = StaticPeers()
	}

	return &Client{
		config: config,
		peers:  peers,
		http:   ihttp.NewClient(config.MaxFrameSize(), config.RequestTimeout()),
		opts:   append([]connect.ClientOption{connect.WithCodec(cborCodec{})}, config.Compression().clientOptions()...),
		stubs:  xsync.NewMap[address.Node, *peerClient](),
		logger: config.Logger(),
	}, nil
}

// Broadcast implements statistics.Broadcaster
func (c *Client) Broadcast(node address.Node, stats *statistics.NodeStatistics) error {
	request := &PushRequest{Node: node.String(), Statistics: stats}
	return c.fanOut(node, func(ctx context.Context, stub *peerClient) error {
		_, err := stub.push.CallUnary(ctx, connect.NewRequest(request))
		return err
	})
}

// BroadcastRemoval implements statistics.Broadcaster
func (c *Client) BroadcastRemoval(node address.Node) error {
	request := &RemoveRequest{Node: node.String()}
	return c.fanOut(node, func(ctx context.Context, stub *peerClient) error {
		_, err := stub.remove.CallUnary(ctx, connect.NewRequest(request))
		return err
	})
}

// Forget drops the stubs of a peer that left
func (c *Client) Forget(peer address.Node) {
	c.stubs.Delete(peer)
}

// fanOut calls every peer but node concurrently and combines the failures
func (c *Client) fanOut(node address.Node, call func(context.Context, *peerClient) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.config.RequestTimeout())
	defer cancel()

	peers := c.peers()
	errs := make([]error, len(peers))

	var group errgroup.Group
	for i, peer := range peers {
		if peer == node {
			continue
		}
		group.Go(func() error {
			if err := call(ctx, c.stub(peer)); err != nil {
				c.logger.Warnf("failed to push statistics of %s to %s: %v", node, peer, err)
				errs[i] = err
			}
			return nil
		})
	}
	_ = group.Wait()
	return multierr.Combine(errs...)
}

func (c *Client) stub(peer address.Node) *peerClient {
	if stub, ok := c.stubs.Get(peer); ok {
		return stub
	}

	url := ihttp.URL(peer.Host(), peer.Port())
	stub, _ := c.stubs.GetOrSet(peer, func() *peerClient {
		return &peerClient{
			push:   connect.NewClient[PushRequest, Ack](c.http, url+PushProcedure, c.opts...),
			remove: connect.NewClient[RemoveRequest, Ack](c.http, url+RemoveProcedure, c.opts...),
		}
	})
	return stub
}
