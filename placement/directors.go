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

package placement

import (
	"context"
	"slices"

	"github.com/tochemey/silo/address"
	gerrors "github.com/tochemey/silo/errors"
)

// candidates resolves the compatible nodes and applies the placement hint
func candidates(ctx context.Context, target *Target, pctx Context) (nodes []address.Node, hint address.Node, hinted bool, err error) {
	nodes, err = pctx.CompatibleNodes(ctx, target)
	if err != nil {
		return nil, address.Node{}, false, err
	}

	if hint, ok := HintFromRequestContext(target.RequestContext, nodes); ok {
		return nodes, hint, true, nil
	}

	if len(nodes) == 0 {
		return nil, address.Node{}, false, gerrors.NewNoCompatibleNodeError(target.GrainID.String())
	}
	return nodes, address.Node{}, false, nil
}

// RandomDirector places activations on a uniformly random compatible node
type RandomDirector struct {
	random RandomSource
}

var _ Director = (*RandomDirector)(nil)

// NewRandomDirector creates a RandomDirector
func NewRandomDirector(opts ...DirectorOption) *RandomDirector {
	return &RandomDirector{random: newDirectorOptions(opts...).random}
}

// OnAddActivation implements Director
func (d *RandomDirector) OnAddActivation(ctx context.Context, _ Strategy, target *Target, pctx Context) (address.Node, error) {
	nodes, hint, hinted, err := candidates(ctx, target, pctx)
	if err != nil || hinted {
		return hint, err
	}
	return nodes[d.random.IntN(len(nodes))], nil
}

// PreferLocalDirector places activations on the local node when it is
// active and compatible, otherwise on a random compatible node.
type PreferLocalDirector struct {
	random RandomSource
}

var _ Director = (*PreferLocalDirector)(nil)

// NewPreferLocalDirector creates a PreferLocalDirector
func NewPreferLocalDirector(opts ...DirectorOption) *PreferLocalDirector {
	return &PreferLocalDirector{random: newDirectorOptions(opts...).random}
}

// OnAddActivation implements Director
func (d *PreferLocalDirector) OnAddActivation(ctx context.Context, _ Strategy, target *Target, pctx Context) (address.Node, error) {
	nodes, hint, hinted, err := candidates(ctx, target, pctx)
	if err != nil || hinted {
		return hint, err
	}

	local := pctx.LocalNode()
	if pctx.LocalNodeStatus() == NodeStatusActive && slices.Contains(nodes, local) {
		return local, nil
	}
	return nodes[d.random.IntN(len(nodes))], nil
}

// StatelessWorkerDirector keeps worker pools on the node receiving the
// request. A remote node is only used when the local node is terminating
// or cannot host the grain.
type StatelessWorkerDirector struct {
	random RandomSource
}

var _ Director = (*StatelessWorkerDirector)(nil)

// NewStatelessWorkerDirector creates a StatelessWorkerDirector
func NewStatelessWorkerDirector(opts ...DirectorOption) *StatelessWorkerDirector {
	return &StatelessWorkerDirector{random: newDirectorOptions(opts...).random}
}

// OnAddActivation implements Director
func (d *StatelessWorkerDirector) OnAddActivation(ctx context.Context, _ Strategy, target *Target, pctx Context) (address.Node, error) {
	nodes, err := pctx.CompatibleNodes(ctx, target)
	if err != nil {
		return address.Node{}, err
	}

	status := pctx.LocalNodeStatus()
	local := pctx.LocalNode()
	if status != NodeStatusShuttingDown && status != NodeStatusDead && slices.Contains(nodes, local) {
		return local, nil
	}

	if len(nodes) == 0 {
		return address.Node{}, gerrors.NewNoCompatibleNodeError(target.GrainID.String())
	}
	return nodes[d.random.IntN(len(nodes))], nil
}
