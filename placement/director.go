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
	"math"
	"math/rand/v2"
	"slices"

	"github.com/tochemey/silo/address"
	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/statistics"
)

// Director picks the node hosting a new activation
type Director interface {
	// OnAddActivation returns the node the target should be activated on
	OnAddActivation(ctx context.Context, strategy Strategy, target *Target, pctx Context) (address.Node, error)
}

// RandomSource is the source of randomness of the directors.
// *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	IntN(n int) int
	Float64() float64
}

type sharedRandom struct{}

func (sharedRandom) IntN(n int) int   { return rand.IntN(n) }
func (sharedRandom) Float64() float64 { return rand.Float64() }

// DirectorOption configures a director
type DirectorOption func(*directorOptions)

type directorOptions struct {
	random RandomSource
}

// WithRandomSource overrides the randomness of the director. The source
// must be safe for concurrent use when the director is.
func WithRandomSource(random RandomSource) DirectorOption {
	return func(o *directorOptions) {
		if random != nil {
			o.random = random
		}
	}
}

func newDirectorOptions(opts ...DirectorOption) *directorOptions {
	o := &directorOptions{random: sharedRandom{}}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ResourceOptimizedDirector places activations on the node with the lowest
// utilization score. Scores are computed from smoothed node statistics on a
// random sample of the candidates, and the local node wins when its score is
// within the configured margin of the best one.
type ResourceOptimizedDirector struct {
	store      *StatisticsStore
	weights    NormalizedWeights
	margin     float64
	jitter     float64
	sampleSize SampleSizeFunc
	random     RandomSource
}

var _ Director = (*ResourceOptimizedDirector)(nil)

// NewResourceOptimizedDirector validates the config and subscribes the
// director statistics store to the publisher.
func NewResourceOptimizedDirector(publisher statistics.Publisher, config *Config, opts ...DirectorOption) (*ResourceOptimizedDirector, error) {
	if config == nil {
		config = NewConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	options := newDirectorOptions(opts...)
	director := &ResourceOptimizedDirector{
		store:      NewStatisticsStore(),
		weights:    NormalizeWeights(config),
		margin:     config.LocalNodePreferenceMargin,
		jitter:     config.ScoreJitter,
		sampleSize: config.SampleSize,
		random:     options.random,
	}

	if publisher != nil {
		publisher.Subscribe(director.store)
	}
	return director, nil
}

// Store returns the statistics store fed by the publisher
func (d *ResourceOptimizedDirector) Store() *StatisticsStore {
	return d.store
}

// Weights returns the normalized weights
func (d *ResourceOptimizedDirector) Weights() NormalizedWeights {
	return d.weights
}

// OnAddActivation implements Director
func (d *ResourceOptimizedDirector) OnAddActivation(ctx context.Context, _ Strategy, target *Target, pctx Context) (address.Node, error) {
	compatible, err := pctx.CompatibleNodes(ctx, target)
	if err != nil {
		return address.Node{}, err
	}

	if hint, ok := HintFromRequestContext(target.RequestContext, compatible); ok {
		return hint, nil
	}

	switch len(compatible) {
	case 0:
		return address.Node{}, gerrors.NewNoCompatibleNodeError(target.GrainID.String())
	case 1:
		return compatible[0], nil
	}

	if d.store.IsEmpty() {
		return compatible[d.random.IntN(len(compatible))], nil
	}

	best, bestScore, found := d.bestCandidate(compatible)
	if d.isLocalPreferable(pctx, compatible, bestScore) {
		return pctx.LocalNode(), nil
	}

	if !found {
		// every candidate is overloaded or unknown
		return compatible[d.random.IntN(len(compatible))], nil
	}
	return best, nil
}

type candidate struct {
	node  address.Node
	stats ResourceStatistics
}

func (d *ResourceOptimizedDirector) bestCandidate(compatible []address.Node) (address.Node, float64, bool) {
	eligible := make([]candidate, 0, len(compatible))
	for _, node := range compatible {
		if stats, ok := d.store.Get(node); ok && !stats.IsOverloaded {
			eligible = append(eligible, candidate{node: node, stats: stats})
		}
	}

	if len(eligible) == 0 {
		return address.Node{}, math.Inf(1), false
	}

	sampled := min(max(d.sampleSize(len(eligible)), 1), len(eligible))
	d.shufflePrefix(eligible, sampled)

	var best address.Node
	bestScore := math.Inf(1)
	for _, c := range eligible[:sampled] {
		score := Score(c.stats, d.weights)
		jitter := d.random.Float64() * d.jitter
		if score+jitter < bestScore {
			best, bestScore = c.node, score
		}
	}
	return best, bestScore, true
}

// shufflePrefix runs the first prefix steps of a Fisher-Yates shuffle so
// that values[:prefix] is a uniform random sample of values.
func (d *ResourceOptimizedDirector) shufflePrefix(values []candidate, prefix int) {
	n := len(values)
	for i := range prefix {
		chosen := i + d.random.IntN(n-i)
		if chosen != i {
			values[i], values[chosen] = values[chosen], values[i]
		}
	}
}

func (d *ResourceOptimizedDirector) isLocalPreferable(pctx Context, compatible []address.Node, bestScore float64) bool {
	if pctx.LocalNodeStatus() != NodeStatusActive {
		return false
	}

	local := pctx.LocalNode()
	if !slices.Contains(compatible, local) {
		return false
	}

	stats, ok := d.store.Get(local)
	if !ok || stats.IsOverloaded {
		return false
	}

	return Score(stats, d.weights)-d.margin <= bestScore
}
