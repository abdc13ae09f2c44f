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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/silo/address"
	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/requestcontext"
	"github.com/tochemey/silo/statistics"
)

const gib = 1 << 30

func TestConfig(t *testing.T) {
	t.Run("With defaults", func(t *testing.T) {
		config := NewConfig()
		require.NoError(t, config.Validate())
		assert.Equal(t, 0.4, config.CPUUsageWeight)
		assert.Equal(t, 0.4, config.MemoryUsageWeight)
		assert.Equal(t, 0.1, config.AvailableMemoryWeight)
		assert.Equal(t, 0.1, config.PhysicalMemoryWeight)
		assert.Equal(t, 0.05, config.LocalNodePreferenceMargin)
		assert.Equal(t, 1e-5, config.ScoreJitter)
		assert.Equal(t, 2, config.SampleSize(3))
	})
	t.Run("With weights not summing to one", func(t *testing.T) {
		err := NewConfig(WithWeights(0.5, 0.5, 0.5, 0)).Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrInvalidConfiguration)
	})
	t.Run("With a weight out of range", func(t *testing.T) {
		err := NewConfig(WithWeights(1.5, -0.5, 0, 0)).Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrInvalidConfiguration)
		assert.Contains(t, err.Error(), "cpu usage weight")
		assert.Contains(t, err.Error(), "memory usage weight")
	})
	t.Run("With a margin out of range", func(t *testing.T) {
		err := NewConfig(WithLocalNodePreferenceMargin(1.1)).Validate()
		assert.ErrorIs(t, err, gerrors.ErrInvalidConfiguration)
	})
	t.Run("With a missing sample size", func(t *testing.T) {
		err := NewConfig(WithSampleSize(nil)).Validate()
		assert.ErrorIs(t, err, gerrors.ErrInvalidConfiguration)
	})
	t.Run("With weights within tolerance", func(t *testing.T) {
		require.NoError(t, NewConfig(WithWeights(0.25, 0.25, 0.25, 0.2500000001)).Validate())
	})
}

func TestNormalizeWeights(t *testing.T) {
	t.Run("With default weights", func(t *testing.T) {
		w := NormalizeWeights(NewConfig())
		assert.InDelta(t, 1.0, w.CPUUsage+w.MemoryUsage+w.AvailableMemory+w.PhysicalMemory, 1e-12)
		assert.InDelta(t, 0.4, w.CPUUsage, 1e-12)
	})
	t.Run("With unnormalized weights", func(t *testing.T) {
		w := NormalizeWeights(&Config{CPUUsageWeight: 2, MemoryUsageWeight: 1, AvailableMemoryWeight: 1})
		assert.InDelta(t, 0.5, w.CPUUsage, 1e-12)
		assert.InDelta(t, 0.25, w.MemoryUsage, 1e-12)
		assert.InDelta(t, 0.25, w.AvailableMemory, 1e-12)
		assert.Zero(t, w.PhysicalMemory)
	})
	t.Run("With zero weights", func(t *testing.T) {
		assert.Equal(t, NormalizedWeights{CPUUsage: 1}, NormalizeWeights(&Config{}))
	})
}

func TestScore(t *testing.T) {
	w := NormalizeWeights(NewConfig())

	t.Run("With unknown physical memory only cpu counts", func(t *testing.T) {
		got := Score(ResourceStatistics{CPUUsage: 50, MemoryUsage: 10, AvailableMemory: 10}, w)
		assert.InDelta(t, 0.4*0.5, got, 1e-12)
	})
	t.Run("With every term", func(t *testing.T) {
		stats := ResourceStatistics{
			CPUUsage:            25,
			MemoryUsage:         2 * gib,
			AvailableMemory:     4 * gib,
			TotalPhysicalMemory: 8 * gib,
		}
		physicalMB := float64(8*gib) / (1024 * 1024)
		want := 0.4*0.25 + 0.4*0.25 + 0.1*0.5 + 0.1*physicalMB/(1024*1024)
		assert.InDelta(t, want, Score(stats, w), 1e-12)
	})
	t.Run("With more cpu usage scores higher", func(t *testing.T) {
		base := ResourceStatistics{CPUUsage: 10, MemoryUsage: gib, AvailableMemory: 4 * gib, TotalPhysicalMemory: 8 * gib}
		previous := Score(base, w)
		for cpu := 20.0; cpu <= 100; cpu += 10 {
			stats := base
			stats.CPUUsage = cpu
			score := Score(stats, w)
			assert.Greater(t, score, previous)
			previous = score
		}
	})
	t.Run("With more used memory scores higher", func(t *testing.T) {
		base := ResourceStatistics{CPUUsage: 30, AvailableMemory: 4 * gib, TotalPhysicalMemory: 8 * gib}
		previous := Score(base, w)
		for used := 1.0; used <= 8; used++ {
			stats := base
			stats.MemoryUsage = used * gib
			score := Score(stats, w)
			assert.Greater(t, score, previous)
			previous = score
		}
	})
	t.Run("With less available memory scores higher", func(t *testing.T) {
		low := ResourceStatistics{AvailableMemory: 6 * gib, TotalPhysicalMemory: 8 * gib}
		high := ResourceStatistics{AvailableMemory: 2 * gib, TotalPhysicalMemory: 8 * gib}
		assert.Less(t, Score(low, w), Score(high, w))
	})
}

func TestStatisticsStore(t *testing.T) {
	node := address.NewNode("10.0.0.1", 11111, 1)

	t.Run("With a first snapshot stored raw", func(t *testing.T) {
		store := NewStatisticsStore()
		require.True(t, store.IsEmpty())

		store.Update(node, &statistics.NodeStatistics{
			CPUUsage:               42,
			AvailableMemory:        3 * gib,
			MemoryUsage:            gib,
			MaximumAvailableMemory: 8 * gib,
		})

		got, ok := store.Get(node)
		require.True(t, ok)
		assert.Equal(t, 1, store.Len())
		assert.Equal(t, 42.0, got.CPUUsage)
		assert.Equal(t, float64(3*gib), got.AvailableMemory)
		assert.Equal(t, float64(gib), got.MemoryUsage)
		assert.EqualValues(t, 8*gib, got.TotalPhysicalMemory)
		assert.False(t, got.IsOverloaded)
	})
	t.Run("With later snapshots smoothed", func(t *testing.T) {
		store := NewStatisticsStore()
		store.Update(node, &statistics.NodeStatistics{CPUUsage: 10, MaximumAvailableMemory: 8 * gib})
		// a rise is followed at once
		store.Update(node, &statistics.NodeStatistics{CPUUsage: 80, MaximumAvailableMemory: 8 * gib})
		got, _ := store.Get(node)
		assert.Equal(t, 80.0, got.CPUUsage)

		// a drop is only trusted slowly
		store.Update(node, &statistics.NodeStatistics{CPUUsage: 0, MaximumAvailableMemory: 4 * gib, IsOverloaded: true})
		got, _ = store.Get(node)
		assert.Greater(t, got.CPUUsage, 0.0)
		assert.Less(t, got.CPUUsage, 80.0)
		assert.EqualValues(t, 4*gib, got.TotalPhysicalMemory)
		assert.True(t, got.IsOverloaded)
	})
	t.Run("With node removal", func(t *testing.T) {
		store := NewStatisticsStore()
		store.OnStatistics(node, &statistics.NodeStatistics{CPUUsage: 1})
		store.OnNodeRemoved(node)
		_, ok := store.Get(node)
		assert.False(t, ok)
		assert.True(t, store.IsEmpty())
	})
	t.Run("With nil snapshot ignored", func(t *testing.T) {
		store := NewStatisticsStore()
		store.Update(node, nil)
		assert.True(t, store.IsEmpty())
	})
	t.Run("With concurrent updates", func(t *testing.T) {
		store := NewStatisticsStore()
		done := make(chan struct{})
		for i := range 8 {
			go func() {
				defer func() { done <- struct{}{} }()
				for j := range 100 {
					store.Update(node, &statistics.NodeStatistics{CPUUsage: float64(i*j%100) + 1})
					_, _ = store.Get(node)
				}
			}()
		}
		for range 8 {
			<-done
		}
		got, ok := store.Get(node)
		require.True(t, ok)
		assert.False(t, math.IsNaN(got.CPUUsage))
	})
}

func TestPlacementHint(t *testing.T) {
	n1 := address.NewNode("10.0.0.1", 11111, 1)
	n2 := address.NewNode("10.0.0.2", 11111, 1)
	compatible := []address.Node{n1, n2}

	t.Run("With a node value", func(t *testing.T) {
		data := WithPlacementHint(nil, n2)
		hint, ok := HintFromRequestContext(data, compatible)
		require.True(t, ok)
		assert.Equal(t, n2, hint)
	})
	t.Run("With the string form", func(t *testing.T) {
		data := requestcontext.New()
		data.Set(PlacementHintKey, n1.String())
		hint, ok := HintFromRequestContext(data, compatible)
		require.True(t, ok)
		assert.Equal(t, n1, hint)
	})
	t.Run("With an incompatible node", func(t *testing.T) {
		data := WithPlacementHint(requestcontext.New(), address.NewNode("10.0.0.3", 11111, 1))
		_, ok := HintFromRequestContext(data, compatible)
		assert.False(t, ok)
	})
	t.Run("With an unexpected value", func(t *testing.T) {
		data := requestcontext.New()
		data.Set(PlacementHintKey, 42)
		_, ok := HintFromRequestContext(data, compatible)
		assert.False(t, ok)
	})
	t.Run("With the original data left untouched", func(t *testing.T) {
		data := requestcontext.New()
		_ = WithPlacementHint(data, n1)
		_, ok := data.Get(PlacementHintKey)
		assert.False(t, ok)
	})
}
