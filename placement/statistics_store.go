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
	"sync"

	"go.uber.org/atomic"

	"github.com/tochemey/silo/address"
	"github.com/tochemey/silo/internal/kalman"
	"github.com/tochemey/silo/internal/xsync"
	"github.com/tochemey/silo/statistics"
)

// ResourceStatistics is the smoothed resource snapshot of a node
type ResourceStatistics struct {
	CPUUsage            float64
	AvailableMemory     float64
	MemoryUsage         float64
	TotalPhysicalMemory int64
	IsOverloaded        bool
}

// filteredStatistics holds the smoothed values of one node. Every value is
// an independent atomic: readers never block and may see a partial update.
type filteredStatistics struct {
	mu                    sync.Mutex
	cpuUsageFilter        *kalman.DualModeFilter
	availableMemoryFilter *kalman.DualModeFilter
	memoryUsageFilter     *kalman.DualModeFilter

	cpuUsage            *atomic.Float64
	availableMemory     *atomic.Float64
	memoryUsage         *atomic.Float64
	totalPhysicalMemory *atomic.Int64
	overloaded          *atomic.Bool
}

func newFilteredStatistics(stats *statistics.NodeStatistics) *filteredStatistics {
	return &filteredStatistics{
		cpuUsageFilter:        kalman.NewDualModeFilter(),
		availableMemoryFilter: kalman.NewDualModeFilter(),
		memoryUsageFilter:     kalman.NewDualModeFilter(),
		cpuUsage:              atomic.NewFloat64(stats.CPUUsage),
		availableMemory:       atomic.NewFloat64(float64(stats.AvailableMemory)),
		memoryUsage:           atomic.NewFloat64(float64(stats.MemoryUsage)),
		totalPhysicalMemory:   atomic.NewInt64(stats.MaximumAvailableMemory),
		overloaded:            atomic.NewBool(stats.IsOverloaded),
	}
}

func (f *filteredStatistics) update(stats *statistics.NodeStatistics) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cpuUsage.Store(f.cpuUsageFilter.Filter(stats.CPUUsage))
	f.availableMemory.Store(f.availableMemoryFilter.Filter(float64(stats.AvailableMemory)))
	f.memoryUsage.Store(f.memoryUsageFilter.Filter(float64(stats.MemoryUsage)))
	f.totalPhysicalMemory.Store(stats.MaximumAvailableMemory)
	f.overloaded.Store(stats.IsOverloaded)
}

func (f *filteredStatistics) value() ResourceStatistics {
	return ResourceStatistics{
		CPUUsage:            f.cpuUsage.Load(),
		AvailableMemory:     f.availableMemory.Load(),
		MemoryUsage:         f.memoryUsage.Load(),
		TotalPhysicalMemory: f.totalPhysicalMemory.Load(),
		IsOverloaded:        f.overloaded.Load(),
	}
}

// StatisticsStore keeps one smoothed snapshot per known node. It implements
// statistics.Listener so it can be fed straight from a statistics.Publisher.
type StatisticsStore struct {
	entries *xsync.Map[address.Node, *filteredStatistics]
}

var _ statistics.Listener = (*StatisticsStore)(nil)

// NewStatisticsStore creates an empty store
func NewStatisticsStore() *StatisticsStore {
	return &StatisticsStore{entries: xsync.NewMap[address.Node, *filteredStatistics]()}
}

// Update records the raw snapshot of the node. The first snapshot of a
// node is taken as is; later ones go through the smoothing filters, except
// the physical memory and the overloaded flag which are overwritten.
func (s *StatisticsStore) Update(node address.Node, stats *statistics.NodeStatistics) {
	if stats == nil {
		return
	}
	entry, loaded := s.entries.GetOrSet(node, func() *filteredStatistics {
		return newFilteredStatistics(stats)
	})
	if loaded {
		entry.update(stats)
	}
}

// Remove forgets the node
func (s *StatisticsStore) Remove(node address.Node) {
	s.entries.Delete(node)
}

// Get returns the smoothed snapshot of the node
func (s *StatisticsStore) Get(node address.Node) (ResourceStatistics, bool) {
	entry, ok := s.entries.Get(node)
	if !ok {
		return ResourceStatistics{}, false
	}
	return entry.value(), true
}

// Len returns the number of known nodes
func (s *StatisticsStore) Len() int {
	return s.entries.Len()
}

// IsEmpty reports whether no node is known
func (s *StatisticsStore) IsEmpty() bool {
	return s.entries.Len() == 0
}

// OnStatistics implements statistics.Listener
func (s *StatisticsStore) OnStatistics(node address.Node, stats *statistics.NodeStatistics) {
	s.Update(node, stats)
}

// OnNodeRemoved implements statistics.Listener
func (s *StatisticsStore) OnNodeRemoved(node address.Node) {
	s.Remove(node)
}
