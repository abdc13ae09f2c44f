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
	"context"
	"time"

	"github.com/tochemey/silo/internal/validation"
	"github.com/tochemey/silo/memory"
)

// HostSampler reads host resources
type HostSampler interface {
	Sample(ctx context.Context) (memory.Sample, error)
}

// LoadSheddingConfig decides when a node reports itself overloaded
type LoadSheddingConfig struct {
	// Enabled turns load shedding on
	Enabled bool
	// CPULimit is the CPU usage in percent at or above which the node is overloaded
	CPULimit float64
	// MemoryLimit is the host memory usage in percent at or above which the node is overloaded
	MemoryLimit float64
}

// DefaultLoadSheddingConfig returns load shedding disabled with limits of 95% CPU and 90% memory
func DefaultLoadSheddingConfig() LoadSheddingConfig {
	return LoadSheddingConfig{CPULimit: 95, MemoryLimit: 90}
}

// Validate implements validation.Validator
func (c LoadSheddingConfig) Validate() error {
	return validation.New(validation.AllErrors()).
		AddValidator(validation.NewRangeValidator("cpu limit", c.CPULimit, 0, 100)).
		AddValidator(validation.NewRangeValidator("memory limit", c.MemoryLimit, 0, 100)).
		Validate()
}

// IsOverloaded applies the load shedding rule to a sample
func (c LoadSheddingConfig) IsOverloaded(sample memory.Sample) bool {
	if !c.Enabled {
		return false
	}
	if sample.CPUUsage >= c.CPULimit {
		return true
	}
	if sample.Total == 0 {
		return false
	}
	used := float64(sample.Total-min(sample.Available, sample.Total)) / float64(sample.Total) * 100
	return used >= c.MemoryLimit
}

// Collector builds the NodeStatistics of the local node
type Collector struct {
	sampler      HostSampler
	counters     *Counters
	loadShedding LoadSheddingConfig
	clock        func() time.Time
}

// NewCollector creates a Collector
func NewCollector(sampler HostSampler, counters *Counters, loadShedding LoadSheddingConfig) (*Collector, error) {
	if err := loadShedding.Validate(); err != nil {
		return nil, err
	}
	return &Collector{
		sampler:      sampler,
		counters:     counters,
		loadShedding: loadShedding,
		clock:        time.Now,
	}, nil
}

// Collect samples the host and reads the counters
func (c *Collector) Collect(ctx context.Context) (*NodeStatistics, error) {
	sample, err := c.sampler.Sample(ctx)
	if err != nil {
		return nil, err
	}

	return &NodeStatistics{
		ActivationCount:             c.counters.Activations(),
		RecentlyUsedActivationCount: c.counters.RecentlyUsedActivations(),
		CPUUsage:                    sample.CPUUsage,
		AvailableMemory:             int64(sample.Available),
		MemoryUsage:                 int64(sample.ProcessUsage),
		MaximumAvailableMemory:      int64(sample.Total),
		IsOverloaded:                c.loadShedding.IsOverloaded(sample),
		ClientCount:                 c.counters.Clients(),
		ReceivedMessages:            c.counters.ReceivedMessages(),
		SentMessages:                c.counters.SentMessages(),
		DateTime:                    c.clock().UTC(),
	}, nil
}
