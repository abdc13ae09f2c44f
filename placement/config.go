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

	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/internal/validation"
)

const weightsTolerance = 1e-6

// SampleSizeFunc returns how many of the eligible candidates are scored
type SampleSizeFunc func(eligible int) int

// SquareRootSampleSize scores ceil(sqrt(n)) candidates
func SquareRootSampleSize(eligible int) int {
	return int(math.Ceil(math.Sqrt(float64(eligible))))
}

// Config tunes the resource optimized placement
type Config struct {
	// CPUUsageWeight weighs the CPU usage
	CPUUsageWeight float64
	// MemoryUsageWeight weighs the memory used by the node process
	MemoryUsageWeight float64
	// AvailableMemoryWeight weighs the memory still available
	AvailableMemoryWeight float64
	// PhysicalMemoryWeight weighs the physical memory of the host
	PhysicalMemoryWeight float64
	// LocalNodePreferenceMargin is the score handicap the local node may
	// have and still be preferred. Zero disables the preference.
	LocalNodePreferenceMargin float64
	// ScoreJitter bounds the random noise added to scores to break ties
	ScoreJitter float64
	// SampleSize bounds the number of scored candidates
	SampleSize SampleSizeFunc
}

// ConfigOption configures a Config
type ConfigOption interface {
	// Apply sets the Option value of a Config.
	Apply(config *Config)
}

var _ ConfigOption = ConfigOptionFunc(nil)

// ConfigOptionFunc implements the ConfigOption interface.
type ConfigOptionFunc func(config *Config)

// Apply applies the Config's option
func (f ConfigOptionFunc) Apply(config *Config) {
	f(config)
}

// WithWeights sets the four weights
func WithWeights(cpuUsage, memoryUsage, availableMemory, physicalMemory float64) ConfigOption {
	return ConfigOptionFunc(func(config *Config) {
		config.CPUUsageWeight = cpuUsage
		config.MemoryUsageWeight = memoryUsage
		config.AvailableMemoryWeight = availableMemory
		config.PhysicalMemoryWeight = physicalMemory
	})
}

// WithLocalNodePreferenceMargin sets the local node preference margin
func WithLocalNodePreferenceMargin(margin float64) ConfigOption {
	return ConfigOptionFunc(func(config *Config) {
		config.LocalNodePreferenceMargin = margin
	})
}

// WithScoreJitter sets the jitter bound
func WithScoreJitter(jitter float64) ConfigOption {
	return ConfigOptionFunc(func(config *Config) {
		config.ScoreJitter = jitter
	})
}

// WithSampleSize sets the candidate sample size function
func WithSampleSize(fn SampleSizeFunc) ConfigOption {
	return ConfigOptionFunc(func(config *Config) {
		config.SampleSize = fn
	})
}

// NewConfig returns the default configuration overridden by opts:
// weights cpu 0.4, memory usage 0.4, available memory 0.1, physical memory 0.1,
// a local preference margin of 0.05, a jitter of 1e-5 and a square root sample.
func NewConfig(opts ...ConfigOption) *Config {
	config := &Config{
		CPUUsageWeight:            0.4,
		MemoryUsageWeight:         0.4,
		AvailableMemoryWeight:     0.1,
		PhysicalMemoryWeight:      0.1,
		LocalNodePreferenceMargin: 0.05,
		ScoreJitter:               1e-5,
		SampleSize:                SquareRootSampleSize,
	}
	for _, opt := range opts {
		opt.Apply(config)
	}
	return config
}

// Validate checks every weight and the margin lie in [0, 1] and the weights sum to 1
func (c *Config) Validate() error {
	sum := c.CPUUsageWeight + c.MemoryUsageWeight + c.AvailableMemoryWeight + c.PhysicalMemoryWeight
	err := validation.New(validation.AllErrors()).
		AddValidator(validation.NewRangeValidator("cpu usage weight", c.CPUUsageWeight, 0, 1)).
		AddValidator(validation.NewRangeValidator("memory usage weight", c.MemoryUsageWeight, 0, 1)).
		AddValidator(validation.NewRangeValidator("available memory weight", c.AvailableMemoryWeight, 0, 1)).
		AddValidator(validation.NewRangeValidator("physical memory weight", c.PhysicalMemoryWeight, 0, 1)).
		AddValidator(validation.NewRangeValidator("local node preference margin", c.LocalNodePreferenceMargin, 0, 1)).
		AddAssertion(math.Abs(sum-1) <= weightsTolerance, "the sum of the weights must equal 1").
		AddAssertion(c.ScoreJitter >= 0 && !math.IsInf(c.ScoreJitter, 0), "score jitter must be a non negative number").
		AddAssertion(c.SampleSize != nil, "sample size function is required").
		Validate()
	if err != nil {
		return gerrors.NewConfigurationError(err)
	}
	return nil
}

// NormalizedWeights are the weights of a Config scaled to sum to 1
type NormalizedWeights struct {
	CPUUsage        float64
	MemoryUsage     float64
	AvailableMemory float64
	PhysicalMemory  float64
}

// NormalizeWeights divides every weight by their sum. A zero sum yields CPU only.
func NormalizeWeights(c *Config) NormalizedWeights {
	sum := c.CPUUsageWeight + c.MemoryUsageWeight + c.AvailableMemoryWeight + c.PhysicalMemoryWeight
	if sum <= 0 {
		return NormalizedWeights{CPUUsage: 1}
	}
	return NormalizedWeights{
		CPUUsage:        c.CPUUsageWeight / sum,
		MemoryUsage:     c.MemoryUsageWeight / sum,
		AvailableMemory: c.AvailableMemoryWeight / sum,
		PhysicalMemory:  c.PhysicalMemoryWeight / sum,
	}
}
