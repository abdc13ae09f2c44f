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

package actor

import (
	"time"

	"github.com/tochemey/silo/internal/validation"
)

// ControllerConfig tunes the controller removing idle stateless workers
type ControllerConfig struct {
	// Period is the interval between two evaluations
	Period time.Duration
	// ProportionalGain weighs the current error
	ProportionalGain float64
	// IntegralGain weighs the accumulated error
	IntegralGain float64
	// DerivativeGain weighs the change of the error
	DerivativeGain float64
	// NegativeStreakThreshold is the number of consecutive negative signals
	// that must be exceeded before a worker is removed
	NegativeStreakThreshold int
	// RemovalBackoff is the minimum time between two removals
	RemovalBackoff time.Duration
}

// DefaultControllerConfig returns the default controller settings
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		Period:                  500 * time.Millisecond,
		ProportionalGain:        0.433,
		IntegralGain:            0.468,
		DerivativeGain:          0.480,
		NegativeStreakThreshold: 10,
		RemovalBackoff:          time.Second,
	}
}

// Validate implements validation.Validator
func (c ControllerConfig) Validate() error {
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewPositiveValidator("controller period", int64(c.Period))).
		AddAssertion(c.NegativeStreakThreshold >= 0, "negative streak threshold must not be negative").
		AddAssertion(c.RemovalBackoff >= 0, "removal backoff must not be negative").
		Validate()
}

// shrinkController is a PID controller driving the average waiting count of
// the workers to zero. It is owned by the pool drain loop.
type shrinkController struct {
	config        ControllerConfig
	integral      float64
	previousError float64
	streak        int
	lastRemoval   time.Time
}

func newShrinkController(config ControllerConfig) *shrinkController {
	return &shrinkController{config: config}
}

// step folds the waiting counts of the workers in and reports whether a
// worker removal is due at now
func (c *shrinkController) step(waitingCounts []int, now time.Time) bool {
	average := 0.0
	if len(waitingCounts) > 0 {
		total := 0
		for _, count := range waitingCounts {
			total += count
		}
		average = float64(total) / float64(len(waitingCounts))
	}

	// the target is zero waiting
	err := -average
	c.integral += err
	derivative := err - c.previousError
	c.previousError = err

	signal := c.config.ProportionalGain*err + c.config.IntegralGain*c.integral + c.config.DerivativeGain*derivative
	if signal < 0 {
		c.streak++
	} else {
		c.streak = 0
	}

	return c.streak > c.config.NegativeStreakThreshold && now.Sub(c.lastRemoval) > c.config.RemovalBackoff
}

// removed records the removal of one of the idle workers
func (c *shrinkController) removed(idle int, now time.Time) {
	c.streak = 0
	c.lastRemoval = now
	if idle > 0 {
		c.integral *= float64(idle-1) / float64(idle)
	}
}
