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

package kalman

const (
	slowProcessNoise = 0.0
	fastProcessNoise = 0.01
)

// Regime is the operating mode of a DualModeFilter
type Regime int

const (
	// Slow trusts the heavily smoothed estimate
	Slow Regime = iota
	// Fast follows rising measurements immediately
	Fast
)

// String returns the regime name
func (r Regime) String() string {
	if r == Fast {
		return "Fast"
	}
	return "Slow"
}

// DualModeFilter reacts to rises at once and trusts decreases slowly.
// Both estimators see every measurement. A measurement above the slow
// estimate selects the fast estimator, which is reset onto the
// measurement when the filter enters the Fast regime. Otherwise the slow
// estimator is used, seeded from the fast one when entering Slow so the
// output does not jump.
//
// A DualModeFilter is not safe for concurrent use.
type DualModeFilter struct {
	slow   Filter
	fast   Filter
	regime Regime
}

// NewDualModeFilter returns a filter in the Slow regime
func NewDualModeFilter() *DualModeFilter {
	return &DualModeFilter{
		slow:   Filter{covariance: 1},
		fast:   Filter{covariance: 1},
		regime: Slow,
	}
}

// Filter folds the measurement in and returns the smoothed value
func (d *DualModeFilter) Filter(measurement float64) float64 {
	slowEstimate := d.slow.Filter(measurement, slowProcessNoise)
	fastEstimate := d.fast.Filter(measurement, fastProcessNoise)

	if measurement > slowEstimate {
		if d.regime == Slow {
			d.regime = Fast
			d.fast.SetState(measurement, 0)
			fastEstimate = d.fast.Filter(measurement, fastProcessNoise)
		}
		return fastEstimate
	}

	if d.regime == Fast {
		d.regime = Slow
		d.slow.SetState(d.fast.Estimate(), d.fast.Covariance())
		slowEstimate = d.slow.Filter(measurement, slowProcessNoise)
	}
	return slowEstimate
}

// Regime returns the current operating mode
func (d *DualModeFilter) Regime() Regime {
	return d.regime
}
