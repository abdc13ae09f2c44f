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

// Package kalman implements the scalar estimators used to smooth node
// resource telemetry before it reaches the placement scorer.
package kalman

// Filter is a one dimensional recursive estimator with a constant state
// model and a measurement noise variance of 1.
type Filter struct {
	estimate   float64
	covariance float64
}

// NewFilter returns a Filter starting at estimate 0 with covariance 1
func NewFilter() *Filter {
	return &Filter{covariance: 1}
}

// Filter folds the measurement into the estimate using the given process noise and returns the new estimate.
func (f *Filter) Filter(measurement, processNoise float64) float64 {
	predicted := f.covariance + processNoise
	gain := predicted / (predicted + 1)
	f.estimate += gain * (measurement - f.estimate)
	f.covariance = (1 - gain) * predicted
	return f.estimate
}

// SetState overrides the estimator state
func (f *Filter) SetState(estimate, covariance float64) {
	f.estimate = estimate
	f.covariance = covariance
}

// Estimate returns the last estimate
func (f *Filter) Estimate() float64 {
	return f.estimate
}

// Covariance returns the last error covariance
func (f *Filter) Covariance() float64 {
	return f.covariance
}
