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

// Package placement decides which node of the cluster hosts a new activation.
//
// Every placement Strategy is served by a Director. The resource optimized
// director ranks candidate nodes using smoothed telemetry published by the
// statistics feed.
package placement

import "fmt"

// Strategy tags a grain kind with the way its activations are placed
type Strategy interface {
	// Name returns the strategy name, used to resolve its Director
	Name() string
}

// ResourceOptimized places activations on the node with the most headroom
type ResourceOptimized struct{}

// Name implements Strategy
func (ResourceOptimized) Name() string { return "ResourceOptimized" }

// Random places activations on a random compatible node
type Random struct{}

// Name implements Strategy
func (Random) Name() string { return "Random" }

// PreferLocal places activations on the local node when it can host them
type PreferLocal struct{}

// Name implements Strategy
func (PreferLocal) Name() string { return "PreferLocal" }

// StatelessWorker places a pool of interchangeable activations on the local node
type StatelessWorker struct {
	// MaxLocal bounds the number of workers per node. Zero or less means GOMAXPROCS.
	MaxLocal int
	// ProactiveWorkerCollection enables the controller that removes idle workers
	ProactiveWorkerCollection bool
}

// Name implements Strategy
func (StatelessWorker) Name() string { return "StatelessWorker" }

// String describes the strategy settings
func (s StatelessWorker) String() string {
	return fmt.Sprintf("StatelessWorker(maxLocal=%d, proactiveCollection=%t)", s.MaxLocal, s.ProactiveWorkerCollection)
}
