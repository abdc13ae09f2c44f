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

package remote

import (
	"time"

	"github.com/tochemey/silo/log"
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(config *Config)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(config *Config)

// Apply applies the option
func (f OptionFunc) Apply(config *Config) {
	f(config)
}

// WithMaxFrameSize sets the largest HTTP/2 frame read. Valid values range
// from 16KB to 16MB.
func WithMaxFrameSize(size uint32) Option {
	return OptionFunc(func(config *Config) {
		config.maxFrameSize = size
	})
}

// WithRequestTimeout bounds every call made to a peer
func WithRequestTimeout(timeout time.Duration) Option {
	return OptionFunc(func(config *Config) {
		config.requestTimeout = timeout
	})
}

// WithIdleTimeout sets how long an idle peer connection is kept
func WithIdleTimeout(timeout time.Duration) Option {
	return OptionFunc(func(config *Config) {
		config.idleTimeout = timeout
	})
}

// WithCompression sets the payload compression. Peers must agree on it.
func WithCompression(compression Compression) Option {
	return OptionFunc(func(config *Config) {
		config.compression = compression
	})
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(config *Config) {
		config.logger = logger
	})
}
