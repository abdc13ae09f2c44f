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

	"github.com/tochemey/silo/internal/tcp"
	"github.com/tochemey/silo/internal/validation"
	"github.com/tochemey/silo/log"
)

// Config defines the remote statistics service settings shared by the
// Server and the Client
type Config struct {
	bindAddr       string
	bindPort       int
	maxFrameSize   uint32
	requestTimeout time.Duration
	idleTimeout    time.Duration
	compression    Compression
	logger         log.Logger
}

var _ validation.Validator = (*Config)(nil)

// NewConfig returns a Config for the given bind address and port. A zero
// port lets the system pick one when the server starts.
func NewConfig(bindAddr string, bindPort int, opts ...Option) *Config {
	config := &Config{
		bindAddr:       bindAddr,
		bindPort:       bindPort,
		maxFrameSize:   1 << 20,
		requestTimeout: 5 * time.Second,
		idleTimeout:    2 * time.Minute,
		compression:    ZstdCompression,
		logger:         log.DefaultLogger,
	}

	for _, opt := range opts {
		opt.Apply(config)
	}
	return config
}

// DefaultConfig listens on the loopback interface on a random port
func DefaultConfig() *Config {
	return NewConfig("127.0.0.1", 0)
}

// BindAddr returns the bind address
func (c *Config) BindAddr() string { return c.bindAddr }

// BindPort returns the bind port
func (c *Config) BindPort() int { return c.bindPort }

// MaxFrameSize returns the largest HTTP/2 frame read
func (c *Config) MaxFrameSize() uint32 { return c.maxFrameSize }

// RequestTimeout bounds every call made to a peer
func (c *Config) RequestTimeout() time.Duration { return c.requestTimeout }

// IdleTimeout is how long an idle peer connection is kept
func (c *Config) IdleTimeout() time.Duration { return c.idleTimeout }

// Compression returns the payload compression
func (c *Config) Compression() Compression { return c.compression }

// Logger returns the logger
func (c *Config) Logger() log.Logger { return c.logger }

// Validate implements validation.Validator
func (c *Config) Validate() error {
	return validation.New(validation.AllErrors()).
		AddValidator(validation.NewEmptyStringValidator("bindAddr", c.bindAddr)).
		AddAssertion(c.bindPort >= 0 && c.bindPort <= 65535, "bindPort is out of range").
		AddAssertion(c.maxFrameSize >= 16*1024 && c.maxFrameSize <= 16*1024*1024, "maxFrameSize must be between 16KB and 16MB").
		AddValidator(validation.NewPositiveValidator("requestTimeout", int64(c.requestTimeout))).
		AddAssertion(c.compression.valid(), "unknown compression").
		AddAssertion(c.logger != nil, "logger is not set").
		Validate()
}

// address resolves the address the server listens on
func (c *Config) address() (string, error) {
	ip, err := tcp.GetBindIP(tcp.JoinHostPort(c.bindAddr, c.bindPort))
	if err != nil {
		return "", err
	}
	return tcp.JoinHostPort(ip, c.bindPort), nil
}
