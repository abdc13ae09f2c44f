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

package nats

import (
	"time"

	"github.com/tochemey/silo/internal/validation"
)

// DefaultSubject is the subject the statistics are published on
const DefaultSubject = "silo.statistics"

// Config defines the NATS statistics transport settings
type Config struct {
	// Server is the NATS server url in the format nats://host:port
	Server string
	// Subject is the subject every node publishes its statistics on
	Subject string
	// ConnectRetries is the number of connection attempts
	ConnectRetries int
	// ReconnectWait is the maximum delay between two connection attempts
	ReconnectWait time.Duration
}

// Validate checks whether the configuration is valid
func (c Config) Validate() error {
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("Server", c.Server)).
		AddValidator(validation.NewEmptyStringValidator("Subject", c.Subject)).
		AddAssertion(c.ConnectRetries >= 0, "ConnectRetries must not be negative").
		AddAssertion(c.ReconnectWait >= 0, "ReconnectWait must not be negative").
		Validate()
}

func (c *Config) sanitize() {
	if c.ConnectRetries == 0 {
		c.ConnectRetries = 5
	}
	if c.ReconnectWait == 0 {
		c.ReconnectWait = 2 * time.Second
	}
}
