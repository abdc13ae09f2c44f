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

package redis

import (
	"time"

	"github.com/tochemey/silo/internal/validation"
)

// DefaultChannel is the Pub/Sub channel the statistics are published on
const DefaultChannel = "silo:statistics"

// Config defines the Redis statistics transport settings
type Config struct {
	// Address is the Redis server in the format host:port
	Address string
	// Username is optional
	Username string
	// Password is optional
	Password string
	// DB selects the database
	DB int
	// Channel is the channel every node publishes its statistics on
	Channel string
	// ConnectRetries is the number of ping attempts before the transport gives up
	ConnectRetries int
	// ConnectTimeout bounds every ping attempt
	ConnectTimeout time.Duration
}

// Validate checks whether the configuration is valid
func (c Config) Validate() error {
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("Address", c.Address)).
		AddValidator(validation.NewEmptyStringValidator("Channel", c.Channel)).
		AddAssertion(c.DB >= 0, "DB must not be negative").
		AddAssertion(c.ConnectRetries >= 0, "ConnectRetries must not be negative").
		AddAssertion(c.ConnectTimeout >= 0, "ConnectTimeout must not be negative").
		Validate()
}

func (c *Config) sanitize() {
	if c.ConnectRetries == 0 {
		c.ConnectRetries = 5
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = time.Second
	}
}
