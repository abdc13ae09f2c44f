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

package errorschain

import "go.uber.org/multierr"

// Chain collects the errors of a sequence of steps, typically a shutdown
// sequence, where every step must run even when an earlier one failed.
type Chain struct {
	returnFirst bool
	errs        []error
}

// ChainOption configures a chain at creation time.
type ChainOption func(*Chain)

// New creates a new error chain. Errors are evaluated in insertion order.
func New(opts ...ChainOption) *Chain {
	chain := &Chain{errs: make([]error, 0)}
	for _, opt := range opts {
		opt(chain)
	}
	return chain
}

// ReturnFirst makes Error return only the first non-nil error.
func ReturnFirst() ChainOption {
	return func(c *Chain) { c.returnFirst = true }
}

// ReturnAll makes Error combine every non-nil error.
func ReturnAll() ChainOption {
	return func(c *Chain) { c.returnFirst = false }
}

// AddError adds an error to the chain. nil errors are ignored.
func (c *Chain) AddError(err error) *Chain {
	c.errs = append(c.errs, err)
	return c
}

// AddErrorFn runs fn and adds its result to the chain.
func (c *Chain) AddErrorFn(fn func() error) *Chain {
	return c.AddError(fn())
}

// Error returns the resulting error
func (c *Chain) Error() error {
	var err error
	for _, v := range c.errs {
		if v == nil {
			continue
		}
		if c.returnFirst {
			return v
		}
		err = multierr.Append(err, v)
	}
	return err
}
