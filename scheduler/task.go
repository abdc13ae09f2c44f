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

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	gerrors "github.com/tochemey/silo/errors"
)

// Task is a unit of work of an activation
type Task func(ctx context.Context) error

type currentKey struct{}

// Current returns the scheduler draining the calling goroutine, or nil when
// the context was not handed out by a drain loop.
func Current(ctx context.Context) *ActivationScheduler {
	if ctx == nil {
		return nil
	}
	scheduler, _ := ctx.Value(currentKey{}).(*ActivationScheduler)
	return scheduler
}

func withCurrent(ctx context.Context, scheduler *ActivationScheduler) context.Context {
	return context.WithValue(ctx, currentKey{}, scheduler)
}

// runTask executes the task and captures its failure. A nil error means
// the task ran to completion.
func runTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			pc, fn, line, _ := runtime.Caller(2)
			if cause, ok := r.(error); ok {
				var pe *gerrors.PanicError
				if errors.As(cause, &pe) {
					err = pe
					return
				}
				err = gerrors.NewPanicError(fmt.Errorf("%w at %s[%s:%d]", cause, runtime.FuncForPC(pc).Name(), fn, line))
				return
			}
			err = gerrors.NewPanicError(fmt.Errorf("%#v at %s[%s:%d]", r, runtime.FuncForPC(pc).Name(), fn, line))
		}
	}()
	return task(ctx)
}
