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
	"context"

	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/internal/metric"
	"github.com/tochemey/silo/log"
)

// Rejector sends a message back toward its sender when it cannot be handled
type Rejector interface {
	RejectMessage(message *Message, kind gerrors.RejectionType, err error, reason string)
}

// ResponseRejector answers the sender with an *errors.RejectionError.
// Transient rejections tell the sender it may retry.
type ResponseRejector struct {
	logger log.Logger
	metric *metric.RuntimeMetric
}

var _ Rejector = (*ResponseRejector)(nil)

// NewResponseRejector creates a ResponseRejector
func NewResponseRejector(logger log.Logger) *ResponseRejector {
	return newResponseRejector(logger, nil)
}

func newResponseRejector(logger log.Logger, m *metric.RuntimeMetric) *ResponseRejector {
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &ResponseRejector{logger: logger, metric: m}
}

// RejectMessage implements Rejector
func (r *ResponseRejector) RejectMessage(message *Message, kind gerrors.RejectionType, err error, reason string) {
	rejection := gerrors.NewRejectionError(kind, reason, err)
	r.logger.Warnf("message %s to %s rejected: %v", message.ID(), message.Target(), rejection)
	r.metric.RecordRejection(context.Background(), kind.String())
	message.Fail(rejection)
}
