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

package ticker

import (
	"sync"
	"time"
)

// Ticker delivers ticks at intervals on its Ticks channel.
// A tick is dropped when the receiver is not ready, so a slow receiver
// never accumulates a backlog.
type Ticker struct {
	Ticks    chan time.Time
	interval time.Duration
	mutex    sync.Mutex
	ticking  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates an instance of Ticker that ticks every interval
func New(interval time.Duration) *Ticker {
	if interval <= 0 {
		panic("interval must be greater than zero")
	}
	return &Ticker{
		Ticks:    make(chan time.Time),
		interval: interval,
	}
}

// Start the ticker. Calling Start on a ticking ticker is a no-op.
func (t *Ticker) Start() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.ticking {
		return
	}
	t.ticking = true
	t.stopCh = make(chan struct{})
	t.doneCh = make(chan struct{})
	go t.loop(t.stopCh, t.doneCh)
}

// Stop stops the ticker and waits for its goroutine to exit.
// No tick is delivered after Stop returns.
func (t *Ticker) Stop() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if !t.ticking {
		return
	}
	t.ticking = false
	close(t.stopCh)
	<-t.doneCh
}

// Ticking returns true when the ticker is ticking
func (t *Ticker) Ticking() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.ticking
}

func (t *Ticker) loop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case tc := <-ticker.C:
			select {
			case t.Ticks <- tc:
			case <-stopCh:
				return
			default:
			}
		case <-stopCh:
			return
		}
	}
}
