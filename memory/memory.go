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

// Package memory samples the host resources reported in node statistics.
package memory

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// Sample is one reading of the host resources
type Sample struct {
	// CPUUsage is the machine wide CPU usage in percent
	CPUUsage float64
	// Total is the physical memory of the machine in bytes
	Total uint64
	// Available is the memory available to new allocations in bytes
	Available uint64
	// ProcessUsage is the resident memory of this process in bytes
	ProcessUsage uint64
}

// Sampler reads host resources through gopsutil. It is safe for concurrent use.
type Sampler struct {
	mu         sync.Mutex
	pid        int32
	cpuWindow  time.Duration
	proc       *process.Process
	procLoaded bool
}

// NewSampler creates a Sampler for the current process. cpuWindow is the
// interval over which CPU usage is measured; zero compares against the
// previous call.
func NewSampler(cpuWindow time.Duration) *Sampler {
	return &Sampler{pid: int32(os.Getpid()), cpuWindow: cpuWindow}
}

// Sample reads the host resources
func (s *Sampler) Sample(ctx context.Context) (Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Sample{}, err
	}

	percents, err := cpu.PercentWithContext(ctx, s.cpuWindow, false)
	if err != nil {
		return Sample{}, err
	}

	var usage float64
	if len(percents) > 0 {
		usage = percents[0]
	}

	rss, err := s.processUsage(ctx)
	if err != nil {
		return Sample{}, err
	}

	return Sample{
		CPUUsage:     usage,
		Total:        vm.Total,
		Available:    vm.Available,
		ProcessUsage: rss,
	}, nil
}

func (s *Sampler) processUsage(ctx context.Context) (uint64, error) {
	if !s.procLoaded {
		proc, err := process.NewProcessWithContext(ctx, s.pid)
		if err != nil {
			return 0, err
		}
		s.proc = proc
		s.procLoaded = true
	}

	info, err := s.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return info.RSS, nil
}

// Size returns the total memory of the system in bytes
func Size() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.Total, nil
}

// Free returns the memory available to new allocations in bytes
func Free() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.Available, nil
}
