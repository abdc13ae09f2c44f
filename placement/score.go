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

package placement

const bytesPerMegabyte = 1024 * 1024

// Score rates the utilization of a node. Lower is better.
//
//	cpu      * cpuUsage/100
//	memUsed  * memoryUsage/physical
//	memAvail * (1 - availableMemory/physical)
//	physical * physicalMB/(1024*1024)
//
// When the physical memory is unknown only the CPU term is used.
func Score(stats ResourceStatistics, w NormalizedWeights) float64 {
	cpu := stats.CPUUsage / 100
	physical := float64(stats.TotalPhysicalMemory)
	if physical <= 0 {
		return w.CPUUsage * cpu
	}

	memoryUsage := stats.MemoryUsage / physical
	availableMemory := 1 - stats.AvailableMemory/physical
	physicalMB := physical / bytesPerMegabyte

	return w.CPUUsage*cpu +
		w.MemoryUsage*memoryUsage +
		w.AvailableMemory*availableMemory +
		w.PhysicalMemory*(physicalMB/bytesPerMegabyte)
}
