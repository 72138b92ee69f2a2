// Package hostprobe auto-detects the capacity of the local machine the
// scheduler is running on, using the same gopsutil CPU/RAM probing a worker
// process would use to judge whether it's busy. Here those calls feed
// register_host's default total_cpu/total_memory_gb instead, so a caller
// bootstrapping a local-execution host doesn't have to hardcode its
// topology.
package hostprobe

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Capacity is the detected resource capacity of the local machine.
type Capacity struct {
	CPU      int
	MemoryGB int
}

// Detect reports the number of logical CPUs and total memory (rounded down
// to whole GB) of the machine the calling process runs on. It never
// returns an error: on any gopsutil failure it falls back to
// runtime.NumCPU() and a conservative 2 GB memory estimate, since this is
// a convenience default, not a correctness-critical input — a caller who
// needs precise figures should pass explicit totals to register_host
// instead.
func Detect(ctx context.Context) Capacity {
	cap := Capacity{CPU: runtime.NumCPU(), MemoryGB: 2}

	if counts, err := cpu.CountsWithContext(ctx, true); err == nil && counts > 0 {
		cap.CPU = counts
	}
	if v, err := mem.VirtualMemoryWithContext(ctx); err == nil && v.Total > 0 {
		gb := int(v.Total / (1024 * 1024 * 1024))
		if gb > 0 {
			cap.MemoryGB = gb
		}
	}
	return cap
}

// Load is a live utilization sample of the local machine.
type Load struct {
	CPUPercent float64
	MemPercent float64
}

// SampleLoad reports instantaneous CPU and memory utilization, the same way
// a worker process would judge itself busy before accepting more work. The
// scheduler attaches the sample to metrics_summary so an operator can see
// pressure that pure slot/cpu/memory-counter accounting wouldn't show (e.g.
// a runaway job consuming more CPU than it declared). Never returns an
// error: on failure every field stays zero.
func SampleLoad(ctx context.Context) Load {
	var l Load
	if pct, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false); err == nil && len(pct) > 0 {
		l.CPUPercent = pct[0]
	}
	if v, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		l.MemPercent = v.UsedPercent
	}
	return l
}
