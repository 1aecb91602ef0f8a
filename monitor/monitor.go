// Package monitor samples system RAM/CPU so the producer can hold jobs
// back under resource pressure. Sampling is read-only and shared by every
// worker; pressure is never an error, only a delay.
package monitor

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Usage is one resource sample.
type Usage struct {
	RAMPercent float64
	CPUPercent float64
}

// Sampler reads current system usage.
type Sampler interface {
	Sample() (Usage, error)
}

// SystemSampler reads real usage via gopsutil.
type SystemSampler struct{}

func (SystemSampler) Sample() (Usage, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return Usage{}, err
	}
	// A zero interval returns the delta since the previous call, which is
	// what a periodic gate wants.
	percents, err := cpu.Percent(0, false)
	if err != nil {
		return Usage{}, err
	}
	u := Usage{RAMPercent: vm.UsedPercent}
	if len(percents) > 0 {
		u.CPUPercent = percents[0]
	}
	return u, nil
}

// Gate holds callers while usage is over the configured ceilings.
type Gate struct {
	sampler    Sampler
	ramCeiling float64
	cpuCeiling float64
	interval   time.Duration
}

// NewGate creates a Gate re-sampling at the given interval.
func NewGate(sampler Sampler, ramCeiling, cpuCeiling float64, interval time.Duration) *Gate {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Gate{sampler: sampler, ramCeiling: ramCeiling, cpuCeiling: cpuCeiling, interval: interval}
}

// Over reports whether a sample exceeds either ceiling.
func (g *Gate) Over(u Usage) bool {
	return u.RAMPercent > g.ramCeiling || u.CPUPercent > g.cpuCeiling
}

// Current returns the latest sample. Sampler errors read as zero usage so
// a broken sampler never stalls production.
func (g *Gate) Current() Usage {
	u, err := g.sampler.Sample()
	if err != nil {
		return Usage{}
	}
	return u
}

// Wait blocks until usage is under the ceilings or ctx is done. onPause is
// called once if the caller had to wait, onResume once when it may proceed
// again; both may be nil.
func (g *Gate) Wait(ctx context.Context, onPause, onResume func(Usage)) error {
	u := g.Current()
	if !g.Over(u) {
		return nil
	}
	if onPause != nil {
		onPause(u)
	}

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			u = g.Current()
			if !g.Over(u) {
				if onResume != nil {
					onResume(u)
				}
				return nil
			}
		}
	}
}
