package threading

import (
	"heavensgate/internal/threading/monitoring"
	"heavensgate/internal/threading/rendering"
)

// Components holds the threading pieces a frame service needs
type Components struct {
	Caster  *rendering.ParallelCaster
	Monitor *monitoring.FrameMonitor
}

// NewComponents creates a caster with the given worker count (<= 0 means one
// per CPU) and a fresh monitor.
func NewComponents(workers int) *Components {
	return &Components{
		Caster:  rendering.NewParallelCaster(workers),
		Monitor: monitoring.NewFrameMonitor(),
	}
}

// Shutdown stops the worker pool
func (c *Components) Shutdown() {
	if c.Caster != nil {
		c.Caster.Stop()
	}
}

// Stats returns the monitor snapshot, or the zero value without a monitor
func (c *Components) Stats() monitoring.FrameStats {
	if c.Monitor == nil {
		return monitoring.FrameStats{}
	}
	return c.Monitor.Snapshot()
}

// CheckPerformanceAlerts returns any performance warnings
func (c *Components) CheckPerformanceAlerts() []monitoring.PerformanceAlert {
	if c.Monitor == nil {
		return nil
	}
	return c.Monitor.CheckPerformanceAlerts()
}
