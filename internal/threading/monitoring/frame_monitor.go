package monitoring

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Alert thresholds
const (
	slowCastThreshold  = 16 * time.Millisecond
	errorRateThreshold = 0.10
)

// FrameMonitor tracks cast timings and how frames ended. All methods are safe
// for concurrent use.
type FrameMonitor struct {
	// Cast metrics
	frameCount    atomic.Uint64
	columnCount   atomic.Uint64
	lastCastTime  atomic.Uint64 // nanoseconds
	totalCastTime atomic.Uint64 // nanoseconds

	// Outcome metrics
	staleDrops atomic.Uint64
	errors     atomic.Uint64

	// Statistics
	mutex        sync.RWMutex
	avgCastTime  float64
	peakCastTime uint64
	startTime    time.Time
}

// NewFrameMonitor creates a new frame monitor
func NewFrameMonitor() *FrameMonitor {
	return &FrameMonitor{
		startTime: time.Now(),
	}
}

// CastTimer measures one frame or range cast
type CastTimer struct {
	monitor   *FrameMonitor
	startTime time.Time
}

// StartCast begins cast timing
func (fm *FrameMonitor) StartCast() *CastTimer {
	return &CastTimer{
		monitor:   fm,
		startTime: time.Now(),
	}
}

// EndCast records a finished cast of the given number of columns and returns
// its duration.
func (ct *CastTimer) EndCast(columns int) time.Duration {
	elapsed := time.Since(ct.startTime)
	nanos := uint64(elapsed.Nanoseconds())

	fm := ct.monitor
	fm.lastCastTime.Store(nanos)
	total := fm.totalCastTime.Add(nanos)
	count := fm.frameCount.Add(1)
	if columns > 0 {
		fm.columnCount.Add(uint64(columns))
	}

	fm.mutex.Lock()
	fm.avgCastTime = float64(total) / float64(count)
	if nanos > fm.peakCastTime {
		fm.peakCastTime = nanos
	}
	fm.mutex.Unlock()

	return elapsed
}

// RecordStale counts a frame dropped because a newer one had already arrived
func (fm *FrameMonitor) RecordStale() {
	fm.staleDrops.Add(1)
}

// RecordError counts a frame rejected with an error record
func (fm *FrameMonitor) RecordError() {
	fm.errors.Add(1)
}

// FrameStats is a point-in-time copy of the monitor's counters
type FrameStats struct {
	Frames        uint64  `json:"frames"`
	Columns       uint64  `json:"columns"`
	StaleDrops    uint64  `json:"staleDrops"`
	Errors        uint64  `json:"errors"`
	AvgCastMs     float64 `json:"avgCastMs"`
	LastCastMs    float64 `json:"lastCastMs"`
	PeakCastMs    float64 `json:"peakCastMs"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

// Snapshot returns the current counters
func (fm *FrameMonitor) Snapshot() FrameStats {
	fm.mutex.RLock()
	defer fm.mutex.RUnlock()

	return FrameStats{
		Frames:        fm.frameCount.Load(),
		Columns:       fm.columnCount.Load(),
		StaleDrops:    fm.staleDrops.Load(),
		Errors:        fm.errors.Load(),
		AvgCastMs:     fm.avgCastTime / 1e6,
		LastCastMs:    float64(fm.lastCastTime.Load()) / 1e6,
		PeakCastMs:    float64(fm.peakCastTime) / 1e6,
		UptimeSeconds: time.Since(fm.startTime).Seconds(),
	}
}

// GetDetailedStats returns the snapshot together with process statistics
func (fm *FrameMonitor) GetDetailedStats() map[string]interface{} {
	stats := fm.Snapshot()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return map[string]interface{}{
		"uptime_seconds":    stats.UptimeSeconds,
		"frame_count":       stats.Frames,
		"column_count":      stats.Columns,
		"stale_drops":       stats.StaleDrops,
		"errors":            stats.Errors,
		"avg_cast_time_ms":  stats.AvgCastMs,
		"last_cast_time_ms": stats.LastCastMs,
		"peak_cast_time_ms": stats.PeakCastMs,
		"memory_alloc_mb":   memStats.Alloc / 1024 / 1024,
		"gc_cycles":         memStats.NumGC,
		"cpu_cores":         runtime.NumCPU(),
		"goroutines":        runtime.NumGoroutine(),
	}
}

// PerformanceAlert represents a performance warning
type PerformanceAlert struct {
	Type      string
	Message   string
	Value     float64
	Threshold float64
	Timestamp time.Time
}

// CheckPerformanceAlerts returns warnings for slow casts and frequent errors
func (fm *FrameMonitor) CheckPerformanceAlerts() []PerformanceAlert {
	alerts := make([]PerformanceAlert, 0)
	currentTime := time.Now()

	last := time.Duration(fm.lastCastTime.Load())
	if last > slowCastThreshold {
		alerts = append(alerts, PerformanceAlert{
			Type:      "slow_cast",
			Message:   "Last cast took longer than one 60 FPS frame",
			Value:     float64(last) / 1e6,
			Threshold: float64(slowCastThreshold) / 1e6,
			Timestamp: currentTime,
		})
	}

	frames := fm.frameCount.Load()
	errs := fm.errors.Load()
	if total := frames + errs; total > 0 {
		rate := float64(errs) / float64(total)
		if rate > errorRateThreshold {
			alerts = append(alerts, PerformanceAlert{
				Type:      "error_rate",
				Message:   "More than 10% of frame requests failed",
				Value:     rate,
				Threshold: errorRateThreshold,
				Timestamp: currentTime,
			})
		}
	}

	return alerts
}

// Reset resets all counters
func (fm *FrameMonitor) Reset() {
	fm.frameCount.Store(0)
	fm.columnCount.Store(0)
	fm.lastCastTime.Store(0)
	fm.totalCastTime.Store(0)
	fm.staleDrops.Store(0)
	fm.errors.Store(0)

	fm.mutex.Lock()
	fm.avgCastTime = 0
	fm.peakCastTime = 0
	fm.startTime = time.Now()
	fm.mutex.Unlock()
}
