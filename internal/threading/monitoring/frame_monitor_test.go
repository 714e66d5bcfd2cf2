package monitoring

import (
	"sync"
	"testing"
	"time"
)

// =============================================================================
// FRAME MONITOR TESTS
// =============================================================================

func TestNewFrameMonitor(t *testing.T) {
	fm := NewFrameMonitor()
	if fm == nil {
		t.Fatal("NewFrameMonitor returned nil")
	}

	// Check that start time is recent
	if time.Since(fm.startTime) > time.Second {
		t.Error("Start time should be recent")
	}
	if s := fm.Snapshot(); s.Frames != 0 || s.Errors != 0 || s.StaleDrops != 0 {
		t.Errorf("fresh monitor has counts: %+v", s)
	}
}

func TestFrameMonitorCastTiming(t *testing.T) {
	fm := NewFrameMonitor()

	timer := fm.StartCast()
	time.Sleep(5 * time.Millisecond) // Simulate some work
	elapsed := timer.EndCast(200)

	if elapsed < 5*time.Millisecond {
		t.Errorf("Expected cast time of at least 5ms, got %v", elapsed)
	}

	s := fm.Snapshot()
	if s.Frames != 1 || s.Columns != 200 {
		t.Errorf("Expected 1 frame of 200 columns, got %+v", s)
	}
	if s.LastCastMs < 5 || s.AvgCastMs < 5 || s.PeakCastMs < s.LastCastMs {
		t.Errorf("timings not recorded: %+v", s)
	}
}

func TestFrameMonitorOutcomes(t *testing.T) {
	fm := NewFrameMonitor()
	fm.RecordStale()
	fm.RecordStale()
	fm.RecordError()

	s := fm.Snapshot()
	if s.StaleDrops != 2 || s.Errors != 1 {
		t.Errorf("Expected 2 stale drops and 1 error, got %+v", s)
	}

	stats := fm.GetDetailedStats()
	for _, key := range []string{"frame_count", "stale_drops", "errors", "avg_cast_time_ms", "goroutines"} {
		if _, ok := stats[key]; !ok {
			t.Errorf("detailed stats missing %q", key)
		}
	}
}

func TestFrameMonitorAlerts(t *testing.T) {
	fm := NewFrameMonitor()
	if alerts := fm.CheckPerformanceAlerts(); len(alerts) != 0 {
		t.Errorf("idle monitor raised %d alerts", len(alerts))
	}

	fm.lastCastTime.Store(uint64(50 * time.Millisecond))
	fm.RecordError()

	types := map[string]bool{}
	for _, a := range fm.CheckPerformanceAlerts() {
		types[a.Type] = true
	}
	if !types["slow_cast"] || !types["error_rate"] {
		t.Errorf("Expected slow_cast and error_rate alerts, got %v", types)
	}
}

func TestFrameMonitorConcurrency(t *testing.T) {
	fm := NewFrameMonitor()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				fm.StartCast().EndCast(4)
				fm.RecordStale()
				_ = fm.Snapshot()
			}
		}()
	}
	wg.Wait()

	s := fm.Snapshot()
	if s.Frames != 200 || s.Columns != 800 || s.StaleDrops != 200 {
		t.Errorf("lost updates under concurrency: %+v", s)
	}
}

func TestFrameMonitorReset(t *testing.T) {
	fm := NewFrameMonitor()
	fm.StartCast().EndCast(10)
	fm.RecordError()
	fm.Reset()

	if s := fm.Snapshot(); s.Frames != 0 || s.Columns != 0 || s.Errors != 0 || s.AvgCastMs != 0 {
		t.Errorf("Reset left counts: %+v", s)
	}
}
