package rendering

import (
	"context"

	"heavensgate/internal/mathutil"
	"heavensgate/internal/raycast"
	"heavensgate/internal/threading/core"
)

// Batch bounds for splitting a frame across workers
const (
	minBatchSize = 4
	maxBatchSize = 32
	inlineLimit  = 8
)

// ParallelCaster casts the columns of a frame on a shared worker pool
type ParallelCaster struct {
	workerPool *core.WorkerPool
	inFlight   *core.SafeCounter
}

// NewParallelCaster creates a caster with its own started pool. workers <= 0
// means one worker per CPU.
func NewParallelCaster(workers int) *ParallelCaster {
	pool := core.NewWorkerPool(workers)
	pool.Start()
	return &ParallelCaster{
		workerPool: pool,
		inFlight:   core.NewSafeCounter(),
	}
}

// BatchSize returns how many contiguous columns one job casts for a frame of
// numRays columns.
func (pc *ParallelCaster) BatchSize(numRays int) int {
	return mathutil.IntClamp(numRays/pc.workerPool.GetNumWorkers(), minBatchSize, maxBatchSize)
}

// CastRange casts columns [start, end) and returns one slot per column, the
// same as raycast.CastRange. The frame is validated once up front; a
// cancelled context discards the whole range.
func (pc *ParallelCaster) CastRange(ctx context.Context, pose raycast.Pose, cfg raycast.CastConfig, scene raycast.Scene, start, end int) ([]*raycast.RayHit, error) {
	if err := raycast.Validate(pose, cfg, scene); err != nil {
		return nil, err
	}
	if err := raycast.CheckRange(cfg, start, end); err != nil {
		return nil, err
	}

	results := make([]*raycast.RayHit, end-start)

	// Very small workloads: process inline to avoid synchronization overhead
	if end-start <= inlineLimit {
		pc.inFlight.Add(int64(end - start))
		defer pc.inFlight.Add(-int64(end - start))
		for col := start; col < end; col++ {
			results[col-start] = raycast.CastColumn(pose, cfg, scene, col)
		}
		return results, nil
	}

	ranges := core.SplitRange(start, end, pc.BatchSize(end-start))
	err := pc.workerPool.ParallelRanges(ctx, ranges, func(r core.ColumnRange) {
		pc.inFlight.Add(int64(r.Len()))
		defer pc.inFlight.Add(-int64(r.Len()))
		for col := r.Start; col < r.End; col++ {
			results[col-start] = raycast.CastColumn(pose, cfg, scene, col)
		}
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// CastFrame casts every column of the frame.
func (pc *ParallelCaster) CastFrame(ctx context.Context, pose raycast.Pose, cfg raycast.CastConfig, scene raycast.Scene) ([]*raycast.RayHit, error) {
	return pc.CastRange(ctx, pose, cfg, scene, 0, cfg.RayCount)
}

// InFlight returns the number of columns currently being cast.
func (pc *ParallelCaster) InFlight() int64 {
	return pc.inFlight.Get()
}

// Stop shuts down the worker pool
func (pc *ParallelCaster) Stop() {
	pc.workerPool.Stop()
}
