package projection

import (
	"context"

	"golang.org/x/sync/errgroup"

	"heavensgate/internal/raycast"
)

// Frame is the projected form of a cast. Walls and Floors are indexed like the
// hits they came from; absent hits leave nil entries.
type Frame struct {
	Walls  []*WallSlice
	Floors []*FloorColumn
	Layers [][]WallSlice
}

// ProjectFrame projects walls and floors of a cast concurrently. hits may be a
// sub-range of the frame; each hit's Column indexes the angle table.
func ProjectFrame(ctx context.Context, pose raycast.Pose, cfg raycast.CastConfig, hits []*raycast.RayHit) (*Frame, error) {
	out := &Frame{
		Walls:  make([]*WallSlice, len(hits)),
		Floors: make([]*FloorColumn, len(hits)),
		Layers: make([][]WallSlice, len(hits)),
	}
	angles := NewAngleTable(pose, cfg)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for i, hit := range hits {
			if hit == nil {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			wall := ProjectWall(hit, cfg)
			out.Walls[i] = &wall
			out.Layers[i] = ProjectLayers(hit, cfg)
		}
		return nil
	})
	g.Go(func() error {
		for i, hit := range hits {
			if err := ctx.Err(); err != nil {
				return err
			}
			out.Floors[i] = ProjectFloor(hit, pose, cfg, angles)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
