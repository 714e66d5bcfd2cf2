// Package projection turns ray hits into screen space: one vertical wall strip
// per column and the floor samples below it.
package projection

import (
	"heavensgate/internal/mathutil"
	"heavensgate/internal/raycast"
)

// minDistance keeps a wall that touches the camera from projecting to an
// infinite height.
const minDistance = 1e-6

// WallSlice is the vertical strip one column draws for its wall.
type WallSlice struct {
	Column     int
	Distance   float64
	Height     float64
	Top        float64
	Bottom     float64
	TexU       float64 // [0,1] across the wall face
	TextureKey string
	Side       raycast.HitSide
}

// ProjectWall sizes the strip of a present hit and picks its horizontal texture
// offset from the coordinate that runs along the crossed wall face.
func ProjectWall(hit *raycast.RayHit, cfg raycast.CastConfig) WallSlice {
	dist := hit.Distance
	if !(dist > minDistance) {
		dist = minDistance
	}
	canvasHeight := float64(cfg.CanvasHeight)
	height := (canvasHeight / dist) * cfg.TileSize
	top := (canvasHeight - height) / 2

	along := hit.HitY
	if hit.Side == raycast.SideX {
		along = hit.HitX
	}

	return WallSlice{
		Column:     hit.Column,
		Distance:   hit.Distance,
		Height:     height,
		Top:        top,
		Bottom:     top + height,
		TexU:       mathutil.WrapUnit(along, cfg.TileSize),
		TextureKey: hit.TextureKey,
		Side:       hit.Side,
	}
}

// ProjectLayers projects the transparent walls in front of a hit, farthest
// first so they can be drawn over the opaque strip in order.
func ProjectLayers(hit *raycast.RayHit, cfg raycast.CastConfig) []WallSlice {
	if hit == nil || len(hit.Layers) == 0 {
		return nil
	}
	out := make([]WallSlice, 0, len(hit.Layers))
	for i := len(hit.Layers) - 1; i >= 0; i-- {
		out = append(out, ProjectWall(&hit.Layers[i], cfg))
	}
	return out
}
