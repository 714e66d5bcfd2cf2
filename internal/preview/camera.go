// Package preview turns cast frames into something a person can look at: a
// walkable camera, a text rendering and a cache for textured wall strips.
package preview

import (
	"math"

	"heavensgate/internal/config"
	"heavensgate/internal/raycast"
	"heavensgate/internal/world"
)

// Camera is the first-person viewpoint that the preview tools steer. X and Z
// are world units, Angle and FOV radians.
type Camera struct {
	X     float64
	Z     float64
	Angle float64
	FOV   float64
}

// NewCamera places a camera at the map's start cell, or at the first empty
// cell when the map has no start marker.
func NewCamera(cfg *config.Config, md *world.MapData) *Camera {
	tile := cfg.GetTileSize()
	cx, cy := md.StartX, md.StartY
	if cx < 0 || cy < 0 {
		cx, cy = firstEmptyCell(md.Grid)
	}
	x, z := world.CellCenter(cx, cy, tile)
	return &Camera{
		X:     x,
		Z:     z,
		Angle: cfg.Camera.StartAngle,
		FOV:   cfg.GetCameraFOV(),
	}
}

func firstEmptyCell(g *world.Grid) (int, int) {
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if !g.IsSolid(x, y) {
				return x, y
			}
		}
	}
	return 0, 0
}

// Pose returns the camera as a cast pose
func (c *Camera) Pose() raycast.Pose {
	return raycast.Pose{X: c.X, Z: c.Z, Angle: c.Angle, FOV: c.FOV}
}

// GetForwardX returns the X component of the forward direction vector
func (c *Camera) GetForwardX() float64 {
	return math.Cos(c.Angle)
}

// GetForwardZ returns the Z component of the forward direction vector
func (c *Camera) GetForwardZ() float64 {
	return math.Sin(c.Angle)
}

// GetRightX returns the X component of the right direction vector
func (c *Camera) GetRightX() float64 {
	return math.Cos(c.Angle + math.Pi/2)
}

// GetRightZ returns the Z component of the right direction vector
func (c *Camera) GetRightZ() float64 {
	return math.Sin(c.Angle + math.Pi/2)
}

// Rotate turns the camera by delta radians, keeping Angle in [0, 2*pi)
func (c *Camera) Rotate(delta float64) {
	c.Angle = math.Mod(c.Angle+delta, 2*math.Pi)
	if c.Angle < 0 {
		c.Angle += 2 * math.Pi
	}
}

// Move steps forward and right by the given amounts in world units. The move
// is refused when the destination cell is solid or outside the grid; it
// reports whether the camera moved.
func (c *Camera) Move(forward, right float64, grid *world.Grid, tileSize float64) bool {
	newX := c.X + c.GetForwardX()*forward + c.GetRightX()*right
	newZ := c.Z + c.GetForwardZ()*forward + c.GetRightZ()*right
	if !canMoveTo(grid, newX, newZ, tileSize) {
		return false
	}
	c.X = newX
	c.Z = newZ
	return true
}

func canMoveTo(grid *world.Grid, x, z, tileSize float64) bool {
	if grid == nil || tileSize <= 0 || x < 0 || z < 0 {
		return false
	}
	return !grid.IsSolid(int(math.Floor(x/tileSize)), int(math.Floor(z/tileSize)))
}
