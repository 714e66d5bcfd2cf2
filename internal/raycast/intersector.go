package raycast

import (
	"fmt"
	"math"
)

// tileConventionEpsilon stands in for a zero direction component when the tile
// convention computes its per-step delta.
const tileConventionEpsilon = 1e-10

// walk holds the convention-dependent constants of one grid walk. Positions
// and distances inside the walk are in walk units; scale converts them back
// to world units.
type walk struct {
	scale       float64 // world units per walk unit
	cellSize    float64 // cell edge in walk units
	maxSteps    int
	maxDistance float64
	truncate    bool
}

func newWalk(cfg CastConfig) walk {
	if cfg.Convention == ConventionTile {
		return walk{
			scale:       cfg.TileSize,
			cellSize:    1,
			maxSteps:    cfg.MaxDepth,
			maxDistance: float64(cfg.MaxDepth),
			truncate:    true,
		}
	}
	return walk{
		scale:       1,
		cellSize:    cfg.TileSize,
		maxSteps:    cfg.MaxDepth * 2,
		maxDistance: float64(cfg.MaxDepth) * cfg.TileSize,
	}
}

func (w walk) cell(origin float64) int {
	if w.truncate {
		return int(origin / w.cellSize)
	}
	return int(math.Floor(origin / w.cellSize))
}

// delta is the ray length between two consecutive grid lines of one axis.
func (w walk) delta(dir float64) float64 {
	if dir == 0 {
		if w.truncate {
			return math.Abs(w.cellSize / tileConventionEpsilon)
		}
		return math.Inf(1)
	}
	return math.Abs(w.cellSize / dir)
}

// firstBoundary is the ray length to the first grid line of one axis. A zero
// direction never reaches one.
func (w walk) firstBoundary(origin, dir float64, cell int) float64 {
	if dir == 0 {
		return math.Inf(1)
	}
	next := cell
	if dir > 0 {
		next++
	}
	return (float64(next)*w.cellSize - origin) / dir
}

// gridLine is the coordinate of the grid line a ray crossed to enter cell.
func (w walk) gridLine(cell int, dir float64) float64 {
	if dir > 0 {
		return float64(cell) * w.cellSize
	}
	return float64(cell+1) * w.cellSize
}

// CastColumn walks one column's ray across the grid and returns the nearest
// opaque wall, or nil when the ray leaves the map, meets a negative tile or
// runs out of depth. The inputs must already have passed Validate.
func CastColumn(pose Pose, cfg CastConfig, scene Scene, column int) *RayHit {
	rayAngle := cfg.ColumnAngle(pose, column)
	cosAngle := math.Cos(rayAngle)
	sinAngle := math.Sin(rayAngle)

	w := newWalk(cfg)
	rayX := pose.X / w.scale
	rayY := pose.Z / w.scale
	cellX := w.cell(rayX)
	cellY := w.cell(rayY)

	stepX, stepY := -1, -1
	if cosAngle > 0 {
		stepX = 1
	}
	if sinAngle > 0 {
		stepY = 1
	}

	distToNextX := w.firstBoundary(rayX, cosAngle, cellX)
	distToNextY := w.firstBoundary(rayY, sinAngle, cellY)
	deltaDistX := w.delta(cosAngle)
	deltaDistY := w.delta(sinAngle)

	grid := scene.Grid
	floorTextureKey := scene.FloorTextures.Fallback()
	var floorX, floorY float64
	var side HitSide
	var layers []RayHit
	distance := 0.0

	for steps := 0; steps < w.maxSteps && distance < w.maxDistance; steps++ {
		if distToNextX < distToNextY {
			distance = distToNextX
			cellX += stepX
			distToNextX += deltaDistX
			side = SideY
		} else {
			distance = distToNextY
			cellY += stepY
			distToNextY += deltaDistY
			side = SideX
		}

		tile, ok := grid.TileAt(cellX, cellY)
		if !ok || tile < 0 {
			return nil
		}

		if tile == 0 {
			floorTextureKey = scene.FloorTextures.Lookup(grid.FloorAt(cellX, cellY))
			floorX = rayX + distance*cosAngle
			floorY = rayY + distance*sinAngle
			continue
		}

		// A ray that starts on a grid line crosses it at -0.
		distance = math.Abs(distance)
		hit := RayHit{
			Column:          column,
			WallType:        WallType,
			TileID:          tile,
			TextureKey:      scene.WallTextures.Lookup(tile),
			FloorTextureKey: floorTextureKey,
			Side:            side,
		}
		hit.RayDistance = distance * w.scale
		hit.Distance = distance * cfg.InverseSqrt(1+sq(rayAngle-pose.Angle)) * w.scale

		hit.HitX = (rayX + distance*cosAngle) * w.scale
		hit.HitY = (rayY + distance*sinAngle) * w.scale
		// Snap the crossed coordinate onto its grid line so the silhouette
		// edge carries no floating point drift.
		if side == SideY {
			hit.HitX = w.gridLine(cellX, cosAngle) * w.scale
		} else {
			hit.HitY = w.gridLine(cellY, sinAngle) * w.scale
		}
		hit.FloorX = floorX * w.scale
		hit.FloorY = floorY * w.scale

		if scene.Transparent[hit.TextureKey] {
			layers = append(layers, hit)
			continue
		}
		hit.Layers = layers
		return &hit
	}
	return nil
}

// CastRange casts columns [start, end) after validating the whole frame. On
// error no columns are returned.
func CastRange(pose Pose, cfg CastConfig, scene Scene, start, end int) ([]*RayHit, error) {
	if err := Validate(pose, cfg, scene); err != nil {
		return nil, err
	}
	if err := CheckRange(cfg, start, end); err != nil {
		return nil, err
	}
	hits := make([]*RayHit, end-start)
	for i := range hits {
		hits[i] = CastColumn(pose, cfg, scene, start+i)
	}
	return hits, nil
}

// CastFrame casts every column of the frame. The result always has
// cfg.RayCount entries; nil entries are columns without a hit.
func CastFrame(pose Pose, cfg CastConfig, scene Scene) ([]*RayHit, error) {
	return CastRange(pose, cfg, scene, 0, cfg.RayCount)
}

// CheckRange validates a column range against the configured ray count.
func CheckRange(cfg CastConfig, start, end int) error {
	if start < 0 || end > cfg.RayCount || start > end {
		return fmt.Errorf("%w: column range [%d, %d) outside [0, %d)", ErrInvalidConfig, start, end, cfg.RayCount)
	}
	return nil
}

func sq(v float64) float64 {
	return v * v
}
