package projection

import (
	"math"

	"heavensgate/internal/mathutil"
	"heavensgate/internal/raycast"
)

// AngleTable holds every column's ray angle with its cosine and sine. It is
// built once per frame and only read afterwards.
type AngleTable struct {
	Angles []float64
	Cos    []float64
	Sin    []float64
}

// NewAngleTable precomputes the per-column trigonometry for a frame using the
// same angle formula as the caster.
func NewAngleTable(pose raycast.Pose, cfg raycast.CastConfig) AngleTable {
	n := cfg.RayCount
	if n < 0 {
		n = 0
	}
	t := AngleTable{
		Angles: make([]float64, n),
		Cos:    make([]float64, n),
		Sin:    make([]float64, n),
	}
	for col := 0; col < n; col++ {
		a := cfg.ColumnAngle(pose, col)
		t.Angles[col] = a
		t.Cos[col] = math.Cos(a)
		t.Sin[col] = math.Sin(a)
	}
	return t
}

// Len returns the number of columns in the table.
func (t AngleTable) Len() int {
	return len(t.Angles)
}

// ProjectionPlaneDistance is the distance from the eye to a screen plane that
// is canvasWidth pixels wide across the field of view.
func ProjectionPlaneDistance(cfg raycast.CastConfig, fov float64) float64 {
	return (float64(cfg.CanvasWidth) / 2) / math.Tan(fov/2)
}

// FloorSample is one sampled screen row below a wall.
type FloorSample struct {
	Row  int
	TexU float64
	TexV float64
}

// FloorColumn is the floor below one column's wall, top row first.
type FloorColumn struct {
	Column     int
	TextureKey string
	Samples    []FloorSample
}

// ProjectFloor samples the floor between a hit's wall bottom and the bottom of
// the screen every cfg.RowStride() pixels. It returns nil for an absent hit, a
// hit without a floor texture, or a wall that reaches the bottom edge.
func ProjectFloor(hit *raycast.RayHit, pose raycast.Pose, cfg raycast.CastConfig, angles AngleTable) *FloorColumn {
	if hit == nil || hit.FloorTextureKey == "" {
		return nil
	}
	if hit.Column < 0 || hit.Column >= angles.Len() {
		return nil
	}

	canvasHeight := float64(cfg.CanvasHeight)
	halfHeight := canvasHeight / 2
	halfTile := cfg.TileSize / 2
	planeDist := ProjectionPlaneDistance(cfg, pose.FOV)
	stride := cfg.RowStride()

	wall := ProjectWall(hit, cfg)
	yStart := cfg.CanvasHeight
	if wall.Bottom < canvasHeight {
		yStart = int(math.Floor(wall.Bottom))
	}
	count := (cfg.CanvasHeight - yStart) / stride
	if count <= 0 {
		return nil
	}

	cosA := angles.Cos[hit.Column]
	sinA := angles.Sin[hit.Column]
	rowDistance := func(y int) float64 {
		return halfTile / ((float64(y) - halfHeight) / planeDist)
	}

	samples := make([]FloorSample, 0, count)
	var floorX, floorY, prev float64
	seeded := false
	for i := 0; i < count; i++ {
		y := yStart + i*stride
		// Rows on or above the horizon never meet the floor.
		if float64(y) <= halfHeight {
			continue
		}
		dist := rowDistance(y)
		switch {
		case !seeded || cfg.DirectFloorRows:
			floorX = pose.X + dist*cosA
			floorY = pose.Z + dist*sinA
			seeded = true
		default:
			dr := dist - prev
			floorX += dr * cosA
			floorY += dr * sinA
		}
		prev = dist

		samples = append(samples, FloorSample{
			Row:  y,
			TexU: mathutil.WrapUnit(floorX, cfg.TileSize),
			TexV: mathutil.WrapUnit(floorY, cfg.TileSize),
		})
	}
	if len(samples) == 0 {
		return nil
	}

	return &FloorColumn{
		Column:     hit.Column,
		TextureKey: hit.FloorTextureKey,
		Samples:    samples,
	}
}
