// Package raycast finds, for every screen column, the first wall a ray from
// the player meets on the tile grid.
package raycast

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"heavensgate/internal/mathutil"
	"heavensgate/internal/world"
)

var (
	// ErrInvalidPose is returned for non-finite positions or angles and for a
	// field of view outside (0, pi).
	ErrInvalidPose = errors.New("invalid pose")
	// ErrInvalidConfig is returned for non-positive sizes and counts.
	ErrInvalidConfig = errors.New("invalid cast config")
)

// WallType is reported for every opaque or transparent wall hit.
const WallType = "wall"

// DefaultFloorRowStride is the pixel distance between floor samples.
const DefaultFloorRowStride = 2

// HitSide names the grid line orientation a ray crossed. Crossing a vertical
// line (the X cell index changed) is side "y"; crossing a horizontal line is
// side "x".
type HitSide byte

const (
	SideX HitSide = 'x'
	SideY HitSide = 'y'
)

func (s HitSide) String() string {
	return string(rune(s))
}

// Convention selects the coordinate space the grid walk runs in.
type Convention int

const (
	// ConventionWorld walks in world units: cells are found with floor and a
	// ray gets 2*MaxDepth steps.
	ConventionWorld Convention = iota
	// ConventionTile divides positions by the tile size first: cells are found
	// by truncation and a ray gets MaxDepth steps. Results are scaled back.
	ConventionTile
)

func (c Convention) String() string {
	switch c {
	case ConventionWorld:
		return "world"
	case ConventionTile:
		return "tile"
	default:
		return fmt.Sprintf("convention(%d)", int(c))
	}
}

// ParseConvention accepts "world" (or "") and "tile".
func ParseConvention(s string) (Convention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "world":
		return ConventionWorld, nil
	case "tile":
		return ConventionTile, nil
	}
	return 0, fmt.Errorf("%w: unknown convention %q", ErrInvalidConfig, s)
}

// SqrtMode selects the routine behind the fisheye correction factor.
type SqrtMode int

const (
	// SqrtLegacy uses the 32-bit bit hack for ConventionWorld and the 64-bit
	// one for ConventionTile.
	SqrtLegacy SqrtMode = iota
	SqrtFast32
	SqrtFast64
	// SqrtExact replaces the approximation with math.Sqrt. Output differs
	// slightly from the legacy renderer.
	SqrtExact
)

func (m SqrtMode) String() string {
	switch m {
	case SqrtLegacy:
		return "legacy"
	case SqrtFast32:
		return "fast32"
	case SqrtFast64:
		return "fast64"
	case SqrtExact:
		return "exact"
	default:
		return fmt.Sprintf("sqrtmode(%d)", int(m))
	}
}

// ParseSqrtMode accepts "legacy" (or ""), "fast32", "fast64" and "exact".
func ParseSqrtMode(s string) (SqrtMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "legacy":
		return SqrtLegacy, nil
	case "fast32":
		return SqrtFast32, nil
	case "fast64":
		return SqrtFast64, nil
	case "exact":
		return SqrtExact, nil
	}
	return 0, fmt.Errorf("%w: unknown inverse sqrt mode %q", ErrInvalidConfig, s)
}

// Pose is the player's position in world units, heading and field of view in
// radians.
type Pose struct {
	X     float64
	Z     float64
	Angle float64
	FOV   float64
}

// CastConfig is fixed for a whole frame and passed by value into every cast.
type CastConfig struct {
	TileSize     float64
	RayCount     int
	MaxDepth     int // in tiles
	CanvasWidth  int
	CanvasHeight int
	Convention   Convention
	InvSqrt      SqrtMode
	// FloorRowStride is the pixel distance between floor samples; 0 means
	// DefaultFloorRowStride.
	FloorRowStride int
	// DirectFloorRows recomputes every floor row from scratch instead of
	// using the incremental recurrence.
	DirectFloorRows bool
}

// RowStride returns the effective floor sample stride.
func (c CastConfig) RowStride() int {
	if c.FloorRowStride <= 0 {
		return DefaultFloorRowStride
	}
	return c.FloorRowStride
}

// InverseSqrt is the single entry point for 1/sqrt(x) used by the fisheye
// correction.
func (c CastConfig) InverseSqrt(x float64) float64 {
	mode := c.InvSqrt
	if mode == SqrtLegacy {
		mode = SqrtFast32
		if c.Convention == ConventionTile {
			mode = SqrtFast64
		}
	}
	switch mode {
	case SqrtFast32:
		return float64(mathutil.FastInvSqrt32(float32(x)))
	case SqrtExact:
		return mathutil.ExactInvSqrt(x)
	default:
		return mathutil.FastInvSqrt64(x)
	}
}

// ColumnAngle interpolates the ray angle of a column linearly across the
// field of view: column 0 is the left edge.
func (c CastConfig) ColumnAngle(pose Pose, column int) float64 {
	return pose.Angle + (-pose.FOV/2 + (float64(column)/float64(c.RayCount))*pose.FOV)
}

// Scene is everything a cast reads besides the pose and config. It must not be
// mutated while any cast is in flight.
type Scene struct {
	Grid          *world.Grid
	WallTextures  world.TextureTable
	FloorTextures world.TextureTable
	// Transparent lists wall texture keys rays pass through.
	Transparent map[string]bool
}

// RayHit is the nearest opaque wall found for one column.
type RayHit struct {
	Column int
	// Distance is the fisheye-corrected (camera plane) distance in world units.
	Distance float64
	// RayDistance is the radial distance travelled along the ray.
	RayDistance float64
	HitX        float64
	HitY        float64
	Side        HitSide
	WallType    string
	TileID      int
	TextureKey  string
	// FloorTextureKey belongs to the last empty cell crossed, or the floor
	// table's fallback when none was crossed.
	FloorTextureKey string
	FloorX          float64
	FloorY          float64
	// Layers holds the transparent walls crossed before this hit, nearest
	// first.
	Layers []RayHit
}

// Validate rejects a frame before any column is cast.
func Validate(pose Pose, cfg CastConfig, scene Scene) error {
	fields := [...]struct {
		name string
		v    float64
	}{{"x", pose.X}, {"z", pose.Z}, {"angle", pose.Angle}, {"fov", pose.FOV}}
	for _, f := range fields {
		if !mathutil.IsFinite(f.v) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidPose, f.name, f.v)
		}
	}
	if !(pose.FOV > 0 && pose.FOV < math.Pi) {
		return fmt.Errorf("%w: fov must be in (0, pi), got %v", ErrInvalidPose, pose.FOV)
	}

	switch {
	case !(cfg.TileSize > 0) || math.IsInf(cfg.TileSize, 0):
		return fmt.Errorf("%w: tile size must be positive, got %v", ErrInvalidConfig, cfg.TileSize)
	case cfg.RayCount <= 0:
		return fmt.Errorf("%w: ray count must be positive, got %d", ErrInvalidConfig, cfg.RayCount)
	case cfg.MaxDepth <= 0:
		return fmt.Errorf("%w: max depth must be positive, got %d", ErrInvalidConfig, cfg.MaxDepth)
	case cfg.CanvasWidth <= 0 || cfg.CanvasHeight <= 0:
		return fmt.Errorf("%w: canvas must be positive, got %dx%d", ErrInvalidConfig, cfg.CanvasWidth, cfg.CanvasHeight)
	case cfg.Convention != ConventionWorld && cfg.Convention != ConventionTile:
		return fmt.Errorf("%w: unknown convention %d", ErrInvalidConfig, cfg.Convention)
	case cfg.InvSqrt < SqrtLegacy || cfg.InvSqrt > SqrtExact:
		return fmt.Errorf("%w: unknown inverse sqrt mode %d", ErrInvalidConfig, cfg.InvSqrt)
	}

	if err := scene.Grid.Validate(); err != nil {
		return err
	}
	return nil
}
