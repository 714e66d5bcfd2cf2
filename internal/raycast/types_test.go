package raycast

import (
	"errors"
	"math"
	"testing"

	"heavensgate/internal/mathutil"
	"heavensgate/internal/world"
)

func TestParseConvention(t *testing.T) {
	for in, want := range map[string]Convention{"": ConventionWorld, "world": ConventionWorld, " Tile ": ConventionTile} {
		got, err := ParseConvention(in)
		if err != nil || got != want {
			t.Errorf("ParseConvention(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseConvention("screen"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("unknown convention should be ErrInvalidConfig, got %v", err)
	}
}

func TestParseSqrtMode(t *testing.T) {
	for _, mode := range []SqrtMode{SqrtLegacy, SqrtFast32, SqrtFast64, SqrtExact} {
		got, err := ParseSqrtMode(mode.String())
		if err != nil || got != mode {
			t.Errorf("ParseSqrtMode(%q) = %v, %v", mode.String(), got, err)
		}
	}
	if _, err := ParseSqrtMode("newton"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("unknown mode should be ErrInvalidConfig, got %v", err)
	}
}

func TestInverseSqrtModes(t *testing.T) {
	x := 1.25
	cfg := CastConfig{Convention: ConventionWorld}
	if got, want := cfg.InverseSqrt(x), float64(mathutil.FastInvSqrt32(float32(x))); got != want {
		t.Errorf("legacy world = %v, want 32-bit %v", got, want)
	}
	cfg.Convention = ConventionTile
	if got, want := cfg.InverseSqrt(x), mathutil.FastInvSqrt64(x); got != want {
		t.Errorf("legacy tile = %v, want 64-bit %v", got, want)
	}
	cfg.InvSqrt = SqrtExact
	if got, want := cfg.InverseSqrt(x), 1/math.Sqrt(x); got != want {
		t.Errorf("exact = %v, want %v", got, want)
	}
}

func TestColumnAngleSpansFieldOfView(t *testing.T) {
	cfg := CastConfig{RayCount: 4}
	pose := Pose{Angle: 1, FOV: 0.8}
	if got := cfg.ColumnAngle(pose, 0); got != 0.6 {
		t.Errorf("column 0 = %v, want left edge 0.6", got)
	}
	if got := cfg.ColumnAngle(pose, 2); got != 1 {
		t.Errorf("column 2 = %v, want heading", got)
	}
	if got := cfg.ColumnAngle(pose, 3); got >= 1.4 {
		t.Errorf("last column %v must stay left of the right edge", got)
	}
}

func TestRowStrideDefault(t *testing.T) {
	if got := (CastConfig{}).RowStride(); got != DefaultFloorRowStride {
		t.Errorf("RowStride() = %d", got)
	}
	if got := (CastConfig{FloorRowStride: 5}).RowStride(); got != 5 {
		t.Errorf("RowStride() = %d", got)
	}
}

func TestValidate(t *testing.T) {
	grid, _ := world.NewGrid(ring())
	scene := Scene{Grid: grid}
	pose := Pose{X: 96, Z: 96, FOV: 1}
	cfg := testConfig(ConventionWorld, 10)

	if err := Validate(pose, cfg, scene); err != nil {
		t.Fatalf("valid frame rejected: %v", err)
	}

	poses := map[string]Pose{
		"nan x":     {X: math.NaN(), Z: 96, FOV: 1},
		"inf angle": {X: 96, Z: 96, Angle: math.Inf(1), FOV: 1},
		"zero fov":  {X: 96, Z: 96},
		"wide fov":  {X: 96, Z: 96, FOV: math.Pi},
	}
	for name, p := range poses {
		if err := Validate(p, cfg, scene); !errors.Is(err, ErrInvalidPose) {
			t.Errorf("%s: expected ErrInvalidPose, got %v", name, err)
		}
	}

	configs := map[string]func(*CastConfig){
		"zero tile":      func(c *CastConfig) { c.TileSize = 0 },
		"inf tile":       func(c *CastConfig) { c.TileSize = math.Inf(1) },
		"no rays":        func(c *CastConfig) { c.RayCount = 0 },
		"no depth":       func(c *CastConfig) { c.MaxDepth = -1 },
		"no canvas":      func(c *CastConfig) { c.CanvasHeight = 0 },
		"bad convention": func(c *CastConfig) { c.Convention = 7 },
		"bad sqrt":       func(c *CastConfig) { c.InvSqrt = 9 },
	}
	for name, mutate := range configs {
		c := cfg
		mutate(&c)
		if err := Validate(pose, c, scene); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}

	if err := Validate(pose, cfg, Scene{}); !errors.Is(err, world.ErrInvalidMap) {
		t.Errorf("missing grid: expected ErrInvalidMap, got %v", err)
	}
	ragged := &world.Grid{Width: 3, Height: 2, Tiles: [][]int{{1, 1, 1}, {1, 1}}}
	if err := Validate(pose, cfg, Scene{Grid: ragged}); !errors.Is(err, world.ErrInvalidMap) {
		t.Errorf("ragged grid: expected ErrInvalidMap, got %v", err)
	}
}
