package preview

import (
	"strings"
	"sync"
	"testing"

	"heavensgate/internal/config"
	"heavensgate/internal/projection"
	"heavensgate/internal/raycast"
	"heavensgate/internal/world"
)

func ringGrid(t *testing.T) *world.Grid {
	t.Helper()
	g, err := world.NewGrid([][]int{
		{1, 1, 1, 1},
		{1, 0, 0, 1},
		{1, 0, 0, 1},
		{1, 1, 1, 1},
	})
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	return g
}

func TestNewCameraStartCell(t *testing.T) {
	cfg := config.Default()
	g := ringGrid(t)

	cam := NewCamera(cfg, &world.MapData{Grid: g, StartX: 2, StartY: 1})
	if cam.X != 160 || cam.Z != 96 {
		t.Errorf("camera at (%v, %v), want (160, 96)", cam.X, cam.Z)
	}
	if cam.FOV != cfg.GetCameraFOV() {
		t.Errorf("FOV = %v", cam.FOV)
	}

	cam = NewCamera(cfg, &world.MapData{Grid: g, StartX: -1, StartY: -1})
	if cam.X != 96 || cam.Z != 96 {
		t.Errorf("fallback camera at (%v, %v), want (96, 96)", cam.X, cam.Z)
	}
	if p := cam.Pose(); p.X != cam.X || p.Z != cam.Z || p.FOV != cam.FOV {
		t.Errorf("pose %+v does not match camera", p)
	}
}

func TestCameraMoveBlockedByWalls(t *testing.T) {
	g := ringGrid(t)
	cam := &Camera{X: 96, Z: 96, Angle: 0, FOV: 1}

	if !cam.Move(64, 0, g, 64) {
		t.Fatal("move into an empty cell was refused")
	}
	if cam.X != 160 || cam.Z != 96 {
		t.Errorf("camera at (%v, %v), want (160, 96)", cam.X, cam.Z)
	}
	if cam.Move(64, 0, g, 64) {
		t.Error("move into a wall was allowed")
	}
	if cam.X != 160 {
		t.Errorf("refused move changed X to %v", cam.X)
	}
	// Right of angle 0 is +Z.
	if !cam.Move(0, 64, g, 64) || cam.Z < 159.999 || cam.Z > 160.001 {
		t.Errorf("strafe ended at Z %v", cam.Z)
	}
	if cam.Move(0, 0, nil, 64) {
		t.Error("move without a grid was allowed")
	}
}

func TestCameraRotateWraps(t *testing.T) {
	cam := &Camera{Angle: 0.1}
	cam.Rotate(-0.2)
	if cam.Angle < 6.18 || cam.Angle > 6.19 {
		t.Errorf("angle = %v, want about 2pi-0.1", cam.Angle)
	}
	cam.Rotate(0.2)
	if cam.Angle < 0.0999 || cam.Angle > 0.1001 {
		t.Errorf("angle = %v, want 0.1", cam.Angle)
	}
}

func TestQuantizeStripKey(t *testing.T) {
	cases := []struct {
		in     StripKey
		height int
		texU   float64
	}{
		{StripKey{Height: 0, TexU: 0.99}, 2, 15.0 / 16},
		{StripKey{Height: 33, TexU: 0.5}, 34, 0.5},
		{StripKey{Height: 101, TexU: 0.1}, 100, 1.0 / 16},
		{StripKey{Height: 300, TexU: 1}, 304, 15.0 / 16},
		{StripKey{Height: 5000, TexU: -0.2}, 512, 0},
	}
	for _, tc := range cases {
		got := QuantizeStripKey(tc.in)
		if got.Height != tc.height || got.TexU != tc.texU {
			t.Errorf("QuantizeStripKey(%+v) = %+v, want height %d texU %v", tc.in, got, tc.height, tc.texU)
		}
	}
}

func TestStripCacheReusesAndEvicts(t *testing.T) {
	sc := NewStripCache[int]()
	builds := 0
	create := func(k StripKey) int {
		builds++
		return k.Height
	}

	a := sc.GetOrCreate(StripKey{TextureKey: "wall_brick", Height: 100, TexU: 0.51}, create)
	b := sc.GetOrCreate(StripKey{TextureKey: "wall_brick", Height: 101, TexU: 0.52}, create)
	if a != b || builds != 1 {
		t.Errorf("nearby strips were built %d times (%d, %d)", builds, a, b)
	}

	for h := 0; h < stripCacheMaxSize+10; h++ {
		sc.GetOrCreate(StripKey{TextureKey: "wall_metal", Height: 2 * (h % 31), TexU: float64(h/31) / 32}, create)
	}
	if n := sc.Len(); n > stripCacheMaxSize {
		t.Errorf("cache grew to %d entries", n)
	}

	sc.Clear()
	if sc.Len() != 0 {
		t.Errorf("Clear left %d entries", sc.Len())
	}
}

func TestStripCacheConcurrent(t *testing.T) {
	sc := NewStripCache[string]()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for h := 0; h < 200; h++ {
				sc.GetOrCreate(StripKey{TextureKey: "wall_glass", Height: h, TexU: float64(i) / 16}, func(k StripKey) string {
					return k.TextureKey
				})
			}
		}(i)
	}
	wg.Wait()
	if sc.Len() == 0 || sc.Len() > stripCacheMaxSize {
		t.Errorf("cache holds %d entries", sc.Len())
	}
}

func TestRenderText(t *testing.T) {
	cfg := raycast.CastConfig{TileSize: 64, RayCount: 4, MaxDepth: 30, CanvasWidth: 800, CanvasHeight: 800}
	f := &projection.Frame{
		Walls: []*projection.WallSlice{
			{Column: 0, Distance: 64, Top: 300, Bottom: 500, TextureKey: "wall_brick", Side: raycast.SideX},
			nil,
			{Column: 2, Distance: 640, Top: 350, Bottom: 450, TextureKey: "wall_brick", Side: raycast.SideX},
			{Column: 3, Distance: 64, Top: 300, Bottom: 500, TextureKey: "wall_metal", Side: raycast.SideY},
		},
		Floors: []*projection.FloorColumn{
			{Column: 0, TextureKey: "floor_grass", Samples: []projection.FloorSample{{Row: 650}}},
			nil, nil, nil,
		},
		Layers: [][]projection.WallSlice{nil, nil, {{Distance: 64, Top: 0, Bottom: 800, TextureKey: "wall_glass"}}, nil},
	}

	tf := RenderText(f, cfg, 4, 8)
	if tf.Rows != 8 || tf.Cols != 4 {
		t.Fatalf("grid %dx%d", tf.Cols, tf.Rows)
	}
	if c := tf.Cells[3][0]; c.Kind != CellWall || c.Rune != '█' || c.TextureKey != "wall_brick" {
		t.Errorf("near wall cell = %+v", c)
	}
	if c := tf.Cells[2][0]; c.Kind != CellSky {
		t.Errorf("cell above the wall = %+v", c)
	}
	if c := tf.Cells[6][0]; c.Kind != CellFloor || c.Rune != '=' || c.TextureKey != "floor_grass" {
		t.Errorf("floor cell = %+v", c)
	}
	for r := 0; r < 8; r++ {
		if tf.Cells[r][1].Kind != CellSky {
			t.Errorf("absent column has %+v at row %d", tf.Cells[r][1], r)
		}
		if tf.Cells[r][2].Kind != CellGlass {
			t.Errorf("glass column has %+v at row %d", tf.Cells[r][2], r)
		}
	}
	if tf.Cells[3][3].Shade >= tf.Cells[3][0].Shade {
		t.Error("side y walls should be darker than side x walls")
	}

	lines := strings.Split(tf.String(), "\n")
	if len(lines) != 8 || len([]rune(lines[3])) != 4 {
		t.Errorf("String() = %q", tf.String())
	}
}

func TestRenderTextEmpty(t *testing.T) {
	tf := RenderText(nil, raycast.CastConfig{RayCount: 4}, 3, 2)
	if tf.String() != "   \n   " {
		t.Errorf("empty frame rendered %q", tf.String())
	}
}

func TestPaletteTexel(t *testing.T) {
	p := NewPalette(map[string][3]int{"wall_brick": {200, 100, 50}})
	if c := p.Base("wall_brick"); c.R != 200 || c.G != 100 || c.B != 50 || c.A != 255 {
		t.Errorf("base = %+v", c)
	}
	if c := p.Base("missing"); c.R != 128 {
		t.Errorf("unknown key base = %+v", c)
	}
	inner := p.Texel("wall_brick", 0.5, 0.5, 1)
	edge := p.Texel("wall_brick", 0.01, 0.5, 1)
	if edge.R >= inner.R {
		t.Errorf("mortar texel %+v should be darker than %+v", edge, inner)
	}
	if c := p.Shaded("wall_brick", 0); c.R != 0 || c.A != 255 {
		t.Errorf("fully dark = %+v", c)
	}
}
