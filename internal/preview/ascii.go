package preview

import (
	"strings"

	"heavensgate/internal/mathutil"
	"heavensgate/internal/projection"
	"heavensgate/internal/raycast"
)

// CellKind says what a text cell shows
type CellKind byte

const (
	CellSky CellKind = iota
	CellWall
	CellGlass
	CellFloor
)

// Cell is one character of a text rendering
type Cell struct {
	Rune       rune
	Kind       CellKind
	TextureKey string
	Shade      float64 // 1 is fully lit, 0 is black
}

// TextFrame is a frame downsampled to a character grid, Cells[row][col].
type TextFrame struct {
	Cols  int
	Rows  int
	Cells [][]Cell
}

var wallRamp = []rune{'█', '▓', '▒', '░'}
var floorRamp = []rune{'#', '=', '-', '.'}

// RenderText downsamples a projected frame onto a cols x rows grid. The frame
// must cover columns [0, cfg.RayCount); canvas pixels are mapped onto cells
// by nearest neighbour.
func RenderText(f *projection.Frame, cfg raycast.CastConfig, cols, rows int) *TextFrame {
	tf := &TextFrame{Cols: cols, Rows: rows, Cells: make([][]Cell, rows)}
	for r := range tf.Cells {
		tf.Cells[r] = make([]Cell, cols)
		for c := range tf.Cells[r] {
			tf.Cells[r][c] = Cell{Rune: ' ', Kind: CellSky}
		}
	}
	if f == nil || cols <= 0 || rows <= 0 || cfg.RayCount <= 0 {
		return tf
	}

	maxDist := float64(cfg.MaxDepth) * cfg.TileSize
	rowHeight := float64(cfg.CanvasHeight) / float64(rows)

	for c := 0; c < cols; c++ {
		ray := mathutil.IntMin(c*cfg.RayCount/cols, len(f.Walls)-1)
		if ray < 0 {
			break
		}
		wall := f.Walls[ray]
		if wall == nil {
			continue
		}
		shade := distanceShade(wall.Distance, maxDist)
		if wall.Side == raycast.SideY {
			shade *= 0.8
		}
		for r := 0; r < rows; r++ {
			y := (float64(r) + 0.5) * rowHeight
			if y >= wall.Top && y < wall.Bottom {
				tf.Cells[r][c] = Cell{Rune: rampRune(wallRamp, shade), Kind: CellWall, TextureKey: wall.TextureKey, Shade: shade}
			}
		}
		if ray < len(f.Layers) {
			for _, glass := range f.Layers[ray] {
				for r := 0; r < rows; r++ {
					y := (float64(r) + 0.5) * rowHeight
					if y >= glass.Top && y < glass.Bottom {
						tf.Cells[r][c] = Cell{Rune: '|', Kind: CellGlass, TextureKey: glass.TextureKey, Shade: distanceShade(glass.Distance, maxDist)}
					}
				}
			}
		}
		if ray < len(f.Floors) && f.Floors[ray] != nil {
			fc := f.Floors[ray]
			for _, s := range fc.Samples {
				r := int(float64(s.Row) / rowHeight)
				if r < 0 || r >= rows || tf.Cells[r][c].Kind != CellSky {
					continue
				}
				// Rows nearer the bottom edge are nearer the camera.
				shade := float64(s.Row-cfg.CanvasHeight/2) / float64(cfg.CanvasHeight/2)
				tf.Cells[r][c] = Cell{Rune: rampRune(floorRamp, shade), Kind: CellFloor, TextureKey: fc.TextureKey, Shade: mathutil.Clamp01(shade)}
			}
		}
	}
	return tf
}

// String joins the rows with newlines
func (tf *TextFrame) String() string {
	var b strings.Builder
	for r, row := range tf.Cells {
		if r > 0 {
			b.WriteByte('\n')
		}
		for _, cell := range row {
			b.WriteRune(cell.Rune)
		}
	}
	return b.String()
}

func distanceShade(dist, maxDist float64) float64 {
	if maxDist <= 0 {
		return 1
	}
	return mathutil.Clamp01(1 - dist/maxDist)
}

// rampRune picks the densest glyph for shade 1 and the sparsest for shade 0
func rampRune(ramp []rune, shade float64) rune {
	i := int((1 - mathutil.Clamp01(shade)) * float64(len(ramp)))
	return ramp[mathutil.IntClamp(i, 0, len(ramp)-1)]
}
