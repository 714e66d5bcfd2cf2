package preview

import (
	"image/color"

	"heavensgate/internal/mathutil"
)

var defaultColor = [3]int{128, 128, 128}

// Palette colors texture keys for the preview tools. Textures are procedural:
// a base color from the tile registry with a darker mortar grid on top.
type Palette struct {
	colors map[string][3]int
}

// NewPalette builds a palette from texture key colors, usually
// TileManager.TextureColors.
func NewPalette(colors map[string][3]int) *Palette {
	p := &Palette{colors: make(map[string][3]int, len(colors))}
	for k, v := range colors {
		p.colors[k] = v
	}
	return p
}

// Base returns the unshaded color of a texture key
func (p *Palette) Base(key string) color.RGBA {
	rgb, ok := p.colors[key]
	if !ok {
		rgb = defaultColor
	}
	return color.RGBA{uint8(mathutil.IntClamp(rgb[0], 0, 255)), uint8(mathutil.IntClamp(rgb[1], 0, 255)), uint8(mathutil.IntClamp(rgb[2], 0, 255)), 255}
}

// Texel samples a texture at (u, v) in [0,1]^2 and darkens it by shade.
func (p *Palette) Texel(key string, u, v, shade float64) color.RGBA {
	c := p.Base(key)
	factor := mathutil.Clamp01(shade)
	if onMortar(u) || onMortar(v) {
		factor *= 0.6
	}
	return scale(c, factor)
}

// Shaded darkens the base color of key by shade
func (p *Palette) Shaded(key string, shade float64) color.RGBA {
	return scale(p.Base(key), mathutil.Clamp01(shade))
}

// onMortar marks the outer sixteenth of a tile on each edge
func onMortar(t float64) bool {
	return t < 1.0/16 || t > 15.0/16
}

func scale(c color.RGBA, f float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * f),
		G: uint8(float64(c.G) * f),
		B: uint8(float64(c.B) * f),
		A: c.A,
	}
}
