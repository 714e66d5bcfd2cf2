package mathutil

import "math"

// Clamp01 limits v to [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// WrapUnit maps a world coordinate to its normalized offset inside a tile of the
// given size. The double modulo keeps the result non-negative for negative input.
func WrapUnit(v, size float64) float64 {
	return Clamp01(math.Mod(math.Mod(v, size)+size, size) / size)
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
