package mathutil

import "math"

// Magic constants for the bit-level inverse square root approximation.
const (
	RsqrtMagic32 int32 = 0x5f3759df
	RsqrtMagic64 int64 = 0x5fe6eb50c7b537a9
)

// FastInvSqrt32 approximates 1/sqrt(x) in single precision: the float bits are
// reinterpreted as an integer, shifted and subtracted from the magic constant,
// then refined by exactly one Newton-Raphson step.
//
// The explicit float32 conversions stop the compiler from fusing the
// multiply-adds, so every platform produces the same bits.
func FastInvSqrt32(x float32) float32 {
	x2 := float32(x * 0.5)
	i := int32(math.Float32bits(x))
	i = RsqrtMagic32 - (i >> 1)
	y := math.Float32frombits(uint32(i))
	t := float32(x2 * y)
	t = float32(t * y)
	return float32(y * float32(1.5-t))
}

// FastInvSqrt64 is the double precision variant of FastInvSqrt32.
func FastInvSqrt64(x float64) float64 {
	i := int64(math.Float64bits(x))
	i = RsqrtMagic64 - (i >> 1)
	y := math.Float64frombits(uint64(i))
	t := float64(x * 0.5)
	t = float64(t * y)
	t = float64(t * y)
	return float64(y * float64(1.5-t))
}

// ExactInvSqrt is 1/sqrt(x) from the math library.
func ExactInvSqrt(x float64) float64 {
	return 1 / math.Sqrt(x)
}
