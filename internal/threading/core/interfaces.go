package core

import (
	"heavensgate/internal/mathutil"
)

// ColumnRange is a half-open range of screen columns [Start, End)
type ColumnRange struct {
	Start int
	End   int
}

// Len returns the number of columns in the range
func (r ColumnRange) Len() int {
	return r.End - r.Start
}

// SplitRange cuts [start, end) into contiguous ranges of at most size columns.
func SplitRange(start, end, size int) []ColumnRange {
	if start >= end {
		return nil
	}
	size = mathutil.IntMax(1, size)
	out := make([]ColumnRange, 0, (end-start+size-1)/size)
	for i := start; i < end; i += size {
		out = append(out, ColumnRange{Start: i, End: mathutil.IntMin(i+size, end)})
	}
	return out
}
