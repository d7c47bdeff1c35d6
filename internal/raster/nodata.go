package raster

import "math"

// Mask is a per-sample boolean layer co-registered with a Grid.
type Mask []bool

// NewMask returns an all-true mask of n samples.
func NewMask(n int) Mask {
	m := make(Mask, n)
	for i := range m {
		m[i] = true
	}
	return m
}

// ValidMask marks samples of g that differ from noData. A NaN noData marks
// NaN samples invalid.
func ValidMask(g *Grid, noData float64) Mask {
	m := make(Mask, len(g.Data))
	for i, v := range g.Data {
		m[i] = !IsNoData(v, noData)
	}
	return m
}

// And returns the element-wise conjunction of m and the other masks.
func (m Mask) And(others ...Mask) Mask {
	out := make(Mask, len(m))
	copy(out, m)
	for _, o := range others {
		for i := range out {
			out[i] = out[i] && o[i]
		}
	}
	return out
}

// Count returns the number of true samples.
func (m Mask) Count() int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

// IsNoData reports whether v equals the sentinel; NaN sentinels match NaN.
func IsNoData(v, noData float64) bool {
	if math.IsNaN(noData) {
		return math.IsNaN(v)
	}
	return v == noData
}

// ValidMean returns the mean of the samples of g that are not noData. When no
// sample is valid the sentinel itself is returned.
func ValidMean(g *Grid, noData float64) float64 {
	var sum float64
	n := 0
	for _, v := range g.Data {
		if IsNoData(v, noData) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return noData
	}
	return sum / float64(n)
}

// ApplyMask returns a copy of g with noData wherever m is false.
func ApplyMask(g *Grid, m Mask, noData float64) *Grid {
	out := g.Clone()
	for i := range out.Data {
		if !m[i] {
			out.Data[i] = noData
		}
	}
	return out
}
