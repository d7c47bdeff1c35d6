// Package raster holds the in-memory raster model shared by the post
// processors and the pipeline: a dense row-major grid of float64 samples and
// the georeferencing of the destination grid.
package raster

import (
	"fmt"
	"math"
)

// Grid is a 2-D raster of samples stored row-major.
type Grid struct {
	Rows int
	Cols int
	Data []float64
}

// NewGrid allocates a zero-filled rows x cols grid.
func NewGrid(rows, cols int) *Grid {
	return &Grid{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// NewFilledGrid allocates a grid with every sample set to v.
func NewFilledGrid(rows, cols int, v float64) *Grid {
	g := NewGrid(rows, cols)
	g.Fill(v)
	return g
}

// FromRows builds a grid from a slice of equally long rows.
func FromRows(rows [][]float64) (*Grid, error) {
	if len(rows) == 0 {
		return NewGrid(0, 0), nil
	}
	cols := len(rows[0])
	g := NewGrid(len(rows), cols)
	for r, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d", r, len(row), cols)
		}
		copy(g.Data[r*cols:], row)
	}
	return g, nil
}

// MustFromRows is FromRows for literal fixtures; it panics on ragged input.
func MustFromRows(rows [][]float64) *Grid {
	g, err := FromRows(rows)
	if err != nil {
		panic(err)
	}
	return g
}

// Len returns the number of samples.
func (g *Grid) Len() int { return len(g.Data) }

// Index returns the offset of (row, col) in Data.
func (g *Grid) Index(row, col int) int { return row*g.Cols + col }

// At returns the sample at (row, col).
func (g *Grid) At(row, col int) float64 { return g.Data[row*g.Cols+col] }

// Set stores v at (row, col).
func (g *Grid) Set(row, col int, v float64) { g.Data[row*g.Cols+col] = v }

// Fill sets every sample to v.
func (g *Grid) Fill(v float64) {
	for i := range g.Data {
		g.Data[i] = v
	}
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	c := &Grid{Rows: g.Rows, Cols: g.Cols, Data: make([]float64, len(g.Data))}
	copy(c.Data, g.Data)
	return c
}

// SameShape reports whether g and o have identical dimensions.
func (g *Grid) SameShape(o *Grid) bool {
	return o != nil && g.Rows == o.Rows && g.Cols == o.Cols
}

// FillBlock sets v on the half-open block [r0,r1) x [c0,c1), clipped to the
// grid extent.
func (g *Grid) FillBlock(r0, r1, c0, c1 int, v float64) {
	r0, r1 = clip(r0, r1, g.Rows)
	c0, c1 = clip(c0, c1, g.Cols)
	for r := r0; r < r1; r++ {
		row := g.Data[r*g.Cols : (r+1)*g.Cols]
		for c := c0; c < c1; c++ {
			row[c] = v
		}
	}
}

// Block copies the half-open block [r0,r1) x [c0,c1), clipped to the grid
// extent, into a new grid.
func (g *Grid) Block(r0, r1, c0, c1 int) *Grid {
	r0, r1 = clip(r0, r1, g.Rows)
	c0, c1 = clip(c0, c1, g.Cols)
	out := NewGrid(r1-r0, c1-c0)
	for r := r0; r < r1; r++ {
		copy(out.Data[(r-r0)*out.Cols:], g.Data[r*g.Cols+c0:r*g.Cols+c1])
	}
	return out
}

// Float32 converts the samples for writers that store single precision.
func (g *Grid) Float32() []float32 {
	out := make([]float32, len(g.Data))
	for i, v := range g.Data {
		out[i] = float32(v)
	}
	return out
}

// CountFinite returns the number of samples that are neither NaN nor Inf.
func (g *Grid) CountFinite() int {
	n := 0
	for _, v := range g.Data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			n++
		}
	}
	return n
}

func clip(lo, hi, n int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}
