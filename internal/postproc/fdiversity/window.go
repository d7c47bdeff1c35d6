package fdiversity

import (
	"math"

	"github.com/banshee-data/indicator.report/internal/raster"
)

// window is one moving-window position. The loop coordinate (row, col) is
// used as the window centre; the window covers [row-offset, row+offset) on
// each axis, clipped to the raster.
type window struct {
	row, col       int
	r0, r1, c0, c1 int
}

func windows(rows, cols, stride, offset int) []window {
	var out []window
	for row := offset; row < rows; row += stride {
		for col := offset; col < cols; col += stride {
			out = append(out, window{
				row: row,
				col: col,
				r0:  row - offset,
				r1:  min(row+offset, rows),
				c0:  col - offset,
				c1:  min(col+offset, cols),
			})
		}
	}
	return out
}

// samples flattens the window of each trait and returns one point per pixel
// finite in every trait.
func (w window) samples(traits []*raster.Grid) [][]float64 {
	blocks := make([]*raster.Grid, len(traits))
	for t, g := range traits {
		blocks[t] = g.Block(w.r0, w.r1, w.c0, w.c1)
	}
	var out [][]float64
	for i := range blocks[0].Data {
		point := make([]float64, len(blocks))
		ok := true
		for t, b := range blocks {
			v := b.Data[i]
			if math.IsNaN(v) {
				ok = false
				break
			}
			point[t] = v
		}
		if ok {
			out = append(out, point)
		}
	}
	return out
}
