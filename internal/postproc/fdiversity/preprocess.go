package fdiversity

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/indicator.report/internal/raster"
)

// standardizeTrait returns a copy of g with zero samples replaced by NaN and
// the remaining samples shifted to zero mean and unit population variance.
// A constant trait keeps unit scale.
func standardizeTrait(g *raster.Grid) *raster.Grid {
	out := g.Clone()
	valid := make([]float64, 0, len(out.Data))
	for i, v := range out.Data {
		if v == 0 {
			out.Data[i] = math.NaN()
			continue
		}
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return out
	}
	mean, std := stat.PopMeanStdDev(valid, nil)
	if std == 0 {
		std = 1
	}
	for i, v := range out.Data {
		if !math.IsNaN(v) {
			out.Data[i] = (v - mean) / std
		}
	}
	return out
}

// standardizeColumns standardizes each dimension of samples over the samples.
func standardizeColumns(samples [][]float64) [][]float64 {
	if len(samples) == 0 {
		return nil
	}
	dims := len(samples[0])
	out := make([][]float64, len(samples))
	for i := range out {
		out[i] = make([]float64, dims)
	}
	col := make([]float64, len(samples))
	for d := 0; d < dims; d++ {
		for i, s := range samples {
			col[i] = s[d]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		for i, s := range samples {
			out[i][d] = (s[d] - mean) / std
		}
	}
	return out
}
