package quicklook

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/indicator.report/internal/raster"
)

// DefaultBins is the number of histogram bins in a Summary.
const DefaultBins = 20

// Summary describes the valid samples of an indicator raster.
type Summary struct {
	Total  int       `json:"total"`
	Valid  int       `json:"valid"`
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
	Mean   float64   `json:"mean"`
	StdDev float64   `json:"std_dev"`
	Edges  []float64 `json:"edges,omitempty"`
	Counts []float64 `json:"counts,omitempty"`
}

// ValidFraction returns the share of valid samples, 0 for an empty grid.
func (s Summary) ValidFraction() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Valid) / float64(s.Total)
}

// Summarize computes statistics and a histogram with bins equal-width bins
// over the samples of grid that are finite and differ from noData.
func Summarize(grid *raster.Grid, noData float64, bins int) Summary {
	s := Summary{Total: grid.Len(), Min: math.NaN(), Max: math.NaN(), Mean: math.NaN(), StdDev: math.NaN()}
	valid := make([]float64, 0, grid.Len())
	for _, v := range grid.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) || raster.IsNoData(v, noData) {
			continue
		}
		valid = append(valid, v)
	}
	s.Valid = len(valid)
	if s.Valid == 0 {
		return s
	}
	slices.Sort(valid)
	s.Min, s.Max = valid[0], valid[len(valid)-1]
	s.Mean, s.StdDev = stat.PopMeanStdDev(valid, nil)

	if bins < 1 {
		bins = DefaultBins
	}
	// The top edge must lie strictly above the largest sample.
	hi := math.Nextafter(s.Max, math.Inf(1))
	if s.Min == s.Max {
		hi = s.Min + 1
	}
	s.Edges = floats.Span(make([]float64, bins+1), s.Min, hi)
	s.Counts = stat.Histogram(nil, s.Edges, valid, nil)
	return s
}
