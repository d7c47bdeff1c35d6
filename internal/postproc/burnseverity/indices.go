package burnseverity

import (
	"github.com/banshee-data/indicator.report/internal/raster"
)

const (
	rbrSlope     = 2.80278
	rbrIntercept = 1.07541
	geoCBIMax    = 3.0

	// rbrClip is the RBR at which the rescaled index reaches geoCBIMax.
	rbrClip = (geoCBIMax - rbrIntercept) / rbrSlope

	// guardFallback replaces the second reflectance where a normalized
	// difference would divide by zero. Guarded samples are masked anyway.
	guardFallback = 0.2
)

// mirbi is 10*SWIR - 9.8*SMIR + 2 on scaled reflectance.
func mirbi(smir, swir *raster.Grid, mask raster.Mask, bs bandSet) *raster.Grid {
	out := raster.NewGrid(smir.Rows, smir.Cols)
	for i := range out.Data {
		if !mask[i] {
			out.Data[i] = bs.NoData
			continue
		}
		s := smir.Data[i] * bs.ScaleFactor
		w := swir.Data[i] * bs.ScaleFactor
		out.Data[i] = 10*w - 9.8*s + 2
	}
	return out
}

// normalizedDifferenceGuard marks samples where (a+b) is non-zero on scaled
// reflectance.
func normalizedDifferenceGuard(a, b *raster.Grid, bs bandSet) raster.Mask {
	m := make(raster.Mask, len(a.Data))
	for i := range m {
		m[i] = a.Data[i]*bs.ScaleFactor+b.Data[i]*bs.ScaleFactor != 0
	}
	return m
}

// normalizedDifference is (a-b)/(a+b) on scaled reflectance, noData outside
// mask. Callers fold the zero-denominator guard into mask.
func normalizedDifference(a, b *raster.Grid, mask raster.Mask, bs bandSet) *raster.Grid {
	out := raster.NewGrid(a.Rows, a.Cols)
	for i := range out.Data {
		if !mask[i] {
			out.Data[i] = bs.NoData
			continue
		}
		x := a.Data[i] * bs.ScaleFactor
		y := b.Data[i] * bs.ScaleFactor
		if x+y == 0 {
			x, y = 0, guardFallback
		}
		out.Data[i] = (x - y) / (x + y)
	}
	return out
}

// maskedDifference is a-b inside mask, noData elsewhere.
func maskedDifference(a, b *raster.Grid, mask raster.Mask, noData float64) *raster.Grid {
	out := raster.NewGrid(a.Rows, a.Cols)
	for i := range out.Data {
		if mask[i] {
			out.Data[i] = a.Data[i] - b.Data[i]
		} else {
			out.Data[i] = noData
		}
	}
	return out
}

// compare returns the mask of samples for which pred holds.
func compare(g *raster.Grid, pred func(float64) bool) raster.Mask {
	m := make(raster.Mask, len(g.Data))
	for i, v := range g.Data {
		m[i] = pred(v)
	}
	return m
}

// rescale maps an RBR value onto the composite burn index scale.
func rescale(rbr float64) float64 {
	if rbr >= rbrClip {
		return geoCBIMax
	}
	v := rbr*rbrSlope + rbrIntercept
	if v > geoCBIMax {
		return geoCBIMax
	}
	return v
}
