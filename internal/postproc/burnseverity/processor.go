// Package burnseverity derives a composite burn index from a pre- and a
// post-event observation.
//
// Burned pixels are found by thresholding MIRBI, NBR2 and NIR against their
// scene means and temporal differences. Severity on those pixels is the
// Relativized Burn Ratio rescaled onto the 0-3 GeoCBI scale. Every other
// pixel carries the no-data sentinel of the data type.
package burnseverity

import (
	"fmt"

	"github.com/banshee-data/indicator.report/internal/monitoring"
	"github.com/banshee-data/indicator.report/internal/observations"
	"github.com/banshee-data/indicator.report/internal/postproc"
	"github.com/banshee-data/indicator.report/internal/raster"
)

const (
	// Name identifies the processor in the registry.
	Name = "BurnedSeverity"

	// IndicatorGeoCBI is the single indicator produced.
	IndicatorGeoCBI = "GeoCBI"

	description = "This post processor creates a burned area mask and as a second step " +
		"it determines its severity using RBR."
)

// Burned-mask thresholds on temporal differences.
const (
	minDiffMIRBI = 0.25
	maxDiffNBR2  = -0.05
	maxDiffNIR   = -0.01
)

// Processor computes GeoCBI from two dated observations.
type Processor struct {
	postproc.Base
}

var _ postproc.EODataProcessor = (*Processor)(nil)

// New builds a processor for the requested indicators.
func New(indicatorNames []string) (*Processor, error) {
	base, err := postproc.NewBase(Name, description, postproc.EODataPostProcessor,
		[]string{IndicatorGeoCBI}, indicatorNames, 2)
	if err != nil {
		return nil, err
	}
	return &Processor{Base: base}, nil
}

// SupportedDataTypes lists the EO data types with a known band layout.
func (p *Processor) SupportedDataTypes() []string {
	return []string{observations.DataTypeAWSS2L2}
}

// RequiredBands returns NIR, SMIR and SWIR band names of dataType.
func (p *Processor) RequiredBands(dataType string) []string {
	bs, ok := bandSets[dataType]
	if !ok {
		return nil
	}
	return []string{bs.NIR, bs.SMIR, bs.SWIR}
}

// NoData returns the sentinel of dataType, or 0 when unsupported.
func (p *Processor) NoData(dataType string) float64 {
	return bandSets[dataType].NoData
}

type dateBands struct {
	nir, smir, swir *raster.Grid
}

// ProcessObservations computes the indicators from exactly two observations
// of one supported data type, the first being pre-event.
func (p *Processor) ProcessObservations(obs *observations.Observations) (map[string]*raster.Grid, error) {
	if obs.Len() != 2 {
		monitoring.Opsf("%s: need exactly two observations, got %d", Name, obs.Len())
		return nil, fmt.Errorf("%w: %s needs exactly two observations, got %d",
			postproc.ErrInputShape, Name, obs.Len())
	}
	dataType := obs.DataType(0)
	if other := obs.DataType(1); other != dataType {
		monitoring.Opsf("%s: observations have different data types %s and %s", Name, dataType, other)
		return nil, fmt.Errorf("%w: %s cannot combine data types %s and %s",
			postproc.ErrInputShape, Name, dataType, other)
	}
	bs, ok := bandSets[dataType]
	if !ok {
		return nil, fmt.Errorf("%w: %s does not support data type %s",
			postproc.ErrInputShape, Name, dataType)
	}

	var dates [2]dateBands
	for i := range dates {
		var err error
		if dates[i], err = loadBands(obs, i, bs); err != nil {
			return nil, err
		}
	}
	ref := dates[0].nir
	for _, d := range dates {
		for _, g := range []*raster.Grid{d.nir, d.smir, d.swir} {
			if !ref.SameShape(g) {
				return nil, fmt.Errorf("%w: %s band shapes differ (%dx%d vs %dx%d)",
					postproc.ErrInputShape, Name, ref.Rows, ref.Cols, g.Rows, g.Cols)
			}
		}
	}

	out := make(map[string]*raster.Grid)
	if p.IsActive(IndicatorGeoCBI) {
		out[IndicatorGeoCBI] = geoCBI(dates[0], dates[1], bs)
	}
	return out, nil
}

func loadBands(obs *observations.Observations, i int, bs bandSet) (dateBands, error) {
	var d dateBands
	for _, b := range []struct {
		name string
		dst  **raster.Grid
	}{{bs.NIR, &d.nir}, {bs.SMIR, &d.smir}, {bs.SWIR, &d.swir}} {
		g, err := obs.Band(i, b.name)
		if err != nil {
			return d, fmt.Errorf("%w: %v", postproc.ErrMissingInput, err)
		}
		*b.dst = g
	}
	return d, nil
}

// geoCBI runs the masking chain for pre-event d0 and post-event d1.
func geoCBI(d0, d1 dateBands, bs bandSet) *raster.Grid {
	nd := bs.NoData

	swirMask := raster.ValidMask(d1.swir, nd).And(raster.ValidMask(d0.swir, nd))
	smirMask := raster.ValidMask(d1.smir, nd).And(raster.ValidMask(d0.smir, nd))
	sMask := swirMask.And(smirMask)
	nirMask := raster.ValidMask(d1.nir, nd).And(raster.ValidMask(d0.nir, nd))
	monitoring.Diagf("%s: %d pixel(s) valid in SWIR/SMIR, %d in NIR", Name, sMask.Count(), nirMask.Count())

	mirbi1 := mirbi(d1.smir, d1.swir, sMask, bs)
	mirbi0 := mirbi(d0.smir, d0.swir, sMask, bs)
	diffMIRBI := maskedDifference(mirbi1, mirbi0, sMask, nd)
	meanMIRBI1 := raster.ValidMean(mirbi1, nd)

	// NBR2 of the post-event date is averaged before the pre-event guard
	// narrows the S-mask.
	sMask1 := sMask.And(normalizedDifferenceGuard(d1.smir, d1.swir, bs))
	nbr21 := normalizedDifference(d1.smir, d1.swir, sMask1, bs)
	meanNBR21 := raster.ValidMean(nbr21, nd)
	sMask = sMask1.And(normalizedDifferenceGuard(d0.smir, d0.swir, bs))
	nbr20 := normalizedDifference(d0.smir, d0.swir, sMask, bs)
	diffNBR2 := maskedDifference(nbr21, nbr20, sMask, nd)

	meanNIR1 := raster.ValidMean(d1.nir, nd)
	diffNIR := maskedDifference(d1.nir, d0.nir, nirMask, nd)
	monitoring.Diagf("%s: mean MIRBI %.4f, mean NBR2 %.4f, mean NIR %.1f", Name, meanMIRBI1, meanNBR21, meanNIR1)

	burned := sMask.And(
		nirMask,
		compare(mirbi1, func(v float64) bool { return v > meanMIRBI1 }),
		compare(diffMIRBI, func(v float64) bool { return v > minDiffMIRBI }),
		compare(nbr21, func(v float64) bool { return v < meanNBR21 }),
		compare(diffNBR2, func(v float64) bool { return v < maxDiffNBR2 }),
		compare(d1.nir, func(v float64) bool { return v < meanNIR1 }),
		compare(diffNIR, func(v float64) bool { return v < maxDiffNIR }),
	)
	burned = burned.And(
		normalizedDifferenceGuard(d1.nir, d1.swir, bs),
		normalizedDifferenceGuard(d0.nir, d0.swir, bs),
	)
	monitoring.Diagf("%s: %d pixel(s) flagged burned", Name, burned.Count())

	nbr1 := normalizedDifference(d1.nir, d1.swir, burned, bs)
	nbr0 := normalizedDifference(d0.nir, d0.swir, burned, bs)
	diffNBR := maskedDifference(nbr0, nbr1, burned, nd)

	out := raster.NewFilledGrid(d0.nir.Rows, d0.nir.Cols, nd)
	for i, ok := range burned {
		if !ok {
			continue
		}
		rbr := diffNBR.Data[i] / (nbr0.Data[i] + 1.001)
		out.Data[i] = rescale(rbr)
	}
	return out
}
