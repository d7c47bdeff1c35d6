// Package quicklook renders previews of indicator rasters: PNG heat maps with
// gonum/plot and an HTML run report with go-echarts.
package quicklook

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/indicator.report/internal/raster"
)

// Size of the rendered PNG.
const (
	pngWidth  = 6 * vg.Inch
	pngHeight = 6 * vg.Inch
)

// gridXYZ presents a raster grid to plotter.HeatMap with row 0 at the top.
// No-data samples are reported as NaN.
type gridXYZ struct {
	grid     *raster.Grid
	noData   float64
	min, max float64
}

func newGridXYZ(g *raster.Grid, noData float64) *gridXYZ {
	xyz := &gridXYZ{grid: g, noData: noData, min: math.Inf(1), max: math.Inf(-1)}
	for _, v := range g.Data {
		if xyz.missing(v) {
			continue
		}
		xyz.min = math.Min(xyz.min, v)
		xyz.max = math.Max(xyz.max, v)
	}
	switch {
	case math.IsInf(xyz.min, 1):
		xyz.min, xyz.max = 0, 1
	case xyz.min == xyz.max:
		xyz.max = xyz.min + 1
	}
	return xyz
}

func (g *gridXYZ) missing(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0) || raster.IsNoData(v, g.noData)
}

func (g *gridXYZ) Dims() (c, r int) { return g.grid.Cols, g.grid.Rows }
func (g *gridXYZ) X(c int) float64  { return float64(c) }
func (g *gridXYZ) Y(r int) float64  { return float64(r) }
func (g *gridXYZ) Min() float64     { return g.min }
func (g *gridXYZ) Max() float64     { return g.max }

func (g *gridXYZ) Z(c, r int) float64 {
	v := g.grid.At(g.grid.Rows-1-r, c)
	if g.missing(v) {
		return math.NaN()
	}
	return v
}

// WritePNG renders grid as a heat map titled title and writes the PNG to w.
// Samples equal to noData are left transparent.
func WritePNG(w io.Writer, title string, grid *raster.Grid, noData float64) error {
	if grid == nil || grid.Len() == 0 {
		return fmt.Errorf("quicklook %s: empty grid", title)
	}
	xyz := newGridXYZ(grid, noData)

	heat := plotter.NewHeatMap(xyz, palette.Heat(64, 1))
	heat.NaN = color.Transparent
	heat.Rasterized = true

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Column"
	p.Y.Label.Text = "Row (from bottom)"
	p.Add(heat)

	wt, err := p.WriterTo(pngWidth, pngHeight, "png")
	if err != nil {
		return fmt.Errorf("quicklook %s: %w", title, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("quicklook %s: %w", title, err)
	}
	return nil
}
