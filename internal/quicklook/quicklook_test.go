package quicklook

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/indicator.report/internal/raster"
)

func TestSummarize(t *testing.T) {
	nan := math.NaN()
	grid := raster.MustFromRows([][]float64{
		{1, 2, nan, 9999},
		{3, 4, math.Inf(1), 9999},
	})

	s := Summarize(grid, 9999, 4)
	assert.Equal(t, 8, s.Total)
	assert.Equal(t, 4, s.Valid)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), s.StdDev, 1e-12)
	assert.Equal(t, 0.5, s.ValidFraction())
	require.Len(t, s.Edges, 5)
	assert.Equal(t, []float64{1, 1, 1, 1}, s.Counts)
}

func TestSummarize_Constant(t *testing.T) {
	s := Summarize(raster.NewFilledGrid(2, 2, 3), math.NaN(), 0)
	assert.Equal(t, 4, s.Valid)
	require.Len(t, s.Counts, DefaultBins)
	assert.Equal(t, 4.0, s.Counts[0])
	assert.Equal(t, 3.0, s.Edges[0])
	assert.InDelta(t, 4.0, s.Edges[DefaultBins], 1e-12)
}

func TestSummarize_NoValid(t *testing.T) {
	s := Summarize(raster.NewFilledGrid(2, 2, math.NaN()), math.NaN(), 4)
	want := Summary{Total: 4, Min: math.NaN(), Max: math.NaN(), Mean: math.NaN(), StdDev: math.NaN()}
	if diff := cmp.Diff(want, s, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0.0, s.ValidFraction())
	assert.Equal(t, 0.0, Summary{}.ValidFraction())
}

func TestGridXYZ(t *testing.T) {
	grid := raster.MustFromRows([][]float64{
		{1, 2, 3},
		{4, -1, 6},
	})
	xyz := newGridXYZ(grid, -1)

	c, r := xyz.Dims()
	assert.Equal(t, 3, c)
	assert.Equal(t, 2, r)
	assert.Equal(t, 1.0, xyz.Min())
	assert.Equal(t, 6.0, xyz.Max())
	// Heat map rows count upwards; grid row 0 is the top row.
	assert.Equal(t, 1.0, xyz.Z(0, 1))
	assert.Equal(t, 4.0, xyz.Z(0, 0))
	assert.True(t, math.IsNaN(xyz.Z(1, 0)))
	assert.Equal(t, 2.0, xyz.X(2))
	assert.Equal(t, 1.0, xyz.Y(1))
}

func TestGridXYZ_Range(t *testing.T) {
	allMissing := newGridXYZ(raster.NewFilledGrid(2, 2, math.NaN()), math.NaN())
	assert.Equal(t, 0.0, allMissing.Min())
	assert.Equal(t, 1.0, allMissing.Max())

	constant := newGridXYZ(raster.NewFilledGrid(2, 2, 5), math.NaN())
	assert.Equal(t, 5.0, constant.Min())
	assert.Equal(t, 6.0, constant.Max())
}

func TestWritePNG(t *testing.T) {
	grid := raster.NewGrid(10, 12)
	for i := range grid.Data {
		grid.Data[i] = float64(i % 7)
	}
	grid.Set(3, 3, math.NaN())

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, "GeoCBI", grid, math.NaN()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")))
}

func TestWritePNG_AllNoData(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, "fdiv", raster.NewFilledGrid(4, 4, math.NaN()), math.NaN()))
	assert.NotZero(t, buf.Len())
}

func TestWritePNG_Empty(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WritePNG(&buf, "cvh", raster.NewGrid(0, 0), math.NaN()))
	assert.Error(t, WritePNG(&buf, "cvh", nil, math.NaN()))
}

func TestReportRender(t *testing.T) {
	started := time.Date(2018, 7, 2, 10, 0, 0, 0, time.UTC)
	grid := raster.MustFromRows([][]float64{{0.5, 1.5}, {math.NaN(), 2.5}})
	r := Report{
		RunID:     "6f1c1f9e-1b7e-4d55-9d0c-1f9c2b8b6a10",
		Processor: "FunctionalDiversityMetrics",
		Started:   started,
		Finished:  started.Add(1500 * time.Millisecond),
		Outputs: []Output{
			{Indicator: "cvh", Path: "out/cvh_2018-07-01.tif", Summary: Summarize(grid, math.NaN(), 4)},
			{Indicator: "fdiv", Path: "out/fdiv_2018-07-01.tif", Summary: Summarize(raster.NewFilledGrid(2, 2, math.NaN()), math.NaN(), 4)},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf))
	html := buf.String()
	assert.True(t, strings.Contains(html, "FunctionalDiversityMetrics run 6f1c1f9e-1b7e-4d55-9d0c-1f9c2b8b6a10"))
	assert.Contains(t, html, "out/cvh_2018-07-01.tif valid=3/4")
	assert.Contains(t, html, "out/fdiv_2018-07-01.tif valid=0/4")
	assert.Contains(t, html, "took=1.5s")
}
