// Package rasterio reads and writes georeferenced rasters through GDAL and
// derives destination grids by warping. The GDAL-backed implementation is
// built with -tags=gdal; without it every operation reports that raster
// support is disabled.
package rasterio

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/indicator.report/internal/raster"
)

// FormatGeoTIFF is the output format name accepted by the writer.
const FormatGeoTIFF = "GeoTiff"

// ErrNotEnabled is returned by every raster operation of a build without
// GDAL support.
var ErrNotEnabled = errors.New("GDAL support not enabled: rebuild with -tags=gdal")

// dummyGeometry is the global one-degree grid warped onto a reprojection to
// find the destination grid of a run.
var dummyGeometry = raster.Geometry{
	Width:        360,
	Height:       90,
	GeoTransform: [6]float64{-180, 1, 0, 90, 0, -1},
	Projection:   "EPSG:4326",
}

// Reader loads the first band of a raster file.
type Reader struct{}

// GeoTIFFWriter writes one single-band Float32 GeoTIFF per grid.
type GeoTIFFWriter struct {
	// Compress is the GeoTIFF COMPRESS creation option; empty or "NONE"
	// writes uncompressed files.
	Compress string
}

func (w GeoTIFFWriter) creationOptions() []string {
	opts := []string{"TILED=YES"}
	if c := strings.ToUpper(strings.TrimSpace(w.Compress)); c != "" && c != "NONE" {
		opts = append(opts, "COMPRESS="+c)
	}
	return opts
}

// targetSwitches returns gdalwarp switches resampling a raster onto geom.
func targetSwitches(geom raster.Geometry) []string {
	minX, minY, maxX, maxY := geom.Bounds()
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []string{
		"-of", "MEM",
		"-t_srs", geom.Projection,
		"-te", f(minX), f(minY), f(maxX), f(maxY),
		"-ts", strconv.Itoa(geom.Width), strconv.Itoa(geom.Height),
		"-r", "near",
	}
}

func checkWritable(path string, geom raster.Geometry, grid *raster.Grid) error {
	if err := geom.Validate(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if grid == nil {
		return fmt.Errorf("write %s: no data", path)
	}
	if !geom.Fits(grid) {
		return fmt.Errorf("write %s: grid is %dx%d, geometry is %dx%d",
			path, grid.Cols, grid.Rows, geom.Width, geom.Height)
	}
	return nil
}
