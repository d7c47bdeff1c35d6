//go:build !gdal
// +build !gdal

package rasterio

import (
	"context"

	"github.com/banshee-data/indicator.report/internal/raster"
	"github.com/banshee-data/indicator.report/internal/reprojection"
)

// SameReferenceSystem compares definitions literally when GDAL support is
// disabled.
func SameReferenceSystem(a, b reprojection.ReferenceSystem) bool {
	return reprojection.Identical(a, b)
}

// DestinationGeometry is a stub implementation when GDAL support is disabled.
func DestinationGeometry(ctx context.Context, r *reprojection.Reprojection) (raster.Geometry, error) {
	return raster.Geometry{}, ErrNotEnabled
}

// Geometry is a stub implementation when GDAL support is disabled.
func (Reader) Geometry(ctx context.Context, path string) (raster.Geometry, error) {
	return raster.Geometry{}, ErrNotEnabled
}

// Read is a stub implementation when GDAL support is disabled.
func (Reader) Read(ctx context.Context, path string, target raster.Geometry) (*raster.Grid, error) {
	return nil, ErrNotEnabled
}

// Write validates its arguments and reports that GDAL support is disabled.
func (w GeoTIFFWriter) Write(ctx context.Context, path string, geom raster.Geometry, grid *raster.Grid, noData float64) error {
	if err := checkWritable(path, geom, grid); err != nil {
		return err
	}
	return ErrNotEnabled
}
