//go:build gdal
// +build gdal

package rasterio

import (
	"context"
	"fmt"
	"sync"

	"github.com/airbusgeo/godal"

	"github.com/banshee-data/indicator.report/internal/monitoring"
	"github.com/banshee-data/indicator.report/internal/raster"
	"github.com/banshee-data/indicator.report/internal/reprojection"
)

var registerOnce sync.Once

func register() { registerOnce.Do(godal.RegisterAll) }

// SameReferenceSystem reports whether GDAL considers a and b the same
// coordinate system. Definitions GDAL cannot parse are compared literally.
func SameReferenceSystem(a, b reprojection.ReferenceSystem) bool {
	register()
	sa, err := godal.NewSpatialRef(a.String())
	if err != nil {
		return reprojection.Identical(a, b)
	}
	defer sa.Close()
	sb, err := godal.NewSpatialRef(b.String())
	if err != nil {
		return reprojection.Identical(a, b)
	}
	defer sb.Close()
	return sa.IsSame(sb)
}

// DestinationGeometry warps the global dummy grid with the switches of r and
// returns the resulting grid geometry.
func DestinationGeometry(ctx context.Context, r *reprojection.Reprojection) (raster.Geometry, error) {
	if err := ctx.Err(); err != nil {
		return raster.Geometry{}, err
	}
	register()
	dummy, err := godal.Create(godal.Memory, "", 1, godal.Byte, dummyGeometry.Width, dummyGeometry.Height)
	if err != nil {
		return raster.Geometry{}, fmt.Errorf("create dummy dataset: %w", err)
	}
	defer dummy.Close()
	if err := dummy.SetGeoTransform(dummyGeometry.GeoTransform); err != nil {
		return raster.Geometry{}, fmt.Errorf("set dummy geotransform: %w", err)
	}
	sr, err := godal.NewSpatialRef(dummyGeometry.Projection)
	if err != nil {
		return raster.Geometry{}, fmt.Errorf("dummy reference system: %w", err)
	}
	defer sr.Close()
	if err := dummy.SetSpatialRef(sr); err != nil {
		return raster.Geometry{}, fmt.Errorf("set dummy reference system: %w", err)
	}

	switches := append([]string{"-of", "MEM"}, r.WarpSwitches()...)
	warped, err := dummy.Warp("", switches)
	if err != nil {
		return raster.Geometry{}, fmt.Errorf("warp dummy dataset: %w", err)
	}
	defer warped.Close()
	geom, err := geometryOf(warped)
	if err != nil {
		return raster.Geometry{}, err
	}
	monitoring.Diagf("destination grid %dx%d in %s", geom.Width, geom.Height, r.Destination)
	return geom, nil
}

// Geometry returns the native grid of the raster at path.
func (Reader) Geometry(ctx context.Context, path string) (raster.Geometry, error) {
	if err := ctx.Err(); err != nil {
		return raster.Geometry{}, err
	}
	register()
	ds, err := godal.Open(path)
	if err != nil {
		return raster.Geometry{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer ds.Close()
	return geometryOf(ds)
}

// Read loads the first band of the raster at path resampled onto target.
func (Reader) Read(ctx context.Context, path string, target raster.Geometry) (*raster.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := target.Validate(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	register()
	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer ds.Close()

	warped, err := ds.Warp("", targetSwitches(target))
	if err != nil {
		return nil, fmt.Errorf("warp %s: %w", path, err)
	}
	defer warped.Close()

	bands := warped.Bands()
	if len(bands) == 0 {
		return nil, fmt.Errorf("read %s: no bands", path)
	}
	grid := raster.NewGrid(target.Height, target.Width)
	if err := bands[0].Read(0, 0, grid.Data, target.Width, target.Height); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	monitoring.Tracef("read %s (%dx%d)", path, target.Width, target.Height)
	return grid, nil
}

// Write stores grid as a Float32 GeoTIFF at path with geom's
// georeferencing and noData as the band's no-data value.
func (w GeoTIFFWriter) Write(ctx context.Context, path string, geom raster.Geometry, grid *raster.Grid, noData float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkWritable(path, geom, grid); err != nil {
		return err
	}
	register()
	ds, err := godal.Create(godal.GTiff, path, 1, godal.Float32, geom.Width, geom.Height,
		godal.CreationOption(w.creationOptions()...))
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := writeDataset(ds, geom, grid, noData); err != nil {
		_ = ds.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := ds.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	monitoring.Diagf("wrote %s", path)
	return nil
}

func writeDataset(ds *godal.Dataset, geom raster.Geometry, grid *raster.Grid, noData float64) error {
	if err := ds.SetGeoTransform(geom.GeoTransform); err != nil {
		return err
	}
	if geom.Projection != "" {
		sr, err := godal.NewSpatialRef(geom.Projection)
		if err != nil {
			return err
		}
		defer sr.Close()
		if err := ds.SetSpatialRef(sr); err != nil {
			return err
		}
	}
	band := ds.Bands()[0]
	if err := band.SetNoData(noData); err != nil {
		return err
	}
	return band.Write(0, 0, grid.Float32(), geom.Width, geom.Height)
}

func geometryOf(ds *godal.Dataset) (raster.Geometry, error) {
	gt, err := ds.GeoTransform()
	if err != nil {
		return raster.Geometry{}, fmt.Errorf("geotransform: %w", err)
	}
	st := ds.Structure()
	return raster.Geometry{
		Width:        st.SizeX,
		Height:       st.SizeY,
		GeoTransform: gt,
		Projection:   ds.Projection(),
	}, nil
}
