package pipeline

import (
	"context"
	"io/fs"
	"os"

	"github.com/banshee-data/indicator.report/internal/observations"
	"github.com/banshee-data/indicator.report/internal/raster"
	"github.com/banshee-data/indicator.report/internal/reprojection"
)

// Discoverer finds the typed inputs below a data directory.
type Discoverer interface {
	// Discover returns references sorted by start time. An empty accepted
	// list returns every typed input.
	Discover(dataDir string, accepted []string) ([]observations.FileRef, error)
}

// Loader reads rasters onto a destination grid.
type Loader interface {
	// Geometry returns the native grid of the raster at path.
	Geometry(ctx context.Context, path string) (raster.Geometry, error)
	// Read loads the raster at path resampled onto target.
	Read(ctx context.Context, path string, target raster.Geometry) (*raster.Grid, error)
}

// Writer stores one indicator raster.
type Writer interface {
	Write(ctx context.Context, path string, geom raster.Geometry, grid *raster.Grid, noData float64) error
}

// GridResolver turns a reprojection into the destination grid of a run.
type GridResolver func(ctx context.Context, r *reprojection.Reprojection) (raster.Geometry, error)

// DirDiscoverer discovers inputs in the operating system's filesystem.
type DirDiscoverer struct{}

// Discover walks dataDir.
func (DirDiscoverer) Discover(dataDir string, accepted []string) ([]observations.FileRef, error) {
	return observations.Discover(os.DirFS(dataDir), ".", dataDir, accepted)
}

// FSDiscoverer discovers inputs in an fs.FS; data directories are paths
// inside FS and URLs are returned unprefixed.
type FSDiscoverer struct {
	FS fs.FS
}

// Discover walks dataDir inside d.FS.
func (d FSDiscoverer) Discover(dataDir string, accepted []string) ([]observations.FileRef, error) {
	return observations.Discover(d.FS, dataDir, "", accepted)
}
