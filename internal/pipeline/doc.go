// Package pipeline runs registered post processors end to end: it discovers
// the inputs of a data directory, resolves the destination grid, loads the
// rasters, dispatches to the processor flavour and writes one raster per
// indicator.
//
// The package is the composition root of a run. Discovery, raster I/O and
// grid resolution are reached through the stage interfaces in stages.go so
// runs can be exercised without GDAL.
package pipeline
