package raster

import "fmt"

// Geometry is the georeferencing of a destination grid. GeoTransform follows
// the GDAL convention: origin x, pixel width, row rotation, origin y, column
// rotation, pixel height (negative for north-up grids).
type Geometry struct {
	Width        int
	Height       int
	GeoTransform [6]float64
	Projection   string
}

// Validate checks that the geometry can back a raster file.
func (g Geometry) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("invalid grid size %dx%d", g.Width, g.Height)
	}
	if g.GeoTransform[1] == 0 || g.GeoTransform[5] == 0 {
		return fmt.Errorf("geotransform has zero pixel size: %v", g.GeoTransform)
	}
	return nil
}

// Fits reports whether grid matches the geometry's dimensions.
func (g Geometry) Fits(grid *Grid) bool {
	return grid != nil && grid.Rows == g.Height && grid.Cols == g.Width
}

// PixelCenter returns the projected coordinates of the centre of (row, col).
func (g Geometry) PixelCenter(row, col int) (x, y float64) {
	px := float64(col) + 0.5
	py := float64(row) + 0.5
	t := g.GeoTransform
	return t[0] + px*t[1] + py*t[2], t[3] + px*t[4] + py*t[5]
}

// Bounds returns the extent of a north-up grid as min x, min y, max x, max y.
func (g Geometry) Bounds() (minX, minY, maxX, maxY float64) {
	t := g.GeoTransform
	x0, x1 := t[0], t[0]+float64(g.Width)*t[1]
	y0, y1 := t[3], t[3]+float64(g.Height)*t[5]
	return min(x0, x1), min(y0, y1), max(x0, x1), max(y0, y1)
}
