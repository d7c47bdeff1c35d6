// Package reprojection resolves the destination grid of a run from a region
// of interest, a resolution and optional source and destination reference
// systems. It holds the rules only; warping is done by the raster I/O layer.
package reprojection

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/planar"
)

var (
	// ErrAmbiguousReferenceSystem is returned when the destination reference
	// system cannot be derived from the given source reference system.
	ErrAmbiguousReferenceSystem = errors.New("cannot derive destination reference system")

	// ErrInvalidROI is returned for a region of interest that is not a
	// polygon or multipolygon in WKT.
	ErrInvalidROI = errors.New("invalid region of interest")
)

// WGS84 is the geographic reference system assumed for unqualified ROIs.
var WGS84 = ReferenceSystem{EPSG: 4326}

// ReferenceSystem is a spatial reference given either as an EPSG code or as
// WKT. The zero value is unspecified.
type ReferenceSystem struct {
	EPSG int
	WKT  string
}

// ParseReferenceSystem accepts "EPSG:<code>" or a WKT definition. An empty
// string yields the unspecified reference system.
func ParseReferenceSystem(s string) (ReferenceSystem, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ReferenceSystem{}, nil
	}
	if code, ok := strings.CutPrefix(strings.ToUpper(s), "EPSG:"); ok {
		n, err := strconv.Atoi(code)
		if err != nil || n <= 0 {
			return ReferenceSystem{}, fmt.Errorf("invalid EPSG code %q", s)
		}
		return ReferenceSystem{EPSG: n}, nil
	}
	return ReferenceSystem{WKT: s}, nil
}

// IsZero reports whether the reference system is unspecified.
func (r ReferenceSystem) IsZero() bool { return r.EPSG == 0 && r.WKT == "" }

// String returns the form accepted by GDAL utilities.
func (r ReferenceSystem) String() string {
	if r.EPSG != 0 {
		return fmt.Sprintf("EPSG:%d", r.EPSG)
	}
	return r.WKT
}

// Comparer decides whether two reference systems describe the same
// coordinate system.
type Comparer func(a, b ReferenceSystem) bool

// Identical compares reference systems by their definitions only.
func Identical(a, b ReferenceSystem) bool { return a == b }

// UTM returns the WGS84 UTM zone containing the given longitude and
// latitude. Latitudes of zero and below map to the southern zone.
func UTM(lon, lat float64) ReferenceSystem {
	zone := int(1 + (lon+180)/6)
	if lat > 0 {
		return ReferenceSystem{EPSG: 32600 + zone}
	}
	return ReferenceSystem{EPSG: 32700 + zone}
}

// ROI is a parsed region of interest.
type ROI struct {
	Geometry orb.Geometry
	Bound    orb.Bound
	Centroid orb.Point
}

// ParseROI parses a WKT polygon or multipolygon.
func ParseROI(s string) (ROI, error) {
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return ROI{}, fmt.Errorf("%w: %v", ErrInvalidROI, err)
	}
	switch geom := g.(type) {
	case orb.Polygon:
		if len(geom) == 0 || len(geom[0]) < 4 {
			return ROI{}, fmt.Errorf("%w: polygon needs a closed ring of at least 4 points", ErrInvalidROI)
		}
	case orb.MultiPolygon:
		if len(geom) == 0 {
			return ROI{}, fmt.Errorf("%w: empty multipolygon", ErrInvalidROI)
		}
	default:
		return ROI{}, fmt.Errorf("%w: %s is not a polygon", ErrInvalidROI, g.GeoJSONType())
	}
	centroid, _ := planar.CentroidArea(g)
	return ROI{Geometry: g, Bound: g.Bound(), Centroid: centroid}, nil
}

// Reprojection describes the destination grid of a run.
type Reprojection struct {
	ROI         ROI
	Resolution  float64
	Source      ReferenceSystem
	Destination ReferenceSystem
}

// New resolves the reference systems for roi given in roiGrid and output in
// destGrid. Either grid may be empty:
//
//   - neither given: the ROI is WGS84 and the output is the UTM zone of the
//     ROI centroid;
//   - only destGrid given: the ROI is in destGrid;
//   - only roiGrid given: it must be WGS84 and the output is UTM as above.
//
// same compares reference systems; nil compares definitions.
func New(roi string, resolution float64, roiGrid, destGrid string, same Comparer) (*Reprojection, error) {
	if resolution <= 0 {
		return nil, fmt.Errorf("spatial resolution must be positive, got %g", resolution)
	}
	if same == nil {
		same = Identical
	}
	r, err := ParseROI(roi)
	if err != nil {
		return nil, err
	}
	src, err := ParseReferenceSystem(roiGrid)
	if err != nil {
		return nil, err
	}
	dst, err := ParseReferenceSystem(destGrid)
	if err != nil {
		return nil, err
	}

	switch {
	case src.IsZero() && dst.IsZero():
		src = WGS84
		dst = UTM(r.Centroid.Lon(), r.Centroid.Lat())
	case src.IsZero():
		src = dst
	case dst.IsZero():
		if !same(src, WGS84) {
			return nil, fmt.Errorf("%w: roi grid %s is not WGS84; specify a destination grid",
				ErrAmbiguousReferenceSystem, src)
		}
		dst = UTM(r.Centroid.Lon(), r.Centroid.Lat())
	}
	return &Reprojection{ROI: r, Resolution: resolution, Source: src, Destination: dst}, nil
}

// WarpSwitches returns gdalwarp switches producing the destination grid:
// the ROI bounds in the source system, resampled at the resolution in the
// destination system.
func (r *Reprojection) WarpSwitches() []string {
	b := r.ROI.Bound
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []string{
		"-t_srs", r.Destination.String(),
		"-te", f(b.Min.X()), f(b.Min.Y()), f(b.Max.X()), f(b.Max.Y()),
		"-te_srs", r.Source.String(),
		"-tr", f(r.Resolution), f(r.Resolution),
		"-r", "near",
	}
}
