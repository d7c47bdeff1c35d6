package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/indicator.report/internal/fsutil"
	"github.com/banshee-data/indicator.report/internal/monitoring"
	"github.com/banshee-data/indicator.report/internal/postproc"
	"github.com/banshee-data/indicator.report/internal/raster"
	"github.com/banshee-data/indicator.report/internal/reprojection"
)

// DefaultFormat is the output format used when a request names none.
const DefaultFormat = "GeoTiff"

// ErrUnsupportedFormat is returned when no writer is registered for the
// requested output format. Nothing is written for that run.
var ErrUnsupportedFormat = errors.New("output format not supported")

// ErrUnknownIndicator is returned by RunPostProcessing for requested
// indicators no registered post processor derives.
var ErrUnknownIndicator = errors.New("no post processor derives indicator")

// Recoverable reports whether err degrades a run to empty output rather than
// being a configuration error.
func Recoverable(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) || errors.Is(err, postproc.ErrInputShape)
}

// Request holds the parameters of one post-processing run.
type Request struct {
	DataDir   string
	OutputDir string

	// Destination grid. When ROI or Resolution is unset the native grid of
	// the first input is used.
	ROI             string
	Resolution      float64
	ROIGrid         string
	DestinationGrid string

	// Format selects the writer; empty means DefaultFormat.
	Format string
	// Indicators restricts the processor's outputs; empty means all.
	Indicators []string

	Quicklook bool
	Report    bool
}

func (r Request) format() string {
	if r.Format == "" {
		return DefaultFormat
	}
	return r.Format
}

func (r Request) reprojected() bool {
	return r.ROI != "" && r.Resolution > 0
}

// Result lists what a run produced.
type Result struct {
	RunID      string
	Processor  string
	Files      []string
	Quicklooks []string
	Report     string
}

// Driver runs post processors from a registry.
type Driver struct {
	Registry   *postproc.Registry
	Discoverer Discoverer
	Loader     Loader
	Resolve    GridResolver
	// SameReferenceSystem compares reference systems during reprojection
	// inference; nil compares definitions.
	SameReferenceSystem reprojection.Comparer
	// Writers maps output format names to writers.
	Writers map[string]Writer
	// FS receives quicklooks and reports; nil uses the OS filesystem.
	FS fsutil.FileSystem
	// Now stamps reports; nil uses time.Now.
	Now func() time.Time
}

func (d *Driver) fs() fsutil.FileSystem {
	if d.FS == nil {
		return fsutil.OSFileSystem{}
	}
	return d.FS
}

func (d *Driver) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

// run carries the state of one RunPostProcessor call.
type run struct {
	id      string
	req     Request
	pp      postproc.PostProcessor
	writer  Writer
	geom    raster.Geometry
	hasGeom bool
	started time.Time
}

// output is one indicator raster ready to be written.
type output struct {
	indicator string
	path      string
	grid      *raster.Grid
	noData    float64
}

// RunPostProcessor runs the named post processor over the inputs of
// req.DataDir and writes its indicators to req.OutputDir.
func (d *Driver) RunPostProcessor(ctx context.Context, name string, req Request) (*Result, error) {
	creator, err := d.Registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	pp, err := creator.Create(req.Indicators)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}

	r := &run{id: uuid.New().String(), req: req, pp: pp, started: d.now()}
	res := &Result{RunID: r.id, Processor: name}
	monitoring.Opsf("run %s: %s started on %s", r.id, name, req.DataDir)

	if len(pp.ActiveIndicators()) == 0 {
		monitoring.Opsf("run %s: no indicator selected for %s, nothing to compute", r.id, name)
		return res, nil
	}

	writer, ok := d.Writers[req.format()]
	if !ok {
		monitoring.Opsf("run %s: writer %s not supported, cannot write post-processing results", r.id, req.format())
		return res, fmt.Errorf("%w: %s", ErrUnsupportedFormat, req.format())
	}
	r.writer = writer

	if req.reprojected() {
		rp, err := reprojection.New(req.ROI, req.Resolution, req.ROIGrid, req.DestinationGrid, d.SameReferenceSystem)
		if err != nil {
			return res, err
		}
		if r.geom, err = d.Resolve(ctx, rp); err != nil {
			return res, fmt.Errorf("destination grid: %w", err)
		}
		r.hasGeom = true
	}

	var outs []output
	switch pp.Type() {
	case postproc.EODataPostProcessor:
		p, ok := pp.(postproc.EODataProcessor)
		if !ok {
			return res, fmt.Errorf("%s declares type %s but cannot process observations", name, pp.Type())
		}
		outs, err = d.runEOData(ctx, r, p)
	case postproc.VariablePostProcessor:
		p, ok := pp.(postproc.VariableProcessor)
		if !ok {
			return res, fmt.Errorf("%s declares type %s but cannot process variables", name, pp.Type())
		}
		outs, err = d.runVariables(ctx, r, p)
	default:
		return res, fmt.Errorf("%s has unknown post processor type %s", name, pp.Type())
	}
	if err != nil {
		if Recoverable(err) {
			monitoring.Opsf("run %s: %s produced no result: %v", r.id, name, err)
		}
		return res, err
	}

	if err := d.publish(ctx, r, outs, res); err != nil {
		return res, err
	}
	monitoring.Opsf("run %s: %s wrote %d file(s) in %s", r.id, name, len(res.Files),
		d.now().Sub(r.started).Round(time.Millisecond))
	return res, nil
}

// RunPostProcessing runs every registered post processor deriving any of
// indicatorNames, each restricted to the indicators it provides. Recoverable
// failures of one processor are logged and do not stop the others.
func (d *Driver) RunPostProcessing(ctx context.Context, indicatorNames []string, req Request) ([]*Result, error) {
	subsets := make(map[string][]string)
	var order []postproc.Creator
	var unknown []string
	for _, ind := range indicatorNames {
		creators := d.Registry.ForIndicator(ind)
		if len(creators) == 0 {
			unknown = append(unknown, ind)
			continue
		}
		for _, c := range creators {
			if _, seen := subsets[c.Name()]; !seen {
				order = append(order, c)
			}
			subsets[c.Name()] = append(subsets[c.Name()], ind)
		}
	}
	if len(unknown) > 0 {
		monitoring.Opsf("indicator(s) %s not provided by any post processor", strings.Join(unknown, ", "))
	}

	var results []*Result
	for _, c := range order {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		sub := req
		sub.Indicators = subsets[c.Name()]
		res, err := d.RunPostProcessor(ctx, c.Name(), sub)
		if res != nil {
			results = append(results, res)
		}
		if err != nil && !Recoverable(err) {
			return results, fmt.Errorf("%s: %w", c.Name(), err)
		}
	}
	if len(unknown) > 0 {
		return results, fmt.Errorf("%w: %s", ErrUnknownIndicator, strings.Join(unknown, ", "))
	}
	return results, nil
}

// ensureGeometry fixes the run's grid to the native grid of path unless a
// reprojected grid is already set.
func (d *Driver) ensureGeometry(ctx context.Context, r *run, path string) error {
	if r.hasGeom {
		return nil
	}
	geom, err := d.Loader.Geometry(ctx, path)
	if err != nil {
		return fmt.Errorf("native grid of %s: %w", path, err)
	}
	r.geom, r.hasGeom = geom, true
	monitoring.Diagf("run %s: using native grid %dx%d of %s", r.id, geom.Width, geom.Height, path)
	return nil
}

func outputPath(dir, indicator string, dates ...string) string {
	return filepath.Join(dir, strings.Join(append([]string{indicator}, dates...), "_")+".tif")
}
