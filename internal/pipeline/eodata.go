package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/indicator.report/internal/monitoring"
	"github.com/banshee-data/indicator.report/internal/observations"
	"github.com/banshee-data/indicator.report/internal/postproc"
	"github.com/banshee-data/indicator.report/internal/raster"
)

// runEOData pairs the acquisition dates of the supported EO data types, loads
// the required bands of each and hands them to p.
func (d *Driver) runEOData(ctx context.Context, r *run, p postproc.EODataProcessor) ([]output, error) {
	refs, err := d.Discoverer.Discover(r.req.DataDir, p.SupportedDataTypes())
	if err != nil {
		return nil, err
	}
	observations.SortFileRefs(refs)
	groups := observations.GroupByDate(refs)
	dates := observations.SortedDates(groups)
	monitoring.Diagf("run %s: %d EO input(s) on %d date(s)", r.id, len(refs), len(dates))

	if len(dates) != p.NumTimeSteps() {
		return nil, fmt.Errorf("%w: %s needs %d acquisition dates, found %d",
			postproc.ErrInputShape, p.Name(), p.NumTimeSteps(), len(dates))
	}

	items := make([]observations.Observation, 0, len(dates))
	var dataType string
	for _, date := range dates {
		group := groups[date]
		if len(group) > 1 {
			monitoring.Diagf("run %s: %d EO inputs on %s, using %s", r.id, len(group), date, group[0].URL)
		}
		ref := group[0]
		if dataType == "" {
			dataType = ref.DataType
		}
		bands, err := d.loadBands(ctx, r, p, ref)
		if err != nil {
			return nil, err
		}
		items = append(items, observations.Observation{Date: ref.StartTime, DataType: ref.DataType, Bands: bands})
	}

	results, err := p.ProcessObservations(observations.New(items...))
	if err != nil {
		return nil, err
	}

	noData := p.NoData(dataType)
	outs := make([]output, 0, len(results))
	for _, ind := range p.ActiveIndicators() {
		grid, ok := results[ind]
		if !ok {
			continue
		}
		outs = append(outs, output{
			indicator: ind,
			path:      outputPath(r.req.OutputDir, ind, dates...),
			grid:      grid,
			noData:    noData,
		})
	}
	return outs, nil
}

func (d *Driver) loadBands(ctx context.Context, r *run, p postproc.EODataProcessor, ref observations.FileRef) (map[string]*raster.Grid, error) {
	names := p.RequiredBands(ref.DataType)
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s does not support data type %s", postproc.ErrInputShape, p.Name(), ref.DataType)
	}
	bands := make(map[string]*raster.Grid, len(names))
	for _, name := range names {
		path := filepath.Join(ref.URL, name)
		if err := d.ensureGeometry(ctx, r, path); err != nil {
			return nil, fmt.Errorf("%w: %v", postproc.ErrMissingInput, err)
		}
		grid, err := d.Loader.Read(ctx, path, r.geom)
		if err != nil {
			return nil, fmt.Errorf("%w: band %s of %s: %v", postproc.ErrMissingInput, name, ref.URL, err)
		}
		bands[name] = grid
	}
	return bands, nil
}
