package pipeline

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/banshee-data/indicator.report/internal/monitoring"
	"github.com/banshee-data/indicator.report/internal/observations"
	"github.com/banshee-data/indicator.report/internal/postproc"
	"github.com/banshee-data/indicator.report/internal/raster"
)

// runVariables runs p once per acquisition date that provides every required
// variable. Dates lacking a variable are skipped.
func (d *Driver) runVariables(ctx context.Context, r *run, p postproc.VariableProcessor) ([]output, error) {
	required := p.RequiredVariables()
	refs, err := d.Discoverer.Discover(r.req.DataDir, required)
	if err != nil {
		return nil, err
	}
	observations.SortFileRefs(refs)
	groups := observations.GroupByDate(refs)
	dates := observations.SortedDates(groups)
	monitoring.Diagf("run %s: %d variable file(s) on %d date(s)", r.id, len(refs), len(dates))

	var outs []output
	complete := 0
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		byType := observations.ByDataType(groups[date])
		if missing := missingVariables(byType, required); len(missing) > 0 {
			monitoring.Diagf("run %s: skipping %s, missing %s", r.id, date, strings.Join(missing, ", "))
			continue
		}
		complete++

		variables := make(map[string]*raster.Grid, len(required))
		for _, name := range required {
			ref := byType[name]
			if err := d.ensureGeometry(ctx, r, ref.URL); err != nil {
				return nil, fmt.Errorf("%w: %v", postproc.ErrMissingInput, err)
			}
			grid, err := d.Loader.Read(ctx, ref.URL, r.geom)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", postproc.ErrMissingInput, ref.URL, err)
			}
			variables[name] = grid
		}

		results, err := p.ProcessVariables(variables)
		if err != nil {
			return nil, fmt.Errorf("%s on %s: %w", p.Name(), date, err)
		}
		for _, ind := range p.ActiveIndicators() {
			grid, ok := results[ind]
			if !ok {
				continue
			}
			outs = append(outs, output{
				indicator: ind,
				path:      outputPath(r.req.OutputDir, ind, date),
				grid:      grid,
				noData:    math.NaN(),
			})
		}
	}
	if complete == 0 {
		return nil, fmt.Errorf("%w: no acquisition date provides all of %s",
			postproc.ErrMissingInput, strings.Join(required, ", "))
	}
	return outs, nil
}

func missingVariables(byType map[string]observations.FileRef, required []string) []string {
	var missing []string
	for _, name := range required {
		if _, ok := byType[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
