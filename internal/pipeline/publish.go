package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/indicator.report/internal/monitoring"
	"github.com/banshee-data/indicator.report/internal/quicklook"
)

// publish writes the outputs of a run, then its quicklooks and report when
// requested.
func (d *Driver) publish(ctx context.Context, r *run, outs []output, res *Result) error {
	fsys := d.fs()
	if r.req.OutputDir != "" {
		if err := fsys.MkdirAll(r.req.OutputDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	for _, o := range outs {
		if err := r.writer.Write(ctx, o.path, r.geom, o.grid, o.noData); err != nil {
			return fmt.Errorf("write %s: %w", o.indicator, err)
		}
		res.Files = append(res.Files, o.path)
	}

	if r.req.Quicklook {
		for _, o := range outs {
			path := strings.TrimSuffix(o.path, filepath.Ext(o.path)) + ".png"
			if err := d.writeQuicklook(path, o); err != nil {
				monitoring.Opsf("run %s: quicklook %s failed: %v", r.id, path, err)
				continue
			}
			res.Quicklooks = append(res.Quicklooks, path)
		}
	}

	if r.req.Report {
		path := filepath.Join(r.req.OutputDir, fmt.Sprintf("%s_%s.html", r.pp.Name(), r.id))
		if err := d.writeReport(path, r, outs); err != nil {
			monitoring.Opsf("run %s: report %s failed: %v", r.id, path, err)
		} else {
			res.Report = path
		}
	}
	return nil
}

func (d *Driver) writeQuicklook(path string, o output) error {
	f, err := d.fs().Create(path)
	if err != nil {
		return err
	}
	if err := quicklook.WritePNG(f, filepath.Base(o.path), o.grid, o.noData); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (d *Driver) writeReport(path string, r *run, outs []output) error {
	report := quicklook.Report{
		RunID:     r.id,
		Processor: r.pp.Name(),
		Started:   r.started,
		Finished:  d.now(),
	}
	for _, o := range outs {
		report.Outputs = append(report.Outputs, quicklook.Output{
			Indicator: o.indicator,
			Path:      o.path,
			Summary:   quicklook.Summarize(o.grid, o.noData, quicklook.DefaultBins),
		})
	}
	f, err := d.fs().Create(path)
	if err != nil {
		return err
	}
	if err := report.Render(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
