package quicklook

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Output is one indicator raster written by a run.
type Output struct {
	Indicator string
	Path      string
	Summary   Summary
}

// Report describes a post-processing run.
type Report struct {
	RunID     string
	Processor string
	Started   time.Time
	Finished  time.Time
	Outputs   []Output
	// AssetsHost overrides the location echarts scripts are loaded from.
	AssetsHost string
}

// Render writes the report as a single HTML page: a bar chart of the valid
// fraction per output followed by one histogram per output.
func (r Report) Render(w io.Writer) error {
	page := components.NewPage()
	page.SetPageTitle(fmt.Sprintf("%s run %s", r.Processor, r.RunID))
	if r.AssetsHost != "" {
		page.SetAssetsHost(r.AssetsHost)
	}
	page.AddCharts(r.coverageChart())
	for _, o := range r.Outputs {
		page.AddCharts(r.histogramChart(o))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func (r Report) initOpts() opts.Initialization {
	return opts.Initialization{Width: "900px", Height: "420px", AssetsHost: r.AssetsHost}
}

func (r Report) coverageChart() *charts.Bar {
	x := make([]string, 0, len(r.Outputs))
	y := make([]opts.BarData, 0, len(r.Outputs))
	for _, o := range r.Outputs {
		x = append(x, o.Indicator)
		y = append(y, opts.BarData{Value: o.Summary.ValidFraction() * 100})
	}

	subtitle := fmt.Sprintf("run=%s started=%s", r.RunID, r.Started.Format(time.RFC3339))
	if !r.Finished.IsZero() {
		subtitle += fmt.Sprintf(" took=%s", r.Finished.Sub(r.Started).Round(time.Millisecond))
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(r.initOpts()),
		charts.WithTitleOpts(opts.Title{Title: r.Processor + ": valid samples (%)", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100, Name: "%"}),
	)
	bar.SetXAxis(x).
		AddSeries("valid", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

func (r Report) histogramChart(o Output) *charts.Bar {
	s := o.Summary
	x := make([]string, 0, len(s.Counts))
	y := make([]opts.BarData, 0, len(s.Counts))
	for i, c := range s.Counts {
		x = append(x, strconv.FormatFloat(s.Edges[i], 'g', 4, 64))
		y = append(y, opts.BarData{Value: c})
	}

	subtitle := fmt.Sprintf("%s valid=%d/%d", o.Path, s.Valid, s.Total)
	if s.Valid > 0 {
		subtitle += fmt.Sprintf(" mean=%.4g sd=%.4g min=%.4g max=%.4g", s.Mean, s.StdDev, s.Min, s.Max)
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(r.initOpts()),
		charts.WithTitleOpts(opts.Title{Title: o.Indicator, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).AddSeries(o.Indicator, y)
	return bar
}
