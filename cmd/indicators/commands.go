package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/banshee-data/indicator.report/internal/config"
	"github.com/banshee-data/indicator.report/internal/indicators"
	"github.com/banshee-data/indicator.report/internal/monitoring"
	"github.com/banshee-data/indicator.report/internal/pipeline"
	"github.com/banshee-data/indicator.report/internal/postproc/builtin"
	"github.com/banshee-data/indicator.report/internal/rasterio"
)

// runOptions holds the flags shared by run-processor and process-indicators.
type runOptions struct {
	name       string
	input      string
	output     string
	roi        string
	resolution float64
	roiGrid    string
	destGrid   string
	format     string
	configPath string
	workers    int
	quicklook  bool
	report     bool
	verbose    bool
	trace      bool

	// set records the flags given on the command line.
	set map[string]bool

	// indicators are the positional arguments.
	indicators []string
}

func (a *app) parseRunFlags(command string, args []string, withName bool) (*runOptions, error) {
	o := &runOptions{set: make(map[string]bool)}
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	if withName {
		fs.StringVar(&o.name, "n", "", "Name of the post processor (required)")
	}
	fs.StringVar(&o.input, "i", "", "Directory holding the input data (required)")
	fs.StringVar(&o.output, "o", ".", "Output directory")
	fs.StringVar(&o.roi, "roi", "", "Region of interest as WKT polygon")
	fs.Float64Var(&o.resolution, "res", 0, "Spatial resolution of the destination grid")
	fs.StringVar(&o.roiGrid, "roi-grid", "", "Reference system of the ROI")
	fs.StringVar(&o.destGrid, "dest-grid", "", "Reference system of the output")
	fs.StringVar(&o.format, "format", "", "Output format (default from config, GeoTiff)")
	fs.StringVar(&o.configPath, "config", "", "Processing configuration file (JSON)")
	fs.IntVar(&o.workers, "workers", 1, "Parallel window workers for functional diversity")
	fs.BoolVar(&o.quicklook, "quicklook", false, "Write a PNG quicklook per output")
	fs.BoolVar(&o.report, "report", false, "Write an HTML run report")
	fs.BoolVar(&o.verbose, "v", false, "Enable diagnostic logging")
	fs.BoolVar(&o.trace, "vv", false, "Enable diagnostic and trace logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	o.indicators = fs.Args()

	if withName && o.name == "" {
		return nil, errors.New("-n is required: name the post processor to run")
	}
	if o.input == "" {
		return nil, errors.New("-i is required: give the directory holding the input data")
	}
	if (o.roi == "") != (o.resolution == 0) {
		return nil, errors.New("-roi and -res must be given together")
	}
	if o.resolution < 0 {
		return nil, fmt.Errorf("-res must be positive, got %g", o.resolution)
	}
	return o, nil
}

// processingConfig loads the configuration file, if any, and applies the
// flags given on the command line over it.
func (o *runOptions) processingConfig() (*config.ProcessingConfig, error) {
	cfg := config.EmptyProcessingConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = config.LoadProcessingConfig(o.configPath); err != nil {
			return nil, err
		}
	}
	if o.set["format"] {
		cfg.SetOutputFormat(o.format)
	}
	if o.set["workers"] {
		cfg.SetWorkers(o.workers)
	}
	if o.set["quicklook"] {
		cfg.SetQuicklook(o.quicklook)
	}
	if o.set["report"] {
		cfg.SetReport(o.report)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (o *runOptions) request(cfg *config.ProcessingConfig) pipeline.Request {
	return pipeline.Request{
		DataDir:         o.input,
		OutputDir:       o.output,
		ROI:             o.roi,
		Resolution:      o.resolution,
		ROIGrid:         o.roiGrid,
		DestinationGrid: o.destGrid,
		Format:          cfg.GetOutputFormat(),
		Quicklook:       cfg.GetQuicklook(),
		Report:          cfg.GetReport(),
	}
}

func (a *app) setupLogging(o *runOptions) {
	w := monitoring.LogWriters{Ops: a.stderr}
	if o.verbose || o.trace {
		w.Diag = a.stderr
	}
	if o.trace {
		w.Trace = a.stderr
	}
	monitoring.SetLogWriters(w)
}

func (a *app) driver(cfg *config.ProcessingConfig) *pipeline.Driver {
	return &pipeline.Driver{
		Registry:            a.registry,
		Discoverer:          pipeline.DirDiscoverer{},
		Loader:              rasterio.Reader{},
		Resolve:             rasterio.DestinationGeometry,
		SameReferenceSystem: rasterio.SameReferenceSystem,
		Writers: map[string]pipeline.Writer{
			rasterio.FormatGeoTIFF: rasterio.GeoTIFFWriter{Compress: cfg.GetCompress()},
		},
	}
}

// prepare parses the run flags and registers the built-in post processors
// configured by them.
func (a *app) prepare(command string, args []string, withName bool) (*runOptions, *config.ProcessingConfig, error) {
	o, err := a.parseRunFlags(command, args, withName)
	if err != nil {
		return nil, nil, err
	}
	a.setupLogging(o)
	cfg, err := o.processingConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := builtin.Register(a.registry, cfg); err != nil {
		return nil, nil, err
	}
	if _, err := os.Stat(o.input); err != nil {
		return nil, nil, fmt.Errorf("input directory: %w", err)
	}
	return o, cfg, nil
}

func (a *app) handleRunProcessor(ctx context.Context, args []string) error {
	o, cfg, err := a.prepare("run-processor", args, true)
	if err != nil {
		return err
	}
	req := o.request(cfg)
	req.Indicators = o.indicators
	res, err := a.driver(cfg).RunPostProcessor(ctx, o.name, req)
	if err != nil && !pipeline.Recoverable(err) {
		return err
	}
	a.printResults(res)
	return nil
}

func (a *app) handleProcessIndicators(ctx context.Context, args []string) error {
	o, cfg, err := a.prepare("process-indicators", args, false)
	if err != nil {
		return err
	}
	if len(o.indicators) == 0 {
		return errors.New("name at least one indicator to derive")
	}
	results, err := a.driver(cfg).RunPostProcessing(ctx, o.indicators, o.request(cfg))
	a.printResults(results...)
	return err
}

func (a *app) printResults(results ...*pipeline.Result) {
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, f := range res.Files {
			fmt.Fprintln(a.stdout, f)
		}
		for _, f := range res.Quicklooks {
			fmt.Fprintln(a.stdout, f)
		}
		if res.Report != "" {
			fmt.Fprintln(a.stdout, res.Report)
		}
	}
}

func (a *app) handleProcessors(args []string) error {
	if err := builtin.Register(a.registry, nil); err != nil {
		return err
	}
	for _, name := range a.registry.Names() {
		fmt.Fprintln(a.stdout, name)
	}
	return nil
}

func (a *app) handleDescribe(args []string) error {
	fs := flag.NewFlagSet("describe", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	asJSON := fs.Bool("json", false, "Print the description as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: indicators describe [-json] <post processor>")
	}
	if err := builtin.Register(a.registry, nil); err != nil {
		return err
	}
	info, err := a.registry.Describe(fs.Arg(0))
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintf(a.stdout, "Name:        %s\n", info.Name)
	fmt.Fprintf(a.stdout, "Type:        %s\n", info.Type)
	fmt.Fprintf(a.stdout, "Description: %s\n", info.Description)
	fmt.Fprintf(a.stdout, "Inputs:      %s\n", strings.Join(info.RequiredInputTypes, ", "))
	fmt.Fprintln(a.stdout, "Indicators:")
	for _, short := range info.Indicators {
		d, err := indicators.Lookup(short)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "  %-8s %s (%s)\n", d.ShortName, d.DisplayName, d.Range)
	}
	return nil
}

func (a *app) handleIndicators(args []string) error {
	if len(args) > 0 {
		return errors.New("usage: indicators indicators")
	}
	all, err := indicators.All()
	if err != nil {
		return err
	}
	for _, d := range all {
		fmt.Fprintf(a.stdout, "%-8s %s\n", d.ShortName, d.DisplayName)
	}
	return nil
}
