// Command indicators derives ecological and fire-severity indicators from
// multi-temporal rasters with the registered post processors.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/indicator.report/internal/postproc"
	"github.com/banshee-data/indicator.report/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{registry: postproc.Default, stdout: os.Stdout, stderr: os.Stderr}
	os.Exit(a.run(ctx, os.Args[1:]))
}

// app carries the process-wide collaborators of one CLI invocation.
type app struct {
	registry *postproc.Registry
	stdout   io.Writer
	stderr   io.Writer
}

func (a *app) run(ctx context.Context, args []string) int {
	if len(args) < 1 {
		a.printUsage(a.stderr)
		return 1
	}

	command, rest := args[0], args[1:]
	var err error
	switch command {
	case "run-processor":
		err = a.handleRunProcessor(ctx, rest)
	case "process-indicators":
		err = a.handleProcessIndicators(ctx, rest)
	case "processors":
		err = a.handleProcessors(rest)
	case "describe":
		err = a.handleDescribe(rest)
	case "indicators":
		err = a.handleIndicators(rest)
	case "version":
		fmt.Fprintln(a.stdout, version.String())
	case "help", "-h", "--help":
		a.printUsage(a.stdout)
	default:
		fmt.Fprintf(a.stderr, "Unknown command: %s\n\n", command)
		a.printUsage(a.stderr)
		return 1
	}
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) printUsage(w io.Writer) {
	fmt.Fprint(w, `indicators - post processing of multi-temporal raster data

Usage: indicators <command> [options]

Commands:
  run-processor       Run one post processor (-n <name>)
  process-indicators  Run every post processor deriving the given indicators
  processors          List the registered post processors
  describe            Describe a post processor
  indicators          List the indicators that can be derived
  version             Show version information
  help                Show this help message

Run Flags:
  -i <dir>            Directory holding the input data (required)
  -o <dir>            Output directory (default: current directory)
  -roi <wkt>          Region of interest as WKT polygon
  -res <m>            Spatial resolution of the destination grid
  -roi-grid <srs>     Reference system of the ROI (EPSG:<code> or WKT)
  -dest-grid <srs>    Reference system of the output (EPSG:<code> or WKT)
  -format <name>      Output format (default: GeoTiff)
  -config <file>      Processing configuration (JSON)
  -workers <n>        Parallel window workers for functional diversity
  -quicklook          Write a PNG quicklook per output
  -report             Write an HTML run report
  -v, -vv             Diagnostic and trace logging

Examples:
  indicators run-processor -n BurnedSeverity -i ./s2 -o ./out \
    -roi "POLYGON((-2.1 39.0,-2.0 39.0,-2.0 39.1,-2.1 39.1,-2.1 39.0))" -res 20

  indicators process-indicators -i ./variables -o ./out cvh fdiv

  indicators describe FunctionalDiversityMetrics
`)
}
