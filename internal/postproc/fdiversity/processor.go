// Package fdiversity computes functional-diversity metrics of plant traits
// over a moving window.
//
// Each trait raster is standardized with zeros treated as missing. Windows
// with too few valid pixels are skipped. In the others, low-density outliers
// are rejected with a Gaussian kernel density estimate and every selected
// metric is written over the whole window block.
package fdiversity

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/indicator.report/internal/config"
	"github.com/banshee-data/indicator.report/internal/monitoring"
	"github.com/banshee-data/indicator.report/internal/postproc"
	"github.com/banshee-data/indicator.report/internal/raster"
)

const (
	// Name identifies the processor in the registry.
	Name = "FunctionalDiversityMetrics"

	description = "Derives functional diversity metrics from bio-physical plant traits " +
		"in a moving window."
)

// Required variable names.
const (
	VariableLAI = "lai"
	VariableCW  = "cw"
	VariableCAB = "cab"
)

// Settings are the moving-window parameters.
type Settings struct {
	Stride          int
	Offset          int
	ValidThreshold  int
	StartPercentile int
	Workers         int
}

// SettingsFromConfig reads the window parameters from cfg.
func SettingsFromConfig(cfg *config.ProcessingConfig) Settings {
	return Settings{
		Stride:          cfg.GetWindowStride(),
		Offset:          cfg.GetWindowOffset(),
		ValidThreshold:  cfg.GetValidThreshold(),
		StartPercentile: cfg.GetOutlierStartPercentile(),
		Workers:         cfg.GetWorkers(),
	}
}

// Processor computes the diversity metrics of one acquisition date.
type Processor struct {
	postproc.Base
	settings Settings
}

var _ postproc.VariableProcessor = (*Processor)(nil)

// New builds a processor for the requested indicators.
func New(indicatorNames []string, settings Settings) (*Processor, error) {
	declared := make([]string, len(metrics))
	for i, m := range metrics {
		declared[i] = m.name
	}
	base, err := postproc.NewBase(Name, description, postproc.VariablePostProcessor,
		declared, indicatorNames, 1)
	if err != nil {
		return nil, err
	}
	if settings.Stride <= 0 || settings.Offset <= 0 {
		return nil, fmt.Errorf("invalid window stride %d / offset %d", settings.Stride, settings.Offset)
	}
	return &Processor{Base: base, settings: settings}, nil
}

// RequiredVariables lists the trait variables consumed.
func (p *Processor) RequiredVariables() []string {
	return []string{VariableLAI, VariableCW, VariableCAB}
}

// windowResult holds the metric values of one window, nil when skipped.
type windowResult []float64

// ProcessVariables computes the active metrics from the lai, cw and cab
// rasters. Outputs start as NaN and keep it wherever a window was skipped.
func (p *Processor) ProcessVariables(variables map[string]*raster.Grid) (map[string]*raster.Grid, error) {
	active := p.activeMetrics()
	if len(active) == 0 {
		monitoring.Opsf("%s: no indicator selected; nothing to compute", Name)
		return map[string]*raster.Grid{}, nil
	}
	var in [3]*raster.Grid
	for i, name := range p.RequiredVariables() {
		g, ok := variables[name]
		if !ok || g == nil {
			return nil, fmt.Errorf("%w: %s needs variable %s", postproc.ErrMissingInput, Name, name)
		}
		if i > 0 && !in[0].SameShape(g) {
			return nil, fmt.Errorf("%w: %s variable %s is %dx%d, %s is %dx%d", postproc.ErrInputShape,
				Name, name, g.Rows, g.Cols, VariableLAI, in[0].Rows, in[0].Cols)
		}
		in[i] = g
	}
	lai := standardizeTrait(in[0])
	traits := []*raster.Grid{standardizeTrait(in[2]), standardizeTrait(in[1]), lai}

	wins := windows(lai.Rows, lai.Cols, p.settings.Stride, p.settings.Offset)
	results := make([]windowResult, len(wins))
	eval := func(i int) {
		results[i] = p.evaluate(wins[i], lai, traits, active)
	}
	if p.settings.Workers > 1 {
		var g errgroup.Group
		g.SetLimit(p.settings.Workers)
		for i := range wins {
			g.Go(func() error {
				eval(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range wins {
			eval(i)
		}
	}

	out := make(map[string]*raster.Grid, len(active))
	for _, m := range active {
		out[m.name] = raster.NewFilledGrid(lai.Rows, lai.Cols, math.NaN())
	}
	skipped := 0
	for i, w := range wins {
		if results[i] == nil {
			skipped++
			continue
		}
		for k, m := range active {
			out[m.name].FillBlock(w.r0, w.r1, w.c0, w.c1, results[i][k])
		}
	}
	monitoring.Diagf("%s: %d window(s), %d skipped for too few valid pixels", Name, len(wins), skipped)
	return out, nil
}

func (p *Processor) activeMetrics() []metric {
	var out []metric
	for _, m := range metrics {
		if p.IsActive(m.name) {
			out = append(out, m)
		}
	}
	return out
}

// evaluate computes the active metrics of one window, or nil when the
// window has fewer valid lai pixels than the threshold.
func (p *Processor) evaluate(w window, lai *raster.Grid, traits []*raster.Grid, active []metric) windowResult {
	numValid := lai.Block(w.r0, w.r1, w.c0, w.c1).CountFinite()
	if numValid < p.settings.ValidThreshold {
		monitoring.Tracef("%s: window (%d,%d) has %d valid %s pixel(s) < %d; skipped",
			Name, w.row, w.col, numValid, VariableLAI, p.settings.ValidThreshold)
		return nil
	}
	samples := w.samples(traits)
	retained := rejectOutliers(samples, numValid, p.settings.ValidThreshold, p.settings.StartPercentile)
	monitoring.Tracef("%s: window (%d,%d) kept %d of %d sample(s)", Name, w.row, w.col, len(retained), len(samples))

	res := make(windowResult, len(active))
	for k, m := range active {
		v, err := m.fn(retained)
		if err != nil {
			monitoring.Tracef("%s: %s undefined at window (%d,%d): %v", Name, m.name, w.row, w.col, err)
			v = math.NaN()
		}
		res[k] = v
	}
	return res
}
