package postproc

import (
	"fmt"

	"github.com/banshee-data/indicator.report/internal/indicators"
	"github.com/banshee-data/indicator.report/internal/observations"
	"github.com/banshee-data/indicator.report/internal/raster"
)

// Type tags the flavour of a post processor.
type Type int

const (
	// VariablePostProcessor consumes bio-physical variables of one date.
	VariablePostProcessor Type = iota
	// EODataPostProcessor consumes EO band data of several dates.
	EODataPostProcessor
)

func (t Type) String() string {
	switch t {
	case VariablePostProcessor:
		return "variable"
	case EODataPostProcessor:
		return "eo-data"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// PostProcessor is the capability shared by both flavours.
type PostProcessor interface {
	Name() string
	Description() string
	Type() Type
	// Indicators lists every indicator the processor can produce.
	Indicators() []indicators.Description
	// ActiveIndicators lists the short names selected for this run, always a
	// subset of Indicators.
	ActiveIndicators() []string
	// NumTimeSteps is the number of dates one invocation consumes.
	NumTimeSteps() int
}

// VariableProcessor derives indicators from variable rasters keyed by
// variable name. Results are keyed by indicator short name.
type VariableProcessor interface {
	PostProcessor
	RequiredVariables() []string
	ProcessVariables(variables map[string]*raster.Grid) (map[string]*raster.Grid, error)
}

// EODataProcessor derives indicators from dated band observations. Results
// are keyed by indicator short name.
type EODataProcessor interface {
	PostProcessor
	SupportedDataTypes() []string
	// RequiredBands returns the band names to load for dataType, or nil when
	// the type is unsupported.
	RequiredBands(dataType string) []string
	// NoData returns the sentinel of dataType's bands and outputs.
	NoData(dataType string) float64
	ProcessObservations(obs *observations.Observations) (map[string]*raster.Grid, error)
}

// Creator describes a post processor and builds instances of it.
type Creator interface {
	Name() string
	Description() string
	Type() Type
	// Indicators lists the declared indicator short names.
	Indicators() []string
	// RequiredInputTypes lists the EO data types or variable names consumed.
	RequiredInputTypes() []string
	// Create builds a processor computing the requested indicators. An empty
	// request selects all declared indicators.
	Create(indicatorNames []string) (PostProcessor, error)
}

// Base carries the state common to every processor. Concrete processors
// embed it.
type Base struct {
	name        string
	description string
	typ         Type
	declared    []indicators.Description
	active      []string
	steps       int
}

// NewBase resolves the declared indicators in the catalog and selects the
// requested subset.
func NewBase(name, description string, typ Type, declared, requested []string, steps int) (Base, error) {
	descs := make([]indicators.Description, 0, len(declared))
	for _, short := range declared {
		d, err := indicators.Lookup(short)
		if err != nil {
			return Base{}, fmt.Errorf("post processor %s: %w", name, err)
		}
		descs = append(descs, d)
	}
	return Base{
		name:        name,
		description: description,
		typ:         typ,
		declared:    descs,
		active:      SelectIndicators(name, declared, requested),
		steps:       steps,
	}, nil
}

func (b Base) Name() string        { return b.name }
func (b Base) Description() string { return b.description }
func (b Base) Type() Type          { return b.typ }
func (b Base) NumTimeSteps() int   { return b.steps }

func (b Base) Indicators() []indicators.Description {
	return append([]indicators.Description(nil), b.declared...)
}

func (b Base) ActiveIndicators() []string {
	return append([]string(nil), b.active...)
}

// IsActive reports whether short was selected for this run.
func (b Base) IsActive(short string) bool {
	for _, a := range b.active {
		if a == short {
			return true
		}
	}
	return false
}
