package observations

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/banshee-data/indicator.report/internal/raster"
)

// ErrMissingBand is returned when an observation lacks a requested band.
var ErrMissingBand = errors.New("band not present in observation")

// Observation is the band data of one acquisition date.
type Observation struct {
	Date     time.Time
	DataType string
	Bands    map[string]*raster.Grid
}

// Observations wraps the EO observations of a run in chronological order.
type Observations struct {
	items []Observation
}

// New returns the observations sorted by date.
func New(items ...Observation) *Observations {
	sorted := append([]Observation(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	return &Observations{items: sorted}
}

// Len returns the number of observation dates.
func (o *Observations) Len() int { return len(o.items) }

// Dates returns the acquisition date keys in chronological order.
func (o *Observations) Dates() []string {
	out := make([]string, len(o.items))
	for i, it := range o.items {
		out[i] = it.Date.Format(DateLayout)
	}
	return out
}

// DataType returns the declared EO data type of the i-th date.
func (o *Observations) DataType(i int) string { return o.items[i].DataType }

// Band returns the named band of the i-th date.
func (o *Observations) Band(i int, name string) (*raster.Grid, error) {
	if i < 0 || i >= len(o.items) {
		return nil, fmt.Errorf("observation index %d out of range [0,%d)", i, len(o.items))
	}
	g, ok := o.items[i].Bands[name]
	if !ok || g == nil {
		return nil, fmt.Errorf("%w: %s on %s", ErrMissingBand, name, o.items[i].Date.Format(DateLayout))
	}
	return g, nil
}
