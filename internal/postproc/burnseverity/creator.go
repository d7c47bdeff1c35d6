package burnseverity

import (
	"github.com/banshee-data/indicator.report/internal/observations"
	"github.com/banshee-data/indicator.report/internal/postproc"
)

// Creator registers the burn-severity processor.
type Creator struct{}

var _ postproc.Creator = Creator{}

func (Creator) Name() string         { return Name }
func (Creator) Description() string  { return description }
func (Creator) Type() postproc.Type  { return postproc.EODataPostProcessor }
func (Creator) Indicators() []string { return []string{IndicatorGeoCBI} }

func (Creator) RequiredInputTypes() []string {
	return []string{observations.DataTypeAWSS2L2}
}

func (Creator) Create(indicatorNames []string) (postproc.PostProcessor, error) {
	return New(indicatorNames)
}
