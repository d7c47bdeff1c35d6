package fdiversity

import (
	"github.com/banshee-data/indicator.report/internal/config"
	"github.com/banshee-data/indicator.report/internal/postproc"
)

// Creator registers the functional-diversity processor. A nil Config uses
// the built-in window defaults.
type Creator struct {
	Config *config.ProcessingConfig
}

var _ postproc.Creator = Creator{}

func (Creator) Name() string        { return Name }
func (Creator) Description() string { return description }
func (Creator) Type() postproc.Type { return postproc.VariablePostProcessor }

func (Creator) Indicators() []string {
	out := make([]string, len(metrics))
	for i, m := range metrics {
		out[i] = m.name
	}
	return out
}

func (Creator) RequiredInputTypes() []string {
	return []string{VariableLAI, VariableCW, VariableCAB}
}

func (c Creator) Create(indicatorNames []string) (postproc.PostProcessor, error) {
	cfg := c.Config
	if cfg == nil {
		cfg = config.EmptyProcessingConfig()
	}
	return New(indicatorNames, SettingsFromConfig(cfg))
}
