// Package builtin registers the post processors compiled into the binary.
package builtin

import (
	"github.com/banshee-data/indicator.report/internal/config"
	"github.com/banshee-data/indicator.report/internal/postproc"
	"github.com/banshee-data/indicator.report/internal/postproc/burnseverity"
	"github.com/banshee-data/indicator.report/internal/postproc/fdiversity"
)

// Register adds every built-in creator to r. cfg tunes the moving-window
// processors and may be nil.
func Register(r *postproc.Registry, cfg *config.ProcessingConfig) error {
	for _, c := range []postproc.Creator{
		burnseverity.Creator{},
		fdiversity.Creator{Config: cfg},
	} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
