package postproc

import (
	"strings"

	"github.com/banshee-data/indicator.report/internal/monitoring"
)

// SelectIndicators returns the requested indicators that processor declares,
// in request order and without repeats. An empty request selects every
// declared indicator. Unsupported names are dropped and reported on the ops
// stream.
func SelectIndicators(processor string, declared, requested []string) []string {
	if len(requested) == 0 {
		return append([]string(nil), declared...)
	}
	supported := make(map[string]bool, len(declared))
	for _, d := range declared {
		supported[d] = true
	}
	seen := make(map[string]bool, len(requested))
	var active, dropped []string
	for _, r := range requested {
		if seen[r] {
			continue
		}
		seen[r] = true
		if supported[r] {
			active = append(active, r)
		} else {
			dropped = append(dropped, r)
		}
	}
	if len(dropped) > 0 {
		monitoring.Opsf("post processor %s does not support indicator(s) %s; ignoring",
			processor, strings.Join(dropped, ", "))
	}
	return active
}
