// Package version carries build metadata injected with -ldflags.
package version

import "fmt"

var (
	// Version is the release version of the indicators tool.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String renders the version line printed by the CLI.
func String() string {
	return fmt.Sprintf("indicators %s (%s, built %s)", Version, GitSHA, BuildTime)
}
