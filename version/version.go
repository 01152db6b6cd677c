// Package version carries build identity injected with -ldflags -X.
package version //nolint:revive // package name intentionally matches build-info convention

import (
	"fmt"
	"runtime/debug"
)

//nolint:gochecknoglobals // set at build time
var (
	Version = ""
	Commit  = ""
	Date    = ""
)

// Current is the injected version, falling back to the module version
// recorded by the Go toolchain and then "dev".
func Current() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// String is the one-line form printed by --version.
func String() string {
	out := Current()
	if Commit != "" {
		out += fmt.Sprintf(" (%s)", Commit)
	}
	if Date != "" {
		out += " built " + Date
	}
	return out
}
