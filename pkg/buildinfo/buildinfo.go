// Package buildinfo holds the values stamped into the binary at link time.
//
// buildstamp stamps its own builds the same way it stamps the projects it
// builds:
//
//	go build -ldflags "-X git.home.luguber.info/inful/buildstamp/pkg/buildinfo.Version=v1.2.0"
package buildinfo

import "runtime/debug"

// Build-time variables injected via -ldflags; empty for dev builds.
var (
	Version   = ""
	GitHash   = ""
	GitRepo   = ""
	BuildRoot = ""
)

// CurrentVersion returns the stamped version, falling back to the module
// version recorded by the go tool and then to "dev".
func CurrentVersion() string {
	if Version != "" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return "dev"
}

// Summary returns a human-readable version summary string.
func Summary() string {
	s := CurrentVersion()
	if GitHash != "" {
		hash := GitHash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		s += " (" + hash + ")"
	}
	if GitRepo != "" {
		s += " " + GitRepo
	}
	return s
}
