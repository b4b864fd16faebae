package version

import (
	"runtime/debug"
	"sync"
)

// Name of the tool as reported to MCP clients and in --version output
const Name = "demystify"

// Version information, overridable with -ldflags "-X ..."
var (
	// Version is the current semantic version
	Version = "0.2.0"

	// BuildDate is set during build time
	BuildDate = "development"

	// GitCommit is set during build time; Revision falls back to VCS info
	GitCommit = "unknown"
)

// Info returns version information as a string
func Info() string {
	return Version
}

// FullInfo returns detailed version information
func FullInfo() string {
	return Name + " " + Version + " (commit: " + Revision() + ", built: " + BuildDate + ")"
}

var (
	revision     string
	revisionOnce sync.Once
)

// Revision returns GitCommit, or the VCS revision embedded by the Go
// toolchain when the build did not set it
func Revision() string {
	revisionOnce.Do(func() {
		revision = GitCommit
		if revision != "unknown" {
			return
		}
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				revision = s.Value
				if len(revision) > 12 {
					revision = revision[:12]
				}
			}
		}
	})
	return revision
}
