package common

import (
	"fmt"
	"runtime/debug"
)

// Version variables injected at build time via ldflags
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// BuildInfo describes the running binary
type BuildInfo struct {
	Version string `json:"version"`
	Build   string `json:"build"`
	Commit  string `json:"commit"`
}

// GetBuildInfo returns version details. When ldflags were not provided the
// commit and build time fall back to the VCS stamp embedded by the go tool.
func GetBuildInfo() BuildInfo {
	info := BuildInfo{Version: Version, Build: Build, Commit: GitCommit}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" && len(s.Value) >= 7 {
				info.Commit = s.Value[:7]
			}
		case "vcs.time":
			if info.Build == "unknown" {
				info.Build = s.Value
			}
		}
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	return info
}

// String returns a formatted version string with all build info
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (build: %s, commit: %s)", b.Version, b.Build, b.Commit)
}
