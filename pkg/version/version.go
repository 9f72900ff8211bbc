// Package version provides build and version information for ragindex.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Build information, set via ldflags:
//
//	-X github.com/groeimetai/groeimetai-platform-sub011/pkg/version.Version=v1.2.3
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// BuildInfo is structured version information for JSON output.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// GetInfo returns structured version information. When Commit was not set
// at link time the VCS revision recorded by the go tool is used.
func GetInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	if bi, ok := readBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "unknown" && s.Value != "" {
					info.Commit = shortRevision(s.Value)
				}
			case "vcs.time":
				if info.Date == "unknown" && s.Value != "" {
					info.Date = s.Value
				}
			}
		}
	}
	return info
}

// String returns a formatted version string with all build info.
func String() string {
	info := GetInfo()
	return fmt.Sprintf("ragindex %s (commit: %s, built: %s, go: %s, %s/%s)",
		info.Version, info.Commit, info.Date, info.GoVersion, info.OS, info.Arch)
}

// Short returns just the version string.
func Short() string {
	return Version
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
