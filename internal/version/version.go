// Package version reports featureguard build information.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// Name is the program name used in output and generated file headers.
const Name = "featureguard"

// These variables are set at build time using -ldflags, e.g.
//
//	-X github.com/conneroisu/featureguard/internal/version.Version=v1.2.0
var (
	Version   = "dev"
	GitCommit = "unknown"
	// BuildTime is RFC3339.
	BuildTime = "unknown"
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Name      string    `json:"name" yaml:"name"`
	Version   string    `json:"version" yaml:"version"`
	GitCommit string    `json:"git_commit" yaml:"git_commit"`
	Dirty     bool      `json:"dirty,omitempty" yaml:"dirty,omitempty"`
	Release   bool      `json:"release" yaml:"release"`
	BuildTime time.Time `json:"build_time,omitempty" yaml:"build_time,omitempty"`
	GoVersion string    `json:"go_version" yaml:"go_version"`
	Platform  string    `json:"platform" yaml:"platform"`
}

// Get returns the build information of the running binary.
func Get() *BuildInfo {
	return fromBuildInfo(debug.ReadBuildInfo())
}

func fromBuildInfo(info *debug.BuildInfo, ok bool) *BuildInfo {
	bi := &BuildInfo{
		Name:      Name,
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: parseTime(BuildTime),
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
	if !ok || info == nil {
		bi.Release = bi.IsRelease()
		return bi
	}

	if bi.Version == "" || bi.Version == "dev" {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			bi.Version = v
		}
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if bi.GitCommit == "" || bi.GitCommit == "unknown" {
				bi.GitCommit = setting.Value
			}
		case "vcs.modified":
			bi.Dirty = setting.Value == "true"
		case "vcs.time":
			if bi.BuildTime.IsZero() {
				bi.BuildTime = parseTime(setting.Value)
			}
		}
	}

	if bi.Version == "dev" && len(bi.GitCommit) >= 7 && bi.GitCommit != "unknown" {
		bi.Version = "dev-" + bi.GitCommit[:7]
	}
	bi.Release = bi.IsRelease()

	return bi
}

// Short returns a one-line version such as "v1.2.0 (abc1234)".
func (b *BuildInfo) Short() string {
	if b.GitCommit == "unknown" || len(b.GitCommit) < 7 || strings.HasPrefix(b.Version, "dev-") {
		return b.Version
	}
	s := fmt.Sprintf("%s (%s)", b.Version, b.GitCommit[:7])
	if b.Dirty {
		s += " dirty"
	}
	return s
}

// IsRelease reports whether the binary carries a release version: a valid
// semantic version without pre-release part.
func (b *BuildInfo) IsRelease() bool {
	v, err := semver.NewVersion(b.Version)
	if err != nil {
		return false
	}
	return v.Prerelease() == ""
}

// String returns a multi-line description with all build info
func (b *BuildInfo) String() string {
	parts := []string{fmt.Sprintf("%s %s", b.Name, b.Version)}
	if !b.Release {
		parts[0] += " (development build)"
	}

	if b.GitCommit != "unknown" {
		commit := b.GitCommit
		if b.Dirty {
			commit += " (dirty)"
		}
		parts = append(parts, "commit:   "+commit)
	}
	if !b.BuildTime.IsZero() {
		parts = append(parts, "built:    "+b.BuildTime.Format(time.RFC3339))
	}
	parts = append(parts, "go:       "+b.GoVersion)
	parts = append(parts, "platform: "+b.Platform)

	return strings.Join(parts, "\n")
}

// parseTime returns the zero time for anything it cannot parse
func parseTime(s string) time.Time {
	if s == "" || s == "unknown" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
