// Package version reports the build identity of searchctl.
//
// The commit comes from -ldflags when set, otherwise from the VCS stamp in
// debug.BuildInfo, otherwise "dev".
package version

import (
	"runtime"
	"runtime/debug"
)

// AppName is the application name used in version strings and User-Agent headers.
const AppName = "searchctl"

// gitCommitOverride is set via -ldflags at build time for container builds
// where .git is unavailable.
var gitCommitOverride string

// GitCommit is the short (8 char) commit hash, or "dev".
var GitCommit = resolveCommit(gitCommitOverride, readSettings())

// Info is the build identity reported by `searchctl version` and /health.
type Info struct {
	App       string `json:"app"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
	Modified  bool   `json:"modified,omitempty"`
}

// Get returns the current build Info.
func Get() Info {
	settings := readSettings()
	return Info{
		App:       AppName,
		Commit:    GitCommit,
		GoVersion: runtime.Version(),
		Modified:  settings["vcs.modified"] == "true",
	}
}

// Full returns "searchctl/<commit>" for User-Agent strings and logs.
func Full() string {
	return AppName + "/" + GitCommit
}

func readSettings() map[string]string {
	out := make(map[string]string)
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}
	for _, s := range info.Settings {
		out[s.Key] = s.Value
	}
	return out
}

func resolveCommit(override string, settings map[string]string) string {
	commit := override
	if commit == "" {
		commit = settings["vcs.revision"]
	}
	if commit == "" {
		return "dev"
	}
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
