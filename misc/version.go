// Package misc keeps program identity which is set at build time.
package misc

import "runtime/debug"

// Set with -ldflags "-X atomcss/misc.version=... -X atomcss/misc.gitHash=...".
var (
	version = "dev"
	gitHash = ""
)

func GetAppName() string {
	return "atomcss"
}

func GetVersion() string {
	return version
}

// GetGitHash returns commit the program was built from, falling back to VCS
// information stamped by the go tool.
func GetGitHash() string {
	if len(gitHash) > 0 {
		return gitHash
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
