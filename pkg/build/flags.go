// SPDX-License-Identifier: MIT
//
// Package build exposes metadata embedded into the binary at compile
// time through linker flags: name, version, commit hash, and build
// timestamp. Development builds that skip the ldflags get stable "dev"
// placeholders instead of failing.
package build

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Package-level variables populated by -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:        "vizcore",
		Description: "Audio spectrum visualization engine",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
)

// Initialize copies any ldflags-provided values over the development
// defaults. Call once, early in startup.
func Initialize() {
	if buildName != "" {
		buildFlags.Name = buildName
	}
	if buildTime != "" {
		buildFlags.Time = buildTime
	}
	if buildCommit != "" {
		buildFlags.Commit = buildCommit
	}
	if buildVersion != "" {
		buildFlags.Version = buildVersion
	}
}

// GetBuildFlags returns the current build information. Values are the
// development defaults until Initialize runs.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
