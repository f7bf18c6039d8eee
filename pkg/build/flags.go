// SPDX-License-Identifier: MIT
//
// Package build carries the build metadata (name, timestamp, commit and
// version) that release builds inject with linker flags:
//
//	go build -ldflags "-X samplex/pkg/build.buildName=samplex \
//	  -X samplex/pkg/build.buildVersion=0.3.0 ..."
//
// Development builds inject nothing; Initialize then falls back to the module
// information the Go toolchain embeds in every binary.
package build

import (
	"fmt"
	"runtime/debug"
)

const (
	defaultName        = "samplex"
	defaultDescription = "Sample browser with real-time playback analysis"
)

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
		Name:        defaultName,
		Description: defaultDescription,
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}

	readBuildInfo = debug.ReadBuildInfo
)

// Initialize copies the linker-injected values into the build flags. When no
// value was injected the toolchain's embedded build info is used instead. A
// partially injected set is rejected, since it means the release script is
// broken.
func Initialize() error {
	if buildName == "" && buildTime == "" && buildCommit == "" && buildVersion == "" {
		fromBuildInfo()
		return nil
	}

	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion

	return nil
}

func fromBuildInfo() {
	info, ok := readBuildInfo()
	if !ok {
		return
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		buildFlags.Version = v
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			buildFlags.Commit = s.Value
		case "vcs.time":
			buildFlags.Time = s.Value
		}
	}
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
