// Package buildinfo reports how the binary was built.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// Version returns the module version or "dev" when unset.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return "dev"
	}
	version := info.Main.Version
	if version == "" || version == "(devel)" {
		return "dev"
	}
	return version
}

// Tags returns the GOFLAGS build tags recorded at compile time.
func Tags() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "-tags" {
			return setting.Value
		}
	}
	return ""
}

// VersionWithTags returns the version string, the backend used when none is
// configured and the build tags if present.
func VersionWithTags(defaultBackend string) string {
	return format(Version(), defaultBackend, Tags())
}

func format(version, defaultBackend, tags string) string {
	s := fmt.Sprintf("%s (default backend: %s", version, defaultBackend)
	if tags != "" {
		s += ", tags: " + tags
	}
	return s + ")"
}
