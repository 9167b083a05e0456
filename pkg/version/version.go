// Package version holds build-time version info injected via ldflags.
//
//	go build -ldflags "-X github.com/NicolasHaas/gosanction/pkg/version.tag=v1.0.0
//	  -X github.com/NicolasHaas/gosanction/pkg/version.commit=abc1234
//	  -X github.com/NicolasHaas/gosanction/pkg/version.date=2026-01-01"
package version

import "runtime/debug"

var (
	tag    = ""        // git tag, empty if not on a tag
	commit = "unknown" // short git commit SHA
	date   = "unknown" // build date (ISO 8601)
)

// String returns the tag, else the commit, else "dev".
func String() string {
	if tag != "" {
		return tag
	}
	if c := Commit(); c != "unknown" {
		return c
	}
	return "dev"
}

// Full returns "tag (commit) built date" or a shorter fallback.
func Full() string {
	switch {
	case tag != "":
		return tag + " (" + Commit() + ") built " + date
	case Commit() != "unknown":
		return Commit() + " built " + date
	default:
		return "dev"
	}
}

// Commit returns the commit set at link time, or the VCS revision recorded by
// the toolchain.
func Commit() string {
	if commit != "unknown" {
		return commit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return commit
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return commit
}

// Date returns the build date.
func Date() string { return date }
