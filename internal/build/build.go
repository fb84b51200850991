// Package build holds build-time version metadata, injected via ldflags.
package build

var (
	// Version is the semantic version of this build.
	Version = "dev"

	// Commit is the VCS revision this binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)
