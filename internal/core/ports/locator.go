// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/largo/internal/core/domain"
)

//go:generate mockgen -source=locator.go -destination=mocks/mock_locator.go -package=mocks

// SourceLocator resolves a dependency declaration to a concrete revision
// without fetching full contents when avoidable.
//
// Implementations perform network I/O but never retry internally; backoff
// policy is centralized at the content store fetch boundary.
type SourceLocator interface {
	// Locate returns the concrete revision for a source spec: a commit hash
	// for VCS refs, the highest constraint-satisfying version for registry
	// packages, or path@contenthash for local paths (re-hashed every call so
	// drift is detected, never cached away).
	Locate(ctx context.Context, spec domain.SourceSpec) (string, error)

	// Candidates lists a registry package's known versions in descending
	// order. The resolver searches this list during backtracking.
	Candidates(ctx context.Context, name string) ([]string, error)
}

// SourceFetcher materializes the contents of a located source. The content
// store owns caching, deduplication, and atomic publication; the fetcher only
// knows the transport for each source kind.
type SourceFetcher interface {
	// FetchInto writes the full contents of (spec, revision) into dir.
	FetchInto(ctx context.Context, spec domain.SourceSpec, revision, dir string) error
}
