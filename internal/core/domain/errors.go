package domain

import "go.trai.ch/zerr"

var (
	// ErrUnreachableSource is returned when a dependency source cannot be contacted.
	ErrUnreachableSource = zerr.New("source is unreachable")

	// ErrAmbiguousRef is returned when a floating VCS ref matches nothing at the remote.
	ErrAmbiguousRef = zerr.New("ref matches nothing at the remote")

	// ErrUnknownSourceKind is returned when a dependency declaration matches no known source kind.
	ErrUnknownSourceKind = zerr.New("unknown source kind")

	// ErrRevisionUnavailable is returned when the registry no longer serves a locked revision.
	ErrRevisionUnavailable = zerr.New("requested revision not available from the registry")

	// ErrCyclicDependency is returned when the dependency graph contains a cycle.
	ErrCyclicDependency = zerr.New("dependency cycle detected")

	// ErrConflictingSourceKind is returned when the same identity is declared with two different source kinds.
	ErrConflictingSourceKind = zerr.New("package declared with conflicting source kinds")

	// ErrUnsatisfiableConstraints is returned when no single revision satisfies every constraint on an identity.
	ErrUnsatisfiableConstraints = zerr.New("unsatisfiable version constraints")

	// ErrInvalidConstraint is returned when a version constraint cannot be parsed.
	ErrInvalidConstraint = zerr.New("invalid version constraint")

	// ErrResolutionDepthExceeded is returned when the resolver exhausts its backtracking budget.
	ErrResolutionDepthExceeded = zerr.New("resolution exceeded backtracking budget")

	// ErrCorruptLockfile is returned when the lockfile cannot be parsed.
	ErrCorruptLockfile = zerr.New("lockfile is corrupt")

	// ErrLockSchemaMismatch is returned when the lockfile schema version is unsupported.
	ErrLockSchemaMismatch = zerr.New("unsupported lockfile schema version")

	// ErrStaleLockfile is returned when the lockfile no longer matches the manifest.
	ErrStaleLockfile = zerr.New("lockfile is stale, run 'largo resolve' to regenerate it")

	// ErrLockfileNotFound is returned when no lockfile exists for the project.
	ErrLockfileNotFound = zerr.New("no lockfile found, run 'largo resolve' to create one")

	// ErrMissingEntry is returned when a fingerprint is not present in the content store.
	ErrMissingEntry = zerr.New("entry not found in content store")

	// ErrStoreIO is returned when a content store filesystem operation fails.
	ErrStoreIO = zerr.New("content store I/O failure")

	// ErrStoreLockTimeout is returned when the per-fingerprint advisory lock cannot be acquired.
	ErrStoreLockTimeout = zerr.New("timed out waiting for content store lock")

	// ErrPartialEject is returned when an eject run is interrupted before all packages are vendored.
	ErrPartialEject = zerr.New("eject incomplete, re-run to vendor the remaining packages")

	// ErrUnknownFeature is returned when a profile enables a feature no dependency declares.
	ErrUnknownFeature = zerr.New("profile enables an undeclared feature")

	// ErrUnknownProfile is returned when a requested build profile is not defined.
	ErrUnknownProfile = zerr.New("profile not found")

	// ErrManifestNotFound is returned when no project manifest exists in or above the working directory.
	ErrManifestNotFound = zerr.New("could not find " + ManifestFileName)

	// ErrManifestParseFailed is returned when the manifest cannot be parsed.
	ErrManifestParseFailed = zerr.New("failed to parse manifest")

	// ErrConfigParseFailed is returned when the global config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse global config")

	// ErrBibliographyUnavailable is returned when the configured bibliography reference cannot be read.
	ErrBibliographyUnavailable = zerr.New("bibliography reference unavailable")
)
