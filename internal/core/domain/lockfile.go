package domain

import (
	"slices"
	"strings"
)

// LockSchemaVersion is the only lockfile schema this build understands.
// Unsupported versions fail with ErrLockSchemaMismatch, never migrate.
const LockSchemaVersion = 1

// Lockfile is an ordered mapping from identity to its resolved package, plus
// the fingerprint of the manifest it was generated from.
type Lockfile struct {
	SchemaVersion       int
	ManifestFingerprint Fingerprint
	Packages            []ResolvedPackage
}

// NewLockfile builds a lockfile from a resolved package set, sorted by
// identity so serialization is stable and diffs are minimal.
func NewLockfile(manifestFP Fingerprint, packages []ResolvedPackage) *Lockfile {
	sorted := slices.Clone(packages)
	slices.SortFunc(sorted, func(a, b ResolvedPackage) int {
		return strings.Compare(a.Identity.String(), b.Identity.String())
	})
	return &Lockfile{
		SchemaVersion:       LockSchemaVersion,
		ManifestFingerprint: manifestFP,
		Packages:            sorted,
	}
}

// Package returns the resolved package for an identity, if locked.
func (l *Lockfile) Package(id InternedString) (ResolvedPackage, bool) {
	for _, p := range l.Packages {
		if p.Identity == id {
			return p, true
		}
	}
	return ResolvedPackage{}, false
}

// Fingerprints returns the set of fingerprints the lockfile keeps live,
// used as GC roots for the content store.
func (l *Lockfile) Fingerprints() map[Fingerprint]struct{} {
	live := make(map[Fingerprint]struct{}, len(l.Packages))
	for _, p := range l.Packages {
		live[p.Fingerprint] = struct{}{}
	}
	return live
}

// LockStatus is the result of validating a lockfile against the manifest.
// A stale lock must be re-resolved explicitly before a build proceeds.
type LockStatus struct {
	Fresh   bool
	Reasons []string
}

// FreshStatus is the status of a lock that matches current state.
func FreshStatus() LockStatus {
	return LockStatus{Fresh: true}
}

// StaleStatus names each drifted entry.
func StaleStatus(reasons ...string) LockStatus {
	return LockStatus{Reasons: reasons}
}
