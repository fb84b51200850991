package domain

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint is the content-addressed identifier of a package's contents in
// the store. It is a pure function of (source kind, source id, revision), so
// it can be computed before any content is fetched.
type Fingerprint string

// ComputeFingerprint derives the store fingerprint for a source at a concrete
// revision. Identical inputs always produce the identical fingerprint; for
// local sources the revision embeds a content hash, so edits to the path
// change the fingerprint too.
func ComputeFingerprint(spec SourceSpec, revision string) Fingerprint {
	h := xxhash.New()
	_, _ = h.WriteString(spec.Kind.String())
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(spec.ID())
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(revision)
	return Fingerprint(fmt.Sprintf("%016x", h.Sum64()))
}

// ResolvedPackage is one identity pinned to one concrete revision.
// Within a resolved graph each identity maps to exactly one ResolvedPackage.
type ResolvedPackage struct {
	Identity    InternedString
	Kind        SourceKind
	Source      string // canonical source id, see SourceSpec.ID
	Revision    string // commit hash, registry version, or local path@hash
	Fingerprint Fingerprint
}

// NewResolvedPackage pins an identity to a revision of the given source and
// computes its fingerprint.
func NewResolvedPackage(identity InternedString, spec SourceSpec, revision string) ResolvedPackage {
	return ResolvedPackage{
		Identity:    identity,
		Kind:        spec.Kind,
		Source:      spec.ID(),
		Revision:    revision,
		Fingerprint: ComputeFingerprint(spec, revision),
	}
}
