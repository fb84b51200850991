package domain

import "slices"

const (
	// DevProfileName is the default profile selected when none is requested.
	DevProfileName = "dev"

	// ReleaseProfileName is the second standard profile.
	ReleaseProfileName = "release"
)

// BuildProfile is a named build channel: the feature flags it enables and the
// settings it overrides. Profiles never change package identities, only which
// optional subset of the resolved graph is materialized.
type BuildProfile struct {
	Name      string
	Features  []string
	Overrides ProjectSettings
}

// EnablesFeature reports whether the profile enables the given flag.
func (p BuildProfile) EnablesFeature(flag string) bool {
	return slices.Contains(p.Features, flag)
}

// StandardProfiles returns the dev and release profiles that exist for every
// project, before any manifest-declared profiles are merged over them.
func StandardProfiles() map[string]BuildProfile {
	return map[string]BuildProfile{
		DevProfileName:     {Name: DevProfileName},
		ReleaseProfileName: {Name: ReleaseProfileName},
	}
}

// BuildParameters are the concrete values handed to the external typesetting
// invocation for one profile.
type BuildParameters struct {
	Executable   string
	OutputFormat string
	ShellEscape  *bool
	SyncTeX      *bool
	BibEngine    string
	OutputDir    string
}

// MaterializedBuild is the projection of a resolved graph onto one profile:
// the active packages and the effective build parameters.
type MaterializedBuild struct {
	Profile    string
	Packages   []ResolvedPackage // sorted by identity
	Parameters BuildParameters
}

// Fingerprints returns the content fingerprints of the active packages.
func (b *MaterializedBuild) Fingerprints() []Fingerprint {
	fps := make([]Fingerprint, len(b.Packages))
	for i, p := range b.Packages {
		fps[i] = p.Fingerprint
	}
	return fps
}
