package domain

// SourceKind discriminates the closed set of dependency source kinds.
// Every consumer switches exhaustively over it; adding a kind is a
// compile-visible change in each switch.
type SourceKind uint8

const (
	// SourceLocal is a filesystem path, treated as always latest.
	SourceLocal SourceKind = iota
	// SourceVCS is a version-control repository plus a ref or pinned revision.
	SourceVCS
	// SourceRegistry is a named registry package plus a version constraint.
	SourceRegistry
)

// String returns the kind name used in lockfiles and error context.
func (k SourceKind) String() string {
	switch k {
	case SourceLocal:
		return "local"
	case SourceVCS:
		return "vcs"
	case SourceRegistry:
		return "registry"
	default:
		return "unknown"
	}
}

// ParseSourceKind is the inverse of SourceKind.String.
func ParseSourceKind(s string) (SourceKind, bool) {
	switch s {
	case "local":
		return SourceLocal, true
	case "vcs":
		return SourceVCS, true
	case "registry":
		return SourceRegistry, true
	default:
		return 0, false
	}
}

// SourceSpec is a tagged variant describing where a dependency comes from.
// Exactly the fields of the active kind are set.
type SourceSpec struct {
	Kind SourceKind

	// Path is the filesystem path of a local source.
	Path string

	// Repo is the repository location of a VCS source, Ref its floating
	// ref (branch or tag) or pinned 40-hex revision.
	Repo string
	Ref  string

	// Name is the registry package name, Constraint its version range.
	Name       string
	Constraint Constraint
}

// LocalSource declares a filesystem path dependency.
func LocalSource(path string) SourceSpec {
	return SourceSpec{Kind: SourceLocal, Path: path}
}

// VCSSource declares a version-control dependency.
func VCSSource(repo, ref string) SourceSpec {
	return SourceSpec{Kind: SourceVCS, Repo: repo, Ref: ref}
}

// RegistrySource declares a named registry dependency.
func RegistrySource(name string, c Constraint) SourceSpec {
	return SourceSpec{Kind: SourceRegistry, Name: name, Constraint: c}
}

// ID returns the canonical source location identifier, independent of
// revision. It feeds the content fingerprint, so its format must stay stable.
func (s SourceSpec) ID() string {
	switch s.Kind {
	case SourceLocal:
		return "local:" + s.Path
	case SourceVCS:
		return "vcs:" + s.Repo
	case SourceRegistry:
		return "registry:" + s.Name
	default:
		return "unknown:"
	}
}

// ConstraintString returns the human-readable requirement this spec places on
// a revision, used in conflict reports.
func (s SourceSpec) ConstraintString() string {
	switch s.Kind {
	case SourceLocal:
		return "path " + s.Path
	case SourceVCS:
		return s.Repo + "@" + s.Ref
	case SourceRegistry:
		return s.Constraint.String()
	default:
		return "unknown"
	}
}
