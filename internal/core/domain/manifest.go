package domain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// TeX engine and format names recognized in manifests. The engine x format
// pair selects the executable the external typesetting invocation runs.
const (
	FormatTeX   = "tex"
	FormatLaTeX = "latex"

	EngineTeX    = "tex"
	EnginePDFTeX = "pdftex"
	EngineXeTeX  = "xetex"
	EngineLuaTeX = "luatex"

	BibEngineBiber = "biber"
)

// SystemSettings select the document preparation system for a project.
type SystemSettings struct {
	TexFormat string
	TexEngine string
	BibEngine string
}

// ProjectSettings are the build parameters a profile may override.
// Pointer fields distinguish "unset" from an explicit false.
type ProjectSettings struct {
	OutputFormat string
	ShellEscape  *bool
	SyncTeX      *bool
}

// Merged returns a copy of s with every field that is set in o replacing the
// corresponding field of s.
func (s ProjectSettings) Merged(o ProjectSettings) ProjectSettings {
	out := s
	if o.OutputFormat != "" {
		out.OutputFormat = o.OutputFormat
	}
	if o.ShellEscape != nil {
		out.ShellEscape = o.ShellEscape
	}
	if o.SyncTeX != nil {
		out.SyncTeX = o.SyncTeX
	}
	return out
}

// Dependency is one declared dependency of a manifest.
type Dependency struct {
	Source SourceSpec

	// Feature gates the dependency behind a profile feature flag.
	// Empty means the dependency is always materialized.
	Feature string
}

// Manifest is the parsed project (or package) manifest handed to the core.
type Manifest struct {
	Name         string
	Root         string // absolute directory containing the manifest; empty for package manifests
	System       SystemSettings
	Settings     ProjectSettings
	Dependencies map[string]Dependency
	Profiles     map[string]BuildProfile
}

// DependencyNames returns the declared dependency names in sorted order.
func (m *Manifest) DependencyNames() []string {
	names := make([]string, 0, len(m.Dependencies))
	for name := range m.Dependencies {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DeclaredFeatures returns every feature flag any dependency is gated behind.
func (m *Manifest) DeclaredFeatures() map[string]struct{} {
	features := map[string]struct{}{}
	for _, dep := range m.Dependencies {
		if dep.Feature != "" {
			features[dep.Feature] = struct{}{}
		}
	}
	return features
}

// Fingerprint hashes the manifest's dependency declarations. The lockfile
// stores it and goes stale exactly when these declarations change; profile
// and settings edits do not force a re-resolution.
func (m *Manifest) Fingerprint() Fingerprint {
	h := xxhash.New()
	_, _ = h.WriteString(m.Name)
	_, _ = h.Write([]byte{0})
	for _, name := range m.DependencyNames() {
		dep := m.Dependencies[name]
		_, _ = h.WriteString(name)
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(dep.Source.ID())
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(dep.Source.ConstraintString())
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(dep.Feature)
		_, _ = h.Write([]byte{0})
	}
	return Fingerprint(fmt.Sprintf("%016x", h.Sum64()))
}

// BibliographyRef points at the global bibliography: either a filesystem path
// or a remote endpoint fetched once, synchronously, at eject time.
type BibliographyRef struct {
	Path string
	URL  string
}

// IsZero reports whether no bibliography is configured.
func (b BibliographyRef) IsZero() bool {
	return b.Path == "" && b.URL == ""
}

// IsRemote reports whether the reference requires a network fetch.
func (b BibliographyRef) IsRemote() bool {
	return b.URL != ""
}

// String returns the configured location.
func (b BibliographyRef) String() string {
	if b.URL != "" {
		return b.URL
	}
	return b.Path
}

// GlobalConfig is the user-level configuration, merged under project
// settings. It is parsed by the config adapter before the core runs.
type GlobalConfig struct {
	DefaultProfile   string
	DefaultTexFormat string
	DefaultTexEngine string
	Bibliography     BibliographyRef

	// Executables overrides the engine executable names, keyed by the
	// conventional name (e.g. "pdflatex").
	Executables map[string]string
}

// DefaultGlobalConfig is the configuration used when no config file exists.
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		DefaultProfile:   DevProfileName,
		DefaultTexFormat: FormatLaTeX,
		DefaultTexEngine: EnginePDFTeX,
	}
}

// Executable maps an engine x format pair to the executable name, honoring
// any user override. Unknown pairs fall back to the latex family.
func (c *GlobalConfig) Executable(engine, format string) string {
	name := executableName(engine, format)
	if override, ok := c.Executables[name]; ok && override != "" {
		return override
	}
	return name
}

func executableName(engine, format string) string {
	latex := format == FormatLaTeX
	switch engine {
	case EngineTeX:
		if latex {
			return "latex"
		}
		return "tex"
	case EngineXeTeX:
		if latex {
			return "xelatex"
		}
		return "xetex"
	case EngineLuaTeX:
		if latex {
			return "lualatex"
		}
		return "luatex"
	default:
		if latex {
			return "pdflatex"
		}
		return "pdftex"
	}
}

// NormalizeName lowercases and trims a package or profile name for lookup.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
