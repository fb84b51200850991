// Package materializer projects a resolved dependency graph onto one build
// profile: which packages are active and which parameters the typesetting
// invocation receives. It is a pure projection, no I/O and no lockfile
// mutation.
package materializer

import (
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/largo/internal/core/domain"
	"go.trai.ch/largo/internal/core/ports"
	"go.trai.ch/zerr"
)

// Materializer filters resolved graphs by profile.
type Materializer struct {
	logger ports.Logger
}

// NewMaterializer creates a Materializer with the given dependencies.
func NewMaterializer(logger ports.Logger) *Materializer {
	return &Materializer{logger: logger}
}

// Inputs is a resolved project plus the profile to project it onto.
type Inputs struct {
	Manifest *domain.Manifest
	Graph    *domain.DependencyGraph
	Packages []domain.ResolvedPackage

	// Profile is the requested profile name. Empty selects the global
	// default.
	Profile string

	Global *domain.GlobalConfig
}

// Materialize returns the active packages and effective build parameters for
// the requested profile.
func (m *Materializer) Materialize(in Inputs) (*domain.MaterializedBuild, error) {
	profile, err := m.selectProfile(in)
	if err != nil {
		return nil, err
	}
	if err := m.checkFeatures(in.Manifest, profile); err != nil {
		return nil, err
	}

	active := m.activePackages(in, profile)
	return &domain.MaterializedBuild{
		Profile:    profile.Name,
		Packages:   active,
		Parameters: m.parameters(in, profile),
	}, nil
}

func (m *Materializer) selectProfile(in Inputs) (domain.BuildProfile, error) {
	name := domain.NormalizeName(in.Profile)
	if name == "" {
		name = in.Global.DefaultProfile
	}
	profile, ok := in.Manifest.Profiles[name]
	if !ok {
		err := zerr.With(zerr.Wrap(domain.ErrUnknownProfile, "selecting build profile"), "profile", name)
		return domain.BuildProfile{}, zerr.With(err, "defined", profileNames(in.Manifest))
	}
	return profile, nil
}

// checkFeatures rejects profiles referencing flags no dependency declares.
// A typo in a profile must fail loudly instead of silently materializing
// everything.
func (m *Materializer) checkFeatures(manifest *domain.Manifest, profile domain.BuildProfile) error {
	declared := manifest.DeclaredFeatures()
	for _, flag := range profile.Features {
		if _, ok := declared[flag]; !ok {
			err := zerr.With(zerr.Wrap(domain.ErrUnknownFeature, "checking profile features"), "feature", flag)
			err = zerr.With(err, "profile", profile.Name)
			return zerr.With(err, "declared", sortedKeys(declared))
		}
	}
	return nil
}

// activePackages walks the graph from the project root, skipping direct
// dependencies gated behind a feature the profile does not enable. Packages
// only reachable through a skipped dependency drop out with it; packages not
// flag-gated are always included.
func (m *Materializer) activePackages(in Inputs, profile domain.BuildProfile) []domain.ResolvedPackage {
	reachable := map[domain.InternedString]bool{}
	frontier := []domain.InternedString{}
	for name, dep := range in.Manifest.Dependencies {
		if dep.Feature != "" && !profile.EnablesFeature(dep.Feature) {
			continue
		}
		id := domain.NewInternedString(name)
		if !reachable[id] {
			reachable[id] = true
			frontier = append(frontier, id)
		}
	}

	edges := in.Graph.Edges()
	for len(frontier) > 0 {
		from := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		for _, e := range edges {
			if e.From != from || reachable[e.To] {
				continue
			}
			reachable[e.To] = true
			frontier = append(frontier, e.To)
		}
	}

	var active []domain.ResolvedPackage
	for _, pkg := range in.Packages {
		if reachable[pkg.Identity] {
			active = append(active, pkg)
		}
	}
	slices.SortFunc(active, func(a, b domain.ResolvedPackage) int {
		return strings.Compare(a.Identity.String(), b.Identity.String())
	})
	return active
}

// parameters merges profile overrides over project settings and fills the
// gaps from the user-level defaults.
func (m *Materializer) parameters(in Inputs, profile domain.BuildProfile) domain.BuildParameters {
	settings := in.Manifest.Settings.Merged(profile.Overrides)

	engine := in.Manifest.System.TexEngine
	if engine == "" {
		engine = in.Global.DefaultTexEngine
	}
	format := in.Manifest.System.TexFormat
	if format == "" {
		format = in.Global.DefaultTexFormat
	}
	bibEngine := in.Manifest.System.BibEngine
	if bibEngine == "" {
		bibEngine = domain.BibEngineBiber
	}
	outputFormat := settings.OutputFormat
	if outputFormat == "" {
		outputFormat = "pdf"
	}

	return domain.BuildParameters{
		Executable:   in.Global.Executable(engine, format),
		OutputFormat: outputFormat,
		ShellEscape:  settings.ShellEscape,
		SyncTeX:      settings.SyncTeX,
		BibEngine:    bibEngine,
		OutputDir:    filepath.Join(domain.BuildDirName, profile.Name),
	}
}

func profileNames(manifest *domain.Manifest) []string {
	names := make([]string, 0, len(manifest.Profiles))
	for name := range manifest.Profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
