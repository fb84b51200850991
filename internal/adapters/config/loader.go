// Package config parses project manifests and the user-level configuration.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pelletier/go-toml/v2"
	"go.trai.ch/largo/internal/core/domain"
	"go.trai.ch/largo/internal/core/ports"
	"go.trai.ch/zerr"
)

// Loader implements ports.ManifestLoader on top of TOML files.
type Loader struct {
	Logger ports.Logger

	// GlobalPath overrides the user-level config location, used in tests.
	GlobalPath string
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

var validProjectNameRegex = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// LoadProject walks up from cwd until it finds a largo.toml and parses it.
func (l *Loader) LoadProject(cwd string) (*domain.Manifest, error) {
	manifestPath, err := l.findManifest(cwd)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, zerr.Wrap(err, "reading manifest")
	}

	root, err := filepath.Abs(filepath.Dir(manifestPath))
	if err != nil {
		return nil, zerr.Wrap(err, "resolving project root")
	}

	m, err := l.parseManifest(data, root)
	if err != nil {
		return nil, zerr.With(err, "path", manifestPath)
	}
	return m, nil
}

// LoadPackage parses the manifest of a fetched package from its store view.
// Packages without a manifest are valid leaves of the dependency graph.
func (l *Loader) LoadPackage(fsys fs.FS) (*domain.Manifest, bool, error) {
	data, err := fs.ReadFile(fsys, domain.ManifestFileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, zerr.Wrap(err, "reading package manifest")
	}

	// Package roots are store paths; local dependency paths inside a
	// package manifest are not supported and rejected during parsing.
	m, err := l.parseManifest(data, "")
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// LoadGlobal parses the user-level configuration. A missing file yields the
// defaults; a malformed one is an error.
func (l *Loader) LoadGlobal() (*domain.GlobalConfig, error) {
	path := l.GlobalPath
	if path == "" {
		path = domain.DefaultGlobalConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.DefaultGlobalConfig(), nil
		}
		return nil, zerr.Wrap(err, "reading global config")
	}

	var dto globalFile
	if err := toml.Unmarshal(data, &dto); err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrConfigParseFailed, err), "parsing global config"), "path", path)
	}

	cfg := domain.DefaultGlobalConfig()
	if dto.DefaultProfile != "" {
		cfg.DefaultProfile = domain.NormalizeName(dto.DefaultProfile)
	}
	if dto.DefaultTexFormat != "" {
		cfg.DefaultTexFormat = dto.DefaultTexFormat
	}
	if dto.DefaultTexEngine != "" {
		cfg.DefaultTexEngine = dto.DefaultTexEngine
	}
	cfg.Bibliography = domain.BibliographyRef{Path: dto.Bib.Path, URL: dto.Bib.URL}
	if len(dto.Build) > 0 {
		cfg.Executables = dto.Build
	}
	return cfg, nil
}

func (l *Loader) findManifest(cwd string) (string, error) {
	currentDir := cwd
	for {
		manifestPath := filepath.Join(currentDir, domain.ManifestFileName)
		if _, err := os.Stat(manifestPath); err == nil {
			return manifestPath, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}
	return "", zerr.With(zerr.Wrap(domain.ErrManifestNotFound, "searching for project manifest"), "cwd", cwd)
}

func (l *Loader) parseManifest(data []byte, root string) (*domain.Manifest, error) {
	var dto manifestFile
	if err := toml.Unmarshal(data, &dto); err != nil {
		return nil, zerr.Wrap(errors.Join(domain.ErrManifestParseFailed, err), "parsing manifest")
	}

	if dto.Project.Name == "" {
		return nil, zerr.Wrap(domain.ErrManifestParseFailed, "project.name is required")
	}
	if !validProjectNameRegex.MatchString(dto.Project.Name) {
		return nil, zerr.With(zerr.Wrap(domain.ErrManifestParseFailed, "project.name carries invalid characters"), "name", dto.Project.Name)
	}

	m := &domain.Manifest{
		Name: dto.Project.Name,
		Root: root,
		System: domain.SystemSettings{
			TexFormat: dto.Project.TexFormat,
			TexEngine: dto.Project.TexEngine,
			BibEngine: dto.Project.BibEngine,
		},
		Settings: domain.ProjectSettings{
			OutputFormat: dto.Project.OutputFormat,
			ShellEscape:  dto.Project.ShellEscape,
			SyncTeX:      dto.Project.SyncTeX,
		},
		Dependencies: map[string]domain.Dependency{},
		Profiles:     domain.StandardProfiles(),
	}

	for name, entry := range dto.Dependencies {
		name = domain.NormalizeName(name)
		dep, err := l.parseDependency(name, entry, root)
		if err != nil {
			return nil, err
		}
		m.Dependencies[name] = dep
	}

	for name, section := range dto.Profiles {
		name = domain.NormalizeName(name)
		base := m.Profiles[name]
		base.Name = name
		base.Features = append(base.Features, section.Features...)
		base.Overrides = base.Overrides.Merged(domain.ProjectSettings{
			OutputFormat: section.OutputFormat,
			ShellEscape:  section.ShellEscape,
			SyncTeX:      section.SyncTeX,
		})
		m.Profiles[name] = base
	}

	return m, nil
}

func (l *Loader) parseDependency(name string, entry dependencyEntry, root string) (domain.Dependency, error) {
	var (
		dep   domain.Dependency
		kinds int
	)
	if entry.Path != "" {
		kinds++
	}
	if entry.Git != "" {
		kinds++
	}
	if entry.Version != "" || entry.Registry != "" {
		kinds++
	}
	if kinds != 1 {
		return dep, zerr.With(zerr.Wrap(domain.ErrUnknownSourceKind, "dependency must declare exactly one source"), "dependency", name)
	}

	switch {
	case entry.Path != "":
		if root == "" {
			werr := zerr.Wrap(domain.ErrUnknownSourceKind, "path dependencies are only allowed in the project manifest")
			return dep, zerr.With(werr, "dependency", name)
		}
		path := entry.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		dep.Source = domain.LocalSource(filepath.Clean(path))

	case entry.Git != "":
		ref := entry.Ref
		if ref == "" {
			ref = "HEAD"
		}
		dep.Source = domain.VCSSource(entry.Git, ref)

	default:
		pkg := entry.Registry
		if pkg == "" {
			pkg = name
		}
		raw := entry.Version
		if raw == "" {
			raw = "*"
		}
		c, err := domain.ParseConstraint(raw)
		if err != nil {
			return dep, zerr.With(err, "dependency", name)
		}
		dep.Source = domain.RegistrySource(domain.NormalizeName(pkg), c)
	}

	dep.Feature = domain.NormalizeName(entry.Feature)
	return dep, nil
}
