// Package lockfile persists resolved dependency sets as largo.lock files
// and validates them against the current manifest state.
package lockfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/largo/internal/core/domain"
	"go.trai.ch/largo/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Manager implements ports.LockfileStore on top of YAML files.
type Manager struct {
	Logger ports.Logger
}

// NewManager creates a new Manager with the given logger.
func NewManager(logger ports.Logger) *Manager {
	return &Manager{Logger: logger}
}

// lockfileDTO mirrors the on-disk layout of largo.lock.
type lockfileDTO struct {
	Schema   int          `yaml:"schema"`
	Manifest string       `yaml:"manifest"`
	Packages []packageDTO `yaml:"packages"`
}

type packageDTO struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	Source      string `yaml:"source"`
	Revision    string `yaml:"revision"`
	Fingerprint string `yaml:"fingerprint"`
}

// Read parses the lockfile at path.
func (m *Manager) Read(path string) (*domain.Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrLockfileNotFound, "reading lockfile"), "path", path)
		}
		return nil, zerr.Wrap(err, "reading lockfile")
	}

	var dto lockfileDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrCorruptLockfile, err), "parsing lockfile"), "path", path)
	}

	if dto.Schema != domain.LockSchemaVersion {
		werr := zerr.Wrap(domain.ErrLockSchemaMismatch, "lockfile written by an incompatible version")
		werr = zerr.With(werr, "found", dto.Schema)
		return nil, zerr.With(werr, "supported", domain.LockSchemaVersion)
	}

	lf := &domain.Lockfile{
		SchemaVersion:       dto.Schema,
		ManifestFingerprint: domain.Fingerprint(dto.Manifest),
		Packages:            make([]domain.ResolvedPackage, 0, len(dto.Packages)),
	}
	for _, p := range dto.Packages {
		kind, ok := domain.ParseSourceKind(p.Kind)
		if !ok {
			werr := zerr.Wrap(domain.ErrCorruptLockfile, "unknown source kind in lockfile")
			werr = zerr.With(werr, "kind", p.Kind)
			return nil, zerr.With(werr, "package", p.Name)
		}
		if p.Name == "" || p.Revision == "" || p.Fingerprint == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrCorruptLockfile, "incomplete lockfile entry"), "package", p.Name)
		}
		lf.Packages = append(lf.Packages, domain.ResolvedPackage{
			Identity:    domain.NewInternedString(p.Name),
			Kind:        kind,
			Source:      p.Source,
			Revision:    p.Revision,
			Fingerprint: domain.Fingerprint(p.Fingerprint),
		})
	}
	return lf, nil
}

// Write persists the lockfile atomically. Entries are already sorted by
// identity, so an unchanged resolution rewrites byte-identical output.
func (m *Manager) Write(lf *domain.Lockfile, path string) error {
	dto := lockfileDTO{
		Schema:   lf.SchemaVersion,
		Manifest: string(lf.ManifestFingerprint),
		Packages: make([]packageDTO, 0, len(lf.Packages)),
	}
	for _, p := range lf.Packages {
		dto.Packages = append(dto.Packages, packageDTO{
			Name:        p.Identity.String(),
			Kind:        p.Kind.String(),
			Source:      p.Source,
			Revision:    p.Revision,
			Fingerprint: string(p.Fingerprint),
		})
	}

	data, err := yaml.Marshal(&dto)
	if err != nil {
		return zerr.Wrap(err, "encoding lockfile")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".largo-lock-*")
	if err != nil {
		return zerr.Wrap(err, "creating lockfile temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, "writing lockfile")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "writing lockfile")
	}
	if err := os.Chmod(tmp.Name(), domain.FilePerm); err != nil {
		return zerr.Wrap(err, "writing lockfile")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return zerr.Wrap(err, "publishing lockfile")
	}
	return nil
}

// Validate compares a lockfile against the current manifest state without
// touching the network. currentLocal carries the freshly computed revision of
// every local dependency.
func (m *Manager) Validate(lf *domain.Lockfile, man *domain.Manifest, currentLocal map[string]string) domain.LockStatus {
	var reasons []string

	if fp := man.Fingerprint(); lf.ManifestFingerprint != fp {
		reasons = append(reasons, "manifest dependency declarations changed")
	}

	locked := make(map[string]domain.ResolvedPackage, len(lf.Packages))
	for _, p := range lf.Packages {
		locked[p.Identity.String()] = p
	}

	for _, name := range man.DependencyNames() {
		dep := man.Dependencies[name]
		entry, ok := locked[name]
		if !ok {
			reasons = append(reasons, fmt.Sprintf("%s: declared but not locked", name))
			continue
		}
		if entry.Kind != dep.Source.Kind || entry.Source != dep.Source.ID() {
			reasons = append(reasons, fmt.Sprintf("%s: source changed to %s", name, dep.Source.ID()))
			continue
		}
		switch dep.Source.Kind {
		case domain.SourceRegistry:
			if !dep.Source.Constraint.Matches(entry.Revision) {
				reasons = append(reasons, fmt.Sprintf(
					"%s: locked version %s no longer satisfies %s",
					name, entry.Revision, dep.Source.Constraint))
			}
		case domain.SourceLocal:
			if current, ok := currentLocal[name]; ok && current != entry.Revision {
				reasons = append(reasons, fmt.Sprintf("%s: local contents changed", name))
			}
		case domain.SourceVCS:
			// A pinned revision stays valid until the declaration changes,
			// which the manifest fingerprint already covers.
		}
	}

	if len(reasons) > 0 {
		return domain.StaleStatus(reasons...)
	}
	return domain.FreshStatus()
}
