package ports

import (
	"io/fs"

	"go.trai.ch/largo/internal/core/domain"
)

// ManifestLoader parses manifests into their in-memory form.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ManifestLoader interface {
	// LoadProject walks up from cwd to the directory containing largo.toml
	// and parses it.
	LoadProject(cwd string) (*domain.Manifest, error)

	// LoadPackage reads the manifest of a fetched package from its content
	// store view. ok is false when the package carries no manifest, which
	// makes it a leaf of the dependency graph.
	LoadPackage(fsys fs.FS) (m *domain.Manifest, ok bool, err error)

	// LoadGlobal parses the user-level configuration, falling back to
	// defaults when no config file exists.
	LoadGlobal() (*domain.GlobalConfig, error)
}

// LockfileStore owns lockfile persistence and staleness validation.
type LockfileStore interface {
	// Read parses the lockfile at path. Fails with domain.ErrCorruptLockfile
	// on malformed input and domain.ErrLockSchemaMismatch on an unsupported
	// schema version.
	Read(path string) (*domain.Lockfile, error)

	// Write persists the lockfile deterministically ordered, so rewriting an
	// unchanged resolution produces byte-identical output.
	Write(lf *domain.Lockfile, path string) error

	// Validate compares a lockfile against the current manifest state.
	// currentLocal maps local dependency names to their freshly computed
	// revisions (path@contenthash).
	Validate(lf *domain.Lockfile, m *domain.Manifest, currentLocal map[string]string) domain.LockStatus
}
