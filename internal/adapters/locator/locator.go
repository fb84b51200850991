// Package locator resolves dependency sources to concrete revisions and
// fetches their contents. It owns all source transport: the filesystem for
// path dependencies, git for repositories, and the CTAN registry.
package locator

import (
	"context"

	"go.trai.ch/largo/internal/core/domain"
	"go.trai.ch/largo/internal/core/ports"
	"go.trai.ch/zerr"
)

// Locator implements ports.SourceLocator.
type Locator struct {
	logger ports.Logger
	ctan   *ctanClient
	git    *gitClient
}

// NewLocator creates a Locator using the default registry cache location.
func NewLocator(logger ports.Logger) (*Locator, error) {
	return newLocatorWithCache(logger, domain.DefaultRegistryCachePath())
}

// newLocatorWithCache creates a Locator with a custom registry cache path
// (used for testing).
func newLocatorWithCache(logger ports.Logger, cacheDir string) (*Locator, error) {
	ctan, err := newCtanClient(logger, cacheDir)
	if err != nil {
		return nil, err
	}
	return &Locator{
		logger: logger,
		ctan:   ctan,
		git:    newGitClient(),
	}, nil
}

// Locate resolves a source spec to the concrete revision a build would use
// right now. It never fetches content.
func (l *Locator) Locate(ctx context.Context, spec domain.SourceSpec) (string, error) {
	switch spec.Kind {
	case domain.SourceLocal:
		return localRevision(spec.Path)

	case domain.SourceVCS:
		return l.git.resolveRef(ctx, spec.Repo, spec.Ref)

	case domain.SourceRegistry:
		versions, err := l.ctan.versions(ctx, spec.Name)
		if err != nil {
			return "", err
		}
		best := ""
		for _, v := range versions {
			if !spec.Constraint.Matches(v) {
				continue
			}
			if best == "" || domain.CompareVersions(v, best) > 0 {
				best = v
			}
		}
		if best == "" {
			err := zerr.Wrap(domain.ErrUnsatisfiableConstraints, "locating registry package")
			err = zerr.With(err, "package", spec.Name)
			err = zerr.With(err, "constraint", spec.Constraint.String())
			return "", zerr.With(err, "available", versions)
		}
		return best, nil

	default:
		return "", zerr.With(zerr.Wrap(domain.ErrUnknownSourceKind, "locating source"), "kind", spec.Kind.String())
	}
}

// Candidates lists the versions the registry currently offers for a package,
// newest first.
func (l *Locator) Candidates(ctx context.Context, name string) ([]string, error) {
	return l.ctan.versions(ctx, name)
}

var _ ports.SourceLocator = (*Locator)(nil)
