// Package app implements the application layer for largo.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.trai.ch/largo/internal/core/domain"
	"go.trai.ch/largo/internal/core/ports"
	"go.trai.ch/largo/internal/engine/ejector"
	"go.trai.ch/largo/internal/engine/graphbuilder"
	"go.trai.ch/largo/internal/engine/materializer"
	"go.trai.ch/largo/internal/engine/resolver"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	loader       ports.ManifestLoader
	lockStore    ports.LockfileStore
	locator      ports.SourceLocator
	store        ports.ContentStore
	builder      *graphbuilder.Builder
	resolver     *resolver.Resolver
	materializer *materializer.Materializer
	ejector      *ejector.Ejector
	logger       ports.Logger
}

// New creates a new App instance.
func New(
	loader ports.ManifestLoader,
	lockStore ports.LockfileStore,
	locator ports.SourceLocator,
	store ports.ContentStore,
	builder *graphbuilder.Builder,
	res *resolver.Resolver,
	mat *materializer.Materializer,
	ej *ejector.Ejector,
	log ports.Logger,
) *App {
	return &App{
		loader:       loader,
		lockStore:    lockStore,
		locator:      locator,
		store:        store,
		builder:      builder,
		resolver:     res,
		materializer: mat,
		ejector:      ej,
		logger:       log,
	}
}

// Resolve expands the project's dependency graph, selects one revision per
// identity, and writes the lockfile. A prior lockfile, when present and
// readable, steers selection toward already-locked revisions so unrelated
// entries do not churn.
func (a *App) Resolve(ctx context.Context, cwd string) (*domain.Lockfile, error) {
	manifest, err := a.loader.LoadProject(cwd)
	if err != nil {
		return nil, err
	}

	prior, err := a.lockStore.Read(a.lockPath(manifest))
	if err != nil {
		if !errors.Is(err, domain.ErrLockfileNotFound) {
			a.logger.Warn(fmt.Sprintf("ignoring unreadable lockfile: %v", err))
		}
		prior = nil
	}

	result, err := a.builder.Build(ctx, manifest)
	if err != nil {
		return nil, err
	}

	packages, err := a.resolver.Resolve(ctx, resolver.Inputs{
		Graph:      result.Graph,
		Specs:      result.Specs,
		Candidates: result.Candidates,
		Pinned:     result.Pinned,
		Locked:     prior,
	})
	if err != nil {
		return nil, err
	}

	lf := domain.NewLockfile(manifest.Fingerprint(), packages)
	if err := a.lockStore.Write(lf, a.lockPath(manifest)); err != nil {
		return nil, err
	}

	a.logger.Info(fmt.Sprintf("locked %d packages", len(lf.Packages)))
	return lf, nil
}

// EnsureFresh loads the project and its lockfile and verifies the lock still
// matches the manifest. A stale lock fails with domain.ErrStaleLockfile
// naming every drifted entry; it is never silently re-resolved.
func (a *App) EnsureFresh(ctx context.Context, cwd string) (*domain.Manifest, *domain.Lockfile, error) {
	manifest, err := a.loader.LoadProject(cwd)
	if err != nil {
		return nil, nil, err
	}

	lf, err := a.lockStore.Read(a.lockPath(manifest))
	if err != nil {
		return nil, nil, err
	}

	currentLocal, err := a.localRevisions(ctx, manifest)
	if err != nil {
		return nil, nil, err
	}

	status := a.lockStore.Validate(lf, manifest, currentLocal)
	if !status.Fresh {
		staleErr := zerr.With(zerr.Wrap(domain.ErrStaleLockfile, "validating lockfile"), "reasons", status.Reasons)
		return nil, nil, staleErr
	}
	return manifest, lf, nil
}

// EjectOptions configuration for the Eject method.
type EjectOptions struct {
	// Profile selects the build profile; empty uses the global default.
	Profile string

	// Output is the directory the standalone tree is written into. Empty
	// ejects in place, into the project root.
	Output string

	// SnapshotRemote permits the one-time fetch a remote bibliography needs.
	SnapshotRemote bool
}

// Eject exports the locked, profile-filtered package set as a standalone
// vendored tree that builds without largo.
func (a *App) Eject(ctx context.Context, cwd string, opts EjectOptions) (*ejector.Report, error) {
	manifest, lf, err := a.EnsureFresh(ctx, cwd)
	if err != nil {
		return nil, err
	}

	global, err := a.loader.LoadGlobal()
	if err != nil {
		return nil, err
	}

	// Eject needs the graph for feature gating. Manifests were fetched into
	// the store during resolution, so rebuilding is cheap.
	result, err := a.builder.Build(ctx, manifest)
	if err != nil {
		return nil, err
	}

	build, err := a.materializer.Materialize(materializer.Inputs{
		Manifest: manifest,
		Graph:    result.Graph,
		Packages: lf.Packages,
		Profile:  opts.Profile,
		Global:   global,
	})
	if err != nil {
		return nil, err
	}

	// Full contents may not be cached yet; graph building only needed the
	// manifests. Fetch the active subset now, locked revisions exactly.
	if err := a.fetchActive(ctx, result, build); err != nil {
		return nil, err
	}

	root := opts.Output
	if root == "" {
		root = manifest.Root
	}
	return a.ejector.Eject(ctx, ejector.Inputs{
		Root:           root,
		Build:          build,
		Bibliography:   global.Bibliography,
		SnapshotRemote: opts.SnapshotRemote,
	})
}

// GarbageCollect evicts store entries the current lockfile does not keep
// live and returns the evicted fingerprints.
func (a *App) GarbageCollect(ctx context.Context, cwd string) ([]domain.Fingerprint, error) {
	_, lf, err := a.EnsureFresh(ctx, cwd)
	if err != nil {
		return nil, err
	}

	evicted, err := a.store.GarbageCollect(lf.Fingerprints())
	if err != nil {
		return nil, err
	}
	a.logger.Info(fmt.Sprintf("evicted %d store entries", len(evicted)))
	return evicted, nil
}

func (a *App) fetchActive(ctx context.Context, result *graphbuilder.Result, build *domain.MaterializedBuild) error {
	reqs := make([]ports.FetchRequest, 0, len(build.Packages))
	for _, pkg := range build.Packages {
		spec, ok := result.Specs[pkg.Identity]
		if !ok {
			continue
		}
		reqs = append(reqs, ports.FetchRequest{Spec: spec, Revision: pkg.Revision})
	}
	_, err := a.store.FetchAll(ctx, reqs)
	return err
}

// localRevisions re-hashes every local dependency so drift against the
// lockfile is detected on each run.
func (a *App) localRevisions(ctx context.Context, manifest *domain.Manifest) (map[string]string, error) {
	out := map[string]string{}
	for name, dep := range manifest.Dependencies {
		if dep.Source.Kind != domain.SourceLocal {
			continue
		}
		rev, err := a.locator.Locate(ctx, dep.Source)
		if err != nil {
			return nil, zerr.With(err, "dependency", name)
		}
		out[name] = rev
	}
	return out, nil
}

func (a *App) lockPath(manifest *domain.Manifest) string {
	return filepath.Join(manifest.Root, domain.LockFileName)
}
