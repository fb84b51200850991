// Package graphbuilder expands a project manifest into the full dependency
// graph by walking manifests of fetched packages until a fixed point.
package graphbuilder

import (
	"context"
	"fmt"

	"go.trai.ch/largo/internal/core/domain"
	"go.trai.ch/largo/internal/core/ports"
	"go.trai.ch/zerr"
)

// maxDepth bounds the number of expansion levels. A chain this deep is a
// pathological registry state, not a real document project.
const maxDepth = 64

// Builder expands manifests into dependency graphs.
type Builder struct {
	locator ports.SourceLocator
	store   ports.ContentStore
	loader  ports.ManifestLoader
	logger  ports.Logger
	tracer  ports.Tracer
}

// NewBuilder creates a Builder with the given dependencies.
func NewBuilder(
	locator ports.SourceLocator,
	store ports.ContentStore,
	loader ports.ManifestLoader,
	logger ports.Logger,
	tracer ports.Tracer,
) *Builder {
	return &Builder{
		locator: locator,
		store:   store,
		loader:  loader,
		logger:  logger,
		tracer:  tracer,
	}
}

// Result is the expanded graph plus everything the resolver needs to pick
// revisions without further I/O.
type Result struct {
	Graph *domain.DependencyGraph

	// Specs holds one canonical source spec per identity. Constraints vary
	// per edge and live on the graph; kind and location are uniform.
	Specs map[domain.InternedString]domain.SourceSpec

	// Candidates lists the registry versions on offer per registry identity.
	Candidates map[domain.InternedString][]string

	// Pinned maps local and VCS identities to their concrete revision.
	Pinned map[domain.InternedString]string
}

// Build expands the manifest's dependencies breadth first. Each identity is
// expanded once; nested manifests contribute edges, new identities join the
// next level. The finished graph is validated for cycles.
func (b *Builder) Build(ctx context.Context, manifest *domain.Manifest) (*Result, error) {
	ctx, span := b.tracer.Start(ctx, "graph.build")
	defer span.End()

	res := &Result{
		Graph:      domain.NewDependencyGraph(),
		Specs:      map[domain.InternedString]domain.SourceSpec{},
		Candidates: map[domain.InternedString][]string{},
		Pinned:     map[domain.InternedString]string{},
	}

	frontier, err := b.addDependencies(res, domain.RootIdentity(), manifest)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	for depth := 0; len(frontier) > 0; depth++ {
		if depth >= maxDepth {
			err := zerr.With(zerr.Wrap(domain.ErrResolutionDepthExceeded, "expanding dependency graph"), "depth", maxDepth)
			span.RecordError(err)
			return nil, err
		}

		var next []domain.InternedString
		for _, id := range frontier {
			children, err := b.expand(ctx, res, id)
			if err != nil {
				span.RecordError(err)
				return nil, zerr.With(err, "while_expanding", id.String())
			}
			next = append(next, children...)
		}
		frontier = next
	}

	if err := res.Graph.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttribute("identities", len(res.Specs))
	return res, nil
}

// addDependencies adds one edge per declared dependency and returns the
// identities seen for the first time, in sorted declaration order.
func (b *Builder) addDependencies(res *Result, from domain.InternedString, m *domain.Manifest) ([]domain.InternedString, error) {
	var created []domain.InternedString
	for _, name := range m.DependencyNames() {
		dep := m.Dependencies[name]
		id := domain.NewInternedString(name)

		seen := res.Graph.Has(id)
		if err := res.Graph.AddEdge(from, id, dep.Source); err != nil {
			return nil, err
		}
		if !seen {
			res.Specs[id] = dep.Source
			created = append(created, id)
		}
	}
	return created, nil
}

// expand pins or pre-selects a revision for one identity, fetches its
// contents, and folds any nested manifest into the graph.
func (b *Builder) expand(ctx context.Context, res *Result, id domain.InternedString) ([]domain.InternedString, error) {
	spec := res.Specs[id]

	var revision string
	switch spec.Kind {
	case domain.SourceLocal, domain.SourceVCS:
		rev, err := b.locator.Locate(ctx, spec)
		if err != nil {
			return nil, err
		}
		res.Pinned[id] = rev
		revision = rev

	case domain.SourceRegistry:
		versions, err := b.locator.Candidates(ctx, spec.Name)
		if err != nil {
			return nil, err
		}
		res.Candidates[id] = versions

		// Expansion walks the manifest of the newest version satisfying
		// every constraint placed so far. The resolver makes the final,
		// fully-informed selection later.
		revision, err = pickVersion(res.Graph, id, versions)
		if err != nil {
			return nil, err
		}

	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownSourceKind, "pinning package revision"), "kind", spec.Kind.String())
	}

	fp, err := b.store.Fetch(ctx, spec, revision)
	if err != nil {
		return nil, err
	}
	fsys, err := b.store.Open(fp)
	if err != nil {
		return nil, err
	}

	nested, ok, err := b.loader.LoadPackage(fsys)
	if err != nil {
		return nil, err
	}
	if !ok {
		// A package without a manifest is a leaf.
		return nil, nil
	}
	return b.addDependencies(res, id, nested)
}

// pickVersion returns the highest candidate satisfying every constraint the
// graph currently places on id. Exhaustion reports the identity together
// with all competing requirements.
func pickVersion(g *domain.DependencyGraph, id domain.InternedString, versions []string) (string, error) {
	best := ""
	for _, v := range versions {
		if !satisfiesAll(g, id, v) {
			continue
		}
		if best == "" || domain.CompareVersions(v, best) > 0 {
			best = v
		}
	}
	if best == "" {
		return "", unsatisfiableError(g, id, versions)
	}
	return best, nil
}

func satisfiesAll(g *domain.DependencyGraph, id domain.InternedString, version string) bool {
	for _, edge := range g.Incoming(id) {
		if !edge.Spec.Constraint.Matches(version) {
			return false
		}
	}
	return true
}

// unsatisfiableError names every requirement and who placed it.
func unsatisfiableError(g *domain.DependencyGraph, id domain.InternedString, versions []string) error {
	err := zerr.With(zerr.Wrap(domain.ErrUnsatisfiableConstraints, "expanding dependency graph"), "package", id.String())
	for _, edge := range g.Incoming(id) {
		err = zerr.With(err,
			fmt.Sprintf("required_by_%s", edge.From.String()),
			edge.Spec.ConstraintString())
	}
	return zerr.With(err, "available", versions)
}
