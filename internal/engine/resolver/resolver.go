// Package resolver selects one concrete revision per identity of an
// expanded dependency graph. It performs no I/O: everything it needs is
// collected up front, so identical inputs always produce identical output.
package resolver

import (
	"context"
	"slices"
	"strings"

	"go.trai.ch/largo/internal/core/domain"
	"go.trai.ch/largo/internal/core/ports"
	"go.trai.ch/zerr"
)

// maxSteps bounds the backtracking search. The bound is generous; hitting it
// means the candidate space exploded beyond anything a package registry
// produces in practice.
const maxSteps = 100_000

// Inputs is everything resolution needs, gathered by the graph builder.
type Inputs struct {
	Graph      *domain.DependencyGraph
	Specs      map[domain.InternedString]domain.SourceSpec
	Candidates map[domain.InternedString][]string
	Pinned     map[domain.InternedString]string

	// Locked is the prior lockfile, if any. A still-valid locked revision is
	// preferred over a newer candidate to minimize lockfile churn.
	Locked *domain.Lockfile
}

// Resolver implements conservative backtracking version selection.
type Resolver struct {
	logger ports.Logger
	tracer ports.Tracer
}

// NewResolver creates a Resolver with the given dependencies.
func NewResolver(logger ports.Logger, tracer ports.Tracer) *Resolver {
	return &Resolver{logger: logger, tracer: tracer}
}

// choicePoint is one registry identity plus its remaining candidates, in
// preference order.
type choicePoint struct {
	id         domain.InternedString
	candidates []string
	next       int
}

// Resolve produces one ResolvedPackage per identity, or fails naming the
// identity whose requirements cannot be met together.
func (r *Resolver) Resolve(ctx context.Context, in Inputs) ([]domain.ResolvedPackage, error) {
	ctx, span := r.tracer.Start(ctx, "resolve")
	defer span.End()

	assignment := map[domain.InternedString]string{}

	// Local and VCS identities carry exactly one admissible revision.
	for id, rev := range in.Pinned {
		assignment[id] = rev
	}

	points, err := r.choicePoints(in)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// Explicit choice-point stack instead of recursion. Depth, step budget
	// and cancellation all stay simple per-iteration checks.
	steps := 0
	for i := 0; i < len(points); {
		if err := ctx.Err(); err != nil {
			return nil, zerr.Wrap(err, "resolution canceled")
		}
		if steps++; steps > maxSteps {
			return nil, zerr.With(zerr.Wrap(domain.ErrResolutionDepthExceeded, "selecting package versions"), "steps", steps)
		}

		cp := &points[i]
		assigned := false
		for cp.next < len(cp.candidates) {
			candidate := cp.candidates[cp.next]
			cp.next++
			if satisfiesAll(in.Graph, cp.id, candidate) {
				assignment[cp.id] = candidate
				assigned = true
				break
			}
		}
		if assigned {
			i++
			continue
		}

		// Exhausted this point: unwind to the previous choice and retry it
		// with its next candidate.
		cp.next = 0
		delete(assignment, cp.id)
		if i == 0 {
			return nil, unsatisfiableError(in, cp.id)
		}
		i--
		delete(assignment, points[i].id)
	}

	span.SetAttribute("packages", len(assignment))
	return r.materialize(in, assignment), nil
}

// choicePoints orders registry identities most-constrained-first: fewest
// admissible candidates, names breaking ties. Identities with no admissible
// candidate fail immediately with the full requirement set.
func (r *Resolver) choicePoints(in Inputs) ([]choicePoint, error) {
	var points []choicePoint
	for _, id := range in.Graph.Identities() {
		kind, _ := in.Graph.Kind(id)
		if kind != domain.SourceRegistry {
			continue
		}
		admissible := r.admissible(in, id)
		if len(admissible) == 0 {
			return nil, unsatisfiableError(in, id)
		}
		points = append(points, choicePoint{id: id, candidates: admissible})
	}

	slices.SortStableFunc(points, func(a, b choicePoint) int {
		if d := len(a.candidates) - len(b.candidates); d != 0 {
			return d
		}
		return strings.Compare(a.id.String(), b.id.String())
	})
	return points, nil
}

// admissible filters and orders one identity's candidates: highest version
// first, with a still-valid locked revision promoted to the front.
func (r *Resolver) admissible(in Inputs, id domain.InternedString) []string {
	var out []string
	for _, v := range in.Candidates[id] {
		if satisfiesAll(in.Graph, id, v) {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, func(a, b string) int {
		return domain.CompareVersions(b, a)
	})

	if locked := r.lockedRevision(in, id); locked != "" {
		if idx := slices.Index(out, locked); idx > 0 {
			out = slices.Delete(out, idx, idx+1)
			out = slices.Insert(out, 0, locked)
		}
	}
	return out
}

func (r *Resolver) lockedRevision(in Inputs, id domain.InternedString) string {
	if in.Locked == nil {
		return ""
	}
	pkg, ok := in.Locked.Package(id)
	if !ok || pkg.Kind != domain.SourceRegistry {
		return ""
	}
	return pkg.Revision
}

func (r *Resolver) materialize(in Inputs, assignment map[domain.InternedString]string) []domain.ResolvedPackage {
	packages := make([]domain.ResolvedPackage, 0, len(assignment))
	for _, id := range in.Graph.Identities() {
		rev, ok := assignment[id]
		if !ok {
			continue
		}
		packages = append(packages, domain.NewResolvedPackage(id, in.Specs[id], rev))
	}
	return packages
}

func satisfiesAll(g *domain.DependencyGraph, id domain.InternedString, version string) bool {
	for _, edge := range g.Incoming(id) {
		if edge.Spec.Kind != domain.SourceRegistry {
			continue
		}
		if !edge.Spec.Constraint.Matches(version) {
			return false
		}
	}
	return true
}

// unsatisfiableError reports the identity together with every requirement
// placed on it and by whom.
func unsatisfiableError(in Inputs, id domain.InternedString) error {
	err := zerr.With(zerr.Wrap(domain.ErrUnsatisfiableConstraints, "selecting package versions"), "package", id.String())
	for _, edge := range in.Graph.Incoming(id) {
		err = zerr.With(err,
			"required_by_"+edge.From.String(),
			edge.Spec.ConstraintString())
	}
	return zerr.With(err, "available", in.Candidates[id])
}
