// Package domain contains the core domain models and invariants for
// dependency resolution.
package domain

import (
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// RootIdentity is the synthetic identity of the project itself. It is the
// only node allowed to have no incoming edges.
func RootIdentity() InternedString {
	return NewInternedString("(project)")
}

// DependencyEdge is one constraint placed by From on To.
type DependencyEdge struct {
	From InternedString
	To   InternedString
	Spec SourceSpec
}

// DependencyGraph is the expanded set of constraint edges over all reachable
// identities. It may contain cycles until Validate rejects them.
type DependencyGraph struct {
	edges []DependencyEdge
	kinds map[InternedString]SourceKind
}

// NewDependencyGraph creates an empty graph containing only the root node.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		kinds: map[InternedString]SourceKind{},
	}
}

// AddEdge records that from requires to under the given source spec.
// It fails with ErrConflictingSourceKind when to was previously required
// through a different source kind; the caller must not guess a precedence.
func (g *DependencyGraph) AddEdge(from, to InternedString, spec SourceSpec) error {
	if kind, seen := g.kinds[to]; seen && kind != spec.Kind {
		err := zerr.Wrap(ErrConflictingSourceKind, "requiring "+to.String())
		err = zerr.With(err, "declared_as", kind.String())
		return zerr.With(err, "also_declared_as", spec.Kind.String())
	}
	g.kinds[to] = spec.Kind
	g.edges = append(g.edges, DependencyEdge{From: from, To: to, Spec: spec})
	return nil
}

// Has reports whether the identity is already a node of the graph.
func (g *DependencyGraph) Has(id InternedString) bool {
	_, ok := g.kinds[id]
	return ok
}

// Kind returns the source kind an identity was declared with.
func (g *DependencyGraph) Kind(id InternedString) (SourceKind, bool) {
	k, ok := g.kinds[id]
	return k, ok
}

// Identities returns all non-root identities sorted by name.
func (g *DependencyGraph) Identities() []InternedString {
	ids := make([]InternedString, 0, len(g.kinds))
	for id := range g.kinds {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b InternedString) int {
		return strings.Compare(a.String(), b.String())
	})
	return ids
}

// Incoming returns every edge pointing at the given identity, in insertion
// order (which the graph builder keeps deterministic).
func (g *DependencyGraph) Incoming(id InternedString) []DependencyEdge {
	var in []DependencyEdge
	for _, e := range g.edges {
		if e.To == id {
			in = append(in, e)
		}
	}
	return in
}

// Edges returns all edges in insertion order.
func (g *DependencyGraph) Edges() []DependencyEdge {
	return slices.Clone(g.edges)
}

// Validate rejects cyclic graphs. Package dependency graphs are required to
// be acyclic; a cycle is reported with its full path, e.g. [a b a].
func (g *DependencyGraph) Validate() error {
	adj := make(map[InternedString][]InternedString, len(g.kinds))
	for _, e := range g.edges {
		adj[e.From] = append(adj[e.From], e.To)
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[InternedString]int, len(g.kinds))
	var path []InternedString

	var visit func(u InternedString) error
	visit = func(u InternedString) error {
		state[u] = visiting
		path = append(path, u)

		for _, v := range adj[u] {
			switch state[v] {
			case visiting:
				return g.cycleError(path, v)
			case unvisited:
				if err := visit(v); err != nil {
					return err
				}
			}
		}

		state[u] = done
		path = path[:len(path)-1]
		return nil
	}

	for _, id := range g.Identities() {
		if state[id] == unvisited {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// cycleError names the full cycle path, closing back on the repeated node.
func (g *DependencyGraph) cycleError(path []InternedString, repeat InternedString) error {
	start := slices.Index(path, repeat)
	names := make([]string, 0, len(path)-start+1)
	for _, node := range path[start:] {
		names = append(names, node.String())
	}
	names = append(names, repeat.String())
	cycle := strings.Join(names, " -> ")
	return zerr.With(zerr.Wrap(ErrCyclicDependency, "cycle runs "+cycle), "cycle", cycle)
}
