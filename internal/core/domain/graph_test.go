package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/largo/internal/core/domain"
)

func TestDependencyGraph_Validate(t *testing.T) {
	t.Parallel()

	id := domain.NewInternedString

	t.Run("acyclic graph passes", func(t *testing.T) {
		t.Parallel()
		g := domain.NewDependencyGraph()
		require.NoError(t, g.AddEdge(domain.RootIdentity(), id("a"), domain.LocalSource("../a")))
		require.NoError(t, g.AddEdge(id("a"), id("b"), domain.LocalSource("../b")))
		require.NoError(t, g.AddEdge(domain.RootIdentity(), id("b"), domain.LocalSource("../b")))

		require.NoError(t, g.Validate())
	})

	t.Run("two node cycle names full path", func(t *testing.T) {
		t.Parallel()
		g := domain.NewDependencyGraph()
		require.NoError(t, g.AddEdge(domain.RootIdentity(), id("a"), domain.LocalSource("../a")))
		require.NoError(t, g.AddEdge(id("a"), id("b"), domain.LocalSource("../b")))
		require.NoError(t, g.AddEdge(id("b"), id("a"), domain.LocalSource("../a")))

		err := g.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrCyclicDependency)
		assert.Contains(t, err.Error(), "a -> b -> a")
	})

	t.Run("self cycle", func(t *testing.T) {
		t.Parallel()
		g := domain.NewDependencyGraph()
		require.NoError(t, g.AddEdge(domain.RootIdentity(), id("a"), domain.LocalSource("../a")))
		require.NoError(t, g.AddEdge(id("a"), id("a"), domain.LocalSource("../a")))

		err := g.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrCyclicDependency)
		assert.Contains(t, err.Error(), "a -> a")
	})
}

func TestDependencyGraph_AddEdge_SourceKindConflict(t *testing.T) {
	t.Parallel()

	id := domain.NewInternedString
	g := domain.NewDependencyGraph()

	require.NoError(t, g.AddEdge(domain.RootIdentity(), id("fancyhdr"),
		domain.RegistrySource("fancyhdr", domain.AnyVersion)))

	err := g.AddEdge(id("other"), id("fancyhdr"),
		domain.VCSSource("https://example.org/fancyhdr.git", "main"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflictingSourceKind)
	assert.Contains(t, err.Error(), "fancyhdr")

	// A second registry constraint on the same identity is not a conflict.
	require.NoError(t, g.AddEdge(id("other"), id("fancyhdr"),
		domain.RegistrySource("fancyhdr", domain.MustParseConstraint(">=4.0"))))
}

func TestDependencyGraph_Incoming(t *testing.T) {
	t.Parallel()

	id := domain.NewInternedString
	g := domain.NewDependencyGraph()

	c1 := domain.MustParseConstraint(">=2.0,<3.0")
	c2 := domain.MustParseConstraint(">=3.0")
	require.NoError(t, g.AddEdge(id("a"), id("p"), domain.RegistrySource("p", c1)))
	require.NoError(t, g.AddEdge(id("b"), id("p"), domain.RegistrySource("p", c2)))

	in := g.Incoming(id("p"))
	require.Len(t, in, 2)
	assert.Equal(t, ">=2.0,<3.0", in[0].Spec.Constraint.String())
	assert.Equal(t, ">=3.0", in[1].Spec.Constraint.String())
}
