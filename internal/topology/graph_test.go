package topology

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/reconfgrid/internal/action"
	"github.com/vk/reconfgrid/internal/ctxlog"
)

func testContext() context.Context {
	return ctxlog.Discard(context.Background())
}

// typicalGraph builds A->C, A->D, B->D, booted.
func typicalGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := NewBuilder("Typical_Graph").
		Deployments("A", "B", "C", "D").
		Requires("A", "C", "D").
		Requires("B", "D").
		Build(testContext())
	require.NoError(t, err)
	return g
}

func names(ds []Deployment) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Name)
	}
	return out
}

func TestBuilder(t *testing.T) {
	t.Run("boots every deployment", func(t *testing.T) {
		g := typicalGraph(t)
		for _, d := range g.Deployments() {
			assert.Equal(t, Started, d.Status, d.Name)
		}
		assert.Equal(t, 4, g.Len())
		assert.Equal(t, "Typical_Graph", g.Namespace())
	})

	t.Run("rejects dangling dependency", func(t *testing.T) {
		_, err := NewBuilder("x").Deployments("A").Requires("A", "Z").Build(testContext())
		assert.ErrorIs(t, err, ErrDeploymentNotFound)
	})

	t.Run("rejects cyclic configuration", func(t *testing.T) {
		_, err := NewBuilder("x").Deployments("A", "B").Requires("A", "B").Requires("B", "A").Build(testContext())
		assert.ErrorIs(t, err, ErrCyclicConfiguration)
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		_, err := NewBuilder("x").Deployments("A", "A").Build(testContext())
		assert.ErrorIs(t, err, ErrDuplicateDeployment)
	})
}

func TestNeighbours(t *testing.T) {
	g := typicalGraph(t)

	assert.Equal(t, []string{"C", "D"}, names(g.Requirements("A")))
	assert.Equal(t, []string{"A", "B"}, names(g.Requirers("D")))
	assert.Empty(t, g.Requirements("C"))
	assert.Empty(t, g.Requirers("A"))
	assert.True(t, g.HasDependency("B", "D"))
	assert.False(t, g.HasDependency("D", "B"))
}

func TestAdd(t *testing.T) {
	ctx := testContext()

	t.Run("inserts node and edges", func(t *testing.T) {
		g := typicalGraph(t)
		require.NoError(t, g.Add(ctx, NewDeployment("E", "e.yaml"), "A"))

		d, ok := g.Lookup("E")
		require.True(t, ok)
		assert.Equal(t, "e.yaml", d.ManifestPath)
		assert.Equal(t, Stopped, d.Status)
		assert.True(t, g.HasDependency("E", "A"))
	})

	t.Run("existing name is a no-op", func(t *testing.T) {
		g := typicalGraph(t)
		require.NoError(t, g.Add(ctx, NewDeployment("A", "other.yaml"), "B"))

		d, _ := g.Lookup("A")
		assert.Empty(t, d.ManifestPath)
		assert.False(t, g.HasDependency("A", "B"))
	})

	t.Run("unresolved requirement inserts nothing", func(t *testing.T) {
		g := typicalGraph(t)
		err := g.Add(ctx, NewDeployment("E", ""), "A", "Z")
		assert.ErrorIs(t, err, ErrDeploymentNotFound)
		assert.False(t, g.Contains("E"))
	})

	t.Run("self requirement", func(t *testing.T) {
		g := typicalGraph(t)
		assert.ErrorIs(t, g.Add(ctx, NewDeployment("E", ""), "E"), ErrSelfDependency)
	})
}

func TestRemoveDeployment(t *testing.T) {
	ctx := testContext()
	g := typicalGraph(t)

	require.NoError(t, g.RemoveDeployment(ctx, "A"))
	assert.False(t, g.Contains("A"))
	for _, dep := range g.Dependencies() {
		assert.False(t, dep.Touches("A"), dep.String())
	}
	assert.Equal(t, []Dependency{{Source: "B", Target: "D"}}, g.Dependencies())

	assert.ErrorIs(t, g.RemoveDeployment(ctx, "A"), ErrDeploymentNotFound)
}

func TestBindUnbind(t *testing.T) {
	t.Run("bind adds edges", func(t *testing.T) {
		g := typicalGraph(t)
		require.NoError(t, g.Bind("C", "D"))
		assert.True(t, g.HasDependency("C", "D"))
		assert.ErrorIs(t, g.Bind("C", "Z"), ErrDeploymentNotFound)
		assert.ErrorIs(t, g.Bind("Z", "C"), ErrDeploymentNotFound)
	})

	t.Run("unbind removes edges in both directions", func(t *testing.T) {
		g := typicalGraph(t)
		require.NoError(t, g.Unbind("D", "A", "C"))
		assert.False(t, g.HasDependency("A", "D"))
		assert.True(t, g.HasDependency("A", "C"))
		assert.True(t, g.HasDependency("B", "D"))

		require.NoError(t, g.Unbind("A", "C"))
		assert.False(t, g.HasDependency("A", "C"))
	})
}

func TestCycles(t *testing.T) {
	t.Run("acyclic", func(t *testing.T) {
		assert.NoError(t, typicalGraph(t).CheckAcyclic())
	})

	t.Run("cycle through bind", func(t *testing.T) {
		g := typicalGraph(t)
		require.NoError(t, g.Bind("D", "B"))
		assert.True(t, g.HasCycles())
		assert.ErrorIs(t, g.CheckAcyclic(), ErrCyclicConfiguration)
	})

	t.Run("cycle beyond the first branch", func(t *testing.T) {
		g := New("x")
		for _, n := range []string{"A", "B", "C", "D"} {
			g.deployments[n] = NewDeployment(n, "")
		}
		g.dependencies[Dependency{"A", "B"}] = struct{}{}
		g.dependencies[Dependency{"A", "C"}] = struct{}{}
		g.dependencies[Dependency{"C", "D"}] = struct{}{}
		g.dependencies[Dependency{"D", "A"}] = struct{}{}
		assert.True(t, g.HasCycles())
	})

	t.Run("reflexive edge", func(t *testing.T) {
		g := New("x")
		g.deployments["A"] = NewDeployment("A", "")
		g.dependencies[Dependency{"A", "A"}] = struct{}{}
		assert.ErrorIs(t, g.CheckAcyclic(), ErrCyclicConfiguration)
	})
}

func TestTransitiveClosure(t *testing.T) {
	g, err := NewBuilder("x").
		Deployments("A", "B", "C", "D", "E").
		Requires("A", "B", "C").
		Requires("C", "D").
		Requires("E", "A").
		Build(testContext())
	require.NoError(t, err)

	reqs, err := g.TransitiveRequirements("A")
	require.NoError(t, err)
	// Every branch is explored, not only the first one.
	assert.Equal(t, []string{"B", "C", "D"}, names(reqs))

	requirers, err := g.TransitiveRequirers("D")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C", "E"}, names(requirers))

	_, err = g.TransitiveRequirers("Z")
	assert.ErrorIs(t, err, ErrDeploymentNotFound)

	require.NoError(t, g.Bind("D", "E"))
	_, err = g.TransitiveRequirers("D")
	assert.ErrorIs(t, err, ErrCyclicConfiguration)
}

func TestStartStop(t *testing.T) {
	t.Run("stop propagates to requirers first", func(t *testing.T) {
		g := typicalGraph(t)
		actions, err := g.Stop("D")
		require.NoError(t, err)

		assert.Equal(t, []string{"stop A", "stop B", "stop D"}, keys(actions))
		for _, n := range []string{"A", "B", "D"} {
			d, _ := g.Lookup(n)
			assert.Equal(t, Stopped, d.Status, n)
		}
		c, _ := g.Lookup("C")
		assert.Equal(t, Started, c.Status)
	})

	t.Run("start restores requirers", func(t *testing.T) {
		g := typicalGraph(t)
		_, err := g.Stop("D")
		require.NoError(t, err)

		actions, err := g.Start("D")
		require.NoError(t, err)
		assert.Equal(t, []string{"start D", "start A", "start B"}, keys(actions))
	})

	t.Run("start brings requirements up first", func(t *testing.T) {
		g := typicalGraph(t)
		_, err := g.Stop("C")
		require.NoError(t, err)
		_, err = g.Stop("D")
		require.NoError(t, err)

		actions, err := g.Start("A")
		require.NoError(t, err)
		assert.Equal(t, []string{"start C", "start D", "start A", "start B"}, keys(actions))
	})

	t.Run("no action without transition", func(t *testing.T) {
		g := typicalGraph(t)
		actions, err := g.Start("A")
		require.NoError(t, err)
		assert.Empty(t, actions)
	})

	t.Run("actions carry manifest and namespace", func(t *testing.T) {
		g, err := NewBuilder("shop").Deployment("api", "api.yaml").Build(testContext())
		require.NoError(t, err)
		actions, err := g.Stop("api")
		require.NoError(t, err)
		require.Len(t, actions, 1)
		assert.Equal(t, action.New(action.Stop, "api", "api.yaml", "shop"), actions[0])
	})

	t.Run("unknown deployment", func(t *testing.T) {
		_, err := typicalGraph(t).Start("Z")
		assert.ErrorIs(t, err, ErrDeploymentNotFound)
	})
}

func TestCloneIndependence(t *testing.T) {
	g := typicalGraph(t)
	clone := g.Clone()

	require.NoError(t, clone.RemoveDeployment(testContext(), "C"))
	_, err := clone.Stop("D")
	require.NoError(t, err)

	assert.True(t, g.Contains("C"))
	d, _ := g.Lookup("D")
	assert.Equal(t, Started, d.Status)
	assert.True(t, g.HasDependency("A", "C"))
}

func TestReplace(t *testing.T) {
	g := typicalGraph(t)
	target := g.Clone()
	require.NoError(t, target.RemoveDeployment(testContext(), "C"))
	require.NoError(t, target.Add(testContext(), NewDeployment("E", ""), "A"))

	g.Replace(target)
	assert.Equal(t, []string{"A", "B", "D", "E"}, g.Names())
	assert.True(t, g.HasDependency("E", "A"))

	// Later changes to the source of the replacement do not leak.
	require.NoError(t, target.RemoveDeployment(testContext(), "E"))
	assert.True(t, g.Contains("E"))
}

func TestArchive(t *testing.T) {
	g := typicalGraph(t)
	a, err := g.Archive("D")
	require.NoError(t, err)
	assert.Equal(t, Archive{Name: "D", Requirers: []string{"A", "B"}}, a)

	_, err = g.Archive("Z")
	assert.ErrorIs(t, err, ErrDeploymentNotFound)
}

func keys(actions []action.Action) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.Key())
	}
	return out
}
