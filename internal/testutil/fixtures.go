package testutil

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/vk/reconfgrid/internal/ctxlog"
	"github.com/vk/reconfgrid/internal/plan"
	"github.com/vk/reconfgrid/internal/topology"
)

// Context returns a background context carrying a discarding logger.
func Context() context.Context {
	return ctxlog.Discard(context.Background())
}

// Deployment returns a stopped deployment whose manifest is "<name>.yaml".
func Deployment(name string) topology.Deployment {
	return topology.NewDeployment(name, name+".yaml")
}

// TypicalGraph builds the booted configuration A->C, A->D, B->D.
func TypicalGraph(t *testing.T) *topology.Graph {
	t.Helper()
	g, err := topology.NewBuilder("Typical_Graph").
		Deployment("A", "A.yaml").
		Deployment("B", "B.yaml").
		Deployment("C", "C.yaml").
		Deployment("D", "D.yaml").
		Requires("A", "C", "D").
		Requires("B", "D").
		Build(Context())
	require.NoError(t, err)
	return g
}

// ExampleDelta returns the delta of "add E requiring {A}; remove C" applied to
// TypicalGraph.
func ExampleDelta(t *testing.T) *plan.Delta {
	t.Helper()
	return DeltaOf(t, TypicalGraph(t), plan.Formula{
		plan.Remove{Name: "C"},
		plan.Add{Deployment: Deployment("E"), Requirements: []string{"A"}},
	})
}

// DeltaOf computes the delta of f applied to source.
func DeltaOf(t *testing.T, source *topology.Graph, f plan.Formula) *plan.Delta {
	t.Helper()
	target, replacements, err := f.Sorted().Target(Context(), source)
	require.NoError(t, err)
	d, err := plan.NewDelta(source, target, replacements...)
	require.NoError(t, err)
	return d
}

// RandomGraph builds a booted acyclic configuration of n deployments where
// each deployment may require any deployment created before it.
func RandomGraph(t *testing.T, rng *rand.Rand, n int) *topology.Graph {
	t.Helper()
	b := topology.NewBuilder("random")
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("n%d", i)
		b.Deployment(name, name+".yaml")
		for j := 0; j < i; j++ {
			if rng.IntN(3) == 0 {
				b.Requires(name, fmt.Sprintf("n%d", j))
			}
		}
	}
	g, err := b.Build(Context())
	require.NoError(t, err)
	return g
}

// RandomFormula draws a few removals and additions, possibly led by one
// replacement, that keep the configuration acyclic in any priority order.
func RandomFormula(rng *rand.Rand, source *topology.Graph) plan.Formula {
	current := source.Names()
	var f plan.Formula
	steps := 1 + rng.IntN(4)
	for i := 0; i < steps; i++ {
		switch {
		case i == 0 && rng.IntN(2) == 0 && len(current) > 0:
			old := current[rng.IntN(len(current))]
			name := fmt.Sprintf("rep%d", i)
			f = append(f, plan.Replace{Old: old, New: Deployment(name)})
			current = append(lo.Without(current, old), name)
		case rng.IntN(3) == 0 && len(current) > 1:
			victim := current[rng.IntN(len(current))]
			f = append(f, plan.Remove{Name: victim})
			current = lo.Without(current, victim)
		default:
			name := fmt.Sprintf("new%d", i)
			reqs := lo.Filter(current, func(string, int) bool { return rng.IntN(3) == 0 })
			f = append(f, plan.Add{Deployment: Deployment(name), Requirements: reqs})
			current = append(current, name)
		}
	}
	return f
}
