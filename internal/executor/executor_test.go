package executor

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/reconfgrid/internal/action"
	"github.com/vk/reconfgrid/internal/plan"
	"github.com/vk/reconfgrid/internal/testutil"
	"github.com/vk/reconfgrid/internal/topology"
	"github.com/vk/reconfgrid/internal/workflow"
)

// keysOf maps recorded first commands back to action keys.
func keysOf(d *plan.Delta, order []string) []string {
	byCommand := lo.SliceToMap(d.Actions(), func(a action.Action) (string, string) {
		return action.Commands(a)[0], a.Key()
	})
	return lo.Map(order, func(cmd string, _ int) string { return byCommand[cmd] })
}

func TestRunPhased(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	ctx := testutil.Context()
	d := testutil.ExampleDelta(t)
	w, err := workflow.FromDelta(ctx, d, workflow.StrategyPhased)
	require.NoError(t, err)
	runner := &testutil.RecordingRunner{}

	// --- Act ---
	err = New(runner).Run(ctx, w)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{"stop A", "stop C", "remove C", "add E", "start A", "start E"}, keysOf(d, runner.Order()))
}

func TestRunConfluentHonoursConstraints(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context()
	d := testutil.ExampleDelta(t)
	w, err := workflow.FromDelta(ctx, d, workflow.StrategyConfluent)
	require.NoError(t, err)
	runner := &testutil.RecordingRunner{Delay: 5 * time.Millisecond}

	require.NoError(t, New(runner).Run(ctx, w))

	order := keysOf(d, runner.Order())
	require.Len(t, order, 6)
	for _, c := range d.Constraints() {
		assert.Less(t, lo.IndexOf(order, c.Before.Key()), lo.IndexOf(order, c.After.Key()), "constraint %s", c)
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context()
	d := testutil.ExampleDelta(t)
	w, err := workflow.FromDelta(ctx, d, workflow.StrategyPhased)
	require.NoError(t, err)
	runner := &testutil.RecordingRunner{FailOn: "kubectl delete deployment C"}

	err = New(runner).Run(ctx, w)

	require.ErrorIs(t, err, testutil.ErrInjected)
	assert.ErrorContains(t, err, `task "remove C"`)
	assert.Equal(t, []string{"stop A", "stop C"}, keysOf(d, runner.Order()))
}

func TestRunRefusesNonCompliantWorkflow(t *testing.T) {
	t.Parallel()
	a := action.New(action.Start, "A", "", "ns")
	b := action.New(action.Start, "B", "", "ns")
	w := workflow.Build([]action.Action{a, b}, nil)
	runner := &testutil.RecordingRunner{}

	err := New(runner).Run(testutil.Context(), w)

	assert.ErrorIs(t, err, workflow.ErrNonCompliant)
	assert.Empty(t, runner.Order())
}

func TestRunBoundsConcurrency(t *testing.T) {
	t.Parallel()
	var tasks []action.Action
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		tasks = append(tasks, action.New(action.Start, name, "", "ns"))
	}
	w := workflow.Build(tasks, nil)
	w.GroupBothEnds()
	require.NoError(t, w.Wrap())
	runner := &testutil.RecordingRunner{Delay: 20 * time.Millisecond}

	require.NoError(t, New(runner, WithWorkers(2)).Run(testutil.Context(), w))

	assert.Len(t, runner.Order(), 5)
	assert.LessOrEqual(t, runner.Peak(), 2)
}

func TestRunIsRepeatable(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context()
	w, err := workflow.FromDelta(ctx, testutil.ExampleDelta(t), workflow.StrategyConfluent)
	require.NoError(t, err)
	runner := &testutil.RecordingRunner{}
	e := New(runner)

	require.NoError(t, e.Run(ctx, w))
	require.NoError(t, e.Run(ctx, w))

	assert.Len(t, runner.Order(), 12)
}

func TestApply(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context()
	g := testutil.TypicalGraph(t)
	d := testutil.DeltaOf(t, g, plan.Formula{
		plan.Remove{Name: "C"},
		plan.Add{Deployment: testutil.Deployment("E"), Requirements: []string{"A"}},
	})
	w, err := workflow.FromDelta(ctx, d, workflow.StrategyPhased)
	require.NoError(t, err)

	require.NoError(t, New(&testutil.RecordingRunner{}).Apply(ctx, g, d, w))

	assert.Equal(t, []string{"A", "B", "D", "E"}, g.Names())
	assert.True(t, g.HasDependency("E", "A"))
	for _, dep := range g.Deployments() {
		assert.Equal(t, topology.Started, dep.Status, dep.Name)
	}
	e, _ := d.Target.Lookup("E")
	assert.Equal(t, topology.Stopped, e.Status, "the delta's target is not modified")
}

func TestApplyLeavesGraphOnFailure(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context()
	g := testutil.TypicalGraph(t)
	d := testutil.DeltaOf(t, g, plan.Formula{plan.Remove{Name: "C"}})
	w, err := workflow.FromDelta(ctx, d, workflow.StrategyPhased)
	require.NoError(t, err)

	err = New(&testutil.RecordingRunner{FailOn: "delete"}).Apply(ctx, g, d, w)

	require.Error(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, g.Names())
}

func TestApplyLinear(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context()
	g := testutil.TypicalGraph(t)
	l, err := plan.Linearize(ctx, g, plan.Formula{plan.Replace{Old: "D", New: testutil.Deployment("N")}})
	require.NoError(t, err)
	runner := &testutil.RecordingRunner{}

	require.NoError(t, New(runner).ApplyLinear(ctx, g, l))

	assert.Equal(t, lo.Map(l.Actions, func(a action.Action, _ int) string { return action.Commands(a)[0] }), runner.Order())
	assert.Equal(t, []string{"A", "B", "C", "N"}, g.Names())
}

func TestMetrics(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context()
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	w, err := workflow.FromDelta(ctx, testutil.ExampleDelta(t), workflow.StrategyPhased)
	require.NoError(t, err)

	err = New(&testutil.RecordingRunner{FailOn: "apply"}, WithMetrics(m)).Run(ctx, w)

	require.Error(t, err)
	assert.Equal(t, 2.0, promtest.ToFloat64(m.executed.WithLabelValues("stop")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.executed.WithLabelValues("add")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.failed.WithLabelValues("add")))
	assert.Equal(t, 0.0, promtest.ToFloat64(m.failed.WithLabelValues("stop")))
}

func TestBackoffFollowsStops(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(testutil.Context(), 50*time.Millisecond)
	defer cancel()
	l := &plan.Linear{Actions: []action.Action{
		action.New(action.Start, "A", "", "ns"),
		action.New(action.Stop, "A", "", "ns"),
		action.New(action.Start, "B", "", "ns"),
	}}
	runner := &testutil.RecordingRunner{}

	err := New(runner, WithBackoff(time.Hour)).RunLinear(ctx, l)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, runner.Order(), 2)
}

func TestShellRunner(t *testing.T) {
	t.Parallel()
	var stdout, stderr bytes.Buffer
	r := &ShellRunner{Shell: "/bin/sh", Stdout: &stdout, Stderr: &stderr}

	require.NoError(t, r.Run(testutil.Context(), []string{"echo one", "echo two >&2"}))
	assert.Equal(t, "one\n", stdout.String())
	assert.Equal(t, "two\n", stderr.String())

	err := r.Run(testutil.Context(), []string{"exit 3", "echo unreachable"})
	require.Error(t, err)
	assert.NotContains(t, stdout.String(), "unreachable")
}

func TestDryRunner(t *testing.T) {
	t.Parallel()
	r := &DryRunner{}
	require.NoError(t, r.Run(testutil.Context(), []string{"a", "b"}))

	assert.Equal(t, [][]string{{"a", "b"}}, r.Batches())

	ctx, cancel := context.WithCancel(testutil.Context())
	cancel()
	assert.True(t, errors.Is(r.Run(ctx, nil), context.Canceled))
}
