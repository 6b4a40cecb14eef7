package history

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/reconfgrid/internal/testutil"
	"github.com/vk/reconfgrid/internal/topology"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(testutil.Context(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndLatest(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	ctx := testutil.Context()
	s := openTestStore(t)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	g := testutil.TypicalGraph(t)

	// --- Act ---
	v1, err := s.Record(ctx, "before", g)
	require.NoError(t, err)
	require.NoError(t, g.RemoveDeployment(ctx, "C"))
	v2, err := s.Record(ctx, "after", g)
	require.NoError(t, err)
	latest, err := s.Latest(ctx, g.Namespace())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, 1, v1)
	assert.Equal(t, 2, v2)
	assert.Equal(t, "after", latest.Label)
	assert.Equal(t, 3, latest.Deployments)
	assert.Equal(t, fixed, latest.RecordedAt)
	if diff := cmp.Diff(g.Snapshot(), latest.Graph.Snapshot()); diff != "" {
		t.Errorf("restored graph mismatch (-want +got):\n%s", diff)
	}
}

func TestVersionsArePerNamespace(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context()
	s := openTestStore(t)

	_, err := s.Record(ctx, "typical", testutil.TypicalGraph(t))
	require.NoError(t, err)
	other, err := topology.NewBuilder("other").Deployment("X", "X.yaml").Build(ctx)
	require.NoError(t, err)
	v, err := s.Record(ctx, "other", other)
	require.NoError(t, err)

	assert.Equal(t, 1, v)
	entries, err := s.List(ctx, "Typical_Graph")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"A", "B", "C", "D"}, entries[0].Graph.Names())
}

func TestList(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context()
	s := openTestStore(t)
	g := testutil.TypicalGraph(t)
	for _, label := range []string{"one", "two", "three"} {
		_, err := s.Record(ctx, label, g)
		require.NoError(t, err)
	}

	entries, err := s.List(ctx, g.Namespace())

	require.NoError(t, err)
	var labels []string
	var versions []int
	for _, e := range entries {
		labels = append(labels, e.Label)
		versions = append(versions, e.Version)
	}
	assert.Equal(t, []string{"one", "two", "three"}, labels)
	assert.Equal(t, []int{1, 2, 3}, versions)
}

func TestLatestWithoutSnapshots(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	_, err := s.Latest(testutil.Context(), "nothing")

	assert.ErrorIs(t, err, ErrNoSnapshot)
	entries, err := s.List(testutil.Context(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
