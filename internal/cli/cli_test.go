package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/reconfgrid/internal/testutil"
)

const script = `configuration "Typical_Graph";
remove C;
add E "E.yaml" requiring {A};
`

// workspace writes a script and the typical topology and returns the
// script path and the flags pointing at the topology.
func workspace(t *testing.T, src string) (string, []string) {
	t.Helper()
	dir := testutil.WriteFiles(t, map[string]string{
		"reconf.txt":        src,
		"topology/main.hcl": testutil.TypicalHCL,
	})
	return filepath.Join(dir, "reconf.txt"), []string{"--topology", filepath.Join(dir, "topology"), "--log-level", "error"}
}

func execute(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	err := Execute(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func requireExit(t *testing.T, err error, code int) *ExitError {
	t.Helper()
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, code, exitErr.Code)
	return exitErr
}

func TestCheck(t *testing.T) {
	t.Parallel()

	t.Run("valid script", func(t *testing.T) {
		t.Parallel()
		path, _ := workspace(t, script)

		out, _, err := execute("check", path)

		require.NoError(t, err)
		assert.Contains(t, out, `is valid for configuration "Typical_Graph"`)
		assert.Contains(t, out, "1. add E requiring {A}\n  2. remove C\n")
	})

	t.Run("diagnostics", func(t *testing.T) {
		t.Parallel()
		path, _ := workspace(t, "configuration \"Typical_Graph\";\nadd E \"E.json\";\n")

		out, _, err := execute("check", path)

		requireExit(t, err, 1)
		assert.Contains(t, out, "1 problem(s) found")
		assert.Contains(t, out, "line 2: Invalid manifest file extension")
	})
}

func TestPlan(t *testing.T) {
	t.Parallel()
	path, flags := workspace(t, script)

	out, _, err := execute(append([]string{"plan", path}, flags...)...)

	require.NoError(t, err)
	assert.Contains(t, out, `Configuration "Typical_Graph", strategy phased`)
	assert.Contains(t, out, "A, C")
	assert.Contains(t, out, "stop A -> stop C")
	assert.Contains(t, out, "Workflow: 6 tasks")
}

func TestPlanFromConfigFile(t *testing.T) {
	t.Parallel()
	path, flags := workspace(t, script)
	dir := testutil.WriteFiles(t, map[string]string{"reconfgrid.yaml": "strategy: confluent\nworkers: 3\n"})

	out, _, err := execute(append([]string{"plan", path, "--config", filepath.Join(dir, "reconfgrid.yaml")}, flags...)...)

	require.NoError(t, err)
	assert.Contains(t, out, "strategy confluent")
}

func TestPlanFromEnvironment(t *testing.T) {
	path, flags := workspace(t, script)
	t.Setenv("RECONFGRID_STRATEGY", "linear")

	out, _, err := execute(append([]string{"plan", path}, flags...)...)

	require.NoError(t, err)
	assert.Contains(t, out, "strategy linear")
	assert.Contains(t, out, "stop A")
	assert.NotContains(t, out, "Workflow:")
}

func TestDot(t *testing.T) {
	t.Parallel()
	path, flags := workspace(t, script)

	out, _, err := execute(append([]string{"dot", path}, flags...)...)

	require.NoError(t, err)
	assert.Contains(t, out, "digraph ConcreteWorkflowBPMN {")
}

func TestApplyAndHistory(t *testing.T) {
	t.Parallel()
	path, flags := workspace(t, script)
	db := filepath.Join(t.TempDir(), "history.db")

	out, _, err := execute(append([]string{"apply", path, "--dry-run", "--backoff", "0s", "--history", db}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, `Configuration "Typical_Graph" reconfigured with 6 action(s)`)
	assert.Contains(t, out, "started")

	out, _, err = execute("history", "--configuration", "Typical_Graph", "--history", db)
	require.NoError(t, err)
	assert.Contains(t, out, "before reconf.txt")
	assert.Contains(t, out, "after reconf.txt")
}

func TestApplyFailureExitCode(t *testing.T) {
	t.Parallel()
	path, flags := workspace(t, "configuration \"Typical_Graph\";\nremove Z;\n")

	_, _, err := execute(append([]string{"apply", path, "--dry-run"}, flags...)...)

	exitErr := requireExit(t, err, 1)
	assert.Contains(t, exitErr.Message, "Error:")
}

func TestUsageErrors(t *testing.T) {
	t.Parallel()
	path, flags := workspace(t, script)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown flag", args: []string{"plan", path, "--this-is-not-a-valid-flag"}, want: "unknown flag"},
		{name: "missing script", args: []string{"plan"}, want: "accepts 1 arg(s)"},
		{name: "unknown command", args: []string{"deploy"}, want: "unknown command"},
		{name: "invalid strategy", args: append([]string{"plan", path, "--strategy", "random"}, flags...), want: "must be one of"},
		{name: "invalid log format", args: []string{"check", path, "--log-format", "xml"}, want: "LogFormat"},
		{name: "history without configuration", args: []string{"history", "--history", "x.db"}, want: `"configuration" not set`},
		{name: "history without database", args: []string{"history", "--configuration", "x"}, want: "no history database"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := execute(tt.args...)

			exitErr := requireExit(t, err, 2)
			assert.Contains(t, exitErr.Message, tt.want)
		})
	}
}

func TestHelp(t *testing.T) {
	t.Parallel()
	out, _, err := execute("-h")

	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "apply")
}
