package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/samber/lo"

	"github.com/vk/reconfgrid/internal/action"
	"github.com/vk/reconfgrid/internal/app"
	"github.com/vk/reconfgrid/internal/dsl"
	"github.com/vk/reconfgrid/internal/history"
	"github.com/vk/reconfgrid/internal/plan"
	"github.com/vk/reconfgrid/internal/topology"
	"github.com/vk/reconfgrid/internal/workflow"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow)
)

// interactive reports whether w is a terminal.
func interactive(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// startSpinner shows a spinner on terminals and returns the function that
// removes it.
func startSpinner(w io.Writer, message string) func() {
	if !interactive(w) {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	s.Start()
	return s.Stop
}

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	return t
}

func renderDiagnostics(w io.Writer, script string, diags dsl.Diagnostics) {
	errorColor.Fprintf(w, "%s: %d problem(s) found\n", script, len(diags))
	for _, d := range diags {
		fmt.Fprintf(w, "  %s\n", d)
	}
}

func renderOperations(w io.Writer, f plan.Formula) {
	if len(f) == 0 {
		warnColor.Fprintln(w, "  (no operations)")
		return
	}
	for i, op := range f {
		fmt.Fprintf(w, "  %d. %s\n", i+1, op)
	}
}

func renderProgram(w io.Writer, script string, p *dsl.Program) {
	successColor.Fprintf(w, "✓ %s is valid for configuration %q\n", script, p.Configuration)
	renderOperations(w, p.Formula)
}

func renderPlan(w io.Writer, p *app.Plan) {
	headerColor.Fprintf(w, "Configuration %q, strategy %s\n", p.Source.Namespace(), p.Strategy)
	fmt.Fprintln(w, "Operations:")
	renderOperations(w, p.Program.Formula)
	fmt.Fprintln(w)

	if p.Empty() {
		warnColor.Fprintln(w, "Nothing to do.")
		return
	}
	if p.Linear != nil {
		t := newTable(w, table.Row{"#", "Action", "Namespace"})
		for i, a := range p.Linear.Actions {
			t.AppendRow(table.Row{i + 1, a.Key(), a.Namespace})
		}
		t.Render()
		return
	}

	t := newTable(w, table.Row{"Phase", "Deployments"})
	t.AppendRows([]table.Row{
		{"stop", joinNames(p.Delta.ToStop)},
		{"remove", joinNames(p.Delta.ToRemove)},
		{"add", joinNames(p.Delta.ToAdd)},
		{"start", joinNames(p.Delta.ToStart)},
	})
	t.Render()

	constraints := p.Delta.Constraints()
	fmt.Fprintf(w, "\nConstraints (%d):\n", len(constraints))
	for _, c := range constraints {
		fmt.Fprintf(w, "  %s\n", c)
	}
	renderWorkflowSummary(w, p.Workflow)
}

func renderWorkflowSummary(w io.Writer, wf *workflow.Workflow) {
	gateways := lo.CountBy(wf.Nodes(), func(n *workflow.Node) bool { return n.IsGateway() })
	fmt.Fprintf(w, "\nWorkflow: %d tasks, %d gateways, %d flows\n", len(wf.Tasks()), gateways, len(wf.Flows()))
}

func renderApplied(w io.Writer, p *app.Plan) {
	var actions []action.Action
	if p.Linear != nil {
		actions = p.Linear.Actions
	} else {
		actions = p.Delta.Actions()
	}
	successColor.Fprintf(w, "✓ Configuration %q reconfigured with %d action(s)\n", p.Source.Namespace(), len(actions))
	t := newTable(w, table.Row{"Deployment", "Status", "Requires"})
	for _, d := range p.Source.Deployments() {
		requires := lo.Map(p.Source.Requirements(d.Name), func(r topology.Deployment, _ int) string { return r.Name })
		t.AppendRow(table.Row{d.Name, d.Status, joinNames(requires)})
	}
	t.Render()
}

func renderHistory(w io.Writer, namespace string, entries []history.Entry) {
	if len(entries) == 0 {
		warnColor.Fprintf(w, "No snapshots recorded for %q.\n", namespace)
		return
	}
	headerColor.Fprintf(w, "Snapshots of %q\n", namespace)
	t := newTable(w, table.Row{"Version", "Label", "Deployments", "Recorded"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.Version, e.Label, e.Deployments, e.RecordedAt.Local().Format(time.DateTime)})
	}
	t.Render()
}

func joinNames(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
