package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/vk/reconfgrid/internal/dsl"
)

func newCheckCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "check SCRIPT",
		Short: "Check a reconfiguration script and list its operations",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.newApp(args[0])
			if err != nil {
				return err
			}
			program, err := a.Check(cmd.Context())
			var diags dsl.Diagnostics
			if errors.As(err, &diags) {
				renderDiagnostics(s.stdout, args[0], diags)
				return &ExitError{Code: 1, Message: "script has errors"}
			}
			if err != nil {
				return failure(err)
			}
			renderProgram(s.stdout, args[0], program)
			return nil
		},
	}
}

func newPlanCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "plan SCRIPT",
		Short: "Show the actions, constraints and workflow of a reconfiguration",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.newApp(args[0])
			if err != nil {
				return err
			}
			p, err := a.Plan(cmd.Context())
			if err != nil {
				return s.planFailure(args[0], err)
			}
			renderPlan(s.stdout, p)
			return nil
		},
	}
}

func newDotCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "dot SCRIPT",
		Short: "Print the reconfiguration workflow in Graphviz DOT",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.newApp(args[0])
			if err != nil {
				return err
			}
			if err := a.WriteDOT(cmd.Context(), s.stdout); err != nil {
				return s.planFailure(args[0], err)
			}
			return nil
		},
	}
}

func newApplyCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "apply SCRIPT",
		Short: "Execute a reconfiguration",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.newApp(args[0])
			if err != nil {
				return err
			}
			stop := startSpinner(s.stdout, "Applying "+args[0])
			p, err := a.Apply(cmd.Context())
			stop()
			if err != nil {
				return s.planFailure(args[0], err)
			}
			renderApplied(s.stdout, p)
			return nil
		},
	}
}

func newHistoryCmd(s *session) *cobra.Command {
	var namespace string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the recorded snapshots of a configuration",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if namespace == "" {
				return usageError(errors.New(`required flag "configuration" not set`))
			}
			a, err := s.newApp("")
			if err != nil {
				return err
			}
			entries, err := a.History(cmd.Context(), namespace)
			if err != nil {
				return failure(err)
			}
			renderHistory(s.stdout, namespace, entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&namespace, "configuration", "", "Configuration whose snapshots are listed.")
	return cmd
}

// planFailure renders diagnostics before failing, like check does.
func (s *session) planFailure(script string, err error) error {
	var diags dsl.Diagnostics
	if errors.As(err, &diags) {
		renderDiagnostics(s.stdout, script, diags)
		return &ExitError{Code: 1, Message: "script has errors"}
	}
	return failure(err)
}
