package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vk/reconfgrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// session carries what every command needs once flags are parsed.
type session struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer
}

// Execute runs the command line args against the given streams.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := NewRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	var exitErr *ExitError
	if err != nil && !errors.As(err, &exitErr) {
		// Commands report their own failures; anything else comes from
		// cobra's argument handling.
		return usageError(err)
	}
	return err
}

// NewRootCmd builds the reconfgrid command tree.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	s := &session{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "reconfgrid",
		Short: "Plan and apply reconfigurations of interdependent deployments",
		Long: `reconfgrid compiles a reconfiguration script against the current topology of a
configuration, derives the actions to stop, remove, add and start deployments,
and runs them as a maximally parallel workflow of kubectl commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			v, err := setupViper(cmd)
			if err != nil {
				return usageError(err)
			}
			s.v = v
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError(err) })
	addPersistentFlags(root)

	root.AddCommand(
		newCheckCmd(s),
		newPlanCmd(s),
		newDotCmd(s),
		newApplyCmd(s),
		newHistoryCmd(s),
	)
	return root
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

// newApp validates the bound configuration for the given script.
func (s *session) newApp(script string) (*app.App, error) {
	cfg, err := app.NewConfig(configFrom(s.v, script))
	if err != nil {
		return nil, usageError(err)
	}
	return app.NewApp(s.stderr, cfg), nil
}

// failure maps an application error to the exit code 1 while keeping
// usage errors as they are.
func failure(err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	if errors.Is(err, app.ErrMissingTopology) || errors.Is(err, app.ErrMissingHistory) {
		return usageError(err)
	}
	return &ExitError{Code: 1, Message: fmt.Sprintf("Error: %v", err)}
}
