package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"
	"sync"

	"github.com/vk/reconfgrid/internal/ctxlog"
)

// Runner executes the command list of one atomic action synchronously.
type Runner interface {
	Run(ctx context.Context, commands []string) error
}

// ShellRunner chains the commands with && and runs them through /bin/sh,
// forwarding the output.
type ShellRunner struct {
	Shell  string
	Stdout io.Writer
	Stderr io.Writer
}

// NewShellRunner returns a runner writing to the process's stdout and stderr.
func NewShellRunner() *ShellRunner {
	return &ShellRunner{Shell: "/bin/sh", Stdout: os.Stdout, Stderr: os.Stderr}
}

func (r *ShellRunner) Run(ctx context.Context, commands []string) error {
	if len(commands) == 0 {
		return nil
	}
	script := strings.Join(commands, " && ")
	ctxlog.FromContext(ctx).Debug("Running commands.", "script", script)

	cmd := exec.CommandContext(ctx, r.Shell, "-c", script)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %q: %w", script, err)
	}
	return nil
}

// DryRunner logs and records commands without running them.
type DryRunner struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *DryRunner) Run(ctx context.Context, commands []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("Dry run.", "commands", commands)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, slices.Clone(commands))
	return nil
}

// Batches returns the recorded command lists in completion order.
func (r *DryRunner) Batches() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.batches)
}
