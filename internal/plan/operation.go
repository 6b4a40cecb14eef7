package plan

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/reconfgrid/internal/topology"
)

// Operation is a user-level reconfiguration instruction. Apply replays it on
// a graph; Priority fixes its rank when a formula is sorted.
type Operation interface {
	Apply(ctx context.Context, g *topology.Graph) error
	Priority() int
	String() string
}

// Add introduces a new deployment requiring the named deployments.
type Add struct {
	Deployment   topology.Deployment
	Requirements []string
}

// Remove deletes a deployment and every dependency touching it.
type Remove struct {
	Name string
}

// Replace swaps Old for New, carrying Old's dependencies over to New.
type Replace struct {
	Old string
	New topology.Deployment
}

// Bind makes Name require each of Requirements.
type Bind struct {
	Name         string
	Requirements []string
}

// Release removes the dependencies between Name and each of Others.
type Release struct {
	Name   string
	Others []string
}

func (Replace) Priority() int { return 5 }
func (Add) Priority() int     { return 4 }
func (Release) Priority() int { return 3 }
func (Bind) Priority() int    { return 2 }
func (Remove) Priority() int  { return 1 }

func (op Add) Apply(ctx context.Context, g *topology.Graph) error {
	if g.Contains(op.Deployment.Name) {
		return fmt.Errorf("%q in configuration %q: %w", op.Deployment.Name, g.Namespace(), ErrDeploymentToAddAlreadyExists)
	}
	if err := requireAll(g, op.Requirements, ErrRequirementNotFound); err != nil {
		return err
	}
	d := op.Deployment
	d.Status = topology.Stopped
	return g.Add(ctx, d, op.Requirements...)
}

func (op Remove) Apply(ctx context.Context, g *topology.Graph) error {
	if !g.Contains(op.Name) {
		return fmt.Errorf("%q in configuration %q: %w", op.Name, g.Namespace(), ErrDeploymentToRemoveNotFound)
	}
	return g.RemoveDeployment(ctx, op.Name)
}

func (op Replace) Apply(ctx context.Context, g *topology.Graph) error {
	archive, err := g.Archive(op.Old)
	if err != nil {
		return fmt.Errorf("%q in configuration %q: %w", op.Old, g.Namespace(), ErrDeploymentToReplaceNotFound)
	}
	if op.New.Name != op.Old && g.Contains(op.New.Name) {
		return fmt.Errorf("%q in configuration %q: %w", op.New.Name, g.Namespace(), ErrDeploymentToAddAlreadyExists)
	}
	if err := g.RemoveDeployment(ctx, op.Old); err != nil {
		return err
	}
	d := op.New
	d.Status = topology.Stopped
	if err := g.Add(ctx, d, archive.Requirements...); err != nil {
		return err
	}
	for _, requirer := range archive.Requirers {
		if err := g.Bind(requirer, d.Name); err != nil {
			return err
		}
	}
	return nil
}

func (op Bind) Apply(_ context.Context, g *topology.Graph) error {
	if !g.Contains(op.Name) {
		return fmt.Errorf("%q in configuration %q: %w", op.Name, g.Namespace(), ErrDeploymentToBindNotFound)
	}
	if err := requireAll(g, op.Requirements, ErrRequirementNotFound); err != nil {
		return err
	}
	return g.Bind(op.Name, op.Requirements...)
}

func (op Release) Apply(_ context.Context, g *topology.Graph) error {
	if !g.Contains(op.Name) {
		return fmt.Errorf("%q in configuration %q: %w", op.Name, g.Namespace(), ErrDeploymentToReleaseNotFound)
	}
	if err := requireAll(g, op.Others, ErrDeploymentNotFound); err != nil {
		return err
	}
	return g.Unbind(op.Name, op.Others...)
}

func requireAll(g *topology.Graph, names []string, sentinel error) error {
	for _, name := range names {
		if !g.Contains(name) {
			return fmt.Errorf("%q in configuration %q: %w", name, g.Namespace(), sentinel)
		}
	}
	return nil
}

func (op Add) String() string {
	return fmt.Sprintf("add %s requiring {%s}", op.Deployment.Name, strings.Join(op.Requirements, ", "))
}

func (op Remove) String() string {
	return "remove " + op.Name
}

func (op Replace) String() string {
	return fmt.Sprintf("replace %s with %s", op.Old, op.New.Name)
}

func (op Bind) String() string {
	return fmt.Sprintf("bind %s to {%s}", op.Name, strings.Join(op.Requirements, ", "))
}

func (op Release) String() string {
	return fmt.Sprintf("release %s from {%s}", op.Name, strings.Join(op.Others, ", "))
}
