package topology

import (
	"context"
	"fmt"
)

// Builder assembles a graph from literal deployments and dependencies.
//
//	g, err := topology.NewBuilder("shop").
//		Deployment("api", "api.yaml").
//		Deployment("db", "db.yaml").
//		Requires("api", "db").
//		Build(ctx)
type Builder struct {
	namespace    string
	deployments  []Deployment
	dependencies []Dependency
}

// NewBuilder starts a graph for the given namespace.
func NewBuilder(namespace string) *Builder {
	return &Builder{namespace: namespace}
}

// Deployment declares a stopped deployment.
func (b *Builder) Deployment(name, manifestPath string) *Builder {
	b.deployments = append(b.deployments, NewDeployment(name, manifestPath))
	return b
}

// Deployments declares several stopped deployments without manifests.
func (b *Builder) Deployments(names ...string) *Builder {
	for _, name := range names {
		b.Deployment(name, "")
	}
	return b
}

// Requires declares that source requires every target.
func (b *Builder) Requires(source string, targets ...string) *Builder {
	for _, target := range targets {
		b.dependencies = append(b.dependencies, Dependency{Source: source, Target: target})
	}
	return b
}

// Snapshot returns the declared structure without validating it.
func (b *Builder) Snapshot() Snapshot {
	return Snapshot{
		Namespace:    b.namespace,
		Deployments:  append([]Deployment(nil), b.deployments...),
		Dependencies: append([]Dependency(nil), b.dependencies...),
	}
}

// Build validates the declared structure and boots the resulting graph.
func (b *Builder) Build(ctx context.Context) (*Graph, error) {
	g, err := FromSnapshot(b.Snapshot())
	if err != nil {
		return nil, err
	}
	if err := g.Boot(ctx); err != nil {
		return nil, fmt.Errorf("boot configuration %q: %w", b.namespace, err)
	}
	return g, nil
}
