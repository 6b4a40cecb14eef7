package topology

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Snapshot is the structural, serializable form of a Graph.
type Snapshot struct {
	Namespace    string       `json:"namespace" yaml:"namespace"`
	Deployments  []Deployment `json:"deployments" yaml:"deployments"`
	Dependencies []Dependency `json:"dependencies" yaml:"dependencies"`
}

// Snapshot returns the graph's current structure, sorted for stable output.
func (g *Graph) Snapshot() Snapshot {
	return Snapshot{
		Namespace:    g.namespace,
		Deployments:  g.Deployments(),
		Dependencies: g.Dependencies(),
	}
}

// FromSnapshot restores a graph exactly, statuses included. Every dependency
// endpoint must name a deployment of the snapshot.
func FromSnapshot(s Snapshot) (*Graph, error) {
	g := New(s.Namespace)
	for _, d := range s.Deployments {
		if _, ok := g.deployments[d.Name]; ok {
			return nil, fmt.Errorf("%q in configuration %q: %w", d.Name, s.Namespace, ErrDuplicateDeployment)
		}
		g.deployments[d.Name] = d
	}
	for _, dep := range s.Dependencies {
		if dep.Source == dep.Target {
			return nil, fmt.Errorf("%q: %w", dep.Source, ErrSelfDependency)
		}
		if _, ok := g.deployments[dep.Source]; !ok {
			return nil, fmt.Errorf("dependency %s: %w", dep, g.notFound(dep.Source))
		}
		if _, ok := g.deployments[dep.Target]; !ok {
			return nil, fmt.Errorf("dependency %s: %w", dep, g.notFound(dep.Target))
		}
		g.dependencies[dep] = struct{}{}
	}
	return g, nil
}

// EncodeJSON writes the graph's snapshot as indented JSON.
func EncodeJSON(w io.Writer, g *Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g.Snapshot()); err != nil {
		return fmt.Errorf("encode snapshot of %q: %w", g.Namespace(), err)
	}
	return nil
}

// DecodeJSON reads a snapshot written by EncodeJSON.
func DecodeJSON(r io.Reader) (*Graph, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return FromSnapshot(s)
}

// EncodeYAML writes the graph's snapshot as YAML.
func EncodeYAML(w io.Writer, g *Graph) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(g.Snapshot()); err != nil {
		return fmt.Errorf("encode snapshot of %q: %w", g.Namespace(), err)
	}
	return enc.Close()
}

// DecodeYAML reads a snapshot written by EncodeYAML.
func DecodeYAML(r io.Reader) (*Graph, error) {
	var s Snapshot
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return FromSnapshot(s)
}
