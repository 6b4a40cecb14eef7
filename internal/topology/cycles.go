package topology

import (
	"fmt"
	"maps"
	"slices"
)

// HasCycles reports whether the dependency set contains a cycle.
func (g *Graph) HasCycles() bool {
	return g.CheckAcyclic() != nil
}

// CheckAcyclic returns ErrCyclicConfiguration, naming a deployment on the
// cycle, if any dependency is reflexive or any requirement chain loops back.
func (g *Graph) CheckAcyclic() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.checkAcyclic()
}

func (g *Graph) checkAcyclic() error {
	for dep := range g.dependencies {
		if dep.Source == dep.Target {
			return fmt.Errorf("reflexive dependency on %q in configuration %q: %w", dep.Source, g.namespace, ErrCyclicConfiguration)
		}
	}

	// Classic depth-first search with three colours:
	// permanent: fully explored, not part of a cycle.
	// temporary: on the current recursion stack.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(name string) error
	visit = func(name string) error {
		if permanent[name] {
			return nil
		}
		if temporary[name] {
			return fmt.Errorf("cycle involving %q in configuration %q: %w", name, g.namespace, ErrCyclicConfiguration)
		}
		temporary[name] = true
		for _, req := range g.requirementNames(name) {
			if err := visit(req); err != nil {
				return err
			}
		}
		delete(temporary, name)
		permanent[name] = true
		return nil
	}

	for _, name := range slices.Sorted(maps.Keys(g.deployments)) {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// TransitiveRequirements returns every deployment name requires, directly or
// indirectly. The graph must be acyclic.
func (g *Graph) TransitiveRequirements(name string) ([]Deployment, error) {
	return g.closure(name, (*Graph).requirementNames)
}

// TransitiveRequirers returns every deployment that requires name, directly
// or indirectly. The graph must be acyclic.
func (g *Graph) TransitiveRequirers(name string) ([]Deployment, error) {
	return g.closure(name, (*Graph).requirerNames)
}

func (g *Graph) closure(name string, next func(*Graph, string) []string) ([]Deployment, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	if err := g.checkAcyclic(); err != nil {
		return nil, err
	}
	if _, ok := g.deployments[name]; !ok {
		return nil, g.notFound(name)
	}

	visited := make(map[string]bool)
	var visit func(string)
	visit = func(current string) {
		for _, neighbour := range next(g, current) {
			if visited[neighbour] {
				continue
			}
			visited[neighbour] = true
			visit(neighbour)
		}
	}
	visit(name)

	return g.resolve(slices.Sorted(maps.Keys(visited))), nil
}
