package topology

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/vk/reconfgrid/internal/ctxlog"
)

// Graph is a dependency graph of deployments within one namespace.
type Graph struct {
	mutex        sync.RWMutex
	namespace    string
	deployments  map[string]Deployment
	dependencies map[Dependency]struct{}
}

// New creates and returns an initialized, empty Graph.
func New(namespace string) *Graph {
	return &Graph{
		namespace:    namespace,
		deployments:  make(map[string]Deployment),
		dependencies: make(map[Dependency]struct{}),
	}
}

// Namespace returns the name of the configuration the graph describes.
func (g *Graph) Namespace() string {
	return g.namespace
}

// Len returns the number of deployments.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.deployments)
}

// Lookup resolves a deployment by name.
func (g *Graph) Lookup(name string) (Deployment, bool) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	d, ok := g.deployments[name]
	return d, ok
}

// Contains reports whether a deployment with the given name is in the graph.
func (g *Graph) Contains(name string) bool {
	_, ok := g.Lookup(name)
	return ok
}

// Names returns all deployment names, sorted.
func (g *Graph) Names() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return slices.Sorted(maps.Keys(g.deployments))
}

// Deployments returns a copy of every deployment record, sorted by name.
func (g *Graph) Deployments() []Deployment {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.resolve(slices.Sorted(maps.Keys(g.deployments)))
}

// Dependencies returns every dependency sorted by source, then target.
func (g *Graph) Dependencies() []Dependency {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.sortedDependencies()
}

// HasDependency reports whether source requires target directly.
func (g *Graph) HasDependency(source, target string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	_, ok := g.dependencies[Dependency{Source: source, Target: target}]
	return ok
}

// Requirements returns the deployments that name requires directly.
func (g *Graph) Requirements(name string) []Deployment {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.resolve(g.requirementNames(name))
}

// Requirers returns the deployments that require name directly.
func (g *Graph) Requirers(name string) []Deployment {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.resolve(g.requirerNames(name))
}

// Add inserts a deployment together with one dependency per requirement
// name. Adding a name that is already present is a no-op. Every requirement
// must already resolve; nothing is inserted otherwise.
func (g *Graph) Add(ctx context.Context, d Deployment, requirements ...string) error {
	logger := ctxlog.FromContext(ctx)
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.deployments[d.Name]; ok {
		logger.Warn("Deployment already present, ignoring addition.", "deployment", d.Name, "configuration", g.namespace)
		return nil
	}
	for _, req := range requirements {
		if req == d.Name {
			return fmt.Errorf("%q: %w", d.Name, ErrSelfDependency)
		}
		if _, ok := g.deployments[req]; !ok {
			return g.notFound(req)
		}
	}

	g.deployments[d.Name] = d
	for _, req := range requirements {
		g.dependencies[Dependency{Source: d.Name, Target: req}] = struct{}{}
	}
	logger.Debug("Deployment added.", "deployment", d.Name, "requirements", requirements)
	return nil
}

// RemoveDeployment removes every dependency touching name, then the deployment.
func (g *Graph) RemoveDeployment(ctx context.Context, name string) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.deployments[name]; !ok {
		return g.notFound(name)
	}
	for dep := range g.dependencies {
		if dep.Touches(name) {
			delete(g.dependencies, dep)
		}
	}
	delete(g.deployments, name)
	ctxlog.FromContext(ctx).Debug("Deployment removed.", "deployment", name)
	return nil
}

// Bind makes name require each of the given deployments.
func (g *Graph) Bind(name string, requirements ...string) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.deployments[name]; !ok {
		return g.notFound(name)
	}
	for _, req := range requirements {
		if req == name {
			return fmt.Errorf("%q: %w", name, ErrSelfDependency)
		}
		if _, ok := g.deployments[req]; !ok {
			return g.notFound(req)
		}
	}
	for _, req := range requirements {
		g.dependencies[Dependency{Source: name, Target: req}] = struct{}{}
	}
	return nil
}

// Unbind removes every dependency between name and any of others, in
// either direction.
func (g *Graph) Unbind(name string, others ...string) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.deployments[name]; !ok {
		return g.notFound(name)
	}
	for _, other := range others {
		if _, ok := g.deployments[other]; !ok {
			return g.notFound(other)
		}
	}
	for dep := range g.dependencies {
		if !dep.Touches(name) {
			continue
		}
		for _, other := range others {
			if dep.Touches(other) {
				delete(g.dependencies, dep)
				break
			}
		}
	}
	return nil
}

// Clone returns an independent copy of the graph.
func (g *Graph) Clone() *Graph {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return &Graph{
		namespace:    g.namespace,
		deployments:  maps.Clone(g.deployments),
		dependencies: maps.Clone(g.dependencies),
	}
}

// Replace swaps the deployments and dependencies of g for copies of
// other's in one step. Readers observe either the old or the new state.
func (g *Graph) Replace(other *Graph) {
	if g == other {
		return
	}
	next := other.Clone()

	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.deployments = next.deployments
	g.dependencies = next.dependencies
}

func (g *Graph) String() string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	s := fmt.Sprintf("configuration %q (%d deployments)", g.namespace, len(g.deployments))
	for _, name := range slices.Sorted(maps.Keys(g.deployments)) {
		s += fmt.Sprintf("\n  %s [%s]", name, g.deployments[name].Status)
	}
	for _, dep := range g.sortedDependencies() {
		s += "\n  " + dep.String()
	}
	return s
}

func (g *Graph) notFound(name string) error {
	return fmt.Errorf("%q in configuration %q: %w", name, g.namespace, ErrDeploymentNotFound)
}

func (g *Graph) requirementNames(name string) []string {
	var names []string
	for dep := range g.dependencies {
		if dep.Source == name {
			names = append(names, dep.Target)
		}
	}
	slices.Sort(names)
	return names
}

func (g *Graph) requirerNames(name string) []string {
	var names []string
	for dep := range g.dependencies {
		if dep.Target == name {
			names = append(names, dep.Source)
		}
	}
	slices.Sort(names)
	return names
}

func (g *Graph) resolve(names []string) []Deployment {
	out := make([]Deployment, 0, len(names))
	for _, name := range names {
		d, ok := g.deployments[name]
		if !ok {
			// An edge endpoint that does not resolve breaks the graph's core invariant.
			panic(fmt.Sprintf("topology: dangling reference to %q in configuration %q", name, g.namespace))
		}
		out = append(out, d)
	}
	return out
}

func (g *Graph) sortedDependencies() []Dependency {
	deps := slices.Collect(maps.Keys(g.dependencies))
	slices.SortFunc(deps, func(a, b Dependency) int {
		return cmp.Or(cmp.Compare(a.Source, b.Source), cmp.Compare(a.Target, b.Target))
	})
	return deps
}
