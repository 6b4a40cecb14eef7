package topology

import (
	"context"
	"maps"
	"slices"

	"github.com/vk/reconfgrid/internal/action"
	"github.com/vk/reconfgrid/internal/ctxlog"
)

// Boot starts every deployment of an acyclic graph.
func (g *Graph) Boot(ctx context.Context) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if err := g.checkAcyclic(); err != nil {
		return err
	}
	var started []action.Action
	for _, name := range g.sortedNames() {
		g.start(name, &started)
	}
	ctxlog.FromContext(ctx).Debug("Configuration booted.", "configuration", g.namespace, "started", len(started))
	return nil
}

// Start starts name with respect to the graph: stopped requirements first,
// then the deployment itself, then stopped requirers. It returns one start
// action per deployment whose status actually changed, in order.
func (g *Graph) Start(name string) ([]action.Action, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if err := g.traversable(name); err != nil {
		return nil, err
	}
	var actions []action.Action
	g.start(name, &actions)
	return actions, nil
}

// Stop stops every started requirer of name first, then name itself. It
// returns one stop action per deployment whose status actually changed.
func (g *Graph) Stop(name string) ([]action.Action, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if err := g.traversable(name); err != nil {
		return nil, err
	}
	var actions []action.Action
	g.stop(name, &actions)
	return actions, nil
}

func (g *Graph) traversable(name string) error {
	if _, ok := g.deployments[name]; !ok {
		return g.notFound(name)
	}
	return g.checkAcyclic()
}

func (g *Graph) start(name string, actions *[]action.Action) {
	for _, req := range g.requirementNames(name) {
		if g.deployments[req].Status == Stopped {
			g.start(req, actions)
		}
	}
	// Re-read: starting a requirement may already have started name as one of its requirers.
	if d := g.deployments[name]; d.Status == Stopped {
		d.Status = Started
		g.deployments[name] = d
		*actions = append(*actions, g.actionFor(action.Start, d))
	}
	for _, requirer := range g.requirerNames(name) {
		if g.deployments[requirer].Status == Stopped {
			g.start(requirer, actions)
		}
	}
}

func (g *Graph) stop(name string, actions *[]action.Action) {
	for _, requirer := range g.requirerNames(name) {
		if g.deployments[requirer].Status == Started {
			g.stop(requirer, actions)
		}
	}
	if d := g.deployments[name]; d.Status == Started {
		d.Status = Stopped
		g.deployments[name] = d
		*actions = append(*actions, g.actionFor(action.Stop, d))
	}
}

// ActionFor returns the atomic action of the given kind on name, carrying
// the deployment's manifest and the graph's namespace.
func (g *Graph) ActionFor(kind action.Kind, name string) (action.Action, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	d, ok := g.deployments[name]
	if !ok {
		return action.Action{}, g.notFound(name)
	}
	return g.actionFor(kind, d), nil
}

func (g *Graph) actionFor(kind action.Kind, d Deployment) action.Action {
	return action.New(kind, d.Name, d.ManifestPath, g.namespace)
}

func (g *Graph) sortedNames() []string {
	return slices.Sorted(maps.Keys(g.deployments))
}
