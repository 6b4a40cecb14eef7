package topology

// Archive records the direct neighbourhood of a deployment at one point in
// time, so that a replacement can reattach the same edges to its successor.
type Archive struct {
	Name         string
	Requirements []string
	Requirers    []string
}

// Archive captures name's direct requirement and requirer names.
func (g *Graph) Archive(name string) (Archive, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	if _, ok := g.deployments[name]; !ok {
		return Archive{}, g.notFound(name)
	}
	return Archive{
		Name:         name,
		Requirements: g.requirementNames(name),
		Requirers:    g.requirerNames(name),
	}, nil
}
