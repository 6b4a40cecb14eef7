package topology

import "errors"

var (
	// ErrDeploymentNotFound is returned when a name does not resolve in the graph.
	ErrDeploymentNotFound = errors.New("deployment not found")

	// ErrCyclicConfiguration is returned when an operation requires an acyclic graph.
	ErrCyclicConfiguration = errors.New("configuration contains a cycle")

	// ErrSelfDependency is returned for a dependency whose source and target coincide.
	ErrSelfDependency = errors.New("deployment cannot require itself")

	// ErrDuplicateDeployment is returned when a snapshot or builder names a deployment twice.
	ErrDuplicateDeployment = errors.New("duplicate deployment")
)
