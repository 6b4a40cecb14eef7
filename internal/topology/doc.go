// Package topology is the data model of the planner: a namespace of named
// deployments connected by "requires" dependencies.
//
// A Graph owns the authoritative Deployment records in a name-indexed map.
// Every other structure (edges, actions, workflow nodes) refers to
// deployments by name and resolves them through the graph, so a Clone is a
// plain copy of two maps and never aliases mutable state with its origin.
//
// Lifecycle statuses change only through the Start and Stop traversals, which
// also report the atomic actions they performed.
package topology
