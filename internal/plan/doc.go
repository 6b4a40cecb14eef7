// Package plan turns user-level reconfiguration intent into ordered runtime
// actions.
//
// A Formula of abstract operations (add, remove, replace, bind, release) is
// replayed on a private copy of the current configuration to obtain the
// target. NewDelta compares both graphs and derives the deployments to stop,
// remove, add and start; Delta.Constraints lists the precedence pairs the
// workflow builder must honour. Linearize offers the alternative totally
// ordered plan obtained by recording the start/stop traversal step by step.
package plan
