// Package workflow turns atomic actions and their ordering constraints into
// a BPMN-like graph of task nodes and parallel gateways.
//
// Build removes redundant (tangent) flows, links straight sequences directly,
// fans out through Split gateways and fans in through Join gateways. After
// grouping both ends and wrapping with Initial and Final events the result is
// compliant: every task has at most one incoming and one outgoing flow, every
// Split has one incoming flow and every Join one outgoing flow. Only compliant
// workflows are executed.
package workflow
