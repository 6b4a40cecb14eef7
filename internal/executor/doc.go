// Package executor runs compliant workflows against a command runner.
//
// Execution is token driven: the Initial event receives one token, and every
// node that completes hands one token to each successor concurrently. A node
// fires once all of its incoming flows have delivered, so Join gateways wait
// for every branch. The first failing task cancels the run; there is no
// retry or rollback.
package executor
