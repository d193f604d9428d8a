// Package errors provides the structured error type shared by every forge
// package. Each failure kind a build run can hit has a machine-readable code
// and carries enough detail to name the offending rule, command or definition.
//
// None of these errors are recovered locally: they surface to the invoking run
// and abort it.
package errors
