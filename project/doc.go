// Package project models packages, their per-platform build routines and
// the order in which a resolved set of packages is built.
//
// BuildOrder expands each requested package depth-first so that a package
// is listed after everything it depends on, and only once. Dependency
// cycles are reported as DEPENDENCY_CYCLE errors.
//
// Context collects named definitions (targets, configurations, projects and
// rules) and rejects a second definition of the same name with an
// ALREADY_DEFINED error that names both locations.
package project
