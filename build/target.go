package build

import (
	"context"
	"fmt"
	"runtime"
)

// TargetFunc is a target's update routine.
type TargetFunc func(ctx context.Context, t *Task) error

// Target is a named, top-level build goal.
type Target struct {
	Name   string
	Origin string
	Build  TargetFunc
}

// NewTarget creates a target and records the caller's location as its origin.
func NewTarget(name string, fn TargetFunc) *Target {
	t := &Target{Name: name, Build: fn}
	if _, file, line, ok := runtime.Caller(1); ok {
		t.Origin = fmt.Sprintf("%s:%d", file, line)
	}
	return t
}
