package build

import (
	"github.com/google/uuid"

	"github.com/kbukum/forge/environment"
	"github.com/kbukum/forge/rule"
)

// Scope is the execution profile of one top-level target: the target, its
// environment and the rules available to it. Identical rule invocations in
// different scopes are distinct nodes.
type Scope struct {
	ID          string
	Target      *Target
	Environment *environment.Environment
	Rulebook    *rule.Rulebook

	values environment.Values
}

func newScope(target *Target, env *environment.Environment, rules *rule.Rulebook) (*Scope, error) {
	values, err := env.Flatten()
	if err != nil {
		return nil, err
	}
	return &Scope{
		ID:          uuid.NewString(),
		Target:      target,
		Environment: env,
		Rulebook:    rules,
		values:      values,
	}, nil
}

// Values returns the scope's flattened environment.
func (s *Scope) Values() environment.Values { return s.values }

func (s *Scope) String() string {
	return s.Target.Name + "@" + s.ID[:8]
}
