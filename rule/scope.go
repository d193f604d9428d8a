package rule

import (
	"context"

	"github.com/kbukum/forge/environment"
	"github.com/kbukum/forge/files"
)

// Scope is what a handler sees while its rule is applied.
type Scope interface {
	// Update declares a dependency on r with args, builds it first, and
	// returns its primary output. after runs once the rule's own handler
	// has; only the handlers given when the node is first declared are kept.
	Update(ctx context.Context, r *Rule, args Arguments, after ...Handler) (any, error)
	// Invoke is Update with the first applicable rule for process.
	Invoke(ctx context.Context, process string, args Arguments, after ...Handler) (any, error)
	// Run spawns a command when the scope is real and does nothing otherwise.
	Run(ctx context.Context, argv ...string) error
	Environment() environment.Values
	FS() files.System
}
