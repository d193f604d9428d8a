// Package build binds rules to graph nodes and drives incremental builds.
//
// A Controller holds top-level targets, each registered with an environment
// and a rulebook. Together those form a Scope. Traversal visits every target
// depth-first. A target's routine and every rule handler receive a Task,
// which implements rule.Scope:
//
//	target := build.NewTarget("app", func(ctx context.Context, t *build.Task) error {
//		obj, err := t.Update(ctx, compile, rule.Arguments{"source": src})
//		if err != nil {
//			return err
//		}
//		_, err = t.Invoke(ctx, "link", rule.Arguments{"objects": obj, "binary": bin})
//		return err
//	})
//
// Nodes are memoized per (scope, rule, normalized arguments) for the lifetime
// of the controller and visited at most once per traversal. BuildGraph
// analyzes without side effects. Update spawns the commands of dirty nodes
// through a process.Group and waits for all of them.
//
// Commands run asynchronously with respect to traversal. A handler that needs
// a dependency's files on disk can only rely on them after Update returns.
// With MaxConcurrent set to 1 commands complete in spawn order, which is
// dependency order.
package build
