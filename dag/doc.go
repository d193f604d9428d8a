// Package dag provides the file-based dependency graph primitives a build
// traversal runs on.
//
// A Node declares its input and output files. Stale compares their
// modification times; a Walker drives one depth-first traversal, visiting
// each node key at most once, detecting cycles, memoizing staleness and
// propagating dirtiness from a node's outputs to the nodes that consume them.
//
// The edges a Walker discovers form a Graph, which BuildLevels layers into a
// Plan that can be exported as YAML for a dry-run preview.
//
//	w := dag.NewWalker(fs, dag.WithLogging(log), dag.WithTracing("build.task"))
//	err := w.Visit(ctx, nil, top, func(ctx context.Context, n dag.Node) error {
//	    return apply(ctx, n)
//	})
//	plan, _ := w.Plan()
//	_ = plan.WriteYAML(os.Stdout)
package dag
