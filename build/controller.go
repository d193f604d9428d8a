package build

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/kbukum/forge/dag"
	"github.com/kbukum/forge/environment"
	"github.com/kbukum/forge/errors"
	"github.com/kbukum/forge/files"
	"github.com/kbukum/forge/logger"
	"github.com/kbukum/forge/observability"
	"github.com/kbukum/forge/process"
	"github.com/kbukum/forge/rule"
)

// Traversal modes.
const (
	ModeAnalyze = "analyze"
	ModeExecute = "execute"
)

// Option configures a Controller.
type Option func(*Controller)

// WithFS sets the filesystem used for staleness checks and handler effects.
// Defaults to the OS filesystem.
func WithFS(fs afero.Fs) Option {
	return func(c *Controller) { c.fs = fs }
}

// WithLogger sets the controller's logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithMetrics records run, node and command metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithRunner replaces the subprocess runner used by Update.
func WithRunner(r process.Runner) Option {
	return func(c *Controller) { c.runner = r }
}

// WithMaxConcurrent bounds how many commands Update runs at once.
func WithMaxConcurrent(n int) Option {
	return func(c *Controller) { c.maxConcurrent = n }
}

// WithMiddleware adds visit middleware after the built-in tracing, metrics
// and logging.
func WithMiddleware(mw ...dag.Middleware) Option {
	return func(c *Controller) { c.middleware = append(c.middleware, mw...) }
}

// Controller owns the top-level targets and the node cache.
//
// Nodes are cached for the controller's lifetime; the set of visited nodes
// is per traversal. BuildGraph and Update must not run concurrently on the
// same controller.
type Controller struct {
	fs            afero.Fs
	log           *logger.Logger
	metrics       *observability.Metrics
	runner        process.Runner
	maxConcurrent int
	middleware    []dag.Middleware

	mu    sync.Mutex
	tops  []*Top
	nodes map[string]*Node
}

// New creates a controller.
func New(opts ...Option) *Controller {
	c := &Controller{nodes: make(map[string]*Node)}
	for _, opt := range opts {
		opt(c)
	}
	if c.fs == nil {
		c.fs = files.OS()
	}
	if c.log == nil {
		c.log = logger.Get("build")
	}
	return c
}

// AddTarget registers target with env and rules and returns its scope.
// Adding the same target with the same environment again returns the
// existing scope.
func (c *Controller) AddTarget(target *Target, env *environment.Environment, rules *rule.Rulebook) (*Scope, error) {
	if target == nil || target.Name == "" {
		return nil, errors.InvalidInput("target", "a named target is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, top := range c.tops {
		if top.owner.Target == target && top.owner.Environment == env {
			return top.owner, nil
		}
	}

	s, err := newScope(target, env, rules)
	if err != nil {
		return nil, err
	}
	c.tops = append(c.tops, &Top{owner: s})
	c.log.Debug("target added", logger.Fields(
		logger.FieldTarget, target.Name,
		logger.FieldScope, s.ID,
	))
	return s, nil
}

// Top returns the top-level nodes in registration order.
func (c *Controller) Top() []*Top {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Top(nil), c.tops...)
}

// Nodes returns every cached node, sorted by key.
func (c *Controller) Nodes() []*Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Node, 0, len(c.nodes))
	for _, n := range c.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

func (c *Controller) node(s *Scope, r *rule.Rule, args rule.Arguments, after []rule.Handler) *Node {
	key := nodeKey(s, r, args)
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.nodes[key]; ok {
		return n
	}
	n := newNode(s, r, args, after)
	c.nodes[key] = n
	return n
}

func (c *Controller) targetNames() []string {
	var names []string
	for _, top := range c.Top() {
		names = append(names, top.owner.Target.Name)
	}
	return names
}

func (c *Controller) newTraversal(group *process.Group) *traversal {
	mw := []dag.Middleware{
		dag.WithTracing(observability.SpanTaskVisit),
		dag.WithMetrics(c.metrics),
		dag.WithLogging(c.log),
	}
	return &traversal{
		controller: c,
		walker:     dag.NewWalker(c.fs, append(mw, c.middleware...)...),
		group:      group,
	}
}

func (tr *traversal) run(ctx context.Context, tops []*Top) error {
	for _, top := range tops {
		if err := tr.walker.Visit(ctx, nil, top, tr.visit); err != nil {
			return err
		}
	}
	return nil
}

// BuildGraph traverses every target without spawning commands or touching
// the filesystem and returns the discovered graph as a plan.
func (c *Controller) BuildGraph(ctx context.Context) (*dag.Plan, error) {
	rc := observability.NewRunContext(uuid.NewString(), ModeAnalyze, c.targetNames(), c.metrics)
	ctx, span := rc.Start(ctx, observability.SpanBuildGraph)

	tr := c.newTraversal(nil)
	err := tr.run(ctx, c.Top())
	var plan *dag.Plan
	if err == nil {
		plan, err = tr.walker.Plan()
	}
	rc.End(ctx, span, err)
	return plan, err
}

// Update traverses every target, spawning the commands of dirty nodes, and
// waits for all spawned commands. A traversal failure is returned at once;
// commands already running are left to finish on their own and can be
// cancelled through ctx.
func (c *Controller) Update(ctx context.Context) (*Report, error) {
	rc := observability.NewRunContext(uuid.NewString(), ModeExecute, c.targetNames(), c.metrics)
	ctx, span := rc.Start(ctx, observability.SpanBuildUpdate)

	group := process.NewGroup(process.GroupConfig{
		MaxConcurrent: c.maxConcurrent,
		Runner:        c.runner,
		Logger:        c.log,
		Metrics:       c.metrics,
	})
	tr := c.newTraversal(group)

	err := tr.run(ctx, c.Top())
	if err == nil {
		err = group.Wait()
	}

	report := newReport(rc, tr.walker, group)
	rc.End(ctx, span, err)

	fields := logger.Fields(
		"run_id", rc.RunID,
		"spawned", report.Spawned,
		"nodes", len(report.Nodes),
		logger.FieldDuration, report.Duration.Milliseconds(),
	)
	if err != nil {
		fields[logger.FieldError] = err.Error()
		c.log.Error("update failed", fields)
	} else {
		c.log.Info("update complete", fields)
	}
	return report, err
}
