package build

import (
	"context"

	"github.com/kbukum/forge/dag"
	"github.com/kbukum/forge/environment"
	"github.com/kbukum/forge/errors"
	"github.com/kbukum/forge/files"
	"github.com/kbukum/forge/logger"
	"github.com/kbukum/forge/observability"
	"github.com/kbukum/forge/process"
	"github.com/kbukum/forge/rule"
)

// traversal is the state shared by every task of one BuildGraph or Update
// call. group is nil when analyzing.
type traversal struct {
	controller *Controller
	walker     *dag.Walker
	group      *process.Group
}

// Task applies one node during one traversal. It carries its scope
// explicitly; child nodes it declares belong to the same scope.
type Task struct {
	*traversal
	node     dag.Node
	owner    *Scope
	children []*Node

	wetKnown bool
	wet      bool
	fs       files.System
	err      error
}

var _ rule.Scope = (*Task)(nil)

func (tr *traversal) visit(ctx context.Context, n dag.Node) error {
	a, ok := n.(applier)
	if !ok {
		return nil
	}
	t := &Task{traversal: tr, node: n, owner: a.scope()}
	observability.SetSpanAttribute(ctx, observability.AttrScope, t.owner.ID)
	observability.SetSpanAttribute(ctx, observability.AttrTarget, t.owner.Target.Name)
	if node, ok := n.(*Node); ok {
		observability.SetSpanAttribute(ctx, observability.AttrRule, node.rule.Name())
	}

	err := a.apply(ctx, t)
	if t.wetKnown {
		observability.SetSpanAttribute(ctx, observability.AttrDirty, t.wet)
	}
	if err != nil {
		return err
	}
	return t.err
}

// Scope returns the scope the task runs in.
func (t *Task) Scope() *Scope { return t.owner }

// Node returns the node being applied.
func (t *Task) Node() dag.Node { return t.node }

// Children returns the nodes declared through Update so far, in call order.
func (t *Task) Children() []*Node { return append([]*Node(nil), t.children...) }

// Wet reports whether the task performs real effects: the traversal is
// executing and the node is dirty. It is decided on first use.
func (t *Task) Wet() (bool, error) {
	if t.wetKnown {
		return t.wet, nil
	}
	if t.group != nil {
		dirty, err := t.walker.Dirty(t.node)
		if err != nil {
			return false, err
		}
		t.wet = dirty
	}
	t.wetKnown = true
	return t.wet, nil
}

// Update declares a dependency on r with args, visits it unless this
// traversal already has, and returns r's primary output. after is kept only
// when this call creates the node; it runs after r's handler on every apply.
func (t *Task) Update(ctx context.Context, r *rule.Rule, args rule.Arguments, after ...rule.Handler) (any, error) {
	args = r.Normalize(args)
	child := t.controller.node(t.owner, r, args, after)
	t.children = append(t.children, child)

	if err := t.walker.Visit(ctx, t.node, child, t.visit); err != nil {
		return nil, err
	}
	return r.Result(args), nil
}

// Invoke updates the first rule for proc in the scope's rulebook that
// accepts args.
func (t *Task) Invoke(ctx context.Context, proc string, args rule.Arguments, after ...rule.Handler) (any, error) {
	if t.owner.Rulebook == nil {
		return nil, errors.NoApplicableRule(proc, args.Map())
	}
	r, err := t.owner.Rulebook.Select(proc, args)
	if err != nil {
		return nil, err
	}
	return t.Update(ctx, r, args, after...)
}

// Run spawns argv with the scope's environment when the task is wet and
// does nothing otherwise.
func (t *Task) Run(ctx context.Context, argv ...string) error {
	return t.RunCommand(ctx, process.Command{Argv: argv})
}

// RunCommand is Run for a fully specified command. The scope's environment
// is used when cmd.Env is empty.
func (t *Task) RunCommand(ctx context.Context, cmd process.Command) error {
	wet, err := t.Wet()
	if err != nil {
		return err
	}
	if cmd.Env == nil {
		cmd.Env = t.owner.values.Shell()
	}
	if !wet {
		t.controller.log.Debug("(dry) run", logger.Fields(
			logger.FieldNode, dag.Label(t.node),
			logger.FieldCommand, cmd.String(),
		))
		return nil
	}
	return t.group.Spawn(ctx, cmd)
}

// Environment returns the scope's flattened environment.
func (t *Task) Environment() environment.Values { return t.owner.values }

// FS returns the filesystem for the handler: real when the task is wet,
// logging no-ops otherwise.
func (t *Task) FS() files.System {
	if t.fs != nil {
		return t.fs
	}
	wet, err := t.Wet()
	if err != nil && t.err == nil {
		t.err = err
	}
	t.fs = files.NewSystem(t.controller.fs, wet, t.controller.log)
	return t.fs
}
