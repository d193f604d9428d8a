package build

import (
	"context"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/kbukum/forge/files"
	"github.com/kbukum/forge/rule"
)

// applier is a graph node that can be applied by a Task.
type applier interface {
	scope() *Scope
	apply(ctx context.Context, t *Task) error
}

// Node is one concrete build step: a rule with normalized arguments in a
// scope. Input and output files are derived once, at creation.
type Node struct {
	key       string
	owner     *Scope
	rule      *rule.Rule
	arguments rule.Arguments
	inputs    files.List
	outputs   files.List
	after     []rule.Handler
}

func nodeKey(s *Scope, r *rule.Rule, args rule.Arguments) string {
	return s.ID + ":" + r.Name() + ":" + args.Key()
}

func newNode(s *Scope, r *rule.Rule, args rule.Arguments, after []rule.Handler) *Node {
	in, out := r.Files(args)
	return &Node{
		key:       nodeKey(s, r, args),
		owner:     s,
		rule:      r,
		arguments: args,
		inputs:    in,
		outputs:   out,
		after:     after,
	}
}

func (n *Node) Key() string               { return n.key }
func (n *Node) Inputs() files.List        { return n.inputs }
func (n *Node) Outputs() files.List       { return n.outputs }
func (n *Node) Label() string             { return n.rule.Name() }
func (n *Node) Rule() *rule.Rule          { return n.rule }
func (n *Node) Arguments() rule.Arguments { return n.arguments.Clone() }
func (n *Node) Scope() *Scope             { return n.owner }

// ID returns a short stable digest of the node key.
func (n *Node) ID() string {
	return strconv.FormatUint(xxhash.Sum64String(n.key), 16)
}

// Result returns the rule's primary output value.
func (n *Node) Result() any { return n.rule.Result(n.arguments) }

func (n *Node) scope() *Scope { return n.owner }

func (n *Node) apply(ctx context.Context, t *Task) error {
	if err := n.rule.ApplyTo(ctx, t, n.arguments); err != nil {
		return err
	}
	for _, h := range n.after {
		if err := h.Apply(ctx, t, n.arguments); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) String() string {
	return n.rule.Name() + " " + n.arguments.Key()
}

// Top is the synthetic root node of a target. It has no files and is always
// dirty, so the children it encloses are reached on every traversal.
type Top struct {
	owner *Scope
}

func (t *Top) Key() string         { return "top:" + t.owner.ID }
func (t *Top) Inputs() files.List  { return nil }
func (t *Top) Outputs() files.List { return nil }
func (t *Top) Label() string       { return "target:" + t.owner.Target.Name }
func (t *Top) AlwaysDirty() bool   { return true }

// Scope returns the target's scope.
func (t *Top) Scope() *Scope { return t.owner }

func (t *Top) scope() *Scope { return t.owner }

func (t *Top) apply(ctx context.Context, task *Task) error {
	if t.owner.Target.Build == nil {
		return nil
	}
	return t.owner.Target.Build(ctx, task)
}
