package dag

import (
	"context"
	"sort"
	"time"

	"github.com/spf13/afero"

	"github.com/kbukum/forge/errors"
	"github.com/kbukum/forge/files"
)

// VisitFunc processes one node. It may visit further nodes through the same
// Walker to declare dependencies.
type VisitFunc func(ctx context.Context, node Node) error

type visitState int

const (
	unvisited visitState = iota
	inProgress
	done
)

// Walker runs one depth-first traversal. It is not safe for concurrent use;
// traversal is single-threaded.
type Walker struct {
	fs         afero.Fs
	middleware []Middleware

	state   map[string]visitState
	errs    map[string]error
	stale   map[string]bool
	nodes   map[string]Node
	edges   map[Edge]struct{}
	stack   []Node
	dirty   map[files.Path]struct{}
	results []NodeResult
}

// NewWalker creates a walker that stats files on fs. Middleware wraps every
// visit, outermost first.
func NewWalker(fs afero.Fs, middleware ...Middleware) *Walker {
	return &Walker{
		fs:         fs,
		middleware: middleware,
		state:      make(map[string]visitState),
		errs:       make(map[string]error),
		stale:      make(map[string]bool),
		nodes:      make(map[string]Node),
		edges:      make(map[Edge]struct{}),
		dirty:      make(map[files.Path]struct{}),
	}
}

// Visit processes node with fn unless it was already visited in this
// traversal, in which case the earlier outcome is returned. parent, when not
// nil, is recorded as depending on node. Re-entering a node that is still
// being visited is a DEPENDENCY_CYCLE error.
func (w *Walker) Visit(ctx context.Context, parent, node Node, fn VisitFunc) error {
	key := node.Key()
	if parent != nil {
		w.edges[Edge{From: key, To: parent.Key()}] = struct{}{}
	}

	switch w.state[key] {
	case done:
		return w.errs[key]
	case inProgress:
		return errors.DependencyCycle(w.cyclePath(key))
	}

	w.state[key] = inProgress
	w.nodes[key] = node
	w.stack = append(w.stack, node)
	start := time.Now()

	visit := fn
	for i := len(w.middleware) - 1; i >= 0; i-- {
		visit = w.middleware[i](visit)
	}
	err := visit(ctx, node)
	if err == nil {
		// Evaluate staleness even when fn never asked, so dependents see
		// this node's outputs as dirty.
		_, err = w.Dirty(node)
	}

	w.stack = w.stack[:len(w.stack)-1]
	w.state[key] = done
	w.errs[key] = err
	w.results = append(w.results, w.result(node, err, time.Since(start)))
	return err
}

// Dirty reports whether node must be rebuilt in this traversal: it is stale
// on disk, or one of its inputs is an output of a node already found dirty.
// The answer is memoized per key.
func (w *Walker) Dirty(node Node) (bool, error) {
	key := node.Key()
	if d, ok := w.stale[key]; ok {
		return d, nil
	}

	dirty := false
	for _, p := range node.Inputs() {
		if _, ok := w.dirty[p]; ok {
			dirty = true
			break
		}
	}
	if !dirty {
		var err error
		if dirty, err = Stale(w.fs, node); err != nil {
			return false, err
		}
	}

	w.stale[key] = dirty
	if dirty {
		for _, p := range node.Outputs() {
			w.dirty[p] = struct{}{}
		}
	}
	return dirty, nil
}

// Visited reports whether key has been visited, successfully or not.
func (w *Walker) Visited(key string) bool {
	return w.state[key] == done
}

// Results returns the outcome of every completed visit in completion order,
// so dependencies come before their dependents.
func (w *Walker) Results() []NodeResult {
	return append([]NodeResult(nil), w.results...)
}

// DirtyNodes returns the keys of nodes found dirty, sorted.
func (w *Walker) DirtyNodes() []string {
	var keys []string
	for k, d := range w.stale {
		if d {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Graph returns the nodes and dependency edges discovered so far. Besides
// the visit edges, a node whose input is another node's output depends on
// that producer, even when both were declared by the same parent.
func (w *Walker) Graph() *Graph {
	g := &Graph{Nodes: make(map[string]Node, len(w.nodes))}
	producers := make(map[files.Path]string)
	for k, n := range w.nodes {
		g.Nodes[k] = n
		for _, p := range n.Outputs() {
			producers[p] = k
		}
	}

	edges := make(map[Edge]struct{}, len(w.edges))
	for e := range w.edges {
		edges[e] = struct{}{}
	}
	for k, n := range w.nodes {
		for _, p := range n.Inputs() {
			if from, ok := producers[p]; ok && from != k {
				edges[Edge{From: from, To: k}] = struct{}{}
			}
		}
	}
	for e := range edges {
		g.Edges = append(g.Edges, e)
	}
	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].From != g.Edges[j].From {
			return g.Edges[i].From < g.Edges[j].From
		}
		return g.Edges[i].To < g.Edges[j].To
	})
	return g
}

// Plan layers the discovered graph, dependencies first.
func (w *Walker) Plan() (*Plan, error) {
	g := w.Graph()
	levels, err := BuildLevels(g)
	if err != nil {
		return nil, err
	}

	plan := &Plan{}
	for _, level := range levels {
		steps := make([]PlanStep, 0, len(level))
		for _, key := range level {
			n := g.Nodes[key]
			steps = append(steps, PlanStep{
				Key:     key,
				Label:   Label(n),
				Dirty:   w.stale[key],
				Inputs:  n.Inputs().Strings(),
				Outputs: n.Outputs().Strings(),
			})
		}
		plan.Levels = append(plan.Levels, steps)
	}
	return plan, nil
}

func (w *Walker) cyclePath(key string) []string {
	var path []string
	for i := len(w.stack) - 1; i >= 0; i-- {
		path = append([]string{Label(w.stack[i])}, path...)
		if w.stack[i].Key() == key {
			break
		}
	}
	return append(path, Label(w.nodes[key]))
}

func (w *Walker) result(node Node, err error, d time.Duration) NodeResult {
	r := NodeResult{
		Key:      node.Key(),
		Name:     Label(node),
		Duration: d,
		Dirty:    w.stale[node.Key()],
		Error:    err,
	}
	switch {
	case err != nil:
		r.Status = StatusFailed
	case r.Dirty:
		r.Status = StatusBuilt
	default:
		r.Status = StatusFresh
	}
	return r
}
