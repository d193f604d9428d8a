package build

import (
	"time"

	"github.com/kbukum/forge/dag"
	"github.com/kbukum/forge/observability"
	"github.com/kbukum/forge/process"
)

// Report summarizes one Update.
type Report struct {
	RunID    string
	Spawned  int
	Outcomes []process.Outcome
	// Nodes holds every visited node's result, dependencies first.
	Nodes    []dag.NodeResult
	Duration time.Duration
}

func newReport(rc *observability.RunContext, w *dag.Walker, g *process.Group) *Report {
	return &Report{
		RunID:    rc.RunID,
		Spawned:  g.Spawned(),
		Outcomes: g.Results(),
		Nodes:    w.Results(),
		Duration: rc.Duration(),
	}
}

// Dirty returns the results of nodes that were rebuilt or failed while dirty.
func (r *Report) Dirty() []dag.NodeResult {
	var out []dag.NodeResult
	for _, n := range r.Nodes {
		if n.Dirty {
			out = append(out, n)
		}
	}
	return out
}

// Failed returns the outcomes of commands that did not exit cleanly.
func (r *Report) Failed() []process.Outcome {
	var out []process.Outcome
	for _, o := range r.Outcomes {
		if o.Failed() {
			out = append(out, o)
		}
	}
	return out
}
