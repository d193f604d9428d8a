package bootstrap

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/kbukum/forge/build"
	"github.com/kbukum/forge/dag"
)

// SettingInfo is a configured feature shown in the summary.
type SettingInfo struct {
	Name   string
	Detail string
}

// Summary collects what a run did for display at the end.
type Summary struct {
	mu              sync.Mutex
	name            string
	version         string
	startupDuration time.Duration
	settings        []SettingInfo
	targets         []string
	plan            *dag.Plan
	report          *build.Report
}

// NewSummary creates a new summary tracker.
func NewSummary(name, version string) *Summary {
	return &Summary{name: name, version: version}
}

// SetStartupDuration records how long startup took.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startupDuration = d
}

// TrackSetting records a configured feature.
func (s *Summary) TrackSetting(name, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = append(s.settings, SettingInfo{Name: name, Detail: detail})
}

// TrackTarget records a requested target.
func (s *Summary) TrackTarget(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets = append(s.targets, name)
}

// SetPlan records a dry run's plan.
func (s *Summary) SetPlan(p *dag.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = p
}

// SetReport records an update's report.
func (s *Summary) SetReport(r *build.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = r
}

// Display writes the summary to w.
func (s *Summary) Display(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintf(w, "\n🔨 %s %s (startup %.2fs)\n\n", s.name, s.version, s.startupDuration.Seconds())

	if len(s.settings) > 0 {
		fmt.Fprintf(w, "📡 Telemetry\n")
		for i, st := range s.settings {
			fmt.Fprintf(w, "   %s %s: %s\n", branch(i, len(s.settings)), st.Name, st.Detail)
		}
		fmt.Fprintf(w, "\n")
	}

	fmt.Fprintf(w, "🎯 Targets\n")
	if len(s.targets) == 0 {
		fmt.Fprintf(w, "   └── No targets registered\n")
	}
	for i, t := range s.targets {
		fmt.Fprintf(w, "   %s %s\n", branch(i, len(s.targets)), t)
	}

	switch {
	case s.plan != nil:
		s.displayPlan(w)
	case s.report != nil:
		s.displayReport(w)
	}
	fmt.Fprintf(w, "\n")
}

func (s *Summary) displayPlan(w io.Writer) {
	dirty := s.plan.Dirty()
	fmt.Fprintf(w, "\n📋 Plan: %d nodes in %d levels, %d to rebuild\n", s.plan.Len(), len(s.plan.Levels), len(dirty))
	for i, label := range dirty {
		fmt.Fprintf(w, "   %s %s\n", branch(i, len(dirty)), label)
	}
}

func (s *Summary) displayReport(w io.Writer) {
	r := s.report
	counts := map[string]int{}
	for _, n := range r.Nodes {
		counts[n.Status]++
	}
	fmt.Fprintf(w, "\n📦 Nodes\n")
	fmt.Fprintf(w, "   ├── %s built: %d\n", statusIcon(dag.StatusBuilt), counts[dag.StatusBuilt])
	fmt.Fprintf(w, "   ├── %s fresh: %d\n", statusIcon(dag.StatusFresh), counts[dag.StatusFresh])
	fmt.Fprintf(w, "   └── %s failed: %d\n", statusIcon(dag.StatusFailed), counts[dag.StatusFailed])

	failed := r.Failed()
	fmt.Fprintf(w, "\n⚙️  Commands: %d spawned in %.2fs\n", r.Spawned, r.Duration.Seconds())
	for i, o := range failed {
		fmt.Fprintf(w, "   %s ❌ %v (status %d)\n", branch(i, len(failed)), o.Command.Argv, o.Status)
	}

	if len(failed) == 0 && counts[dag.StatusFailed] == 0 {
		fmt.Fprintf(w, "\n✅ Build succeeded\n")
	} else {
		fmt.Fprintf(w, "\n⚠️  Build failed\n")
	}
}

func branch(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func statusIcon(status string) string {
	switch status {
	case dag.StatusBuilt:
		return "✅"
	case dag.StatusFresh:
		return "⚡"
	case dag.StatusFailed:
		return "❌"
	default:
		return "⚠️"
	}
}
