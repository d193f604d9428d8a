package dag

import "time"

// Node visit outcomes.
const (
	StatusBuilt  = "built"
	StatusFresh  = "fresh"
	StatusFailed = "failed"
)

// NodeResult holds the outcome of a single node visit.
type NodeResult struct {
	Key      string
	Name     string
	Status   string // "built" | "fresh" | "failed"
	Dirty    bool
	Duration time.Duration
	Error    error
}
