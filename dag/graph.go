package dag

import (
	"fmt"
	"sort"

	"github.com/kbukum/forge/errors"
)

// Graph declares nodes and edges (dependency relationships).
type Graph struct {
	Nodes map[string]Node
	Edges []Edge
}

// Edge represents a dependency: To depends on From.
type Edge struct {
	From string
	To   string
}

// BuildLevels uses Kahn's algorithm to group nodes by dependency level.
// Nodes within the same level have no dependencies on each other; each level
// is sorted by key. Returns a DEPENDENCY_CYCLE error if a cycle is detected.
func BuildLevels(g *Graph) ([][]string, error) {
	inDegree := make(map[string]int)
	dependents := make(map[string][]string) // from -> [to...]

	for name := range g.Nodes {
		inDegree[name] = 0
	}

	for _, e := range g.Edges {
		if _, ok := g.Nodes[e.From]; !ok {
			return nil, errors.Internal(fmt.Errorf("dag: edge references unknown node %q", e.From))
		}
		if _, ok := g.Nodes[e.To]; !ok {
			return nil, errors.Internal(fmt.Errorf("dag: edge references unknown node %q", e.To))
		}
		inDegree[e.To]++
		dependents[e.From] = append(dependents[e.From], e.To)
	}

	var queue []string
	for name, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}

	var levels [][]string
	visited := 0

	for len(queue) > 0 {
		sort.Strings(queue)
		levels = append(levels, queue)
		visited += len(queue)

		var next []string
		for _, name := range queue {
			for _, dep := range dependents[name] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		queue = next
	}

	if visited != len(g.Nodes) {
		var remaining []string
		for name, deg := range inDegree {
			if deg > 0 {
				remaining = append(remaining, name)
			}
		}
		sort.Strings(remaining)
		return nil, errors.DependencyCycle(remaining).
			WithDetail("processed", visited).
			WithDetail("total", len(g.Nodes))
	}

	return levels, nil
}
