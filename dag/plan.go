package dag

import (
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// PlanStep is one node of a Plan.
type PlanStep struct {
	Key     string   `yaml:"key"`
	Label   string   `yaml:"label"`
	Dirty   bool     `yaml:"dirty"`
	Inputs  []string `yaml:"inputs,omitempty"`
	Outputs []string `yaml:"outputs,omitempty"`
}

// Plan is a traversal's graph layered by dependency depth.
type Plan struct {
	Levels [][]PlanStep `yaml:"levels"`
}

// Len returns the number of steps.
func (p *Plan) Len() int {
	n := 0
	for _, level := range p.Levels {
		n += len(level)
	}
	return n
}

// Dirty returns the labels of the dirty steps in level order.
func (p *Plan) Dirty() []string {
	var out []string
	for _, level := range p.Levels {
		for _, s := range level {
			if s.Dirty {
				out = append(out, s.Label)
			}
		}
	}
	return out
}

// WriteYAML writes the plan as a YAML document.
func (p *Plan) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	return enc.Close()
}
