package rule

import (
	"sort"
	"sync"

	"github.com/kbukum/forge/errors"
)

// Rulebook is the set of rules available to a build scope.
type Rulebook struct {
	mu    sync.RWMutex
	rules map[string]*Rule
	order []*Rule
}

// NewRulebook creates a rulebook holding rules.
func NewRulebook(rules ...*Rule) (*Rulebook, error) {
	rb := &Rulebook{rules: make(map[string]*Rule)}
	for _, r := range rules {
		if err := rb.Add(r); err != nil {
			return nil, err
		}
	}
	return rb, nil
}

// Add registers r and freezes it. A second rule with the same name is an
// ALREADY_DEFINED error naming both origins.
func (rb *Rulebook) Add(r *Rule) error {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if prev, ok := rb.rules[r.Name()]; ok {
		return errors.AlreadyDefined("rule", r.Name(), r.Origin(), prev.Origin())
	}
	r.Freeze()
	rb.rules[r.Name()] = r
	rb.order = append(rb.order, r)
	return nil
}

// Get retrieves a rule by name.
func (rb *Rulebook) Get(name string) (*Rule, bool) {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	r, ok := rb.rules[name]
	return r, ok
}

// List returns sorted names of all rules.
func (rb *Rulebook) List() []string {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	names := make([]string, 0, len(rb.rules))
	for name := range rb.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Process returns the rules for a process name in definition order.
func (rb *Rulebook) Process(process string) []*Rule {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	var out []*Rule
	for _, r := range rb.order {
		if r.Process() == process {
			out = append(out, r)
		}
	}
	return out
}

// Select returns the first rule for process that accepts args.
func (rb *Rulebook) Select(process string, args Arguments) (*Rule, error) {
	for _, r := range rb.Process(process) {
		if r.Applicable(args) {
			return r, nil
		}
	}
	return nil, errors.NoApplicableRule(process, args.Map())
}
