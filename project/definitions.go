package project

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/kbukum/forge/build"
	"github.com/kbukum/forge/environment"
	"github.com/kbukum/forge/errors"
	"github.com/kbukum/forge/rule"
)

// DefaultConfiguration is the configuration selected when none is named.
const DefaultConfiguration = "default"

// Configuration is a named set of packages and an environment to build them
// with.
type Configuration struct {
	Name        string
	Origin      string
	Packages    []string
	Environment *environment.Environment
}

// Project describes the software a context builds.
type Project struct {
	Name    string
	Origin  string
	Summary string
	License string
}

// origin returns the location of the caller's caller.
func origin() string {
	if _, file, line, ok := runtime.Caller(2); ok {
		return fmt.Sprintf("%s:%d", file, line)
	}
	return ""
}

// NewConfiguration creates a configuration and records the caller's location.
func NewConfiguration(name string, env *environment.Environment, packages ...string) *Configuration {
	return &Configuration{Name: name, Origin: origin(), Packages: packages, Environment: env}
}

// NewProject creates a project and records the caller's location.
func NewProject(name string) *Project {
	return &Project{Name: name, Origin: origin()}
}

// Context holds the definitions visible to one build. Names are unique per
// kind of definition.
type Context struct {
	mu             sync.RWMutex
	targets        map[string]*build.Target
	configurations map[string]*Configuration
	projects       map[string]*Project
	primary        *Project
	rules          *rule.Rulebook
}

// NewContext creates an empty context.
func NewContext() *Context {
	rules, _ := rule.NewRulebook()
	return &Context{
		targets:        make(map[string]*build.Target),
		configurations: make(map[string]*Configuration),
		projects:       make(map[string]*Project),
		rules:          rules,
	}
}

// AddTarget registers t.
func (c *Context) AddTarget(t *build.Target) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.targets[t.Name]; ok {
		return errors.AlreadyDefined("target", t.Name, t.Origin, prev.Origin)
	}
	c.targets[t.Name] = t
	return nil
}

// AddConfiguration registers cfg.
func (c *Context) AddConfiguration(cfg *Configuration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.configurations[cfg.Name]; ok {
		return errors.AlreadyDefined("configuration", cfg.Name, cfg.Origin, prev.Origin)
	}
	c.configurations[cfg.Name] = cfg
	return nil
}

// AddProject registers p. The first project added is the primary one.
func (c *Context) AddProject(p *Project) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.projects[p.Name]; ok {
		return errors.AlreadyDefined("project", p.Name, p.Origin, prev.Origin)
	}
	c.projects[p.Name] = p
	if c.primary == nil {
		c.primary = p
	}
	return nil
}

// AddRule registers r in the context's rulebook.
func (c *Context) AddRule(r *rule.Rule) error {
	return c.rules.Add(r)
}

// Target looks up a target by name.
func (c *Context) Target(name string) (*build.Target, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.targets[name]
	return t, ok
}

// Targets returns the sorted target names.
func (c *Context) Targets() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.targets))
	for name := range c.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Configuration looks up a configuration by name. An empty name selects
// DefaultConfiguration.
func (c *Context) Configuration(name string) (*Configuration, error) {
	if name == "" {
		name = DefaultConfiguration
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	cfg, ok := c.configurations[name]
	if !ok {
		return nil, errors.NotFound("configuration", name)
	}
	return cfg, nil
}

// Project returns the primary project, or nil.
func (c *Context) Project() *Project {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.primary
}

// Rules returns the context's rulebook.
func (c *Context) Rules() *rule.Rulebook { return c.rules }

// Select splits names into defined targets and the remaining names, which
// are taken to be dependencies to resolve elsewhere. Order is preserved.
func (c *Context) Select(names ...string) (targets []*build.Target, dependencies []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, name := range names {
		if t, ok := c.targets[name]; ok {
			targets = append(targets, t)
		} else {
			dependencies = append(dependencies, name)
		}
	}
	return targets, dependencies
}
