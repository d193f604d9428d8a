package environment

import (
	"sort"
)

type class int

const (
	classOverride class = iota
	classExtend
	classDefault
)

func (c class) String() string {
	switch c {
	case classExtend:
		return "extend"
	case classDefault:
		return "default"
	default:
		return "override"
	}
}

type entry struct {
	key   string
	class class
	value any
}

// Deferred is a value computed during flattening. It may read any other key
// of the same flatten call through the View.
type Deferred func(View) any

// Environment is one immutable configuration layer.
type Environment struct {
	parent  *Environment
	name    string
	entries []entry
}

// Builder collects the declarations of a layer under construction.
type Builder struct {
	name    string
	entries []entry
}

// Name labels the layer for diagnostics.
func (b *Builder) Name(name string) *Builder {
	b.name = name
	return b
}

// Set declares an override value for key.
func (b *Builder) Set(key string, value any) *Builder {
	b.entries = append(b.entries, entry{key: key, class: classOverride, value: value})
	return b
}

// Append extends the sequence stored under key.
func (b *Builder) Append(key string, values ...any) *Builder {
	b.entries = append(b.entries, entry{key: key, class: classExtend, value: values})
	return b
}

// Default declares value for key unless an ancestor already defines it.
func (b *Builder) Default(key string, value any) *Builder {
	b.entries = append(b.entries, entry{key: key, class: classDefault, value: value})
	return b
}

// New creates a layer over parent. fn may be nil for an empty layer.
func New(parent *Environment, fn func(*Builder)) *Environment {
	b := &Builder{}
	if fn != nil {
		fn(b)
	}
	return &Environment{
		parent:  parent,
		name:    b.name,
		entries: append([]entry(nil), b.entries...),
	}
}

// FromMap creates a layer of override declarations, in key order.
func FromMap(parent *Environment, values map[string]any) *Environment {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return New(parent, func(b *Builder) {
		for _, k := range keys {
			b.Set(k, values[k])
		}
	})
}

// Combine chains the given environments so that later arguments are more
// specific. Each input's own chain is preserved root to leaf; nil inputs are
// skipped. Combine(b, d) with b→a and d→c yields d→c→b→a.
func Combine(envs ...*Environment) *Environment {
	var top *Environment
	for _, env := range envs {
		if env == nil {
			continue
		}
		for _, layer := range env.chain() {
			top = &Environment{parent: top, name: layer.name, entries: layer.entries}
		}
	}
	return top
}

// Parent returns the enclosing layer, or nil at the root.
func (e *Environment) Parent() *Environment {
	if e == nil {
		return nil
	}
	return e.parent
}

// Name returns the layer label.
func (e *Environment) Name() string {
	if e == nil {
		return ""
	}
	return e.name
}

// Keys returns every key declared anywhere in the chain, sorted.
func (e *Environment) Keys() []string {
	seen := make(map[string]struct{})
	for layer := e; layer != nil; layer = layer.parent {
		for _, en := range layer.entries {
			seen[en.key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Local returns the override and default values declared in this layer only,
// without resolving deferred values. Extensions are returned as slices.
func (e *Environment) Local() map[string]any {
	out := make(map[string]any)
	if e == nil {
		return out
	}
	for _, en := range e.entries {
		out[en.key] = en.value
	}
	return out
}

// chain returns the layers ordered root to leaf.
func (e *Environment) chain() []*Environment {
	var layers []*Environment
	for layer := e; layer != nil; layer = layer.parent {
		layers = append(layers, layer)
	}
	for i, j := 0, len(layers)-1; i < j; i, j = i+1, j-1 {
		layers[i], layers[j] = layers[j], layers[i]
	}
	return layers
}
