package environment

import (
	"reflect"
	"strings"

	"github.com/kbukum/forge/errors"
)

// View gives a Deferred access to the other keys of the flatten call that is
// evaluating it.
type View interface {
	Get(key string) (any, bool)
	String(key string) string
	Strings(key string) []string
}

// slot is the merged, still unresolved state of one key.
type slot struct {
	value     any
	list      []any
	isList    bool
	isDefault bool
}

// Flatten merges the chain root to leaf and resolves every deferred value.
// Each call evaluates deferred values afresh.
func (e *Environment) Flatten() (Values, error) {
	merged := make(map[string]*slot)
	var order []string

	for _, layer := range e.chain() {
		for _, en := range layer.entries {
			s, ok := merged[en.key]
			if !ok {
				order = append(order, en.key)
			}
			merged[en.key] = apply(s, en)
		}
	}

	r := &resolver{
		slots:    merged,
		resolved: make(map[string]any, len(merged)),
		active:   make(map[string]bool),
	}
	for _, key := range order {
		r.resolve(key)
		if r.err != nil {
			return Values{}, r.err
		}
	}
	return Values{m: r.resolved}, nil
}

// Get flattens the chain and returns the value stored under key.
func (e *Environment) Get(key string) (any, error) {
	values, err := e.Flatten()
	if err != nil {
		return nil, err
	}
	v, ok := values.Get(key)
	if !ok {
		return nil, errors.NotFound("environment key", key)
	}
	return v, nil
}

func apply(s *slot, en entry) *slot {
	switch en.class {
	case classDefault:
		if s != nil {
			return s
		}
		return &slot{value: en.value, isDefault: true}
	case classExtend:
		values := en.value.([]any)
		if s == nil || s.isDefault {
			return &slot{list: append([]any(nil), values...), isList: true}
		}
		base := s.list
		if !s.isList {
			base = asList(s.value)
		}
		return &slot{list: append(append([]any(nil), base...), values...), isList: true}
	default:
		return &slot{value: en.value}
	}
}

// asList converts an override value into the head of an extension.
func asList(v any) []any {
	if v == nil {
		return nil
	}
	if seq, ok := sequence(v); ok {
		return seq
	}
	return []any{v}
}

// sequence reports whether v is a slice or array (other than []byte) and
// returns its elements.
func sequence(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

type resolver struct {
	slots    map[string]*slot
	resolved map[string]any
	active   map[string]bool
	stack    []string
	err      error
}

func (r *resolver) resolve(key string) (any, bool) {
	if v, ok := r.resolved[key]; ok {
		return v, true
	}
	s, ok := r.slots[key]
	if !ok || r.err != nil {
		return nil, false
	}
	if r.active[key] {
		path := append(append([]string(nil), r.stack...), key)
		r.err = errors.InvalidInput(key, "deferred values form a cycle: "+strings.Join(path, " -> "))
		return nil, false
	}

	r.active[key] = true
	r.stack = append(r.stack, key)
	defer func() {
		delete(r.active, key)
		r.stack = r.stack[:len(r.stack)-1]
	}()

	var v any
	if s.isList {
		out := make([]any, 0, len(s.list))
		for _, item := range s.list {
			if d, ok := item.(Deferred); ok {
				item = r.evaluate(d)
				if seq, ok := sequence(item); ok {
					out = append(out, seq...)
					continue
				}
			}
			out = append(out, item)
		}
		v = out
	} else {
		v = s.value
		if d, ok := v.(Deferred); ok {
			v = r.evaluate(d)
		}
	}

	if r.err != nil {
		return nil, false
	}
	r.resolved[key] = v
	return v, true
}

func (r *resolver) evaluate(d Deferred) any {
	v := d(r)
	// A deferred may itself yield another deferred.
	for {
		next, ok := v.(Deferred)
		if !ok || r.err != nil {
			return v
		}
		v = next(r)
	}
}

// Get implements View.
func (r *resolver) Get(key string) (any, bool) {
	return r.resolve(key)
}

// String implements View.
func (r *resolver) String(key string) string {
	v, _ := r.resolve(key)
	return toString(v)
}

// Strings implements View.
func (r *resolver) Strings(key string) []string {
	v, ok := r.resolve(key)
	if !ok {
		return nil
	}
	return toStrings(v)
}
