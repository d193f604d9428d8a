package environment

import (
	"fmt"
	"sort"
	"strings"
)

// Values is a flattened environment with every deferred value resolved.
type Values struct {
	m map[string]any
}

// Get returns the value stored under key.
func (v Values) Get(key string) (any, bool) {
	value, ok := v.m[key]
	return value, ok
}

// String returns the value under key as a string. Sequences are joined with
// single spaces; a missing key yields "".
func (v Values) String(key string) string {
	return toString(v.m[key])
}

// Strings returns the value under key as a list of strings. A scalar becomes
// a one-element list; a missing key yields nil.
func (v Values) Strings(key string) []string {
	value, ok := v.m[key]
	if !ok {
		return nil
	}
	return toStrings(value)
}

// Keys returns the defined keys, sorted.
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v.m))
	for k := range v.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of keys.
func (v Values) Len() int { return len(v.m) }

// Map returns a copy of the flattened values.
func (v Values) Map() map[string]any {
	out := make(map[string]any, len(v.m))
	for k, value := range v.m {
		out[k] = value
	}
	return out
}

// Shell exports the values as KEY=value pairs sorted by key, suitable for a
// process environment. Keys are upper-cased and sequences space-joined.
func (v Values) Shell() []string {
	keys := v.Keys()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.ToUpper(k)+"="+toString(v.m[k]))
	}
	return out
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if seq, ok := sequence(v); ok {
		return strings.Join(toStrings(seq), " ")
	}
	return fmt.Sprint(v)
}

func toStrings(v any) []string {
	if v == nil {
		return nil
	}
	seq, ok := sequence(v)
	if !ok {
		return []string{toString(v)}
	}
	out := make([]string, len(seq))
	for i, item := range seq {
		out[i] = toString(item)
	}
	return out
}
