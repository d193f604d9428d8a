package rule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kbukum/forge/files"
)

// Arguments maps parameter names to values.
type Arguments map[string]any

// Key returns a canonical encoding of the arguments. Two argument sets with
// equal values produce the same key.
func (a Arguments) Key() string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(';')
		}
		fmt.Fprintf(&b, "%s=%T:%#v", k, a[k], a[k])
	}
	b.WriteByte('}')
	return b.String()
}

// Equal reports whether both argument sets hold the same values.
func (a Arguments) Equal(other Arguments) bool {
	return a.Key() == other.Key()
}

// Clone returns a shallow copy.
func (a Arguments) Clone() Arguments {
	out := make(Arguments, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// With returns a copy with key set to value.
func (a Arguments) With(key string, value any) Arguments {
	out := a.Clone()
	out[key] = value
	return out
}

// String returns the value under key rendered as a string. Sequences are
// space-joined.
func (a Arguments) String(key string) string {
	v, ok := a[key]
	if !ok || v == nil {
		return ""
	}
	if items, ok := elements(v); ok {
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = text(item)
		}
		return strings.Join(parts, " ")
	}
	return text(v)
}

// Strings returns the value under key as a list of strings.
func (a Arguments) Strings(key string) []string {
	v, ok := a[key]
	if !ok || v == nil {
		return nil
	}
	items, ok := elements(v)
	if !ok {
		return []string{text(v)}
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = text(item)
	}
	return out
}

// Files returns the file-valued content under key.
func (a Arguments) Files(key string) files.List {
	l, _ := files.Files(a[key])
	return l
}

// Map returns the arguments as a plain map, for error reporting.
func (a Arguments) Map() map[string]any {
	return map[string]any(a.Clone())
}
