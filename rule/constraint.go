package rule

import (
	"fmt"
	"path"
	"reflect"

	"github.com/kbukum/forge/files"
)

// Matcher tests a scalar argument value rendered as a string.
// *regexp.Regexp satisfies Matcher.
type Matcher interface {
	MatchString(s string) bool
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(string) bool

// MatchString implements Matcher.
func (f MatcherFunc) MatchString(s string) bool { return f(s) }

// Glob matches shell patterns against the whole value or, failing that, its
// base name, so "*.c" accepts "src/main.c".
func Glob(pattern string) Matcher {
	return MatcherFunc(func(s string) bool {
		if ok, _ := path.Match(pattern, s); ok {
			return true
		}
		ok, _ := path.Match(pattern, path.Base(s))
		return ok
	})
}

// Constraint describes which values a parameter accepts.
type Constraint struct {
	// Optional parameters may be absent or nil.
	Optional bool
	// Pattern, when set, must match every scalar value.
	Pattern Matcher
	// Multiple requires the value to be a sequence.
	Multiple bool
}

// Check reports whether value satisfies the constraint. present is false
// when the argument set does not mention the parameter at all.
func (c Constraint) Check(value any, present bool) bool {
	if !present || value == nil {
		return c.Optional || (present && c.Pattern == nil && !c.Multiple)
	}

	items, isSeq := elements(value)
	if c.Multiple && !isSeq {
		return false
	}
	if c.Pattern == nil {
		return true
	}
	if !isSeq {
		return c.Pattern.MatchString(text(value))
	}
	if !c.Multiple {
		return false
	}
	for _, item := range items {
		if !c.Pattern.MatchString(text(item)) {
			return false
		}
	}
	return true
}

// elements returns the items of a sequence value. Strings and byte slices
// are scalars.
func elements(v any) ([]any, bool) {
	switch s := v.(type) {
	case files.Set:
		return toAny(s.List()), true
	case *files.Set:
		if s == nil {
			return nil, false
		}
		return toAny(s.List()), true
	case []any:
		return s, true
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

func toAny(l files.List) []any {
	out := make([]any, len(l))
	for i, p := range l {
		out[i] = p
	}
	return out
}

func text(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case files.Path:
		return string(s)
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}
