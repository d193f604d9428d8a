package files

import (
	"sort"
	"strings"
)

// Path is a single file-valued argument.
type Path string

// String returns the path as a plain string.
func (p Path) String() string { return string(p) }

// List is an ordered sequence of paths.
type List []Path

// Strings returns the list as plain strings.
func (l List) Strings() []string {
	out := make([]string, len(l))
	for i, p := range l {
		out[i] = string(p)
	}
	return out
}

// Paths builds a List from plain strings.
func Paths(paths ...string) List {
	out := make(List, len(paths))
	for i, p := range paths {
		out[i] = Path(p)
	}
	return out
}

// Set is a sorted, de-duplicated collection of paths.
type Set struct {
	paths []Path
}

// NewSet creates a Set holding the given paths.
func NewSet(paths ...Path) Set {
	var s Set
	s.Merge(paths...)
	return s
}

// Merge adds paths to the set, keeping it sorted and unique.
func (s *Set) Merge(paths ...Path) {
	if len(paths) == 0 {
		return
	}
	seen := make(map[Path]struct{}, len(s.paths)+len(paths))
	merged := make([]Path, 0, len(s.paths)+len(paths))
	for _, p := range append(append([]Path{}, s.paths...), paths...) {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		merged = append(merged, p)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i] < merged[j] })
	s.paths = merged
}

// Union returns a new set containing the paths of both sets.
func (s Set) Union(other Set) Set {
	out := NewSet(s.paths...)
	out.Merge(other.paths...)
	return out
}

// Contains reports whether p is in the set.
func (s Set) Contains(p Path) bool {
	i := sort.Search(len(s.paths), func(i int) bool { return s.paths[i] >= p })
	return i < len(s.paths) && s.paths[i] == p
}

// List returns the paths in sorted order.
func (s Set) List() List {
	return append(List(nil), s.paths...)
}

// Len returns the number of paths.
func (s Set) Len() int { return len(s.paths) }

// Empty reports whether the set holds no paths.
func (s Set) Empty() bool { return len(s.paths) == 0 }

func (s Set) String() string {
	return "[" + strings.Join(List(s.paths).Strings(), " ") + "]"
}

// Files extracts the file-valued content of an argument value. Plain strings
// and other values are not file-valued.
func Files(value any) (List, bool) {
	switch v := value.(type) {
	case Path:
		return List{v}, true
	case List:
		return v, true
	case []Path:
		return List(v), true
	case Set:
		return v.List(), true
	case *Set:
		if v == nil {
			return nil, false
		}
		return v.List(), true
	case []any:
		var out List
		for _, item := range v {
			l, ok := Files(item)
			if !ok {
				return nil, false
			}
			out = append(out, l...)
		}
		return out, len(v) > 0
	default:
		return nil, false
	}
}
