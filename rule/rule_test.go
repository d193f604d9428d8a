package rule

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/forge/environment"
	"github.com/kbukum/forge/errors"
	"github.com/kbukum/forge/files"
)

func objectFor(raw any, args Arguments) any {
	if raw != nil {
		return raw
	}
	return files.Path(strings.TrimSuffix(args.String("source"), ".c") + ".o")
}

func compileRule() *Rule {
	return New("compile", "c").
		Input("source", Pattern(regexp.MustCompile(`\.c$`))).
		Output("object", Optional(), Dynamic(objectFor))
}

func TestConstraint_Check(t *testing.T) {
	cSource := regexp.MustCompile(`\.c$`)
	tests := []struct {
		name       string
		constraint Constraint
		value      any
		present    bool
		want       bool
	}{
		{"required absent", Constraint{}, nil, false, false},
		{"optional absent", Constraint{Optional: true}, nil, false, true},
		{"required present nil", Constraint{}, nil, true, true},
		{"required nil with pattern", Constraint{Pattern: cSource}, nil, true, false},
		{"pattern match", Constraint{Pattern: cSource}, files.Path("a.c"), true, true},
		{"pattern mismatch", Constraint{Pattern: cSource}, "a.cpp", true, false},
		{"sequence without multiple", Constraint{Pattern: cSource}, files.Paths("a.c"), true, false},
		{"multiple all match", Constraint{Pattern: cSource, Multiple: true}, files.Paths("a.c", "b.c"), true, true},
		{"multiple one mismatch", Constraint{Pattern: cSource, Multiple: true}, []string{"a.c", "b.h"}, true, false},
		{"multiple requires sequence", Constraint{Multiple: true}, "a.c", true, false},
		{"multiple set", Constraint{Pattern: cSource, Multiple: true}, files.NewSet("x.c"), true, true},
		{"glob base name", Constraint{Pattern: Glob("*.c")}, files.Path("src/main.c"), true, true},
		{"glob mismatch", Constraint{Pattern: Glob("*.c")}, files.Path("src/main.h"), true, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.constraint.Check(tc.value, tc.present); got != tc.want {
				t.Errorf("Check(%v, %v) = %v, want %v", tc.value, tc.present, got, tc.want)
			}
		})
	}
}

func TestRule_Names(t *testing.T) {
	r := New("link-library", "static.ar")
	if r.Name() != "link-library.static.ar" {
		t.Errorf("unexpected name %q", r.Name())
	}
	if r.FullName() != "link_library_static_ar" {
		t.Errorf("unexpected full name %q", r.FullName())
	}
	if !strings.Contains(r.Origin(), "rule_test.go:") {
		t.Errorf("expected origin in this file, got %q", r.Origin())
	}
}

func TestRule_Applicable(t *testing.T) {
	r := compileRule()
	if !r.Applicable(Arguments{"source": files.Path("main.c")}) {
		t.Error("expected main.c to be applicable")
	}
	if r.Applicable(Arguments{"source": files.Path("main.go")}) {
		t.Error("main.go should not match the c pattern")
	}
	if r.Applicable(Arguments{"object": files.Path("main.o")}) {
		t.Error("missing required source should not be applicable")
	}
}

func TestRule_NormalizeDynamic(t *testing.T) {
	r := compileRule()
	args := Arguments{"source": files.Path("src/main.c"), "unused": 1}

	got := r.Normalize(args)
	want := Arguments{
		"source": files.Path("src/main.c"),
		"object": objectFor(nil, args),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize (-want +got):\n%s", diff)
	}
	if !got.Equal(r.Normalize(args.Clone())) {
		t.Error("normalization must be deterministic")
	}
	if r.Result(got) != files.Path("src/main.o") {
		t.Errorf("unexpected primary output %v", r.Result(got))
	}
}

func TestRule_Files(t *testing.T) {
	r := New("link", "executable").
		Input("objects", Multiple()).
		Input("flags", Optional()).
		Output("executable")

	in, out := r.Files(Arguments{
		"objects":    files.Paths("b.o", "a.o", "b.o"),
		"flags":      "-lm",
		"executable": files.Path("app"),
	})
	if diff := cmp.Diff(files.Paths("a.o", "b.o"), in); diff != "" {
		t.Errorf("inputs (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(files.Paths("app"), out); diff != "" {
		t.Errorf("outputs (-want +got):\n%s", diff)
	}
}

func TestRule_PrimaryOutputIsFirstOutput(t *testing.T) {
	r := New("archive", "tar").Output("archive").Input("files").Output("manifest")
	p, ok := r.PrimaryOutput()
	if !ok || p.Name != "archive" {
		t.Errorf("expected archive as primary output, got %v", p)
	}
	if New("noop", "x").Result(Arguments{"a": 1}) != nil {
		t.Error("rule without outputs should have no result")
	}
}

func TestRule_FrozenPanics(t *testing.T) {
	r := compileRule()
	if _, err := NewRulebook(r); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic when modifying a frozen rule")
		}
	}()
	r.Input("late")
}

type recordingScope struct {
	commands [][]string
}

func (s *recordingScope) Update(context.Context, *Rule, Arguments, ...Handler) (any, error) {
	return nil, nil
}

func (s *recordingScope) Invoke(context.Context, string, Arguments, ...Handler) (any, error) {
	return nil, nil
}

func (s *recordingScope) Run(_ context.Context, argv ...string) error {
	s.commands = append(s.commands, argv)
	return nil
}
func (s *recordingScope) Environment() environment.Values { return environment.Values{} }
func (s *recordingScope) FS() files.System                { return nil }

func TestRule_ApplyTo(t *testing.T) {
	r := compileRule().ApplyFunc(func(ctx context.Context, s Scope, args Arguments) error {
		return s.Run(ctx, "cc", "-c", args.String("source"), "-o", args.String("object"))
	})
	scope := &recordingScope{}
	args := r.Normalize(Arguments{"source": files.Path("a.c")})

	if err := r.ApplyTo(context.Background(), scope, args); err != nil {
		t.Fatalf("ApplyTo: %v", err)
	}
	want := [][]string{{"cc", "-c", "a.c", "-o", "a.o"}}
	if diff := cmp.Diff(want, scope.commands); diff != "" {
		t.Errorf("commands (-want +got):\n%s", diff)
	}

	if err := New("empty", "x").ApplyTo(context.Background(), scope, nil); err != nil {
		t.Errorf("rule without handler should be a no-op, got %v", err)
	}
}

func TestArguments_Key(t *testing.T) {
	a := Arguments{"x": files.Path("a"), "y": []string{"1", "2"}}
	b := Arguments{"y": []string{"1", "2"}, "x": files.Path("a")}
	if a.Key() != b.Key() {
		t.Errorf("expected equal keys:\n%s\n%s", a.Key(), b.Key())
	}
	if a.Equal(Arguments{"x": "a", "y": []string{"1", "2"}}) {
		t.Error("a string and a path with the same text must not be equal")
	}
	if a.Equal(a.With("y", []string{"2", "1"})) {
		t.Error("sequence order must matter")
	}
}

func TestRulebook(t *testing.T) {
	c := compileRule()
	cpp := New("compile", "cpp").Input("source", Pattern(Glob("*.cpp"))).Output("object", Optional())
	link := New("link", "executable").Input("objects", Multiple()).Output("executable")

	rb, err := NewRulebook(c, cpp, link)
	if err != nil {
		t.Fatalf("NewRulebook: %v", err)
	}

	if diff := cmp.Diff([]string{"compile.c", "compile.cpp", "link.executable"}, rb.List()); diff != "" {
		t.Errorf("List (-want +got):\n%s", diff)
	}
	if got := rb.Process("compile"); len(got) != 2 || got[0] != c || got[1] != cpp {
		t.Errorf("unexpected compile rules %v", got)
	}

	selected, err := rb.Select("compile", Arguments{"source": files.Path("x.cpp")})
	if err != nil || selected != cpp {
		t.Errorf("Select = %v, %v; want compile.cpp", selected, err)
	}

	_, err = rb.Select("compile", Arguments{"source": files.Path("x.rs")})
	if !errors.IsCode(err, errors.ErrCodeNoApplicableRule) {
		t.Fatalf("expected NO_APPLICABLE_RULE, got %v", err)
	}
	if !strings.Contains(err.Error(), "x.rs") {
		t.Errorf("expected rejected arguments in %q", err.Error())
	}
}

func TestRulebook_Duplicate(t *testing.T) {
	first := New("compile", "c").WithOrigin("a/forge.go:1")
	second := New("compile", "c").WithOrigin("b/forge.go:2")

	rb, err := NewRulebook(first)
	if err != nil {
		t.Fatal(err)
	}
	err = rb.Add(second)
	if !errors.IsCode(err, errors.ErrCodeAlreadyDefined) {
		t.Fatalf("expected ALREADY_DEFINED, got %v", err)
	}
	for _, origin := range []string{"a/forge.go:1", "b/forge.go:2"} {
		if !strings.Contains(err.Error(), origin) {
			t.Errorf("expected %s in %q", origin, err.Error())
		}
	}
	if got, _ := rb.Get("compile.c"); got != first {
		t.Error("the first definition must be kept")
	}
}
