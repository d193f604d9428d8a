package environment

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/forge/errors"
)

func reversed(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[len(in)-1-i] = s
	}
	return out
}

func TestFlatten_Chaining(t *testing.T) {
	a := New(nil, func(b *Builder) {
		b.Append("cflags", "-std=c++11")
	})
	b := New(a, func(b *Builder) {
		b.Append("cflags", "-stdlib=libc++")
		b.Set("rcflags", Deferred(func(v View) any { return reversed(v.Strings("cflags")) }))
	})

	values, err := b.Flatten()
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if diff := cmp.Diff([]string{"-std=c++11", "-stdlib=libc++"}, values.Strings("cflags")); diff != "" {
		t.Errorf("cflags (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"-stdlib=libc++", "-std=c++11"}, values.Strings("rcflags")); diff != "" {
		t.Errorf("rcflags (-want +got):\n%s", diff)
	}
}

func TestFlatten_DeferredSeesLeafValues(t *testing.T) {
	a := New(nil, func(b *Builder) {
		b.Set("sdk", "bob-2.6")
		b.Append("cflags", Deferred(func(v View) any { return "-sdk=" + v.String("sdk") }))
	})
	b := New(a, func(b *Builder) { b.Set("sdk", "bob-2.8") })
	c := New(b, func(b *Builder) { b.Append("cflags", "-pipe") })

	bv, err := b.Flatten()
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if diff := cmp.Diff([]string{"cflags", "sdk"}, bv.Keys()); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"CFLAGS=-sdk=bob-2.8", "SDK=bob-2.8"}, bv.Shell()); diff != "" {
		t.Errorf("shell (-want +got):\n%s", diff)
	}

	cv, err := c.Flatten()
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if diff := cmp.Diff([]string{"-sdk=bob-2.8", "-pipe"}, cv.Strings("cflags")); diff != "" {
		t.Errorf("cflags (-want +got):\n%s", diff)
	}
}

func TestFlatten_DeferredSequenceIsSpliced(t *testing.T) {
	env := New(nil, func(b *Builder) {
		b.Set("archs", []string{"x86_64", "arm64"})
		b.Append("ldflags", "-lm", Deferred(func(v View) any {
			var out []string
			for _, a := range v.Strings("archs") {
				out = append(out, "-arch", a)
			}
			return out
		}))
	})

	values, err := env.Flatten()
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	want := []string{"-lm", "-arch", "x86_64", "-arch", "arm64"}
	if diff := cmp.Diff(want, values.Strings("ldflags")); diff != "" {
		t.Errorf("ldflags (-want +got):\n%s", diff)
	}
}

func TestFlatten_Classes(t *testing.T) {
	tests := []struct {
		name   string
		parent func(*Builder)
		child  func(*Builder)
		key    string
		want   []string
	}{
		{
			name:   "override replaces extension",
			parent: func(b *Builder) { b.Append("flags", "-a", "-b") },
			child:  func(b *Builder) { b.Set("flags", "-c") },
			key:    "flags",
			want:   []string{"-c"},
		},
		{
			name:   "extension continues override list",
			parent: func(b *Builder) { b.Set("flags", []string{"-O2"}) },
			child:  func(b *Builder) { b.Append("flags", "-g") },
			key:    "flags",
			want:   []string{"-O2", "-g"},
		},
		{
			name:   "default ignored when ancestor defines key",
			parent: func(b *Builder) { b.Set("opt", "O2") },
			child:  func(b *Builder) { b.Default("opt", "O0") },
			key:    "opt",
			want:   []string{"O2"},
		},
		{
			name:   "default installed when absent",
			parent: func(b *Builder) {},
			child:  func(b *Builder) { b.Default("opt", "O0") },
			key:    "opt",
			want:   []string{"O0"},
		},
		{
			name:   "extension replaces default outright",
			parent: func(b *Builder) { b.Default("archs", []string{"-arch", "i386"}) },
			child:  func(b *Builder) { b.Append("archs", "-m64") },
			key:    "archs",
			want:   []string{"-m64"},
		},
		{
			name:   "override replaces default",
			parent: func(b *Builder) { b.Default("cc", "gcc") },
			child:  func(b *Builder) { b.Set("cc", "clang") },
			key:    "cc",
			want:   []string{"clang"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := New(New(nil, tc.parent), tc.child)
			values, err := env.Flatten()
			if err != nil {
				t.Fatalf("Flatten: %v", err)
			}
			if diff := cmp.Diff(tc.want, values.Strings(tc.key)); diff != "" {
				t.Errorf("%s (-want +got):\n%s", tc.key, diff)
			}
		})
	}
}

func TestCombine_PreservesChains(t *testing.T) {
	a := FromMap(nil, map[string]any{"name": "a"})
	b := FromMap(a, map[string]any{"name": "b"})
	c := FromMap(nil, map[string]any{"name": "c"})
	d := FromMap(c, map[string]any{"name": "d"})

	top := Combine(b, nil, d)

	var got []any
	for layer := top; layer != nil; layer = layer.Parent() {
		got = append(got, layer.Local()["name"])
	}
	if diff := cmp.Diff([]any{"d", "c", "b", "a"}, got); diff != "" {
		t.Errorf("chain (-want +got):\n%s", diff)
	}

	name, err := top.Get("name")
	if err != nil || name != "d" {
		t.Errorf("Get(name) = %v, %v", name, err)
	}
}

func TestCombine_Defaults(t *testing.T) {
	local := New(nil, func(b *Builder) { b.Append("architectures", "-m64") })
	platform := New(nil, func(b *Builder) { b.Default("architectures", []string{"-arch", "i386"}) })

	combined := Combine(platform, local)
	values, err := combined.Flatten()
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if diff := cmp.Diff([]string{"-m64"}, values.Strings("architectures")); diff != "" {
		t.Errorf("architectures (-want +got):\n%s", diff)
	}
}

func TestCombine_Empty(t *testing.T) {
	if Combine() != nil || Combine(nil, nil) != nil {
		t.Error("expected nil for no environments")
	}
	values, err := Combine().Flatten()
	if err != nil || values.Len() != 0 {
		t.Errorf("expected empty values, got %v, %v", values.Map(), err)
	}
}

func TestFlatten_DeferredEvaluatedOncePerCall(t *testing.T) {
	calls := 0
	env := New(nil, func(b *Builder) {
		b.Set("base", Deferred(func(View) any {
			calls++
			return "x"
		}))
		b.Set("one", Deferred(func(v View) any { return v.String("base") + "1" }))
		b.Set("two", Deferred(func(v View) any { return v.String("base") + "2" }))
	})

	if _, err := env.Flatten(); err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected one evaluation, got %d", calls)
	}
	if _, err := env.Flatten(); err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected a fresh evaluation per flatten, got %d", calls)
	}
}

func TestFlatten_DeferredCycle(t *testing.T) {
	env := New(nil, func(b *Builder) {
		b.Set("a", Deferred(func(v View) any { return v.String("b") }))
		b.Set("b", Deferred(func(v View) any { return v.String("a") }))
	})

	_, err := env.Flatten()
	if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestFlatten_DoesNotMutateLayers(t *testing.T) {
	root := New(nil, func(b *Builder) { b.Append("flags", "-a") })
	leaf := New(root, func(b *Builder) { b.Append("flags", "-b") })

	before := root.Local()
	for i := 0; i < 2; i++ {
		values, err := leaf.Flatten()
		if err != nil {
			t.Fatalf("Flatten: %v", err)
		}
		if diff := cmp.Diff([]string{"-a", "-b"}, values.Strings("flags")); diff != "" {
			t.Errorf("flags (-want +got):\n%s", diff)
		}
	}
	if diff := cmp.Diff(before, root.Local()); diff != "" {
		t.Errorf("root layer changed (-before +after):\n%s", diff)
	}
}

func TestEnvironment_GetMissing(t *testing.T) {
	env := FromMap(nil, map[string]any{"a": 1})
	if _, err := env.Get("missing"); !errors.IsCode(err, errors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestEnvironment_Keys(t *testing.T) {
	root := New(nil, func(b *Builder) { b.Name("root").Set("b", 1) })
	leaf := New(root, func(b *Builder) { b.Set("a", 2).Default("c", 3) })

	if diff := cmp.Diff([]string{"a", "b", "c"}, leaf.Keys()); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
	if root.Name() != "root" || leaf.Parent() != root {
		t.Error("unexpected chain metadata")
	}
}
