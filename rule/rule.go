package rule

import (
	"context"
	"fmt"
	"regexp"
	"runtime"

	"github.com/kbukum/forge/files"
)

var nonWord = regexp.MustCompile(`\W`)

// Handler performs a rule's build step with normalized arguments.
type Handler interface {
	Apply(ctx context.Context, scope Scope, args Arguments) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, scope Scope, args Arguments) error

// Apply implements Handler.
func (f HandlerFunc) Apply(ctx context.Context, scope Scope, args Arguments) error {
	return f(ctx, scope, args)
}

// Rule is a named, parameterized build step.
type Rule struct {
	process    string
	typ        string
	name       string
	fullName   string
	origin     string
	parameters []Parameter
	primary    int
	handler    Handler
	frozen     bool
}

// New creates a rule named process.typ. The caller's location is recorded as
// the rule's origin.
func New(process, typ string) *Rule {
	name := process + "." + typ
	r := &Rule{
		process:  process,
		typ:      typ,
		name:     name,
		fullName: nonWord.ReplaceAllString(name, "_"),
		primary:  -1,
	}
	if _, file, line, ok := runtime.Caller(1); ok {
		r.origin = fmt.Sprintf("%s:%d", file, line)
	}
	return r
}

// Input declares an input parameter.
func (r *Rule) Input(name string, opts ...ParameterOption) *Rule {
	return r.declare(Input, name, opts)
}

// Output declares an output parameter. The first output is the primary one.
func (r *Rule) Output(name string, opts ...ParameterOption) *Rule {
	r.declare(Output, name, opts)
	if r.primary < 0 {
		r.primary = len(r.parameters) - 1
	}
	return r
}

func (r *Rule) declare(dir Direction, name string, opts []ParameterOption) *Rule {
	r.mustNotBeFrozen()
	p := Parameter{Direction: dir, Name: name}
	for _, opt := range opts {
		opt(&p)
	}
	r.parameters = append(r.parameters, p)
	return r
}

// Apply sets the handler that performs the build step.
func (r *Rule) Apply(h Handler) *Rule {
	r.mustNotBeFrozen()
	r.handler = h
	return r
}

// ApplyFunc sets a function as the rule's handler.
func (r *Rule) ApplyFunc(fn func(ctx context.Context, scope Scope, args Arguments) error) *Rule {
	return r.Apply(HandlerFunc(fn))
}

// WithOrigin overrides the recorded definition location.
func (r *Rule) WithOrigin(origin string) *Rule {
	r.origin = origin
	return r
}

// Freeze prevents further parameter or handler changes.
func (r *Rule) Freeze() { r.frozen = true }

func (r *Rule) mustNotBeFrozen() {
	if r.frozen {
		panic(fmt.Sprintf("rule: %s modified after being added to a rulebook", r.name))
	}
}

func (r *Rule) Name() string     { return r.name }
func (r *Rule) FullName() string { return r.fullName }
func (r *Rule) Process() string  { return r.process }
func (r *Rule) Type() string     { return r.typ }
func (r *Rule) Origin() string   { return r.origin }

// Parameters returns the declared parameters in order.
func (r *Rule) Parameters() []Parameter {
	return append([]Parameter(nil), r.parameters...)
}

// PrimaryOutput returns the first declared output parameter.
func (r *Rule) PrimaryOutput() (Parameter, bool) {
	if r.primary < 0 {
		return Parameter{}, false
	}
	return r.parameters[r.primary], true
}

// Applicable reports whether every parameter accepts args.
func (r *Rule) Applicable(args Arguments) bool {
	for _, p := range r.parameters {
		if !p.Applicable(args) {
			return false
		}
	}
	return true
}

// Normalize computes each declared parameter's value. Undeclared arguments
// are dropped and nil results are left absent.
func (r *Rule) Normalize(args Arguments) Arguments {
	out := make(Arguments, len(r.parameters))
	for _, p := range r.parameters {
		if v := p.Compute(args); v != nil {
			out[p.Name] = v
		}
	}
	return out
}

// Files returns the union of file-valued input and output arguments.
func (r *Rule) Files(args Arguments) (inputs, outputs files.List) {
	var in, out files.Set
	for _, p := range r.parameters {
		l, ok := files.Files(args[p.Name])
		if !ok {
			continue
		}
		if p.Direction == Output {
			out.Merge(l...)
		} else {
			in.Merge(l...)
		}
	}
	return in.List(), out.List()
}

// ApplyTo runs the handler in scope. A rule without a handler does nothing.
func (r *Rule) ApplyTo(ctx context.Context, scope Scope, args Arguments) error {
	if r.handler == nil {
		return nil
	}
	return r.handler.Apply(ctx, scope, args)
}

// Result returns the primary output value of args.
func (r *Rule) Result(args Arguments) any {
	if r.primary < 0 {
		return nil
	}
	return args[r.parameters[r.primary].Name]
}

func (r *Rule) String() string {
	return fmt.Sprintf("<rule %q>", r.name)
}
