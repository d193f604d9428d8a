package rule

// Direction tells whether a parameter is consumed or produced by a rule.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// DynamicFunc computes a parameter's normalized value from its raw value and
// the full argument set.
type DynamicFunc func(raw any, args Arguments) any

// Parameter is one named slot of a rule.
type Parameter struct {
	Direction Direction
	Name      string
	Constraint
	Dynamic DynamicFunc
}

// ParameterOption configures a Parameter.
type ParameterOption func(*Parameter)

// Optional lets the parameter be absent.
func Optional() ParameterOption {
	return func(p *Parameter) { p.Optional = true }
}

// Pattern requires values to match m.
func Pattern(m Matcher) ParameterOption {
	return func(p *Parameter) { p.Pattern = m }
}

// Multiple requires a sequence value.
func Multiple() ParameterOption {
	return func(p *Parameter) { p.Multiple = true }
}

// Dynamic computes the normalized value with fn.
func Dynamic(fn DynamicFunc) ParameterOption {
	return func(p *Parameter) { p.Dynamic = fn }
}

// Applicable reports whether args satisfy this parameter's constraint.
func (p Parameter) Applicable(args Arguments) bool {
	v, ok := args[p.Name]
	return p.Check(v, ok)
}

// Compute returns the normalized value of the parameter.
func (p Parameter) Compute(args Arguments) any {
	if p.Dynamic != nil {
		return p.Dynamic(args[p.Name], args)
	}
	return args[p.Name]
}

func (p Parameter) String() string {
	return p.Direction.String() + ":" + p.Name
}
