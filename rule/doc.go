// Package rule provides declarative build rules.
//
// A Rule names a build step (process "." type), declares its input and output
// parameters in order, and carries a Handler that performs the step. Argument
// sets are matched against parameter constraints, normalized through dynamic
// parameters, and split into input and output file sets for staleness checks.
//
//	compile := rule.New("compile", "c").
//	    Input("source", rule.Pattern(regexp.MustCompile(`\.c$`))).
//	    Output("object", rule.Dynamic(func(raw any, args rule.Arguments) any {
//	        if raw != nil {
//	            return raw
//	        }
//	        return files.Path(strings.TrimSuffix(args.String("source"), ".c") + ".o")
//	    }), rule.Optional()).
//	    ApplyFunc(func(ctx context.Context, s rule.Scope, args rule.Arguments) error {
//	        return s.Run(ctx, "cc", "-c", args.String("source"), "-o", args.String("object"))
//	    })
//
// A Rulebook holds the rules available to a build scope and selects the first
// applicable rule for a process name.
package rule
