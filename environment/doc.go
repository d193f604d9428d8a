// Package environment provides layered, lazily flattened build configuration.
//
// An Environment is an immutable layer of key/value declarations with an
// optional parent. Flattening merges the chain from root to leaf:
//
//   - Set declares an override: the leaf-most value wins.
//   - Append declares an extension: values concatenate root to leaf.
//   - Default declares a fallback used only when no ancestor defines the key.
//
// Values may be Deferred functions, evaluated once per Flatten against the
// fully merged chain, so a deferred declared at the root can read a key that
// only a descendant sets.
//
//	base := environment.New(nil, func(b *environment.Builder) {
//	    b.Set("sdk", "bob-2.6")
//	    b.Append("cflags", environment.Deferred(func(v environment.View) any {
//	        return "-sdk=" + v.String("sdk")
//	    }))
//	})
//	leaf := environment.New(base, func(b *environment.Builder) {
//	    b.Set("sdk", "bob-2.8")
//	})
//	values, err := leaf.Flatten() // cflags = [-sdk=bob-2.8]
package environment
