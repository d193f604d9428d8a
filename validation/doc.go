// Package validation checks settings before a build starts.
//
// Struct tags are checked with go-playground/validator; field names in
// messages use the mapstructure key, so they match the config file:
//
//	type BuildConfig struct {
//	    MaxConcurrent int `mapstructure:"max_concurrent" validate:"gte=0"`
//	}
//	err := validation.Validate(cfg)
//
// Cross-field rules are collected with a Validator:
//
//	v := validation.New()
//	v.Custom(!cfg.Enabled || cfg.Endpoint != "", "telemetry.endpoint", "is required when enabled")
//	err := v.Validate()
package validation
