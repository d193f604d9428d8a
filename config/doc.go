// Package config loads forge settings.
//
// Settings come from a YAML file (forge.yml), then a .env file, then the
// process environment, each overriding the one before. Environment
// variables use the FORGE_ prefix with underscore-separated paths, so
// FORGE_BUILD_MAX_CONCURRENT sets build.max_concurrent.
//
//	var settings bootstrap.Settings
//	err := config.LoadConfig("forge", &settings, config.WithConfigFile("ci/forge.yml"))
package config
