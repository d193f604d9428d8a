package bootstrap

import (
	"fmt"
	"runtime"
	"time"

	"github.com/kbukum/forge/config"
	"github.com/kbukum/forge/observability"
	"github.com/kbukum/forge/process"
	"github.com/kbukum/forge/validation"
	"github.com/kbukum/forge/version"
)

// Config is the interface constraint for application configuration types.
// Any struct that embeds config.ToolConfig (value embedding) satisfies it
// via promoted methods.
//
// Example:
//
//	type MyConfig struct {
//	    config.ToolConfig `yaml:",inline" mapstructure:",squash"`
//	    Build bootstrap.BuildConfig `yaml:"build" mapstructure:"build"`
//	}
//
//	app, err := bootstrap.NewApp[*MyConfig](&cfg)
type Config interface {
	GetToolConfig() *config.ToolConfig
	ApplyDefaults()
	Validate() error
}

// BuildConfigurer is implemented by configs that carry build settings.
type BuildConfigurer interface {
	GetBuildConfig() *BuildConfig
}

// TelemetryConfigurer is implemented by configs that carry telemetry settings.
type TelemetryConfigurer interface {
	GetTelemetryConfig() *TelemetryConfig
}

// BuildConfig controls how a build runs.
type BuildConfig struct {
	// MaxConcurrent bounds concurrently running commands. Zero means the
	// number of CPUs.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"gte=0,lte=1024"`
	// DryRun analyzes the graph without running any command.
	DryRun bool `yaml:"dry_run" mapstructure:"dry_run"`
	// PlanFile receives the analyzed plan as YAML on dry runs.
	PlanFile string `yaml:"plan_file" mapstructure:"plan_file"`
	// Process holds defaults for every spawned command.
	Process process.Config `yaml:"process" mapstructure:"process"`
}

// ApplyDefaults fills in unset fields.
func (b *BuildConfig) ApplyDefaults() {
	if b.MaxConcurrent == 0 {
		b.MaxConcurrent = runtime.NumCPU()
	}
	if b.Process.GracePeriod == 0 {
		b.Process.GracePeriod = 5 * time.Second
	}
}

// TracingConfig enables span export.
type TracingConfig struct {
	Enabled                    bool `yaml:"enabled" mapstructure:"enabled"`
	observability.TracerConfig `yaml:",inline" mapstructure:",squash"`
}

// MetricsConfig enables metric export.
type MetricsConfig struct {
	Enabled                   bool `yaml:"enabled" mapstructure:"enabled"`
	observability.MeterConfig `yaml:",inline" mapstructure:",squash"`
}

// TelemetryConfig groups tracing and metrics.
type TelemetryConfig struct {
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// ApplyDefaults fills unset exporter fields for enabled sections.
func (t *TelemetryConfig) ApplyDefaults(name, version string) {
	if t.Tracing.Enabled {
		def := observability.DefaultTracerConfig(name)
		if t.Tracing.ServiceName == "" {
			t.Tracing.ServiceName = def.ServiceName
		}
		if t.Tracing.ServiceVersion == "" {
			t.Tracing.ServiceVersion = version
		}
		if t.Tracing.Environment == "" {
			t.Tracing.Environment = def.Environment
		}
		if t.Tracing.Endpoint == "" {
			t.Tracing.Endpoint = def.Endpoint
		}
		if t.Tracing.SampleRate == 0 {
			t.Tracing.SampleRate = def.SampleRate
		}
	}
	if t.Metrics.Enabled {
		def := observability.DefaultMeterConfig(name)
		if t.Metrics.ServiceName == "" {
			t.Metrics.ServiceName = def.ServiceName
		}
		if t.Metrics.ServiceVersion == "" {
			t.Metrics.ServiceVersion = version
		}
		if t.Metrics.Environment == "" {
			t.Metrics.Environment = def.Environment
		}
		if t.Metrics.Endpoint == "" {
			t.Metrics.Endpoint = def.Endpoint
		}
		if t.Metrics.Interval == 0 {
			t.Metrics.Interval = def.Interval
		}
	}
}

// Settings is the configuration of the forge command.
type Settings struct {
	config.ToolConfig `yaml:",inline" mapstructure:",squash"`
	Build             BuildConfig     `yaml:"build" mapstructure:"build"`
	Telemetry         TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// LoadSettings reads Settings for the named tool from its config file, .env
// file and FORGE_ environment variables.
func LoadSettings(name string, opts ...config.LoaderOption) (*Settings, error) {
	var s Settings
	if err := config.LoadConfig(name, &s, opts...); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) GetBuildConfig() *BuildConfig         { return &s.Build }
func (s *Settings) GetTelemetryConfig() *TelemetryConfig { return &s.Telemetry }

// ApplyDefaults fills in unset fields of every section.
func (s *Settings) ApplyDefaults() {
	s.ToolConfig.ApplyDefaults()
	s.Build.ApplyDefaults()
	s.Telemetry.ApplyDefaults(s.Name, version.Get().Version)
}

// Validate checks struct tags first, then rules that span fields.
func (s *Settings) Validate() error {
	if err := s.ToolConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(s); err != nil {
		return err
	}
	v := validation.New().
		Min("build.process.timeout", int(s.Build.Process.Timeout), 0).
		Min("build.process.grace_period", int(s.Build.Process.GracePeriod), 0).
		Custom(s.Build.PlanFile == "" || s.Build.DryRun, "build.plan_file", "requires build.dry_run").
		Custom(!s.Telemetry.Tracing.Enabled || s.Telemetry.Tracing.Endpoint != "", "telemetry.tracing.endpoint", "is required when tracing is enabled").
		Custom(!s.Telemetry.Metrics.Enabled || s.Telemetry.Metrics.Endpoint != "", "telemetry.metrics.endpoint", "is required when metrics are enabled")
	if appErr := v.Validate(); appErr != nil {
		return fmt.Errorf("settings: %w", appErr)
	}
	return nil
}
