package bootstrap

import (
	"io"
	"time"

	"github.com/spf13/afero"

	"github.com/kbukum/forge/build"
	"github.com/kbukum/forge/logger"
)

// Option configures the App during creation.
// Options are non-generic so they can be used with any config type.
type Option func(*appOptions)

// appOptions collects all option values before applying to App.
type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout *time.Duration
	fs              afero.Fs
	output          io.Writer
	controller      []build.Option
	signals         *bool
}

// resolveOptions applies all options and returns the collected values.
func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger for the application.
// If not set, the logger is initialized from the config's Logging field.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithGracefulTimeout sets the maximum duration for shutdown hooks and
// telemetry flushing.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}

// WithFS sets the filesystem builds run against and plan files are
// written to. Defaults to the OS filesystem.
func WithFS(fs afero.Fs) Option {
	return func(o *appOptions) {
		o.fs = fs
	}
}

// WithOutput sets where the run summary is printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(o *appOptions) {
		o.output = w
	}
}

// WithControllerOptions appends options to every controller the app creates.
// They are applied after the ones derived from the config.
func WithControllerOptions(opts ...build.Option) Option {
	return func(o *appOptions) {
		o.controller = append(o.controller, opts...)
	}
}

// WithSignals controls whether RunTask cancels its task on SIGINT/SIGTERM.
// Enabled by default.
func WithSignals(enabled bool) Option {
	return func(o *appOptions) {
		o.signals = &enabled
	}
}
