package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"github.com/kbukum/forge/build"
	"github.com/kbukum/forge/dag"
	"github.com/kbukum/forge/logger"
	"github.com/kbukum/forge/observability"
	"github.com/kbukum/forge/process"
	"github.com/kbukum/forge/version"
)

// App runs a build tool with uniform lifecycle management: config, logger,
// telemetry, hooks and a controller built from the config.
// The type parameter C is the config type, which must satisfy the Config interface.
//
// Example:
//
//	settings, _ := bootstrap.LoadSettings("forge")
//	app, err := bootstrap.NewApp(settings)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    _, err := app.Build(ctx, func(c *build.Controller) error {
//	        _, err := c.AddTarget(target, env, rules)
//	        return err
//	    })
//	    return err
//	})
type App[C Config] struct {
	Name    string
	Version version.Info
	Cfg     C
	Logger  *logger.Logger
	// Metrics is nil unless metrics export is enabled.
	Metrics *observability.Metrics
	Summary *Summary

	fs              afero.Fs
	output          io.Writer
	controllerOpts  []build.Option
	signals         bool
	gracefulTimeout time.Duration
	onConfigure     []func(ctx context.Context, app *App[C]) error

	onStart []Hook
	onReady []Hook
	onStop  []Hook

	shutdown []func(ctx context.Context) error
}

// RunResult is the outcome of App.Build: a plan for dry runs, a report
// otherwise.
type RunResult struct {
	Plan   *dag.Plan
	Report *build.Report
}

// NewApp creates a new application instance from a typed config.
// It applies defaults, validates the config, and initializes the logger.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	base := cfg.GetToolConfig()
	info := version.Get()

	app := &App[C]{
		Name:            base.Name,
		Version:         info,
		Cfg:             cfg,
		fs:              afero.NewOsFs(),
		output:          os.Stdout,
		signals:         true,
		gracefulTimeout: 10 * time.Second,
	}

	o := resolveOptions(opts)
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	if o.fs != nil {
		app.fs = o.fs
	}
	if o.output != nil {
		app.output = o.output
	}
	if o.signals != nil {
		app.signals = *o.signals
	}
	app.controllerOpts = o.controller

	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}

	app.Summary = NewSummary(base.Name, info.Short())
	return app, nil
}

// OnConfigure registers a callback to run after OnStart hooks. Use it to
// load definitions once telemetry is available.
func (a *App[C]) OnConfigure(fn func(ctx context.Context, app *App[C]) error) {
	a.onConfigure = append(a.onConfigure, fn)
}

// RunTask executes task with the full lifecycle: telemetry, OnStart hooks,
// configure callbacks, OnReady hooks, the task, then shutdown. The task's
// context is canceled on SIGINT/SIGTERM unless signals are disabled.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.startup(ctx); err != nil {
		if stopErr := a.stop(context.WithoutCancel(ctx)); stopErr != nil {
			a.Logger.Error("Shutdown after failed startup", logger.ErrorFields("stop", stopErr))
		}
		return err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.signals {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		go func() {
			select {
			case sig := <-sigCh:
				a.Logger.Info("Received signal, canceling build", map[string]interface{}{
					"signal": sig.String(),
				})
				cancel()
			case <-taskCtx.Done():
			}
		}()
	}

	taskErr := task(taskCtx)

	if stopErr := a.stop(context.WithoutCancel(ctx)); stopErr != nil {
		if taskErr != nil {
			return taskErr
		}
		return stopErr
	}
	return taskErr
}

// startup performs the initialization sequence of RunTask.
func (a *App[C]) startup(ctx context.Context) error {
	start := time.Now()

	a.Logger.Info("Starting "+a.Name, a.Version.Fields())

	if err := a.initTelemetry(ctx); err != nil {
		return fmt.Errorf("telemetry initialization failed: %w", err)
	}
	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}
	if err := a.configure(ctx); err != nil {
		return fmt.Errorf("configuration failed: %w", err)
	}
	if err := runHooks(ctx, a.onReady); err != nil {
		return fmt.Errorf("onReady hook failed: %w", err)
	}

	a.Summary.SetStartupDuration(time.Since(start))
	return nil
}

// initTelemetry starts the exporters enabled in the config.
func (a *App[C]) initTelemetry(ctx context.Context) error {
	tc, ok := any(a.Cfg).(TelemetryConfigurer)
	if !ok {
		return nil
	}
	t := tc.GetTelemetryConfig()

	if t.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, &t.Tracing.TracerConfig)
		if err != nil {
			return err
		}
		a.shutdown = append(a.shutdown, tp.Shutdown)
		a.Summary.TrackSetting("tracing", t.Tracing.Endpoint)
	}
	if t.Metrics.Enabled {
		mp, err := observability.InitMeter(ctx, &t.Metrics.MeterConfig)
		if err != nil {
			return err
		}
		a.shutdown = append(a.shutdown, mp.Shutdown)
		metrics, err := observability.NewMetrics(observability.Meter(a.Name))
		if err != nil {
			return err
		}
		a.Metrics = metrics
		a.Summary.TrackSetting("metrics", t.Metrics.Endpoint)
	}
	return nil
}

// configure runs registered configuration callbacks.
func (a *App[C]) configure(ctx context.Context) error {
	if len(a.onConfigure) == 0 {
		return nil
	}

	a.Logger.Debug("Running configuration callbacks", map[string]interface{}{
		"count": len(a.onConfigure),
	})
	for _, fn := range a.onConfigure {
		if err := fn(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// BuildConfig returns the config's build settings, or defaults when the
// config has none.
func (a *App[C]) BuildConfig() *BuildConfig {
	if bc, ok := any(a.Cfg).(BuildConfigurer); ok {
		return bc.GetBuildConfig()
	}
	bc := &BuildConfig{}
	bc.ApplyDefaults()
	return bc
}

// Controller creates a build controller wired to the app's filesystem,
// logger, metrics and process settings. opts are applied last.
func (a *App[C]) Controller(opts ...build.Option) *build.Controller {
	bc := a.BuildConfig()
	all := []build.Option{
		build.WithFS(a.fs),
		build.WithLogger(a.Logger.WithComponent("build")),
		build.WithMaxConcurrent(bc.MaxConcurrent),
		build.WithRunner(process.NewAdapter(bc.Process)),
	}
	if a.Metrics != nil {
		all = append(all, build.WithMetrics(a.Metrics))
	}
	all = append(all, a.controllerOpts...)
	all = append(all, opts...)
	return build.New(all...)
}

// Build creates a controller, lets define register targets on it, then
// analyzes the graph on dry runs or updates every target otherwise. The
// summary is printed once the run ends.
func (a *App[C]) Build(ctx context.Context, define func(c *build.Controller) error) (*RunResult, error) {
	c := a.Controller()
	if define != nil {
		if err := define(c); err != nil {
			return nil, err
		}
	}
	for _, top := range c.Top() {
		a.Summary.TrackTarget(top.Scope().Target.Name)
	}

	bc := a.BuildConfig()
	if bc.DryRun {
		plan, err := c.BuildGraph(ctx)
		if err != nil {
			return nil, err
		}
		if bc.PlanFile != "" {
			if err := a.writePlan(bc.PlanFile, plan); err != nil {
				return nil, err
			}
		}
		a.Summary.SetPlan(plan)
		a.DisplaySummary()
		return &RunResult{Plan: plan}, nil
	}

	report, err := c.Update(ctx)
	a.Summary.SetReport(report)
	a.DisplaySummary()
	return &RunResult{Report: report}, err
}

func (a *App[C]) writePlan(path string, plan *dag.Plan) error {
	if err := a.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating plan directory: %w", err)
	}
	f, err := a.fs.Create(path)
	if err != nil {
		return fmt.Errorf("creating plan file: %w", err)
	}
	if err := plan.WriteYAML(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// DisplaySummary prints the run summary to the configured output.
func (a *App[C]) DisplaySummary() {
	a.Summary.Display(a.output)
}

// Shutdown runs OnStop hooks and flushes telemetry within ctx, bounded by
// the graceful timeout. Use when managing your own lifecycle.
func (a *App[C]) Shutdown(ctx context.Context) error {
	return a.stop(ctx)
}

// stop runs OnStop hooks and then shuts telemetry down in reverse order,
// all within the graceful timeout.
func (a *App[C]) stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.gracefulTimeout)
	defer cancel()

	var shutdownErr error

	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("OnStop hook error", map[string]interface{}{
			"error": err.Error(),
		})
		shutdownErr = err
	}

	for i := len(a.shutdown) - 1; i >= 0; i-- {
		if err := a.shutdown[i](ctx); err != nil {
			a.Logger.Error("Telemetry shutdown error", map[string]interface{}{
				"error": err.Error(),
			})
			if shutdownErr == nil {
				shutdownErr = err
			}
		}
	}
	a.shutdown = nil

	a.Logger.Debug("Shutdown complete")
	return shutdownErr
}
