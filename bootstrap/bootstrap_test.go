package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/kbukum/forge/build"
	"github.com/kbukum/forge/config"
	"github.com/kbukum/forge/errors"
	"github.com/kbukum/forge/files"
	"github.com/kbukum/forge/logger"
	"github.com/kbukum/forge/process"
	"github.com/kbukum/forge/rule"
)

// copier is a fake runner: "cp -o dest src" writes dest, "cp fail" exits 1.
type copier struct {
	fs  afero.Fs
	mu  sync.Mutex
	ran []string
}

func (c *copier) Run(_ context.Context, cmd process.Command) (*process.Result, error) {
	c.mu.Lock()
	c.ran = append(c.ran, cmd.String())
	c.mu.Unlock()
	if strings.Contains(cmd.String(), "fail") {
		return &process.Result{ExitCode: 1}, errors.CommandFailed(cmd.Argv, 1)
	}
	if len(cmd.Argv) >= 3 && cmd.Argv[1] == "-o" {
		return &process.Result{}, afero.WriteFile(c.fs, cmd.Argv[2], []byte("copied"), 0o644)
	}
	return &process.Result{}, nil
}

func newTestSettings() *Settings {
	return &Settings{ToolConfig: config.ToolConfig{Name: "forge-test"}}
}

func newTestApp(t *testing.T, s *Settings, opts ...Option) (*App[*Settings], *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	opts = append([]Option{WithLogger(logger.Nop()), WithOutput(out), WithSignals(false)}, opts...)
	app, err := NewApp(s, opts...)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app, out
}

// copyTarget copies src to dest through a single "copy.file" rule.
func copyTarget(t *testing.T, fs afero.Fs, src, dest string) (*build.Target, *rule.Rulebook) {
	t.Helper()
	if err := afero.WriteFile(fs, src, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := fs.Chtimes(src, old, old); err != nil {
		t.Fatal(err)
	}

	cp := rule.New("copy", "file").
		Input("source").
		Output("destination").
		ApplyFunc(func(ctx context.Context, s rule.Scope, args rule.Arguments) error {
			return s.Run(ctx, "cp", "-o", args.String("destination"), args.String("source"))
		})
	rules, err := rule.NewRulebook(cp)
	if err != nil {
		t.Fatal(err)
	}
	target := build.NewTarget("copy", func(ctx context.Context, task *build.Task) error {
		_, err := task.Invoke(ctx, "copy", rule.Arguments{
			"source":      files.Path(src),
			"destination": files.Path(dest),
		})
		return err
	})
	return target, rules
}

func TestNewApp(t *testing.T) {
	app, _ := newTestApp(t, newTestSettings())

	if app.Name != "forge-test" {
		t.Errorf("expected name 'forge-test', got %q", app.Name)
	}
	if app.Version.Version == "" {
		t.Error("expected version info")
	}
	if app.Logger == nil || app.Summary == nil {
		t.Error("expected logger and summary")
	}
	if app.Cfg.Build.MaxConcurrent <= 0 {
		t.Errorf("expected max_concurrent default, got %d", app.Cfg.Build.MaxConcurrent)
	}
	if app.Cfg.Build.Process.GracePeriod != 5*time.Second {
		t.Errorf("expected grace period default, got %v", app.Cfg.Build.Process.GracePeriod)
	}
	if app.Metrics != nil {
		t.Error("metrics should stay nil when disabled")
	}
}

func TestNewApp_InvalidSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		want   string
	}{
		{"concurrency bound", func(s *Settings) { s.Build.MaxConcurrent = 5000 }, "build.max_concurrent"},
		{"plan file without dry run", func(s *Settings) { s.Build.PlanFile = "plan.yml" }, "build.plan_file"},
		{"negative timeout", func(s *Settings) { s.Build.Process.Timeout = -time.Second }, "build.process.timeout"},
		{"bad log level", func(s *Settings) { s.Logging.Level = "loud" }, "config.logging"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSettings()
			tc.mutate(s)
			_, err := NewApp(s, WithLogger(logger.Nop()))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestTelemetryDefaults(t *testing.T) {
	var tc TelemetryConfig
	tc.Tracing.Enabled = true
	tc.ApplyDefaults("forge", "1.2.3")

	if tc.Tracing.ServiceName != "forge" || tc.Tracing.ServiceVersion != "1.2.3" {
		t.Errorf("unexpected tracing identity %+v", tc.Tracing.TracerConfig)
	}
	if tc.Tracing.Endpoint == "" || tc.Tracing.SampleRate != 1.0 {
		t.Errorf("expected exporter defaults, got %+v", tc.Tracing.TracerConfig)
	}
	if tc.Metrics.Endpoint != "" {
		t.Error("disabled metrics should keep zero values")
	}
}

func TestLoadSettings(t *testing.T) {
	fs := afero.NewMemMapFs()
	yml := "name: forge\nbuild:\n  max_concurrent: 3\n  process:\n    timeout: 1m\n"
	if err := afero.WriteFile(fs, "forge.yml", []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings("forge", config.WithFS(fs), config.WithEnviron([]string{"FORGE_BUILD_DRY_RUN=true"}))
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.Build.MaxConcurrent != 3 || s.Build.Process.Timeout != time.Minute {
		t.Errorf("unexpected build settings %+v", s.Build)
	}
	if !s.Build.DryRun {
		t.Error("expected dry_run from the environment")
	}
}

func TestRunTask_LifecycleOrder(t *testing.T) {
	app, _ := newTestApp(t, newTestSettings())

	var order []string
	record := func(name string) Hook {
		return func(context.Context) error {
			order = append(order, name)
			return nil
		}
	}
	app.OnStart(record("start"))
	app.OnConfigure(func(context.Context, *App[*Settings]) error {
		order = append(order, "configure")
		return nil
	})
	app.OnReady(record("ready"))
	app.OnStop(record("stop"))

	err := app.RunTask(context.Background(), func(context.Context) error {
		order = append(order, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask: %v", err)
	}
	want := "start,configure,ready,task,stop"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestRunTask_StartupFailure(t *testing.T) {
	app, _ := newTestApp(t, newTestSettings())

	stopped := false
	app.OnStart(func(context.Context) error { return fmt.Errorf("boom") })
	app.OnStop(func(context.Context) error {
		stopped = true
		return nil
	})

	ran := false
	err := app.RunTask(context.Background(), func(context.Context) error {
		ran = true
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "onStart hook failed") {
		t.Fatalf("expected onStart failure, got %v", err)
	}
	if ran {
		t.Error("task must not run after a failed startup")
	}
	if !stopped {
		t.Error("stop hooks should still run")
	}
}

func TestRunTask_TaskErrorWins(t *testing.T) {
	app, _ := newTestApp(t, newTestSettings())
	app.OnStop(func(context.Context) error { return fmt.Errorf("stop failed") })

	err := app.RunTask(context.Background(), func(context.Context) error {
		return fmt.Errorf("task failed")
	})
	if err == nil || err.Error() != "task failed" {
		t.Errorf("expected the task error, got %v", err)
	}
}

func TestShutdown_UsesCallerContext(t *testing.T) {
	app, _ := newTestApp(t, newTestSettings(), WithGracefulTimeout(time.Minute))

	var seen error
	var bounded bool
	app.OnStop(func(ctx context.Context) error {
		seen = ctx.Err()
		_, bounded = ctx.Deadline()
		return seen
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := app.Shutdown(ctx); err == nil {
		t.Fatal("expected the stop hook error")
	}
	if seen != context.Canceled {
		t.Errorf("expected the caller's cancellation, got %v", seen)
	}
	if !bounded {
		t.Error("expected the graceful timeout as a deadline")
	}
}

func TestBuild_Update(t *testing.T) {
	fs := afero.NewMemMapFs()
	runner := &copier{fs: fs}
	app, out := newTestApp(t, newTestSettings(), WithFS(fs), WithControllerOptions(build.WithRunner(runner)))
	target, rules := copyTarget(t, fs, "/src/a.txt", "/out/a.txt")

	var result *RunResult
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		var err error
		result, err = app.Build(ctx, func(c *build.Controller) error {
			_, err := c.AddTarget(target, nil, rules)
			return err
		})
		return err
	})
	if err != nil {
		t.Fatalf("RunTask: %v", err)
	}
	if result.Report == nil || result.Plan != nil {
		t.Fatalf("expected a report only, got %+v", result)
	}
	if result.Report.Spawned != 1 || len(runner.ran) != 1 {
		t.Errorf("expected one command, got %d (%v)", result.Report.Spawned, runner.ran)
	}
	if ok, _ := afero.Exists(fs, "/out/a.txt"); !ok {
		t.Error("expected the destination to be written")
	}
	for _, want := range []string{"forge-test", "copy", "1 spawned", "Build succeeded"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, out.String())
		}
	}
}

func TestBuild_Failure(t *testing.T) {
	fs := afero.NewMemMapFs()
	runner := &copier{fs: fs}
	app, out := newTestApp(t, newTestSettings(), WithFS(fs), WithControllerOptions(build.WithRunner(runner)))
	target, rules := copyTarget(t, fs, "/src/fail.txt", "/out/fail.txt")

	result, err := app.Build(context.Background(), func(c *build.Controller) error {
		_, err := c.AddTarget(target, nil, rules)
		return err
	})
	if !errors.IsCode(err, errors.ErrCodeCommandFailed) {
		t.Fatalf("expected COMMAND_FAILED, got %v", err)
	}
	if len(result.Report.Failed()) != 1 {
		t.Errorf("expected one failed outcome, got %+v", result.Report.Outcomes)
	}
	if !strings.Contains(out.String(), "Build failed") {
		t.Errorf("summary should report the failure:\n%s", out.String())
	}
}

func TestBuild_DryRunWritesPlan(t *testing.T) {
	fs := afero.NewMemMapFs()
	runner := &copier{fs: fs}
	s := newTestSettings()
	s.Build.DryRun = true
	s.Build.PlanFile = "/plans/copy.yml"
	app, out := newTestApp(t, s, WithFS(fs), WithControllerOptions(build.WithRunner(runner)))
	target, rules := copyTarget(t, fs, "/src/a.txt", "/out/a.txt")

	result, err := app.Build(context.Background(), func(c *build.Controller) error {
		_, err := c.AddTarget(target, nil, rules)
		return err
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.Plan == nil || result.Report != nil {
		t.Fatalf("expected a plan only, got %+v", result)
	}
	if len(runner.ran) != 0 {
		t.Errorf("dry run must not spawn commands, ran %v", runner.ran)
	}
	if ok, _ := afero.Exists(fs, "/out/a.txt"); ok {
		t.Error("dry run must not write outputs")
	}
	data, err := afero.ReadFile(fs, "/plans/copy.yml")
	if err != nil {
		t.Fatalf("reading plan: %v", err)
	}
	if !strings.Contains(string(data), "levels:") || !strings.Contains(string(data), "copy.file") {
		t.Errorf("unexpected plan:\n%s", data)
	}
	if !strings.Contains(out.String(), "to rebuild") {
		t.Errorf("summary should describe the plan:\n%s", out.String())
	}
}

func TestBuild_DefineError(t *testing.T) {
	app, _ := newTestApp(t, newTestSettings(), WithFS(afero.NewMemMapFs()))
	_, err := app.Build(context.Background(), func(c *build.Controller) error {
		_, err := c.AddTarget(&build.Target{}, nil, nil)
		return err
	})
	if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestSummary_NoTargets(t *testing.T) {
	s := NewSummary("forge", "v1.0.0")
	s.TrackSetting("tracing", "localhost:4318")
	var buf bytes.Buffer
	s.Display(&buf)
	for _, want := range []string{"forge v1.0.0", "tracing: localhost:4318", "No targets registered"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, buf.String())
		}
	}
}
