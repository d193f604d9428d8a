package process

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/forge/errors"
	"github.com/kbukum/forge/logger"
	"github.com/kbukum/forge/observability"
	"github.com/kbukum/forge/resilience"
)

// GroupConfig configures a Group.
type GroupConfig struct {
	// MaxConcurrent bounds how many commands run at once. Defaults to the
	// number of CPUs.
	MaxConcurrent int
	// Runner executes each command. Defaults to Run.
	Runner Runner
	// Logger receives spawn and failure logs.
	Logger *logger.Logger
	// Metrics records command counts and durations. May be nil.
	Metrics *observability.Metrics
}

// Group runs commands in the background with bounded concurrency.
//
// Spawn only reports whether a command was launched; exit statuses are
// collected in the background and surface through Wait. Once any command has
// failed, further Spawn calls refuse to launch and return that failure. The
// concurrency slot is taken by the caller of Spawn and released only after
// the command's outcome is recorded, so with MaxConcurrent 1 a failure is
// seen by the very next Spawn.
type Group struct {
	bulkhead *resilience.Bulkhead
	runner   Runner
	log      *logger.Logger
	metrics  *observability.Metrics

	wg      sync.WaitGroup
	spawned atomic.Int64

	mu       sync.Mutex
	outcomes []Outcome
	failures []error
}

// NewGroup creates a Group.
func NewGroup(cfg GroupConfig) *Group {
	bh := resilience.DefaultBulkheadConfig("commands")
	if cfg.MaxConcurrent > 0 {
		bh.MaxConcurrent = cfg.MaxConcurrent
	}
	runner := cfg.Runner
	if runner == nil {
		runner = RunnerFunc(Run)
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Get("process")
	}
	return &Group{
		bulkhead: resilience.NewBulkhead(bh),
		runner:   runner,
		log:      log,
		metrics:  cfg.Metrics,
	}
}

// Spawn launches cmd in the background, blocking while all slots are busy.
// It returns the first recorded failure instead of launching once any
// command has failed, or the context error if ctx ends while waiting.
func (g *Group) Spawn(ctx context.Context, cmd Command) error {
	if err := g.Err(); err != nil {
		return err
	}
	if err := g.bulkhead.Acquire(ctx); err != nil {
		return err
	}
	// A failure may have been recorded while waiting for the slot.
	if err := g.Err(); err != nil {
		g.bulkhead.Release()
		return err
	}

	g.spawned.Add(1)
	g.wg.Add(1)
	g.log.Info("spawn", logger.Fields(logger.FieldCommand, cmd.String()))

	go func() {
		defer g.wg.Done()
		defer g.bulkhead.Release()
		g.record(g.execute(ctx, cmd))
	}()
	return nil
}

func (g *Group) execute(ctx context.Context, cmd Command) Outcome {
	ctx, span := observability.StartSpan(ctx, observability.SpanCommand)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrCommand, cmd.Argv)

	g.metrics.RecordCommandStart(ctx)
	start := time.Now()
	res, err := g.runner.Run(ctx, cmd)

	out := Outcome{Command: cmd, Result: res, Status: -1}
	if res != nil {
		out.Status = res.ExitCode
	}
	status := "ok"
	if err != nil {
		status = "error"
		if !errors.IsCode(err, errors.ErrCodeCommandFailed) {
			err = errors.CommandFailed(cmd.Argv, out.Status).WithCause(err)
		}
		out.Err = err
		observability.SetSpanError(ctx, err)
		g.metrics.RecordError(ctx, string(errors.ErrCodeCommandFailed), "process")
	}
	observability.SetSpanAttribute(ctx, observability.AttrExitStatus, out.Status)
	g.metrics.RecordCommandEnd(ctx, cmd.Program(), status, time.Since(start))
	return out
}

func (g *Group) record(out Outcome) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outcomes = append(g.outcomes, out)
	if out.Err == nil {
		return
	}
	g.failures = append(g.failures, out.Err)

	fields := logger.Fields(
		logger.FieldCommand, out.Command.String(),
		logger.FieldStatus, out.Status,
		logger.FieldError, out.Err.Error(),
	)
	if out.Result != nil && len(out.Result.Stderr) > 0 {
		fields["stderr"] = string(out.Result.Stderr)
	}
	g.log.Error("command failed", fields)
}

// Wait blocks until every spawned command has finished and returns all
// failures joined, or nil.
func (g *Group) Wait() error {
	g.wg.Wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.failures...)
}

// Err returns the first recorded failure, or nil.
func (g *Group) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.failures) == 0 {
		return nil
	}
	return g.failures[0]
}

// Results returns the outcomes recorded so far in completion order.
func (g *Group) Results() []Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Outcome(nil), g.outcomes...)
}

// Spawned returns how many commands were launched.
func (g *Group) Spawned() int {
	return int(g.spawned.Load())
}
