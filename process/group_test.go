package process_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/forge/errors"
	"github.com/kbukum/forge/logger"
	"github.com/kbukum/forge/process"
)

// scripted is a Runner whose exit status is taken from the command's second
// word: "cc fail" exits 1, anything else exits 0.
type scripted struct {
	mu      sync.Mutex
	ran     [][]string
	running int32
	peak    int32
	delay   time.Duration
}

func (s *scripted) Run(_ context.Context, cmd process.Command) (*process.Result, error) {
	n := atomic.AddInt32(&s.running, 1)
	defer atomic.AddInt32(&s.running, -1)
	for {
		p := atomic.LoadInt32(&s.peak)
		if n <= p || atomic.CompareAndSwapInt32(&s.peak, p, n) {
			break
		}
	}
	time.Sleep(s.delay)

	s.mu.Lock()
	s.ran = append(s.ran, cmd.Argv)
	s.mu.Unlock()

	if len(cmd.Argv) > 1 && cmd.Argv[1] == "fail" {
		return &process.Result{ExitCode: 1}, errors.CommandFailed(cmd.Argv, 1)
	}
	return &process.Result{}, nil
}

func TestGroup_RunsAllAndWaits(t *testing.T) {
	runner := &scripted{delay: 5 * time.Millisecond}
	g := process.NewGroup(process.GroupConfig{MaxConcurrent: 2, Runner: runner, Logger: logger.Nop()})

	for i := 0; i < 5; i++ {
		if err := g.Spawn(context.Background(), process.Command{Argv: []string{"cc", "ok"}}); err != nil {
			t.Fatalf("Spawn: %v", err)
		}
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if g.Spawned() != 5 || len(g.Results()) != 5 {
		t.Errorf("expected 5 spawned and 5 outcomes, got %d and %d", g.Spawned(), len(g.Results()))
	}
	if runner.peak > 2 {
		t.Errorf("expected at most 2 concurrent commands, got %d", runner.peak)
	}
}

func TestGroup_FailureStopsFurtherSpawns(t *testing.T) {
	runner := &scripted{}
	g := process.NewGroup(process.GroupConfig{MaxConcurrent: 1, Runner: runner, Logger: logger.Nop()})
	ctx := context.Background()

	if err := g.Spawn(ctx, process.Command{Argv: []string{"cc", "fail"}}); err != nil {
		t.Fatalf("first spawn should launch, got %v", err)
	}
	err := g.Spawn(ctx, process.Command{Argv: []string{"cc", "ok"}})
	if !errors.IsCode(err, errors.ErrCodeCommandFailed) {
		t.Fatalf("expected COMMAND_FAILED from second spawn, got %v", err)
	}

	if werr := g.Wait(); !errors.IsCode(werr, errors.ErrCodeCommandFailed) {
		t.Fatalf("expected COMMAND_FAILED from Wait, got %v", werr)
	}
	if g.Spawned() != 1 || len(runner.ran) != 1 {
		t.Errorf("expected exactly one launched command, got %d (ran %v)", g.Spawned(), runner.ran)
	}
	out := g.Results()[0]
	if !out.Failed() || out.Status != 1 {
		t.Errorf("unexpected outcome %+v", out)
	}
}

func TestGroup_WaitJoinsAllFailures(t *testing.T) {
	runner := &scripted{delay: 20 * time.Millisecond}
	g := process.NewGroup(process.GroupConfig{MaxConcurrent: 2, Runner: runner, Logger: logger.Nop()})

	// Both launch before either finishes.
	_ = g.Spawn(context.Background(), process.Command{Argv: []string{"a", "fail"}})
	_ = g.Spawn(context.Background(), process.Command{Argv: []string{"b", "fail"}})

	err := g.Wait()
	if !errors.IsCode(err, errors.ErrCodeCommandFailed) {
		t.Fatalf("expected COMMAND_FAILED, got %v", err)
	}
	failed := 0
	for _, o := range g.Results() {
		if o.Failed() {
			failed++
		}
	}
	if failed != 2 {
		t.Errorf("expected both failures recorded, got %d", failed)
	}
}

func TestGroup_RealProcesses(t *testing.T) {
	g := process.NewGroup(process.GroupConfig{MaxConcurrent: 1, Logger: logger.Nop()})

	if err := g.Spawn(context.Background(), process.Command{Argv: []string{"true"}}); err != nil {
		t.Fatal(err)
	}
	if err := g.Spawn(context.Background(), process.Command{Argv: []string{"sh", "-c", "exit 3"}}); err != nil {
		t.Fatal(err)
	}
	err := g.Wait()
	if !errors.IsCode(err, errors.ErrCodeCommandFailed) {
		t.Fatalf("expected COMMAND_FAILED, got %v", err)
	}
	results := g.Results()
	if len(results) != 2 || results[1].Status != 3 {
		t.Errorf("unexpected outcomes %+v", results)
	}
}

func TestGroup_SpawnHonorsContextWhileWaitingForSlot(t *testing.T) {
	runner := &scripted{delay: 200 * time.Millisecond}
	g := process.NewGroup(process.GroupConfig{MaxConcurrent: 1, Runner: runner, Logger: logger.Nop()})
	_ = g.Spawn(context.Background(), process.Command{Argv: []string{"slow", "ok"}})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := g.Spawn(ctx, process.Command{Argv: []string{"next", "ok"}}); err == nil {
		t.Fatal("expected context error while waiting for a slot")
	}
	_ = g.Wait()
	if g.Spawned() != 1 {
		t.Errorf("expected one launched command, got %d", g.Spawned())
	}
}
