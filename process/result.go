package process

import "time"

// Result holds the output and status of a completed subprocess.
type Result struct {
	// Stdout is the captured standard output.
	Stdout []byte
	// Stderr is the captured standard error.
	Stderr []byte
	// ExitCode is the process exit code. -1 if the process was killed or
	// never started.
	ExitCode int
	// Duration is how long the process ran.
	Duration time.Duration
}

// Outcome is the record a Group keeps for each spawned command.
type Outcome struct {
	Command Command
	Result  *Result
	// Status is the exit code, or -1 when no result is available.
	Status int
	Err    error
}

// Failed reports whether the command did not exit cleanly.
func (o Outcome) Failed() bool { return o.Err != nil }
