package statusline

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	// maxStdoutBytes caps captured renderer stdout; only the first line matters.
	maxStdoutBytes = 64 * 1024

	// maxStderrBytes caps captured renderer stderr.
	maxStderrBytes = 64 * 1024

	// pipeDrainDelay bounds how long Wait keeps copying output after the
	// renderer exits while a leftover child still holds its pipes.
	pipeDrainDelay = 500 * time.Millisecond
)

// FailureKind names why an attempt failed. It is logged and recorded in
// history but never exposed through Outcome.
type FailureKind string

const (
	FailureNone          FailureKind = ""
	FailureEmptyCommand  FailureKind = "empty_command"
	FailureSerialization FailureKind = "serialization"
	FailureSpawn         FailureKind = "spawn"
	FailureStdinWrite    FailureKind = "stdin_write"
	FailureTimeout       FailureKind = "timeout"
	FailureExitStatus    FailureKind = "exit_status"
	FailureWait          FailureKind = "wait"
)

// runResult is the detailed result of running the renderer once.
type runResult struct {
	failure  FailureKind
	line     *string
	err      error
	stderr   string
	exitCode *int
}

func (r runResult) outcome() Outcome {
	if r.failure != FailureNone {
		return Failed()
	}
	return Updated(r.line)
}

// renderer owns the child process for one attempt. release kills the
// process group and reaps the child unless it has already been reaped, so
// deferring it covers every return path including cancellation.
type renderer struct {
	cmd    *exec.Cmd
	done   chan error
	reaped bool
}

func (r *renderer) wait() <-chan error {
	if r.done == nil {
		r.done = make(chan error, 1)
		go func() { r.done <- r.cmd.Wait() }()
	}
	return r.done
}

func (r *renderer) release() {
	if r.reaped {
		return
	}
	_ = killProcessGroup(r.cmd)
	<-r.wait()
	r.reaped = true
}

// runCommand spawns argv, writes payload to its stdin, and waits up to
// timeout for it to exit. The timeout starts once the payload is written.
func runCommand(ctx context.Context, argv []string, payload []byte, timeout time.Duration) runResult {
	if len(argv) == 0 {
		return runResult{failure: FailureEmptyCommand, err: errors.New("status line command is empty")}
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	configureProcess(cmd)
	cmd.WaitDelay = pipeDrainDelay

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return runResult{failure: FailureSpawn, err: fmt.Errorf("create stdin pipe: %w", err)}
	}
	stdout := newCappedBuffer(maxStdoutBytes)
	stderr := newCappedBuffer(maxStderrBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return runResult{failure: FailureSpawn, err: err}
	}
	proc := &renderer{cmd: cmd}
	defer proc.release()

	if _, err := stdin.Write(payload); err != nil {
		_ = stdin.Close()
		return runResult{failure: FailureStdinWrite, err: err}
	}
	_ = stdin.Close()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-proc.wait():
		proc.reaped = true
		if ctx.Err() != nil {
			// Killed by cancellation, not a renderer failure.
			return runResult{failure: FailureWait, err: ctx.Err()}
		}
		// Take down anything the renderer left running in its group.
		_ = killProcessGroup(cmd)
		return exitResult(err, stdout, stderr)

	case <-timer.C:
		proc.release()
		return runResult{
			failure: FailureTimeout,
			err:     fmt.Errorf("timed out after %dms", timeout.Milliseconds()),
			stderr:  trimStderr(stderr.String()),
		}

	case <-ctx.Done():
		// exec.CommandContext has already signalled the process group.
		proc.release()
		return runResult{failure: FailureWait, err: ctx.Err()}
	}
}

// exitResult maps the Wait error of a finished renderer to a runResult.
func exitResult(err error, stdout, stderr *cappedBuffer) runResult {
	if err != nil && !errors.Is(err, exec.ErrWaitDelay) {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			return runResult{
				failure:  FailureExitStatus,
				err:      err,
				stderr:   trimStderr(stderr.String()),
				exitCode: &code,
			}
		}
		return runResult{failure: FailureWait, err: err}
	}

	code := 0
	return runResult{line: firstLine(stdout.Bytes()), exitCode: &code}
}

func trimStderr(s string) string {
	return strings.TrimSpace(strings.ToValidUTF8(s, "\uFFFD"))
}
