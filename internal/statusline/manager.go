package statusline

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mattjoyce/statusline/internal/config"
	"github.com/mattjoyce/statusline/internal/git"
	"github.com/mattjoyce/statusline/internal/history"
	"github.com/mattjoyce/statusline/internal/log"
	"github.com/mattjoyce/statusline/internal/protocol"
)

// maxLoggedStderr caps the stderr excerpt included in warning logs.
const maxLoggedStderr = 4 * 1024

// recordTimeout bounds a single history write.
const recordTimeout = 2 * time.Second

// Recorder persists one row per finished attempt. Errors are logged and
// never change the attempt's outcome.
type Recorder interface {
	Record(ctx context.Context, a history.Attempt) error
}

// Manager gates render attempts and runs admitted ones in the background.
//
// MaybeRequest and MarkComplete must be called from the host loop's
// goroutine only; the gate fields are not synchronized. Attempt goroutines
// never touch them and report back only through the Sink.
type Manager struct {
	command        []string
	updateInterval time.Duration
	timeout        time.Duration

	// Gate state, owned by the host loop.
	lastStartedAt time.Time
	inFlight      bool

	branches BranchResolver
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time

	// attempt runs one admitted request; tests swap it out.
	attempt func(ctx context.Context, a attemptSpec) Outcome

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// attemptSpec is everything an attempt goroutine needs, copied at admission.
type attemptSpec struct {
	id        string
	command   []string
	timeout   time.Duration
	request   Request
	startedAt time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithBranchResolver replaces the default git resolver. Pass nil to skip
// branch lookup entirely.
func WithBranchResolver(r BranchResolver) Option {
	return func(m *Manager) { m.branches = r }
}

// WithRecorder records every finished attempt.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock sets the time source used by the gate.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithContext sets the parent context of every attempt. Cancelling it
// kills any running renderer, like Close.
func WithContext(ctx context.Context) Option {
	return func(m *Manager) {
		m.ctx, m.cancel = context.WithCancel(ctx)
	}
}

// New returns a Manager for cfg, or nil when cfg has no command. A nil
// Manager means the status line is disabled for the life of the process.
func New(cfg config.StatusLineConfig, opts ...Option) *Manager {
	if len(cfg.Command) == 0 {
		return nil
	}

	m := &Manager{
		command:        slices.Clone(cfg.Command),
		updateInterval: cfg.UpdateInterval(),
		timeout:        cfg.Timeout(),
		branches:       git.NewResolver(cfg.BranchTimeout()),
		logger:         log.WithComponent("statusline"),
		now:            time.Now,
	}
	m.attempt = m.run
	for _, opt := range opts {
		opt(m)
	}
	if m.ctx == nil {
		m.ctx, m.cancel = context.WithCancel(context.Background())
	}
	return m
}

// MaybeRequest starts an attempt for req unless one is already in flight
// or the previous attempt started less than the update interval ago.
// Skipped requests are dropped, not queued. It never blocks and reports
// whether an attempt was started; a started attempt sends exactly one
// Outcome to sink.
func (m *Manager) MaybeRequest(req Request, sink Sink) bool {
	if m.inFlight {
		m.logger.Debug("status line request skipped", "reason", "in_flight")
		return false
	}
	now := m.now()
	if !m.lastStartedAt.IsZero() && now.Sub(m.lastStartedAt) < m.updateInterval {
		m.logger.Debug("status line request skipped", "reason", "debounced")
		return false
	}

	m.inFlight = true
	m.lastStartedAt = now

	job := attemptSpec{
		id:        uuid.NewString(),
		command:   slices.Clone(m.command),
		timeout:   m.timeout,
		request:   req,
		startedAt: now,
	}
	ctx := m.ctx
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		sink.Send(m.attempt(ctx, job))
	}()
	return true
}

// MarkComplete releases the gate after the host has consumed an outcome.
// Calling it with nothing in flight is a no-op.
func (m *Manager) MarkComplete() {
	m.inFlight = false
}

// InFlight reports whether an attempt is outstanding.
func (m *Manager) InFlight() bool {
	return m.inFlight
}

// Close cancels any running attempt, killing its renderer, and waits for
// the attempt goroutine to deliver its outcome. The sink must keep
// accepting that final outcome.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()
}

// run executes one attempt: build input, encode, run the renderer.
func (m *Manager) run(ctx context.Context, a attemptSpec) Outcome {
	logger := m.logger.With("attempt_id", a.id)

	in := buildInput(ctx, m.branches, a.request)
	payload, err := protocol.EncodeInput(in)

	var res runResult
	if err != nil {
		res = runResult{failure: FailureSerialization, err: err}
	} else {
		res = runCommand(ctx, a.command, payload, a.timeout)
	}
	elapsed := m.now().Sub(a.startedAt)

	logResult(logger, a, res, elapsed)
	m.record(ctx, logger, a, payload, res, elapsed)
	return res.outcome()
}

func logResult(logger *slog.Logger, a attemptSpec, res runResult, elapsed time.Duration) {
	switch res.failure {
	case FailureNone:
		logger.Debug("status line updated", "has_line", res.line != nil, "duration_ms", elapsed.Milliseconds())
	case FailureSerialization:
		logger.Warn("status line input serialization failed", "error", res.err)
	case FailureEmptyCommand:
		logger.Warn("status line command is empty")
	case FailureSpawn:
		logger.Warn("status line command failed to spawn", "command", a.command, "error", res.err)
	case FailureStdinWrite:
		logger.Warn("status line command stdin write failed", "command", a.command, "error", res.err)
	case FailureTimeout:
		logger.Warn("status line command timed out", "command", a.command, "timeout_ms", a.timeout.Milliseconds())
	case FailureExitStatus:
		logger.Warn("status line command exited with non-zero status",
			"command", a.command,
			"exit_code", derefInt(res.exitCode),
			"stderr", truncate(res.stderr, maxLoggedStderr),
		)
	default:
		logger.Warn("status line command failed", "command", a.command, "error", res.err)
	}
}

func (m *Manager) record(ctx context.Context, logger *slog.Logger, a attemptSpec, payload []byte, res runResult, elapsed time.Duration) {
	if m.recorder == nil {
		return
	}

	attempt := history.Attempt{
		ID:          a.id,
		StartedAt:   a.startedAt,
		Duration:    elapsed,
		Status:      history.StatusUpdated,
		FailureKind: string(res.failure),
		ExitCode:    res.exitCode,
		Line:        res.line,
		Stderr:      res.stderr,
		Command:     a.command,
	}
	if res.failure != FailureNone {
		attempt.Status = history.StatusFailed
	}
	if len(payload) > 0 {
		attempt.PayloadHash = config.HashBytes(payload)
	}

	// Record even when the attempt itself was cancelled.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := m.recorder.Record(rctx, attempt); err != nil {
		logger.Warn("failed to record status line attempt", "error", err)
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func derefInt(p *int) int {
	if p == nil {
		return -1
	}
	return *p
}
