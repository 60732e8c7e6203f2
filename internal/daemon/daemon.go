// Package daemon runs the status line headless: a ticker drives render
// attempts and the latest line is published for API clients.
package daemon

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattjoyce/statusline/internal/events"
	"github.com/mattjoyce/statusline/internal/statusline"
)

const defaultPruneEvery = time.Hour

// Pruner drops history older than the retention window.
type Pruner interface {
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// Config controls the loop.
type Config struct {
	// Tick is how often a render is requested. The manager's gate still
	// decides whether each request runs.
	Tick time.Duration
	// Retention is passed to the Pruner; zero disables pruning.
	Retention  time.Duration
	PruneEvery time.Duration
}

// Snapshot is the published state of the status line.
type Snapshot struct {
	Enabled bool `json:"enabled"`
	// Line is the last rendered line; nil when there is nothing to show.
	Line      *string    `json:"line"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	// Stale is set when the newest attempt failed and Line is older.
	Stale    bool  `json:"stale"`
	InFlight bool  `json:"in_flight"`
	Attempts int64 `json:"attempts"`
	Failures int64 `json:"failures"`
}

// LinePayload is the data of updated and failed events.
type LinePayload struct {
	Line  *string `json:"line"`
	Stale bool    `json:"stale,omitempty"`
}

// Daemon owns the gate and is its only caller; all gate calls happen on
// the Run goroutine.
type Daemon struct {
	cfg     Config
	manager *statusline.Manager
	hub     *events.Hub
	pruner  Pruner
	logger  *slog.Logger

	mu      sync.Mutex
	session statusline.Request

	kick chan struct{}
	snap atomic.Pointer[Snapshot]
}

// New builds a Daemon. manager may be nil when the status line is
// disabled; pruner may be nil when history is off.
func New(cfg Config, manager *statusline.Manager, hub *events.Hub, pruner Pruner, session statusline.Request, logger *slog.Logger) *Daemon {
	if cfg.PruneEvery <= 0 {
		cfg.PruneEvery = defaultPruneEvery
	}
	d := &Daemon{
		cfg:     cfg,
		manager: manager,
		hub:     hub,
		pruner:  pruner,
		logger:  logger,
		session: session,
		kick:    make(chan struct{}, 1),
	}
	d.snap.Store(&Snapshot{Enabled: manager != nil})
	return d
}

// Snapshot returns the current published state.
func (d *Daemon) Snapshot() Snapshot {
	return *d.snap.Load()
}

// Session returns the session snapshot used for the next request.
func (d *Daemon) Session() statusline.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session
}

// SetSession replaces the session snapshot and asks the loop for a render.
// The gate may still drop that request.
func (d *Daemon) SetSession(req statusline.Request) {
	d.mu.Lock()
	d.session = req
	d.mu.Unlock()

	select {
	case d.kick <- struct{}{}:
	default:
	}
}

// Run drives the loop until ctx is done, then kills any running renderer.
func (d *Daemon) Run(ctx context.Context) error {
	if d.manager == nil {
		d.logger.Info("status line disabled, no command configured")
		<-ctx.Done()
		return nil
	}

	sink := statusline.NewChanSink()
	defer d.manager.Close()

	tick := time.NewTicker(d.cfg.Tick)
	defer tick.Stop()
	prune := time.NewTicker(d.cfg.PruneEvery)
	defer prune.Stop()

	d.logger.Info("status line daemon started", "tick", d.cfg.Tick.String())
	d.prune(ctx)
	d.request(sink)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("status line daemon stopping")
			return nil
		case <-tick.C:
			d.request(sink)
		case <-d.kick:
			d.request(sink)
		case o := <-sink:
			d.manager.MarkComplete()
			d.apply(o)
		case <-prune.C:
			d.prune(ctx)
		}
	}
}

func (d *Daemon) request(sink statusline.Sink) {
	if !d.manager.MaybeRequest(d.Session(), sink) {
		return
	}
	next := d.Snapshot()
	next.InFlight = true
	next.Attempts++
	d.snap.Store(&next)
	d.hub.Publish(events.TypeRequested, nil)
}

func (d *Daemon) apply(o statusline.Outcome) {
	next := d.Snapshot()
	next.InFlight = false

	switch o.Kind {
	case statusline.KindUpdated:
		now := time.Now().UTC()
		next.Line = o.Line
		next.UpdatedAt = &now
		next.Stale = false
		d.snap.Store(&next)
		d.hub.Publish(events.TypeUpdated, LinePayload{Line: o.Line})
	default:
		next.Failures++
		next.Stale = next.Line != nil
		d.snap.Store(&next)
		d.hub.Publish(events.TypeFailed, LinePayload{Line: next.Line, Stale: next.Stale})
	}
}

func (d *Daemon) prune(ctx context.Context) {
	if d.pruner == nil || d.cfg.Retention <= 0 {
		return
	}
	n, err := d.pruner.Prune(ctx, d.cfg.Retention)
	if err != nil {
		d.logger.Warn("history prune failed", "error", err)
		return
	}
	if n > 0 {
		d.logger.Debug("history pruned", "rows", n)
	}
}
