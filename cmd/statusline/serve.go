package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/statusline/internal/api"
	"github.com/mattjoyce/statusline/internal/auth"
	"github.com/mattjoyce/statusline/internal/config"
	"github.com/mattjoyce/statusline/internal/daemon"
	"github.com/mattjoyce/statusline/internal/events"
	"github.com/mattjoyce/statusline/internal/lock"
	"github.com/mattjoyce/statusline/internal/log"
)

const hubCapacity = 256

func lockPath(cfg *config.Config) string {
	dir := config.StateDir()
	if cfg.History.Path != "" {
		dir = filepath.Dir(cfg.History.Path)
	}
	return filepath.Join(dir, "statusline.lock")
}

func newServeCmd(g *globalFlags) *cobra.Command {
	var (
		s      sessionFlags
		listen string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the status line headless and serve it over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.API.Enabled = true
				cfg.API.Listen = listen
			}
			closer, err := setupLogging(cfg, "", cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closer.Close()
			logger := log.WithComponent("main")

			req, err := s.request(cmd)
			if err != nil {
				return err
			}

			pidLock, err := lock.Acquire(lockPath(cfg))
			if err != nil {
				return fmt.Errorf("another statusline daemon may be running: %w", err)
			}
			defer pidLock.Release()
			logger.Info("acquired PID lock", "path", pidLock.Path())

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, err := openHistory(ctx, cfg)
			if err != nil {
				return err
			}
			var (
				pruner   daemon.Pruner
				attempts api.AttemptLister
			)
			if store != nil {
				defer store.Close()
				pruner = store
				attempts = store
			}

			mgr := newManager(ctx, cfg, store)
			hub := events.NewHub(hubCapacity)
			d := daemon.New(daemon.Config{
				Tick:      hostTick(cfg),
				Retention: cfg.History.Retention,
			}, mgr, hub, pruner, req, log.WithComponent("daemon"))

			logger.Info("statusline starting",
				"version", currentVersionInfo().Version,
				"config", cfg.SourcePath,
				"enabled", mgr != nil,
			)

			errCh := make(chan error, 2)
			daemonDone := make(chan struct{})
			go func() {
				defer close(daemonDone)
				if err := d.Run(ctx); err != nil {
					errCh <- fmt.Errorf("daemon: %w", err)
				}
			}()

			if cfg.API.Enabled {
				tokens := make([]auth.TokenConfig, 0, len(cfg.API.Tokens))
				for _, t := range cfg.API.Tokens {
					tokens = append(tokens, auth.TokenConfig{Token: t.Token, Scopes: t.Scopes})
				}
				server := api.New(api.Config{Listen: cfg.API.Listen, Tokens: tokens}, d, d, attempts, hub, log.WithComponent("api"))
				go func() {
					if err := server.Start(ctx); err != nil {
						errCh <- fmt.Errorf("api: %w", err)
					}
				}()
			}

			// The daemon must finish before the history store closes.
			select {
			case <-ctx.Done():
				logger.Info("shutting down")
			case err = <-errCh:
			}
			stop()
			<-daemonDone
			return err
		},
	}
	addSessionFlags(cmd, &s)
	cmd.Flags().StringVar(&listen, "listen", "", "serve the API on this address (overrides api.listen and enables the API)")
	return cmd
}

