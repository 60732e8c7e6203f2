package main

import (
	"errors"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mattjoyce/statusline/internal/config"
	"github.com/mattjoyce/statusline/internal/log"
	"github.com/mattjoyce/statusline/internal/tui"
)

// minTick keeps a zero update interval from spinning the host loop.
const minTick = 100 * time.Millisecond

func hostTick(cfg *config.Config) time.Duration {
	return max(cfg.StatusLine.UpdateInterval(), minTick)
}

func newWatchCmd(g *globalFlags) *cobra.Command {
	var s sessionFlags
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Preview the status line interactively",
		Long: "Open a live preview that re-renders the status line on every update interval.\n" +
			"Keys: t toggles task running, r toggles review mode, q quits.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			closer, err := setupLogging(cfg, filepath.Join(config.StateDir(), "watch.log"), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closer.Close()

			req, err := s.request(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
			defer stop()

			store, err := openHistory(ctx, cfg)
			if err != nil {
				log.Warn("history unavailable, continuing without it", "error", err)
			}
			if store != nil {
				defer store.Close()
			}

			mgr := newManager(ctx, cfg, store)
			if mgr == nil {
				return disabledError()
			}
			defer mgr.Close()

			p := tea.NewProgram(
				tui.New(mgr, req, hostTick(cfg)),
				tea.WithAltScreen(),
				tea.WithContext(ctx),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return err
			}
			return nil
		},
	}
	addSessionFlags(cmd, &s)
	return cmd
}
