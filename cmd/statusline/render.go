package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/statusline/internal/log"
	"github.com/mattjoyce/statusline/internal/statusline"
)

func newRenderCmd(g *globalFlags) *cobra.Command {
	var (
		s       sessionFlags
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Run the renderer once and print its line",
		Long: "Run one render attempt and print the resulting line.\n" +
			"Exits 1 when the attempt fails and 2 when no renderer is configured.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			closer, err := setupLogging(cfg, "", cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closer.Close()

			req, err := s.request(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
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

			sink := statusline.NewChanSink()
			mgr.MaybeRequest(req, sink)
			o := <-sink
			mgr.MarkComplete()

			out := cmd.OutOrStdout()
			if jsonOut {
				data, err := json.Marshal(struct {
					Kind string  `json:"kind"`
					Line *string `json:"line"`
				}{Kind: o.Kind.String(), Line: o.Line})
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			} else if o.Line != nil {
				fmt.Fprintln(out, *o.Line)
			}

			if o.Kind == statusline.KindFailed {
				return &exitError{code: exitFailed}
			}
			return nil
		},
	}
	addSessionFlags(cmd, &s)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the outcome as JSON")
	return cmd
}
