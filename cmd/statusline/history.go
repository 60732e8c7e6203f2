package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/mattjoyce/statusline/internal/history"
)

func newHistoryCmd(g *globalFlags) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent render attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			closer, err := setupLogging(cfg, "", cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closer.Close()

			store, err := openHistory(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("history is disabled (history.enabled: false)")
			}
			defer store.Close()

			rows, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				data, err := json.MarshalIndent(rows, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "no attempts recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistoryTable(rows))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of attempts to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}

func renderHistoryTable(rows []history.Attempt) string {
	failed := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("STARTED", "STATUS", "MS", "EXIT", "LINE / ERROR").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			if col == 1 && row >= 0 && row < len(rows) && rows[row].Status == history.StatusFailed {
				return failed.Padding(0, 1)
			}
			return cell
		})

	for _, a := range rows {
		exit := "-"
		if a.ExitCode != nil {
			exit = strconv.Itoa(*a.ExitCode)
		}
		t.Row(
			a.StartedAt.Local().Format("2006-01-02 15:04:05"),
			string(a.Status),
			strconv.FormatInt(a.Duration.Milliseconds(), 10),
			exit,
			detail(a),
		)
	}
	return t.Render()
}

// detail is the line for updates, or the failure kind and first stderr
// line for failures.
func detail(a history.Attempt) string {
	if a.Status == history.StatusUpdated {
		if a.Line == nil {
			return "(empty)"
		}
		return truncateRunes(*a.Line, 60)
	}
	msg := a.FailureKind
	if first, _, _ := strings.Cut(a.Stderr, "\n"); first != "" {
		msg += ": " + first
	}
	return truncateRunes(msg, 60)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
