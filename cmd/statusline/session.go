package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/statusline/internal/statusline"
)

// sessionFlags describe the session snapshot sent to the renderer.
type sessionFlags struct {
	model          string
	provider       string
	cwd            string
	taskRunning    bool
	review         bool
	contextPercent int64
	contextTokens  int64
	tokenUsage     string
}

func addSessionFlags(cmd *cobra.Command, s *sessionFlags) {
	f := cmd.Flags()
	f.StringVar(&s.model, "model", "", "model name")
	f.StringVar(&s.provider, "provider", "", "model provider")
	f.StringVar(&s.cwd, "cwd", "", "working directory (default: current directory)")
	f.BoolVar(&s.taskRunning, "task-running", false, "report a running task")
	f.BoolVar(&s.review, "review", false, "report review mode")
	f.Int64Var(&s.contextPercent, "context-percent", 0, "context window percent remaining")
	f.Int64Var(&s.contextTokens, "context-tokens", 0, "context window tokens used")
	f.StringVar(&s.tokenUsage, "token-usage", "", "token usage as a JSON object, passed through")
}

// request builds the Request. Context figures are absent unless their
// flags were given.
func (s *sessionFlags) request(cmd *cobra.Command) (statusline.Request, error) {
	req := statusline.Request{
		Model:         s.model,
		ModelProvider: s.provider,
		Cwd:           s.cwd,
		TaskRunning:   s.taskRunning,
		ReviewMode:    s.review,
	}
	if req.Cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return req, fmt.Errorf("resolve working directory: %w", err)
		}
		req.Cwd = wd
	}
	if cmd.Flags().Changed("context-percent") {
		v := s.contextPercent
		req.ContextWindowPercent = &v
	}
	if cmd.Flags().Changed("context-tokens") {
		v := s.contextTokens
		req.ContextWindowUsedTokens = &v
	}
	if s.tokenUsage != "" {
		if !json.Valid([]byte(s.tokenUsage)) {
			return req, errors.New("--token-usage must be valid JSON")
		}
		req.TokenUsage = json.RawMessage(s.tokenUsage)
	}
	return req, nil
}
