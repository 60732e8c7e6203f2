package statusline

import (
	"context"

	"github.com/mattjoyce/statusline/internal/protocol"
)

//go:generate mockgen -destination=mocks/mock_statusline.go -package=mocks github.com/mattjoyce/statusline/internal/statusline BranchResolver,Recorder

// Request is the session snapshot for one attempt. The host builds a new
// one per trigger; the attempt goroutine owns it afterwards.
type Request struct {
	Model                   string
	ModelProvider           string
	Cwd                     string
	TaskRunning             bool
	ReviewMode              bool
	ContextWindowPercent    *int64
	ContextWindowUsedTokens *int64
	// TokenUsage is forwarded to the renderer untouched, typically a
	// protocol.TokenUsageInfo. It must be JSON-encodable.
	TokenUsage any
}

// BranchResolver looks up the branch checked out in a directory.
// Failures are reported as false, never as errors.
type BranchResolver interface {
	CurrentBranch(ctx context.Context, dir string) (string, bool)
}

// buildInput merges the request with the resolved branch into the wire object.
func buildInput(ctx context.Context, branches BranchResolver, req Request) *protocol.Input {
	in := &protocol.Input{
		Model:                   req.Model,
		ModelProvider:           req.ModelProvider,
		Cwd:                     req.Cwd,
		TaskRunning:             req.TaskRunning,
		ReviewMode:              req.ReviewMode,
		ContextWindowPercent:    req.ContextWindowPercent,
		ContextWindowUsedTokens: req.ContextWindowUsedTokens,
		TokenUsage:              req.TokenUsage,
	}
	if branches != nil && req.Cwd != "" {
		if branch, ok := branches.CurrentBranch(ctx, req.Cwd); ok {
			in.GitBranch = &branch
		}
	}
	return in
}
