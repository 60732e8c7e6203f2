// Package git resolves repository metadata for the status line input.
package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a branch lookup when the resolver has none configured.
const DefaultTimeout = 2 * time.Second

// Resolver looks up the checked-out branch of a working directory.
type Resolver struct {
	// Timeout bounds each git invocation. Zero means DefaultTimeout.
	Timeout time.Duration
	// GitPath overrides the git executable, mainly for tests.
	GitPath string
}

// NewResolver returns a Resolver with the given lookup timeout.
func NewResolver(timeout time.Duration) *Resolver {
	return &Resolver{Timeout: timeout}
}

// CurrentBranch returns the branch checked out in dir. It reports false
// when dir is not inside a repository, HEAD is detached, git is missing, or
// the lookup fails or times out. It never returns an error.
func (r *Resolver) CurrentBranch(ctx context.Context, dir string) (string, bool) {
	branch, err := r.currentBranch(ctx, dir)
	if err != nil || branch == "" || branch == "HEAD" {
		return "", false
	}
	return branch, true
}

func (r *Resolver) currentBranch(ctx context.Context, dir string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	gitPath := r.GitPath
	if gitPath == "" {
		gitPath = "git"
	}

	cmd := exec.CommandContext(ctx, gitPath, "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
