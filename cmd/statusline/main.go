package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// Exit codes beyond the generic 1.
const (
	exitFailed   = 1
	exitDisabled = 2
)

// exitError carries a process exit code. An empty msg prints nothing.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	os.Exit(runCLI(os.Args[1:], os.Stdout, os.Stderr))
}

func runCLI(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return 0
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.msg != "" {
			fmt.Fprintln(stderr, ee.msg)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "statusline",
		Short:         "Render a terminal status line with an external command",
		Long:          "statusline runs a user-configured renderer with the session context on stdin\nand shows the first line it prints.",
		Version:       currentVersionInfo().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&g.configPath, "config", "", "path to config file or directory (default: discovered)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override log.level (debug|info|warn|error)")

	root.AddCommand(
		newRenderCmd(g),
		newWatchCmd(g),
		newServeCmd(g),
		newHistoryCmd(g),
		newConfigCmd(g),
		newVersionCmd(),
	)
	return root
}
