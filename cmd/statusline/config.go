package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mattjoyce/statusline/internal/config"
)

const redacted = "********"

func newConfigCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and seal the configuration",
	}
	cmd.AddCommand(newConfigShowCmd(g), newConfigCheckCmd(g), newConfigHashCmd(g))
	return cmd
}

func newConfigShowCmd(g *globalFlags) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with tokens redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			shown := redactTokens(cfg)

			out := cmd.OutOrStdout()
			if jsonOut {
				data, err := json.MarshalIndent(shown, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}
			data, err := yaml.Marshal(shown)
			if err != nil {
				return err
			}
			fmt.Fprint(out, string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}

func redactTokens(cfg *config.Config) config.Config {
	shown := *cfg
	shown.API.Tokens = make([]config.APIToken, len(cfg.API.Tokens))
	for i, t := range cfg.API.Tokens {
		shown.API.Tokens[i] = config.APIToken{Token: redacted, Scopes: t.Scopes}
	}
	return shown
}

func newConfigCheckCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and its checksums",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return &exitError{code: 1, msg: fmt.Sprintf("config invalid: %v", err)}
			}

			out := cmd.OutOrStdout()
			source := cfg.SourcePath
			if source == "" {
				source = "(defaults, no config file found)"
			}
			fmt.Fprintf(out, "config: %s\n", source)
			if cfg.StatusLine.Enabled() {
				fmt.Fprintf(out, "status line: enabled (%s)\n", cfg.StatusLine.Command[0])
			} else {
				fmt.Fprintln(out, "status line: disabled")
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
}

func newConfigHashCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "hash",
		Short: "Record BLAKE3 checksums so later edits are detected",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := g.configPath
			if path == "" {
				found, err := config.Discover()
				if errors.Is(err, config.ErrNoConfig) {
					return errors.New("no config file to hash; pass --config")
				}
				if err != nil {
					return err
				}
				path = found
			}

			// Validate before sealing. This also resolves a directory path.
			cfg, err := config.LoadUnverified(path)
			if err != nil {
				return fmt.Errorf("refusing to hash an invalid config: %w", err)
			}
			path = cfg.SourcePath

			manifest, err := config.WriteChecksums(path)
			if err != nil {
				return fmt.Errorf("write checksums: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d checksum(s) to %s\n",
				len(manifest.Hashes), filepath.Join(filepath.Dir(path), config.ChecksumFile))
			return nil
		},
	}
}
