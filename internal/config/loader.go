package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Environment variables that override the renderer settings.
const (
	EnvConfigPath     = "STATUSLINE_CONFIG"
	EnvCommand        = "STATUSLINE_COMMAND"
	EnvUpdateInterval = "STATUSLINE_UPDATE_INTERVAL_MS"
	EnvTimeout        = "STATUSLINE_TIMEOUT_MS"
)

// ErrNoConfig is returned by Discover when no config file exists in any
// of the standard locations.
var ErrNoConfig = errors.New("no config file found")

// Load reads configuration from configPath, or from the first discovered
// location when configPath is empty. When nothing is found, defaults are
// used. Environment overrides are applied last in both cases.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		found, err := Discover()
		switch {
		case errors.Is(err, ErrNoConfig):
			cfg := Defaults()
			if err := finalize(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		case err != nil:
			return nil, err
		}
		configPath = found
	}

	return load(configPath, true)
}

// LoadUnverified is Load for an explicit path without the checksum check,
// for resealing a config that was edited on purpose.
func LoadUnverified(configPath string) (*Config, error) {
	return load(configPath, false)
}

func load(configPath string, verify bool) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}
	if info.IsDir() {
		absPath = filepath.Join(absPath, "config.yaml")
		if _, err := os.Stat(absPath); err != nil {
			return nil, fmt.Errorf("directory provided but config.yaml not found: %s", absPath)
		}
	}

	if verify {
		if err := verifyConfigHash(absPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", absPath, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(interpolateEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", absPath, err)
	}
	cfg.SourcePath = absPath

	if err := finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Discover finds the config file by checking standard locations.
// Priority order: $STATUSLINE_CONFIG, $XDG_CONFIG_HOME/statusline, ~/.config/statusline.
func Discover() (string, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		return "", fmt.Errorf("$%s points to missing file: %s", EnvConfigPath, path)
	}

	var candidates []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, "statusline", "config.yaml"))
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, ".config", "statusline", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrNoConfig
}

func finalize(cfg *Config) error {
	if err := applyEnvOverrides(cfg); err != nil {
		return err
	}
	cfg.History.Path = expandHome(cfg.History.Path)
	cfg.Log.File = expandHome(cfg.Log.File)
	if err := validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies STATUSLINE_* variables on top of the file config.
// An explicitly empty STATUSLINE_COMMAND disables the renderer.
func applyEnvOverrides(cfg *Config) error {
	if raw, ok := os.LookupEnv(EnvCommand); ok {
		argv, err := SplitCommand(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCommand, err)
		}
		cfg.StatusLine.Command = argv
	}

	if raw := os.Getenv(EnvUpdateInterval); raw != "" {
		ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return fmt.Errorf("%s must be an integer (got %q)", EnvUpdateInterval, raw)
		}
		cfg.StatusLine.UpdateIntervalMs = ms
	}

	if raw := os.Getenv(EnvTimeout); raw != "" {
		ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return fmt.Errorf("%s must be an integer (got %q)", EnvTimeout, raw)
		}
		cfg.StatusLine.TimeoutMs = ms
	}
	return nil
}

// interpolateEnv replaces ${VAR} placeholders with environment values.
// Unknown variables are left in place.
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	sl := cfg.StatusLine
	if sl.UpdateIntervalMs < 0 {
		return fmt.Errorf("status_line.update_interval_ms must not be negative")
	}
	if sl.BranchTimeoutMs < 0 {
		return fmt.Errorf("status_line.branch_timeout_ms must not be negative")
	}
	if sl.Enabled() {
		if sl.TimeoutMs <= 0 {
			return fmt.Errorf("status_line.timeout_ms must be positive when a command is set")
		}
		if strings.TrimSpace(sl.Command[0]) == "" {
			return fmt.Errorf("status_line.command[0] must name an executable")
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error (got %q)", cfg.Log.Level)
	}
	if f := strings.ToLower(cfg.Log.Format); f != "json" && f != "text" {
		return fmt.Errorf("log.format must be json or text (got %q)", cfg.Log.Format)
	}

	if cfg.History.Enabled && cfg.History.Path == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}
	if cfg.History.Retention < 0 {
		return fmt.Errorf("history.retention must not be negative")
	}

	if cfg.API.Enabled && cfg.API.Listen == "" {
		return fmt.Errorf("api.listen is required when api is enabled")
	}
	for i, tok := range cfg.API.Tokens {
		if strings.TrimSpace(tok.Token) == "" {
			return fmt.Errorf("api.tokens[%d].token is empty", i)
		}
		if len(tok.Scopes) == 0 {
			return fmt.Errorf("api.tokens[%d].scopes must not be empty", i)
		}
	}
	return nil
}

// StateDir returns the directory used for runtime state (history, locks, logs).
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "statusline")
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state", "statusline")
	}
	return filepath.Join(os.TempDir(), "statusline")
}

func defaultStatePath(name string) string {
	return filepath.Join(StateDir(), name)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}
