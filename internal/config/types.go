package config

import "time"

// Config represents the complete statusline configuration.
type Config struct {
	StatusLine StatusLineConfig `yaml:"status_line"`
	Log        LogConfig        `yaml:"log"`
	History    HistoryConfig    `yaml:"history"`
	API        APIConfig        `yaml:"api,omitempty"`

	// SourcePath is the file the config was loaded from, empty for defaults.
	SourcePath string `yaml:"-"`
}

// StatusLineConfig configures the external renderer.
type StatusLineConfig struct {
	// Command is the renderer argv. Empty disables the feature.
	Command          []string `yaml:"command"`
	UpdateIntervalMs int64    `yaml:"update_interval_ms"`
	TimeoutMs        int64    `yaml:"timeout_ms"`
	BranchTimeoutMs  int64    `yaml:"branch_timeout_ms,omitempty"`
}

// UpdateInterval is the minimum spacing between attempt starts.
func (s StatusLineConfig) UpdateInterval() time.Duration {
	return time.Duration(s.UpdateIntervalMs) * time.Millisecond
}

// Timeout bounds the wait for the renderer to exit.
func (s StatusLineConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// BranchTimeout bounds the git branch lookup.
func (s StatusLineConfig) BranchTimeout() time.Duration {
	return time.Duration(s.BranchTimeoutMs) * time.Millisecond
}

// Enabled reports whether a renderer command is configured.
func (s StatusLineConfig) Enabled() bool {
	return len(s.Command) > 0
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

// HistoryConfig defines the attempt history store.
type HistoryConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Path      string        `yaml:"path"`
	Retention time.Duration `yaml:"retention"`
}

// APIConfig defines HTTP API server settings.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	// Tokens enables bearer auth on /v1 routes when non-empty.
	Tokens []APIToken `yaml:"tokens,omitempty"`
}

// APIToken is a bearer token with its scopes. Use ${VAR} to keep the
// secret out of the file.
type APIToken struct {
	Token  string   `yaml:"token"`
	Scopes []string `yaml:"scopes"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		StatusLine: StatusLineConfig{
			UpdateIntervalMs: 300,
			TimeoutMs:        1000,
			BranchTimeoutMs:  2000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		History: HistoryConfig{
			Enabled:   true,
			Path:      defaultStatePath("history.db"),
			Retention: 7 * 24 * time.Hour,
		},
		API: APIConfig{
			Enabled: false,
			Listen:  "127.0.0.1:7878",
		},
	}
}
