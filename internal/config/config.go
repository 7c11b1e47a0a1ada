// Package config loads driftline's user configuration from a TOML file with defaults and environment overrides.
//
// The file lives at ~/.config/driftline/config.toml by default; a different path may be given explicitly
// (ex: via the --config flag). A missing file is not an error: defaults apply. A present but unparsable
// file is an error, as is a config that fails validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/driftline/driftline/internal/worddiff"
)

// Config holds all user-tunable settings.
type Config struct {
	GitBin      string `toml:"git_bin"`      // Git executable to invoke. Default "git" (resolved via PATH).
	DiffContext int    `toml:"diff_context"` // Context lines around each hunk. Default 3.
	Granularity string `toml:"granularity"`  // Intra-line diff granularity: "words" or "runs". Default "words".
	MaxLineLen  int    `toml:"max_line_len"` // Lines longer than this are not word-diffed. Default 4096.
	Theme       string `toml:"theme"`        // Color theme: "dark" or "light". Default "dark".
	Syntax      bool   `toml:"syntax"`       // Syntax-highlight diff content. Default true.
	LogFile     string `toml:"log_file"`     // Debug log destination. Empty disables logging.
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		GitBin:      "git",
		DiffContext: 3,
		Granularity: "words",
		MaxLineLen:  4096,
		Theme:       "dark",
		Syntax:      true,
	}
}

// DefaultPath returns the default config file location for the current user.
func DefaultPath() string {
	return InUserConfigDirectory("driftline/config.toml")
}

// WordGranularity maps the validated Granularity setting to its worddiff value.
func (c *Config) WordGranularity() worddiff.Granularity {
	if strings.EqualFold(c.Granularity, "runs") {
		return worddiff.GranularityRuns
	}
	return worddiff.GranularityWords
}

// Load reads the config at path, layering it over Default and then applying environment overrides.
// An empty path means DefaultPath. A missing file contributes nothing; a malformed or invalid one
// is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()

	data, err := os.ReadFile(ExpandPath(path))
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// No config file; defaults apply.
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// applyEnv applies environment variable overrides. Recognized variables:
//   - DRIFTLINE_GIT_BIN overrides git_bin
//   - DRIFTLINE_LOG_FILE overrides log_file
func (c *Config) applyEnv() {
	if v := os.Getenv("DRIFTLINE_GIT_BIN"); v != "" {
		c.GitBin = v
	}
	if v := os.Getenv("DRIFTLINE_LOG_FILE"); v != "" {
		c.LogFile = v
	}
}

func (c *Config) validate() error {
	if c.GitBin == "" {
		return fmt.Errorf("git_bin must not be empty")
	}
	if c.DiffContext < 0 {
		return fmt.Errorf("diff_context must be >= 0, got %d", c.DiffContext)
	}
	if c.MaxLineLen < 1 {
		return fmt.Errorf("max_line_len must be >= 1, got %d", c.MaxLineLen)
	}
	switch strings.ToLower(c.Granularity) {
	case "words", "runs":
	default:
		return fmt.Errorf("granularity must be \"words\" or \"runs\", got %q", c.Granularity)
	}
	switch strings.ToLower(c.Theme) {
	case "dark", "light":
	default:
		return fmt.Errorf("theme must be \"dark\" or \"light\", got %q", c.Theme)
	}
	return nil
}
