// Package config reads BranchTale settings from the environment.
// Command-line flags override these values in cmd/branchtale.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds the settings shared by every subcommand.
type Config struct {
	ContentDir string `env:"BRANCHTALE_CONTENT_DIR"`
	StartScene string `env:"BRANCHTALE_START_SCENE"`
	SaveDir    string `env:"BRANCHTALE_SAVE_DIR"`
	LogLevel   string `env:"BRANCHTALE_LOG_LEVEL" envDefault:"info"`
	Plain      bool   `env:"BRANCHTALE_PLAIN"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses Config from the environment and fills derived defaults.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.SaveDir == "" {
		cfg.SaveDir = DefaultSaveDir()
	}
	if _, err := cfg.Level(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultSaveDir returns ~/.branchtale/saves, or a relative fallback when
// the home directory cannot be determined.
func DefaultSaveDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".branchtale", "saves")
	}
	return filepath.Join(home, ".branchtale", "saves")
}

// Level parses LogLevel (debug, info, warn, error).
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("parse env: BRANCHTALE_LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

// Logger builds the text logger every subcommand writes diagnostics to.
func (c Config) Logger(w io.Writer) *slog.Logger {
	lvl, err := c.Level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
