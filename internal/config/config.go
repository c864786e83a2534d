// Package config loads mdlinks.yaml.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/ryotapoi/mdlinks/internal/core"
)

// FileName is the config file looked up at the workspace root.
const FileName = "mdlinks.yaml"

// EnvConfig overrides the config file location.
const EnvConfig = "MDLINKS_CONFIG"

// Config represents the mdlinks.yaml configuration file.
type Config struct {
	Exclude      []string           `yaml:"exclude"`
	Include      []string           `yaml:"include"`
	UseGitignore bool               `yaml:"use_gitignore"`
	Confirmation ConfirmationConfig `yaml:"confirmation"`
	LogLevel     slog.Level         `yaml:"log_level"`
	HTTP         HTTPConfig         `yaml:"http"`
	StateDir     string             `yaml:"state_dir"`
}

// ConfirmationConfig controls the prompt shown before edits are applied.
type ConfirmationConfig struct {
	Disabled bool `yaml:"disabled"`
	// Threshold is the number of edits above which the prompt is shown.
	Threshold int `yaml:"threshold"`
}

// NeedsPrompt reports whether applying n edits requires confirmation.
func (c ConfirmationConfig) NeedsPrompt(n int) bool {
	return !c.Disabled && n > c.Threshold
}

// Validate validates the confirmation configuration.
func (c *ConfirmationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Threshold, validation.Min(0)),
	)
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns the loopback HTTP listen address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf("127.0.0.1:%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Exclude, validation.Each(validation.By(globPattern))),
		validation.Field(&c.Include, validation.Each(validation.By(globPattern))),
		validation.Field(&c.StateDir, validation.Required),
	); err != nil {
		return err
	}
	if err := c.Confirmation.Validate(); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

func globPattern(value any) error {
	s, _ := value.(string)
	return core.ValidatePatterns([]string{s})
}

// Options returns the core filter options for a workspace rooted at root.
func (c *Config) Options(root string) core.Options {
	return core.Options{
		Exclude:       c.Exclude,
		Include:       c.Include,
		WorkspacePath: filepath.ToSlash(root),
	}
}

// StatePath returns the SQLite state file for a workspace rooted at root.
func (c *Config) StatePath(root string) string {
	if filepath.IsAbs(c.StateDir) {
		return filepath.Join(c.StateDir, "state.sqlite")
	}
	return filepath.Join(root, c.StateDir, "state.sqlite")
}

// NewDefaultConfig returns a new Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Exclude: []string{"**/node_modules/**"},
		Confirmation: ConfirmationConfig{
			Threshold: 1,
		},
		LogLevel: slog.LevelInfo,
		HTTP: HTTPConfig{
			Port: 7878,
		},
		StateDir: ".mdlinks",
	}
}

// Path returns the config file to read: explicit when set, otherwise
// mdlinks.yaml at root.
func Path(root, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return filepath.Join(root, FileName)
}

// Load reads the config file at path on top of the defaults, expanding
// environment variables first. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}
