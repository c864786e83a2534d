package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_Missing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, NewDefaultConfig(), cfg)
}

func TestLoad_Overrides(t *testing.T) {
	p := writeConfig(t, `
exclude: []
include: ["docs/**"]
use_gitignore: true
confirmation:
  disabled: true
  threshold: 5
log_level: debug
http:
  port: 9000
state_dir: .cache/mdlinks
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Empty(t, cfg.Exclude)
	assert.Equal(t, []string{"docs/**"}, cfg.Include)
	assert.True(t, cfg.UseGitignore)
	assert.True(t, cfg.Confirmation.Disabled)
	assert.Equal(t, 5, cfg.Confirmation.Threshold)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Address())
	assert.Equal(t, ".cache/mdlinks", cfg.StateDir)
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	p := writeConfig(t, "use_gitignore: true\n")
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"**/node_modules/**"}, cfg.Exclude)
	assert.Equal(t, 7878, cfg.HTTP.Port)
	assert.Equal(t, "127.0.0.1:7878", cfg.HTTP.Address())
	assert.Equal(t, 1, cfg.Confirmation.Threshold)
}

func TestLoad_ExpandEnv(t *testing.T) {
	t.Setenv("MDLINKS_TEST_PORT", "8181")
	p := writeConfig(t, "http:\n  port: ${MDLINKS_TEST_PORT}\n")
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.HTTP.Port)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "exclude: [unterminated\n"},
		{"port out of range", "http:\n  port: 70000\n"},
		{"negative threshold", "confirmation:\n  threshold: -1\n"},
		{"empty state dir", "state_dir: \"\"\n"},
		{"bad log level", "log_level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_BadGlob(t *testing.T) {
	_, err := Load(writeConfig(t, "exclude: [\"[oops\"]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), doublestar.ErrBadPattern.Error())
	assert.Contains(t, err.Error(), "[oops")
}

func TestConfirmation_NeedsPrompt(t *testing.T) {
	c := ConfirmationConfig{Threshold: 1}
	assert.False(t, c.NeedsPrompt(1))
	assert.True(t, c.NeedsPrompt(2))
	c.Disabled = true
	assert.False(t, c.NeedsPrompt(10))
}

func TestOptionsAndPaths(t *testing.T) {
	cfg := NewDefaultConfig()
	opts := cfg.Options("/ws")
	assert.Equal(t, "/ws", opts.WorkspacePath)
	assert.Equal(t, []string{"**/node_modules/**"}, opts.Exclude)

	assert.Equal(t, filepath.Join("/ws", ".mdlinks", "state.sqlite"), cfg.StatePath("/ws"))
	assert.Equal(t, filepath.Join("/ws", FileName), Path("/ws", ""))
	assert.Equal(t, "custom.yaml", Path("/ws", "custom.yaml"))
}
