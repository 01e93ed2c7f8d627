package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "diff", cfg.Diff.Command)
	assert.Equal(t, []string{"--show-c-function", "--unified", "--recursive", "--new-file", "--minimal"}, cfg.Diff.Flags)
	assert.Equal(t, "less", cfg.Pager.Command)
	assert.Equal(t, []string{"--RAW-CONTROL-CHARS", "--quit-if-one-screen", "--no-init", "+Gg"}, cfg.Pager.Args)
	require.NoError(t, validateConfig(cfg))
}

func TestLoadConfigFromEnv(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[diff]
command = "colordiff"

[pager]
args = ["-R"]
`)
	t.Setenv(EnvConfig, path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "colordiff", cfg.Diff.Command)
	assert.Equal(t, DefaultConfig().Diff.Flags, cfg.Diff.Flags)
	assert.Equal(t, "less", cfg.Pager.Command)
	assert.Equal(t, []string{"-R"}, cfg.Pager.Args)
}

func TestLoadConfigMissingEnvFile(t *testing.T) {
	t.Setenv(EnvConfig, filepath.Join(t.TempDir(), "nope.toml"))
	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load configuration")
}

func TestLoadConfigUserConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfig, "")
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dif"), 0o755))
	writeConfig(t, filepath.Join(dir, "dif"), "[pager]\ncommand = \"more\"\nargs = []\n")

	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "more", cfg.Pager.Command)
	assert.Empty(t, cfg.Pager.Args)
	assert.Equal(t, "diff", cfg.Diff.Command)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		want     string
	}{
		{"malformed", "[diff\ncommand = 1\n", "load configuration"},
		{"wrong type", "[diff]\ncommand = 1\n", "load configuration"},
		{"unknown field", "[diff]\ncolour = true\n", "unknown fields: diff.colour"},
		{"empty diff command", "[diff]\ncommand = \"\"\n", "diff.command must not be empty"},
		{"blank pager command", "[pager]\ncommand = \"  \"\n", "pager.command must not be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfig, writeConfig(t, t.TempDir(), tt.contents))
			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
