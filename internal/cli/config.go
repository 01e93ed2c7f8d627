package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// EnvConfig names the environment variable that points at the config file.
const EnvConfig = "DIF_CONFIG"

// Config selects the diff and pager programs dif runs.
//
// Example config.toml:
//
//	[diff]
//	command = "diff"
//	flags = ["--show-c-function", "--unified", "--recursive", "--new-file", "--minimal"]
//
//	[pager]
//	command = "less"
//	args = ["--RAW-CONTROL-CHARS", "--quit-if-one-screen", "--no-init", "+Gg"]
type Config struct {
	Diff  DiffConfig  `toml:"diff"`
	Pager PagerConfig `toml:"pager"`
}

// DiffConfig is the diff producer. The user's arguments are appended after Flags.
type DiffConfig struct {
	Command string   `toml:"command"`
	Flags   []string `toml:"flags"`
}

// PagerConfig is the pager that receives colorized output when stdout is a terminal.
type PagerConfig struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() Config {
	return Config{
		Diff: DiffConfig{
			Command: "diff",
			Flags:   []string{"--show-c-function", "--unified", "--recursive", "--new-file", "--minimal"},
		},
		Pager: PagerConfig{
			Command: "less",
			// +Gg reads to the end, then returns to the top.
			Args: []string{"--RAW-CONTROL-CHARS", "--quit-if-one-screen", "--no-init", "+Gg"},
		},
	}
}

// LoadConfig loads the file named by $DIF_CONFIG or, if unset, config.toml in the user's config directory (ex: ~/.config/dif/config.toml). Values missing from the
// file keep their defaults. A missing default file is not an error; a missing $DIF_CONFIG file is.
func LoadConfig() (Config, error) {
	if path := strings.TrimSpace(os.Getenv(EnvConfig)); path != "" {
		return loadConfigFile(path, true)
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		// Ex: neither $XDG_CONFIG_HOME nor $HOME is set.
		return DefaultConfig(), nil
	}
	return loadConfigFile(filepath.Join(dir, "dif", "config.toml"), false)
}

func loadConfigFile(path string, required bool) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("load configuration: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) {
			var keys []string
			for _, de := range strictErr.Errors {
				keys = append(keys, strings.Join(de.Key(), "."))
			}
			return Config{}, fmt.Errorf("load configuration %s: unknown fields: %s", path, strings.Join(keys, ", "))
		}
		return Config{}, fmt.Errorf("load configuration %s: %w", path, err)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Diff.Command) == "" {
		return errors.New("invalid configuration: diff.command must not be empty")
	}
	if strings.TrimSpace(cfg.Pager.Command) == "" {
		return errors.New("invalid configuration: pager.command must not be empty")
	}
	return nil
}
