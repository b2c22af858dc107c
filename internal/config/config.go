// Package config resolves sillage settings: built-in defaults, then the TOML
// file, then SILLAGE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	EnvConfig         = "SILLAGE_CONFIG"
	EnvDBPath         = "SILLAGE_DB_PATH"
	EnvOwner          = "SILLAGE_OWNER"
	EnvLogFile        = "SILLAGE_LOG_FILE"
	EnvLogLevel       = "SILLAGE_LOG_LEVEL"
	EnvDefaultDiluent = "SILLAGE_DEFAULT_DILUENT"
	EnvLogStderr      = "SILLAGE_LOG"
)

type Config struct {
	DBPath         string `toml:"db_path"`
	Owner          string `toml:"owner"`
	LogFile        string `toml:"log_file,omitempty"`
	LogLevel       string `toml:"log_level"`
	DefaultDiluent string `toml:"default_diluent"`
}

// Dir is the directory holding the default database and config file.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".sillage"), nil
}

// DefaultPath returns $SILLAGE_CONFIG or ~/.sillage/config.toml.
func DefaultPath() (string, error) {
	if v := os.Getenv(EnvConfig); v != "" {
		return v, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Default returns the settings used when nothing is configured.
func Default() (Config, error) {
	dir, err := Dir()
	if err != nil {
		return Config{}, err
	}
	owner := os.Getenv("USER")
	if owner == "" {
		owner = "local"
	}
	return Config{
		DBPath:         filepath.Join(dir, "sillage.db"),
		Owner:          owner,
		LogLevel:       "info",
		DefaultDiluent: "Solvent",
	}, nil
}

// Load reads path on top of the defaults and applies environment overrides.
// A missing file is not an error. Unknown keys are, so typos surface early.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return Config{}, err
	}

	if _, statErr := os.Stat(path); statErr == nil {
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return Config{}, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return Config{}, fmt.Errorf("reading config %s: %w", path, statErr)
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvOwner); v != "" {
		cfg.Owner = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvDefaultDiluent); v != "" {
		cfg.DefaultDiluent = v
	}
}

// Validate checks values that cannot be fixed up silently.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("db_path must not be empty")
	}
	if strings.TrimSpace(c.Owner) == "" {
		return errors.New("owner must not be empty")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Save writes cfg as TOML, creating the parent directory if needed.
func Save(path string, cfg Config) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log_level %q: expected debug, info, warn or error", s)
	}
	return lvl, nil
}
