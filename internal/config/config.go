// Package config resolves where timeriffic keeps its data and loads the
// optional YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/timeriffic/timeriffic/internal/keyspace"
)

const appName = "timeriffic"

// DefaultSchemaVersion is the version stamped into new databases.
const DefaultSchemaVersion = 101

// ErrInvalidConfig is returned by Validate and Load for unusable settings.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds every setting the CLI and MCP server pass to the store.
type Config struct {
	// DBPath overrides the database location. Empty means GetDBPath().
	DBPath        string `yaml:"db_path"`
	SchemaVersion int    `yaml:"schema_version" validate:"min=1"`
	KeyShift      uint   `yaml:"key_shift" validate:"min=1,max=62"`
	Gap           int64  `yaml:"gap" validate:"min=1"`
	FailFast      bool   `yaml:"fail_fast"`
	LogLevel      string `yaml:"log_level" validate:"oneof=debug info warn error"`
	Seed          bool   `yaml:"seed"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		SchemaVersion: DefaultSchemaVersion,
		KeyShift:      keyspace.DefaultShift,
		Gap:           keyspace.DefaultGap,
		LogLevel:      "warn",
		Seed:          true,
	}
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error. An empty path means GetConfigPath().
func Load(path string) (Config, error) {
	if path == "" {
		path = GetConfigPath()
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse %s: %w", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

var configValidate = validator.New()

// Validate checks field ranges and that the key layout is usable.
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.Layout(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Layout returns the order key layout described by KeyShift and Gap.
func (c Config) Layout() (keyspace.Layout, error) {
	return keyspace.New(c.KeyShift, c.Gap)
}

// ResolvedDBPath returns DBPath or the default database location.
func (c Config) ResolvedDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return GetDBPath()
}

// GetDataDir resolves the base directory for all timeriffic storage. It
// checks TIMERIFFIC_DIR first, then XDG paths, and finally falls back to the
// user's home directory.
func GetDataDir() string {
	if explicit := os.Getenv("TIMERIFFIC_DIR"); explicit != "" {
		return explicit
	}

	xdg.Reload()

	dataHome := xdg.DataHome
	if dataHome == "" {
		home := xdg.Home
		if home == "" {
			var err error
			home, err = os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), appName)
			}
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, appName)
}

// GetDBPath returns the path of the SQLite database file.
func GetDBPath() string {
	return filepath.Join(GetDataDir(), "profiles.db")
}

// GetConfigPath returns TIMERIFFIC_CONFIG or the XDG config file location.
func GetConfigPath() string {
	if explicit := os.Getenv("TIMERIFFIC_CONFIG"); explicit != "" {
		return explicit
	}

	xdg.Reload()

	configHome := xdg.ConfigHome
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), appName, "config.yaml")
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, appName, "config.yaml")
}
