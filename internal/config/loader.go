package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every env override, e.g. COFFEEBOT_SLACK_BOT_TOKEN.
const EnvPrefix = "COFFEEBOT_"

// ConfigPath returns the default config file path.
func ConfigPath() string {
	return filepath.Join(homeDir(), ".coffeebot", "config.json")
}

// DataDir returns the coffeebot data directory.
func DataDir() string {
	dir := filepath.Join(homeDir(), ".coffeebot")
	os.MkdirAll(dir, 0o755)
	return dir
}

// Load reads configuration from the default path.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads configuration from a specific path. A missing file is not an
// error; defaults plus env overrides still apply. Env vars win over the file
// so secrets can be kept out of it.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	} else {
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
		if unknown := CheckUnknownFields(raw); len(unknown) > 0 {
			return cfg, fmt.Errorf("unknown config keys: %v", unknown)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return cfg, fmt.Errorf("apply config: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env overrides: %w", err)
	}

	applyZeroDefaults(cfg)
	return cfg, nil
}

// Save writes configuration to the default path.
func Save(cfg *Config) error {
	return SaveTo(cfg, ConfigPath())
}

// SaveTo writes configuration to a specific path.
func SaveTo(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}

// applyZeroDefaults restores defaults for values an explicit zero would
// make unusable.
func applyZeroDefaults(cfg *Config) {
	if cfg.Bot.ReadDelayS == 0 {
		cfg.Bot.ReadDelayS = 3
	}
	if cfg.Bot.ReconnectDelayS == 0 {
		cfg.Bot.ReconnectDelayS = 5
	}
	if cfg.Monitor.TimeoutS == 0 {
		cfg.Monitor.TimeoutS = 30
	}
	if cfg.Watch.IntervalS == 0 {
		cfg.Watch.IntervalS = 300
	}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp"
	}
	return home
}
