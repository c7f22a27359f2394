// Package config loads the user configuration from ~/.wistep/config.yaml.
// A missing file yields the defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk user configuration.
type Config struct {
	// CatalogDir holds the work-instruction YAML files.
	CatalogDir string `yaml:"catalog_dir"`

	// AutoStop guards against runaway step timers.
	AutoStop struct {
		Enabled      bool `yaml:"enabled"`
		GraceSeconds int  `yaml:"grace_seconds"`
	} `yaml:"auto_stop"`

	// PollIntervalMs is the session feed refresh interval.
	PollIntervalMs int `yaml:"poll_interval_ms"`

	// Identity of the signed-in user; managed by wistep login/logout.
	Identity struct {
		ID    string `yaml:"id"`
		Name  string `yaml:"name"`
		Admin bool   `yaml:"admin"`
	} `yaml:"identity"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	var cfg Config
	home, _ := os.UserHomeDir()
	cfg.CatalogDir = filepath.Join(home, ".wistep", "instructions")
	cfg.AutoStop.Enabled = true
	cfg.AutoStop.GraceSeconds = 300
	cfg.PollIntervalMs = 1000
	return cfg
}

// Path returns the config file location.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".wistep", "config.yaml"), nil
}

// Load reads the config file, falling back to defaults when it does not
// exist. Unset fields keep their default values.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), err
	}
	return LoadFile(path)
}

// LoadFile reads a specific config file.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("decode config: %w", err)
	}
	if cfg.PollIntervalMs <= 0 {
		cfg.PollIntervalMs = 1000
	}
	if cfg.AutoStop.GraceSeconds <= 0 {
		cfg.AutoStop.GraceSeconds = 300
	}
	return cfg, nil
}

// Save writes the config back to disk, creating the directory if needed.
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile writes the config to a specific path.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
