package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working and config directories.
const FileName = "pk2tool.yaml"

// Load builds the configuration: defaults, then the config file, then flags.
func Load() (*Config, error) {
	cfg := Default()

	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	return cfg, cfg.Validate()
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	candidates := []string{
		FileName,
		filepath.Join(ConfigDir(), FileName),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "PK2Tiles")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "PK2Tiles")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "pk2-tiles")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "pk2-tiles")
	}
}

// loadFromFile merges a YAML file into cfg.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func loadFromFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return cfg.Validate()
}

// Validate checks value ranges the tool cannot work with.
func (c *Config) Validate() error {
	if c.Tiles.Size <= 0 {
		return fmt.Errorf("tiles.size must be positive, got %d", c.Tiles.Size)
	}
	if c.Tiles.TransparentIndex < 0 || c.Tiles.TransparentIndex > 255 {
		return fmt.Errorf("tiles.transparent_index must be 0-255, got %d", c.Tiles.TransparentIndex)
	}
	if c.Tiles.Workers < 0 {
		return fmt.Errorf("tiles.workers must not be negative, got %d", c.Tiles.Workers)
	}
	return nil
}
