package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrsinham/pancrascan/internal/api"
	"gopkg.in/yaml.v3"
)

// clientConfig is the optional per-user configuration file. Flags always take
// precedence over it.
type clientConfig struct {
	Server string `yaml:"server"`
}

// configPath returns the config file location under the user config dir.
func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(dir, "pancrascan", "config.yaml"), nil
}

// loadClientConfig reads the config file. A missing file yields the zero
// config; a malformed one is an error so a typo does not silently fall back
// to defaults.
func loadClientConfig(path string) (clientConfig, error) {
	var cfg clientConfig

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decoding config %s: %w", path, err)
	}
	return cfg, nil
}

// resolveServer picks the service URL: flag, then config file, then the
// built-in default.
func resolveServer(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if path, err := configPath(); err == nil {
		if cfg, err := loadClientConfig(path); err == nil && cfg.Server != "" {
			return cfg.Server
		}
	}
	return api.DefaultServerURL
}
