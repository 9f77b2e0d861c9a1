// Package config persists CLI settings as TOML under the sens config
// directory (~/.sens/config.toml by default).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the persisted CLI settings. Zero values mean "use the SDK
// default" and are omitted from the file.
type Config struct {
	// APIKey is the Sens Prism API key (format: sens_sk_...).
	APIKey string `toml:"api_key,omitempty"`

	// BaseURL overrides the production API endpoint.
	BaseURL string `toml:"base_url,omitempty"`

	// TimeoutSeconds overrides the 30s per-request timeout.
	TimeoutSeconds int `toml:"timeout_seconds,omitempty"`
}

// Store reads and writes a Config file.
type Store struct {
	filePath string
}

// NewStore creates a config store rooted at configDir.
// If configDir is empty, defaults to ~/.sens.
func NewStore(configDir string) (*Store, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		configDir = filepath.Join(home, ".sens")
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	return &Store{filePath: filepath.Join(configDir, "config.toml")}, nil
}

// Load reads the config file. A missing file yields an empty Config.
func (s *Store) Load() (Config, error) {
	var cfg Config

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", s.filePath, err)
	}
	return cfg, nil
}

// Save writes the config file with restricted permissions; it holds the
// API key.
func (s *Store) Save(cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(s.filePath, data, 0o600)
}

// Path returns the configuration file path.
func (s *Store) Path() string {
	return s.filePath
}
