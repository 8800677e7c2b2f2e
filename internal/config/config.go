// ABOUTME: Registry configuration with storage backend selection.
// ABOUTME: Handles settings, cutoff overrides, and the backend factory.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/farmahosp/cmoreg/internal/kv"
	"github.com/farmahosp/cmoreg/internal/scoring"
	"github.com/farmahosp/cmoreg/internal/storage"
)

// Config stores cmoreg configuration.
type Config struct {
	// Backend selects the storage backend: "sqlite" (default) or "badger".
	Backend string `json:"backend,omitempty"`

	// DataDir is the root directory for data storage.
	// SQLite puts registry.db here. Badger puts a badger/ folder here.
	// Supports ~ expansion for home directory. Defaults to ~/.local/share/cmoreg.
	DataDir string `json:"data_dir,omitempty"`

	// Cutoffs optionally overrides the stratification score cutoffs.
	Cutoffs *CutoffConfig `json:"cutoffs,omitempty"`
}

// CutoffConfig overrides the score thresholds for priority levels.
// Scores >= Level1 map to priority 1, >= Level2 to priority 2.
type CutoffConfig struct {
	Level1 int `json:"level1"`
	Level2 int `json:"level2"`
}

// GetBackend returns the configured backend, defaulting to "sqlite".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return "sqlite"
	}
	return c.Backend
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetCutoffs returns the configured cutoffs, or the defaults.
func (c *Config) GetCutoffs() scoring.Cutoffs {
	if c.Cutoffs == nil {
		return scoring.DefaultCutoffs
	}
	return scoring.Cutoffs{Level1: c.Cutoffs.Level1, Level2: c.Cutoffs.Level2}
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage creates a Repository implementation based on the configured backend.
func (c *Config) OpenStorage() (storage.Repository, error) {
	backend := c.GetBackend()
	dataDir := c.GetDataDir()

	switch backend {
	case "sqlite":
		dbPath := filepath.Join(dataDir, "registry.db")
		return storage.Open(dbPath)
	case "badger":
		return kv.Open(kv.Dir(dataDir))
	default:
		return nil, fmt.Errorf("unknown backend: %q", backend)
	}
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "cmoreg", "config.json")
}

// Load reads config from disk.
func Load() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
