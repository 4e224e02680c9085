package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/Nomadcxx/cinesync/internal/logging"
)

// Config holds all cinesync configuration
type Config struct {
	Library  LibraryConfig  `toml:"library"`
	TMDB     TMDBConfig     `toml:"tmdb"`
	Organize OrganizeConfig `toml:"organize"`
	Watch    WatchConfig    `toml:"watch"`
	Log      logging.Config `toml:"log"`
}

// LibraryConfig defines source and destination trees
type LibraryConfig struct {
	SourceDirs []string `toml:"source_dirs"` // raw media roots to organize
	DestDir    string   `toml:"dest_dir"`    // destination root; CineSync layout lives under it
}

// TMDBConfig holds metadata provider settings
type TMDBConfig struct {
	APIKey   string `toml:"api_key"`
	Language string `toml:"language"`
}

// OrganizeConfig holds per-run pipeline behavior
type OrganizeConfig struct {
	AutoSelect  bool   `toml:"auto_select"` // pick first candidate without prompting
	Rename      bool   `toml:"rename"`      // recompute destination file names
	Collections bool   `toml:"collections"` // group movies into provider collections
	SkipExtras  bool   `toml:"skip_extras"` // drop items classified as extras
	FolderID    string `toml:"folder_id"`   // imdb, tvdb, or tmdb folder tag preference
	Workers     int    `toml:"workers"`     // 0 = number of CPUs
}

// WatchConfig holds watch-mode settings
type WatchConfig struct {
	SettleSeconds int `toml:"settle_seconds"` // wait for writes to settle before organizing
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Library: LibraryConfig{
			SourceDirs: []string{},
			DestDir:    "",
		},
		TMDB: TMDBConfig{
			APIKey:   "",
			Language: "en-US",
		},
		Organize: OrganizeConfig{
			AutoSelect:  false,
			Rename:      false,
			Collections: false,
			SkipExtras:  false,
			FolderID:    "imdb",
			Workers:     0,
		},
		Watch: WatchConfig{
			SettleSeconds: 5,
		},
		Log: logging.Config{
			Level: "info",
			File:  "",
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}

	cinesyncDir := filepath.Join(configDir, "cinesync")
	configFile := filepath.Join(cinesyncDir, "config.toml")

	return configFile, nil
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	configFile, err := ConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configFile)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// Load reads the config file, creating it with defaults if it doesn't exist
func Load() (*Config, error) {
	configFile, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	// Create config directory if needed
	if err := EnsureConfigDir(); err != nil {
		return nil, err
	}

	// If config doesn't exist, create it with defaults
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := Save(cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	// Load existing config
	var cfg Config
	if _, err := toml.DecodeFile(configFile, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// LoadFile reads a config from an explicit path (used by --config)
func LoadFile(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config to disk
func Save(cfg *Config) error {
	configFile, err := ConfigPath()
	if err != nil {
		return err
	}

	// Ensure config directory exists
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	// Open file for writing
	f, err := os.Create(configFile)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	// Encode config as TOML
	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks if the config is valid.
// Missing or inaccessible source/destination directories are the only fatal
// configuration errors; everything else degrades at run time.
func (c *Config) Validate() error {
	if len(c.Library.SourceDirs) == 0 {
		return fmt.Errorf("no source directories configured")
	}

	if c.Library.DestDir == "" {
		return fmt.Errorf("no destination directory configured")
	}

	for _, path := range c.Library.SourceDirs {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("source directory %s: %w", path, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("source directory %s is not a directory", path)
		}
	}

	info, err := os.Stat(c.Library.DestDir)
	if err != nil {
		return fmt.Errorf("destination directory %s: %w", c.Library.DestDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("destination directory %s is not a directory", c.Library.DestDir)
	}

	validFolderIDs := map[string]bool{
		"imdb": true,
		"tvdb": true,
		"tmdb": true,
		"none": true,
	}
	if !validFolderIDs[c.Organize.FolderID] {
		return fmt.Errorf("invalid folder_id: %s (must be imdb, tvdb, tmdb, or none)", c.Organize.FolderID)
	}

	return nil
}

// AddSourceDir adds a source directory
func (c *Config) AddSourceDir(path string) error {
	// Check if path exists
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	// Check if already exists
	for _, existing := range c.Library.SourceDirs {
		if existing == path {
			return fmt.Errorf("path already configured: %s", path)
		}
	}

	c.Library.SourceDirs = append(c.Library.SourceDirs, path)
	return nil
}

// RemoveSourceDir removes a source directory
func (c *Config) RemoveSourceDir(path string) error {
	for i, existing := range c.Library.SourceDirs {
		if existing == path {
			c.Library.SourceDirs = append(c.Library.SourceDirs[:i], c.Library.SourceDirs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("path not found: %s", path)
}
