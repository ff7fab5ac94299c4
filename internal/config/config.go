// Package config handles the configuration directory, config.yaml and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "tabnotes"

	// ConfigFile is the optional YAML settings file.
	ConfigFile = "config.yaml"

	// EnvFile is the optional dotenv file read from the config directory.
	EnvFile = ".env"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename.
	TokenFile = "token.json"

	// DefaultFetchTimeout bounds page title lookups.
	DefaultFetchTimeout = 5 * time.Second
)

// Storage backends.
const (
	StorageBolt   = "bolt"
	StorageSQLite = "sqlite"
)

// Environment variables. They override .env, which overrides config.yaml.
const (
	EnvStorage      = "TABNOTES_STORAGE"
	EnvBackupTag    = "TABNOTES_BACKUP_TAG"
	EnvFetchTitles  = "TABNOTES_FETCH_TITLES"
	EnvFetchTimeout = "TABNOTES_FETCH_TIMEOUT"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Show prints the affected list after every change.
	Show bool

	// Storage selects the durable storage backend: bolt or sqlite.
	Storage string

	// BackupTag is embedded in export file names.
	BackupTag string

	// FetchTitles enables page title lookup when bookmarking a URL.
	FetchTitles bool

	// FetchTimeout bounds a single page title lookup.
	FetchTimeout time.Duration
}

// fileSettings mirrors config.yaml.
type fileSettings struct {
	Storage      string `yaml:"storage"`
	BackupTag    string `yaml:"backup_tag"`
	FetchTitles  *bool  `yaml:"fetch_titles"`
	FetchTimeout string `yaml:"fetch_timeout"`
}

// New creates a Config with the default or specified config directory and
// applies config.yaml, .env and environment overrides in that order.
// If configDir is empty, uses XDG_CONFIG_HOME/tabnotes or $HOME/.config/tabnotes.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	cfg := &Config{
		Dir:          dir,
		Storage:      StorageBolt,
		FetchTitles:  true,
		FetchTimeout: DefaultFetchTimeout,
	}
	if err := cfg.loadFile(); err != nil {
		return nil, err
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

func (c *Config) loadFile() error {
	data, err := os.ReadFile(filepath.Join(c.Dir, ConfigFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", ConfigFile, err)
	}

	var fsSettings fileSettings
	if err := yaml.Unmarshal(data, &fsSettings); err != nil {
		return fmt.Errorf("invalid %s: %w", ConfigFile, err)
	}

	if fsSettings.Storage != "" {
		c.Storage = fsSettings.Storage
	}
	if fsSettings.BackupTag != "" {
		c.BackupTag = fsSettings.BackupTag
	}
	if fsSettings.FetchTitles != nil {
		c.FetchTitles = *fsSettings.FetchTitles
	}
	if fsSettings.FetchTimeout != "" {
		d, err := time.ParseDuration(fsSettings.FetchTimeout)
		if err != nil {
			return fmt.Errorf("invalid %s: fetch_timeout: %w", ConfigFile, err)
		}
		c.FetchTimeout = d
	}
	return nil
}

func (c *Config) loadEnv() error {
	vars := make(map[string]string)

	dotenv, err := godotenv.Read(filepath.Join(c.Dir, EnvFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("invalid %s: %w", EnvFile, err)
	}
	for k, v := range dotenv {
		vars[k] = v
	}
	for _, k := range []string{EnvStorage, EnvBackupTag, EnvFetchTitles, EnvFetchTimeout} {
		if v, ok := os.LookupEnv(k); ok {
			vars[k] = v
		}
	}

	if v := strings.TrimSpace(vars[EnvStorage]); v != "" {
		c.Storage = v
	}
	if v := strings.TrimSpace(vars[EnvBackupTag]); v != "" {
		c.BackupTag = v
	}
	if v := strings.TrimSpace(vars[EnvFetchTitles]); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", EnvFetchTitles, v)
		}
		c.FetchTitles = b
	}
	if v := strings.TrimSpace(vars[EnvFetchTimeout]); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", EnvFetchTimeout, v)
		}
		c.FetchTimeout = d
	}
	return nil
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	switch c.Storage {
	case "", StorageBolt, StorageSQLite:
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage)
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("fetch timeout must not be negative: %s", c.FetchTimeout)
	}
	return nil
}

// StorageBackend returns the selected backend, defaulting to bolt.
func (c *Config) StorageBackend() string {
	if c.Storage == "" {
		return StorageBolt
	}
	return c.Storage
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
