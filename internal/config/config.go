package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the configuration
const EnvPrefix = "PREUPG"

// Config holds all configuration for preupg-results
type Config struct {
	// Storage configuration
	StorageDir   string `mapstructure:"storage_dir"`
	StorageCodec string `mapstructure:"storage_codec"`

	// Output format (text, json, both)
	Format string `mapstructure:"format"`

	// Handling of leaves with unknown states (reject, quarantine)
	UnknownStatePolicy string `mapstructure:"unknown_state_policy"`

	// Number of last results to analyze
	LastRuns int `mapstructure:"last_runs"`

	// Worker pool size for imports
	MaxConcurrency int `mapstructure:"max_concurrency"`

	// Verbose output
	Verbose bool `mapstructure:"verbose"`

	// Debug mode
	Debug bool `mapstructure:"debug"`

	Logging LoggingConfig `mapstructure:"logging"`
}

// LoggingConfig configures the logrus logger
type LoggingConfig struct {
	Level        string `mapstructure:"level"`
	Format       string `mapstructure:"format"`
	Output       string `mapstructure:"output"`
	FileRotation bool   `mapstructure:"file_rotation"`
	MaxSize      int    `mapstructure:"max_size"`
	MaxBackups   int    `mapstructure:"max_backups"`
	MaxAge       int    `mapstructure:"max_age"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		StorageDir:         ".preupg",
		StorageCodec:       "json",
		Format:             "text",
		UnknownStatePolicy: "reject",
		LastRuns:           7,
		MaxConcurrency:     10,
		Verbose:            false,
		Debug:              false,
		Logging: LoggingConfig{
			Level:      "warn",
			Format:     "text",
			Output:     "stderr",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

// Load loads configuration with the following precedence (lowest to highest):
// 1. Default values
// 2. Config file (~/preupg-results.yaml or ./preupg-results.yaml)
// 3. Environment variables (PREUPG_*)
// 4. CLI flags (handled by caller)
func Load() (*Config, error) {
	return LoadFromFile("")
}

// LoadFromFile loads configuration from a specific file path
// If path is empty, it searches for config in standard locations
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("storage_dir", defaults.StorageDir)
	v.SetDefault("storage_codec", defaults.StorageCodec)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("unknown_state_policy", defaults.UnknownStatePolicy)
	v.SetDefault("last_runs", defaults.LastRuns)
	v.SetDefault("max_concurrency", defaults.MaxConcurrency)
	v.SetDefault("verbose", defaults.Verbose)
	v.SetDefault("debug", defaults.Debug)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("logging.output", defaults.Logging.Output)
	v.SetDefault("logging.file_rotation", defaults.Logging.FileRotation)
	v.SetDefault("logging.max_size", defaults.Logging.MaxSize)
	v.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	v.SetDefault("logging.max_age", defaults.Logging.MaxAge)

	v.SetConfigName("preupg-results")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}

		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			v.AddConfigPath(filepath.Join(xdgConfig, "preupg-results"))
		}
	}

	// PREUPG_LOGGING_LEVEL maps to logging.level
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Only return error if it's not a "file not found" error
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	validFormats := map[string]bool{
		"text": true,
		"json": true,
		"both": true,
	}
	if !validFormats[c.Format] {
		return fmt.Errorf("invalid format: %s (must be text, json, or both)", c.Format)
	}

	switch c.UnknownStatePolicy {
	case "reject", "quarantine":
	default:
		return fmt.Errorf("invalid unknown_state_policy: %s (must be reject or quarantine)", c.UnknownStatePolicy)
	}

	switch c.StorageCodec {
	case "json", "cbor":
	default:
		return fmt.Errorf("invalid storage_codec: %s (must be json or cbor)", c.StorageCodec)
	}

	if c.LastRuns <= 0 {
		return fmt.Errorf("last_runs must be positive")
	}

	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("max_concurrency must be positive")
	}

	if c.StorageDir == "" {
		return fmt.Errorf("storage_dir cannot be empty")
	}

	return nil
}

// GetStoragePath returns the absolute path to the storage directory
func (c *Config) GetStoragePath() (string, error) {
	return ExpandPath(c.StorageDir)
}

// ExpandPath expands a leading ~/ and makes the path absolute
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	return absPath, nil
}

// GenerateSampleConfig generates a sample configuration file content
func GenerateSampleConfig() string {
	return `# preupg-results configuration
# Save this file as ~/preupg-results.yaml or ./preupg-results.yaml

# Directory to store aggregated results
storage_dir: .preupg

# On-disk format of stored results: json or cbor
storage_codec: json

# Output format: text, json, or both
format: text

# Tests with a state outside the known set:
#   reject      fail the import
#   quarantine  keep the test but leave it out of every counter
# Use quarantine for preupgrade reports that carry notchecked or fixed results.
unknown_state_policy: reject

# Number of last results to analyze in summarize command
last_runs: 7

# Number of report files parsed in parallel by import
max_concurrency: 10

# Enable verbose output
verbose: false

# Enable debug mode
debug: false

logging:
  level: warn
  format: text        # text or json
  output: stderr      # stderr, stdout or a file path
  file_rotation: false
  max_size: 100       # megabytes
  max_backups: 3
  max_age: 28         # days
`
}

// ConfigPath returns the default location written by WriteSampleConfig
func ConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "preupg-results", "preupg-results.yaml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "preupg-results.yaml")
	}
	return "preupg-results.yaml"
}

// WriteSampleConfig writes the sample configuration to path, creating
// parent directories. An existing file is left alone unless force is set.
func WriteSampleConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateSampleConfig()), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
