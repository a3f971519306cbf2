package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	configFileName = ".stylescan.yaml"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()

	// Set config name and type
	v.SetConfigName(".stylescan")
	v.SetConfigType("yaml")

	// Add search paths in order of priority
	v.AddConfigPath(".")              // Current directory (highest priority)
	v.AddConfigPath("$HOME")          // Home directory
	v.AddConfigPath("/etc/stylescan") // System config (lowest priority)

	// Environment variable support
	v.SetEnvPrefix("STYLESCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// SetConfigFile sets a specific config file to use.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
	l.v.SetConfigFile(path)
}

// Load loads the configuration from all sources.
// Priority (highest to lowest):
// 1. Explicit config file (if set via SetConfigFile)
// 2. Environment variables (STYLESCAN_*)
// 3. Config file from search paths (.stylescan.yaml)
// 4. Default values
func (l *Loader) Load() (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Set defaults in viper
	l.setDefaults(cfg)

	// Try to read config file
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file found but error reading it
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found - that's ok, we'll use defaults
	}

	// Unmarshal into config struct
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate the final config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults sets all default values in viper.
func (l *Loader) setDefaults(cfg *Config) {
	// Scan defaults
	l.v.SetDefault("scan.ignore", cfg.Scan.Ignore)
	l.v.SetDefault("scan.workers", cfg.Scan.Workers)
	l.v.SetDefault("scan.min_severity", cfg.Scan.MinSeverity)
	l.v.SetDefault("scan.max_findings", cfg.Scan.MaxFindings)
	l.v.SetDefault("scan.max_file_size_kb", cfg.Scan.MaxFileSizeKB)

	// Output defaults
	l.v.SetDefault("output.format", cfg.Output.Format)
	l.v.SetDefault("output.file", cfg.Output.File)
	l.v.SetDefault("output.color", cfg.Output.Color)
	l.v.SetDefault("output.verbose", cfg.Output.Verbose)
	l.v.SetDefault("output.quiet", cfg.Output.Quiet)

	// Rules defaults
	l.v.SetDefault("rules.preset", cfg.Rules.Preset)
	l.v.SetDefault("rules.custom_file", cfg.Rules.CustomFile)
	l.v.SetDefault("rules.enabled", cfg.Rules.Enabled)
	l.v.SetDefault("rules.disabled", cfg.Rules.Disabled)

	// Cache defaults
	l.v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	l.v.SetDefault("cache.backend", cfg.Cache.Backend)
	l.v.SetDefault("cache.dir", cfg.Cache.Dir)
	l.v.SetDefault("cache.ttl", cfg.Cache.TTL)
	l.v.SetDefault("cache.max_entries", cfg.Cache.MaxEntries)

	// History defaults
	l.v.SetDefault("history.enabled", cfg.History.Enabled)
	l.v.SetDefault("history.path", cfg.History.Path)

	// Server defaults
	l.v.SetDefault("server.addr", cfg.Server.Addr)
	l.v.SetDefault("server.token_hash", cfg.Server.TokenHash)
	l.v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	l.v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	l.v.SetDefault("server.max_body_bytes", cfg.Server.MaxBodyBytes)

	// Log defaults
	l.v.SetDefault("log.level", cfg.Log.Level)
}

// ConfigFileUsed returns the path of the config file used, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for advanced usage.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	loader := NewLoader()
	loader.SetConfigFile(path)
	return loader.Load()
}

// LoadDefault loads configuration with default search paths.
func LoadDefault() (*Config, error) {
	loader := NewLoader()
	return loader.Load()
}

// FindConfigFile searches for a config file and returns its path.
// Returns empty string if no config file is found.
func FindConfigFile() string {
	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		if abs, err := filepath.Abs(configFileName); err == nil {
			return abs
		}
	}

	// Check home directory
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, configFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	// Check /etc
	etcPath := "/etc/stylescan/" + configFileName
	if _, err := os.Stat(etcPath); err == nil {
		return etcPath
	}

	return ""
}
