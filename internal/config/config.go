// Package config handles all configuration management for stylescan.
//
// Configuration is loaded from multiple sources in order of precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables (STYLESCAN_*)
// 3. Configuration file (.stylescan.yaml)
// 4. Default values (lowest priority)
package config

import (
	"time"
)

// Config is the main configuration structure for stylescan.
// It contains all settings needed to run the application.
type Config struct {
	// Scan configures how files are discovered and scanned
	Scan ScanConfig `mapstructure:"scan" yaml:"scan"`

	// Output configures report formatting
	Output OutputConfig `mapstructure:"output" yaml:"output"`

	// Rules configures the rule system
	Rules RulesConfig `mapstructure:"rules" yaml:"rules"`

	// Cache configures findings caching
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	// History configures the scan history store
	History HistoryConfig `mapstructure:"history" yaml:"history"`

	// Server configures the HTTP API
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Log configures logging
	Log LogConfig `mapstructure:"log" yaml:"log"`
}

// ScanConfig configures file discovery and scan behavior.
type ScanConfig struct {
	// Ignore are glob patterns skipped during directory walks.
	// Explicitly named files are always scanned.
	Ignore []string `mapstructure:"ignore" yaml:"ignore"`

	// Workers is the number of parallel file scans (0 = one per CPU)
	Workers int `mapstructure:"workers" yaml:"workers"`

	// MinSeverity drops findings below this level: "info", "warning",
	// "error", "critical"
	MinSeverity string `mapstructure:"min_severity" yaml:"min_severity"`

	// MaxFindings caps reported findings (0 = unlimited)
	MaxFindings int `mapstructure:"max_findings" yaml:"max_findings"`

	// MaxFileSizeKB skips files larger than this during walks (0 = no limit)
	MaxFileSizeKB int `mapstructure:"max_file_size_kb" yaml:"max_file_size_kb"`
}

// OutputConfig configures report formatting.
type OutputConfig struct {
	// Format is the output format: "text", "json", "sarif", "markdown"
	Format string `mapstructure:"format" yaml:"format"`

	// File is the output file path (empty = stdout)
	File string `mapstructure:"file" yaml:"file"`

	// Color enables colored output (for terminal)
	Color bool `mapstructure:"color" yaml:"color"`

	// Verbose enables verbose logging
	Verbose bool `mapstructure:"verbose" yaml:"verbose"`

	// Quiet suppresses all output except errors and findings
	Quiet bool `mapstructure:"quiet" yaml:"quiet"`
}

// RulesConfig configures the rule system.
type RulesConfig struct {
	// Preset is the rule preset to use: "standard", "strict", "minimal"
	Preset string `mapstructure:"preset" yaml:"preset"`

	// CustomFile is a YAML rule set merged over the built-ins
	CustomFile string `mapstructure:"custom_file" yaml:"custom_file"`

	// Enabled lists rule IDs forced on after preset selection
	Enabled []string `mapstructure:"enabled" yaml:"enabled"`

	// Disabled lists rule IDs forced off
	Disabled []string `mapstructure:"disabled" yaml:"disabled"`
}

// CacheConfig configures findings caching.
type CacheConfig struct {
	// Enabled enables caching
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Backend selects the cache implementation: "memory" or "badger"
	Backend string `mapstructure:"backend" yaml:"backend"`

	// Dir is the cache directory (badger backend)
	Dir string `mapstructure:"dir" yaml:"dir"`

	// TTL is the cache entry time-to-live
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`

	// MaxEntries is the maximum number of cache entries (memory backend)
	MaxEntries int `mapstructure:"max_entries" yaml:"max_entries"`
}

// HistoryConfig configures the scan history store.
type HistoryConfig struct {
	// Enabled records scan runs in the history database
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Path is the SQLite database file
	Path string `mapstructure:"path" yaml:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Addr is the listen address for `stylescan serve`
	Addr string `mapstructure:"addr" yaml:"addr"`

	// TokenHash is a bcrypt hash of the API bearer token.
	// Empty disables authentication.
	TokenHash string `mapstructure:"token_hash" yaml:"token_hash"`

	// ReadTimeout bounds request reads
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout bounds response writes
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// MaxBodyBytes caps scan request bodies
	MaxBodyBytes int64 `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error"
	Level string `mapstructure:"level" yaml:"level"`
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	validFormats := map[string]bool{"text": true, "json": true, "sarif": true, "markdown": true}
	if !validFormats[c.Output.Format] {
		return &ValidationError{Field: "output.format", Message: "invalid format, must be one of: text, json, sarif, markdown"}
	}

	validSeverities := map[string]bool{"info": true, "warning": true, "error": true, "critical": true}
	if !validSeverities[c.Scan.MinSeverity] {
		return &ValidationError{Field: "scan.min_severity", Message: "invalid severity, must be one of: info, warning, error, critical"}
	}

	if c.Scan.Workers < 0 {
		return &ValidationError{Field: "scan.workers", Message: "workers cannot be negative"}
	}

	validBackends := map[string]bool{"memory": true, "badger": true}
	if !validBackends[c.Cache.Backend] {
		return &ValidationError{Field: "cache.backend", Message: "invalid backend, must be one of: memory, badger"}
	}

	if c.Cache.Enabled && c.Cache.Backend == "badger" && c.Cache.Dir == "" {
		return &ValidationError{Field: "cache.dir", Message: "cache directory is required for the badger backend"}
	}

	if c.History.Enabled && c.History.Path == "" {
		return &ValidationError{Field: "history.path", Message: "history path is required when history is enabled"}
	}

	return nil
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "config validation error: " + e.Field + ": " + e.Message
}
