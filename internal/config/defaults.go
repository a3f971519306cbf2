package config

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultConfig returns a Config with sensible default values.
// The defaults keep `stylescan scan <file>` working with no config file.
func DefaultConfig() *Config {
	dataDir := defaultDataDir()

	return &Config{
		Scan:    defaultScanConfig(),
		Output:  defaultOutputConfig(),
		Rules:   RulesConfig{Preset: "standard"},
		Cache:   defaultCacheConfig(dataDir),
		History: defaultHistoryConfig(dataDir),
		Server:  defaultServerConfig(),
		Log:     LogConfig{Level: "info"},
	}
}

// defaultDataDir returns the directory for cache and history files.
func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".stylescan")
}

// defaultScanConfig returns the default scan configuration.
func defaultScanConfig() ScanConfig {
	return ScanConfig{
		Ignore:        DefaultIgnorePatterns(),
		Workers:       0,
		MinSeverity:   "info",
		MaxFindings:   0,
		MaxFileSizeKB: 1024,
	}
}

// defaultOutputConfig returns the default output configuration.
func defaultOutputConfig() OutputConfig {
	return OutputConfig{
		Format:  "text",
		Color:   true,
		Verbose: false,
		Quiet:   false,
	}
}

// defaultCacheConfig returns the default cache configuration.
func defaultCacheConfig(dataDir string) CacheConfig {
	return CacheConfig{
		Enabled:    true,
		Backend:    "badger",
		Dir:        filepath.Join(dataDir, "cache"),
		TTL:        24 * time.Hour,
		MaxEntries: 1000,
	}
}

// defaultHistoryConfig returns the default history configuration.
func defaultHistoryConfig(dataDir string) HistoryConfig {
	return HistoryConfig{
		Enabled: true,
		Path:    filepath.Join(dataDir, "history.db"),
	}
}

// defaultServerConfig returns the default server configuration.
func defaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         ":8080",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		MaxBodyBytes: 1 << 20,
	}
}

// DefaultIgnorePatterns returns the file patterns skipped during directory
// walks. Files named explicitly on the command line are always scanned.
func DefaultIgnorePatterns() []string {
	return []string{
		// Dependencies
		"node_modules/*",
		"vendor/*",
		"bower_components/*",

		// Build output
		"dist/*",
		"build/*",
		"out/*",
		".next/*",

		// Generated and minified code
		"*.min.js",
		"*.min.css",
		"*.map",
		"*.pb.go",
		"*_generated.go",

		// Lockfiles
		"go.sum",
		"package-lock.json",
		"yarn.lock",
		"pnpm-lock.yaml",

		// Images and binaries
		"*.png",
		"*.jpg",
		"*.jpeg",
		"*.gif",
		"*.svg",
		"*.ico",
		"*.pdf",
		"*.zip",

		// IDE/Editor
		".idea/*",
		".vscode/*",
		"*.swp",

		// Misc
		".DS_Store",
		"Thumbs.db",
	}
}
