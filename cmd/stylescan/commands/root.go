// Package commands contains all CLI commands for stylescan.
//
// This package uses the Cobra library for CLI management.
// Each command is defined in its own file and registered in init().
package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stylescan/stylescan/internal/config"
	"github.com/stylescan/stylescan/internal/logger"
)

// ErrFindings is returned by scan when the report contains findings.
// main maps it to exit code 1 so CI can distinguish "style violations
// found" (1) from "the scan itself failed" (2).
var ErrFindings = errors.New("findings reported")

var (
	// cfgFile holds the path to the config file (from --config flag)
	cfgFile string

	// verbose enables detailed output
	verbose bool

	// quiet suppresses all output except errors and findings
	quiet bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stylescan",
	Short: "Line-based style scanner for source files",
	Long: `StyleScan checks source files against a set of style rules.

It scans files line by line, reports every violation with its line
number, and exits non-zero when anything is flagged, which makes it
easy to wire into CI pipelines and pre-commit hooks.

Examples:
  # Scan a single file
  stylescan scan app.js

  # Scan a directory tree
  stylescan scan src/

  # Scan only staged files
  stylescan scan --staged

  # Emit a SARIF report for code-scanning upload
  stylescan scan src/ --format sarif -o results.sarif

  # Show current configuration
  stylescan config show`,

	// SilenceUsage prevents printing usage on errors
	// We want clean error messages, not the full help text
	SilenceUsage: true,

	// SilenceErrors lets us handle errors ourselves in main
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Persistent flags are available to this command and all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is .stylescan.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors and findings")

	// Bind flags to viper for config file support
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("output.quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

// loadConfig loads the effective configuration, honoring the --config
// flag, and adjusts the default logger level to match.
func loadConfig() (*config.Config, error) {
	loader := config.NewLoader()
	if cfgFile != "" {
		loader.SetConfigFile(cfgFile)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if verbose {
		cfg.Output.Verbose = true
	}
	if quiet {
		cfg.Output.Quiet = true
		cfg.Output.Verbose = false
	}

	switch {
	case cfg.Output.Quiet:
		logger.SetLevel(logger.LevelError)
	case cfg.Output.Verbose:
		logger.SetLevel(logger.LevelDebug)
	default:
		logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	}

	if isVerbose() && loader.ConfigFileUsed() != "" {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", loader.ConfigFileUsed())
	}

	return cfg, nil
}

// isVerbose returns true if verbose mode is enabled
func isVerbose() bool {
	return verbose && !quiet
}

// isQuiet returns true if quiet mode is enabled
func isQuiet() bool {
	return quiet
}
