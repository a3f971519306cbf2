package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stylescan/stylescan/internal/cache"
	"github.com/stylescan/stylescan/internal/config"
	"github.com/stylescan/stylescan/internal/engine"
	"github.com/stylescan/stylescan/internal/git"
	"github.com/stylescan/stylescan/internal/history"
	"github.com/stylescan/stylescan/internal/logger"
	"github.com/stylescan/stylescan/internal/profiler"
	"github.com/stylescan/stylescan/internal/report"
	"github.com/stylescan/stylescan/internal/rules"
)

var scanCmd = &cobra.Command{
	Use:   "scan [paths...]",
	Short: "Scan files for style violations",
	Long: `Scan files and directories for style violations.

Files are checked line by line against the active rule set. Every
violation is reported with its line number, and the findings for a file
are ordered by line, then by rule ID on the same line.

Exit codes:
  0  scan completed, no findings
  1  scan completed, findings reported
  2  scan failed

Examples:
  # Scan a single file
  stylescan scan app.js

  # Scan a directory tree
  stylescan scan src/

  # Scan only files staged in git
  stylescan scan --staged

  # Scan files changed since main
  stylescan scan --changed main

  # Use the strict preset and write a JSON report
  stylescan scan src/ --preset strict --format json -o report.json`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	registerScanFlags(scanCmd)

	// Bind to viper
	_ = viper.BindPFlag("output.format", scanCmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("rules.preset", scanCmd.Flags().Lookup("preset"))
	_ = viper.BindPFlag("scan.workers", scanCmd.Flags().Lookup("workers"))
}

// registerScanFlags defines the scan flags on cmd.
func registerScanFlags(cmd *cobra.Command) {
	// Path selection flags
	cmd.Flags().Bool("staged", false, "Scan files staged in git")
	cmd.Flags().String("changed", "", "Scan files changed since the given ref")

	// Output flags
	cmd.Flags().StringP("format", "f", "", "Output format (text, json, sarif, markdown)")
	cmd.Flags().StringP("output", "o", "", "Write report to file")
	cmd.Flags().Bool("summary", false, "Append a summary line to text output")

	// Rule flags
	cmd.Flags().String("preset", "", "Rule preset (minimal, standard, strict)")
	cmd.Flags().String("rules", "", "Custom rule file merged over the built-ins")
	cmd.Flags().StringSlice("enable", nil, "Rule IDs to force on")
	cmd.Flags().StringSlice("disable", nil, "Rule IDs to force off")
	cmd.Flags().String("min-severity", "", "Drop findings below this severity")
	cmd.Flags().Int("max-findings", -1, "Cap the number of reported findings (0=unlimited)")

	// Behavior flags
	cmd.Flags().Int("workers", 0, "Max concurrent file scans (0=auto)")
	cmd.Flags().Bool("no-cache", false, "Disable the findings cache")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")

	// Profiling flags
	cmd.Flags().String("cpuprofile", "", "Write CPU profile to file")
	cmd.Flags().String("memprofile", "", "Write memory profile to file")
	cmd.Flags().String("pprof-addr", "", "Enable pprof HTTP server (e.g., :6060)")
}

func runScan(cmd *cobra.Command, args []string) error {
	// Initialize profiler if requested
	cpuProfile, _ := cmd.Flags().GetString("cpuprofile")
	memProfile, _ := cmd.Flags().GetString("memprofile")
	pprofAddr, _ := cmd.Flags().GetString("pprof-addr")

	if cpuProfile != "" || memProfile != "" || pprofAddr != "" {
		prof, err := profiler.New(profiler.Config{
			CPUProfile: cpuProfile,
			MemProfile: memProfile,
			HTTPAddr:   pprofAddr,
		})
		if err != nil {
			return fmt.Errorf("failed to start profiler: %w", err)
		}
		defer func() {
			if err := prof.Stop(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to stop profiler: %v\n", err)
			}
		}()

		if isVerbose() {
			fmt.Fprintf(os.Stderr, "Profiler started - memory stats: %s\n", profiler.Stats().String())
		}
	}

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyScanFlags(cmd, cfg)

	// Resolve the paths to scan
	paths, err := resolveScanPaths(cmd, args)
	if err != nil {
		return err
	}

	// Resolve the active rule set
	set, err := rules.Resolve(rules.ResolveOptions{
		Preset:     cfg.Rules.Preset,
		CustomFile: cfg.Rules.CustomFile,
		Enable:     cfg.Rules.Enabled,
		Disable:    cfg.Rules.Disabled,
	})
	if err != nil {
		return fmt.Errorf("resolving rules: %w", err)
	}

	// Initialize cache (optional)
	var findingsCache cache.Cache
	if noCache, _ := cmd.Flags().GetBool("no-cache"); !noCache && cfg.Cache.Enabled {
		findingsCache, err = cache.New(cfg.Cache.Backend, cfg.Cache.Dir, cfg.Cache.MaxEntries, cfg.Cache.TTL)
		if err != nil {
			// A broken cache should not block the scan
			logger.Warn("cache disabled: %v", err)
			findingsCache = nil
		} else {
			defer findingsCache.Close()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Run the scan
	eng := engine.NewInstrumentedEngine(engine.New(cfg, set, findingsCache))
	result, err := eng.Run(ctx, paths)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	// Record the run in the history database
	if noHistory, _ := cmd.Flags().GetBool("no-history"); !noHistory && cfg.History.Enabled {
		recordScanRun(ctx, cfg, paths, result)
	}

	if isVerbose() {
		stats := eng.Stats()
		fmt.Fprintf(os.Stderr, "Scanned %d file(s) in %v (cache hit rate %.0f%%)\n",
			result.FilesScanned, result.Duration.Round(time.Millisecond), stats.CacheHitRate())
	}

	// Generate the report
	format := cfg.Output.Format
	outputFile, _ := cmd.Flags().GetString("output")
	if !cmd.Flags().Changed("format") && outputFile != "" {
		if detected := DetectFormatFromPath(outputFile); detected != "" {
			format = detected
		}
	}

	reporter, err := report.NewReporter(format)
	if err != nil {
		return err
	}
	if tr, ok := reporter.(*report.TextReporter); ok {
		summary, _ := cmd.Flags().GetBool("summary")
		tr.Summary = summary
	}

	output, err := reporter.Generate(result)
	if err != nil {
		return fmt.Errorf("generating report: %w", err)
	}

	if err := WriteOutput(output, outputFile); err != nil {
		return err
	}

	if result.TotalFindings > 0 {
		return ErrFindings
	}
	return nil
}

// applyScanFlags overrides config values with explicitly set flags.
func applyScanFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("format") {
		cfg.Output.Format, _ = cmd.Flags().GetString("format")
	}
	if cmd.Flags().Changed("preset") {
		cfg.Rules.Preset, _ = cmd.Flags().GetString("preset")
	}
	if cmd.Flags().Changed("rules") {
		cfg.Rules.CustomFile, _ = cmd.Flags().GetString("rules")
	}
	if enable, _ := cmd.Flags().GetStringSlice("enable"); len(enable) > 0 {
		cfg.Rules.Enabled = append(cfg.Rules.Enabled, enable...)
	}
	if disable, _ := cmd.Flags().GetStringSlice("disable"); len(disable) > 0 {
		cfg.Rules.Disabled = append(cfg.Rules.Disabled, disable...)
	}
	if cmd.Flags().Changed("min-severity") {
		cfg.Scan.MinSeverity, _ = cmd.Flags().GetString("min-severity")
	}
	if cmd.Flags().Changed("max-findings") {
		cfg.Scan.MaxFindings, _ = cmd.Flags().GetInt("max-findings")
	}
	if cmd.Flags().Changed("workers") {
		cfg.Scan.Workers, _ = cmd.Flags().GetInt("workers")
	}
}

// resolveScanPaths turns the command line into the list of paths to
// scan: explicit arguments, or the output of a git file selection.
func resolveScanPaths(cmd *cobra.Command, args []string) ([]string, error) {
	staged, _ := cmd.Flags().GetBool("staged")
	changed, _ := cmd.Flags().GetString("changed")

	if staged && changed != "" {
		return nil, fmt.Errorf("--staged and --changed are mutually exclusive")
	}
	if (staged || changed != "") && len(args) > 0 {
		return nil, fmt.Errorf("cannot combine path arguments with --staged or --changed")
	}

	if !staged && changed == "" {
		if len(args) == 0 {
			return nil, fmt.Errorf("no paths given: pass files or directories, or use --staged / --changed")
		}
		return args, nil
	}

	repo, err := git.NewRepo(".")
	if err != nil {
		return nil, fmt.Errorf("initializing git: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var files []string
	if staged {
		files, err = repo.StagedFiles(ctx)
	} else {
		files, err = repo.ChangedFiles(ctx, changed)
	}
	if err != nil {
		return nil, fmt.Errorf("listing git files: %w", err)
	}

	// Deleted-but-listed and otherwise missing paths are skipped so a
	// partially clean worktree does not fail the scan.
	existing := files[:0]
	for _, f := range files {
		if info, statErr := os.Stat(f); statErr == nil && !info.IsDir() {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil, fmt.Errorf("no scannable files selected by git")
	}
	return existing, nil
}

// recordScanRun stores the run in the history database. History is an
// accessory: failures are logged and the scan result stands.
func recordScanRun(ctx context.Context, cfg *config.Config, paths []string, result *engine.Result) {
	store, err := history.NewStore(history.StoreConfig{Path: cfg.History.Path})
	if err != nil {
		logger.Warn("history disabled: %v", err)
		return
	}
	defer store.Close()

	run := &history.Run{
		ID:           result.RunID,
		Duration:     result.Duration,
		Paths:        strings.Join(paths, " "),
		FilesScanned: result.FilesScanned,
		Findings:     result.TotalFindings,
		Preset:       result.Preset,
	}
	if result.Git != nil {
		run.Branch = result.Git.Branch
		run.CommitHash = result.Git.Commit
	}

	files := make([]history.RunFindings, 0, len(result.Files))
	for _, f := range result.Files {
		if len(f.Findings) == 0 {
			continue
		}
		files = append(files, history.RunFindings{FilePath: f.Path, Findings: f.Findings})
	}

	if err := store.RecordRun(ctx, run, files); err != nil {
		logger.Warn("recording run: %v", err)
	}
}
