package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stylescan/stylescan/internal/history"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show scan statistics dashboard",
	Long: `Display aggregate statistics from all recorded scans.

Shows a dashboard with:
- Total runs and findings
- Breakdown by severity level
- Breakdown by rule
- Top files with most findings

Examples:
  # Show stats dashboard
  stylescan stats

  # Output as JSON
  stylescan stats --format=json

  # Export stats to a file
  stylescan stats --export stats.json`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringP("format", "f", "dashboard", "Output format (dashboard, json)")
	statsCmd.Flags().String("export", "", "Write stats as JSON to file")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := history.NewStore(history.StoreConfig{Path: cfg.History.Path})
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	stats, err := store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("getting stats: %w", err)
	}

	if export, _ := cmd.Flags().GetString("export"); export != "" {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling stats: %w", err)
		}
		if err := os.WriteFile(export, append(data, '\n'), 0600); err != nil {
			return fmt.Errorf("writing %s: %w", export, err)
		}
		fmt.Printf("Stats written to: %s\n", export)
		return nil
	}

	format, _ := cmd.Flags().GetString("format")
	if format == "json" {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling stats: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	return outputStatsDashboard(stats)
}

func outputStatsDashboard(stats *history.Stats) error {
	if stats.TotalRuns == 0 {
		fmt.Println("No scan history found.")
		fmt.Println("\nRun some scans first to collect statistics.")
		return nil
	}

	fmt.Println()
	fmt.Println("STYLESCAN STATS")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println()

	fmt.Printf("  Total runs:      %d\n", stats.TotalRuns)
	fmt.Printf("  Files scanned:   %d\n", stats.FilesScanned)
	fmt.Printf("  Total findings:  %d\n", stats.TotalFindings)
	if !stats.FirstRun.IsZero() {
		fmt.Printf("  First run:       %s\n", stats.FirstRun.Format("2006-01-02 15:04"))
		fmt.Printf("  Last run:        %s\n", stats.LastRun.Format("2006-01-02 15:04"))
	}
	fmt.Println()

	if len(stats.BySeverity) > 0 {
		fmt.Println("By severity:")
		severityOrder := []string{"critical", "error", "warning", "info"}
		for _, sev := range severityOrder {
			if count, ok := stats.BySeverity[sev]; ok && count > 0 {
				bar := progressBar(count, stats.TotalFindings, 20)
				fmt.Printf("  %-10s %s %d\n", sev, bar, count)
			}
		}
		fmt.Println()
	}

	if len(stats.ByRule) > 0 {
		fmt.Println("By rule:")
		for _, kv := range sortedCounts(stats.ByRule) {
			bar := progressBar(kv.count, stats.TotalFindings, 20)
			fmt.Printf("  %-25s %s %d\n", kv.key, bar, kv.count)
		}
		fmt.Println()
	}

	if len(stats.ByFile) > 0 {
		fmt.Println("Top files:")
		for i, kv := range sortedCounts(stats.ByFile) {
			if i >= 10 {
				break
			}
			fmt.Printf("  %-40s %d\n", truncate(kv.key, 40), kv.count)
		}
		fmt.Println()
	}

	return nil
}

type keyCount struct {
	key   string
	count int64
}

// sortedCounts orders a count map by descending count, then key, so the
// dashboard is stable between invocations.
func sortedCounts(m map[string]int64) []keyCount {
	out := make([]keyCount, 0, len(m))
	for k, v := range m {
		out = append(out, keyCount{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	return out
}

func progressBar(count, total int64, width int) string {
	if total <= 0 {
		total = 1
	}
	filled := int(float64(count) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
