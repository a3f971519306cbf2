package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stylescan/stylescan/internal/history"
)

// dateFormat is the layout for --since / --until style flags.
const dateFormat = "2006-01-02"

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent scan runs",
	Long: `Display recent scan runs from the history database.

Each run lists when it started, what was scanned, how many files were
checked, and how many findings were reported.

Examples:
  # Show the last 20 runs
  stylescan history

  # Show the last 5 runs
  stylescan history --limit 5

  # Delete runs older than 30 days
  stylescan history --prune-days 30`,
	Args: cobra.NoArgs,
	RunE: runHistoryCmd,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Int("limit", 20, "Number of runs to show")
	historyCmd.Flags().Int("prune-days", 0, "Delete runs older than this many days")
	historyCmd.Flags().Bool("json", false, "output as JSON")
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
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

	if pruneDays, _ := cmd.Flags().GetInt("prune-days"); pruneDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -pruneDays)
		pruned, err := store.PruneBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("pruning history: %w", err)
		}
		fmt.Printf("Pruned %d run(s) older than %s\n", pruned, cutoff.Format(dateFormat))
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.RecentRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		data, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling runs: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(runs) == 0 {
		fmt.Println("No scan history found.")
		return nil
	}

	fmt.Printf("%-20s %-7s %-8s %-9s %s\n", "STARTED", "FILES", "FINDINGS", "PRESET", "PATHS")
	for _, run := range runs {
		paths := run.Paths
		if run.Branch != "" {
			paths = fmt.Sprintf("%s (%s)", paths, run.Branch)
		}
		fmt.Printf("%-20s %-7d %-8d %-9s %s\n",
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.FilesScanned, run.Findings, run.Preset, paths)
	}
	return nil
}
