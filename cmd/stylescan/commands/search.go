package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stylescan/stylescan/internal/history"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search past scan findings",
	Long: `Search findings from past scans using full-text search.

Examples:
  # Full-text search for "console"
  stylescan search console

  # Findings in a specific file
  stylescan search --file=app.js

  # Findings for one rule
  stylescan search --rule=no-debug-print

  # Combine filters
  stylescan search mutable --file="src/*" --severity=warning`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().String("file", "", "Filter by file path (supports glob patterns)")
	searchCmd.Flags().String("rule", "", "Filter by rule ID")
	searchCmd.Flags().String("severity", "", "Filter by severity (info, warning, error, critical)")
	searchCmd.Flags().String("since", "", "Filter findings after date (YYYY-MM-DD)")
	searchCmd.Flags().String("until", "", "Filter findings before date (YYYY-MM-DD)")
	searchCmd.Flags().Int("limit", 50, "Maximum number of results")
	searchCmd.Flags().StringP("format", "f", "table", "Output format (table, json)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := history.NewStore(history.StoreConfig{Path: cfg.History.Path})
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer store.Close()

	// Build query
	query := history.SearchQuery{}

	if len(args) > 0 {
		query.Text = strings.Join(args, " ")
	}

	query.File, _ = cmd.Flags().GetString("file")
	query.RuleID, _ = cmd.Flags().GetString("rule")
	query.Severity, _ = cmd.Flags().GetString("severity")
	query.Limit, _ = cmd.Flags().GetInt("limit")

	if since, _ := cmd.Flags().GetString("since"); since != "" {
		sinceTime, parseErr := time.Parse(dateFormat, since)
		if parseErr != nil {
			return fmt.Errorf("invalid since date: %w", parseErr)
		}
		query.Since = sinceTime
	}
	if until, _ := cmd.Flags().GetString("until"); until != "" {
		untilTime, parseErr := time.Parse(dateFormat, until)
		if parseErr != nil {
			return fmt.Errorf("invalid until date: %w", parseErr)
		}
		query.Until = untilTime
	}

	// Execute search
	ctx := context.Background()
	result, err := store.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	// Output results
	format, _ := cmd.Flags().GetString("format")
	return outputSearchResults(result, format)
}

func outputSearchResults(result *history.SearchResult, format string) error {
	if len(result.Records) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	if format == "json" {
		data, err := json.MarshalIndent(result.Records, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling results: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Found %d results (showing %d)\n\n", result.TotalCount, len(result.Records))

	// Table output
	for _, r := range result.Records {
		location := r.FilePath
		if r.Line > 0 {
			location = fmt.Sprintf("%s:%d", r.FilePath, r.Line)
		}

		fmt.Printf("[%s] %s (%s)\n", strings.ToUpper(r.Severity), location, r.RuleID)
		fmt.Printf("   %s\n", truncate(r.Message, 80))
		fmt.Printf("   %s\n\n", r.FoundAt.Format(dateFormat))
	}

	return nil
}

// truncate shortens s to at most n runes, appending "..." when cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
