package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stylescan/stylescan/internal/scanner"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(StoreConfig{Path: filepath.Join(t.TempDir(), "history.db")})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func sampleRun() (*Run, []RunFindings) {
	run := &Run{
		StartedAt:    time.Now().Add(-time.Minute),
		Duration:     120 * time.Millisecond,
		Paths:        "src/",
		FilesScanned: 2,
		Findings:     3,
		Branch:       "main",
		CommitHash:   "abc1234",
		Preset:       "standard",
	}

	files := []RunFindings{
		{
			FilePath: "src/app.js",
			Findings: []scanner.Finding{
				{Line: 1, RuleID: "no-mutable-decl", Severity: scanner.SeverityWarning,
					Category: scanner.CategoryStyle, Message: "Avoid 'var'; declare with 'let' or 'const' instead"},
				{Line: 4, RuleID: "no-debug-print", Severity: scanner.SeverityWarning,
					Category: scanner.CategoryStyle, Message: "Remove console.log debug statement"},
			},
		},
		{
			FilePath: "src/util.js",
			Findings: []scanner.Finding{
				{Line: 9, RuleID: "no-debug-print", Severity: scanner.SeverityWarning,
					Category: scanner.CategoryStyle, Message: "Remove console.log debug statement"},
			},
		},
	}

	return run, files
}

func TestRecordRunAndRecentRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run, files := sampleRun()
	if err := store.RecordRun(ctx, run, files); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	if run.ID == "" {
		t.Error("RecordRun() should assign a run ID")
	}

	runs, err := store.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("RecentRuns() returned %d runs, want 1", len(runs))
	}

	got := runs[0]
	if got.ID != run.ID {
		t.Errorf("ID = %q, want %q", got.ID, run.ID)
	}
	if got.Findings != 3 {
		t.Errorf("Findings = %d, want 3", got.Findings)
	}
	if got.Branch != "main" {
		t.Errorf("Branch = %q, want %q", got.Branch, "main")
	}
	if got.Duration != 120*time.Millisecond {
		t.Errorf("Duration = %v, want 120ms", got.Duration)
	}
}

func TestRecentRunsOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := &Run{StartedAt: time.Now().Add(-2 * time.Hour), Paths: "old/"}
	recent := &Run{StartedAt: time.Now(), Paths: "new/"}

	if err := store.RecordRun(ctx, old, nil); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordRun(ctx, recent, nil); err != nil {
		t.Fatal(err)
	}

	runs, err := store.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("RecentRuns() returned %d runs, want 2", len(runs))
	}
	if runs[0].Paths != "new/" {
		t.Errorf("newest run first: got %q, want %q", runs[0].Paths, "new/")
	}
}

func TestSearchFullText(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run, files := sampleRun()
	if err := store.RecordRun(ctx, run, files); err != nil {
		t.Fatal(err)
	}

	result, err := store.Search(ctx, SearchQuery{Text: "console"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.TotalCount != 2 {
		t.Errorf("TotalCount = %d, want 2", result.TotalCount)
	}
	for _, rec := range result.Records {
		if rec.RuleID != "no-debug-print" {
			t.Errorf("unexpected rule in results: %s", rec.RuleID)
		}
	}
}

func TestSearchFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run, files := sampleRun()
	if err := store.RecordRun(ctx, run, files); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		query SearchQuery
		want  int64
	}{
		{"by rule", SearchQuery{RuleID: "no-mutable-decl"}, 1},
		{"by file glob", SearchQuery{File: "src/*"}, 3},
		{"by exact file", SearchQuery{File: "src/util.js"}, 1},
		{"by severity", SearchQuery{Severity: "warning"}, 3},
		{"no match", SearchQuery{RuleID: "no-such-rule"}, 0},
		{"combined", SearchQuery{File: "src/app.js", RuleID: "no-debug-print"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := store.Search(ctx, tt.query)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if result.TotalCount != tt.want {
				t.Errorf("TotalCount = %d, want %d", result.TotalCount, tt.want)
			}
		})
	}
}

func TestSearchLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run, files := sampleRun()
	if err := store.RecordRun(ctx, run, files); err != nil {
		t.Fatal(err)
	}

	result, err := store.Search(ctx, SearchQuery{Limit: 1})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(result.Records) != 1 {
		t.Errorf("len(Records) = %d, want 1", len(result.Records))
	}
	if result.TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3", result.TotalCount)
	}
}

func TestGetStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run, files := sampleRun()
	if err := store.RecordRun(ctx, run, files); err != nil {
		t.Fatal(err)
	}

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}

	if stats.TotalRuns != 1 {
		t.Errorf("TotalRuns = %d, want 1", stats.TotalRuns)
	}
	if stats.TotalFindings != 3 {
		t.Errorf("TotalFindings = %d, want 3", stats.TotalFindings)
	}
	if stats.FilesScanned != 2 {
		t.Errorf("FilesScanned = %d, want 2", stats.FilesScanned)
	}
	if stats.ByRule["no-debug-print"] != 2 {
		t.Errorf("ByRule[no-debug-print] = %d, want 2", stats.ByRule["no-debug-print"])
	}
	if stats.BySeverity["warning"] != 3 {
		t.Errorf("BySeverity[warning] = %d, want 3", stats.BySeverity["warning"])
	}
	if stats.ByFile["src/app.js"] != 2 {
		t.Errorf("ByFile[src/app.js] = %d, want 2", stats.ByFile["src/app.js"])
	}
	if stats.FirstRun.IsZero() || stats.LastRun.IsZero() {
		t.Errorf("run time range not populated: first=%v last=%v", stats.FirstRun, stats.LastRun)
	}
	if stats.FirstRun.After(stats.LastRun) {
		t.Errorf("FirstRun %v after LastRun %v", stats.FirstRun, stats.LastRun)
	}
}

func TestGetStatsEmpty(t *testing.T) {
	store := newTestStore(t)

	stats, err := store.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.TotalRuns != 0 || stats.TotalFindings != 0 {
		t.Errorf("empty store should report zero totals, got %+v", stats)
	}
}

func TestPruneBefore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old, oldFiles := sampleRun()
	old.StartedAt = time.Now().Add(-48 * time.Hour)
	if err := store.RecordRun(ctx, old, oldFiles); err != nil {
		t.Fatal(err)
	}

	recent, recentFiles := sampleRun()
	if err := store.RecordRun(ctx, recent, recentFiles); err != nil {
		t.Fatal(err)
	}

	pruned, err := store.PruneBefore(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PruneBefore() error = %v", err)
	}
	if pruned != 1 {
		t.Errorf("PruneBefore() = %d, want 1", pruned)
	}

	runs, err := store.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != recent.ID {
		t.Error("only the recent run should survive pruning")
	}

	// Findings for the pruned run must be gone too
	result, err := store.Search(ctx, SearchQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if result.TotalCount != 3 {
		t.Errorf("TotalCount after prune = %d, want 3", result.TotalCount)
	}
}
