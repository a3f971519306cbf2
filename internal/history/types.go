// Package history provides SQLite-based storage for scan runs. It backs
// the `stylescan history`, `search`, and `stats` commands with full-text
// search over recorded findings.
package history

import "time"

// Run is one recorded scan invocation.
type Run struct {
	ID           string        `json:"id"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	Paths        string        `json:"paths"`
	FilesScanned int           `json:"files_scanned"`
	Findings     int           `json:"findings"`
	Branch       string        `json:"branch,omitempty"`
	CommitHash   string        `json:"commit_hash,omitempty"`
	Preset       string        `json:"preset"`
}

// FindingRecord is a stored finding, tied to the run that produced it.
type FindingRecord struct {
	ID       int64     `json:"id"`
	RunID    string    `json:"run_id"`
	FilePath string    `json:"file_path"`
	Line     int       `json:"line"`
	RuleID   string    `json:"rule_id"`
	Severity string    `json:"severity"`
	Category string    `json:"category"`
	Message  string    `json:"message"`
	FoundAt  time.Time `json:"found_at"`
}

// SearchQuery filters stored findings.
type SearchQuery struct {
	// Text performs full-text search on message, file path, and rule ID
	Text string
	// File filters by file path (supports glob patterns)
	File string
	// RuleID filters by rule
	RuleID string
	// Severity filters by severity
	Severity string
	// Since filters by recording date
	Since time.Time
	// Until filters by recording date
	Until time.Time
	// Limit restricts result count
	Limit int
	// Offset for pagination
	Offset int
}

// SearchResult contains search results with metadata.
type SearchResult struct {
	Records    []FindingRecord `json:"records"`
	TotalCount int64           `json:"total_count"`
}

// Stats contains aggregate statistics from the history database.
type Stats struct {
	TotalRuns     int64            `json:"total_runs"`
	TotalFindings int64            `json:"total_findings"`
	FilesScanned  int64            `json:"files_scanned"`
	BySeverity    map[string]int64 `json:"by_severity"`
	ByRule        map[string]int64 `json:"by_rule"`
	ByFile        map[string]int64 `json:"by_file"`
	FirstRun      time.Time        `json:"first_run,omitempty"`
	LastRun       time.Time        `json:"last_run,omitempty"`
}
