package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/stylescan/stylescan/internal/scanner"
)

// Store provides SQLite-based scan history storage.
type Store struct {
	db *sql.DB
}

// StoreConfig configures the history store.
type StoreConfig struct {
	// Path is the SQLite database file path
	Path string
}

// NewStore opens the history database, creating the schema on first use.
func NewStore(cfg StoreConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			duration_ms INTEGER NOT NULL,
			paths TEXT NOT NULL,
			files_scanned INTEGER NOT NULL,
			findings INTEGER NOT NULL,
			branch TEXT,
			commit_hash TEXT,
			preset TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS findings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			file_path TEXT NOT NULL,
			line INTEGER NOT NULL,
			rule_id TEXT NOT NULL,
			severity TEXT NOT NULL,
			category TEXT,
			message TEXT NOT NULL,
			found_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Full-text search virtual table
		`CREATE VIRTUAL TABLE IF NOT EXISTS findings_fts USING fts5(
			message,
			file_path,
			rule_id,
			content='findings',
			content_rowid='id'
		)`,

		// Triggers to keep FTS in sync
		`CREATE TRIGGER IF NOT EXISTS findings_ai AFTER INSERT ON findings BEGIN
			INSERT INTO findings_fts(rowid, message, file_path, rule_id)
			VALUES (new.id, new.message, new.file_path, new.rule_id);
		END`,

		`CREATE TRIGGER IF NOT EXISTS findings_ad AFTER DELETE ON findings BEGIN
			INSERT INTO findings_fts(findings_fts, rowid, message, file_path, rule_id)
			VALUES ('delete', old.id, old.message, old.file_path, old.rule_id);
		END`,

		// Indexes for common queries
		`CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_file ON findings(file_path)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_rule ON findings(rule_id)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_severity ON findings(severity)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// RunFindings pairs a scanned file with its findings for recording.
type RunFindings struct {
	FilePath string
	Findings []scanner.Finding
}

// RecordRun stores a run and all of its findings in one transaction. The
// run ID is generated when empty and written back to the record.
func (s *Store) RecordRun(ctx context.Context, run *Run, files []RunFindings) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, duration_ms, paths, files_scanned, findings, branch, commit_hash, preset)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.Duration.Milliseconds(), run.Paths,
		run.FilesScanned, run.Findings, run.Branch, run.CommitHash, run.Preset,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO findings (run_id, file_path, line, rule_id, severity, category, message, found_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, file := range files {
		for _, f := range file.Findings {
			_, err := stmt.ExecContext(ctx,
				run.ID, file.FilePath, f.Line, f.RuleID,
				string(f.Severity), string(f.Category), f.Message, run.StartedAt,
			)
			if err != nil {
				return fmt.Errorf("inserting finding: %w", err)
			}
		}
	}

	return tx.Commit()
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, duration_ms, paths, files_scanned, findings, branch, commit_hash, preset
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var durationMS int64
		var branch, commitHash, preset sql.NullString
		if err := rows.Scan(&r.ID, &r.StartedAt, &durationMS, &r.Paths,
			&r.FilesScanned, &r.Findings, &branch, &commitHash, &preset); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.Branch = branch.String
		r.CommitHash = commitHash.String
		r.Preset = preset.String
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// Search queries stored findings. Text terms go through the FTS index;
// the remaining filters compose as SQL conditions.
func (s *Store) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	var args []interface{}
	var conditions []string

	if q.Text != "" {
		conditions = append(conditions, "f.id IN (SELECT rowid FROM findings_fts WHERE findings_fts MATCH ?)")
		args = append(args, q.Text)
	}

	if q.File != "" {
		pattern := strings.ReplaceAll(q.File, "*", "%")
		conditions = append(conditions, "f.file_path LIKE ?")
		args = append(args, pattern)
	}

	if q.RuleID != "" {
		conditions = append(conditions, "f.rule_id = ?")
		args = append(args, q.RuleID)
	}

	if q.Severity != "" {
		conditions = append(conditions, "f.severity = ?")
		args = append(args, q.Severity)
	}

	if !q.Since.IsZero() {
		conditions = append(conditions, "f.found_at >= ?")
		args = append(args, q.Since)
	}
	if !q.Until.IsZero() {
		conditions = append(conditions, "f.found_at <= ?")
		args = append(args, q.Until)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM findings f " + whereClause //nolint:gosec // Query built with parameterized args
	var totalCount int64
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("counting results: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	//nolint:gosec // Query built with parameterized args, whereClause uses placeholders
	selectQuery := `
		SELECT id, run_id, file_path, line, rule_id, severity, category, message, found_at
		FROM findings f
		` + whereClause + `
		ORDER BY found_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	args = append(args, limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("querying findings: %w", err)
	}
	defer rows.Close()

	result := &SearchResult{TotalCount: totalCount}
	for rows.Next() {
		var rec FindingRecord
		var category sql.NullString
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.FilePath, &rec.Line,
			&rec.RuleID, &rec.Severity, &category, &rec.Message, &rec.FoundAt); err != nil {
			return nil, fmt.Errorf("scanning finding row: %w", err)
		}
		rec.Category = category.String
		result.Records = append(result.Records, rec)
	}

	return result, rows.Err()
}

// GetStats returns aggregate statistics across all recorded runs.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		BySeverity: make(map[string]int64),
		ByRule:     make(map[string]int64),
		ByFile:     make(map[string]int64),
	}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(files_scanned), 0) FROM runs`).
		Scan(&stats.TotalRuns, &stats.FilesScanned)
	if err != nil {
		return nil, fmt.Errorf("counting runs: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM findings`).
		Scan(&stats.TotalFindings)
	if err != nil {
		return nil, fmt.Errorf("counting findings: %w", err)
	}

	// Read the range off the raw column: MIN/MAX aggregates lose the
	// DATETIME declared type and come back as bare text the driver will
	// not convert to time.Time.
	if stats.TotalRuns > 0 {
		err = s.db.QueryRowContext(ctx,
			`SELECT started_at FROM runs ORDER BY started_at ASC LIMIT 1`).
			Scan(&stats.FirstRun)
		if err != nil {
			return nil, fmt.Errorf("reading first run: %w", err)
		}
		err = s.db.QueryRowContext(ctx,
			`SELECT started_at FROM runs ORDER BY started_at DESC LIMIT 1`).
			Scan(&stats.LastRun)
		if err != nil {
			return nil, fmt.Errorf("reading last run: %w", err)
		}
	}

	if err := s.fillGroupCounts(ctx, "severity", stats.BySeverity, 0); err != nil {
		return nil, err
	}
	if err := s.fillGroupCounts(ctx, "rule_id", stats.ByRule, 0); err != nil {
		return nil, err
	}
	// ByFile is capped: projects can have thousands of files and the
	// dashboard only shows the worst offenders.
	if err := s.fillGroupCounts(ctx, "file_path", stats.ByFile, 20); err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *Store) fillGroupCounts(ctx context.Context, column string, dest map[string]int64, limit int) error {
	query := fmt.Sprintf( //nolint:gosec // column is a fixed identifier, never user input
		"SELECT %s, COUNT(*) FROM findings GROUP BY %s ORDER BY COUNT(*) DESC", column, column)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("grouping by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("scanning %s count: %w", column, err)
		}
		dest[key] = count
	}

	return rows.Err()
}

// PruneBefore deletes runs older than t along with their findings.
// Returns the number of runs removed.
func (s *Store) PruneBefore(ctx context.Context, t time.Time) (int64, error) {
	// SQLite foreign keys are off by default; delete findings explicitly.
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM findings WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)`, t)
	if err != nil {
		return 0, fmt.Errorf("pruning findings: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, t)
	if err != nil {
		return 0, fmt.Errorf("pruning runs: %w", err)
	}

	n, _ := result.RowsAffected()
	return n, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
