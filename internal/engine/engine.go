// Package engine orchestrates multi-file scans: it expands paths into
// documents, runs the scanner over them through a worker pool, consults
// the findings cache, and aggregates the results.
package engine

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/stylescan/stylescan/internal/cache"
	"github.com/stylescan/stylescan/internal/config"
	"github.com/stylescan/stylescan/internal/git"
	"github.com/stylescan/stylescan/internal/logger"
	"github.com/stylescan/stylescan/internal/rules"
	"github.com/stylescan/stylescan/internal/scanner"
	"github.com/stylescan/stylescan/internal/worker"
)

// maxWorkers caps the pool size; past this point file scans are I/O bound
// and more goroutines just add contention.
const maxWorkers = 16

// Engine coordinates scanning a set of paths with the active rule set.
type Engine struct {
	cfg   *config.Config
	set   *scanner.RuleSet
	cache cache.Cache
	log   *logger.Logger
}

// New creates an engine. The cache may be nil to disable caching.
func New(cfg *config.Config, set *scanner.RuleSet, c cache.Cache) *Engine {
	return &Engine{
		cfg:   cfg,
		set:   set,
		cache: c,
		log:   logger.Default().WithPrefix("ENGINE"),
	}
}

// Result contains the complete scan results.
type Result struct {
	RunID         string         `json:"run_id"`
	Files         []FileResult   `json:"files"`
	TotalFindings int            `json:"total_findings"`
	FilesScanned  int            `json:"files_scanned"`
	FilesSkipped  int            `json:"files_skipped"`
	BySeverity    map[string]int `json:"by_severity,omitempty"`
	ByRule        map[string]int `json:"by_rule,omitempty"`
	Duration      time.Duration  `json:"duration"`
	Preset        string         `json:"preset"`
	Git           *git.Context   `json:"git,omitempty"`
}

// FileResult contains the scan results for a single file.
type FileResult struct {
	Path     string            `json:"path"`
	Findings []scanner.Finding `json:"findings"`
	Cached   bool              `json:"cached"`
	Duration time.Duration     `json:"duration"`
}

// Run scans all given paths. Files are taken as-is; directories are
// walked recursively. The returned result lists files sorted by path so
// output is deterministic regardless of worker completion order.
func (e *Engine) Run(ctx context.Context, paths []string) (*Result, error) {
	start := time.Now()

	files, skipped, err := e.expandPaths(paths)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:        uuid.New().String(),
		Files:        make([]FileResult, 0, len(files)),
		FilesSkipped: skipped,
		BySeverity:   make(map[string]int),
		ByRule:       make(map[string]int),
		Preset:       e.set.Name,
	}

	if repo, repoErr := git.NewRepo("."); repoErr == nil {
		gc := repo.CurrentContext(ctx)
		if gc.Branch != "" || gc.Commit != "" {
			result.Git = &gc
		}
	}

	if len(files) == 0 {
		e.log.Info("No files to scan")
		result.Duration = time.Since(start)
		return result, nil
	}

	pool, tasks, err := e.startScanPool(ctx, files)
	if err != nil {
		return nil, err
	}

	if err := e.collectResults(ctx, pool, tasks, result); err != nil {
		return nil, err
	}

	pool.StopWait()

	e.aggregate(result)
	result.Duration = time.Since(start)

	e.log.Info("Scan completed: %d files, %d findings in %v",
		result.FilesScanned, result.TotalFindings, result.Duration)

	return result, nil
}

// startScanPool launches the worker pool and submits one task per file.
func (e *Engine) startScanPool(ctx context.Context, files []string) (*worker.Pool, []*worker.ScanTask, error) {
	workers := e.workerCount()
	e.log.Debug("Scanning %d files with %d workers", len(files), workers)

	pool := worker.NewPool(worker.Config{
		Workers:   workers,
		QueueSize: len(files),
	})
	pool.Start()

	tasks := make([]*worker.ScanTask, 0, len(files))
	for _, path := range files {
		content, err := os.ReadFile(path) //nolint:gosec // Paths come from CLI args and directory walks
		if err != nil {
			pool.Stop()
			return nil, nil, fmt.Errorf("%w: reading %s: %v", scanner.ErrInvalidInput, path, err)
		}

		task := worker.NewScanTask(path, string(content), e)
		tasks = append(tasks, task)
		if err := pool.Submit(task); err != nil {
			pool.Stop()
			return nil, nil, fmt.Errorf("submitting scan for %s: %w", path, err)
		}
	}

	return pool, tasks, nil
}

// collectResults waits for every task, honoring cancellation.
func (e *Engine) collectResults(ctx context.Context, pool *worker.Pool, tasks []*worker.ScanTask, result *Result) error {
	byID := make(map[string]*worker.ScanTask, len(tasks))
	for _, t := range tasks {
		byID[t.ID()] = t
	}

	for collected := 0; collected < len(tasks); {
		select {
		case poolResult := <-pool.Results():
			collected++
			if poolResult.Error != nil {
				e.log.Warn("Scan failed for task %s: %v", poolResult.TaskID, poolResult.Error)
				pool.Stop()
				return poolResult.Error
			}
			task := byID[poolResult.TaskID]
			if task == nil || task.Result() == nil {
				continue
			}
			fr := task.Result()
			result.Files = append(result.Files, FileResult{
				Path:     fr.FilePath,
				Findings: fr.Findings,
				Cached:   fr.Cached,
				Duration: fr.Duration,
			})
		case <-ctx.Done():
			e.log.Warn("Scan cancelled: %v", ctx.Err())
			pool.Stop()
			return ctx.Err()
		}
	}

	return nil
}

// ScanFile scans one file's content. It implements worker.FileScanner.
func (e *Engine) ScanFile(ctx context.Context, path, content string) (*worker.FileScanResult, error) {
	start := time.Now()

	language := rules.DetectLanguage(path)
	active := rules.ForFile(e.set.Rules, language, path)

	// The key covers the rules that apply to THIS file, not the whole
	// set: two files with equal content share an entry only when the
	// language and pattern filters leave them the same active rules.
	var key string
	if e.cache != nil {
		key = cache.ComputeKey([]byte(content), rules.Fingerprint(active))
		if findings, found, _ := e.cache.Get(key); found {
			return &worker.FileScanResult{
				FilePath: path,
				Findings: findings,
				Cached:   true,
				Duration: time.Since(start),
			}, nil
		}
	}

	doc := scanner.NewDocument(path, content)
	findings, err := scanner.Scan(doc, active)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}

	if e.cache != nil {
		_ = e.cache.Set(key, findings)
	}

	return &worker.FileScanResult{
		FilePath: path,
		Findings: findings,
		Duration: time.Since(start),
	}, nil
}

// aggregate sorts per-file results, applies the severity floor and the
// findings cap, and fills the totals.
func (e *Engine) aggregate(result *Result) {
	sort.Slice(result.Files, func(i, j int) bool {
		return result.Files[i].Path < result.Files[j].Path
	})

	minSeverity := scanner.Severity(e.cfg.Scan.MinSeverity)
	total := 0

	for i := range result.Files {
		file := &result.Files[i]
		kept := file.Findings[:0:0]
		for _, f := range file.Findings {
			if f.Severity.Level() < minSeverity.Level() {
				continue
			}
			if e.cfg.Scan.MaxFindings > 0 && total >= e.cfg.Scan.MaxFindings {
				break
			}
			kept = append(kept, f)
			total++
			result.BySeverity[string(f.Severity)]++
			result.ByRule[f.RuleID]++
		}
		file.Findings = kept
	}

	result.TotalFindings = total
	result.FilesScanned = len(result.Files)
}

func (e *Engine) workerCount() int {
	n := e.cfg.Scan.Workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n > maxWorkers {
		n = maxWorkers
	}
	return n
}
