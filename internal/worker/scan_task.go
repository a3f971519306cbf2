package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/stylescan/stylescan/internal/scanner"
)

// FileScanner scans one file's content and returns its findings.
type FileScanner interface {
	ScanFile(ctx context.Context, path, content string) (*FileScanResult, error)
}

// FileScanResult is the outcome of scanning a single file.
type FileScanResult struct {
	FilePath string
	Findings []scanner.Finding
	Cached   bool
	Duration time.Duration
}

// ScanTask scans one file through a FileScanner. The result stays on the
// task so callers holding the task pointer can read it after the pool
// reports completion.
type ScanTask struct {
	id      string
	path    string
	content string
	fs      FileScanner
	result  *FileScanResult
}

// NewScanTask creates a task that scans the given file content.
func NewScanTask(path, content string, fs FileScanner) *ScanTask {
	return &ScanTask{
		id:      fmt.Sprintf("scan:%s", path),
		path:    path,
		content: content,
		fs:      fs,
	}
}

// ID returns the task identifier.
func (t *ScanTask) ID() string {
	return t.id
}

// Execute runs the scan.
func (t *ScanTask) Execute(ctx context.Context) error {
	result, err := t.fs.ScanFile(ctx, t.path, t.content)
	if err != nil {
		return err
	}
	t.result = result
	return nil
}

// Result returns the scan result, nil until Execute succeeds.
func (t *ScanTask) Result() *FileScanResult {
	return t.result
}

// Path returns the file path being scanned.
func (t *ScanTask) Path() string {
	return t.path
}

// FuncTask wraps a function as a task.
type FuncTask struct {
	id string
	fn func(ctx context.Context) error
}

// NewFuncTask creates a task from a function.
func NewFuncTask(id string, fn func(ctx context.Context) error) *FuncTask {
	return &FuncTask{
		id: id,
		fn: fn,
	}
}

// ID returns the task identifier.
func (f *FuncTask) ID() string {
	return f.id
}

// Execute executes the function.
func (f *FuncTask) Execute(ctx context.Context) error {
	return f.fn(ctx)
}

// BatchTask runs a group of tasks sequentially as one unit.
type BatchTask struct {
	id    string
	tasks []Task
}

// NewBatchTask creates a new batch task.
func NewBatchTask(id string, tasks []Task) *BatchTask {
	return &BatchTask{
		id:    id,
		tasks: tasks,
	}
}

// ID returns the batch task identifier.
func (b *BatchTask) ID() string {
	return b.id
}

// Execute executes all tasks in the batch sequentially.
func (b *BatchTask) Execute(ctx context.Context) error {
	for _, task := range b.tasks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := task.Execute(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}
