package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stylescan/stylescan/internal/scanner"
)

// mockTask for testing
type mockTask struct {
	id       string
	duration time.Duration
	err      error
}

func (t *mockTask) ID() string { return t.id }
func (t *mockTask) Execute(ctx context.Context) error {
	select {
	case <-time.After(t.duration):
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestPoolBasicExecution(t *testing.T) {
	pool := NewPool(Config{Workers: 2, QueueSize: 10})
	pool.Start()
	defer pool.Stop()

	for i := 0; i < 5; i++ {
		task := &mockTask{
			id:       fmt.Sprintf("task-%d", i),
			duration: 10 * time.Millisecond,
		}
		if err := pool.Submit(task); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	results := 0
	timeout := time.After(1 * time.Second)
	for results < 5 {
		select {
		case r := <-pool.Results():
			if r.Error != nil {
				t.Errorf("unexpected error: %v", r.Error)
			}
			results++
		case <-timeout:
			t.Fatal("timeout waiting for results")
		}
	}

	stats := pool.Stats()
	if stats.Processed != 5 {
		t.Errorf("expected 5 processed, got %d", stats.Processed)
	}
}

func TestPoolErrorHandling(t *testing.T) {
	pool := NewPool(Config{Workers: 2})
	pool.Start()
	defer pool.Stop()

	expectedErr := errors.New("task failed")
	task := &mockTask{
		id:       "failing-task",
		duration: 10 * time.Millisecond,
		err:      expectedErr,
	}

	if err := pool.Submit(task); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	result := <-pool.Results()
	if result.Error != expectedErr {
		t.Errorf("expected error %v, got %v", expectedErr, result.Error)
	}

	stats := pool.Stats()
	if stats.Errors != 1 {
		t.Errorf("expected 1 error, got %d", stats.Errors)
	}
}

type panickyTask struct {
	id string
}

func (t *panickyTask) ID() string { return t.id }
func (t *panickyTask) Execute(ctx context.Context) error {
	panic("boom")
}

func TestPoolRecoversFromPanic(t *testing.T) {
	pool := NewPool(Config{Workers: 1})
	pool.Start()
	defer pool.Stop()

	if err := pool.Submit(&panickyTask{id: "bad-task"}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	result := <-pool.Results()
	if result.Error == nil {
		t.Fatal("expected an error from a panicking task")
	}
	if result.TaskID != "bad-task" {
		t.Errorf("expected task ID bad-task, got %s", result.TaskID)
	}

	// The single worker must survive the panic and keep serving tasks.
	task := &mockTask{id: "after-panic", duration: time.Millisecond}
	if err := pool.Submit(task); err != nil {
		t.Fatalf("submit after panic failed: %v", err)
	}
	result = <-pool.Results()
	if result.Error != nil {
		t.Errorf("unexpected error after panic: %v", result.Error)
	}

	stats := pool.Stats()
	if stats.Errors != 1 {
		t.Errorf("expected 1 error, got %d", stats.Errors)
	}
}

func TestPoolCancellation(t *testing.T) {
	pool := NewPool(Config{Workers: 2})
	pool.Start()

	task := &mockTask{
		id:       "long-task",
		duration: 10 * time.Second,
	}
	if err := pool.Submit(task); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	// Stop cancels the in-flight task; this must not block.
	pool.Stop()
}

func TestPoolConcurrentSubmit(t *testing.T) {
	pool := NewPool(Config{Workers: 4, QueueSize: 100})
	pool.Start()
	defer pool.Stop()

	var submitted atomic.Int64

	for i := 0; i < 10; i++ {
		go func(n int) {
			for j := 0; j < 10; j++ {
				task := &mockTask{
					id:       fmt.Sprintf("task-%d-%d", n, j),
					duration: time.Millisecond,
				}
				if err := pool.Submit(task); err == nil {
					submitted.Add(1)
				}
			}
		}(i)
	}

	time.Sleep(500 * time.Millisecond)

	stats := pool.Stats()
	if stats.Processed < 50 {
		t.Errorf("expected at least 50 processed, got %d", stats.Processed)
	}
}

func TestPoolNotStarted(t *testing.T) {
	pool := NewPool(Config{Workers: 2})

	task := &mockTask{id: "test"}
	if err := pool.Submit(task); err == nil {
		t.Error("expected error when submitting to unstarted pool")
	}
}

func TestPoolDoubleStart(t *testing.T) {
	pool := NewPool(Config{Workers: 2})
	pool.Start()
	pool.Start() // Should not panic or create duplicate workers
	pool.Stop()
}

func TestPoolDefaultConfig(t *testing.T) {
	pool := NewPool(Config{})

	if pool.workers != runtime.GOMAXPROCS(0) {
		t.Errorf("expected %d workers, got %d", runtime.GOMAXPROCS(0), pool.workers)
	}
}

func TestStatsString(t *testing.T) {
	stats := Stats{
		Workers:   4,
		Processed: 100,
		Errors:    5,
		Pending:   10,
	}

	if stats.String() == "" {
		t.Error("Stats.String() should not return empty")
	}
}

// fakeScanner implements FileScanner for scan task tests.
type fakeScanner struct {
	calls atomic.Int64
	err   error
}

func (f *fakeScanner) ScanFile(_ context.Context, path, content string) (*FileScanResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &FileScanResult{
		FilePath: path,
		Findings: []scanner.Finding{{Line: 1, RuleID: "no-mutable-decl", Message: "Avoid 'var'"}},
	}, nil
}

func TestScanTask(t *testing.T) {
	fs := &fakeScanner{}
	task := NewScanTask("src/app.js", "var x = 1;", fs)

	if task.ID() != "scan:src/app.js" {
		t.Errorf("ID() = %q, want %q", task.ID(), "scan:src/app.js")
	}
	if task.Path() != "src/app.js" {
		t.Errorf("Path() = %q, want %q", task.Path(), "src/app.js")
	}
	if task.Result() != nil {
		t.Error("Result() should be nil before Execute")
	}

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	result := task.Result()
	if result == nil {
		t.Fatal("Result() = nil after Execute")
	}
	if len(result.Findings) != 1 {
		t.Errorf("got %d findings, want 1", len(result.Findings))
	}
}

func TestScanTaskError(t *testing.T) {
	wantErr := errors.New("unreadable")
	task := NewScanTask("src/app.js", "", &fakeScanner{err: wantErr})

	if err := task.Execute(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("Execute() error = %v, want %v", err, wantErr)
	}
	if task.Result() != nil {
		t.Error("Result() should stay nil after a failed Execute")
	}
}

func TestScanTasksThroughPool(t *testing.T) {
	pool := NewPool(Config{Workers: 4, QueueSize: 16})
	pool.Start()

	fs := &fakeScanner{}
	tasks := make([]*ScanTask, 0, 8)
	for i := 0; i < 8; i++ {
		task := NewScanTask(fmt.Sprintf("src/file%d.js", i), "var x = 1;", fs)
		tasks = append(tasks, task)
		if err := pool.Submit(task); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	done := 0
	timeout := time.After(2 * time.Second)
	for done < len(tasks) {
		select {
		case r := <-pool.Results():
			if r.Error != nil {
				t.Errorf("task %s failed: %v", r.TaskID, r.Error)
			}
			done++
		case <-timeout:
			t.Fatal("timeout waiting for scan tasks")
		}
	}
	pool.Stop()

	if fs.calls.Load() != int64(len(tasks)) {
		t.Errorf("scanner called %d times, want %d", fs.calls.Load(), len(tasks))
	}
	for _, task := range tasks {
		if task.Result() == nil {
			t.Errorf("task %s has no result", task.ID())
		}
	}
}

func TestFuncTask(t *testing.T) {
	executed := false
	task := NewFuncTask("func-task", func(ctx context.Context) error {
		executed = true
		return nil
	})

	if task.ID() != "func-task" {
		t.Errorf("unexpected ID: %s", task.ID())
	}

	if err := task.Execute(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !executed {
		t.Error("function was not executed")
	}
}

func TestBatchTask(t *testing.T) {
	var executed []string
	tasks := []Task{
		NewFuncTask("task-1", func(ctx context.Context) error {
			executed = append(executed, "task-1")
			return nil
		}),
		NewFuncTask("task-2", func(ctx context.Context) error {
			executed = append(executed, "task-2")
			return nil
		}),
	}

	batch := NewBatchTask("batch", tasks)
	if batch.ID() != "batch" {
		t.Errorf("unexpected ID: %s", batch.ID())
	}

	if err := batch.Execute(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if len(executed) != 2 {
		t.Errorf("expected 2 tasks executed, got %d", len(executed))
	}
}

func TestBatchTaskCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	var executed int
	tasks := []Task{
		NewFuncTask("task-1", func(ctx context.Context) error {
			executed++
			return nil
		}),
	}

	batch := NewBatchTask("batch", tasks)
	if err := batch.Execute(ctx); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if executed != 0 {
		t.Errorf("expected 0 tasks executed, got %d", executed)
	}
}

func BenchmarkPoolThroughput(b *testing.B) {
	pool := NewPool(Config{Workers: runtime.GOMAXPROCS(0), QueueSize: 1000})
	pool.Start()
	defer pool.Stop()

	// Consumer of results
	go func() {
		for range pool.Results() {
		}
	}()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		task := &mockTask{
			id:       fmt.Sprintf("task-%d", i),
			duration: 0, // Instant
		}
		_ = pool.Submit(task)
	}
}
