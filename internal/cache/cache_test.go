package cache

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/stylescan/stylescan/internal/scanner"
)

func testFindings() []scanner.Finding {
	return []scanner.Finding{
		{
			Line:     1,
			RuleID:   "no-mutable-decl",
			Message:  "Avoid 'var'; declare with 'let' or 'const' instead",
			Severity: scanner.SeverityWarning,
			Category: scanner.CategoryStyle,
		},
		{
			Line:     3,
			RuleID:   "no-debug-print",
			Message:  "Remove console.log debug statement",
			Severity: scanner.SeverityWarning,
			Category: scanner.CategoryStyle,
		},
	}
}

func TestComputeKey(t *testing.T) {
	key1 := ComputeKey([]byte("var x = 1;"), "fp-a")
	key2 := ComputeKey([]byte("var x = 1;"), "fp-a")

	if key1 != key2 {
		t.Error("same content and fingerprint should produce the same key")
	}
	if len(key1) != 64 {
		t.Errorf("key length = %d, want 64", len(key1))
	}

	if ComputeKey([]byte("var x = 1;"), "fp-b") == key1 {
		t.Error("different fingerprint should produce a different key")
	}
	if ComputeKey([]byte("let x = 1;"), "fp-a") == key1 {
		t.Error("different content should produce a different key")
	}
}

func TestLRUCacheSetGet(t *testing.T) {
	c := NewLRUCache(10, time.Minute)
	defer c.Close()

	key := ComputeKey([]byte("var x = 1;"), "fp")
	want := testFindings()

	if err := c.Set(key, want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, found, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("Get() found = false, want true")
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestLRUCacheMiss(t *testing.T) {
	c := NewLRUCache(10, time.Minute)
	defer c.Close()

	_, found, err := c.Get("missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Get() found = true for missing key")
	}

	stats := c.Stats()
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
}

func TestLRUCacheExpiration(t *testing.T) {
	c := NewLRUCache(10, 10*time.Millisecond)
	defer c.Close()

	_ = c.Set("key", testFindings())
	time.Sleep(20 * time.Millisecond)

	_, found, _ := c.Get("key")
	if found {
		t.Error("expired entry should not be returned")
	}
}

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache(2, time.Minute)
	defer c.Close()

	_ = c.Set("a", testFindings())
	_ = c.Set("b", testFindings())
	_ = c.Set("c", testFindings()) // Evicts "a"

	if _, found, _ := c.Get("a"); found {
		t.Error("oldest entry should have been evicted")
	}
	if _, found, _ := c.Get("c"); !found {
		t.Error("newest entry should still be present")
	}

	if stats := c.Stats(); stats.Entries != 2 {
		t.Errorf("Entries = %d, want 2", stats.Entries)
	}
}

func TestLRUCacheClear(t *testing.T) {
	c := NewLRUCache(10, time.Minute)
	defer c.Close()

	_ = c.Set("a", testFindings())
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	if _, found, _ := c.Get("a"); found {
		t.Error("cleared entry should not be returned")
	}
}

func TestLRUCacheEmptyFindings(t *testing.T) {
	c := NewLRUCache(10, time.Minute)
	defer c.Close()

	// A clean file caches an empty slice; the hit must still be a hit,
	// otherwise clean files would be rescanned every run.
	_ = c.Set("clean", []scanner.Finding{})

	got, found, err := c.Get("clean")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("empty findings should still be a cache hit")
	}
	if len(got) != 0 {
		t.Errorf("Get() = %+v, want empty", got)
	}
}

func TestBadgerCacheSetGet(t *testing.T) {
	c, err := NewBadgerCache(t.TempDir(), time.Minute)
	if err != nil {
		t.Fatalf("NewBadgerCache() error = %v", err)
	}
	defer c.Close()

	key := ComputeKey([]byte("console.log(1);"), "fp")
	want := testFindings()

	if err := c.Set(key, want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, found, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("Get() found = false, want true")
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestBadgerCacheMiss(t *testing.T) {
	c, err := NewBadgerCache(t.TempDir(), time.Minute)
	if err != nil {
		t.Fatalf("NewBadgerCache() error = %v", err)
	}
	defer c.Close()

	_, found, err := c.Get("missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Get() found = true for missing key")
	}
}

func TestBadgerCacheClear(t *testing.T) {
	c, err := NewBadgerCache(t.TempDir(), time.Minute)
	if err != nil {
		t.Fatalf("NewBadgerCache() error = %v", err)
	}
	defer c.Close()

	_ = c.Set("a", testFindings())
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	if _, found, _ := c.Get("a"); found {
		t.Error("cleared entry should not be returned")
	}
}

func TestNewBackendSelection(t *testing.T) {
	mem, err := New(BackendMemory, "", 10, time.Minute)
	if err != nil {
		t.Fatalf("New(memory) error = %v", err)
	}
	defer mem.Close()
	if _, ok := mem.(*LRUCache); !ok {
		t.Errorf("New(memory) = %T, want *LRUCache", mem)
	}

	bdg, err := New(BackendBadger, t.TempDir(), 10, time.Minute)
	if err != nil {
		t.Fatalf("New(badger) error = %v", err)
	}
	defer bdg.Close()
	if _, ok := bdg.(*BadgerCache); !ok {
		t.Errorf("New(badger) = %T, want *BadgerCache", bdg)
	}

	if _, err := New("redis", "", 10, time.Minute); err == nil {
		t.Error("New(redis) should fail for unknown backend")
	}
}

func BenchmarkLRUCacheGet(b *testing.B) {
	c := NewLRUCache(1000, time.Minute)
	defer c.Close()

	keys := make([]string, 100)
	for i := range keys {
		keys[i] = ComputeKey([]byte(fmt.Sprintf("content-%d", i)), "fp")
		_ = c.Set(keys[i], testFindings())
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = c.Get(keys[i%len(keys)])
	}
}

func BenchmarkComputeKey(b *testing.B) {
	content := []byte("var x = 1;\nconsole.log(x);\n")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ComputeKey(content, "fingerprint")
	}
}
