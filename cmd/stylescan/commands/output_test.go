package commands

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetectFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"report.json", "json"},
		{"report.sarif", "sarif"},
		{"report.md", "markdown"},
		{"report.markdown", "markdown"},
		{"report.txt", "text"},
		{"REPORT.JSON", "json"},
		{"report", ""},
		{"report.xml", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := DetectFormatFromPath(tt.path); got != tt.want {
			t.Errorf("DetectFormatFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestWriteOutputToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "report.txt")

	if err := WriteOutput("hello\n", path); err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != "hello\n" {
		t.Errorf("output = %q, want %q", string(data), "hello\n")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 80, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this is a longer message", 10, "this is..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
