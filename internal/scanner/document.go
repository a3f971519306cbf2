// Package scanner implements the line-oriented style scanning core.
//
// A Document is an ordered list of source lines; rules are regular
// expressions evaluated against one line at a time. Scan is pure: it never
// mutates its inputs, performs no I/O, and produces the same findings for
// the same document and rule set on every call.
package scanner

import (
	"fmt"
	"os"
	"strings"
)

// Document is a source file split into lines. Line numbers reported in
// findings are 1-indexed positions into Lines.
type Document struct {
	// Path identifies the document in reports. It may be empty for
	// in-memory content.
	Path string

	// Lines holds the document content, one entry per line, without
	// trailing newline characters.
	Lines []string
}

// NewDocument builds a Document from raw content. Content is split on
// newlines; a trailing carriage return is stripped from each line so CRLF
// input scans identically to LF input. Empty content yields a document
// with zero lines.
func NewDocument(path, content string) *Document {
	if content == "" {
		return &Document{Path: path, Lines: []string{}}
	}

	lines := strings.Split(content, "\n")

	// A trailing newline produces a phantom empty element; drop it so
	// line counts match what editors show.
	if n := len(lines); n > 1 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	return &Document{Path: path, Lines: lines}
}

// ReadDocument loads a document from disk.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from CLI args
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return NewDocument(path, string(data)), nil
}

// LineCount returns the number of lines in the document.
func (d *Document) LineCount() int {
	if d == nil {
		return 0
	}
	return len(d.Lines)
}

// Line returns the content of the 1-indexed line n and whether n is a
// valid line number for this document.
func (d *Document) Line(n int) (string, bool) {
	if d == nil || n < 1 || n > len(d.Lines) {
		return "", false
	}
	return d.Lines[n-1], true
}
