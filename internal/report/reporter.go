// Package report renders scan results in the supported output formats.
package report

import (
	"fmt"
	"io"

	"github.com/stylescan/stylescan/internal/engine"
)

// Reporter defines the interface for generating scan reports.
type Reporter interface {
	// Generate creates a report from scan results.
	Generate(result *engine.Result) (string, error)

	// Write writes the report to a writer.
	Write(result *engine.Result, w io.Writer) error

	// Format returns the format name.
	Format() string
}

// NewReporter creates a reporter for the given format.
func NewReporter(format string) (Reporter, error) {
	switch format {
	case "text", "":
		return &TextReporter{}, nil
	case "json":
		return &JSONReporter{Indent: true}, nil
	case "sarif":
		return &SARIFReporter{}, nil
	case "markdown", "md":
		return &MarkdownReporter{}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// AvailableFormats returns the list of supported formats.
func AvailableFormats() []string {
	return []string{"text", "json", "sarif", "markdown"}
}
