package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/stylescan/stylescan/internal/engine"
	"github.com/stylescan/stylescan/internal/scanner"
)

// MarkdownReporter generates Markdown reports.
type MarkdownReporter struct{}

func (r *MarkdownReporter) Format() string { return "markdown" }

func (r *MarkdownReporter) Generate(result *engine.Result) (string, error) {
	var sb strings.Builder
	_ = r.Write(result, &sb)
	return sb.String(), nil
}

func (r *MarkdownReporter) Write(result *engine.Result, w io.Writer) error {
	// Header
	fmt.Fprintf(w, "# Style Scan Report\n\n")

	// Summary
	fmt.Fprintf(w, "## Summary\n\n")
	fmt.Fprintf(w, "- **Files Scanned:** %d\n", result.FilesScanned)
	fmt.Fprintf(w, "- **Total Findings:** %d\n", result.TotalFindings)
	fmt.Fprintf(w, "- **Duration:** %s\n", result.Duration.Round(timeRound))
	if result.Preset != "" {
		fmt.Fprintf(w, "- **Preset:** %s\n", result.Preset)
	}
	if result.Git != nil {
		fmt.Fprintf(w, "- **Branch:** %s (%s)\n", result.Git.Branch, result.Git.Commit)
	}
	fmt.Fprintf(w, "\n")

	if result.TotalFindings == 0 {
		fmt.Fprintf(w, "No findings.\n")
		return nil
	}

	// Severity breakdown
	if len(result.BySeverity) > 0 {
		fmt.Fprintf(w, "| Severity | Count |\n")
		fmt.Fprintf(w, "| --- | --- |\n")
		for _, sev := range []string{"critical", "error", "warning", "info"} {
			if n := result.BySeverity[sev]; n > 0 {
				fmt.Fprintf(w, "| %s | %d |\n", sev, n)
			}
		}
		fmt.Fprintf(w, "\n")
	}

	// Findings by file
	fmt.Fprintf(w, "## Findings\n\n")

	for _, file := range result.Files {
		if len(file.Findings) == 0 {
			continue
		}

		fmt.Fprintf(w, "### %s\n\n", file.Path)

		if file.Cached {
			fmt.Fprintf(w, "_Cached result_\n\n")
		}

		for _, f := range file.Findings {
			r.writeFinding(w, f)
		}
	}

	return nil
}

func (r *MarkdownReporter) writeFinding(w io.Writer, f scanner.Finding) {
	fmt.Fprintf(w, "- %s **Line %d** `%s`: %s\n", severityTag(f.Severity), f.Line, f.RuleID, f.Message)
	if f.Suggestion != "" {
		fmt.Fprintf(w, "  - Suggestion: %s\n", f.Suggestion)
	}
}

func severityTag(severity scanner.Severity) string {
	switch severity {
	case scanner.SeverityCritical:
		return "[CRITICAL]"
	case scanner.SeverityError:
		return "[ERROR]"
	case scanner.SeverityWarning:
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}
