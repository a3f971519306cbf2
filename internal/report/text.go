package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/stylescan/stylescan/internal/engine"
)

// TextReporter renders findings one per line:
//
//	<line>: [<ruleId>] <message>
//
// When the result covers more than one file, each line is prefixed with
// its path so the output stays unambiguous.
type TextReporter struct {
	// Summary appends a totals footer after the findings.
	Summary bool
}

func (r *TextReporter) Format() string { return "text" }

func (r *TextReporter) Generate(result *engine.Result) (string, error) {
	var sb strings.Builder
	if err := r.Write(result, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (r *TextReporter) Write(result *engine.Result, w io.Writer) error {
	multiFile := len(result.Files) > 1

	for _, file := range result.Files {
		for _, f := range file.Findings {
			if multiFile {
				fmt.Fprintf(w, "%s:%d: [%s] %s\n", file.Path, f.Line, f.RuleID, f.Message)
			} else {
				fmt.Fprintf(w, "%d: [%s] %s\n", f.Line, f.RuleID, f.Message)
			}
		}
	}

	if r.Summary {
		r.writeSummary(result, w)
	}

	return nil
}

func (r *TextReporter) writeSummary(result *engine.Result, w io.Writer) {
	fmt.Fprintf(w, "\n%d finding(s) in %d file(s) (%v)\n",
		result.TotalFindings, result.FilesScanned, result.Duration.Round(timeRound))

	if len(result.BySeverity) == 0 {
		return
	}

	var parts []string
	for _, sev := range []string{"critical", "error", "warning", "info"} {
		if n := result.BySeverity[sev]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, sev))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(w, "  %s\n", strings.Join(parts, ", "))
	}
}
