package scanner

import (
	"errors"
	"fmt"
)

// ErrInvalidInput reports that a scan was asked to run against input it
// cannot evaluate, such as a nil document. Callers distinguish this from a
// clean result: zero findings is a success, an error means the scan did
// not run.
var ErrInvalidInput = errors.New("invalid input")

// Finding is a single rule violation at a specific line.
type Finding struct {
	// Line is the 1-indexed line number in the scanned document. It is
	// always a valid index into the document's lines.
	Line int `json:"line"`

	// Column is the 1-indexed byte offset of the match start, when known.
	Column int `json:"column,omitempty"`

	RuleID     string   `json:"rule_id"`
	Message    string   `json:"message"`
	Severity   Severity `json:"severity"`
	Category   Category `json:"category"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// String renders the finding in the canonical single-file form.
func (f Finding) String() string {
	return fmt.Sprintf("%d: [%s] %s", f.Line, f.RuleID, f.Message)
}

// Scan evaluates the rules against every line of the document and returns
// the findings ordered by line, and by rule order within a line. Disabled
// rules are skipped. A rule fires at most once per line.
//
// Scan is deterministic and side-effect free. A nil document returns an
// error matching ErrInvalidInput; an empty document returns an empty,
// non-nil findings slice.
func Scan(doc *Document, rules []Rule) ([]Finding, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", ErrInvalidInput)
	}

	findings := []Finding{}

	for i, line := range doc.Lines {
		for j := range rules {
			rule := &rules[j]
			if !rule.Enabled {
				continue
			}

			re, err := rule.regex()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}

			loc := re.FindStringIndex(line)
			if loc == nil {
				continue
			}

			findings = append(findings, Finding{
				Line:       i + 1,
				Column:     loc[0] + 1,
				RuleID:     rule.ID,
				Message:    rule.Message,
				Severity:   rule.Severity,
				Category:   rule.Category,
				Suggestion: rule.Suggestion,
			})
		}
	}

	return findings, nil
}

// ScanSet is Scan over a rule set's enabled rules, in set order.
func ScanSet(doc *Document, set *RuleSet) ([]Finding, error) {
	if set == nil {
		return nil, fmt.Errorf("%w: rule set is nil", ErrInvalidInput)
	}
	return Scan(doc, set.Rules)
}
