package scanner

import (
	"fmt"
	"regexp"
)

// Severity indicates how serious a finding is.
type Severity string

// Severity levels, lowest to highest.
const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Level returns the numeric rank of the severity, for threshold
// comparisons. Unknown severities rank lowest.
func (s Severity) Level() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityError:
		return 2
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 0
	default:
		return -1
	}
}

// Category groups rules by the kind of problem they detect.
type Category string

// Rule categories.
const (
	CategoryStyle           Category = "style"
	CategorySecurity        Category = "security"
	CategoryMaintainability Category = "maintainability"
)

// Rule is a single style rule: a regular expression evaluated against each
// line of a document. Patterns use word boundaries for whole-token
// matching, so "var" never fires inside "variable".
type Rule struct {
	ID         string   `yaml:"id" json:"id"`
	Pattern    string   `yaml:"pattern" json:"pattern"`
	Message    string   `yaml:"message" json:"message"`
	Suggestion string   `yaml:"suggestion,omitempty" json:"suggestion,omitempty"`
	Category   Category `yaml:"category" json:"category"`
	Severity   Severity `yaml:"severity" json:"severity"`

	// Languages limits the rule to specific languages. Empty means the
	// rule applies to every document.
	Languages []string `yaml:"languages,omitempty" json:"languages,omitempty"`

	// Patterns limits the rule to files whose base name matches one of
	// these globs. Empty means no restriction.
	Patterns []string `yaml:"patterns,omitempty" json:"patterns,omitempty"`

	Enabled bool `yaml:"enabled" json:"enabled"`

	re *regexp.Regexp
}

// Compile validates and caches the rule's pattern. Rules loaded through
// the rules package arrive compiled; Scan compiles transiently otherwise.
func (r *Rule) Compile() error {
	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		return fmt.Errorf("rule %s: invalid pattern %q: %w", r.ID, r.Pattern, err)
	}
	r.re = re
	return nil
}

// regex returns the compiled pattern, compiling on the spot when the rule
// was built by hand. The transient compile does not mutate the rule.
func (r *Rule) regex() (*regexp.Regexp, error) {
	if r.re != nil {
		return r.re, nil
	}
	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		return nil, fmt.Errorf("rule %s: invalid pattern %q: %w", r.ID, r.Pattern, err)
	}
	return re, nil
}

// RuleSet is an ordered collection of rules. Order is significant: when
// several rules fire on the same line, findings follow rule-set order.
type RuleSet struct {
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Rules       []Rule `yaml:"rules" json:"rules"`
}

// Compile compiles every rule in the set, failing on the first invalid
// pattern.
func (rs *RuleSet) Compile() error {
	for i := range rs.Rules {
		if err := rs.Rules[i].Compile(); err != nil {
			return err
		}
	}
	return nil
}

// Enabled returns the enabled rules, preserving order.
func (rs *RuleSet) Enabled() []Rule {
	out := make([]Rule, 0, len(rs.Rules))
	for _, r := range rs.Rules {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}
