package rules

import (
	"path/filepath"
	"strings"

	"github.com/stylescan/stylescan/internal/scanner"
)

// ForFile returns the rules that apply to a file in the given language,
// preserving order. Disabled rules are dropped; a rule with no language
// list applies to every file.
func ForFile(rules []scanner.Rule, language, path string) []scanner.Rule {
	var filtered []scanner.Rule

	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		if len(rule.Languages) > 0 && !containsFold(rule.Languages, language) {
			continue
		}
		if len(rule.Patterns) > 0 && !matchesAnyPattern(rule.Patterns, path) {
			continue
		}
		filtered = append(filtered, rule)
	}

	return filtered
}

// ApplyOverrides flips the Enabled flag per config enable/disable lists.
// Disable wins when an ID appears in both.
func ApplyOverrides(rules []scanner.Rule, enable, disable []string) []scanner.Rule {
	out := make([]scanner.Rule, len(rules))
	copy(out, rules)

	for i := range out {
		if containsFold(enable, out[i].ID) {
			out[i].Enabled = true
		}
		if containsFold(disable, out[i].ID) {
			out[i].Enabled = false
		}
	}
	return out
}

// BySeverity returns rules at or above the given severity.
func BySeverity(rules []scanner.Rule, min scanner.Severity) []scanner.Rule {
	var filtered []scanner.Rule
	for _, rule := range rules {
		if rule.Severity.Level() >= min.Level() {
			filtered = append(filtered, rule)
		}
	}
	return filtered
}

// DetectLanguage maps a file path to the language name rules filter on.
func DetectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".js", ".mjs", ".cjs", ".jsx":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	case ".py":
		return "python"
	case ".go":
		return "go"
	case ".rb":
		return "ruby"
	case ".java":
		return "java"
	case ".sh", ".bash":
		return "shell"
	default:
		return strings.TrimPrefix(ext, ".")
	}
}

func containsFold(slice []string, s string) bool {
	for _, item := range slice {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

func matchesAnyPattern(patterns []string, path string) bool {
	for _, pattern := range patterns {
		matched, _ := filepath.Match(pattern, filepath.Base(path))
		if matched {
			return true
		}
	}
	return false
}
