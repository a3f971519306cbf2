package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stylescan/stylescan/internal/scanner"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	all, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(all) < 2 {
		t.Fatalf("Load() returned %d rules, want at least 2", len(all))
	}

	// Core rules come first, in their fixed order.
	if all[0].ID != "no-mutable-decl" {
		t.Errorf("rules[0].ID = %q, want %q", all[0].ID, "no-mutable-decl")
	}
	if all[1].ID != "no-debug-print" {
		t.Errorf("rules[1].ID = %q, want %q", all[1].ID, "no-debug-print")
	}

	for _, r := range all {
		if r.Pattern == "" {
			t.Errorf("rule %s has empty pattern", r.ID)
		}
		if r.Message == "" {
			t.Errorf("rule %s has empty message", r.ID)
		}
	}
}

func TestResolveStandardPreset(t *testing.T) {
	set, err := Resolve(ResolveOptions{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if len(set.Rules) != 2 {
		t.Fatalf("standard preset has %d rules, want 2", len(set.Rules))
	}
	if set.Rules[0].ID != "no-mutable-decl" || set.Rules[1].ID != "no-debug-print" {
		t.Errorf("standard preset order = [%s, %s], want [no-mutable-decl, no-debug-print]",
			set.Rules[0].ID, set.Rules[1].ID)
	}
}

func TestResolveStrictPresetIncludesSupplemental(t *testing.T) {
	set, err := Resolve(ResolveOptions{Preset: "strict"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	ids := make(map[string]bool)
	for _, r := range set.Rules {
		ids[r.ID] = true
	}

	for _, want := range []string{"no-mutable-decl", "no-debug-print", "no-print-call", "no-todo-comment", "no-wildcard-import", "hardcoded-secret"} {
		if !ids[want] {
			t.Errorf("strict preset missing rule %s", want)
		}
	}
}

func TestResolveMinimalPreset(t *testing.T) {
	set, err := Resolve(ResolveOptions{Preset: "minimal"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if len(set.Rules) != 1 || set.Rules[0].ID != "hardcoded-secret" {
		t.Errorf("minimal preset = %v, want only hardcoded-secret", ruleIDs(set.Rules))
	}
}

func TestResolveUnknownPreset(t *testing.T) {
	if _, err := Resolve(ResolveOptions{Preset: "nonsense"}); err == nil {
		t.Fatal("Resolve() error = nil, want error for unknown preset")
	}
}

func TestResolveDisableOverride(t *testing.T) {
	set, err := Resolve(ResolveOptions{Disable: []string{"no-debug-print"}})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	for _, r := range set.Rules {
		if r.ID == "no-debug-print" && r.Enabled {
			t.Error("no-debug-print still enabled after disable override")
		}
	}
}

func TestResolveCustomFileOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")

	custom := `name: custom
rules:
  - id: no-debug-print
    pattern: '\bconsole\.(log|debug)\s*\('
    message: "Remove console output"
    category: style
    severity: error
    enabled: true
  - id: no-alert
    pattern: '\balert\s*\('
    message: "Remove alert call"
    category: style
    severity: warning
    enabled: true
`
	if err := os.WriteFile(path, []byte(custom), 0o600); err != nil {
		t.Fatal(err)
	}

	set, err := Resolve(ResolveOptions{Preset: "strict", CustomFile: path})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	var overridden, appended bool
	for i, r := range set.Rules {
		if r.ID == "no-debug-print" {
			overridden = r.Severity == scanner.SeverityError
			if i != 1 {
				t.Errorf("overridden rule moved to position %d, want 1", i)
			}
		}
		if r.ID == "no-alert" {
			appended = true
		}
	}

	if !overridden {
		t.Error("custom rule did not override built-in no-debug-print")
	}
	if !appended {
		t.Error("custom rule no-alert was not appended")
	}
}

func TestResolveCustomFileInvalidPattern(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")

	custom := `rules:
  - id: broken
    pattern: '[unclosed'
    message: "nope"
    enabled: true
`
	if err := os.WriteFile(path, []byte(custom), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Resolve(ResolveOptions{Preset: "strict", CustomFile: path}); err == nil {
		t.Fatal("Resolve() error = nil, want compile error for broken pattern")
	}
}

func TestForFileLanguageFilter(t *testing.T) {
	all, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	jsRules := ForFile(all, "javascript", "app.js")
	for _, r := range jsRules {
		if r.ID == "no-print-call" {
			t.Error("python-only rule applied to javascript file")
		}
	}

	pyRules := ForFile(all, "python", "app.py")
	var hasPrint bool
	for _, r := range pyRules {
		if r.ID == "no-print-call" {
			hasPrint = true
		}
	}
	if !hasPrint {
		t.Error("no-print-call not applied to python file")
	}

	// Core rules carry no language list and apply everywhere.
	var hasCore bool
	for _, r := range ForFile(all, "ruby", "app.rb") {
		if r.ID == "no-mutable-decl" {
			hasCore = true
		}
	}
	if !hasCore {
		t.Error("no-mutable-decl should apply to every language")
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"app.js", "javascript"},
		{"app.mjs", "javascript"},
		{"component.tsx", "typescript"},
		{"main.py", "python"},
		{"main.go", "go"},
		{"script.sh", "shell"},
		{"data.xyz", "xyz"},
		{"Makefile", ""},
	}

	for _, tt := range tests {
		if got := DetectLanguage(tt.path); got != tt.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestFingerprintChangesWithRules(t *testing.T) {
	base, err := Resolve(ResolveOptions{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	fp1 := Fingerprint(base.Rules)
	if len(fp1) != 64 {
		t.Errorf("Fingerprint length = %d, want 64", len(fp1))
	}

	if fp2 := Fingerprint(base.Rules); fp2 != fp1 {
		t.Error("Fingerprint not stable across calls")
	}

	changed := make([]scanner.Rule, len(base.Rules))
	copy(changed, base.Rules)
	changed[0].Pattern = `\blet\b`
	if Fingerprint(changed) == fp1 {
		t.Error("Fingerprint unchanged after pattern edit")
	}
}

func TestPresetNames(t *testing.T) {
	names := PresetNames()
	if len(names) != 3 {
		t.Fatalf("PresetNames() = %v, want 3 names", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i] < names[i-1] {
			t.Errorf("PresetNames() not sorted: %v", names)
		}
	}
}

func TestStandardSetEndToEnd(t *testing.T) {
	set, err := Resolve(ResolveOptions{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"mutable decl", "var x = 1;", []string{"no-mutable-decl"}},
		{"debug print", `console.log("hi");`, []string{"no-debug-print"}},
		{"both on one line", `var y = console.log("x");`, []string{"no-mutable-decl", "no-debug-print"}},
		{"clean let", "let x = 1;", nil},
		{"clean const", "const s = 'ok';", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := scanner.NewDocument("a.js", tt.content)
			findings, err := scanner.ScanSet(doc, set)
			if err != nil {
				t.Fatalf("ScanSet() error = %v", err)
			}
			if len(findings) != len(tt.want) {
				t.Fatalf("got %d findings %v, want %d", len(findings), findings, len(tt.want))
			}
			for i, id := range tt.want {
				if findings[i].RuleID != id {
					t.Errorf("findings[%d].RuleID = %q, want %q", i, findings[i].RuleID, id)
				}
			}
		})
	}
}

func ruleIDs(rules []scanner.Rule) []string {
	ids := make([]string, len(rules))
	for i, r := range rules {
		ids[i] = r.ID
	}
	return ids
}
