// Package rules owns rule definitions: the embedded defaults, custom rule
// files, presets, and the filtering that decides which rules apply to a
// given document.
package rules

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stylescan/stylescan/internal/scanner"
)

//go:embed defaults/*.yaml
var embeddedRules embed.FS

// Loader loads rule definitions from the embedded defaults and an optional
// custom rule file.
type Loader struct {
	customFile string
}

// NewLoader creates a loader. customFile may be empty.
func NewLoader(customFile string) *Loader {
	return &Loader{customFile: customFile}
}

// Load returns all defined rules in definition order: embedded defaults
// first, then custom rules. A custom rule that reuses a built-in ID
// replaces the built-in in place, keeping its position in the order.
func (l *Loader) Load() ([]scanner.Rule, error) {
	all, err := loadEmbedded()
	if err != nil {
		return nil, fmt.Errorf("loading embedded rules: %w", err)
	}

	if l.customFile != "" {
		custom, err := loadFile(l.customFile)
		if err != nil {
			return nil, fmt.Errorf("loading custom rules: %w", err)
		}
		all = mergeRules(all, custom)
	}

	return all, nil
}

func loadEmbedded() ([]scanner.Rule, error) {
	entries, err := embeddedRules.ReadDir("defaults")
	if err != nil {
		return nil, err
	}

	// ReadDir sorts lexically; default files carry numeric prefixes so
	// core rules always come first.
	var all []scanner.Rule
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		data, err := embeddedRules.ReadFile("defaults/" + entry.Name())
		if err != nil {
			return nil, err
		}

		rules, err := parseRulesYAML(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", entry.Name(), err)
		}
		all = append(all, rules...)
	}

	return all, nil
}

func loadFile(path string) ([]scanner.Rule, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from config
	if err != nil {
		return nil, err
	}

	rules, err := parseRulesYAML(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return rules, nil
}

func parseRulesYAML(data []byte) ([]scanner.Rule, error) {
	var set scanner.RuleSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, err
	}

	for _, r := range set.Rules {
		if r.ID == "" {
			return nil, fmt.Errorf("rule with empty id")
		}
		if r.Pattern == "" {
			return nil, fmt.Errorf("rule %s: empty pattern", r.ID)
		}
	}

	return set.Rules, nil
}

// mergeRules overlays custom rules onto base: same ID replaces in place,
// new IDs append in their own order.
func mergeRules(base, custom []scanner.Rule) []scanner.Rule {
	index := make(map[string]int, len(base))
	for i, r := range base {
		index[r.ID] = i
	}

	merged := make([]scanner.Rule, len(base))
	copy(merged, base)

	for _, r := range custom {
		if i, ok := index[r.ID]; ok {
			merged[i] = r
			continue
		}
		merged = append(merged, r)
	}

	return merged
}
