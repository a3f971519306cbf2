package rules

import (
	"fmt"
	"sort"

	"github.com/stylescan/stylescan/internal/scanner"
)

// Preset selects a subset of the defined rules by ID.
type Preset struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Includes    []string `yaml:"includes" json:"includes"` // Empty means all
	Excludes    []string `yaml:"excludes" json:"excludes"`
}

// DefaultPreset is applied when configuration names none.
const DefaultPreset = "standard"

func builtinPresets() map[string]*Preset {
	return map[string]*Preset{
		"standard": {
			Name:        "standard",
			Description: "The core style rules",
			Includes:    []string{"no-mutable-decl", "no-debug-print"},
		},
		"strict": {
			Name:        "strict",
			Description: "Every defined rule",
		},
		"minimal": {
			Name:        "minimal",
			Description: "Only the checks that block a release",
			Includes:    []string{"hardcoded-secret"},
		},
	}
}

// LoadPreset returns a built-in preset by name.
func LoadPreset(name string) (*Preset, error) {
	preset, ok := builtinPresets()[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset: %s", name)
	}
	return preset, nil
}

// PresetNames lists the built-in preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, 3)
	for name := range builtinPresets() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPreset filters rules through a preset, preserving rule order. A nil
// preset returns the input unchanged.
func ApplyPreset(rules []scanner.Rule, preset *Preset) []scanner.Rule {
	if preset == nil {
		return rules
	}

	var filtered []scanner.Rule
	for _, rule := range rules {
		if containsFold(preset.Excludes, rule.ID) {
			continue
		}
		if len(preset.Includes) > 0 && !containsFold(preset.Includes, rule.ID) {
			continue
		}
		filtered = append(filtered, rule)
	}
	return filtered
}
