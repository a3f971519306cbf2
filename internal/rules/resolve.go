package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/stylescan/stylescan/internal/scanner"
)

// ResolveOptions selects and shapes the active rule set.
type ResolveOptions struct {
	// Preset names a built-in preset; empty means DefaultPreset.
	Preset string

	// CustomFile points at a YAML rule set merged over the defaults.
	CustomFile string

	// Enable and Disable flip individual rules by ID after preset
	// selection. Disable wins.
	Enable  []string
	Disable []string
}

// Resolve loads, selects, and compiles the active rule set. The returned
// set is ready for scanning: all patterns compiled, order fixed.
func Resolve(opts ResolveOptions) (*scanner.RuleSet, error) {
	all, err := NewLoader(opts.CustomFile).Load()
	if err != nil {
		return nil, err
	}

	name := opts.Preset
	if name == "" {
		name = DefaultPreset
	}
	preset, err := LoadPreset(name)
	if err != nil {
		return nil, err
	}

	selected := ApplyPreset(all, preset)
	selected = ApplyOverrides(selected, opts.Enable, opts.Disable)

	set := &scanner.RuleSet{
		Name:        name,
		Description: preset.Description,
		Rules:       selected,
	}
	if err := set.Compile(); err != nil {
		return nil, fmt.Errorf("compiling rules: %w", err)
	}

	return set, nil
}

// Fingerprint digests rule identity, pattern, severity, and enablement
// in order. Cache keys include it so editing a rule invalidates cached
// findings.
func Fingerprint(rules []scanner.Rule) string {
	h := sha256.New()
	for _, r := range rules {
		fmt.Fprintf(h, "%s|%s|%s|%t\n", r.ID, r.Pattern, r.Severity, r.Enabled)
	}
	return hex.EncodeToString(h.Sum(nil))
}
