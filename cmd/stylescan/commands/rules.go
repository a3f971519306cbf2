package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stylescan/stylescan/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the active style rules",
	Long: `List the rules that would apply to a scan, after preset
selection and custom rule files.

Examples:
  # List the rules of the standard preset
  stylescan rules

  # List the strict preset
  stylescan rules --preset strict

  # List the available presets
  stylescan rules --presets

  # Machine-readable output
  stylescan rules --json`,
	Args: cobra.NoArgs,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)

	rulesCmd.Flags().String("preset", "", "Rule preset (minimal, standard, strict)")
	rulesCmd.Flags().String("rules", "", "Custom rule file merged over the built-ins")
	rulesCmd.Flags().Bool("presets", false, "List available presets instead of rules")
	rulesCmd.Flags().Bool("json", false, "output as JSON")
}

func runRules(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	if listPresets, _ := cmd.Flags().GetBool("presets"); listPresets {
		return outputPresets(asJSON)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("preset") {
		cfg.Rules.Preset, _ = cmd.Flags().GetString("preset")
	}
	if cmd.Flags().Changed("rules") {
		cfg.Rules.CustomFile, _ = cmd.Flags().GetString("rules")
	}

	set, err := rules.Resolve(rules.ResolveOptions{
		Preset:     cfg.Rules.Preset,
		CustomFile: cfg.Rules.CustomFile,
		Enable:     cfg.Rules.Enabled,
		Disable:    cfg.Rules.Disabled,
	})
	if err != nil {
		return fmt.Errorf("resolving rules: %w", err)
	}

	active := set.Enabled()
	if asJSON {
		data, err := json.MarshalIndent(active, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling rules: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Active rules (%s preset, %d rules):\n\n", cfg.Rules.Preset, len(active))
	for _, r := range active {
		fmt.Printf("  %-25s %-8s %s\n", r.ID, r.Severity, r.Message)
	}
	fmt.Printf("\nFingerprint: %s\n", rules.Fingerprint(active))
	return nil
}

func outputPresets(asJSON bool) error {
	names := rules.PresetNames()

	if asJSON {
		data, err := json.MarshalIndent(names, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling presets: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println("Available presets:")
	for _, name := range names {
		preset, err := rules.LoadPreset(name)
		if err != nil {
			return err
		}
		fmt.Printf("  %-10s %s\n", preset.Name, preset.Description)
	}
	return nil
}
