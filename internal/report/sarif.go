package report

import (
	"encoding/json"
	"io"

	"github.com/stylescan/stylescan/internal/engine"
	"github.com/stylescan/stylescan/internal/scanner"
)

// SARIFReporter generates SARIF 2.1.0 reports for code-scanning upload.
type SARIFReporter struct{}

func (r *SARIFReporter) Format() string { return "sarif" }

// SARIF types
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description struct {
		Text string `json:"text"`
	} `json:"shortDescription"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation struct {
		ArtifactLocation struct {
			URI string `json:"uri"`
		} `json:"artifactLocation"`
		Region *sarifRegion `json:"region,omitempty"`
	} `json:"physicalLocation"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn,omitempty"`
}

func (r *SARIFReporter) Generate(result *engine.Result) (string, error) {
	report := r.buildReport(result)
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (r *SARIFReporter) Write(result *engine.Result, w io.Writer) error {
	report := r.buildReport(result)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func (r *SARIFReporter) buildReport(result *engine.Result) *sarifReport {
	report := &sarifReport{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{
				Driver: sarifDriver{
					Name:    "stylescan",
					Version: "1.0.0",
					Rules:   collectRules(result),
				},
			},
			Results: []sarifResult{},
		}},
	}

	for _, file := range result.Files {
		for _, f := range file.Findings {
			res := sarifResult{
				RuleID:  f.RuleID,
				Level:   r.mapLevel(f.Severity),
				Message: sarifMessage{Text: f.Message},
			}

			loc := sarifLocation{}
			loc.PhysicalLocation.ArtifactLocation.URI = file.Path
			loc.PhysicalLocation.Region = &sarifRegion{
				StartLine:   f.Line,
				StartColumn: f.Column,
			}
			res.Locations = append(res.Locations, loc)

			report.Runs[0].Results = append(report.Runs[0].Results, res)
		}
	}

	return report
}

// collectRules lists every rule that produced a finding, for the tool
// driver metadata.
func collectRules(result *engine.Result) []sarifRule {
	seen := make(map[string]bool)
	var out []sarifRule

	for _, file := range result.Files {
		for _, f := range file.Findings {
			if seen[f.RuleID] {
				continue
			}
			seen[f.RuleID] = true

			rule := sarifRule{ID: f.RuleID, Name: f.RuleID}
			rule.Description.Text = f.Message
			out = append(out, rule)
		}
	}

	return out
}

func (r *SARIFReporter) mapLevel(severity scanner.Severity) string {
	switch severity {
	case scanner.SeverityCritical, scanner.SeverityError:
		return "error"
	case scanner.SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}
