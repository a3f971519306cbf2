package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/stylescan/stylescan/internal/engine"
)

// timeRound is the precision durations are reported with.
const timeRound = time.Millisecond

// JSONReporter generates JSON reports.
type JSONReporter struct {
	Indent bool
}

func (r *JSONReporter) Format() string { return "json" }

// jsonReport wraps the result with a schema version and timestamp so
// consumers can detect format changes.
type jsonReport struct {
	Version     string         `json:"version"`
	GeneratedAt time.Time      `json:"generated_at"`
	Result      *engine.Result `json:"result"`
}

func (r *JSONReporter) Generate(result *engine.Result) (string, error) {
	report := jsonReport{
		Version:     "1",
		GeneratedAt: time.Now().UTC(),
		Result:      result,
	}

	var data []byte
	var err error
	if r.Indent {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (r *JSONReporter) Write(result *engine.Result, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if r.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(jsonReport{
		Version:     "1",
		GeneratedAt: time.Now().UTC(),
		Result:      result,
	})
}
