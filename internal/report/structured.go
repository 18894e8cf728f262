package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jmespath/go-jmespath"

	"github.com/therealutkarshpriyadarshi/logcat/internal/analyzer"
	"github.com/therealutkarshpriyadarshi/logcat/pkg/types"
)

// Summary holds the aggregate counters of a run
type Summary struct {
	TotalEntries int `json:"total_entries"`
	TotalErrors  int `json:"total_errors"`
	ANRCount     int `json:"anr_count"`
}

// Structured is the machine-readable report
type Structured struct {
	Summary          Summary           `json:"summary"`
	ErrorsByCategory map[string]int    `json:"errorsByCategory"`
	ANRDetails       []types.ANRDetail `json:"anrDetails"`
}

// Build assembles the structured report from a completed analysis
func Build(state *analyzer.State) *Structured {
	counts := make(map[string]int)
	for category, n := range state.CategoryCounts() {
		counts[string(category)] = n
	}

	return &Structured{
		Summary: Summary{
			TotalEntries: state.TotalEntries(),
			TotalErrors:  state.ErrorCount,
			ANRCount:     len(state.ANREvents),
		},
		ErrorsByCategory: counts,
		ANRDetails:       state.ANRDetails(),
	}
}

// Encode serializes the report as indented UTF-8 JSON. Map keys are emitted in
// sorted order.
func (s *Structured) Encode() ([]byte, error) {
	return encodeJSON(s)
}

// Query evaluates a JMESPath expression against the report and returns the
// result as indented JSON
func (s *Structured) Query(expr string) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}

	result, err := jmespath.Search(expr, doc)
	if err != nil {
		return nil, fmt.Errorf("jmespath search failed: %w", err)
	}

	return encodeJSON(result)
}

func encodeJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return buf.Bytes(), nil
}
