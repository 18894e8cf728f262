package report

import (
	"fmt"

	"github.com/therealutkarshpriyadarshi/logcat/internal/analyzer"
)

// Format selects the report encoding
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatText, FormatJSON:
		return Format(name), nil
	default:
		return "", fmt.Errorf("unsupported report format: %s", name)
	}
}

// Render encodes a completed analysis in the requested format. Output is a pure
// function of the state: identical input yields byte-identical reports.
func Render(state *analyzer.State, format Format) ([]byte, error) {
	switch format {
	case FormatText:
		return RenderText(state), nil
	case FormatJSON:
		return Build(state).Encode()
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}
