package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Layout whitespace: ASCII space, the \v and \x1c-\x1f separators, NEL and
// every Unicode separator (NBSP included). Both engines accept this syntax.
const (
	SpaceClass    = `[\s\x0b\x1c-\x1f\x85\p{Z}]`
	NonSpaceClass = `[^\s\x0b\x1c-\x1f\x85\p{Z}]`
)

// IsSpace reports whether r is whitespace in the sense of SpaceClass
func IsSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// Grok primitives used to assemble logcat layouts
var grokPatterns = map[string]string{
	"DIGITS":           `\d+`,
	"NOTSPACE":         NonSpaceClass + `+`,
	"SPACE":            SpaceClass + `*`,
	"WS":               SpaceClass + `+`,
	"DATA":             `.*?`,
	"GREEDYDATA":       `.*`,
	"MESSAGE":          `.+`,
	"LOGCAT_DATE":      `\d{2}-\d{2}`,
	"LOGCAT_TIME":      `\d{2}:\d{2}:\d{2}\.\d{3}`,
	"LOGCAT_TIMESTAMP": `%{LOGCAT_DATE}%{WS}%{LOGCAT_TIME}`,
	"LOGCAT_LEVEL":     `[EWIDV]`,
	"LOGCAT_TAG":       NonSpaceClass + `(?:.*?` + NonSpaceClass + `)?`,
}

// Built-in logcat layouts, keyed by ParserType
var namedFormats = map[string]string{
	// 01-15 10:23:45.123 E/Bluetooth( 1234): message
	"time": `^%{LOGCAT_TIMESTAMP:timestamp}%{WS}%{LOGCAT_LEVEL:level}/%{NOTSPACE:tag}%{SPACE}\(%{SPACE}(?:%{DIGITS:pid})?%{SPACE}\):%{WS}%{MESSAGE:message}$`,
	// 01-15 10:23:45.123  1234  5678 E Bluetooth: message
	"threadtime": `^%{LOGCAT_TIMESTAMP:timestamp}%{WS}%{DIGITS:pid}%{WS}%{DIGITS:tid}%{WS}%{LOGCAT_LEVEL:level}%{WS}%{LOGCAT_TAG:tag}%{SPACE}:%{WS}%{MESSAGE:message}$`,
}

var grokRef = regexp.MustCompile(`%\{([A-Z0-9_]+)(?::([a-z0-9_]+))?\}`)

// expandGrokPattern expands grok pattern syntax to regex
func expandGrokPattern(pattern string) (string, error) {
	// Pattern syntax: %{PATTERN:field_name} or %{PATTERN}
	expanded := pattern
	maxIterations := 100 // Prevent infinite loops

	for i := 0; i < maxIterations; i++ {
		matches := grokRef.FindAllStringSubmatch(expanded, -1)
		if len(matches) == 0 {
			return expanded, nil
		}

		for _, match := range matches {
			patternName := match[1]
			fieldName := match[2]

			replacement, ok := grokPatterns[patternName]
			if !ok {
				return "", fmt.Errorf("unknown grok pattern: %s", patternName)
			}

			if fieldName != "" {
				replacement = fmt.Sprintf("(?P<%s>%s)", fieldName, replacement)
			}

			expanded = strings.Replace(expanded, match[0], replacement, 1)
		}
	}

	return "", fmt.Errorf("grok pattern nesting exceeds %d levels", maxIterations)
}

// AvailableFormats returns the names of the built-in logcat layouts
func AvailableFormats() []string {
	names := make([]string, 0, len(namedFormats))
	for name := range namedFormats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
