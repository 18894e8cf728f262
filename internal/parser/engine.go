package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// Engine selects the regular expression implementation behind a layout
type Engine string

const (
	// EngineRE2 is the linear-time standard library engine
	EngineRE2 Engine = "re2"
	// EngineBacktracking supports lookarounds and backreferences, bounded by a match timeout
	EngineBacktracking Engine = "backtracking"
)

// DefaultMatchTimeout bounds a single backtracking match
const DefaultMatchTimeout = 100 * time.Millisecond

// ErrMatchTimeout is returned when a backtracking match exceeds its timeout
var ErrMatchTimeout = errors.New("layout match timed out")

// layoutEngine finds the named groups of a layout in a line
type layoutEngine interface {
	// find returns the text of each requested group in the order passed to
	// compile. Groups the layout lacks come back empty. ok is false when the
	// line does not match.
	find(line string) (fields []string, ok bool, err error)
	has(name string) bool
}

func compileLayout(engine Engine, expanded string, names []string, timeout time.Duration) (layoutEngine, error) {
	switch engine {
	case EngineRE2, "":
		return compileRE2(expanded, names)
	case EngineBacktracking:
		return compileBacktracking(expanded, names, timeout)
	default:
		return nil, fmt.Errorf("unknown regex engine: %s", engine)
	}
}

type re2Engine struct {
	re      *regexp.Regexp
	indexes []int
}

func compileRE2(expanded string, names []string) (*re2Engine, error) {
	re, err := regexp.Compile(expanded)
	if err != nil {
		return nil, err
	}

	e := &re2Engine{re: re, indexes: make([]int, len(names))}
	for i, name := range names {
		e.indexes[i] = re.SubexpIndex(name)
	}
	return e, nil
}

func (e *re2Engine) find(line string) ([]string, bool, error) {
	match := e.re.FindStringSubmatch(line)
	if match == nil {
		return nil, false, nil
	}

	fields := make([]string, len(e.indexes))
	for i, idx := range e.indexes {
		if idx >= 0 {
			fields[i] = match[idx]
		}
	}
	return fields, true, nil
}

func (e *re2Engine) has(name string) bool {
	return e.re.SubexpIndex(name) >= 0
}

type backtrackingEngine struct {
	re      *regexp2.Regexp
	numbers []int
}

func compileBacktracking(expanded string, names []string, timeout time.Duration) (*backtrackingEngine, error) {
	// Accept the Python-style named group syntax that grok expansion emits.
	re, err := regexp2.Compile(strings.ReplaceAll(expanded, "(?P<", "(?<"), regexp2.None)
	if err != nil {
		return nil, err
	}

	if timeout <= 0 {
		timeout = DefaultMatchTimeout
	}
	re.MatchTimeout = timeout

	e := &backtrackingEngine{re: re, numbers: make([]int, len(names))}
	for i, name := range names {
		e.numbers[i] = re.GroupNumberFromName(name)
	}
	return e, nil
}

func (e *backtrackingEngine) find(line string) ([]string, bool, error) {
	m, err := e.re.FindStringMatch(line)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrMatchTimeout, err)
	}
	if m == nil {
		return nil, false, nil
	}

	fields := make([]string, len(e.numbers))
	for i, n := range e.numbers {
		if n < 0 {
			continue
		}
		if g := m.GroupByNumber(n); g != nil && len(g.Captures) > 0 {
			fields[i] = g.String()
		}
	}
	return fields, true, nil
}

func (e *backtrackingEngine) has(name string) bool {
	return e.re.GroupNumberFromName(name) >= 0
}
