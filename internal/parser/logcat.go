package parser

import (
	"fmt"
	"time"

	"github.com/therealutkarshpriyadarshi/logcat/pkg/types"
)

// Named groups a layout may capture, in the order engines report them
var layoutFields = []string{"timestamp", "level", "tag", "pid", "message"}

const (
	fieldTimestamp = iota
	fieldLevel
	fieldTag
	fieldPID
	fieldMessage
)

// Field names every layout must capture
var requiredFields = []string{"timestamp", "level", "tag", "message"}

// LogcatParser parses logcat lines using a compiled layout pattern
type LogcatParser struct {
	name   string
	engine layoutEngine
}

// NewLogcatParser compiles a layout (grok primitives allowed) with the given
// engine. timeout only applies to EngineBacktracking; zero selects
// DefaultMatchTimeout.
func NewLogcatParser(name, layout string, engine Engine, timeout time.Duration) (*LogcatParser, error) {
	if layout == "" {
		return nil, fmt.Errorf("layout pattern for %s parser is empty", name)
	}

	expanded, err := expandGrokPattern(layout)
	if err != nil {
		return nil, fmt.Errorf("failed to expand layout pattern: %w", err)
	}

	e, err := compileLayout(engine, expanded, layoutFields, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to compile layout pattern: %w", err)
	}

	for _, field := range requiredFields {
		if !e.has(field) {
			return nil, fmt.Errorf("layout pattern is missing named group %q", field)
		}
	}

	return &LogcatParser{
		name:   name,
		engine: e,
	}, nil
}

// Parse matches the whole line against the layout. Lines that do not match,
// carry an unknown level or an empty tag yield ErrNoMatch. A backtracking
// layout that exceeds its timeout yields an error wrapping ErrMatchTimeout.
func (p *LogcatParser) Parse(line string) (*types.LogRecord, error) {
	if line == "" {
		return nil, ErrNoMatch
	}

	fields, ok, err := p.engine.find(line)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoMatch
	}

	level, ok := ParseLevel(fields[fieldLevel])
	if !ok {
		return nil, ErrNoMatch
	}

	tag := fields[fieldTag]
	if tag == "" {
		return nil, ErrNoMatch
	}

	return &types.LogRecord{
		Timestamp: fields[fieldTimestamp],
		Level:     level,
		Tag:       tag,
		PID:       fields[fieldPID],
		Message:   fields[fieldMessage],
		Raw:       line,
	}, nil
}

// Name returns the parser name
func (p *LogcatParser) Name() string {
	return p.name
}
