package parser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/therealutkarshpriyadarshi/logcat/pkg/types"
)

// ErrNoMatch is returned when a line does not carry the structured logcat prefix.
// Callers are expected to drop such lines rather than treat them as failures.
var ErrNoMatch = errors.New("line does not match logcat prefix")

// Parser defines the interface for logcat line parsers
type Parser interface {
	// Parse turns one trimmed line into a LogRecord, or returns ErrNoMatch
	Parse(line string) (*types.LogRecord, error)

	// Name returns the parser name
	Name() string
}

// ParserType represents the supported line layouts
type ParserType string

const (
	ParserTypeTime       ParserType = "time"
	ParserTypeThreadtime ParserType = "threadtime"
	ParserTypeRegex      ParserType = "regex"
)

// ParserConfig holds parser configuration
type ParserConfig struct {
	Type         ParserType    `yaml:"type" validate:"oneof=time threadtime regex"`
	Pattern      string        `yaml:"pattern,omitempty" validate:"required_if=Type regex"` // For regex parsers, supports %{GROK} primitives
	Engine       Engine        `yaml:"engine,omitempty" validate:"omitempty,oneof=re2 backtracking"`
	MatchTimeout time.Duration `yaml:"match_timeout,omitempty" validate:"min=0"` // Backtracking engine only
}

// New creates a new parser based on the configuration
func New(cfg *ParserConfig) (Parser, error) {
	if cfg == nil {
		return nil, fmt.Errorf("parser configuration is nil")
	}

	switch cfg.Type {
	case ParserTypeTime, ParserTypeThreadtime:
		return NewLogcatParser(string(cfg.Type), namedFormats[string(cfg.Type)], cfg.Engine, cfg.MatchTimeout)
	case ParserTypeRegex:
		if cfg.Pattern == "" {
			return nil, fmt.Errorf("regex pattern is required")
		}
		return NewLogcatParser("regex", cfg.Pattern, cfg.Engine, cfg.MatchTimeout)
	default:
		return nil, fmt.Errorf("unknown parser type: %s", cfg.Type)
	}
}

// DefaultParserConfig returns the configuration for the classic "time" logcat layout
func DefaultParserConfig() *ParserConfig {
	return &ParserConfig{
		Type:   ParserTypeTime,
		Engine: EngineRE2,
	}
}

// ParseLevel maps a logcat priority letter (or a spelled-out level) to a Level
func ParseLevel(code string) (types.Level, bool) {
	switch code {
	case "E":
		return types.LevelError, true
	case "W":
		return types.LevelWarning, true
	case "I":
		return types.LevelInfo, true
	case "D":
		return types.LevelDebug, true
	case "V":
		return types.LevelVerbose, true
	}

	switch strings.ToLower(code) {
	case "error", "err":
		return types.LevelError, true
	case "warn", "warning":
		return types.LevelWarning, true
	case "info", "information":
		return types.LevelInfo, true
	case "debug":
		return types.LevelDebug, true
	case "verbose", "trace":
		return types.LevelVerbose, true
	default:
		return "", false
	}
}
