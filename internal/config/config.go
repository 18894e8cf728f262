package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/therealutkarshpriyadarshi/logcat/internal/classifier"
	"github.com/therealutkarshpriyadarshi/logcat/internal/output"
	"github.com/therealutkarshpriyadarshi/logcat/internal/parser"
	"github.com/therealutkarshpriyadarshi/logcat/internal/profiling"
)

// Config represents the analyzer configuration
type Config struct {
	Logging    LoggingConfig       `yaml:"logging"`
	Input      InputConfig         `yaml:"input"`
	Parser     parser.ParserConfig `yaml:"parser"`
	Classifier ClassifierConfig    `yaml:"classifier"`
	Output     OutputConfig        `yaml:"output"`
	Metrics    MetricsConfig       `yaml:"metrics"`
	Tracing    TracingConfig       `yaml:"tracing"`
	Profiling  profiling.Config    `yaml:"profiling"`
}

// LoggingConfig holds diagnostic logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error fatal disabled"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// InputConfig defines the logcat source
type InputConfig struct {
	Path        string                 `yaml:"path,omitempty"` // empty or "-" reads stdin
	Compression output.CompressionType `yaml:"compression,omitempty" validate:"oneof=auto none gzip snappy"`
}

// ClassifierConfig tunes error classification
type ClassifierConfig struct {
	CacheSize int `yaml:"cache_size" validate:"min=0"` // distinct subjects memoized, 0 disables
}

// OutputConfig defines where and how the report is written
type OutputConfig struct {
	Path        string                 `yaml:"path,omitempty"`
	Format      string                 `yaml:"format" validate:"oneof=text json"`
	Compression output.CompressionType `yaml:"compression,omitempty" validate:"oneof=none gzip snappy"`
	Query       string                 `yaml:"query,omitempty"` // JMESPath over the JSON report
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Textfile string `yaml:"textfile,omitempty"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint,omitempty"`
	SampleRate float64 `yaml:"sample_rate,omitempty" validate:"min=0,max=1"`
}

// Default values
const (
	DefaultLogLevel          = "warn"
	DefaultLogFormat         = "console"
	DefaultOutputFormat      = "text"
	DefaultInputCompression  = "auto"
	DefaultTracingSampleRate = 1.0
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their YAML path rather than their Go name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Load loads configuration from a YAML file with environment variable overrides
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := []byte(os.ExpandEnv(string(data)))

	cfg := Config{
		Classifier: ClassifierConfig{CacheSize: classifier.DefaultCacheSize},
	}
	if err := yaml.Unmarshal(expandedData, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for unspecified configuration
func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Input.Compression == "" {
		c.Input.Compression = DefaultInputCompression
	}
	if c.Parser.Type == "" {
		c.Parser.Type = parser.ParserTypeTime
	}
	if c.Parser.Engine == "" {
		c.Parser.Engine = parser.EngineRE2
	}
	if c.Output.Format == "" {
		c.Output.Format = DefaultOutputFormat
	}
	if c.Output.Compression == "" {
		c.Output.Compression = output.CompressionNone
	}
	if c.Tracing.Enabled && c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = DefaultTracingSampleRate
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return describe(fieldErrs[0])
		}
		return err
	}

	if c.Output.Query != "" && c.Output.Format != "json" {
		return fmt.Errorf("query requires json output format")
	}

	if c.Metrics.Textfile != "" && !c.Metrics.Enabled {
		return fmt.Errorf("metrics textfile requires metrics to be enabled")
	}

	if c.Profiling.CPUProfilePath != "" && c.Profiling.CPUProfilePath == c.Profiling.MemProfilePath {
		return fmt.Errorf("cpu and memory profiles must use different paths")
	}

	return nil
}

// describe turns a validator failure into a message naming the YAML field
func describe(fe validator.FieldError) error {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")

	switch fe.Tag() {
	case "oneof":
		return fmt.Errorf("invalid %s: %v (must be one of: %s)", field, fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "required_if":
		return fmt.Errorf("%s is required when %s", field, fe.Param())
	case "min", "max":
		return fmt.Errorf("invalid %s: %v (%s %s)", field, fe.Value(), fe.Tag(), fe.Param())
	default:
		return fmt.Errorf("invalid %s: %v (failed %s)", field, fe.Value(), fe.Tag())
	}
}

// LoadOrDefault loads configuration from file, or returns the default
// configuration when path is empty
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	return Load(path)
}

// DefaultConfig returns a default configuration: classic time layout read
// from stdin, text report on stdout
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Input: InputConfig{
			Compression: DefaultInputCompression,
		},
		Parser: *parser.DefaultParserConfig(),
		Classifier: ClassifierConfig{
			CacheSize: classifier.DefaultCacheSize,
		},
		Output: OutputConfig{
			Format:      DefaultOutputFormat,
			Compression: output.CompressionNone,
		},
	}
}
