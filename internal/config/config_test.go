package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/therealutkarshpriyadarshi/logcat/internal/classifier"
	"github.com/therealutkarshpriyadarshi/logcat/internal/output"
	"github.com/therealutkarshpriyadarshi/logcat/internal/parser"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: debug
  format: json

input:
  path: /data/logcat.txt.gz
  compression: gzip

parser:
  type: threadtime
  engine: backtracking
  match_timeout: 250ms

classifier:
  cache_size: 128

output:
  path: /data/report.json
  format: json
  query: summary.anr_count

metrics:
  enabled: true
  textfile: /data/logcat.prom

tracing:
  enabled: true
  endpoint: localhost:4317

profiling:
  cpu_profile: /data/cpu.prof
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Logging.Level)
	}
	if cfg.Input.Compression != output.CompressionGzip {
		t.Errorf("Expected gzip input, got %s", cfg.Input.Compression)
	}
	if cfg.Parser.Type != parser.ParserTypeThreadtime {
		t.Errorf("Expected threadtime parser, got %s", cfg.Parser.Type)
	}
	if cfg.Parser.Engine != parser.EngineBacktracking {
		t.Errorf("Expected backtracking engine, got %s", cfg.Parser.Engine)
	}
	if cfg.Parser.MatchTimeout != 250*time.Millisecond {
		t.Errorf("Expected match timeout 250ms, got %v", cfg.Parser.MatchTimeout)
	}
	if cfg.Classifier.CacheSize != 128 {
		t.Errorf("Expected cache size 128, got %d", cfg.Classifier.CacheSize)
	}
	if cfg.Output.Query != "summary.anr_count" {
		t.Errorf("Expected query to be loaded, got %q", cfg.Output.Query)
	}
	if cfg.Output.Compression != output.CompressionNone {
		t.Errorf("Expected default output compression none, got %s", cfg.Output.Compression)
	}
	if cfg.Metrics.Textfile != "/data/logcat.prom" {
		t.Errorf("Expected metrics textfile, got %q", cfg.Metrics.Textfile)
	}
	if cfg.Profiling.CPUProfilePath != "/data/cpu.prof" {
		t.Errorf("Expected cpu profile path, got %q", cfg.Profiling.CPUProfilePath)
	}
	if cfg.Tracing.SampleRate != DefaultTracingSampleRate {
		t.Errorf("Expected default sample rate %v, got %v", DefaultTracingSampleRate, cfg.Tracing.SampleRate)
	}
}

func TestLoadConfigWithEnvVars(t *testing.T) {
	t.Setenv("LOGCAT_LOG_LEVEL", "error")
	t.Setenv("LOGCAT_REPORT", "/tmp/report.txt")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: ${LOGCAT_LOG_LEVEL}

output:
  path: ${LOGCAT_REPORT}
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "error" {
		t.Errorf("Expected log level error (from env var), got %s", cfg.Logging.Level)
	}
	if cfg.Classifier.CacheSize != classifier.DefaultCacheSize {
		t.Errorf("Expected default cache size %d, got %d", classifier.DefaultCacheSize, cfg.Classifier.CacheSize)
	}
	if cfg.Output.Path != "/tmp/report.txt" {
		t.Errorf("Expected output path from env var, got %s", cfg.Output.Path)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := Load(filepath.Join(tmpDir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	badYAML := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(badYAML, []byte("logging: [unclosed"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	if _, err := Load(badYAML); err == nil {
		t.Error("expected error for malformed yaml")
	}

	invalid := filepath.Join(tmpDir, "invalid.yaml")
	if err := os.WriteFile(invalid, []byte("parser:\n  type: xml\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	if _, err := Load(invalid); err == nil {
		t.Error("expected validation error for unknown parser type")
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "defaults",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: true,
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: true,
		},
		{
			name:    "invalid input compression",
			mutate:  func(c *Config) { c.Input.Compression = "zstd" },
			wantErr: true,
		},
		{
			name:    "regex without pattern",
			mutate:  func(c *Config) { c.Parser = parser.ParserConfig{Type: parser.ParserTypeRegex} },
			wantErr: true,
		},
		{
			name: "regex with pattern",
			mutate: func(c *Config) {
				c.Parser = parser.ParserConfig{Type: parser.ParserTypeRegex, Pattern: `^(?P<timestamp>\S+) (?P<level>\w)/(?P<tag>\S+): (?P<message>.+)$`}
			},
			wantErr: false,
		},
		{
			name:    "unknown engine",
			mutate:  func(c *Config) { c.Parser.Engine = "pcre" },
			wantErr: true,
		},
		{
			name:    "negative match timeout",
			mutate:  func(c *Config) { c.Parser.MatchTimeout = -time.Second },
			wantErr: true,
		},
		{
			name:    "negative cache size",
			mutate:  func(c *Config) { c.Classifier.CacheSize = -1 },
			wantErr: true,
		},
		{
			name:    "cache disabled",
			mutate:  func(c *Config) { c.Classifier.CacheSize = 0 },
			wantErr: false,
		},
		{
			name:    "invalid output format",
			mutate:  func(c *Config) { c.Output.Format = "html" },
			wantErr: true,
		},
		{
			name:    "lz4 output",
			mutate:  func(c *Config) { c.Output.Compression = output.CompressionType("lz4") },
			wantErr: true,
		},
		{
			name:    "query with text format",
			mutate:  func(c *Config) { c.Output.Query = "summary" },
			wantErr: true,
		},
		{
			name: "query with json format",
			mutate: func(c *Config) {
				c.Output.Format = "json"
				c.Output.Query = "summary"
			},
			wantErr: false,
		},
		{
			name:    "textfile without metrics",
			mutate:  func(c *Config) { c.Metrics.Textfile = "out.prom" },
			wantErr: true,
		},
		{
			name: "shared profile path",
			mutate: func(c *Config) {
				c.Profiling.CPUProfilePath = "run.prof"
				c.Profiling.MemProfilePath = "run.prof"
			},
			wantErr: true,
		},
		{
			name: "sample rate out of range",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.SampleRate = 2
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			cfg.applyDefaults()
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}

	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("Expected default log level %s, got %s", DefaultLogLevel, cfg.Logging.Level)
	}

	if cfg.Parser.Type != parser.ParserTypeTime {
		t.Errorf("Expected default parser time, got %s", cfg.Parser.Type)
	}

	if cfg.Output.Format != DefaultOutputFormat {
		t.Errorf("Expected default output format %s, got %s", DefaultOutputFormat, cfg.Output.Format)
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault(\"\") error = %v", err)
	}
	if cfg.Output.Format != DefaultOutputFormat {
		t.Errorf("expected default config, got format %s", cfg.Output.Format)
	}

	if _, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestValidateMessages(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{
			name:   "oneof names the yaml path",
			mutate: func(c *Config) { c.Output.Format = "html" },
			want:   "invalid output.format: html (must be one of: text, json)",
		},
		{
			name:   "required_if",
			mutate: func(c *Config) { c.Parser.Type = parser.ParserTypeRegex },
			want:   "parser.pattern is required when Type regex",
		},
		{
			name:   "min",
			mutate: func(c *Config) { c.Classifier.CacheSize = -5 },
			want:   "invalid classifier.cache_size: -5 (min 0)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() error = %q, want %q", err.Error(), tt.want)
			}
		})
	}
}
