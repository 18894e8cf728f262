package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Output defines the interface for report destinations
type Output interface {
	// Write delivers a rendered report to the destination
	Write(ctx context.Context, report []byte) error

	// Close releases resources held by the output
	Close() error

	// Name returns a human readable destination name
	Name() string

	// Metrics returns what this output has delivered so far
	Metrics() *OutputMetrics
}

// OutputMetrics tracks what an output has delivered
type OutputMetrics struct {
	ReportsWritten int64         `json:"reports_written"`
	ReportsFailed  int64         `json:"reports_failed"`
	BytesWritten   int64         `json:"bytes_written"`
	LastWriteTime  time.Time     `json:"last_write_time"`
	LastError      string        `json:"last_error,omitempty"`
	LastErrorTime  time.Time     `json:"last_error_time,omitempty"`
	LastLatency    time.Duration `json:"last_latency"`
}

// Config describes where a report goes
type Config struct {
	// Path is the destination file; empty or "-" means standard output
	Path string `yaml:"path,omitempty"`

	// Compression specifies the compression algorithm
	Compression CompressionType `yaml:"compression,omitempty"`
}

// DefaultConfig writes uncompressed reports to standard output
func DefaultConfig() Config {
	return Config{Compression: CompressionNone}
}

// New builds the output for cfg. stdout receives the report when no path
// is configured.
func New(cfg Config, stdout io.Writer) (Output, error) {
	compressor, err := GetCompressor(cfg.Compression)
	if err != nil {
		return nil, err
	}

	if cfg.Path == "" || cfg.Path == "-" {
		return NewWriterOutput("stdout", stdout, compressor), nil
	}
	return NewFileOutput(cfg.Path, compressor), nil
}

// baseOutput is not safe for concurrent use
type baseOutput struct {
	compressor Compressor
	metrics    OutputMetrics
}

func (b *baseOutput) encode(report []byte) ([]byte, error) {
	return b.compressor.Compress(report)
}

func (b *baseOutput) recordSuccess(n int, start time.Time) {
	b.metrics.ReportsWritten++
	b.metrics.BytesWritten += int64(n)
	b.metrics.LastWriteTime = time.Now()
	b.metrics.LastLatency = time.Since(start)
}

func (b *baseOutput) recordFailure(err error) {
	b.metrics.ReportsFailed++
	b.metrics.LastError = err.Error()
	b.metrics.LastErrorTime = time.Now()
}

func (b *baseOutput) Metrics() *OutputMetrics {
	m := b.metrics
	return &m
}

// WriterOutput writes reports to an io.Writer
type WriterOutput struct {
	baseOutput
	name string
	w    io.Writer
}

// NewWriterOutput creates an output that writes to w
func NewWriterOutput(name string, w io.Writer, compressor Compressor) *WriterOutput {
	if compressor == nil {
		compressor = &NoneCompressor{}
	}
	return &WriterOutput{
		baseOutput: baseOutput{compressor: compressor},
		name:       name,
		w:          w,
	}
}

func (o *WriterOutput) Write(ctx context.Context, report []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()

	data, err := o.encode(report)
	if err != nil {
		o.recordFailure(err)
		return fmt.Errorf("failed to compress report: %w", err)
	}

	n, err := o.w.Write(data)
	if err != nil {
		o.recordFailure(err)
		return fmt.Errorf("failed to write report to %s: %w", o.name, err)
	}

	o.recordSuccess(n, start)
	return nil
}

func (o *WriterOutput) Close() error {
	return nil
}

func (o *WriterOutput) Name() string {
	return o.name
}

// FileOutput replaces the destination file atomically on every write
type FileOutput struct {
	baseOutput
	path string
}

// NewFileOutput creates an output that writes to path
func NewFileOutput(path string, compressor Compressor) *FileOutput {
	if compressor == nil {
		compressor = &NoneCompressor{}
	}
	return &FileOutput{
		baseOutput: baseOutput{compressor: compressor},
		path:       path,
	}
}

func (o *FileOutput) Write(ctx context.Context, report []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()

	data, err := o.encode(report)
	if err != nil {
		o.recordFailure(err)
		return fmt.Errorf("failed to compress report: %w", err)
	}

	if err := writeFileAtomic(o.path, data); err != nil {
		o.recordFailure(err)
		return err
	}

	o.recordSuccess(len(data), start)
	return nil
}

func (o *FileOutput) Close() error {
	return nil
}

func (o *FileOutput) Name() string {
	return o.path
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place, so readers never observe a partial report.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output %s: %w", path, err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write output %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync output %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close output %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set permissions on output %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace output %s: %w", path, err)
	}
	return nil
}
