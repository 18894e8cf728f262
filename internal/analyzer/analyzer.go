package analyzer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/therealutkarshpriyadarshi/logcat/internal/classifier"
	"github.com/therealutkarshpriyadarshi/logcat/internal/logging"
	"github.com/therealutkarshpriyadarshi/logcat/internal/metrics"
	"github.com/therealutkarshpriyadarshi/logcat/internal/parser"
	"github.com/therealutkarshpriyadarshi/logcat/internal/tracing"
	"github.com/therealutkarshpriyadarshi/logcat/pkg/types"
)

// Analyzer owns the state of one analysis pass. It is not safe for concurrent use;
// build a new Analyzer for every input.
type Analyzer struct {
	parser     parser.Parser
	classifier *classifier.Classifier
	logger     *logging.Logger
	metrics    *metrics.Collector

	records    []*types.LogRecord
	byCategory map[types.Category][]types.CategorizedError
	anr        []*types.LogRecord
	errorCount int
	stats      types.RunStats
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithLogger sets the logger used for pass diagnostics
func WithLogger(logger *logging.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger.WithComponent("analyzer")
	}
}

// WithMetrics records ingestion counters on the given collector
func WithMetrics(c *metrics.Collector) Option {
	return func(a *Analyzer) {
		a.metrics = c
	}
}

// New creates an empty Analyzer
func New(p parser.Parser, c *classifier.Classifier, opts ...Option) *Analyzer {
	a := &Analyzer{
		parser:     p,
		classifier: c,
		byCategory: make(map[types.Category][]types.CategorizedError),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logging.Global().WithComponent("analyzer")
	}
	return a
}

// NewDefault creates an Analyzer for the classic logcat layout and built-in taxonomy
func NewDefault(opts ...Option) (*Analyzer, error) {
	p, err := parser.New(parser.DefaultParserConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create parser: %w", err)
	}
	return New(p, classifier.NewDefault(), opts...), nil
}

// Ingest processes one raw input line. Blank lines and lines without the logcat
// prefix are ignored.
func (a *Analyzer) Ingest(line string) {
	a.stats.LinesRead++
	if a.metrics != nil {
		a.metrics.LinesRead.Inc()
	}

	line = strings.TrimFunc(line, parser.IsSpace)
	if line == "" {
		a.stats.Blank++
		return
	}

	record, err := a.parser.Parse(line)
	if err != nil {
		if !errors.Is(err, parser.ErrNoMatch) {
			a.logger.Warn().Err(err).Msg("Unexpected parser error")
		}
		a.stats.Dropped++
		if a.metrics != nil {
			a.metrics.LinesDropped.Inc()
		}
		return
	}

	a.stats.Parsed++
	a.records = append(a.records, record)
	if a.metrics != nil {
		a.metrics.RecordsParsed.WithLabelValues(string(record.Level)).Inc()
	}

	if record.IsError() {
		a.errorCount++
		category := a.classifier.Classify(record)
		a.byCategory[category] = append(a.byCategory[category], types.CategorizedError{
			Record:   record,
			Category: category,
		})
		if a.metrics != nil {
			a.metrics.ErrorsCategorized.WithLabelValues(string(category)).Inc()
		}
	}

	if record.IsANR() {
		a.anr = append(a.anr, record)
		if a.metrics != nil {
			a.metrics.ANREvents.Inc()
		}
	}
}

// scanLines splits on "\n", "\r\n" and a bare "\r", so captures saved with
// any line ending produce the same records.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		// A trailing '\r' may be the first half of "\r\n".
		if !atEOF {
			return 0, nil, nil
		}
		return i + 1, data[:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// IngestReader streams every line of r through Ingest. Lines may be of any length
// and end in "\n", "\r\n" or "\r". Read failures abort the pass and are returned
// to the caller.
func (a *Analyzer) IngestReader(ctx context.Context, r io.Reader) error {
	start := time.Now()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), math.MaxInt)
	scanner.Split(scanLines)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.Ingest(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		tracing.RecordError(ctx, err)
		return fmt.Errorf("failed to read input: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	elapsed := time.Since(start)
	if a.metrics != nil {
		a.metrics.IngestDuration.Observe(elapsed.Seconds())
	}

	tracing.SetAttributes(ctx,
		attribute.Int64("lines.read", a.stats.LinesRead),
		attribute.Int64("lines.dropped", a.stats.Dropped),
		attribute.Int("records.total", len(a.records)),
		attribute.Int("errors.total", a.errorCount),
		attribute.Int("anr.total", len(a.anr)),
	)

	a.logger.Debug().
		Int64("lines", a.stats.LinesRead).
		Int64("parsed", a.stats.Parsed).
		Int64("dropped", a.stats.Dropped).
		Int("errors", a.errorCount).
		Int("anr", len(a.anr)).
		Dur("elapsed", elapsed).
		Msg("Ingestion complete")

	return nil
}

// Stats returns the line counters of the pass so far
func (a *Analyzer) Stats() types.RunStats {
	return a.stats
}

// State returns the accumulated analysis. The analyzer must not be fed further
// lines once the state has been handed to a renderer.
func (a *Analyzer) State() *State {
	return &State{
		Records:          a.records,
		ErrorsByCategory: a.byCategory,
		ANREvents:        a.anr,
		ErrorCount:       a.errorCount,
	}
}
