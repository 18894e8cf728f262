package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/therealutkarshpriyadarshi/logcat/internal/analyzer"
	"github.com/therealutkarshpriyadarshi/logcat/internal/classifier"
	"github.com/therealutkarshpriyadarshi/logcat/internal/config"
	"github.com/therealutkarshpriyadarshi/logcat/internal/input"
	"github.com/therealutkarshpriyadarshi/logcat/internal/logging"
	"github.com/therealutkarshpriyadarshi/logcat/internal/metrics"
	"github.com/therealutkarshpriyadarshi/logcat/internal/output"
	"github.com/therealutkarshpriyadarshi/logcat/internal/parser"
	"github.com/therealutkarshpriyadarshi/logcat/internal/profiling"
	"github.com/therealutkarshpriyadarshi/logcat/internal/report"
	"github.com/therealutkarshpriyadarshi/logcat/internal/tracing"
)

const (
	appName = "logcat-analyzer"
	version = "0.3.0"

	shutdownTimeout = 5 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options holds the command line, before it is merged into the config
type options struct {
	input            string
	output           string
	json             bool
	configFile       string
	format           string
	engine           string
	inputCompression string
	compress         string
	query            string
	metricsFile      string
	logLevel         string
	logFormat        string
	cpuProfile       string
	memProfile       string
	showVersion      bool
	printSchema      bool

	set map[string]bool
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{set: make(map[string]bool)}

	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] [input]\n\n", appName)
		fmt.Fprintln(fs.Output(), "Analyze an Android logcat capture. Reads stdin when input is omitted or \"-\".")
		fmt.Fprintln(fs.Output())
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.output, "o", "", "Write the report to this file instead of stdout")
	fs.StringVar(&opts.output, "output", "", "Write the report to this file instead of stdout")
	fs.BoolVar(&opts.json, "json", false, "Emit the structured JSON report")
	fs.StringVar(&opts.configFile, "config", "", "Path to configuration file")
	fs.StringVar(&opts.format, "format", "", "Logcat line layout: "+strings.Join(parser.AvailableFormats(), ", ")+", or regex with parser.pattern from -config")
	fs.StringVar(&opts.engine, "engine", "", "Regex engine for the layout: re2 or backtracking")
	fs.StringVar(&opts.inputCompression, "input-compression", "", "Input compression: auto, none, gzip or snappy")
	fs.StringVar(&opts.compress, "compress", "", "Compress the written report: none, gzip or snappy")
	fs.StringVar(&opts.query, "query", "", "JMESPath expression applied to the JSON report")
	fs.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	fs.StringVar(&opts.logLevel, "log-level", "", "Diagnostic log level: debug, info, warn, error or disabled")
	fs.StringVar(&opts.logFormat, "log-format", "", "Diagnostic log format: console or json")
	fs.StringVar(&opts.cpuProfile, "cpuprofile", "", "Write a CPU profile of the run to this file")
	fs.StringVar(&opts.memProfile, "memprofile", "", "Write a heap profile at the end of the run to this file")
	fs.BoolVar(&opts.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&opts.printSchema, "print-schema", false, "Print the JSON schema of the structured report and exit")

	// Flags may follow the positional input, so keep parsing after each one.
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		positional = append(positional, args[0])
		args = args[1:]
	}

	if len(positional) > 1 {
		return nil, fmt.Errorf("expected at most one input, got %d", len(positional))
	}
	if len(positional) == 1 {
		opts.input = positional[0]
		opts.set["input"] = true
	}

	fs.Visit(func(f *flag.Flag) {
		opts.set[f.Name] = true
	})

	return opts, nil
}

// loadConfig reads the config file, if any, and applies command line overrides
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(opts.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.set["input"] {
		cfg.Input.Path = opts.input
	}
	if opts.set["o"] || opts.set["output"] {
		cfg.Output.Path = opts.output
	}
	if opts.json {
		cfg.Output.Format = string(report.FormatJSON)
	}
	if opts.set["format"] {
		cfg.Parser.Type = parser.ParserType(opts.format)
	}
	if opts.set["engine"] {
		cfg.Parser.Engine = parser.Engine(opts.engine)
	}
	if opts.set["input-compression"] {
		cfg.Input.Compression = output.CompressionType(opts.inputCompression)
	}
	if opts.set["compress"] {
		cfg.Output.Compression = output.CompressionType(opts.compress)
	}
	if opts.set["query"] {
		cfg.Output.Query = opts.query
	}
	if opts.set["metrics-file"] {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Textfile = opts.metricsFile
	}
	if opts.set["log-level"] {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.set["log-format"] {
		cfg.Logging.Format = opts.logFormat
	}
	if opts.set["cpuprofile"] {
		cfg.Profiling.CPUProfilePath = opts.cpuProfile
	}
	if opts.set["memprofile"] {
		cfg.Profiling.MemProfilePath = opts.memProfile
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseArgs(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if opts.showVersion {
		fmt.Fprintf(stdout, "%s %s\n", appName, version)
		return nil
	}

	if opts.printSchema {
		_, err := stdout.Write(report.JSONSchema)
		return err
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	runID := uuid.New().String()

	// Initialize logger
	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}).WithField("run_id", runID)
	logging.SetGlobal(logger)

	logger.Info().Str("version", version).Msg("Starting logcat analysis")

	// Initialize tracing
	provider, err := tracing.NewProvider(ctx, tracing.Config{
		Enabled:    cfg.Tracing.Enabled,
		Endpoint:   cfg.Tracing.Endpoint,
		SampleRate: cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Failed to flush traces")
		}
	}()
	tracer := provider.Tracer()

	if cfg.Profiling.Enabled() {
		profiler := profiling.New(cfg.Profiling, logger)
		if err := profiler.Start(); err != nil {
			return err
		}
		defer func() {
			if err := profiler.Stop(); err != nil {
				logger.Warn().Err(err).Msg("Failed to save profiles")
			}
		}()
	}

	var collector *metrics.Collector
	analyzerOpts := []analyzer.Option{analyzer.WithLogger(logger)}
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector()
		analyzerOpts = append(analyzerOpts, analyzer.WithMetrics(collector))
	}

	// Create parser
	p, err := parser.New(&cfg.Parser)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}
	logger.Debug().Str("parser", p.Name()).Msg("Parser initialized")

	c, err := classifier.New(classifier.DefaultRules(), classifier.WithCacheSize(cfg.Classifier.CacheSize))
	if err != nil {
		return fmt.Errorf("failed to create classifier: %w", err)
	}

	a := analyzer.New(p, c, analyzerOpts...)

	if err := ingest(ctx, tracer, a, cfg, p.Name(), runID); err != nil {
		return err
	}

	state := a.State()
	stats := a.Stats()
	logger.Info().
		Int64("lines", stats.LinesRead).
		Int64("dropped", stats.Dropped).
		Int("entries", state.TotalEntries()).
		Int("errors", state.ErrorCount).
		Int("anr", len(state.ANREvents)).
		Int("cached_subjects", c.CachedSubjects()).
		Msg("Analysis complete")

	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	data, err := render(ctx, tracer, collector, state, format, cfg.Output.Query)
	if err != nil {
		return err
	}

	// Metrics are exported even when delivery fails, so the failure is counted.
	writeErr := write(ctx, tracer, logger, collector, format, data, cfg.Output, stdout)

	if collector != nil && cfg.Metrics.Textfile != "" {
		if err := collector.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			if writeErr != nil {
				logger.Warn().Err(err).Msg("Failed to export metrics")
				return writeErr
			}
			return err
		}
		logger.Debug().Str("path", cfg.Metrics.Textfile).Msg("Metrics textfile written")
	}

	return writeErr
}

func ingest(ctx context.Context, tracer trace.Tracer, a *analyzer.Analyzer, cfg *config.Config, parserName, runID string) error {
	src, err := input.Open(cfg.Input.Path, cfg.Input.Compression)
	if err != nil {
		return err
	}
	defer src.Close()

	ctx, span := tracing.TraceIngest(ctx, tracer, src.Name, parserName)
	defer span.End()
	tracing.SetAttributes(ctx,
		attribute.String("run.id", runID),
		attribute.String("input.compression", string(src.Compression)),
	)

	if err := a.IngestReader(ctx, src); err != nil {
		return fmt.Errorf("failed to analyze %s: %w", src.Name, err)
	}
	return nil
}

func render(ctx context.Context, tracer trace.Tracer, collector *metrics.Collector, state *analyzer.State, format report.Format, query string) ([]byte, error) {
	ctx, span := tracing.TraceRender(ctx, tracer, string(format))
	defer span.End()

	start := time.Now()

	var (
		data []byte
		err  error
	)
	if query != "" {
		data, err = report.Build(state).Query(query)
	} else {
		data, err = report.Render(state, format)
	}
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	if collector != nil {
		collector.RenderDuration.WithLabelValues(string(format)).Observe(time.Since(start).Seconds())
	}
	return data, nil
}

func write(ctx context.Context, tracer trace.Tracer, logger *logging.Logger, collector *metrics.Collector, format report.Format, data []byte, cfg config.OutputConfig, stdout io.Writer) error {
	out, err := output.New(output.Config{
		Path:        cfg.Path,
		Compression: cfg.Compression,
	}, stdout)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer out.Close()

	ctx, span := tracing.TraceWrite(ctx, tracer, out.Name(), len(data))
	defer span.End()

	err = out.Write(ctx, data)
	observeWrite(collector, logger, out, format)
	if err != nil {
		tracing.RecordError(ctx, err)
		return err
	}
	return nil
}

// observeWrite feeds the delivery counters of out into the run's metrics
func observeWrite(collector *metrics.Collector, logger *logging.Logger, out output.Output, format report.Format) {
	m := out.Metrics()
	if collector != nil {
		collector.ReportBytes.WithLabelValues(string(format)).Add(float64(m.BytesWritten))
		collector.ReportWriteFailures.Add(float64(m.ReportsFailed))
	}

	if m.ReportsFailed > 0 {
		logger.Debug().
			Str("destination", out.Name()).
			Str("error", m.LastError).
			Time("at", m.LastErrorTime).
			Msg("Report delivery failed")
		return
	}
	logger.Debug().
		Str("destination", out.Name()).
		Int64("bytes", m.BytesWritten).
		Dur("latency", m.LastLatency).
		Msg("Report delivered")
}
