package observability

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// Instrument installs the process-wide slog handler. Log records are enriched
// with OpenTelemetry trace correlation attributes when a trace context is
// present on the record's context.
//
// "text" format uses a plain human-readable slog handler for local
// development. "json" format routes records through an OpenTelemetry log
// pipeline (otelslog bridge -> minsev severity filter -> stdout exporter) so
// the same JSONL a developer reads locally is the shape an OTel collector
// would ingest in production, without running a collector in this gateway.
func Instrument(level slog.Level, logFormat string) error {
	handler, err := newHandler(level, logFormat)
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(newTraceContextHandler(handler)))

	return nil
}

func newHandler(level slog.Level, logFormat string) (slog.Handler, error) {
	switch strings.ToLower(logFormat) {
	case "json":
		return newOTelHandler(level)
	case "text":
		return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q (expected: json, text)", logFormat)
	}
}

// newOTelHandler builds a slog.Handler backed by an OpenTelemetry
// LoggerProvider exporting to stdout, with severity below level dropped by
// a minsev processor before the record ever reaches the exporter.
func newOTelHandler(level slog.Level) (slog.Handler, error) {
	exporter, err := stdoutlog.New(stdoutlog.WithoutTimestamps())
	if err != nil {
		return nil, fmt.Errorf("create stdout log exporter: %w", err)
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(
			minsev.NewLogProcessor(
				sdklog.NewBatchProcessor(exporter),
				severityFromSlogLevel(level),
			),
		),
	)

	return otelslog.NewHandler("messages-gateway", otelslog.WithLoggerProvider(provider)), nil
}

func severityFromSlogLevel(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
