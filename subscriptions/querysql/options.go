package querysql

import (
	"context"
	"time"

	"github.com/streamwatch/entity-subscriptions-go/entities"
)

// Logger interface for rendered SQL logging, operational information, warnings, and error reporting.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MetricsCollector interface for collecting Builder performance and operational metrics.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}

// ContextualMetricsCollector extends MetricsCollector with context-aware methods for better tracing integration.
// Implementations can use the context for trace correlation, span propagation, and other contextual metadata.
// This interface is optional - the Builder will use context-aware methods when available, falling back to
// the base MetricsCollector interface for backward compatibility.
type ContextualMetricsCollector interface {
	MetricsCollector
	RecordDurationContext(ctx context.Context, metric string, duration time.Duration, labels map[string]string)
	IncrementCounterContext(ctx context.Context, metric string, labels map[string]string)
	RecordValueContext(ctx context.Context, metric string, value float64, labels map[string]string)
}

// SpanContext represents an active tracing span that can be finished and updated with attributes.
type SpanContext interface {
	SetStatus(status string)
	AddAttribute(key, value string)
}

// TracingCollector interface for collecting distributed tracing information from Builder operations.
// This interface follows the same dependency-free pattern as MetricsCollector, allowing users to integrate
// with any tracing backend (OpenTelemetry, Jaeger, Zipkin, etc.) by implementing this interface.
type TracingCollector interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext)
	FinishSpan(spanCtx SpanContext, status string, attrs map[string]string)
}

// ContextualLogger interface for context-aware logging with automatic trace correlation.
// This interface follows the same dependency-free pattern as MetricsCollector and TracingCollector,
// allowing users to integrate with any logging backend (OpenTelemetry, structured loggers, etc.)
// that supports context-based correlation and automatic trace/span ID inclusion.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// Option defines a functional option for configuring a Builder.
type Option func(*Builder) error

// WithTableFor overrides the table that queries over the given entity render FROM.
// Entities keep their registry default table unless overridden.
func WithTableFor(key entities.Key, tableName string) Option {
	return func(b *Builder) error {
		if tableName == "" {
			return ErrEmptyTableNameSupplied
		}

		if _, err := entities.Resolve(key); err != nil {
			return err
		}

		b.tableByEntity[key] = tableName

		return nil
	}
}

// WithLogger sets the logger for the Builder.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: rendered SQL with render timing (development use)
// Info level: render completions, merged condition counts (production-safe)
// Warn level: non-critical issues
// Error level: validation and render failures.
func WithLogger(logger Logger) Option {
	return func(b *Builder) error {
		b.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Builder.
// The metrics collector will receive performance and operational metrics including
// render durations, merged condition counts, validation failures, and render errors.
func WithMetrics(collector MetricsCollector) Option {
	return func(b *Builder) error {
		b.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Builder.
// The tracing collector will receive distributed tracing information including
// span creation for render operations, context propagation, and error tracking.
func WithTracing(collector TracingCollector) Option {
	return func(b *Builder) error {
		b.tracingCollector = collector
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Builder.
// The contextual logger will receive log messages with context information including
// automatic trace/span correlation when tracing is enabled, enabling unified observability.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(b *Builder) error {
		b.contextualLogger = logger
		return nil
	}
}
