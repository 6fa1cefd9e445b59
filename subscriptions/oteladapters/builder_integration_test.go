package oteladapters_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/streamwatch/entity-subscriptions-go/entities"
	"github.com/streamwatch/entity-subscriptions-go/query"
	"github.com/streamwatch/entity-subscriptions-go/subscriptions"
	"github.com/streamwatch/entity-subscriptions-go/subscriptions/oteladapters"
	"github.com/streamwatch/entity-subscriptions-go/subscriptions/querysql"
)

// Test_Integration_BuilderWithAllAdapters_RenderForSubscription wires a Builder with
// all three OpenTelemetry adapters and verifies logs, metrics, and spans end to end.
func Test_Integration_BuilderWithAllAdapters_RenderForSubscription(t *testing.T) {
	// setup
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	reader := sdkmetric.NewManualReader()
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metricsCollector := oteladapters.NewMetricsCollector(meterProvider.Meter("integration"))

	exporter := tracetest.NewInMemoryExporter()
	tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	tracingCollector := oteladapters.NewTracingCollector(tracerProvider.Tracer("integration"))

	builder, err := querysql.NewBuilder(
		querysql.WithContextualLogger(logger),
		querysql.WithMetrics(metricsCollector),
		querysql.WithTracing(tracingCollector),
	)
	require.NoError(t, err)

	subscription, err := subscriptions.BuildSessionsSubscription(subscriptions.Payload{"organization": int64(42)})
	require.NoError(t, err)

	q := query.BuildQuery(query.Entity(entities.Sessions)).
		Selecting("sessions", query.F("sum", query.C("sessions"))).
		Where(query.Gte(query.C("started"), query.V("2026-08-18 00:00:00"))).
		Finalize()
	offset := subscriptions.OffsetInt64(1000)

	// act
	sqlQuery, err := builder.RenderForSubscription(context.Background(), q, subscription, &offset)

	// assert
	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `FROM "sessions_hourly"`)
	assert.Contains(t, sqlQuery, `("org_id" = 42)`)

	// Logs went through the slog bridge
	logOutput := buf.String()
	assert.Contains(t, logOutput, "subscription conditions merged", "Merge log should be written")
	assert.Contains(t, logOutput, "rendered sql for: render", "Render log should be written")
	assert.Contains(t, logOutput, "render completed", "Completion log should be written")
	assert.Contains(t, logOutput, `"condition_count":1`, "Condition count should be logged")

	// One render span with entity and operation attributes
	spans := exporter.GetSpans()
	require.Len(t, spans, 1, "Should have one exported span")
	span := spans[0]
	assert.Equal(t, "querysql.render", span.Name)
	assert.Equal(t, codes.Ok, span.Status.Code)
	assertSpanHasAttribute(t, span, "operation", "render")
	assertSpanHasAttribute(t, span, "entity", "sessions")

	// Duration histogram and the merged-conditions gauge were recorded
	resourceMetrics := metricdata.ResourceMetrics{}
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics))

	histogram := findHistogramMetric(t, resourceMetrics, "querysql_render_duration")
	require.NotNil(t, histogram, "Render duration should be recorded")
	require.Len(t, histogram.DataPoints, 1)
	assert.Equal(t, uint64(1), histogram.DataPoints[0].Count)

	gauge := findGaugeMetric(t, resourceMetrics, "querysql_conditions_merged")
	require.NotNil(t, gauge, "Merged condition count should be recorded")
	require.Len(t, gauge.DataPoints, 1)
	assert.InDelta(t, 1.0, gauge.DataPoints[0].Value, 0.001, "Sessions merge adds one condition")
}

// Test_Integration_BuilderWithAllAdapters_ValidationFailure verifies that a rejected
// subscription query surfaces through logs and the failure counter without spans.
func Test_Integration_BuilderWithAllAdapters_ValidationFailure(t *testing.T) {
	// setup
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(slog.NewJSONHandler(&buf, nil))

	reader := sdkmetric.NewManualReader()
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metricsCollector := oteladapters.NewMetricsCollector(meterProvider.Meter("integration"))

	exporter := tracetest.NewInMemoryExporter()
	tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	tracingCollector := oteladapters.NewTracingCollector(tracerProvider.Tracer("integration"))

	builder, err := querysql.NewBuilder(
		querysql.WithContextualLogger(logger),
		querysql.WithMetrics(metricsCollector),
		querysql.WithTracing(tracingCollector),
	)
	require.NoError(t, err)

	subscription, err := subscriptions.BuildSessionsSubscription(subscriptions.Payload{"organization": int64(42)})
	require.NoError(t, err)

	groupedQuery := query.BuildQuery(query.Entity(entities.Sessions)).
		Where(query.Gte(query.C("started"), query.V("2026-08-18 00:00:00"))).
		GroupedBy(query.C("project_id")).
		Finalize()

	// act
	sqlQuery, err := builder.RenderForSubscription(context.Background(), groupedQuery, subscription, nil)

	// assert
	require.Error(t, err)
	assert.ErrorIs(t, err, subscriptions.ErrDisallowedClause)
	assert.Empty(t, sqlQuery, "Nothing should be rendered for rejected queries")

	assert.Contains(t, buf.String(), "subscription query validation failed", "Failure should be logged")

	assert.Empty(t, exporter.GetSpans(), "Validation failures should not start render spans")

	resourceMetrics := metricdata.ResourceMetrics{}
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics))

	counter := findCounterMetric(t, resourceMetrics, "querysql_validation_failures")
	require.NotNil(t, counter, "Validation failure counter should be recorded")
	require.Len(t, counter.DataPoints, 1)
	assert.Equal(t, int64(1), counter.DataPoints[0].Value)

	histogram := findHistogramMetric(t, resourceMetrics, "querysql_render_duration")
	assert.Nil(t, histogram, "No render duration should be recorded for rejected queries")
}
