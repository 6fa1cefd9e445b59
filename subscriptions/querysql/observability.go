package querysql

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/streamwatch/entity-subscriptions-go/query"
)

// logQueryWithDuration logs rendered SQL with render time at debug level if the logger is configured.
func (b Builder) logQueryWithDuration(
	sqlQuery string,
	action string,
	duration time.Duration,
) {
	if b.logger != nil {
		b.logger.Debug(logMsgSQLRendered+action, logAttrDurationMS, b.toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level if the logger is configured.
func (b Builder) logOperation(action string, args ...any) {
	if b.logger != nil {
		b.logger.Info(logMsgOperation+action, args...)
	}
}

// logError logs error information at the error level if the logger is configured.
func (b Builder) logError(
	message string,
	err error,
	args ...any,
) {
	if b.logger != nil {
		allArgs := []any{logAttrError, err.Error()}
		allArgs = append(allArgs, args...)
		b.logger.Error(message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (b Builder) toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// recordErrorMetricsContext records error metrics with context if the collector supports it.
func (b Builder) recordErrorMetricsContext(ctx context.Context, operation, errorType string) {
	if b.metricsCollector != nil {
		labels := map[string]string{
			spanAttrOperation: operation,
			"status":          statusError,
			spanAttrErrorType: errorType,
		}

		// Use context-aware method if available
		if contextualCollector, ok := b.metricsCollector.(ContextualMetricsCollector); ok {
			contextualCollector.IncrementCounterContext(ctx, metricRenderErrors, labels)
		} else {
			b.metricsCollector.IncrementCounter(metricRenderErrors, labels)
		}
	}
}

// recordDurationMetricsContext records duration metrics with context if the collector supports it.
func (b Builder) recordDurationMetricsContext(
	ctx context.Context,
	metricName string,
	duration time.Duration,
	operation, status string,
) {
	if b.metricsCollector != nil {
		labels := map[string]string{
			spanAttrOperation: operation,
			"status":          status,
		}

		// Use context-aware method if available
		if contextualCollector, ok := b.metricsCollector.(ContextualMetricsCollector); ok {
			contextualCollector.RecordDurationContext(ctx, metricName, duration, labels)
		} else {
			b.metricsCollector.RecordDuration(metricName, duration, labels)
		}
	}
}

// recordConditionsMergedMetricsContext records how many subscription conditions were merged into a query.
func (b Builder) recordConditionsMergedMetricsContext(ctx context.Context, conditionCount int) {
	if b.metricsCollector != nil {
		labels := map[string]string{
			spanAttrOperation: operationRenderSubscription,
			"status":          statusSuccess,
		}

		// Use context-aware method if available
		if contextualCollector, ok := b.metricsCollector.(ContextualMetricsCollector); ok {
			contextualCollector.RecordValueContext(ctx, metricConditionsMerged, float64(conditionCount), labels)
		} else {
			b.metricsCollector.RecordValue(metricConditionsMerged, float64(conditionCount), labels)
		}
	}
}

// recordValidationFailureMetricsContext counts queries rejected by subscription validation.
func (b Builder) recordValidationFailureMetricsContext(ctx context.Context) {
	if b.metricsCollector != nil {
		labels := map[string]string{
			spanAttrOperation: operationRenderSubscription,
			"status":          statusError,
			spanAttrErrorType: errorTypeValidation,
		}

		// Use context-aware method if available
		if contextualCollector, ok := b.metricsCollector.(ContextualMetricsCollector); ok {
			contextualCollector.IncrementCounterContext(ctx, metricValidationFailures, labels)
		} else {
			b.metricsCollector.IncrementCounter(metricValidationFailures, labels)
		}
	}
}

// startTraceSpan starts a tracing span if the tracing collector is configured.
func (b Builder) startTraceSpan(
	ctx context.Context,
	operation string,
	attrs map[string]string,
) (context.Context, SpanContext) {
	if b.tracingCollector != nil {
		return b.tracingCollector.StartSpan(ctx, operation, attrs)
	}

	return ctx, nil
}

// finishTraceSpan finishes a tracing span if the tracing collector is configured.
func (b Builder) finishTraceSpan(
	spanCtx SpanContext,
	status string,
	attrs map[string]string,
) {
	if b.tracingCollector != nil && spanCtx != nil {
		b.tracingCollector.FinishSpan(spanCtx, status, attrs)
	}
}

// startRenderSpan starts a tracing span for render operations.
func (b Builder) startRenderSpan(ctx context.Context, q query.Query) (context.Context, SpanContext) {
	spanAttrs := map[string]string{
		spanAttrOperation: operationRender,
	}

	if source, isSimple := q.FromClause().(query.EntitySource); isSimple {
		spanAttrs[spanAttrEntity] = source.Key().String()
	}

	return b.startTraceSpan(ctx, spanNameRender, spanAttrs)
}

/***** tracing observer *****/

// renderTracingObserver encapsulates tracing span lifecycle management for render operations.
type renderTracingObserver struct {
	b    Builder
	span SpanContext
}

// startRenderTracing creates a new tracing observer for render operations.
func (b Builder) startRenderTracing(ctx context.Context, q query.Query) (*renderTracingObserver, context.Context) {
	newCtx, span := b.startRenderSpan(ctx, q)

	return &renderTracingObserver{
		b:    b,
		span: span,
	}, newCtx
}

// finishSuccess completes the render tracing span for successful operations.
func (rto *renderTracingObserver) finishSuccess(duration time.Duration) {
	if rto.span == nil {
		return
	}

	rto.span.SetStatus(statusSuccess)
	rto.span.AddAttribute(spanAttrDurationMS, fmt.Sprintf("%.2f", rto.b.toMilliseconds(duration)))

	rto.b.finishTraceSpan(rto.span, statusSuccess, map[string]string{
		spanAttrDurationMS: fmt.Sprintf("%.2f", rto.b.toMilliseconds(duration)),
	})
}

// finishError completes the render tracing span with error details.
func (rto *renderTracingObserver) finishError(errorType string, duration time.Duration) {
	if rto.span == nil {
		return
	}

	rto.span.SetStatus(statusError)
	rto.span.AddAttribute(spanAttrErrorType, errorType)

	if duration > 0 {
		rto.span.AddAttribute(spanAttrDurationMS, fmt.Sprintf("%.2f", rto.b.toMilliseconds(duration)))
	}

	rto.b.finishTraceSpan(rto.span, statusError, map[string]string{spanAttrErrorType: errorType})
}

/***** metrics observer *****/

// renderMetricsObserver encapsulates the metrics collection for render operations.
type renderMetricsObserver struct {
	b   Builder
	ctx context.Context
}

// startRenderMetrics creates a new metrics observer for render operations.
func (b Builder) startRenderMetrics(ctx context.Context) *renderMetricsObserver {
	return &renderMetricsObserver{
		b:   b,
		ctx: ctx,
	}
}

// recordSuccess records all metrics for a successful render operation.
func (rmo *renderMetricsObserver) recordSuccess(duration time.Duration) {
	rmo.b.recordDurationMetricsContext(rmo.ctx, metricRenderDuration, duration, operationRender, statusSuccess)
}

// recordError records all metrics for a failed render operation.
func (rmo *renderMetricsObserver) recordError(errorType string, duration time.Duration) {
	rmo.b.recordDurationMetricsContext(rmo.ctx, metricRenderDuration, duration, operationRender, statusError)
	rmo.b.recordErrorMetricsContext(rmo.ctx, operationRender, errorType)
}

/***** contextual logging *****/

// logQueryWithDurationContext logs rendered SQL with render time and context correlation.
func (b Builder) logQueryWithDurationContext(
	ctx context.Context,
	sqlQuery string,
	action string,
	duration time.Duration,
) {
	if b.contextualLogger != nil {
		b.contextualLogger.DebugContext(ctx, logMsgSQLRendered+action, logAttrDurationMS, b.toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperationContext logs operational information with context correlation.
func (b Builder) logOperationContext(ctx context.Context, action string, args ...any) {
	if b.contextualLogger != nil {
		b.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

// logErrorContext logs error information with context correlation.
func (b Builder) logErrorContext(
	ctx context.Context,
	message string,
	err error,
	args ...any,
) {
	if b.contextualLogger != nil {
		allArgs := []any{logAttrError, err.Error()}
		allArgs = append(allArgs, args...)
		b.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}
