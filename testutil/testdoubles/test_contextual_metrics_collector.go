package testdoubles

import (
	"context"
	"sync"
	"time"

	"github.com/streamwatch/entity-subscriptions-go/subscriptions/querysql"
)

// TestContextualMetricsCollector extends TestMetricsCollector with context-aware methods,
// so tests can verify that instrumentation prefers the contextual code paths when available.
// Records flow into the embedded collector and can be inspected through its matchers.
type TestContextualMetricsCollector struct {
	*TestMetricsCollector
	contextCalls int
	mu           sync.Mutex
}

// NewTestContextualMetricsCollector creates a new TestContextualMetricsCollector instance.
// Set recordCalls to true to capture all metrics calls for inspection in tests.
func NewTestContextualMetricsCollector(recordCalls bool) *TestContextualMetricsCollector {
	return &TestContextualMetricsCollector{
		TestMetricsCollector: NewTestMetricsCollector(recordCalls),
	}
}

// RecordDurationContext implements the ContextualMetricsCollector interface for testing.
func (c *TestContextualMetricsCollector) RecordDurationContext(_ context.Context, metric string, duration time.Duration, labels map[string]string) {
	c.noteContextCall()
	c.RecordDuration(metric, duration, labels)
}

// IncrementCounterContext implements the ContextualMetricsCollector interface for testing.
func (c *TestContextualMetricsCollector) IncrementCounterContext(_ context.Context, metric string, labels map[string]string) {
	c.noteContextCall()
	c.IncrementCounter(metric, labels)
}

// RecordValueContext implements the ContextualMetricsCollector interface for testing.
func (c *TestContextualMetricsCollector) RecordValueContext(_ context.Context, metric string, value float64, labels map[string]string) {
	c.noteContextCall()
	c.RecordValue(metric, value, labels)
}

// GetContextCallCount returns how many context-aware calls were received.
func (c *TestContextualMetricsCollector) GetContextCallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.contextCalls
}

func (c *TestContextualMetricsCollector) noteContextCall() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contextCalls++
}

// Compile-time check to ensure TestContextualMetricsCollector implements ContextualMetricsCollector interface.
var _ querysql.ContextualMetricsCollector = (*TestContextualMetricsCollector)(nil)
