// Package testdoubles provides spy implementations of the querysql
// observability interfaces for testing.
//
// This package contains a slog handler that captures log records, plus
// metrics, tracing, and contextual-logger collectors that record their
// calls for inspection, used across the subscription rendering test suite.
package testdoubles
