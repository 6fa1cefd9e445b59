// Package querysql renders logical subscription queries to Postgres SQL text.
//
// The Builder compiles query.Query values through goqu: FROM comes from the
// entity's table (overridable per entity), SELECT from the selected
// expressions, and WHERE / GROUP BY / HAVING / ORDER BY / LIMIT from the
// corresponding clauses. Logical connectives and comparisons become native
// SQL operators; every other function call renders as-is.
//
// Rendering stops at SQL text. Nothing in this package opens a database
// connection or executes anything; callers hand the rendered SQL to whatever
// runs it.
//
// Common usage pattern:
//
//	builder, err := querysql.NewBuilder(
//		querysql.WithLogger(logger),
//	)
//	if err != nil {
//		// handle error
//	}
//
//	offset := subscriptions.OffsetInt64(1000)
//	sqlText, err := builder.RenderForSubscription(ctx, q, subscription, &offset)
//	if err != nil {
//		// the query failed subscription validation or could not be rendered
//	}
//
// Logging, metrics, and tracing are optional; the dependency-free collector
// interfaces in this package can be satisfied by the adapters in
// subscriptions/oteladapters or by any custom implementation.
package querysql
