// Package query provides the logical query model shared by all subscription
// operations.
//
// A Query couples a data source (one entity, or a composite of several) with
// select, where, group-by, having, order-by and limit clauses. Clauses are
// built from a small closed expression dialect:
//   - Column: a column reference
//   - Literal: a plain value
//   - FunctionCall: a named function over argument expressions
//
// Conditions are function calls too, named after the condition functions of
// the target query engine (equals, lessOrEquals, ...), so a where clause is
// just another expression tree.
//
// Common usage pattern:
//
//	q := query.BuildQuery(query.Entity(entities.Events)).
//		Selecting("count", query.F("count")).
//		Where(query.Gte(query.C("timestamp"), query.V("2026-08-20T00:00:00"))).
//		Finalize()
//
//	merged := q.WithAddedConditions(extraConditions...)
package query
