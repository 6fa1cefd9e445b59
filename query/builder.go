package query

// QueryBuilder assembles a Query step by step. There is no parser here, the
// builder is the only way to construct queries and keeps the zero value of
// every clause meaningful (no selection, no condition, no limit).
//
// Useful combinations for subscription workloads look like:
//
//   - (aggregation)
//   - (aggregation AND condition...)
//   - (aggregation AND condition... AND limit)
type QueryBuilder struct {
	query Query
}

// BuildQuery starts building a query over the given data source, which must
// eventually be finalized with Finalize().
func BuildQuery(from DataSource) QueryBuilder {
	return QueryBuilder{query: Query{from: from}}
}

// Selecting appends one named expression to the select clause.
func (qb QueryBuilder) Selecting(name string, expr Expression) QueryBuilder {
	qb.query.selected = append(qb.query.selected, Selected(name, expr))

	return qb
}

// Where merges the given condition into the where clause.
// Multiple calls combine their conditions as a conjunction.
func (qb QueryBuilder) Where(condition Expression) QueryBuilder {
	if condition == nil {
		return qb
	}

	if qb.query.condition == nil {
		qb.query.condition = condition
	} else {
		qb.query.condition = And(qb.query.condition, condition)
	}

	return qb
}

// GroupedBy appends expressions to the group-by clause.
func (qb QueryBuilder) GroupedBy(expr Expression, more ...Expression) QueryBuilder {
	qb.query.groupBy = append(qb.query.groupBy, expr)
	qb.query.groupBy = append(qb.query.groupBy, more...)

	return qb
}

// HavingThat sets the having clause.
func (qb QueryBuilder) HavingThat(condition Expression) QueryBuilder {
	qb.query.having = condition

	return qb
}

// OrderedBy appends one expression to the order-by clause.
func (qb QueryBuilder) OrderedBy(expr Expression, direction OrderDirection) QueryBuilder {
	qb.query.orderBy = append(qb.query.orderBy, OrderBy{expr: expr, direction: direction})

	return qb
}

// LimitedTo sets the row limit.
func (qb QueryBuilder) LimitedTo(limit uint) QueryBuilder {
	qb.query.limit = limit

	return qb
}

// Finalize returns the built Query.
func (qb QueryBuilder) Finalize() Query {
	return qb.query
}
