package query

import (
	"github.com/streamwatch/entity-subscriptions-go/entities"
)

/***** DataSource *****/

// DataSource is the from-clause of a Query: either a single entity or a
// composite of several sources. The set of implementations is closed.
type DataSource interface {
	isDataSource()
}

// EntitySource references a single entity by key.
type EntitySource struct {
	key entities.Key
}

// Entity creates an EntitySource for the given key.
func Entity(key entities.Key) EntitySource {
	return EntitySource{key: key}
}

func (s EntitySource) Key() entities.Key {
	return s.key
}

func (EntitySource) isDataSource() {}

// CompositeSource combines multiple sources, as produced by joins or
// sub-query composition.
type CompositeSource struct {
	sources []DataSource
}

// Composite creates a CompositeSource from two or more sources.
func Composite(first DataSource, second DataSource, more ...DataSource) CompositeSource {
	sources := append([]DataSource{first, second}, more...)

	return CompositeSource{sources: sources}
}

func (s CompositeSource) Sources() []DataSource {
	return s.sources
}

func (CompositeSource) isDataSource() {}

/***** SelectedExpression *****/

// SelectedExpression is one expression of the select clause together with its
// output name.
type SelectedExpression struct {
	name string
	expr Expression
}

// Selected creates a SelectedExpression.
func Selected(name string, expr Expression) SelectedExpression {
	return SelectedExpression{name: name, expr: expr}
}

func (s SelectedExpression) Name() string {
	return s.name
}

func (s SelectedExpression) Expression() Expression {
	return s.expr
}

/***** OrderBy *****/

// OrderDirection is a type alias for string, representing the direction of an order-by clause.
type OrderDirection = string

const (
	OrderAsc  OrderDirection = "ASC"
	OrderDesc OrderDirection = "DESC"
)

// OrderBy is one expression of the order-by clause together with its direction.
type OrderBy struct {
	expr      Expression
	direction OrderDirection
}

// OrderedBy creates an OrderBy clause element.
func OrderedBy(expr Expression, direction OrderDirection) OrderBy {
	return OrderBy{expr: expr, direction: direction}
}

func (o OrderBy) Expression() Expression {
	return o.expr
}

func (o OrderBy) Direction() OrderDirection {
	return o.direction
}

/***** Query *****/

// Query is the logical form of one query over a data source.
//
// A Query is a read-only value: methods that derive a changed query, like
// WithAddedConditions, return a new Query and leave the receiver untouched.
type Query struct {
	from      DataSource
	selected  []SelectedExpression
	condition Expression
	groupBy   []Expression
	having    Expression
	orderBy   []OrderBy
	limit     uint
}

func (q Query) FromClause() DataSource {
	return q.from
}

func (q Query) SelectedExpressions() []SelectedExpression {
	return q.selected
}

// Condition returns the where-clause tree, nil when the query has none.
func (q Query) Condition() Expression {
	return q.condition
}

func (q Query) GroupBy() []Expression {
	return q.groupBy
}

// Having returns the having-clause tree, nil when the query has none.
func (q Query) Having() Expression {
	return q.having
}

func (q Query) OrderBy() []OrderBy {
	return q.orderBy
}

// Limit returns the row limit, zero meaning no limit.
func (q Query) Limit() uint {
	return q.limit
}

// WithAddedConditions returns a copy of the query with the given conditions
// merged into the where clause as a conjunction. An existing condition is
// preserved and combined with the new ones. Passing no conditions returns the
// query unchanged.
func (q Query) WithAddedConditions(conditions ...Expression) Query {
	if len(conditions) == 0 {
		return q
	}

	all := make([]Expression, 0, len(conditions)+1)

	if q.condition != nil {
		all = append(all, q.condition)
	}

	all = append(all, conditions...)
	q.condition = And(all...)

	return q
}
