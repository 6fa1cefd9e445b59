package query

// FunctionNameString is a type alias for string, representing the name of a function in the expression dialect.
type FunctionNameString = string

// Function names used for conditions in the expression dialect.
const (
	FnEquals          FunctionNameString = "equals"
	FnNotEquals       FunctionNameString = "notEquals"
	FnLess            FunctionNameString = "less"
	FnLessOrEquals    FunctionNameString = "lessOrEquals"
	FnGreater         FunctionNameString = "greater"
	FnGreaterOrEquals FunctionNameString = "greaterOrEquals"
	FnIn              FunctionNameString = "in"
	FnNotIn           FunctionNameString = "notIn"
	FnIsNull          FunctionNameString = "isNull"
	FnIsNotNull       FunctionNameString = "isNotNull"
	FnAnd             FunctionNameString = "and"
	FnOr              FunctionNameString = "or"
	FnNot             FunctionNameString = "not"
	FnIfNull          FunctionNameString = "ifNull"
)

/***** Expression *****/

// Expression is one node of the expression dialect: a column reference,
// a literal value, or a function call over other expressions.
//
// The set of implementations is closed; engines compiling expressions may
// rely on it.
type Expression interface {
	isExpression()
}

/***** Column *****/

// Column references a column of the queried entity by name.
type Column struct {
	name string
}

// C creates a Column expression.
func C(name string) Column {
	return Column{name: name}
}

func (c Column) Name() string {
	return c.name
}

func (Column) isExpression() {}

/***** Literal *****/

// Literal wraps a plain value.
type Literal struct {
	value any
}

// V creates a Literal expression.
func V(value any) Literal {
	return Literal{value: value}
}

func (l Literal) Value() any {
	return l.value
}

func (Literal) isExpression() {}

/***** FunctionCall *****/

// FunctionCall applies a named function to its argument expressions.
// Conditions are function calls too, using the Fn* names above.
type FunctionCall struct {
	function FunctionNameString
	args     []Expression
}

// F creates a FunctionCall expression.
func F(function FunctionNameString, args ...Expression) FunctionCall {
	return FunctionCall{function: function, args: args}
}

func (f FunctionCall) Function() FunctionNameString {
	return f.function
}

func (f FunctionCall) Args() []Expression {
	return f.args
}

func (FunctionCall) isExpression() {}

/***** condition helpers *****/

// Eq builds an equality condition between two expressions.
func Eq(lhs Expression, rhs Expression) FunctionCall {
	return F(FnEquals, lhs, rhs)
}

// NotEq builds an inequality condition between two expressions.
func NotEq(lhs Expression, rhs Expression) FunctionCall {
	return F(FnNotEquals, lhs, rhs)
}

// Lt builds a less-than condition between two expressions.
func Lt(lhs Expression, rhs Expression) FunctionCall {
	return F(FnLess, lhs, rhs)
}

// Lte builds a less-or-equal condition between two expressions.
func Lte(lhs Expression, rhs Expression) FunctionCall {
	return F(FnLessOrEquals, lhs, rhs)
}

// Gt builds a greater-than condition between two expressions.
func Gt(lhs Expression, rhs Expression) FunctionCall {
	return F(FnGreater, lhs, rhs)
}

// Gte builds a greater-or-equal condition between two expressions.
func Gte(lhs Expression, rhs Expression) FunctionCall {
	return F(FnGreaterOrEquals, lhs, rhs)
}

// In builds a membership condition between an expression and a literal list.
func In(lhs Expression, rhs Expression) FunctionCall {
	return F(FnIn, lhs, rhs)
}

// IsNull builds a null check on an expression.
func IsNull(arg Expression) FunctionCall {
	return F(FnIsNull, arg)
}

// IsNotNull builds a non-null check on an expression.
func IsNotNull(arg Expression) FunctionCall {
	return F(FnIsNotNull, arg)
}

// And combines conditions into a conjunction.
// Zero conditions yield nil, a single condition is returned as-is.
func And(conditions ...Expression) Expression {
	return combine(FnAnd, conditions)
}

// Or combines conditions into a disjunction.
// Zero conditions yield nil, a single condition is returned as-is.
func Or(conditions ...Expression) Expression {
	return combine(FnOr, conditions)
}

// Not negates a condition.
func Not(condition Expression) FunctionCall {
	return F(FnNot, condition)
}

func combine(function FunctionNameString, conditions []Expression) Expression {
	switch len(conditions) {
	case 0:
		return nil
	case 1:
		return conditions[0]
	default:
		return F(function, conditions...)
	}
}

/***** tree inspection *****/

// aggregateFunctions are the function names counted as aggregation-producing
// when queries are validated for subscription use.
var aggregateFunctions = map[FunctionNameString]struct{}{
	"count":      {},
	"countIf":    {},
	"min":        {},
	"max":        {},
	"sum":        {},
	"sumIf":      {},
	"avg":        {},
	"avgIf":      {},
	"any":        {},
	"anyLast":    {},
	"uniq":       {},
	"uniqExact":  {},
	"quantile":   {},
	"quantiles":  {},
	"topK":       {},
	"histogram":  {},
	"stddevPop":  {},
	"varPop":     {},
	"percentile": {},
}

// comparisonFunctions are the function names accepted as bounding conditions
// on a column.
var comparisonFunctions = map[FunctionNameString]struct{}{
	FnEquals:          {},
	FnLess:            {},
	FnLessOrEquals:    {},
	FnGreater:         {},
	FnGreaterOrEquals: {},
}

// IsAggregateFunction reports whether the given function name produces an
// aggregation.
func IsAggregateFunction(function FunctionNameString) bool {
	_, isAggregate := aggregateFunctions[function]

	return isAggregate
}

// ContainsAggregate reports whether the expression tree contains at least one
// aggregate function call, so wrapped forms like divide(count(), x) count as
// aggregation-producing.
func ContainsAggregate(e Expression) bool {
	found := false

	Walk(e, func(node Expression) {
		if call, isCall := node.(FunctionCall); isCall && IsAggregateFunction(call.Function()) {
			found = true
		}
	})

	return found
}

// HasComparisonOn reports whether the condition tree contains a comparison
// bounding the given column, either directly or through a function applied to
// it, e.g. toDateTime(started) >= x.
func HasComparisonOn(condition Expression, column string) bool {
	found := false

	Walk(condition, func(node Expression) {
		call, isCall := node.(FunctionCall)
		if !isCall {
			return
		}

		if _, isComparison := comparisonFunctions[call.Function()]; !isComparison {
			return
		}

		for _, arg := range call.Args() {
			if referencesColumn(arg, column) {
				found = true
				return
			}
		}
	})

	return found
}

func referencesColumn(e Expression, column string) bool {
	found := false

	Walk(e, func(node Expression) {
		if col, isColumn := node.(Column); isColumn && col.Name() == column {
			found = true
		}
	})

	return found
}

// Walk visits every node of the expression tree in pre-order.
// A nil expression is a no-op.
func Walk(e Expression, visit func(Expression)) {
	if e == nil {
		return
	}

	visit(e)

	if call, isCall := e.(FunctionCall); isCall {
		for _, arg := range call.Args() {
			Walk(arg, visit)
		}
	}
}
