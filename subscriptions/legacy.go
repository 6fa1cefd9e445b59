package subscriptions

import (
	jsoniter "github.com/json-iterator/go"
)

// LegacyOperatorString is a type alias for string, representing a comparison
// operator of the legacy dialect.
type LegacyOperatorString = string

// Comparison operators of the legacy dialect.
const (
	LegacyOpEquals          LegacyOperatorString = "="
	LegacyOpNotEquals       LegacyOperatorString = "!="
	LegacyOpLess            LegacyOperatorString = "<"
	LegacyOpLessOrEquals    LegacyOperatorString = "<="
	LegacyOpGreater         LegacyOperatorString = ">"
	LegacyOpGreaterOrEquals LegacyOperatorString = ">="
)

const legacyFnIfNull = "ifNull"

/***** LegacyOperand *****/

// LegacyOperand is the left-hand side of a legacy condition: a bare column or
// a function applied to scalar arguments. The set of implementations is
// closed.
type LegacyOperand interface {
	isLegacyOperand()
	nestedListForm() any
}

// LegacyColumn references a column by name; it serializes as a bare string.
type LegacyColumn struct {
	name string
}

// Name returns the referenced column name.
func (c LegacyColumn) Name() string {
	return c.name
}

func (c LegacyColumn) nestedListForm() any {
	return c.name
}

func (LegacyColumn) isLegacyOperand() {}

// LegacyFunction applies a named function to scalar arguments; it serializes
// as [name, [args...]].
type LegacyFunction struct {
	name string
	args []any
}

// Name returns the function name.
func (f LegacyFunction) Name() string {
	return f.name
}

// Args returns the function arguments.
func (f LegacyFunction) Args() []any {
	return f.args
}

func (f LegacyFunction) nestedListForm() any {
	return []any{f.name, f.args}
}

func (LegacyFunction) isLegacyOperand() {}

/***** LegacyCondition *****/

// LegacyCondition is one predicate of the legacy nested-list dialect, kept as
// a structured value. NestedList and MarshalJSON emit the verbatim wire shape
// existing consumers of that dialect expect:
//
//	["org_id", "=", 42]
//	[["ifNull", ["offset", 0]], "<=", 1000]
type LegacyCondition struct {
	lhs LegacyOperand
	op  LegacyOperatorString
	rhs any
}

// LegacyColumnCondition builds a legacy condition comparing a column to a
// value.
func LegacyColumnCondition(column string, op LegacyOperatorString, value any) LegacyCondition {
	return LegacyCondition{lhs: LegacyColumn{name: column}, op: op, rhs: value}
}

// LegacyFunctionCondition builds a legacy condition comparing a function of
// scalar arguments to a value.
func LegacyFunctionCondition(function string, args []any, op LegacyOperatorString, value any) LegacyCondition {
	return LegacyCondition{lhs: LegacyFunction{name: function, args: args}, op: op, rhs: value}
}

// LHS returns the left-hand operand.
func (c LegacyCondition) LHS() LegacyOperand {
	return c.lhs
}

// Operator returns the comparison operator.
func (c LegacyCondition) Operator() LegacyOperatorString {
	return c.op
}

// RHS returns the right-hand value.
func (c LegacyCondition) RHS() any {
	return c.rhs
}

// NestedList returns the condition in the legacy [lhs, op, rhs] list form.
func (c LegacyCondition) NestedList() []any {
	return []any{c.lhs.nestedListForm(), c.op, c.rhs}
}

// MarshalJSON emits the nested-list wire shape of the legacy dialect.
func (c LegacyCondition) MarshalJSON() ([]byte, error) {
	return jsoniter.ConfigFastest.Marshal(c.NestedList())
}
