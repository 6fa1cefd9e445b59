package querysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/streamwatch/entity-subscriptions-go/entities"
	"github.com/streamwatch/entity-subscriptions-go/query"
	"github.com/streamwatch/entity-subscriptions-go/subscriptions"
)

var ErrEmptyTableNameSupplied = errors.New("empty table name supplied")
var ErrBuildingQueryFailed = errors.New("building sql query failed")
var ErrUnsupportedDataSource = errors.New("only queries over a single entity source can be rendered")

const (
	logMsgBuildSelectQueryFailed = "failed to build select query"
	logMsgValidationFailed       = "subscription query validation failed"
	logMsgRenderCompleted        = "render completed"
	logMsgConditionsMerged       = "subscription conditions merged"
	logMsgSQLRendered            = "rendered sql for: "
	logMsgOperation              = "querysql operation: "
	logAttrError                 = "error"
	logAttrQuery                 = "query"
	logAttrDurationMS            = "duration_ms"
	logAttrConditionCount        = "condition_count"
	logActionRender              = "render"
	dialectPostgres              = "postgres"
	operationRender              = "render"
	operationRenderSubscription  = "render_for_subscription"
	statusSuccess                = "success"
	statusError                  = "error"
	spanNameRender               = "querysql.render"
	spanAttrOperation            = "operation"
	spanAttrEntity               = "entity"
	spanAttrErrorType            = "error_type"
	spanAttrDurationMS           = "duration_ms"
	metricRenderDuration         = "querysql_render_duration"
	metricRenderErrors           = "querysql_render_errors"
	metricValidationFailures     = "querysql_validation_failures"
	metricConditionsMerged       = "querysql_conditions_merged"
	errorTypeBuildQuery          = "build_query"
	errorTypeValidation          = "validation"
)

type sqlQueryString = string

// sqlOperand is the goqu surface the compiler relies on; identifiers,
// literals, and function calls all provide it.
type sqlOperand interface {
	exp.Expression
	exp.Aliaseable
	exp.Comparable
	exp.Inable
	exp.Isable
	exp.Orderable
}

// Builder renders logical queries to Postgres SQL text with customizable
// table mapping, logging, metrics, and tracing. It performs no execution.
type Builder struct {
	tableByEntity    map[entities.Key]string
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

// NewBuilder creates a Builder with optional configuration.
// Every registered entity starts with its registry default table.
func NewBuilder(options ...Option) (Builder, error) {
	builder := Builder{
		tableByEntity: defaultTables(),
	}

	for _, option := range options {
		if err := option(&builder); err != nil {
			return Builder{}, err
		}
	}

	return builder, nil
}

func defaultTables() map[entities.Key]string {
	tables := make(map[entities.Key]string, len(entities.All()))
	for _, entity := range entities.All() {
		tables[entity.Key] = entity.DefaultTable
	}

	return tables
}

// Render compiles a logical query to Postgres SQL.
// Only queries over a single registered entity can be rendered; on the
// subscription path, RenderForSubscription validates before rendering.
func (b Builder) Render(ctx context.Context, q query.Query) (string, error) {
	tracing, ctx := b.startRenderTracing(ctx, q)
	metrics := b.startRenderMetrics(ctx)

	start := time.Now()
	sqlQuery, buildErr := b.buildSelectSQL(q)
	duration := time.Since(start)

	if buildErr != nil {
		b.logError(logMsgBuildSelectQueryFailed, buildErr)
		b.logErrorContext(ctx, logMsgBuildSelectQueryFailed, buildErr)
		metrics.recordError(errorTypeBuildQuery, duration)
		tracing.finishError(errorTypeBuildQuery, duration)

		return "", buildErr
	}

	b.logQueryWithDuration(sqlQuery, logActionRender, duration)
	b.logQueryWithDurationContext(ctx, sqlQuery, logActionRender, duration)
	b.logOperation(logMsgRenderCompleted, logAttrDurationMS, b.toMilliseconds(duration))
	b.logOperationContext(ctx, logMsgRenderCompleted, logAttrDurationMS, b.toMilliseconds(duration))
	metrics.recordSuccess(duration)
	tracing.finishSuccess(duration)

	return sqlQuery, nil
}

// RenderForSubscription validates the query through the subscription variant,
// merges the variant's filter conditions for the given offset, and renders
// the merged query. Validation failures surface unchanged and nothing is
// rendered for them.
func (b Builder) RenderForSubscription(
	ctx context.Context,
	q query.Query,
	subscription subscriptions.EntitySubscription,
	offset *subscriptions.OffsetInt64,
) (string, error) {

	if validationErr := subscription.ValidateQuery(q); validationErr != nil {
		b.logError(logMsgValidationFailed, validationErr)
		b.logErrorContext(ctx, logMsgValidationFailed, validationErr)
		b.recordValidationFailureMetricsContext(ctx)

		return "", validationErr
	}

	conditions := subscription.ExpressionConditions(offset)
	merged := q.WithAddedConditions(conditions...)

	b.logOperation(logMsgConditionsMerged, logAttrConditionCount, len(conditions))
	b.logOperationContext(ctx, logMsgConditionsMerged, logAttrConditionCount, len(conditions))
	b.recordConditionsMergedMetricsContext(ctx, len(conditions))

	return b.Render(ctx, merged)
}

func (b Builder) buildSelectSQL(q query.Query) (sqlQueryString, error) {
	source, isSimple := q.FromClause().(query.EntitySource)
	if !isSimple {
		return "", ErrUnsupportedDataSource
	}

	entity, resolveErr := entities.Resolve(source.Key())
	if resolveErr != nil {
		return "", resolveErr
	}

	selectStmt := goqu.Dialect(dialectPostgres).From(b.tableFor(entity))

	var clauseErr error

	if selectStmt, clauseErr = b.addSelectClause(q, selectStmt); clauseErr != nil {
		return "", clauseErr
	}

	if selectStmt, clauseErr = b.addWhereClause(q, selectStmt); clauseErr != nil {
		return "", clauseErr
	}

	if selectStmt, clauseErr = b.addGroupByClause(q, selectStmt); clauseErr != nil {
		return "", clauseErr
	}

	if selectStmt, clauseErr = b.addHavingClause(q, selectStmt); clauseErr != nil {
		return "", clauseErr
	}

	if selectStmt, clauseErr = b.addOrderByClause(q, selectStmt); clauseErr != nil {
		return "", clauseErr
	}

	if q.Limit() > 0 {
		selectStmt = selectStmt.Limit(q.Limit())
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (b Builder) tableFor(entity entities.Entity) string {
	if table, known := b.tableByEntity[entity.Key]; known && table != "" {
		return table
	}

	return entity.DefaultTable
}

func (b Builder) addSelectClause(q query.Query, selectStmt *goqu.SelectDataset) (*goqu.SelectDataset, error) {
	if len(q.SelectedExpressions()) == 0 {
		return selectStmt, nil
	}

	selectables := make([]any, 0, len(q.SelectedExpressions()))

	for _, selected := range q.SelectedExpressions() {
		compiled, compileErr := b.compileOperand(selected.Expression())
		if compileErr != nil {
			return nil, compileErr
		}

		selectables = append(selectables, compiled.As(selected.Name()))
	}

	return selectStmt.Select(selectables...), nil
}

func (b Builder) addWhereClause(q query.Query, selectStmt *goqu.SelectDataset) (*goqu.SelectDataset, error) {
	if q.Condition() == nil {
		return selectStmt, nil
	}

	compiled, compileErr := b.compileCondition(q.Condition())
	if compileErr != nil {
		return nil, compileErr
	}

	return selectStmt.Where(compiled), nil
}

func (b Builder) addGroupByClause(q query.Query, selectStmt *goqu.SelectDataset) (*goqu.SelectDataset, error) {
	if len(q.GroupBy()) == 0 {
		return selectStmt, nil
	}

	groupings := make([]any, 0, len(q.GroupBy()))

	for _, grouping := range q.GroupBy() {
		compiled, compileErr := b.compileOperand(grouping)
		if compileErr != nil {
			return nil, compileErr
		}

		groupings = append(groupings, compiled)
	}

	return selectStmt.GroupBy(groupings...), nil
}

func (b Builder) addHavingClause(q query.Query, selectStmt *goqu.SelectDataset) (*goqu.SelectDataset, error) {
	if q.Having() == nil {
		return selectStmt, nil
	}

	compiled, compileErr := b.compileCondition(q.Having())
	if compileErr != nil {
		return nil, compileErr
	}

	return selectStmt.Having(compiled), nil
}

func (b Builder) addOrderByClause(q query.Query, selectStmt *goqu.SelectDataset) (*goqu.SelectDataset, error) {
	if len(q.OrderBy()) == 0 {
		return selectStmt, nil
	}

	orderings := make([]exp.OrderedExpression, 0, len(q.OrderBy()))

	for _, ordering := range q.OrderBy() {
		compiled, compileErr := b.compileOperand(ordering.Expression())
		if compileErr != nil {
			return nil, compileErr
		}

		if ordering.Direction() == query.OrderDesc {
			orderings = append(orderings, compiled.Desc())
		} else {
			orderings = append(orderings, compiled.Asc())
		}
	}

	return selectStmt.Order(orderings...), nil
}

/***** expression compilation *****/

// compileCondition compiles an expression used in boolean position. Logical
// connectives and comparisons become native SQL operators; everything else
// falls through to a function call.
func (b Builder) compileCondition(e query.Expression) (exp.Expression, error) {
	call, isCall := e.(query.FunctionCall)
	if !isCall {
		return b.compileOperand(e)
	}

	switch call.Function() {
	case query.FnAnd:
		compiled, err := b.compileConditionList(call)
		if err != nil {
			return nil, err
		}

		return goqu.And(compiled...), nil

	case query.FnOr:
		compiled, err := b.compileConditionList(call)
		if err != nil {
			return nil, err
		}

		return goqu.Or(compiled...), nil

	case query.FnNot:
		if err := requireArgs(call, 1); err != nil {
			return nil, err
		}

		inner, err := b.compileCondition(call.Args()[0])
		if err != nil {
			return nil, err
		}

		return goqu.L("NOT ?", inner), nil

	case query.FnEquals, query.FnNotEquals, query.FnLess, query.FnLessOrEquals, query.FnGreater, query.FnGreaterOrEquals:
		return b.compileComparison(call)

	case query.FnIn, query.FnNotIn:
		return b.compileInclusion(call)

	case query.FnIsNull, query.FnIsNotNull:
		return b.compileNullCheck(call)

	default:
		return b.compileFunction(call)
	}
}

func (b Builder) compileConditionList(call query.FunctionCall) ([]exp.Expression, error) {
	if len(call.Args()) == 0 {
		return nil, errors.Join(
			ErrBuildingQueryFailed,
			fmt.Errorf("%s expects at least one argument", call.Function()),
		)
	}

	compiled := make([]exp.Expression, 0, len(call.Args()))

	for _, arg := range call.Args() {
		condition, err := b.compileCondition(arg)
		if err != nil {
			return nil, err
		}

		compiled = append(compiled, condition)
	}

	return compiled, nil
}

func (b Builder) compileComparison(call query.FunctionCall) (exp.Expression, error) {
	if err := requireArgs(call, 2); err != nil {
		return nil, err
	}

	lhs, lhsErr := b.compileOperand(call.Args()[0])
	if lhsErr != nil {
		return nil, lhsErr
	}

	rhs, rhsErr := b.comparisonValue(call.Args()[1])
	if rhsErr != nil {
		return nil, rhsErr
	}

	switch call.Function() {
	case query.FnEquals:
		return lhs.Eq(rhs), nil
	case query.FnNotEquals:
		return lhs.Neq(rhs), nil
	case query.FnLess:
		return lhs.Lt(rhs), nil
	case query.FnLessOrEquals:
		return lhs.Lte(rhs), nil
	case query.FnGreater:
		return lhs.Gt(rhs), nil
	default:
		return lhs.Gte(rhs), nil
	}
}

func (b Builder) compileInclusion(call query.FunctionCall) (exp.Expression, error) {
	if err := requireArgs(call, 2); err != nil {
		return nil, err
	}

	lhs, lhsErr := b.compileOperand(call.Args()[0])
	if lhsErr != nil {
		return nil, lhsErr
	}

	rhs, rhsErr := b.comparisonValue(call.Args()[1])
	if rhsErr != nil {
		return nil, rhsErr
	}

	if call.Function() == query.FnIn {
		return lhs.In(rhs), nil
	}

	return lhs.NotIn(rhs), nil
}

func (b Builder) compileNullCheck(call query.FunctionCall) (exp.Expression, error) {
	if err := requireArgs(call, 1); err != nil {
		return nil, err
	}

	operand, err := b.compileOperand(call.Args()[0])
	if err != nil {
		return nil, err
	}

	if call.Function() == query.FnIsNull {
		return operand.IsNull(), nil
	}

	return operand.IsNotNull(), nil
}

// compileOperand compiles an expression used where a comparable / aliasable /
// orderable value is needed: selections, groupings, comparison sides.
func (b Builder) compileOperand(e query.Expression) (sqlOperand, error) {
	switch node := e.(type) {
	case query.Column:
		return goqu.C(node.Name()), nil

	case query.Literal:
		return goqu.V(node.Value()), nil

	case query.FunctionCall:
		return b.compileFunction(node)

	default:
		return nil, errors.Join(ErrBuildingQueryFailed, fmt.Errorf("cannot compile expression of type %T", e))
	}
}

func (b Builder) compileFunction(call query.FunctionCall) (exp.SQLFunctionExpression, error) {
	switch call.Function() {
	case query.FnAnd, query.FnOr, query.FnNot:
		return nil, errors.Join(
			ErrBuildingQueryFailed,
			fmt.Errorf("%s cannot be rendered as a function call", call.Function()),
		)
	}

	args := make([]any, 0, len(call.Args()))

	for _, arg := range call.Args() {
		compiled, err := b.compileArgument(arg)
		if err != nil {
			return nil, err
		}

		args = append(args, compiled)
	}

	return goqu.Func(call.Function(), args...), nil
}

// compileArgument unwraps literals so they render as plain values inside
// function calls, e.g. ifNull("offset", 0) instead of a bound parameter.
func (b Builder) compileArgument(e query.Expression) (any, error) {
	if literal, isLiteral := e.(query.Literal); isLiteral {
		return literal.Value(), nil
	}

	return b.compileCondition(e)
}

// comparisonValue unwraps a literal right-hand side so goqu interpolates the
// raw value; IN lists rely on this to expand slices.
func (b Builder) comparisonValue(e query.Expression) (any, error) {
	if literal, isLiteral := e.(query.Literal); isLiteral {
		return literal.Value(), nil
	}

	return b.compileOperand(e)
}

func requireArgs(call query.FunctionCall, count int) error {
	if len(call.Args()) != count {
		return errors.Join(
			ErrBuildingQueryFailed,
			fmt.Errorf("%s expects %d argument(s), got %d", call.Function(), count, len(call.Args())),
		)
	}

	return nil
}
