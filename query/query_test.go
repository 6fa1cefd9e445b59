package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamwatch/entity-subscriptions-go/entities"
	"github.com/streamwatch/entity-subscriptions-go/query"
)

func Test_EntitySource_ExposesItsKey(t *testing.T) {
	source := query.Entity(entities.Sessions)

	assert.Equal(t, entities.Sessions, source.Key())
}

func Test_Composite_CollectsAllSources(t *testing.T) {
	composite := query.Composite(
		query.Entity(entities.Events),
		query.Entity(entities.Transactions),
		query.Entity(entities.Sessions),
	)

	require.Len(t, composite.Sources(), 3)

	first, isEntity := composite.Sources()[0].(query.EntitySource)
	assert.True(t, isEntity)
	assert.Equal(t, entities.Events, first.Key())
}

func Test_Query_AccessorsReflectBuiltClauses(t *testing.T) {
	condition := query.Gte(query.C("timestamp"), query.V("2026-08-20T00:00:00"))

	q := query.BuildQuery(query.Entity(entities.Events)).
		Selecting("count", query.F("count")).
		Where(condition).
		GroupedBy(query.C("release")).
		HavingThat(query.Gt(query.F("count"), query.V(10))).
		OrderedBy(query.C("timestamp"), query.OrderDesc).
		LimitedTo(100).
		Finalize()

	from, isEntity := q.FromClause().(query.EntitySource)
	require.True(t, isEntity)
	assert.Equal(t, entities.Events, from.Key())

	require.Len(t, q.SelectedExpressions(), 1)
	assert.Equal(t, "count", q.SelectedExpressions()[0].Name())

	assert.Equal(t, query.Expression(condition), q.Condition())
	assert.Len(t, q.GroupBy(), 1)
	assert.NotNil(t, q.Having())
	require.Len(t, q.OrderBy(), 1)
	assert.Equal(t, query.OrderDesc, q.OrderBy()[0].Direction())
	assert.Equal(t, uint(100), q.Limit())
}

func Test_Query_ZeroClausesStayEmpty(t *testing.T) {
	q := query.BuildQuery(query.Entity(entities.Events)).Finalize()

	assert.Empty(t, q.SelectedExpressions())
	assert.Nil(t, q.Condition())
	assert.Empty(t, q.GroupBy())
	assert.Nil(t, q.Having())
	assert.Empty(t, q.OrderBy())
	assert.Equal(t, uint(0), q.Limit())
}

func Test_Builder_Where_CombinesMultipleCallsAsConjunction(t *testing.T) {
	first := query.Eq(query.C("project_id"), query.V(1))
	second := query.Gte(query.C("timestamp"), query.V("2026-01-01"))

	q := query.BuildQuery(query.Entity(entities.Events)).
		Where(first).
		Where(second).
		Finalize()

	call, isCall := q.Condition().(query.FunctionCall)
	require.True(t, isCall)
	assert.Equal(t, query.FnAnd, call.Function())
	assert.Len(t, call.Args(), 2)
}

func Test_Builder_Where_IgnoresNilCondition(t *testing.T) {
	q := query.BuildQuery(query.Entity(entities.Events)).
		Where(nil).
		Finalize()

	assert.Nil(t, q.Condition())
}

func Test_WithAddedConditions_NoConditionsReturnsQueryUnchanged(t *testing.T) {
	q := query.BuildQuery(query.Entity(entities.Events)).
		Where(query.Eq(query.C("project_id"), query.V(1))).
		Finalize()

	merged := q.WithAddedConditions()

	assert.Equal(t, q, merged)
}

func Test_WithAddedConditions_SetsConditionWhenQueryHadNone(t *testing.T) {
	q := query.BuildQuery(query.Entity(entities.Events)).Finalize()
	added := query.Lte(query.C("offset"), query.V(1000))

	merged := q.WithAddedConditions(added)

	assert.Equal(t, query.Expression(added), merged.Condition())
}

func Test_WithAddedConditions_MergesIntoExistingConditionAsConjunction(t *testing.T) {
	existing := query.Gte(query.C("timestamp"), query.V("2026-01-01"))
	q := query.BuildQuery(query.Entity(entities.Events)).
		Where(existing).
		Finalize()

	merged := q.WithAddedConditions(
		query.Lte(query.C("offset"), query.V(1000)),
		query.Eq(query.C("project_id"), query.V(1)),
	)

	call, isCall := merged.Condition().(query.FunctionCall)
	require.True(t, isCall)
	assert.Equal(t, query.FnAnd, call.Function())
	require.Len(t, call.Args(), 3)
	assert.Equal(t, query.Expression(existing), call.Args()[0])
}

func Test_WithAddedConditions_LeavesTheReceiverUntouched(t *testing.T) {
	q := query.BuildQuery(query.Entity(entities.Events)).Finalize()

	_ = q.WithAddedConditions(query.Eq(query.C("a"), query.V(1)))

	assert.Nil(t, q.Condition())
}
