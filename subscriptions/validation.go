package subscriptions

import (
	"errors"
	"fmt"

	"github.com/streamwatch/entity-subscriptions-go/entities"
	"github.com/streamwatch/entity-subscriptions-go/query"
)

const (
	clauseGroupBy = "groupby"
	clauseHaving  = "having"
	clauseOrderBy = "orderby"
)

// queryValidation is the validation behavior shared by every subscription
// variant; the aggregation limit is per-variant configuration.
type queryValidation struct {
	maxAllowedAggregations int
}

// ValidateQuery checks, in order: the query reads from a single registered
// entity, it stays within the clause shape allowed for subscriptions, and it
// bounds the entity's required time column when the entity declares one. The
// first failed check wins and later checks are not run.
func (v queryValidation) ValidateQuery(q query.Query) error {
	entity, err := v.validateFromClause(q)
	if err != nil {
		return err
	}

	if err = v.validateAllowedClauses(q); err != nil {
		return err
	}

	return v.validateRequiredTimeColumn(q, entity)
}

func (v queryValidation) validateFromClause(q query.Query) (entities.Entity, error) {
	source, isSimple := q.FromClause().(query.EntitySource)
	if !isSimple {
		return entities.Entity{}, ErrCompositeQueryUnsupported
	}

	return entities.Resolve(source.Key())
}

func (v queryValidation) validateAllowedClauses(q query.Query) error {
	aggregations := 0
	for _, selected := range q.SelectedExpressions() {
		if query.ContainsAggregate(selected.Expression()) {
			aggregations++
		}
	}

	if aggregations > v.maxAllowedAggregations {
		return errors.Join(
			ErrTooManyAggregations,
			fmt.Errorf(
				"%d aggregations given, a maximum of %d is allowed in subscription queries",
				aggregations,
				v.maxAllowedAggregations),
		)
	}

	if len(q.GroupBy()) > 0 {
		return disallowedClauseError(clauseGroupBy)
	}

	if q.Having() != nil {
		return disallowedClauseError(clauseHaving)
	}

	if len(q.OrderBy()) > 0 {
		return disallowedClauseError(clauseOrderBy)
	}

	return nil
}

func (v queryValidation) validateRequiredTimeColumn(q query.Query, entity entities.Entity) error {
	if entity.RequiredTimeColumn == "" {
		return nil
	}

	if !query.HasComparisonOn(q.Condition(), entity.RequiredTimeColumn) {
		return errors.Join(
			ErrMissingTimeCondition,
			fmt.Errorf(
				"subscription queries over the %s entity must bound the %q column",
				entity.Key,
				entity.RequiredTimeColumn),
		)
	}

	return nil
}

func disallowedClauseError(clause string) error {
	return errors.Join(ErrDisallowedClause, fmt.Errorf("invalid clause %s in subscription query", clause))
}
