package subscriptions

import (
	"errors"
	"fmt"
	"math"

	"github.com/streamwatch/entity-subscriptions-go/entities"
	"github.com/streamwatch/entity-subscriptions-go/query"
)

// OffsetInt64 is a type alias for int64, representing the highest row offset a
// subscription evaluation should observe.
type OffsetInt64 = int64

// Payload is a type alias for the opaque deserialized form of a persisted
// subscription. Each entity variant reads the fields it requires and ignores
// the rest.
type Payload = map[string]any

const payloadFieldOrganization = "organization"

const (
	colOrgID  = "org_id"
	colOffset = "offset"
)

const (
	defaultMaxAllowedAggregations  = 1
	sessionsMaxAllowedAggregations = 2
)

/***** EntitySubscription *****/

// EntitySubscription is the contract every entity variant implements. A
// variant validates subscription queries for its entity and emits the filter
// conditions evaluation must add, in both supported dialects.
type EntitySubscription interface {
	// ExpressionConditions returns the entity-specific filter conditions in
	// the expression dialect. A nil offset means no offset filtering is
	// wanted.
	ExpressionConditions(offset *OffsetInt64) []query.Expression

	// LegacyConditions returns the same filters in the legacy nested-list
	// dialect. Both dialects express identical predicates for identical
	// inputs.
	LegacyConditions(offset *OffsetInt64) []LegacyCondition

	// ValidateQuery checks that the query is structurally legal for periodic
	// subscription evaluation. It must pass before conditions are merged.
	ValidateQuery(q query.Query) error

	// Serialize returns exactly the entity-specific fields required to
	// reconstruct an equivalent subscription with Build.
	Serialize() Payload
}

/***** SessionsSubscription *****/

// SessionsSubscription scopes subscription queries over the sessions entity
// to one organization. The offset never produces a condition: sessions rows
// are pre-aggregated and carry no row offset to bound.
type SessionsSubscription struct {
	queryValidation
	organization int64
}

// BuildSessionsSubscription is a factory method for SessionsSubscription.
//
// The payload must carry an integral "organization" field; construction fails
// with ErrInvalidSubscriptionPayload otherwise, so no partially built
// subscription escapes.
func BuildSessionsSubscription(payload Payload) (SessionsSubscription, error) {
	organization, err := organizationFromPayload(payload)
	if err != nil {
		return SessionsSubscription{}, err
	}

	return SessionsSubscription{
		queryValidation: queryValidation{maxAllowedAggregations: sessionsMaxAllowedAggregations},
		organization:    organization,
	}, nil
}

// Organization returns the organization this subscription is scoped to.
func (s SessionsSubscription) Organization() int64 {
	return s.organization
}

// ExpressionConditions returns the tenant equality filter; the offset is
// accepted but never produces a condition.
func (s SessionsSubscription) ExpressionConditions(_ *OffsetInt64) []query.Expression {
	return []query.Expression{
		query.Eq(query.C(colOrgID), query.V(s.organization)),
	}
}

// LegacyConditions returns the tenant equality filter in the legacy dialect.
func (s SessionsSubscription) LegacyConditions(_ *OffsetInt64) []LegacyCondition {
	return []LegacyCondition{
		LegacyColumnCondition(colOrgID, LegacyOpEquals, s.organization),
	}
}

// Serialize returns the organization field, the only one required to
// reconstruct this subscription.
func (s SessionsSubscription) Serialize() Payload {
	return Payload{payloadFieldOrganization: s.organization}
}

func organizationFromPayload(payload Payload) (int64, error) {
	raw, present := payload[payloadFieldOrganization]
	if !present {
		return 0, errors.Join(
			ErrInvalidSubscriptionPayload,
			fmt.Errorf("the organization field is required for any subscription over the %s entity", entities.Sessions),
		)
	}

	organization, isIntegral := integralValue(raw)
	if !isIntegral {
		return 0, errors.Join(
			ErrInvalidSubscriptionPayload,
			fmt.Errorf("the organization field for a %s subscription must be an integer, got %T", entities.Sessions, raw),
		)
	}

	return organization, nil
}

// integralValue extracts an int64 from the value shapes a deserialized JSON
// payload can deliver for an integer field; fractional floats do not qualify.
func integralValue(raw any) (int64, bool) {
	switch value := raw.(type) {
	case int:
		return int64(value), true
	case int32:
		return int64(value), true
	case int64:
		return value, true
	case uint:
		return int64(value), true
	case uint32:
		return int64(value), true
	case uint64:
		if value > math.MaxInt64 {
			return 0, false
		}

		return int64(value), true
	case float64:
		if value != math.Trunc(value) {
			return 0, false
		}

		return int64(value), true
	default:
		return 0, false
	}
}

/***** EventsSubscription / TransactionsSubscription *****/

// offsetBoundConditions emits the shared low-water-mark bound for entities
// with a row offset: ifNull(offset, 0) <= givenOffset. A row with no recorded
// offset counts as the minimum, so the bound always admits it.
type offsetBoundConditions struct{}

func (offsetBoundConditions) ExpressionConditions(offset *OffsetInt64) []query.Expression {
	if offset == nil {
		return []query.Expression{}
	}

	return []query.Expression{
		query.Lte(
			query.F(query.FnIfNull, query.C(colOffset), query.V(0)),
			query.V(*offset),
		),
	}
}

func (offsetBoundConditions) LegacyConditions(offset *OffsetInt64) []LegacyCondition {
	if offset == nil {
		return []LegacyCondition{}
	}

	return []LegacyCondition{
		LegacyFunctionCondition(legacyFnIfNull, []any{colOffset, 0}, LegacyOpLessOrEquals, *offset),
	}
}

// EventsSubscription bounds subscription queries over the events entity to
// rows at or below a given offset.
type EventsSubscription struct {
	queryValidation
	offsetBoundConditions
}

// BuildEventsSubscription is a factory method for EventsSubscription. Events
// subscriptions require no entity-specific payload fields.
func BuildEventsSubscription() EventsSubscription {
	return EventsSubscription{
		queryValidation: queryValidation{maxAllowedAggregations: defaultMaxAllowedAggregations},
	}
}

// Serialize returns an empty payload; events subscriptions carry no
// entity-specific fields.
func (s EventsSubscription) Serialize() Payload {
	return Payload{}
}

// TransactionsSubscription bounds subscription queries over the transactions
// entity to rows at or below a given offset.
type TransactionsSubscription struct {
	queryValidation
	offsetBoundConditions
}

// BuildTransactionsSubscription is a factory method for
// TransactionsSubscription. Transactions subscriptions require no
// entity-specific payload fields.
func BuildTransactionsSubscription() TransactionsSubscription {
	return TransactionsSubscription{
		queryValidation: queryValidation{maxAllowedAggregations: defaultMaxAllowedAggregations},
	}
}

// Serialize returns an empty payload; transactions subscriptions carry no
// entity-specific fields.
func (s TransactionsSubscription) Serialize() Payload {
	return Payload{}
}

var (
	_ EntitySubscription = SessionsSubscription{}
	_ EntitySubscription = EventsSubscription{}
	_ EntitySubscription = TransactionsSubscription{}
)
