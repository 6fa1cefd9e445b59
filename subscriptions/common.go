package subscriptions

import "errors"

var (
	// ErrInvalidSubscriptionPayload occurs when a payload is missing a field the
	// entity variant requires, or carries it with the wrong type.
	ErrInvalidSubscriptionPayload = errors.New("subscription payload is not valid")

	// ErrInvalidPayloadJSON occurs when a stored payload is not valid JSON.
	ErrInvalidPayloadJSON = errors.New("payload json is not valid")

	// ErrInvalidSubscriptionJSON occurs when a stored subscription record is not
	// valid JSON.
	ErrInvalidSubscriptionJSON = errors.New("subscription json is not valid")

	// ErrUnknownVariant occurs when a subscription variant has no registered
	// entity key.
	ErrUnknownVariant = errors.New("unknown subscription variant")

	// ErrUnknownDialect occurs when a stored subscription carries a dialect tag
	// outside the supported set.
	ErrUnknownDialect = errors.New("unknown subscription dialect")

	// ErrCompositeQueryUnsupported occurs when a subscription query reads from
	// anything but a single simple entity.
	ErrCompositeQueryUnsupported = errors.New("only simple queries over a single entity are supported in subscriptions")

	// ErrTooManyAggregations occurs when a subscription query selects more
	// aggregations than the entity variant allows.
	ErrTooManyAggregations = errors.New("too many aggregations in subscription query")

	// ErrDisallowedClause occurs when a subscription query uses a clause that is
	// not allowed for periodic evaluation.
	ErrDisallowedClause = errors.New("disallowed clause in subscription query")

	// ErrMissingTimeCondition occurs when a subscription query does not bound
	// the entity's required time column.
	ErrMissingTimeCondition = errors.New("subscription query lacks a condition on the required time column")
)
