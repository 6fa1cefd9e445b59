// Package subscriptions implements the entity subscription condition and
// validation framework.
//
// A subscription is a persisted query over one entity (sessions, events,
// transactions) that is re-evaluated periodically against fresh data. Each
// entity has one subscription variant implementing EntitySubscription, which
//   - validates that a query is structurally legal for subscription
//     evaluation (single simple entity source, bounded aggregation count,
//     required time column bounded), and
//   - emits the entity-specific filter conditions in the two supported query
//     dialects, so a re-evaluation only observes rows newer than a given
//     offset and scoped to the correct tenant.
//
// Variants are constructed through the registry from an entity key and an
// opaque payload:
//
//	subscription, err := subscriptions.Build(entities.Sessions, subscriptions.Payload{"organization": 42})
//	if err != nil {
//		// handle error
//	}
//
//	if err := subscription.ValidateQuery(q); err != nil {
//		// reject the subscription
//	}
//
//	offset := subscriptions.OffsetInt64(1000)
//	merged := q.WithAddedConditions(subscription.ExpressionConditions(&offset)...)
//
// Validation must run before conditions are merged: the emitters assume the
// validated query shape and never validate themselves.
package subscriptions
