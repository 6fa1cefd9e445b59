// Command subscriptionflow walks one subscription through its full lifecycle:
// persist the record, reload it, reconstruct the entity variant, validate the
// subscription query, emit the filter conditions in both dialects, and render
// the merged SQL.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/streamwatch/entity-subscriptions-go/entities"
	"github.com/streamwatch/entity-subscriptions-go/query"
	"github.com/streamwatch/entity-subscriptions-go/subscriptions"
	"github.com/streamwatch/entity-subscriptions-go/subscriptions/querysql"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("subscription flow failed: %v", err)
	}
}

func run() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// A subscription record as it would be written to the subscriptions table.
	stored, err := subscriptions.BuildStorableSubscription(
		uuid.New(), entities.Sessions, subscriptions.DialectDelegate, []byte(`{"organization": 42}`))
	if err != nil {
		return fmt.Errorf("failed to build storable subscription: %w", err)
	}

	storedJSON, err := stored.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize subscription record: %w", err)
	}

	logger.Info("subscription record persisted", "record", string(storedJSON))

	// Reload the record and reconstruct its entity variant through the registry.
	reloaded, err := subscriptions.StorableSubscriptionFromJSON(storedJSON)
	if err != nil {
		return fmt.Errorf("failed to reload subscription record: %w", err)
	}

	subscription, err := reloaded.Subscription()
	if err != nil {
		return fmt.Errorf("failed to reconstruct subscription variant: %w", err)
	}

	// The query this subscription evaluates periodically.
	q := query.BuildQuery(query.Entity(entities.Sessions)).
		Selecting("sessions", query.F("sum", query.C("sessions"))).
		Where(query.Gte(query.C("started"), query.V("2026-08-18 00:00:00"))).
		Finalize()

	if err = subscription.ValidateQuery(q); err != nil {
		return fmt.Errorf("subscription query rejected: %w", err)
	}

	logger.Info("subscription query validated", "entity", entities.Sessions.String())

	// The same filters in both dialects: the legacy nested-list JSON, and the
	// expression dialect merged into the rendered SQL below.
	offset := subscriptions.OffsetInt64(1000)

	legacyJSON, err := jsoniter.ConfigFastest.Marshal(subscription.LegacyConditions(&offset))
	if err != nil {
		return fmt.Errorf("failed to serialize legacy conditions: %w", err)
	}

	logger.Info("legacy dialect conditions", "conditions", string(legacyJSON))

	builder, err := querysql.NewBuilder(querysql.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create sql builder: %w", err)
	}

	ctx := context.Background()

	plainSQL, err := builder.Render(ctx, q)
	if err != nil {
		return fmt.Errorf("failed to render query: %w", err)
	}

	mergedSQL, err := builder.RenderForSubscription(ctx, q, subscription, &offset)
	if err != nil {
		return fmt.Errorf("failed to render subscription query: %w", err)
	}

	logger.Info("sql rendered", "plain", plainSQL, "merged", mergedSQL)

	// Grouped queries are rejected before any conditions merge.
	grouped := query.BuildQuery(query.Entity(entities.Sessions)).
		Where(query.Gte(query.C("started"), query.V("2026-08-18 00:00:00"))).
		GroupedBy(query.C("project_id")).
		Finalize()

	if err = subscription.ValidateQuery(grouped); err != nil {
		logger.Warn("grouped query rejected", "error", err)
	}

	return nil
}
