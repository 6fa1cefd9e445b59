package subscriptions

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/streamwatch/entity-subscriptions-go/entities"
)

// DialectType tags which query dialect a stored subscription was written in.
type DialectType string

const (
	// DialectLegacy marks subscriptions whose query is stored in the legacy
	// nested-list dialect.
	DialectLegacy DialectType = "legacy"

	// DialectExpression marks subscriptions whose query is stored in the
	// expression dialect.
	DialectExpression DialectType = "expression"

	// DialectDelegate marks subscriptions evaluated in both dialects while
	// consumers migrate off the legacy one.
	DialectDelegate DialectType = "delegate"
)

var knownDialects = map[DialectType]struct{}{
	DialectLegacy:     {},
	DialectExpression: {},
	DialectDelegate:   {},
}

// String implements fmt.Stringer for DialectType.
func (d DialectType) String() string {
	return string(d)
}

// StorableSubscriptions is an alias type for a slice of StorableSubscription.
type StorableSubscriptions = []StorableSubscription

// StorableSubscription is a DTO used to persist a subscription and to
// reconstruct its entity variant when it is evaluated.
//
// It is built on scalars to stay agnostic of how callers store subscriptions.
// While its properties are exported for access, it should only be constructed
// with the supplied factory methods:
//   - BuildStorableSubscription
//   - BuildStorableSubscriptionWithDefaultDialect
//   - StorableSubscriptionFrom
//   - StorableSubscriptionFromJSON
type StorableSubscription struct {
	ID          uuid.UUID       `json:"id"`
	EntityKey   entities.Key    `json:"entity"`
	Dialect     DialectType     `json:"dialect"`
	PayloadJSON json.RawMessage `json:"payload"`
}

// BuildStorableSubscription is a factory method for StorableSubscription.
//
// It validates that the entity key is registered, the dialect is known, and
// the payload is valid JSON.
func BuildStorableSubscription(
	id uuid.UUID,
	key entities.Key,
	dialect DialectType,
	payloadJSON []byte,
) (StorableSubscription, error) {

	if _, err := entities.Resolve(key); err != nil {
		return StorableSubscription{}, err
	}

	if _, known := knownDialects[dialect]; !known {
		return StorableSubscription{}, errors.Join(ErrUnknownDialect, fmt.Errorf("dialect %q is not supported", dialect))
	}

	if !jsoniter.ConfigFastest.Valid(payloadJSON) {
		return StorableSubscription{}, ErrInvalidPayloadJSON
	}

	return StorableSubscription{
		ID:          id,
		EntityKey:   key,
		Dialect:     dialect,
		PayloadJSON: payloadJSON,
	}, nil
}

// BuildStorableSubscriptionWithDefaultDialect is a factory method for
// StorableSubscription using the expression dialect.
func BuildStorableSubscriptionWithDefaultDialect(
	id uuid.UUID,
	key entities.Key,
	payloadJSON []byte,
) (StorableSubscription, error) {

	return BuildStorableSubscription(id, key, DialectExpression, payloadJSON)
}

// StorableSubscriptionFrom converts an EntitySubscription into its storable
// form, serializing the entity-specific fields to JSON.
func StorableSubscriptionFrom(
	id uuid.UUID,
	subscription EntitySubscription,
	dialect DialectType,
) (StorableSubscription, error) {

	key, err := KeyOf(subscription)
	if err != nil {
		return StorableSubscription{}, err
	}

	payloadJSON, marshalErr := jsoniter.ConfigFastest.Marshal(subscription.Serialize())
	if marshalErr != nil {
		return StorableSubscription{}, errors.Join(ErrInvalidPayloadJSON, marshalErr)
	}

	return BuildStorableSubscription(id, key, dialect, payloadJSON)
}

// StorableSubscriptionFromJSON reconstructs a StorableSubscription from its
// ToJSON form, applying the same validation as BuildStorableSubscription.
func StorableSubscriptionFromJSON(data []byte) (StorableSubscription, error) {
	stored := StorableSubscription{}
	if err := jsoniter.ConfigFastest.Unmarshal(data, &stored); err != nil {
		return StorableSubscription{}, errors.Join(ErrInvalidSubscriptionJSON, err)
	}

	return BuildStorableSubscription(stored.ID, stored.EntityKey, stored.Dialect, stored.PayloadJSON)
}

// ToJSON serializes the StorableSubscription for persistence, round-tripping
// with StorableSubscriptionFromJSON.
func (s StorableSubscription) ToJSON() ([]byte, error) {
	return jsoniter.ConfigFastest.Marshal(s)
}

// Subscription reconstructs the entity variant for this record through the
// registry, from the stored payload.
func (s StorableSubscription) Subscription() (EntitySubscription, error) {
	payload := Payload{}
	if err := jsoniter.ConfigFastest.Unmarshal(s.PayloadJSON, &payload); err != nil {
		return nil, errors.Join(ErrInvalidPayloadJSON, err)
	}

	return Build(s.EntityKey, payload)
}
