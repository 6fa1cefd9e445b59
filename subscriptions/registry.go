package subscriptions

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/streamwatch/entity-subscriptions-go/entities"
)

// subscriptionFactory constructs one entity variant from a payload.
type subscriptionFactory = func(payload Payload) (EntitySubscription, error)

// registration binds one entity key to one subscription variant.
type registration struct {
	key     entities.Key
	variant reflect.Type
	build   subscriptionFactory
}

// registrations is the fixed variant table. Keys and variant types must both
// be unique so the mapping stays a bijection; init panics otherwise.
var registrations = []registration{
	{
		key:     entities.Sessions,
		variant: reflect.TypeOf(SessionsSubscription{}),
		build: func(payload Payload) (EntitySubscription, error) {
			return BuildSessionsSubscription(payload)
		},
	},
	{
		key:     entities.Events,
		variant: reflect.TypeOf(EventsSubscription{}),
		build: func(_ Payload) (EntitySubscription, error) {
			return BuildEventsSubscription(), nil
		},
	},
	{
		key:     entities.Transactions,
		variant: reflect.TypeOf(TransactionsSubscription{}),
		build: func(_ Payload) (EntitySubscription, error) {
			return BuildTransactionsSubscription(), nil
		},
	},
}

var (
	factoryByKey = make(map[entities.Key]subscriptionFactory, len(registrations))
	keyByVariant = make(map[reflect.Type]entities.Key, len(registrations))
)

func init() {
	for _, reg := range registrations {
		if _, duplicate := factoryByKey[reg.key]; duplicate {
			panic(fmt.Sprintf("subscription variant for entity key %q registered twice", reg.key))
		}

		if _, duplicate := keyByVariant[reg.variant]; duplicate {
			panic(fmt.Sprintf("subscription variant %s registered twice", reg.variant))
		}

		factoryByKey[reg.key] = reg.build
		keyByVariant[reg.variant] = reg.key
	}
}

// Build constructs the subscription variant registered for the given entity
// key from the payload. Unknown keys fail with entities.ErrUnknownEntity,
// payloads missing required fields fail with ErrInvalidSubscriptionPayload.
func Build(key entities.Key, payload Payload) (EntitySubscription, error) {
	factory, registered := factoryByKey[key]
	if !registered {
		return nil, errors.Join(
			entities.ErrUnknownEntity,
			fmt.Errorf("no subscription variant registered for entity key %q", key),
		)
	}

	return factory(payload)
}

// KeyOf returns the entity key a subscription variant is registered for, the
// reverse direction of Build.
func KeyOf(subscription EntitySubscription) (entities.Key, error) {
	key, registered := keyByVariant[reflect.TypeOf(subscription)]
	if !registered {
		return "", errors.Join(
			ErrUnknownVariant,
			fmt.Errorf("no entity key registered for subscription variant %T", subscription),
		)
	}

	return key, nil
}

// RegisteredKeys returns the entity keys with a registered subscription
// variant, in registration order.
func RegisteredKeys() []entities.Key {
	keys := make([]entities.Key, 0, len(registrations))
	for _, reg := range registrations {
		keys = append(keys, reg.key)
	}

	return keys
}
