package subscriptions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamwatch/entity-subscriptions-go/entities"
	"github.com/streamwatch/entity-subscriptions-go/query"
	"github.com/streamwatch/entity-subscriptions-go/subscriptions"
)

func Test_Build_ConstructsTheVariantRegisteredForEachKey(t *testing.T) {
	sessionsVariant, err := subscriptions.Build(entities.Sessions, subscriptions.Payload{"organization": 42})
	require.NoError(t, err)
	sessionsSubscription, isSessions := sessionsVariant.(subscriptions.SessionsSubscription)
	require.True(t, isSessions)
	assert.Equal(t, int64(42), sessionsSubscription.Organization())

	eventsVariant, err := subscriptions.Build(entities.Events, subscriptions.Payload{})
	require.NoError(t, err)
	_, isEvents := eventsVariant.(subscriptions.EventsSubscription)
	assert.True(t, isEvents)

	transactionsVariant, err := subscriptions.Build(entities.Transactions, subscriptions.Payload{})
	require.NoError(t, err)
	_, isTransactions := transactionsVariant.(subscriptions.TransactionsSubscription)
	assert.True(t, isTransactions)
}

func Test_Build_FailsForUnknownEntityKeys(t *testing.T) {
	_, err := subscriptions.Build(entities.Key("spans"), subscriptions.Payload{})

	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrUnknownEntity)
	assert.ErrorContains(t, err, "spans")
}

func Test_Build_PropagatesPayloadValidation(t *testing.T) {
	_, err := subscriptions.Build(entities.Sessions, subscriptions.Payload{})

	require.Error(t, err)
	assert.ErrorIs(t, err, subscriptions.ErrInvalidSubscriptionPayload)
}

func Test_Build_IgnoresFieldsTheVariantDoesNotRequire(t *testing.T) {
	subscription, err := subscriptions.Build(entities.Events, subscriptions.Payload{"organization": 42})

	require.NoError(t, err)
	_, isEvents := subscription.(subscriptions.EventsSubscription)
	assert.True(t, isEvents)
}

func Test_KeyOf_IsTheInverseOfBuild(t *testing.T) {
	for _, key := range subscriptions.RegisteredKeys() {
		payload := subscriptions.Payload{}
		if key == entities.Sessions {
			payload["organization"] = 42
		}

		subscription, err := subscriptions.Build(key, payload)
		require.NoError(t, err)

		roundTripped, err := subscriptions.KeyOf(subscription)
		require.NoError(t, err)
		assert.Equal(t, key, roundTripped)
	}
}

func Test_KeyOf_FailsForUnregisteredVariants(t *testing.T) {
	_, err := subscriptions.KeyOf(unregisteredSubscription{})

	require.Error(t, err)
	assert.ErrorIs(t, err, subscriptions.ErrUnknownVariant)
}

func Test_RegisteredKeys_CoverTheEntityRegistry(t *testing.T) {
	keys := subscriptions.RegisteredKeys()

	require.Len(t, keys, len(entities.All()))
	for _, entity := range entities.All() {
		assert.Contains(t, keys, entity.Key)
	}
}

// unregisteredSubscription is a variant the registry does not know.
type unregisteredSubscription struct{}

func (unregisteredSubscription) ExpressionConditions(_ *subscriptions.OffsetInt64) []query.Expression {
	return nil
}

func (unregisteredSubscription) LegacyConditions(_ *subscriptions.OffsetInt64) []subscriptions.LegacyCondition {
	return nil
}

func (unregisteredSubscription) ValidateQuery(_ query.Query) error {
	return nil
}

func (unregisteredSubscription) Serialize() subscriptions.Payload {
	return subscriptions.Payload{}
}
