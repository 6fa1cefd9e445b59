package entities

import (
	"errors"
	"fmt"
)

var ErrUnknownEntity = errors.New("unknown entity key")

// Key identifies a queryable entity.
type Key string

const (
	Events       Key = "events"
	Sessions     Key = "sessions"
	Transactions Key = "transactions"
)

func (k Key) String() string {
	return string(k)
}

// Entity describes the query-relevant metadata of one entity.
//
// RequiredTimeColumn is the column every subscription query over this entity
// must bound with a condition; an empty value means no time bound is required.
type Entity struct {
	Key                Key
	DefaultTable       string
	RequiredTimeColumn string
}

var registered = []Entity{
	{
		Key:                Events,
		DefaultTable:       "events",
		RequiredTimeColumn: "timestamp",
	},
	{
		Key:                Transactions,
		DefaultTable:       "transactions",
		RequiredTimeColumn: "finish_ts",
	},
	{
		Key:                Sessions,
		DefaultTable:       "sessions_hourly",
		RequiredTimeColumn: "started",
	},
}

var entityByKey = func() map[Key]Entity {
	byKey := make(map[Key]Entity, len(registered))

	for _, entity := range registered {
		if _, duplicate := byKey[entity.Key]; duplicate {
			panic(fmt.Sprintf("entity key %q registered twice", entity.Key))
		}

		byKey[entity.Key] = entity
	}

	return byKey
}()

// Resolve returns the metadata registered for the given entity key.
//
// It is a pure lookup with no side effects, an unknown key returns ErrUnknownEntity.
func Resolve(key Key) (Entity, error) {
	entity, exists := entityByKey[key]
	if !exists {
		return Entity{}, errors.Join(ErrUnknownEntity, fmt.Errorf("no entity registered for key %q", key))
	}

	return entity, nil
}

// All returns the metadata of every registered entity in registration order.
func All() []Entity {
	all := make([]Entity, len(registered))
	copy(all, registered)

	return all
}
