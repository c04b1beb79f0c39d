package messaging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planvault/degree-audit/internal/domain/shared"
)

func syncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode:     false,
		EnableMetrics: true,
	})
}

func TestInMemoryEventBus_DeliversToTypedSubscriber(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var got []string
	err := bus.Subscribe(shared.EventFulfillmentsRecomputed, func(e shared.Event) error {
		got = append(got, e.AggregateID())
		return nil
	})
	require.NoError(t, err)

	event := shared.NewFulfillmentsRecomputedEvent("plan-1", []string{"link-1"}, 3)
	require.NoError(t, bus.Publish(event))

	assert.Equal(t, []string{"plan-1"}, got)
}

func TestInMemoryEventBus_TypeFiltering(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	calls := 0
	require.NoError(t, bus.Subscribe(shared.EventCatalogRefreshed, func(shared.Event) error {
		calls++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewFulfillmentsRecomputedEvent("plan-1", nil, 0)))
	assert.Zero(t, calls)
}

func TestInMemoryEventBus_SubscribeAllSeesEverything(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var types []shared.EventType
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		types = append(types, e.EventType())
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewFulfillmentsRecomputedEvent("plan-1", nil, 0)))
	require.NoError(t, bus.Publish(shared.NewPlanCoursesChangedEvent("plan-1", "pc-1", "added")))

	assert.Equal(t, []shared.EventType{
		shared.EventFulfillmentsRecomputed,
		shared.EventPlanCoursesChanged,
	}, types)
}

func TestInMemoryEventBus_HandlerErrorDoesNotFailPublish(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	require.NoError(t, bus.Subscribe(shared.EventFulfillmentsRecomputed, func(shared.Event) error {
		return errors.New("boom")
	}))

	assert.NoError(t, bus.Publish(shared.NewFulfillmentsRecomputedEvent("plan-1", nil, 0)))
	assert.EqualValues(t, 1, bus.Metrics().Failed(shared.EventFulfillmentsRecomputed))
}

func TestInMemoryEventBus_ClosedBusRejectsOperations(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewFulfillmentsRecomputedEvent("plan-1", nil, 0))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventFulfillmentsRecomputed, func(shared.Event) error { return nil })
	assert.ErrorIs(t, err, ErrEventBusClosed)

	// Close is idempotent.
	assert.NoError(t, bus.Close())
}

func TestEventBusMetrics_Counts(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	require.NoError(t, bus.Subscribe(shared.EventFulfillmentsRecomputed, func(shared.Event) error { return nil }))

	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(shared.NewFulfillmentsRecomputedEvent("plan-1", nil, 0)))
	}

	m := bus.Metrics()
	assert.EqualValues(t, 3, m.Published(shared.EventFulfillmentsRecomputed))
	assert.Zero(t, m.Failed(shared.EventFulfillmentsRecomputed))
}
