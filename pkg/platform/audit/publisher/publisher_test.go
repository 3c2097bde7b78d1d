package publisher

import (
	"context"
	"testing"
	"time"

	id "clearcheck/pkg/domain"
	audit "clearcheck/pkg/platform/audit"
	"clearcheck/pkg/platform/audit/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	op := id.OperatorID("op-1")
	event := audit.Event{
		OperatorID: op,
		Action:     string(audit.EventMappingToggled),
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	events, err := pub.List(context.Background(), op)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventMappingToggled), events[0].Action)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	op := id.OperatorID("op-2")
	for range 10 {
		event := audit.Event{
			OperatorID: op,
			Action:     string(audit.EventAvailabilityToggled),
		}
		err := pub.Emit(context.Background(), event)
		require.NoError(t, err)
	}

	// Close should drain all buffered events.
	pub.Close()

	events, err := store.ListByOperator(context.Background(), op)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_SetsTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	op := id.OperatorID("op-3")
	err := pub.Emit(context.Background(), audit.Event{
		OperatorID: op,
		Action:     string(audit.EventOrderSubmitted),
	})
	require.NoError(t, err)

	events, err := store.ListByOperator(context.Background(), op)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.WithinDuration(t, time.Now(), events[0].Timestamp, time.Minute)
}
