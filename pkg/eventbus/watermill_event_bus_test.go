package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasflow/canvasflow/pkg/channels/gochannel"
	"github.com/canvasflow/canvasflow/pkg/events"
)

func TestWatermillEventBusRoundTrip(t *testing.T) {
	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)
	defer func() { _ = bus.Close() }()

	received := make(chan any, 1)

	err = bus.Handle(events.NodeExecutionFinishedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	finished := events.NodeExecutionFinished{
		BaseEvent: events.NewBaseEvent(events.NodeExecutionFinishedEvent, "wf-1", "exec-1"),
		NodeID:    "gen-1",
		Result:    "a story",
		Preview:   "a story",
	}

	require.NoError(t, bus.Publish(ctx, "wf-1", finished))

	select {
	case event := <-received:
		got, ok := event.(*events.NodeExecutionFinished)
		require.True(t, ok)
		assert.Equal(t, "gen-1", got.NodeID)
		assert.Equal(t, "a story", got.Result)
		assert.Equal(t, "exec-1", got.ExecutionID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestWatermillEventBusIgnoresUnhandledTypes(t *testing.T) {
	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)
	defer func() { _ = bus.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	started := events.ExecutionStarted{
		BaseEvent: events.NewBaseEvent(events.ExecutionStartedEvent, "wf-1", "exec-1"),
		NodeCount: 3,
	}

	// No handler registered; publish must still succeed and the message is
	// acked away.
	require.NoError(t, bus.Publish(ctx, "wf-1", started))
}

func TestWatermillEventBusGenerateID(t *testing.T) {
	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)
	defer func() { _ = bus.Close() }()

	assert.NotEmpty(t, bus.GenerateID())
	assert.NotEqual(t, bus.GenerateID(), bus.GenerateID())
}
