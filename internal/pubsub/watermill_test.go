package pubsub

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWatermillBridge_RoundTrip(t *testing.T) {
	wb := NewWatermillBridge(zap.NewNop())
	t.Cleanup(func() { _ = wb.Close() })

	got := make(chan Message, 1)
	require.NoError(t, wb.Subscribe(context.Background(), "game.events", func(_ context.Context, msg Message) error {
		got <- msg
		return nil
	}))

	require.NoError(t, wb.Publish(context.Background(), Message{
		Topic:    "game.events",
		LobbyID:  "lobby-1",
		Payload:  []byte(`{"type":"PLAYER_SHOT"}`),
		Metadata: map[string]string{"event_type": "PLAYER_SHOT"},
	}))

	select {
	case msg := <-got:
		assert.Equal(t, "game.events", msg.Topic)
		assert.Equal(t, "lobby-1", msg.LobbyID)
		assert.JSONEq(t, `{"type":"PLAYER_SHOT"}`, string(msg.Payload))
		assert.Equal(t, map[string]string{"event_type": "PLAYER_SHOT"}, msg.Metadata)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestWatermillBridge_FailedHandlerIsNotRedelivered(t *testing.T) {
	wb := NewWatermillBridge(zap.NewNop())

	var calls atomic.Int32
	require.NoError(t, wb.Subscribe(context.Background(), "t", func(context.Context, Message) error {
		calls.Add(1)
		return errors.New("store down")
	}))
	require.NoError(t, wb.Publish(context.Background(), Message{Topic: "t", Payload: []byte("x")}))

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	require.NoError(t, wb.Close())
}

func TestWatermillBridge_PublishAfterClose(t *testing.T) {
	wb := NewWatermillBridge(zap.NewNop())
	require.NoError(t, wb.Close())
	assert.Error(t, wb.Publish(context.Background(), Message{Topic: "t"}))
}

func TestMapping_ReservedKeysStripped(t *testing.T) {
	wm := mapToWatermillMessage(Message{
		Topic:    "a",
		LobbyID:  "l",
		Metadata: map[string]string{"topic": "spoofed", "k": "v"},
	})
	assert.Equal(t, "a", wm.Metadata.Get("topic"))

	back := mapToPubSubMessage(wm)
	assert.Equal(t, "a", back.Topic)
	assert.Equal(t, "l", back.LobbyID)
	assert.Equal(t, map[string]string{"k": "v"}, back.Metadata)
}
