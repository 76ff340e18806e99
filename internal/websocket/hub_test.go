package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"swift-ai-market/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.Run(ctx) }()
	t.Cleanup(cancel)
	return hub, cancel
}

func testClient(hub *Hub, buffer int) *Client {
	return &Client{Id: uuid.New(), Hub: hub, Send: make(chan []byte, buffer)}
}

func TestHub_BroadcastReachesEveryClient(t *testing.T) {
	hub, _ := startHub(t)
	a, b := testClient(hub, 4), testClient(hub, 4)
	require.True(t, hub.Register(a))
	require.True(t, hub.Register(b))
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.Broadcast("metrics_snapshot", map[string]int{"active_sessions": 3})

	for _, c := range []*Client{a, b} {
		select {
		case raw := <-c.Send:
			var msg struct {
				Type string         `json:"type"`
				Data map[string]int `json:"data"`
			}
			require.NoError(t, json.Unmarshal(raw, &msg))
			assert.Equal(t, "metrics_snapshot", msg.Type)
			assert.Equal(t, 3, msg.Data["active_sessions"])
		case <-time.After(time.Second):
			t.Fatal("message not delivered")
		}
	}
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	hub, _ := startHub(t)
	slow := testClient(hub, 1)
	require.True(t, hub.Register(slow))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast("x", 1)
	hub.Broadcast("x", 2)

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	<-slow.Send
	_, open := <-slow.Send
	assert.False(t, open)

	// Unregistering twice is harmless.
	hub.Unregister(slow)
}

func TestHub_StopClosesClients(t *testing.T) {
	hub, cancel := startHub(t)
	c := testClient(hub, 1)
	require.True(t, hub.Register(c))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case _, open := <-c.Send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("client not closed")
	}
	require.Eventually(t, func() bool { return !hub.Register(testClient(hub, 1)) }, time.Second, 5*time.Millisecond)
}
