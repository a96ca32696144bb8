package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsroom/internal/events"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	t.Cleanup(func() { _ = hub.Close() })

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(hub, uuid.New(), conn).Serve()
	}))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubBroadcastsEvents(t *testing.T) {
	hub, url := startHub(t)
	a, b := dial(t, url), dial(t, url)
	require.Eventually(t, func() bool { return hub.Connected() == 2 }, time.Second, 10*time.Millisecond)

	subject := uuid.New()
	require.NoError(t, hub.Publish(context.Background(), events.New(events.PostApproved, uuid.New(), subject, nil)))

	for _, conn := range []*websocket.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		var got events.Event
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, events.PostApproved, got.Type)
		assert.Equal(t, subject, got.SubjectID)
	}
}

func TestHubForgetsDisconnectedClients(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.Connected() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Connected() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.NoError(t, hub.Publish(context.Background(), events.New(events.PostDeleted, uuid.New(), uuid.New(), nil)))
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.Connected() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Close())
	require.NoError(t, hub.Close())

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNoStatusReceived), "got %v", err)
	assert.False(t, hub.Register(&Client{hub: hub}))
}
