package push_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfshare/notifier/pkg/notifications"
	"github.com/shelfshare/notifier/pkg/presence"
	"github.com/shelfshare/notifier/pkg/push"
)

func dialWebsocket(t *testing.T, hub *push.WebsocketHub, userID string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, userID)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func waitForConnection(t *testing.T, registry *presence.Registry, userID string) string {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if connID, ok := registry.Resolve(userID); ok {
			return connID
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("user %s never registered", userID)
	return ""
}

func waitForUnregistered(t *testing.T, registry *presence.Registry, userID string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := registry.Resolve(userID); !ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("user %s still registered", userID)
}

func TestWebsocketHub_RegisterAndPush(t *testing.T) {
	t.Parallel()

	registry := presence.NewRegistry()
	hub := push.NewWebsocketHub(registry)

	conn := dialWebsocket(t, hub, "user-1")

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "register"}))
	connID := waitForConnection(t, registry, "user-1")

	event := notifications.Event{
		ID:      "n1",
		Title:   "New book shared",
		Message: "Alice shared The Go Programming Language",
		Kind:    notifications.KindInfo,
		Unread:  3,
	}
	require.NoError(t, hub.Push(context.Background(), connID, event))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var envelope struct {
		Event string              `json:"event"`
		Data  notifications.Event `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&envelope))

	assert.Equal(t, "notification", envelope.Event)
	assert.Equal(t, "n1", envelope.Data.ID)
	assert.Equal(t, "New book shared", envelope.Data.Title)
	assert.Equal(t, 3, envelope.Data.Unread)
}

func TestWebsocketHub_NotRegisteredUntilSignal(t *testing.T) {
	t.Parallel()

	registry := presence.NewRegistry()
	hub := push.NewWebsocketHub(registry)

	conn := dialWebsocket(t, hub, "user-1")

	// Connected but silent: no registry entry yet.
	time.Sleep(50 * time.Millisecond)
	_, ok := registry.Resolve("user-1")
	assert.False(t, ok)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "register"}))
	waitForConnection(t, registry, "user-1")
}

func TestWebsocketHub_UnregistersOnDisconnect(t *testing.T) {
	t.Parallel()

	registry := presence.NewRegistry()
	hub := push.NewWebsocketHub(registry)

	conn := dialWebsocket(t, hub, "user-1")
	require.NoError(t, conn.WriteJSON(map[string]string{"action": "register"}))
	connID := waitForConnection(t, registry, "user-1")

	conn.Close()
	waitForUnregistered(t, registry, "user-1")

	err := hub.Push(context.Background(), connID, notifications.Event{ID: "n1"})
	require.ErrorIs(t, err, push.ErrUnknownConnection)
}

func TestWebsocketHub_StaleDisconnectKeepsNewConnection(t *testing.T) {
	t.Parallel()

	registry := presence.NewRegistry()
	hub := push.NewWebsocketHub(registry)

	oldConn := dialWebsocket(t, hub, "user-1")
	require.NoError(t, oldConn.WriteJSON(map[string]string{"action": "register"}))
	oldID := waitForConnection(t, registry, "user-1")

	newConn := dialWebsocket(t, hub, "user-1")
	require.NoError(t, newConn.WriteJSON(map[string]string{"action": "register"}))

	deadline := time.Now().Add(2 * time.Second)
	var newID string
	for time.Now().Before(deadline) {
		if id, ok := registry.Resolve("user-1"); ok && id != oldID {
			newID = id
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NotEmpty(t, newID, "second registration never superseded the first")

	// The old connection closing must not evict the new registration.
	oldConn.Close()
	time.Sleep(50 * time.Millisecond)

	connID, ok := registry.Resolve("user-1")
	require.True(t, ok)
	assert.Equal(t, newID, connID)
}

func TestWebsocketHub_PushIgnoresCanceledContext(t *testing.T) {
	t.Parallel()

	registry := presence.NewRegistry()
	hub := push.NewWebsocketHub(registry)

	conn := dialWebsocket(t, hub, "user-1")
	require.NoError(t, conn.WriteJSON(map[string]string{"action": "register"}))
	connID := waitForConnection(t, registry, "user-1")

	// The enqueue is non-blocking, so a dead caller context doesn't
	// prevent delivery to a healthy connection.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, hub.Push(ctx, connID, notifications.Event{ID: "n1", Title: "t"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var envelope struct {
		Event string              `json:"event"`
		Data  notifications.Event `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&envelope))
	assert.Equal(t, "n1", envelope.Data.ID)
}

func TestWebsocketHub_PushUnknownConnection(t *testing.T) {
	t.Parallel()

	hub := push.NewWebsocketHub(presence.NewRegistry())
	err := hub.Push(context.Background(), "no-such-conn", notifications.Event{ID: "n1"})
	require.ErrorIs(t, err, push.ErrUnknownConnection)
}
