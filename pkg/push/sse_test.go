package push_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfshare/notifier/pkg/notifications"
	"github.com/shelfshare/notifier/pkg/presence"
	"github.com/shelfshare/notifier/pkg/push"
)

func TestSSEHub_RegistersOnOpenAndStreams(t *testing.T) {
	t.Parallel()

	registry := presence.NewRegistry()
	hub := push.NewSSEHub(registry)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, "user-1")
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	connID := waitForConnection(t, registry, "user-1")

	event := notifications.Event{ID: "n1", Title: "Return reminder", Kind: notifications.KindWarning, Unread: 1}
	require.NoError(t, hub.Push(context.Background(), connID, event))

	reader := bufio.NewReader(resp.Body)
	var data string
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimSuffix(strings.TrimPrefix(line, "data: "), "\n")
			break
		}
	}
	require.NotEmpty(t, data, "no data frame received")

	var got notifications.Event
	require.NoError(t, json.Unmarshal([]byte(data), &got))
	assert.Equal(t, "n1", got.ID)
	assert.Equal(t, "Return reminder", got.Title)
	assert.Equal(t, notifications.KindWarning, got.Kind)
	assert.Equal(t, 1, got.Unread)
}

func TestSSEHub_UnregistersOnDisconnect(t *testing.T) {
	t.Parallel()

	registry := presence.NewRegistry()
	hub := push.NewSSEHub(registry)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, "user-1")
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	connID := waitForConnection(t, registry, "user-1")

	cancel()
	resp.Body.Close()
	waitForUnregistered(t, registry, "user-1")

	err = hub.Push(context.Background(), connID, notifications.Event{ID: "n1"})
	require.ErrorIs(t, err, push.ErrUnknownConnection)
}

func TestSSEHub_SendBufferOption(t *testing.T) {
	t.Parallel()

	registry := presence.NewRegistry()
	hub := push.NewSSEHub(registry, push.WithSSESendBuffer(4))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, "user-1")
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	connID := waitForConnection(t, registry, "user-1")

	// A burst within the configured buffer is delivered in order.
	for i := 1; i <= 3; i++ {
		require.NoError(t, hub.Push(context.Background(), connID, notifications.Event{ID: fmt.Sprintf("n%d", i)}))
	}

	reader := bufio.NewReader(resp.Body)
	var got []string
	for len(got) < 3 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			var event notifications.Event
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &event))
			got = append(got, event.ID)
		}
	}
	assert.Equal(t, []string{"n1", "n2", "n3"}, got)
}

func TestSSEHub_Heartbeat(t *testing.T) {
	t.Parallel()

	registry := presence.NewRegistry()
	hub := push.NewSSEHub(registry, push.WithSSEHeartbeat(50*time.Millisecond))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, "user-1")
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	reader := bufio.NewReader(resp.Body)
	pings := 0
	for pings < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, ": ping") {
			pings++
		}
	}
}
