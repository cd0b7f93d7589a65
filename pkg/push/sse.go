package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shelfshare/notifier/pkg/logger"
	"github.com/shelfshare/notifier/pkg/notifications"
	"github.com/shelfshare/notifier/pkg/presence"
)

const defaultHeartbeat = 30 * time.Second

type sseConn struct {
	id     string
	events chan notifications.Event
}

// SSEHub serves server-sent event streams and implements
// notifications.Sink for them.
//
// Unlike the websocket transport, an SSE stream is a plain authenticated
// HTTP request, so the connection is registered in the presence registry
// the moment the stream opens - there is no separate register signal for
// the client to send.
type SSEHub struct {
	registry   *presence.Registry
	logger     *slog.Logger
	heartbeat  time.Duration
	sendBuffer int

	mu    sync.RWMutex
	conns map[string]*sseConn
}

// SSEHubOption configures an SSEHub.
type SSEHubOption func(*SSEHub)

// WithSSELogger sets the logger for the SSEHub.
func WithSSELogger(log *slog.Logger) SSEHubOption {
	return func(h *SSEHub) {
		h.logger = log
	}
}

// WithSSESendBuffer sets the per-connection event buffer size. Default
// is 32; when the buffer is full events are dropped for that connection
// rather than blocking the dispatcher.
func WithSSESendBuffer(size int) SSEHubOption {
	return func(h *SSEHub) {
		if size > 0 {
			h.sendBuffer = size
		}
	}
}

// WithSSEHeartbeat sets the interval between keep-alive comment frames.
// Default is 30 seconds.
func WithSSEHeartbeat(interval time.Duration) SSEHubOption {
	return func(h *SSEHub) {
		if interval > 0 {
			h.heartbeat = interval
		}
	}
}

// NewSSEHub creates an SSE transport hub.
func NewSSEHub(registry *presence.Registry, opts ...SSEHubOption) *SSEHub {
	h := &SSEHub{
		registry:   registry,
		logger:     slog.Default(),
		heartbeat:  defaultHeartbeat,
		sendBuffer: 32,
		conns:      make(map[string]*sseConn),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Serve streams events to the client until it disconnects. Requires a
// response writer that supports flushing; the chi default does.
func (h *SSEHub) Serve(w http.ResponseWriter, r *http.Request, userID string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return ErrStreamingUnsupported
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	c := &sseConn{
		id:     uuid.New().String(),
		events: make(chan notifications.Event, h.sendBuffer),
	}

	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()

	h.registry.Register(userID, c.id)
	h.logger.LogAttrs(r.Context(), slog.LevelDebug, "Connection registered",
		logger.UserID(userID),
		logger.ConnectionID(c.id),
	)

	defer func() {
		h.registry.Unregister(c.id)
		h.mu.Lock()
		delete(h.conns, c.id)
		h.mu.Unlock()
	}()

	// Initial comment frame so proxies commit the stream immediately.
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return nil
		case event := <-c.events:
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.LogAttrs(r.Context(), slog.LevelWarn, "Failed to encode event",
					logger.ConnectionID(c.id),
					logger.Error(err),
				)
				continue
			}
			fmt.Fprintf(w, "event: notification\ndata: %s\n\n", payload)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

// Push implements notifications.Sink. The enqueue never blocks: a full
// event buffer counts as a failed push.
func (h *SSEHub) Push(_ context.Context, connectionID string, event notifications.Event) error {
	h.mu.RLock()
	c, ok := h.conns[connectionID]
	h.mu.RUnlock()
	if !ok {
		return ErrUnknownConnection
	}

	select {
	case c.events <- event:
		return nil
	default:
		return ErrSendBufferFull
	}
}
