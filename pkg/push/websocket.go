package push

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/shelfshare/notifier/pkg/logger"
	"github.com/shelfshare/notifier/pkg/notifications"
	"github.com/shelfshare/notifier/pkg/presence"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// wire envelope for server-to-client events.
type wsEnvelope struct {
	Event string              `json:"event"`
	Data  notifications.Event `json:"data"`
}

// wire format for client-to-server signals.
type wsSignal struct {
	Action string `json:"action"`
}

// wsConn is a middleman between a websocket connection and the hub.
type wsConn struct {
	id   string
	sock *websocket.Conn
	send chan notifications.Event
	done chan struct{}
}

// WebsocketHub serves websocket connections and implements
// notifications.Sink for them.
//
// A connection gets a server-generated id at upgrade time, but is only
// entered into the presence registry when the client sends an explicit
// {"action":"register"} signal - the raw socket is established before
// the first authenticated frame arrives. Disconnect always unregisters
// by connection id, so a stale close can't evict a newer registration.
type WebsocketHub struct {
	registry   *presence.Registry
	upgrader   websocket.Upgrader
	logger     *slog.Logger
	sendBuffer int

	mu    sync.RWMutex
	conns map[string]*wsConn
}

// WebsocketHubOption configures a WebsocketHub.
type WebsocketHubOption func(*WebsocketHub)

// WithWebsocketLogger sets the logger for the WebsocketHub.
func WithWebsocketLogger(log *slog.Logger) WebsocketHubOption {
	return func(h *WebsocketHub) {
		h.logger = log
	}
}

// WithWebsocketSendBuffer sets the per-connection send buffer size.
// Default is 32; when the buffer is full events are dropped for that
// connection rather than blocking the dispatcher.
func WithWebsocketSendBuffer(size int) WebsocketHubOption {
	return func(h *WebsocketHub) {
		if size > 0 {
			h.sendBuffer = size
		}
	}
}

// NewWebsocketHub creates a websocket transport hub.
func NewWebsocketHub(registry *presence.Registry, opts ...WebsocketHubOption) *WebsocketHub {
	h := &WebsocketHub{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:     slog.Default(),
		sendBuffer: 32,
		conns:      make(map[string]*wsConn),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Serve upgrades the request and pumps the connection until the client
// disconnects. The userID comes from the authenticated request identity;
// registration still waits for the client's explicit register signal.
func (h *WebsocketHub) Serve(w http.ResponseWriter, r *http.Request, userID string) {
	sock, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error response.
		h.logger.LogAttrs(r.Context(), slog.LevelWarn, "Websocket upgrade failed",
			logger.UserID(userID),
			logger.Error(err),
		)
		return
	}

	c := &wsConn{
		id:   uuid.New().String(),
		sock: sock,
		send: make(chan notifications.Event, h.sendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()

	go h.writePump(c)
	h.readPump(r.Context(), c, userID)
}

// readPump consumes client signals until the socket closes, then tears
// the connection down.
func (h *WebsocketHub) readPump(ctx context.Context, c *wsConn, userID string) {
	defer func() {
		h.registry.Unregister(c.id)
		h.mu.Lock()
		delete(h.conns, c.id)
		h.mu.Unlock()
		// The send channel stays open: a Push racing with teardown must
		// not hit a closed channel. done tells writePump to stop.
		close(c.done)
	}()

	c.sock.SetReadLimit(maxMessageSize)
	_ = c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var signal wsSignal
		if err := c.sock.ReadJSON(&signal); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.LogAttrs(ctx, slog.LevelDebug, "Websocket closed unexpectedly",
					logger.ConnectionID(c.id),
					logger.Error(err),
				)
			}
			return
		}

		if signal.Action == "register" {
			h.registry.Register(userID, c.id)
			h.logger.LogAttrs(ctx, slog.LevelDebug, "Connection registered",
				logger.UserID(userID),
				logger.ConnectionID(c.id),
			)
		}
	}
}

// writePump drains the send channel onto the socket with write deadlines
// and keeps the connection alive with pings.
func (h *WebsocketHub) writePump(c *wsConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.sock.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.sock.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case event := <-c.send:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteJSON(wsEnvelope{Event: "notification", Data: event}); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Push implements notifications.Sink. The enqueue never blocks: a full
// send buffer counts as a failed push, and the dispatcher logs and
// moves on.
func (h *WebsocketHub) Push(_ context.Context, connectionID string, event notifications.Event) error {
	h.mu.RLock()
	c, ok := h.conns[connectionID]
	h.mu.RUnlock()
	if !ok {
		return ErrUnknownConnection
	}

	select {
	case <-c.done:
		return ErrUnknownConnection
	case c.send <- event:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close tears down all connections, e.g. on process shutdown.
func (h *WebsocketHub) Close() {
	h.mu.Lock()
	conns := make([]*wsConn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		// Closing the socket makes readPump exit and run its cleanup.
		_ = c.sock.Close()
	}
}
