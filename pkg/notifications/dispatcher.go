package notifications

import (
	"context"
	"log/slog"
	"time"

	"github.com/shelfshare/notifier/pkg/logger"
	"github.com/shelfshare/notifier/pkg/presence"
)

// Event is the live push payload. It carries every field the client UI
// needs to render the notification without a follow-up fetch, plus the
// receiver's recomputed unread count. CreatedBy holds the creator's
// display name, not the durable producer identity the stored record
// keeps.
type Event struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"kind"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	Unread    int       `json:"unread"`
}

// Sink pushes an event to a single live connection. Implementations live
// in the transport layer (websocket, SSE); an unknown connection id or a
// blocked write is an error the dispatcher treats as a missed delivery.
type Sink interface {
	Push(ctx context.Context, connectionID string, event Event) error
}

// UnreadCounter supplies the unread count embedded in the push payload.
// Storage satisfies it.
type UnreadCounter interface {
	CountUnread(ctx context.Context, userID string) (int, error)
}

// Dispatcher resolves recipients against the connection registry and
// pushes over the live transport, best effort. Per notification the
// outcome is terminal: delivered to however many live recipients were
// reachable, or not delivered at all. It never retries and never queues;
// redelivery is the client's job via reconciliation.
type Dispatcher struct {
	registry    *presence.Registry
	sink        Sink
	unread      UnreadCounter
	pushTimeout time.Duration
	logger      *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the logger for the Dispatcher.
func WithDispatcherLogger(log *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = log
	}
}

// WithPushTimeout bounds a single transport push. A timed-out push is
// treated exactly like a missing connection: logged and skipped.
// Default is 2 seconds.
func WithPushTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.pushTimeout = timeout
		}
	}
}

// NewDispatcher creates a delivery dispatcher. The unread counter is
// optional; when nil, pushed events carry a zero unread count.
func NewDispatcher(registry *presence.Registry, sink Sink, unread UnreadCounter, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry:    registry,
		sink:        sink,
		unread:      unread,
		pushTimeout: 2 * time.Second,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Dispatch pushes the notification to every reachable recipient and
// returns how many pushes succeeded. Push failures are logged, never
// returned: absence of a live connection is not an error, and a failed
// push must never affect the already durable create.
//
// creatorName is the display name rendered by clients; when empty the
// stored producer identity is used.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification, creatorName string) int {
	if creatorName == "" {
		creatorName = n.CreatedBy
	}
	var recipients []string
	switch n.Scope {
	case ScopeGlobal:
		recipients = d.registry.Connected()
	case ScopeTargeted:
		recipients = n.Recipients
	}

	delivered := 0
	for _, userID := range recipients {
		connectionID, ok := d.registry.Resolve(userID)
		if !ok {
			// Disconnected recipient; the notification reaches them via
			// reconciliation on their next connect.
			continue
		}

		event := Event{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Kind:      n.Kind,
			CreatedBy: creatorName,
			CreatedAt: n.CreatedAt,
		}
		if d.unread != nil {
			if count, err := d.unread.CountUnread(ctx, userID); err == nil {
				event.Unread = count
			} else {
				d.logger.LogAttrs(ctx, slog.LevelDebug, "Failed to compute unread count for push payload",
					logger.UserID(userID),
					logger.Error(err),
				)
			}
		}

		pushCtx, cancel := context.WithTimeout(ctx, d.pushTimeout)
		err := d.sink.Push(pushCtx, connectionID, event)
		cancel()
		if err != nil {
			d.logger.LogAttrs(ctx, slog.LevelWarn, "Failed to push notification to live connection",
				logger.NotificationID(n.ID),
				logger.UserID(userID),
				logger.ConnectionID(connectionID),
				logger.Error(err),
			)
			continue
		}
		delivered++
	}

	return delivered
}
