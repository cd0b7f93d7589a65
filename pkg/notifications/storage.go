package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultListLimit caps ListVisibleFor when the caller passes a
// non-positive limit.
const DefaultListLimit = 50

// Storage handles notification persistence and read-state retrieval.
//
// Three interchangeable adapters implement this contract (in-memory,
// PostgreSQL, MongoDB); callers must never branch on the backend type.
//
// MarkAllRead uses snapshot semantics: it covers the notifications
// visible and unread at the moment the operation starts. A notification
// created concurrently stays unread and is picked up by the next
// reconciliation read.
//
// ListVisibleFor populates ReadBy with at least the requesting user's
// receipt; adapters may omit other users' receipts from the projection.
type Storage interface {
	// Create validates and stores a new notification, assigning ID and
	// CreatedAt if absent. Fails with ErrValidation on broken invariants.
	Create(ctx context.Context, n Notification) (Notification, error)

	// ListVisibleFor returns notifications visible to the user (global
	// scope or user in the recipient list, not expired), newest first,
	// capped at limit.
	ListVisibleFor(ctx context.Context, userID string, limit int) ([]Notification, error)

	// MarkRead idempotently records the user's read receipt. Fails with
	// ErrNotificationNotFound if the notification id is unknown or the
	// user is not in its recipient scope. Expiry does not block marking:
	// receipts outlive visibility.
	MarkRead(ctx context.Context, notificationID, userID string) error

	// MarkAllRead records receipts for every notification currently
	// visible to the user and not yet read by them, all-or-nothing.
	// Returns the number of notifications newly marked.
	MarkAllRead(ctx context.Context, userID string) (int, error)

	// CountUnread returns the number of visible notifications the user
	// has not read. Always recomputed, never cached.
	CountUnread(ctx context.Context, userID string) (int, error)
}

// normalized fills creation defaults shared by all adapters: ID and
// CreatedAt when absent, info kind, global scope. A global notification
// carries no recipient list.
func normalized(n Notification, now time.Time) Notification {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.Kind == "" {
		n.Kind = KindInfo
	}
	if n.Scope == "" {
		n.Scope = ScopeGlobal
	}
	if n.Scope == ScopeGlobal {
		n.Recipients = nil
	}
	n.ReadBy = nil
	return n
}
