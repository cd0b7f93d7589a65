package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shelfshare/notifier/pkg/logger"
)

// CreateInput carries the producer-supplied fields for a new notification.
// The caller's administrative capability is verified upstream by the
// authorization collaborator, not here.
type CreateInput struct {
	Title      string
	Message    string
	Kind       Kind
	Scope      Scope
	Recipients []string
	CreatedBy  string
	ExpiresAt  *time.Time

	// CreatorName is the creator's display name carried in the push
	// payload. The stored record keeps CreatedBy, the durable producer
	// identity.
	CreatorName string
}

// Service orchestrates notification storage, live delivery and read-state
// tracking. Creation is authoritative: a notification may be durably
// stored yet miss real-time delivery, in which case the client picks it
// up through the reconciliation read.
type Service struct {
	storage    Storage
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger for the Service.
func WithServiceLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = log
	}
}

// NewService creates a notification service. The dispatcher may be nil,
// in which case notifications are stored without live delivery.
func NewService(storage Storage, dispatcher *Dispatcher, opts ...ServiceOption) *Service {
	s := &Service{
		storage:    storage,
		dispatcher: dispatcher,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create stores the notification, then attempts live delivery. Storage
// errors propagate; delivery failures never do - the stored notification
// remains available via reconciliation.
func (s *Service) Create(ctx context.Context, in CreateInput) (Notification, error) {
	stored, err := s.storage.Create(ctx, Notification{
		Title:      in.Title,
		Message:    in.Message,
		Kind:       in.Kind,
		Scope:      in.Scope,
		Recipients: in.Recipients,
		CreatedBy:  in.CreatedBy,
		ExpiresAt:  in.ExpiresAt,
	})
	if err != nil {
		return Notification{}, fmt.Errorf("create notification: %w", err)
	}

	if s.dispatcher != nil {
		delivered := s.dispatcher.Dispatch(ctx, stored, in.CreatorName)
		s.logger.LogAttrs(ctx, slog.LevelInfo, "Notification created",
			logger.NotificationID(stored.ID),
			logger.Scope(string(stored.Scope)),
			logger.Count(delivered),
		)
	}

	return stored, nil
}

// ListFor returns the user's visible notifications, newest first, as
// per-user projections. This is the reconciliation read clients perform
// on connect, reconnect and periodic refresh.
func (s *Service) ListFor(ctx context.Context, userID string, limit int) ([]UserView, error) {
	list, err := s.storage.ListVisibleFor(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	views := make([]UserView, 0, len(list))
	for i := range list {
		views = append(views, list[i].ViewFor(userID))
	}
	return views, nil
}

// MarkRead records the user's read receipt for one notification. It is
// idempotent and works without a live connection.
func (s *Service) MarkRead(ctx context.Context, notificationID, userID string) error {
	if err := s.storage.MarkRead(ctx, notificationID, userID); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// MarkAllRead marks everything currently visible and unread for the user.
// Returns how many notifications were newly marked.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	marked, err := s.storage.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return marked, nil
}

// CountUnread recomputes the user's unread count from read receipts and
// visibility rules. The result is never cached beyond a single response.
func (s *Service) CountUnread(ctx context.Context, userID string) (int, error) {
	count, err := s.storage.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

// Storage returns the underlying notification storage.
func (s *Service) Storage() Storage {
	return s.storage
}
