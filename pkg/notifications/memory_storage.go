package notifications

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStorage is an in-memory implementation of the Storage interface.
// It is the fallback backend and the one used in tests; state is lost on
// process restart.
type MemoryStorage struct {
	notifications []Notification
	mu            sync.RWMutex
}

// NewMemoryStorage creates a new in-memory notification storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Create(ctx context.Context, n Notification) (Notification, error) {
	n = normalized(n, time.Now())
	if err := n.Validate(); err != nil {
		return Notification{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = append(s.notifications, cloned(n))
	return cloned(n), nil
}

func (s *MemoryStorage) ListVisibleFor(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	visible := make([]Notification, 0, len(s.notifications))
	for i := range s.notifications {
		if s.notifications[i].VisibleTo(userID, now) {
			visible = append(visible, cloned(s.notifications[i]))
		}
	}

	slices.SortStableFunc(visible, func(a, b Notification) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if len(visible) > limit {
		visible = visible[:limit]
	}
	return visible, nil
}

func (s *MemoryStorage) MarkRead(ctx context.Context, notificationID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		if s.notifications[i].ID != notificationID {
			continue
		}
		if !s.notifications[i].InScopeFor(userID) {
			// Out-of-scope users can't tell the notification exists.
			return ErrNotificationNotFound
		}
		if !s.notifications[i].IsReadBy(userID) {
			s.notifications[i].ReadBy = append(s.notifications[i].ReadBy, ReadReceipt{
				UserID: userID,
				ReadAt: time.Now(),
			})
		}
		return nil
	}
	return ErrNotificationNotFound
}

// MarkAllRead marks every notification currently visible to the user and
// not yet read by them. The whole operation runs under one lock, giving
// the snapshot semantics documented on the Storage interface.
func (s *MemoryStorage) MarkAllRead(ctx context.Context, userID string) (int, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	marked := 0
	for i := range s.notifications {
		if !s.notifications[i].VisibleTo(userID, now) || s.notifications[i].IsReadBy(userID) {
			continue
		}
		s.notifications[i].ReadBy = append(s.notifications[i].ReadBy, ReadReceipt{
			UserID: userID,
			ReadAt: now,
		})
		marked++
	}
	return marked, nil
}

func (s *MemoryStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for i := range s.notifications {
		if s.notifications[i].VisibleTo(userID, now) && !s.notifications[i].IsReadBy(userID) {
			count++
		}
	}
	return count, nil
}

// cloned deep-copies a notification so callers can't mutate stored state.
func cloned(n Notification) Notification {
	n.Recipients = slices.Clone(n.Recipients)
	n.ReadBy = slices.Clone(n.ReadBy)
	return n
}
