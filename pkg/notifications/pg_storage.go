package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage implements Storage on a pgx connection pool.
//
// Read receipts live in the notification_reads join table; its primary
// key (notification_id, user_id) is what makes MarkRead idempotent at
// the schema level. See migrations/ for the schema.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates a PostgreSQL-backed notification storage.
func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	return &PostgresStorage{pool: pool}
}

func (s *PostgresStorage) Create(ctx context.Context, n Notification) (Notification, error) {
	n = normalized(n, time.Now())
	if err := n.Validate(); err != nil {
		return Notification{}, err
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (id, title, message, kind, scope, recipients, created_by, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.ID, n.Title, n.Message, string(n.Kind), string(n.Scope), n.Recipients, n.CreatedBy, n.CreatedAt, n.ExpiresAt,
	)
	if err != nil {
		return Notification{}, errors.Join(ErrStorage, err)
	}
	return n, nil
}

func (s *PostgresStorage) ListVisibleFor(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.pool.Query(ctx, `
		SELECT n.id, n.title, n.message, n.kind, n.scope, n.recipients, n.created_by, n.created_at, n.expires_at, r.read_at
		FROM notifications n
		LEFT JOIN notification_reads r ON r.notification_id = n.id AND r.user_id = $1
		WHERE (n.scope = 'global' OR $1 = ANY(n.recipients))
		  AND (n.expires_at IS NULL OR n.expires_at > now())
		ORDER BY n.created_at DESC
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	defer rows.Close()

	notifications := make([]Notification, 0, limit)
	for rows.Next() {
		var (
			n      Notification
			kind   string
			scope  string
			readAt *time.Time
		)
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &kind, &scope, &n.Recipients, &n.CreatedBy, &n.CreatedAt, &n.ExpiresAt, &readAt); err != nil {
			return nil, errors.Join(ErrStorage, err)
		}
		n.Kind = Kind(kind)
		n.Scope = Scope(scope)
		if readAt != nil {
			n.ReadBy = []ReadReceipt{{UserID: userID, ReadAt: *readAt}}
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	return notifications, nil
}

func (s *PostgresStorage) MarkRead(ctx context.Context, notificationID, userID string) error {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE id = $1 AND (scope = 'global' OR $2 = ANY(recipients))
		)`,
		notificationID, userID,
	).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotificationNotFound
		}
		return errors.Join(ErrStorage, err)
	}
	if !exists {
		return ErrNotificationNotFound
	}

	// ON CONFLICT DO NOTHING keeps re-marking a no-op rather than an error.
	_, err = s.pool.Exec(ctx, `
		INSERT INTO notification_reads (notification_id, user_id, read_at)
		VALUES ($1, $2, now())
		ON CONFLICT (notification_id, user_id) DO NOTHING`,
		notificationID, userID,
	)
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

// MarkAllRead inserts receipts for every visible unread notification in a
// single INSERT ... SELECT, which is atomic: either all receipts land or
// the statement fails as a whole.
func (s *PostgresStorage) MarkAllRead(ctx context.Context, userID string) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO notification_reads (notification_id, user_id, read_at)
		SELECT n.id, $1, now()
		FROM notifications n
		WHERE (n.scope = 'global' OR $1 = ANY(n.recipients))
		  AND (n.expires_at IS NULL OR n.expires_at > now())
		ON CONFLICT (notification_id, user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return 0, errors.Join(ErrStorage, err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM notifications n
		WHERE (n.scope = 'global' OR $1 = ANY(n.recipients))
		  AND (n.expires_at IS NULL OR n.expires_at > now())
		  AND NOT EXISTS (
		      SELECT 1 FROM notification_reads r
		      WHERE r.notification_id = n.id AND r.user_id = $1
		  )`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, errors.Join(ErrStorage, err)
	}
	return count, nil
}
