package notifications

import "errors"

var (
	// ErrValidation is returned when a notification fails creation
	// invariants (missing title/message, empty targeted recipient list).
	// Nothing is stored when this is returned.
	ErrValidation = errors.New("invalid notification")

	// ErrNotificationNotFound is returned when a notification is not found.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrStorage indicates the backing store is unavailable. Retry policy
	// belongs to the caller - the subsystem itself never retries.
	ErrStorage = errors.New("notification storage unavailable")
)
