package notifications

import (
	"errors"
	"slices"
	"time"
)

// Kind represents the notification kind/severity.
// It controls client-side rendering and the audio cue.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Valid reports whether the kind is one of the known values.
func (k Kind) Valid() bool {
	switch k {
	case KindInfo, KindSuccess, KindWarning, KindError:
		return true
	}
	return false
}

// Scope determines the recipient set of a notification.
type Scope string

const (
	// ScopeGlobal addresses all current and future users.
	ScopeGlobal Scope = "global"
	// ScopeTargeted addresses an explicit recipient list.
	ScopeTargeted Scope = "targeted"
)

// ReadReceipt records that a user acknowledged a notification.
type ReadReceipt struct {
	UserID string    `json:"user_id"`
	ReadAt time.Time `json:"read_at"`
}

// Notification is the core domain model.
//
// ReadBy is append-only: a user appears at most once and receipts are
// never removed, even after the notification expires.
type Notification struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Message    string        `json:"message"`
	Kind       Kind          `json:"kind"`
	Scope      Scope         `json:"scope"`
	Recipients []string      `json:"recipients,omitempty"`
	CreatedBy  string        `json:"created_by"`
	CreatedAt  time.Time     `json:"created_at"`
	ExpiresAt  *time.Time    `json:"expires_at,omitempty"`
	ReadBy     []ReadReceipt `json:"read_by,omitempty"`
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired(now time.Time) bool {
	if n.ExpiresAt == nil {
		return false
	}
	return now.After(*n.ExpiresAt)
}

// InScopeFor reports whether the user belongs to the notification's
// recipient set, irrespective of expiry and read state.
func (n *Notification) InScopeFor(userID string) bool {
	if n.Scope == ScopeGlobal {
		return true
	}
	return slices.Contains(n.Recipients, userID)
}

// VisibleTo reports whether the notification is visible to the user:
// in scope and not expired, irrespective of read state.
func (n *Notification) VisibleTo(userID string, now time.Time) bool {
	return n.InScopeFor(userID) && !n.IsExpired(now)
}

// IsReadBy reports whether the user has acknowledged the notification.
func (n *Notification) IsReadBy(userID string) bool {
	for _, r := range n.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// Validate checks creation invariants. The returned error wraps
// ErrValidation so callers can map it to a client error.
func (n *Notification) Validate() error {
	switch {
	case n.Title == "":
		return errors.Join(ErrValidation, errors.New("title is required"))
	case n.Message == "":
		return errors.Join(ErrValidation, errors.New("message is required"))
	case !n.Kind.Valid():
		return errors.Join(ErrValidation, errors.New("unknown kind"))
	case n.Scope == ScopeTargeted && len(n.Recipients) == 0:
		return errors.Join(ErrValidation, errors.New("targeted scope requires at least one recipient"))
	case n.Scope != ScopeGlobal && n.Scope != ScopeTargeted:
		return errors.Join(ErrValidation, errors.New("unknown scope"))
	}
	return nil
}

// UserView is the per-user projection of a notification returned by list
// operations. IsRead is computed from ReadBy at read time so clients can
// render the item without a follow-up fetch.
type UserView struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Kind      Kind       `json:"kind"`
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	IsRead    bool       `json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

// ViewFor projects the notification for a single user.
func (n *Notification) ViewFor(userID string) UserView {
	v := UserView{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Kind:      n.Kind,
		CreatedBy: n.CreatedBy,
		CreatedAt: n.CreatedAt,
	}
	for _, r := range n.ReadBy {
		if r.UserID == userID {
			v.IsRead = true
			readAt := r.ReadAt
			v.ReadAt = &readAt
			break
		}
	}
	return v
}
