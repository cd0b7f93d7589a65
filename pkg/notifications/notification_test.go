package notifications_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfshare/notifier/pkg/notifications"
)

func TestNotificationVisibility(t *testing.T) {
	t.Parallel()

	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name    string
		n       notifications.Notification
		userID  string
		visible bool
	}{
		{
			name:    "global visible to anyone",
			n:       notifications.Notification{Scope: notifications.ScopeGlobal},
			userID:  "anyone",
			visible: true,
		},
		{
			name: "targeted visible to recipient",
			n: notifications.Notification{
				Scope:      notifications.ScopeTargeted,
				Recipients: []string{"alice", "bob"},
			},
			userID:  "bob",
			visible: true,
		},
		{
			name: "targeted hidden from non-recipient",
			n: notifications.Notification{
				Scope:      notifications.ScopeTargeted,
				Recipients: []string{"alice"},
			},
			userID:  "bob",
			visible: false,
		},
		{
			name: "expired hidden even for recipient",
			n: notifications.Notification{
				Scope:     notifications.ScopeGlobal,
				ExpiresAt: &past,
			},
			userID:  "alice",
			visible: false,
		},
		{
			name: "future expiry still visible",
			n: notifications.Notification{
				Scope:     notifications.ScopeGlobal,
				ExpiresAt: &future,
			},
			userID:  "alice",
			visible: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.visible, tt.n.VisibleTo(tt.userID, now))
		})
	}
}

func TestNotificationValidate(t *testing.T) {
	t.Parallel()

	valid := notifications.Notification{
		Title:   "t",
		Message: "m",
		Kind:    notifications.KindInfo,
		Scope:   notifications.ScopeGlobal,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(n *notifications.Notification)
	}{
		{"missing title", func(n *notifications.Notification) { n.Title = "" }},
		{"missing message", func(n *notifications.Notification) { n.Message = "" }},
		{"unknown kind", func(n *notifications.Notification) { n.Kind = "urgent" }},
		{"unknown scope", func(n *notifications.Notification) { n.Scope = "broadcast" }},
		{"targeted without recipients", func(n *notifications.Notification) {
			n.Scope = notifications.ScopeTargeted
			n.Recipients = nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			n := valid
			tt.mutate(&n)
			require.ErrorIs(t, n.Validate(), notifications.ErrValidation)
		})
	}
}

func TestViewFor(t *testing.T) {
	t.Parallel()

	readAt := time.Now().Add(-time.Minute)
	n := notifications.Notification{
		ID:      "n1",
		Title:   "t",
		Message: "m",
		Kind:    notifications.KindSuccess,
		Scope:   notifications.ScopeGlobal,
		ReadBy:  []notifications.ReadReceipt{{UserID: "alice", ReadAt: readAt}},
	}

	aliceView := n.ViewFor("alice")
	assert.True(t, aliceView.IsRead)
	require.NotNil(t, aliceView.ReadAt)
	assert.WithinDuration(t, readAt, *aliceView.ReadAt, time.Second)

	bobView := n.ViewFor("bob")
	assert.False(t, bobView.IsRead)
	assert.Nil(t, bobView.ReadAt)
}
