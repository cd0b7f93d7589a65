package push_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfshare/notifier/pkg/notifications"
	"github.com/shelfshare/notifier/pkg/push"
)

type stubSink struct {
	err    error
	pushed []string
}

func (s *stubSink) Push(_ context.Context, connectionID string, _ notifications.Event) error {
	if s.err != nil {
		return s.err
	}
	s.pushed = append(s.pushed, connectionID)
	return nil
}

func TestMultiSink(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	event := notifications.Event{ID: "n1", Title: "hello"}

	t.Run("first owning sink wins", func(t *testing.T) {
		t.Parallel()

		miss := &stubSink{err: push.ErrUnknownConnection}
		hit := &stubSink{}
		sink := push.NewMultiSink(miss, hit)

		require.NoError(t, sink.Push(ctx, "conn-1", event))
		assert.Equal(t, []string{"conn-1"}, hit.pushed)
	})

	t.Run("no owner", func(t *testing.T) {
		t.Parallel()

		sink := push.NewMultiSink(
			&stubSink{err: push.ErrUnknownConnection},
			&stubSink{err: push.ErrUnknownConnection},
		)

		err := sink.Push(ctx, "conn-1", event)
		require.ErrorIs(t, err, push.ErrUnknownConnection)
	})

	t.Run("owning sink failure propagates", func(t *testing.T) {
		t.Parallel()

		failure := errors.New("write deadline exceeded")
		sink := push.NewMultiSink(
			&stubSink{err: push.ErrUnknownConnection},
			&stubSink{err: failure},
		)

		err := sink.Push(ctx, "conn-1", event)
		require.ErrorIs(t, err, failure)
		assert.NotErrorIs(t, err, push.ErrUnknownConnection)
	})

	t.Run("empty sink set", func(t *testing.T) {
		t.Parallel()

		sink := push.NewMultiSink()
		require.ErrorIs(t, sink.Push(ctx, "conn-1", event), push.ErrUnknownConnection)
	})
}
