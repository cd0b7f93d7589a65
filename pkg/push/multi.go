package push

import (
	"context"
	"errors"

	"github.com/shelfshare/notifier/pkg/notifications"
)

// MultiSink fans a push out across several transports. Connection ids
// are unique across the process, so exactly one sink owns any given
// connection; the others report ErrUnknownConnection and are ignored.
type MultiSink struct {
	sinks []notifications.Sink
}

// NewMultiSink combines multiple transport sinks into one.
func NewMultiSink(sinks ...notifications.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Push implements notifications.Sink. It succeeds when any sink accepts
// the connection; when none does, it returns ErrUnknownConnection joined
// with whatever non-ownership errors occurred.
func (m *MultiSink) Push(ctx context.Context, connectionID string, event notifications.Event) error {
	var errs []error
	for _, sink := range m.sinks {
		err := sink.Push(ctx, connectionID, event)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrUnknownConnection) {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return ErrUnknownConnection
}
