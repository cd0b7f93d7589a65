package push

import "errors"

var (
	// ErrUnknownConnection is returned when a push targets a connection
	// this sink does not hold (already closed, or owned by another sink).
	ErrUnknownConnection = errors.New("unknown connection")

	// ErrSendBufferFull is returned when a connection's send buffer is
	// full. The dispatcher treats it like a missing connection.
	ErrSendBufferFull = errors.New("connection send buffer full")

	// ErrStreamingUnsupported is returned when the response writer cannot
	// flush, which SSE requires.
	ErrStreamingUnsupported = errors.New("response writer does not support streaming")
)
