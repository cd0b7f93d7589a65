// Package push provides the live delivery transports: a websocket hub
// and a server-sent events hub, both implementing notifications.Sink.
//
// Each accepted connection gets a server-generated id and is tracked in
// the shared presence registry. SSE streams register on open; websocket
// connections register when the client sends {"action":"register"}. Both
// unregister by connection id on disconnect, so an out-of-order close of
// a superseded connection never evicts the live one.
//
// Pushes are non-blocking: a slow consumer with a full send buffer loses
// the event and recovers it through reconciliation, the same path as a
// disconnected client.
package push
