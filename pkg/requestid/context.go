package requestid

import "context"

type ctxKey struct{}

// CtxKey is the context key under which the request ID is stored. Exposed so
// the logger's context extractor can pick it up.
var CtxKey = ctxKey{}

// WithContext returns a new context carrying the request ID.
func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CtxKey, id)
}

// FromContext returns the request ID stored in the context, if any.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CtxKey).(string)
	return id, ok
}
