package notifier

import (
	"context"
	"net/http"
)

// Identity is the authenticated caller, resolved by the upstream
// authentication collaborator and passed in by the gateway.
type Identity struct {
	UserID      string
	DisplayName string
	Admin       bool
}

// Authenticator resolves the caller identity from a request. A nil
// returned identity or an error means the request is unauthenticated.
type Authenticator interface {
	Authenticate(r *http.Request) (Identity, error)
}

type identityCtxKey struct{}

// IdentityFromContext returns the identity stored by the auth middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(Identity)
	return id, ok
}

// withIdentity stores the identity in the request context.
func withIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// HeaderAuthenticator trusts identity headers set by the platform
// gateway, which terminates the actual session authentication.
type HeaderAuthenticator struct{}

// Authenticate implements Authenticator.
func (HeaderAuthenticator) Authenticate(r *http.Request) (Identity, error) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		return Identity{}, ErrUnauthenticated
	}
	return Identity{
		UserID:      userID,
		DisplayName: r.Header.Get("X-User-Name"),
		Admin:       r.Header.Get("X-User-Role") == "admin",
	}, nil
}
