package notifier

import "errors"

var (
	// ErrUnauthenticated means the request carried no resolvable identity.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the identity lacks the administrative capability
	// required by the endpoint.
	ErrForbidden = errors.New("forbidden")
)
