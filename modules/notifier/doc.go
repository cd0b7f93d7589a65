// Package notifier exposes the notification pipeline over HTTP: an
// admin-only creation endpoint, per-user reads (list, unread count),
// read-state writes (mark one, mark all) and the live stream endpoints
// for SSE and websocket clients.
//
// Authentication is delegated to an Authenticator; the default
// HeaderAuthenticator trusts the identity headers set by the platform
// gateway. Authorization is a single capability check: creation requires
// the admin role, everything else only a resolved identity.
package notifier
