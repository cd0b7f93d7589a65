package notifier

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shelfshare/notifier/pkg/notifications"
	"github.com/shelfshare/notifier/pkg/push"
	"github.com/shelfshare/notifier/pkg/requestid"
)

// RouterOptions wires the notification module's collaborators. Service
// and Auth are required; the transport hubs are optional - an absent hub
// simply leaves its stream endpoint unmounted.
type RouterOptions struct {
	Service   *notifications.Service
	Auth      Authenticator
	Websocket *push.WebsocketHub
	SSE       *push.SSEHub
	Logger    *slog.Logger
}

// Router assembles the notification HTTP surface. Mount it under
// /notifications:
//
//	r.Mount("/notifications", notifier.Router(notifier.RouterOptions{
//	    Service: svc,
//	    Auth:    notifier.HeaderAuthenticator{},
//	    SSE:     sseHub,
//	}))
func Router(opts RouterOptions) chi.Router {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	h := &handlers{svc: opts.Service, logger: log}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(authMiddleware(opts.Auth))

	r.Post("/", h.createNotification)
	r.Get("/", h.listNotifications)
	r.Post("/{id}/read", h.markRead)
	r.Post("/read-all", h.markAllRead)
	r.Get("/unread-count", h.unreadCount)

	if opts.SSE != nil {
		r.Get("/stream", func(w http.ResponseWriter, req *http.Request) {
			identity, _ := IdentityFromContext(req.Context())
			if err := opts.SSE.Serve(w, req, identity.UserID); err != nil {
				respondError(w, http.StatusInternalServerError, err)
			}
		})
	}

	if opts.Websocket != nil {
		r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
			identity, _ := IdentityFromContext(req.Context())
			opts.Websocket.Serve(w, req, identity.UserID)
		})
	}

	return r
}

// authMiddleware rejects unauthenticated requests and stores the caller
// identity in the request context.
func authMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := auth.Authenticate(r)
			if err != nil {
				respondError(w, http.StatusUnauthorized, ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
		})
	}
}
