package notifier

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shelfshare/notifier/pkg/logger"
	"github.com/shelfshare/notifier/pkg/notifications"
)

type createRequest struct {
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	Kind       string     `json:"kind"`
	Scope      string     `json:"scope"`
	Recipients []string   `json:"recipients,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

type listResponse struct {
	Notifications []notifications.UserView `json:"notifications"`
	UnreadCount   int                      `json:"unread_count"`
}

type countResponse struct {
	UnreadCount int `json:"unread_count"`
}

type markAllResponse struct {
	Marked int `json:"marked"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	svc    *notifications.Service
	logger *slog.Logger
}

func (h *handlers) createNotification(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())
	if !identity.Admin {
		respondError(w, http.StatusForbidden, ErrForbidden)
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	n, err := h.svc.Create(r.Context(), notifications.CreateInput{
		Title:       req.Title,
		Message:     req.Message,
		Kind:        notifications.Kind(req.Kind),
		Scope:       notifications.Scope(req.Scope),
		Recipients:  req.Recipients,
		CreatedBy:   identity.UserID,
		CreatorName: identity.DisplayName,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, n.ViewFor(identity.UserID))
}

func (h *handlers) listNotifications(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	limit := notifications.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	views, err := h.svc.ListFor(r.Context(), identity.UserID, limit)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	unread, err := h.svc.CountUnread(r.Context(), identity.UserID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, listResponse{Notifications: views, UnreadCount: unread})
}

func (h *handlers) markRead(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())
	notificationID := chi.URLParam(r, "id")

	if err := h.svc.MarkRead(r.Context(), notificationID, identity.UserID); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) markAllRead(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	marked, err := h.svc.MarkAllRead(r.Context(), identity.UserID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, markAllResponse{Marked: marked})
}

func (h *handlers) unreadCount(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	count, err := h.svc.CountUnread(r.Context(), identity.UserID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, countResponse{UnreadCount: count})
}

// respondServiceError maps service errors onto HTTP statuses.
func (h *handlers) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, notifications.ErrValidation):
		respondError(w, http.StatusBadRequest, err)
	case errors.Is(err, notifications.ErrNotificationNotFound):
		respondError(w, http.StatusNotFound, err)
	default:
		h.logger.LogAttrs(r.Context(), slog.LevelError, "Notification request failed",
			logger.Error(err),
		)
		respondError(w, http.StatusServiceUnavailable, errors.New("storage temporarily unavailable"))
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, errorResponse{Error: err.Error()})
}
