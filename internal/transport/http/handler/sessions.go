package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/go-otp-auth/internal/domain"
	"github.com/go-otp-auth/internal/transport/http/middleware"
)

// SessionService is the session surface consumed by the session handler.
type SessionService interface {
	ActiveSessions(ctx context.Context, userID string) ([]domain.Session, error)
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	End(ctx context.Context, sessionID string)
}

// SessionHandler lists and ends the caller's sessions.
type SessionHandler struct {
	svc SessionService
}

func NewSessionHandler(svc SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sessions, err := h.svc.ActiveSessions(r.Context(), claims.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", sessions)
}

// End closes one of the caller's own sessions. Ending a session does not
// invalidate outstanding tokens.
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sessionID := chi.URLParam(r, "id")
	sess, err := h.svc.Get(r.Context(), sessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if sess.UserID != claims.UserID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	h.svc.End(r.Context(), sessionID)
	writeSuccess(w, http.StatusOK, "Session ended", nil)
}
