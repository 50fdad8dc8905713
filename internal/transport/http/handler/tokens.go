package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-otp-auth/internal/domain"
)

// TokenService is the refresh/revoke surface consumed by the token handler.
type TokenService interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	RevokeRefreshToken(ctx context.Context, refreshToken string) error
}

// TokenHandler handles refresh-token exchange and revocation.
type TokenHandler struct {
	svc TokenService
}

func NewTokenHandler(svc TokenService) *TokenHandler {
	return &TokenHandler{svc: svc}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *TokenHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token required")
		return
	}
	pair, err := h.svc.RefreshAccessToken(r.Context(), req.RefreshToken)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Token refreshed", pair)
}

func (h *TokenHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token required")
		return
	}
	if err := h.svc.RevokeRefreshToken(r.Context(), req.RefreshToken); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Token revoked", nil)
}
