package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-otp-auth/internal/application/auth"
	"github.com/go-otp-auth/internal/domain"
	"github.com/go-otp-auth/internal/pkg/validate"
	"github.com/go-otp-auth/internal/transport/http/middleware"
)

// AuthService is the verification flow consumed by the channel handlers.
type AuthService interface {
	Register(ctx context.Context, req auth.RegisterRequest) error
	Verify(ctx context.Context, req auth.VerifyRequest) (*domain.AuthResult, error)
}

// EmailAuthHandler handles email registration and verification endpoints.
type EmailAuthHandler struct {
	svc AuthService
}

func NewEmailAuthHandler(svc AuthService) *EmailAuthHandler {
	return &EmailAuthHandler{svc: svc}
}

type emailRegisterRequest struct {
	Email string `json:"email" validate:"required"`
	Name  string `json:"name"`
}

type emailVerifyRequest struct {
	Email string `json:"email" validate:"required"`
	Code  string `json:"otp" validate:"required"`
}

func (h *EmailAuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req emailRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	err := h.svc.Register(r.Context(), auth.RegisterRequest{
		Channel:    domain.ChannelEmail,
		Identifier: req.Email,
		Name:       req.Name,
		IP:         middleware.RealIP(r),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Verification email sent", nil)
}

func (h *EmailAuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req emailVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	result, err := h.svc.Verify(r.Context(), auth.VerifyRequest{
		Channel:    domain.ChannelEmail,
		Identifier: req.Email,
		Code:       req.Code,
		IP:         middleware.RealIP(r),
		DeviceInfo: r.UserAgent(),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Verification successful", result)
}
