package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-otp-auth/internal/application/auth"
	"github.com/go-otp-auth/internal/domain"
	"github.com/go-otp-auth/internal/pkg/validate"
	"github.com/go-otp-auth/internal/transport/http/middleware"
)

// PhoneAuthHandler handles SMS registration and verification endpoints.
type PhoneAuthHandler struct {
	svc AuthService
}

func NewPhoneAuthHandler(svc AuthService) *PhoneAuthHandler {
	return &PhoneAuthHandler{svc: svc}
}

type phoneRegisterRequest struct {
	Phone string `json:"phone" validate:"required"`
	Name  string `json:"name"`
}

type phoneVerifyRequest struct {
	Phone string `json:"phone" validate:"required"`
	Code  string `json:"otp" validate:"required"`
}

func (h *PhoneAuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req phoneRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	err := h.svc.Register(r.Context(), auth.RegisterRequest{
		Channel:    domain.ChannelPhone,
		Identifier: req.Phone,
		Name:       req.Name,
		IP:         middleware.RealIP(r),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Verification SMS sent", nil)
}

func (h *PhoneAuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req phoneVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	result, err := h.svc.Verify(r.Context(), auth.VerifyRequest{
		Channel:    domain.ChannelPhone,
		Identifier: req.Phone,
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
