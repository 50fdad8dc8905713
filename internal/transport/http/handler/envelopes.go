package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-otp-auth/internal/domain"
	"github.com/go-otp-auth/internal/pkg/identifier"
)

// Envelope is the generic response wrapper: status is "success" or "error",
// data carries the payload on success, and the rate-limit hints appear only
// on 429 responses.
type Envelope struct {
	Status            string      `json:"status"`
	Message           string      `json:"message,omitempty"`
	Data              interface{} `json:"data,omitempty"`
	RemainingAttempts *int        `json:"remaining_attempts,omitempty"`
	WaitTime          *int        `json:"wait_time,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, Envelope{Status: "success", Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Envelope{Status: "error", Message: msg})
}

// writeDomainError maps application errors onto HTTP statuses. Storage
// failures never leak their detail to the client.
func writeDomainError(w http.ResponseWriter, err error) {
	var rle *domain.RateLimitError
	switch {
	case errors.As(err, &rle):
		wait := int(rle.RetryAfter.Seconds())
		writeJSON(w, http.StatusTooManyRequests, Envelope{
			Status:            "error",
			Message:           "Too many attempts. Please try again later.",
			RemainingAttempts: &rle.Remaining,
			WaitTime:          &wait,
		})
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, domain.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, "Invalid verification code")
	case errors.Is(err, domain.ErrCodeExpired):
		writeError(w, http.StatusBadRequest, "Verification code expired")
	case errors.Is(err, domain.ErrNotificationFailed):
		writeError(w, http.StatusBadGateway, "Failed to send verification code")
	case errors.Is(err, domain.ErrToken):
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, identifier.ErrUnsupportedCountry):
		return "Unsupported country code"
	case errors.Is(err, identifier.ErrInvalidPhone):
		return "Invalid phone number format"
	case errors.Is(err, identifier.ErrInvalidEmail):
		return "Invalid email format"
	default:
		return err.Error()
	}
}
