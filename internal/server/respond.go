package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	otpservice "patient-portal/backend/internal/otp/service"
	"patient-portal/backend/internal/reset"
	"patient-portal/backend/internal/security"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// statusFor maps service sentinels to HTTP status codes. Unknown errors are
// internal; their details are logged, never sent to the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, otpservice.ErrDocumentTypeNotFound),
		errors.Is(err, otpservice.ErrPatientNotFound),
		errors.Is(err, otpservice.ErrChallengeNotFound),
		errors.Is(err, reset.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, otpservice.ErrTooManyRequests),
		errors.Is(err, reset.ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, otpservice.ErrChallengeInvalidOrExpired),
		errors.Is(err, otpservice.ErrIdentityMismatch),
		errors.Is(err, otpservice.ErrInvalidCode),
		errors.Is(err, otpservice.ErrMaxAttemptsReached),
		errors.Is(err, reset.ErrChallengeInvalidOrExpired),
		errors.Is(err, reset.ErrIdentityMismatch),
		errors.Is(err, reset.ErrInvalidCode),
		errors.Is(err, reset.ErrMaxAttemptsReached),
		errors.Is(err, security.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, reset.ErrPasswordTooShort):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}
