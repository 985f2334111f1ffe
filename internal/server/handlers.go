package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	otpservice "patient-portal/backend/internal/otp/service"
	"patient-portal/backend/internal/settings"
)

type validateIdentityRequest struct {
	DocType   string `json:"docType"`
	DocNumber string `json:"docNumber"`
}

type challengeResponse struct {
	ChallengeID string `json:"challengeId,omitempty"`
	MaskedPhone string `json:"maskedPhone,omitempty"`
	MaskedEmail string `json:"maskedEmail,omitempty"`
	FullName    string `json:"fullName,omitempty"`
	HistoryID   string `json:"historyId,omitempty"`
	Message     string `json:"message,omitempty"`
}

func challengeResponseFrom(res *otpservice.StartResult) challengeResponse {
	return challengeResponse{
		ChallengeID: res.ChallengeID,
		MaskedPhone: res.MaskedPhone,
		MaskedEmail: res.MaskedEmail,
		FullName:    res.FullName,
		HistoryID:   res.HistoryID,
		Message:     res.Message,
	}
}

func (s *Server) handleValidateIdentity(w http.ResponseWriter, r *http.Request) {
	var req validateIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.login.Start(r.Context(), req.DocType, req.DocNumber, clientIP(r))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, challengeResponseFrom(res))
}

type resendRequest struct {
	ChallengeID string `json:"challengeId"`
}

func (s *Server) handleResendCode(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.login.Resend(r.Context(), req.ChallengeID, clientIP(r))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, challengeResponseFrom(res))
}

type verifyRequest struct {
	DocType     string `json:"docType"`
	DocNumber   string `json:"docNumber"`
	ChallengeID string `json:"challengeId"`
	Code        string `json:"code"`
}

type verifyResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) handleVerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.login.Verify(r.Context(), req.DocType, req.DocNumber, req.ChallengeID, req.Code, clientIP(r))
	if errors.Is(err, otpservice.ErrMaxAttemptsReached) {
		// Operators control the lockout message shown to patients.
		msg := s.settings.GetString(r.Context(), settings.KeyOTPMaxAttemptsMessage, err.Error())
		writeError(w, http.StatusUnauthorized, msg)
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{Token: res.Token, ExpiresAt: res.ExpiresAt})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(r.Context(), jtiFrom(r.Context())); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHeartbeat is a bare liveness ping: the authenticate middleware already
// recorded the heartbeat.
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

type permissionsResponse struct {
	UserID      string   `json:"userId"`
	Permissions []string `json:"permissions"`
}

func (s *Server) handleGetPermissions(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	// The portal client only ever queries the logged-in identity; a token for
	// one identity must not enumerate another's grants.
	if userID != userIDFrom(r.Context()) {
		writeError(w, http.StatusForbidden, "cannot read another identity's permissions")
		return
	}
	perms, err := s.authz.GetPermissions(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, permissionsResponse{UserID: userID, Permissions: perms})
}

type resetStartRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
}

type resetStartResponse struct {
	ChallengeID string `json:"challengeId"`
	MaskedEmail string `json:"maskedEmail,omitempty"`
	MaskedPhone string `json:"maskedPhone,omitempty"`
}

func (s *Server) handleResetStart(w http.ResponseWriter, r *http.Request) {
	var req resetStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.resets.Start(r.Context(), req.UsernameOrEmail, clientIP(r))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resetStartResponse{
		ChallengeID: res.ChallengeID,
		MaskedEmail: res.MaskedEmail,
		MaskedPhone: res.MaskedPhone,
	})
}

type resetVerifyRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	ChallengeID     string `json:"challengeId"`
	Code            string `json:"code"`
	NewPassword     string `json:"newPassword"`
}

func (s *Server) handleResetVerify(w http.ResponseWriter, r *http.Request) {
	var req resetVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.resets.Verify(r.Context(), req.UsernameOrEmail, req.ChallengeID, req.Code, req.NewPassword, clientIP(r)); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
