// Package server mounts the portal's HTTP surface over the auth services.
package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"patient-portal/backend/internal/authz"
	"patient-portal/backend/internal/otp"
	otpservice "patient-portal/backend/internal/otp/service"
	"patient-portal/backend/internal/reset"
	"patient-portal/backend/internal/session"
)

// Server holds the services behind the HTTP routes.
type Server struct {
	login    *otpservice.Service
	resets   *reset.Service
	sessions *session.Manager
	authz    *authz.Service
	settings otp.SettingsReader
}

// NewServer returns a Server over the given services.
func NewServer(
	login *otpservice.Service,
	resets *reset.Service,
	sessions *session.Manager,
	authzService *authz.Service,
	settings otp.SettingsReader,
) *Server {
	return &Server{
		login:    login,
		resets:   resets,
		sessions: sessions,
		authz:    authzService,
		settings: settings,
	}
}

// Routes builds the router. Challenge and reset endpoints are public; logout,
// heartbeat, and permission lookups require a bearer token.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(requestLogger)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/auth/validate", s.handleValidateIdentity).Methods(http.MethodPost)
	r.HandleFunc("/auth/resend", s.handleResendCode).Methods(http.MethodPost)
	r.HandleFunc("/auth/verify", s.handleVerifyCode).Methods(http.MethodPost)

	r.Handle("/auth/logout", s.authenticate(http.HandlerFunc(s.handleLogout))).Methods(http.MethodPost)
	r.Handle("/auth/heartbeat", s.authenticate(http.HandlerFunc(s.handleHeartbeat))).Methods(http.MethodPost)
	r.Handle("/auth/permissions/{userId}", s.authenticate(http.HandlerFunc(s.handleGetPermissions))).Methods(http.MethodGet)

	r.HandleFunc("/auth/reset/start", s.handleResetStart).Methods(http.MethodPost)
	r.HandleFunc("/auth/reset/verify", s.handleResetVerify).Methods(http.MethodPost)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
