package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"patient-portal/backend/internal/attempt"
	attemptrepo "patient-portal/backend/internal/attempt/repository"
	"patient-portal/backend/internal/authz"
	authzrepo "patient-portal/backend/internal/authz/repository"
	"patient-portal/backend/internal/config"
	"patient-portal/backend/internal/db"
	doctyperepo "patient-portal/backend/internal/doctype/repository"
	identityrepo "patient-portal/backend/internal/identity/repository"
	"patient-portal/backend/internal/notify"
	"patient-portal/backend/internal/otp"
	otprepo "patient-portal/backend/internal/otp/repository"
	otpservice "patient-portal/backend/internal/otp/service"
	"patient-portal/backend/internal/patient"
	"patient-portal/backend/internal/reset"
	"patient-portal/backend/internal/security"
	"patient-portal/backend/internal/server"
	"patient-portal/backend/internal/session"
	sessionrepo "patient-portal/backend/internal/session/repository"
	"patient-portal/backend/internal/settings"
	settingsrepo "patient-portal/backend/internal/settings/repository"
	"patient-portal/backend/internal/telemetry"
	telemetryotel "patient-portal/backend/internal/telemetry/otel"
)

const serviceName = "patient-portal-auth"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx := context.Background()

	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, serviceName, false)
	if err != nil {
		log.Fatal().Err(err).Msg("telemetry")
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown")
		}
	}()

	metrics, err := telemetry.NewMetrics(providers.MeterProvider.Meter(serviceName))
	if err != nil {
		log.Warn().Err(err).Msg("metric registration failed, continuing without metrics")
		metrics = nil
	}

	sqlDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer sqlDB.Close()

	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatal().Err(err).Msg("JWT_PRIVATE_KEY")
	}
	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatal().Err(err).Msg("JWT_PUBLIC_KEY")
	}
	tokens := security.NewTokenProvider(privateKey, publicKey, cfg.JWTIssuer, cfg.JWTAudience)

	settingsProvider := settings.NewProvider(settingsrepo.NewPostgresRepository(sqlDB))
	sessions := session.NewManager(sessionrepo.NewPostgresRepository(sqlDB), tokens, settingsProvider)

	attemptSink := attempt.NewSink(attemptrepo.NewPostgresRepository(sqlDB), 256, metrics)
	defer attemptSink.Close()

	outboundTimeout := cfg.OutboundCallTimeout()
	patients := patient.NewHTTPClient(cfg.PatientAPIBaseURL, cfg.PatientAPIKey, outboundTimeout)
	smsSender := notify.NewSMSGatewayClient(cfg.SMSAPIKey, cfg.SMSGatewayURL, cfg.SMSSender, outboundTimeout)
	emailSender := notify.NewSMTPEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)

	// Three immediate starts per identity, then one per minute.
	loginLimiter := otp.NewStartLimiter(rate.Every(time.Minute), 3)
	resetLimiter := otp.NewStartLimiter(rate.Every(time.Minute), 3)

	challengeRepo := otprepo.NewPostgresRepository(sqlDB)
	loginService := otpservice.NewService(
		otp.NewEngine(challengeRepo, settingsProvider, otp.LoginPolicy, metrics),
		doctyperepo.NewPostgresRepository(sqlDB),
		patients,
		smsSender,
		emailSender,
		sessions,
		attemptSink,
		settingsProvider,
		loginLimiter,
	)
	resetService := reset.NewService(
		otp.NewEngine(challengeRepo, settingsProvider, otp.PasswordResetPolicy, metrics),
		identityrepo.NewPostgresRepository(sqlDB),
		security.NewHasher(cfg.BcryptCost),
		emailSender,
		smsSender,
		settingsProvider,
		resetLimiter,
	)
	authzService := authz.NewService(authzrepo.NewPostgresRepository(sqlDB), authz.NewCache(), metrics)

	srv := server.NewServer(loginService, resetService, sessions, authzService, settingsProvider)
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown")
	}
	log.Info().Msg("http server stopped")
}
