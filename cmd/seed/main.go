// seed inserts development sample data for local testing.
// Idempotent: every insert is ON CONFLICT DO NOTHING, so reruns are safe.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"patient-portal/backend/internal/config"
	"patient-portal/backend/internal/db"
	"patient-portal/backend/internal/security"
	"patient-portal/backend/internal/settings"
)

var documentTypes = []struct{ id, code, name string }{
	{"dt-cc", "CC", "Citizen ID"},
	{"dt-ti", "TI", "Identity Card"},
	{"dt-ce", "CE", "Foreigner ID"},
	{"dt-pa", "PA", "Passport"},
}

var defaultSettings = map[string]string{
	settings.KeyOTPTTLSeconds:         "300",
	settings.KeyOTPMaxAttempts:        "3",
	settings.KeyOTPSMSTemplate:        "Your verification code is {code}",
	settings.KeyOTPEmailSubject:       "Your verification code",
	settings.KeyOTPEmailTemplate:      "<p>Your verification code is <b>{code}</b>.</p>",
	settings.KeyOTPNoContactMessage:   "We have no phone or email on file for this document. Please contact the hospital to update your information.",
	settings.KeyOTPMaxAttemptsMessage: "Too many incorrect codes. Please request a new one.",
	settings.KeyTokenLifetimeMinutes:  "30",
	settings.KeyResetTTLSeconds:       "600",
	settings.KeyResetMaxAttempts:      "5",
	settings.KeyResetEmailSubject:     "Password reset code",
	settings.KeyResetEmailTemplate:    "<p>Your password reset code is <b>{code}</b>.</p>",
	settings.KeyResetSMSTemplate:      "Your password reset code is {code}",
}

var permissions = []struct{ id, name, module string }{
	{"perm-req-create", "Requests.Create", "Requests"},
	{"perm-req-read", "Requests.Read", "Requests"},
	{"perm-res-read", "Results.Read", "Results"},
	{"perm-prof-update", "Profile.Update", "Profile"},
	{"perm-admin-settings", "Admin.Settings.Write", "Admin"},
}

var rolePermissions = map[string][]string{
	"role-patient":       {"perm-req-create", "perm-req-read", "perm-res-read", "perm-prof-update"},
	"role-administrator": {"perm-req-read", "perm-res-read", "perm-admin-settings"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set")
		os.Exit(1)
	}

	sqlDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer sqlDB.Close()

	ctx := context.Background()
	if err := seed(ctx, sqlDB, cfg.BcryptCost); err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Println("seed complete")
}

func seed(ctx context.Context, sqlDB *sql.DB, bcryptCost int) error {
	for _, dt := range documentTypes {
		if _, err := sqlDB.ExecContext(ctx, `
			INSERT INTO document_types (id, code, name, is_active)
			VALUES ($1, $2, $3, TRUE)
			ON CONFLICT (code) DO NOTHING`, dt.id, dt.code, dt.name); err != nil {
			return fmt.Errorf("document type %s: %w", dt.code, err)
		}
	}

	for key, value := range defaultSettings {
		if _, err := sqlDB.ExecContext(ctx, `
			INSERT INTO settings (key, value)
			VALUES ($1, $2)
			ON CONFLICT (key) DO NOTHING`, key, value); err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
	}

	for _, role := range []struct{ id, name string }{
		{"role-patient", "patient"},
		{"role-administrator", "administrator"},
	} {
		if _, err := sqlDB.ExecContext(ctx, `
			INSERT INTO roles (id, name)
			VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING`, role.id, role.name); err != nil {
			return fmt.Errorf("role %s: %w", role.name, err)
		}
	}

	for _, p := range permissions {
		if _, err := sqlDB.ExecContext(ctx, `
			INSERT INTO permissions (id, name, module, is_active)
			VALUES ($1, $2, $3, TRUE)
			ON CONFLICT (name) DO NOTHING`, p.id, p.name, p.module); err != nil {
			return fmt.Errorf("permission %s: %w", p.name, err)
		}
	}

	for roleID, permIDs := range rolePermissions {
		for _, permID := range permIDs {
			if _, err := sqlDB.ExecContext(ctx, `
				INSERT INTO role_permissions (role_id, permission_id)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING`, roleID, permID); err != nil {
				return fmt.Errorf("role grant %s->%s: %w", roleID, permID, err)
			}
		}
	}

	// Dev patient identity gets the patient role.
	if _, err := sqlDB.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		VALUES ('CC-123456789', 'role-patient')
		ON CONFLICT DO NOTHING`); err != nil {
		return fmt.Errorf("dev user role: %w", err)
	}

	// Dev admin account for the password-reset flow.
	hash, err := security.NewHasher(bcryptCost).Hash([]byte("dev-password-1"))
	if err != nil {
		return fmt.Errorf("hash dev password: %w", err)
	}
	now := time.Now().UTC()
	if _, err := sqlDB.ExecContext(ctx, `
		INSERT INTO accounts (id, username, email, mobile, password_hash, created_at, updated_at)
		VALUES ('acc-dev-admin', 'devadmin', 'dev@example.com', '3001234789', $1, $2, $2)
		ON CONFLICT (username) DO NOTHING`, hash, now); err != nil {
		return fmt.Errorf("dev account: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		VALUES ('acc-dev-admin', 'role-administrator')
		ON CONFLICT DO NOTHING`); err != nil {
		return fmt.Errorf("dev admin role: %w", err)
	}
	return nil
}
