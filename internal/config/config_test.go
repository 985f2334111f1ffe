package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.JWTIssuer != "portal-auth" {
		t.Errorf("JWTIssuer = %q, want portal-auth", cfg.JWTIssuer)
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d, want 587", cfg.SMTPPort)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("JWT_ISSUER", "custom-issuer")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want custom-issuer", cfg.JWTIssuer)
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	t.Setenv("BCRYPT_COST", "99")
	if _, err := Load(); err == nil {
		t.Fatal("BCRYPT_COST=99 should fail validation")
	}
}

func TestOutboundCallTimeout(t *testing.T) {
	cfg := &Config{OutboundTimeout: "3s"}
	if got := cfg.OutboundCallTimeout(); got != 3*time.Second {
		t.Errorf("OutboundCallTimeout = %v, want 3s", got)
	}

	cfg = &Config{OutboundTimeout: "not-a-duration"}
	if got := cfg.OutboundCallTimeout(); got != 10*time.Second {
		t.Errorf("invalid timeout should fall back to 10s, got %v", got)
	}

	cfg = &Config{OutboundTimeout: "-1s"}
	if got := cfg.OutboundCallTimeout(); got != 10*time.Second {
		t.Errorf("negative timeout should fall back to 10s, got %v", got)
	}
}
