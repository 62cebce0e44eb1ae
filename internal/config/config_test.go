package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET_KEY", strings.Repeat("k", 32))
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("MEDIA_BUCKET", "shopmate-media")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.OTP.Length != 6 {
		t.Errorf("OTP.Length = %d, want 6", cfg.OTP.Length)
	}
	if cfg.OTP.Expiry != 5*time.Minute {
		t.Errorf("OTP.Expiry = %v, want 5m", cfg.OTP.Expiry)
	}
	if cfg.JWT.SessionExpiry != 15*24*time.Hour {
		t.Errorf("SessionExpiry = %v, want 360h", cfg.JWT.SessionExpiry)
	}
	if cfg.SMTP.Port != 587 {
		t.Errorf("SMTP.Port = %d, want 587", cfg.SMTP.Port)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("OTP_EXPIRY", "2m")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("ADMIN_EMAIL", "boss@x.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "9000" {
		t.Errorf("Port = %q, want 9000", cfg.Server.Port)
	}
	if cfg.OTP.Expiry != 2*time.Minute {
		t.Errorf("OTP.Expiry = %v, want 2m", cfg.OTP.Expiry)
	}
	if cfg.SMTP.Port != 465 {
		t.Errorf("SMTP.Port = %d, want 465", cfg.SMTP.Port)
	}
	if cfg.AdminEmail != "boss@x.com" {
		t.Errorf("AdminEmail = %q, want boss@x.com", cfg.AdminEmail)
	}
}

func TestLoad_RequiresSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_SECRET_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load accepted a missing JWT secret")
	}
}

func TestLoad_RejectsShortSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_SECRET_KEY", "too-short")

	if _, err := Load(); err == nil {
		t.Fatal("Load accepted a short JWT secret")
	}
}

func TestLoad_RequiresSMTPHost(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SMTP_HOST", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load accepted a missing SMTP host")
	}
}
