package service

import (
	"strings"
	"testing"
	"time"

	"github.com/shopmate/shopmate/internal/config"
	"github.com/shopmate/shopmate/internal/models"
	"github.com/sirupsen/logrus"
)

func newTestTokenService(t *testing.T, secret string, expiry time.Duration) *TokenService {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	svc, err := NewTokenService(&config.JWTConfig{
		SecretKey:     secret,
		SessionExpiry: expiry,
	}, logger)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return svc
}

func TestNewTokenService_RejectsShortSecret(t *testing.T) {
	t.Parallel()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	if _, err := NewTokenService(&config.JWTConfig{SecretKey: "short"}, logger); err == nil {
		t.Fatal("NewTokenService accepted a short secret")
	}
}

func TestMintSession_RoundTrip(t *testing.T) {
	t.Parallel()

	svc := newTestTokenService(t, testSecret, 15*24*time.Hour)
	user := &models.User{ID: "user-1", Email: "a@x.com", Role: models.RoleAdmin}

	token, err := svc.MintSession(user)
	if err != nil {
		t.Fatalf("MintSession: %v", err)
	}

	claims, err := svc.VerifySession(token)
	if err != nil {
		t.Fatalf("VerifySession: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("Subject = %q, want user-1", claims.Subject)
	}
	if claims.Role != models.RoleAdmin {
		t.Errorf("Role = %q, want admin", claims.Role)
	}

	wantExpiry := time.Now().Add(15 * 24 * time.Hour)
	got := claims.ExpiresAt.Time
	if got.Before(wantExpiry.Add(-time.Minute)) || got.After(wantExpiry.Add(time.Minute)) {
		t.Errorf("ExpiresAt = %v, want ~%v", got, wantExpiry)
	}
}

func TestVerifySession_Tampered(t *testing.T) {
	t.Parallel()

	svc := newTestTokenService(t, testSecret, time.Hour)
	token, err := svc.MintSession(&models.User{ID: "user-1", Role: models.RoleUser})
	if err != nil {
		t.Fatalf("MintSession: %v", err)
	}

	// Flip a character in the signature segment.
	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	parts[2] = string(sig)

	if _, err := svc.VerifySession(strings.Join(parts, ".")); err == nil {
		t.Fatal("VerifySession accepted a tampered token")
	}
}

func TestVerifySession_WrongSecret(t *testing.T) {
	t.Parallel()

	svc := newTestTokenService(t, testSecret, time.Hour)
	other := newTestTokenService(t, strings.Repeat("x", 32), time.Hour)

	token, err := svc.MintSession(&models.User{ID: "user-1", Role: models.RoleUser})
	if err != nil {
		t.Fatalf("MintSession: %v", err)
	}

	if _, err := other.VerifySession(token); err == nil {
		t.Fatal("VerifySession accepted a token signed with another secret")
	}
}

func TestVerifySession_Expired(t *testing.T) {
	t.Parallel()

	svc := newTestTokenService(t, testSecret, -time.Minute)
	token, err := svc.MintSession(&models.User{ID: "user-1", Role: models.RoleUser})
	if err != nil {
		t.Fatalf("MintSession: %v", err)
	}

	if _, err := svc.VerifySession(token); err == nil {
		t.Fatal("VerifySession accepted an expired token")
	}
}

func TestVerifySession_Garbage(t *testing.T) {
	t.Parallel()

	svc := newTestTokenService(t, testSecret, time.Hour)
	if _, err := svc.VerifySession("not.a.token"); err == nil {
		t.Fatal("VerifySession accepted garbage")
	}
}
