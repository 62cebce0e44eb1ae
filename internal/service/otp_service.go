package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/shopmate/shopmate/internal/config"
	"github.com/shopmate/shopmate/internal/models"
	"github.com/shopmate/shopmate/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidEmail is returned when the submitted address is not a
	// plausible email.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidCode is returned when no outstanding credential
	// matches the submitted email and code. Deliberately the same for
	// an unknown email and a wrong code.
	ErrInvalidCode = errors.New("invalid code")

	// ErrCodeExpired is returned when the credential exists but its
	// validity window has passed.
	ErrCodeExpired = errors.New("code expired")

	// ErrNotification is returned when the code could not be delivered.
	// No credential is persisted in that case.
	ErrNotification = errors.New("code dispatch failed")
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// CredentialStore holds at most one outstanding login code per email.
type CredentialStore interface {
	Put(ctx context.Context, cred models.Credential) error
	Get(ctx context.Context, email string) (*models.Credential, error)
	Delete(ctx context.Context, email string) error
}

// UserStore resolves durable user records.
type UserStore interface {
	GetOrCreate(ctx context.Context, email, role string) (*models.User, error)
}

// CodeSender delivers a login code out-of-band.
type CodeSender interface {
	SendCode(ctx context.Context, to, code string) error
}

// OTPService implements the passwordless login flow: issue a single-use
// code to an email address, then trade a matching code for a session.
type OTPService struct {
	creds      CredentialStore
	users      UserStore
	sender     CodeSender
	tokens     *TokenService
	cfg        *config.OTPConfig
	adminEmail string
	logger     *logrus.Logger
}

func NewOTPService(
	creds CredentialStore,
	users UserStore,
	sender CodeSender,
	tokens *TokenService,
	cfg *config.OTPConfig,
	adminEmail string,
	logger *logrus.Logger,
) *OTPService {
	return &OTPService{
		creds:      creds,
		users:      users,
		sender:     sender,
		tokens:     tokens,
		cfg:        cfg,
		adminEmail: strings.ToLower(adminEmail),
		logger:     logger,
	}
}

// RequestCode generates a fresh code for the email, dispatches it, and
// persists the credential. The credential is only written after the
// dispatch succeeded, so a failed send never leaves an orphaned code.
// Persisting is an atomic upsert keyed by email, which keeps the
// at-most-one-outstanding-code invariant under concurrent requests.
func (s *OTPService) RequestCode(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	code, err := generateCode(s.cfg.Length)
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	if err := s.sender.SendCode(ctx, email, code); err != nil {
		return fmt.Errorf("%w: %w", ErrNotification, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash code: %w", err)
	}

	now := time.Now()
	cred := models.Credential{
		Email:     email,
		CodeHash:  string(hash),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.Expiry),
	}

	if err := s.creds.Put(ctx, cred); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	s.logger.WithField("email", email).Info("Login code issued")
	return nil
}

// VerifyCode checks the submitted code against the outstanding
// credential. On the first match for a never-seen email it creates the
// user record with the default role; the consumed credential is deleted
// before the session is minted, so a code can never be replayed.
func (s *OTPService) VerifyCode(ctx context.Context, email, code string) (*models.User, string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, "", err
	}
	code = strings.TrimSpace(code)

	cred, err := s.creds.Get(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return nil, "", ErrInvalidCode
		}
		return nil, "", fmt.Errorf("failed to load credential: %w", err)
	}

	if time.Now().After(cred.ExpiresAt) {
		_ = s.creds.Delete(ctx, email)
		return nil, "", ErrCodeExpired
	}

	if bcrypt.CompareHashAndPassword([]byte(cred.CodeHash), []byte(code)) != nil {
		return nil, "", ErrInvalidCode
	}

	role := models.RoleUser
	if s.adminEmail != "" && email == s.adminEmail {
		role = models.RoleAdmin
	}

	user, err := s.users.GetOrCreate(ctx, email, role)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve user: %w", err)
	}

	if err := s.creds.Delete(ctx, email); err != nil {
		return nil, "", fmt.Errorf("failed to consume credential: %w", err)
	}

	token, err := s.tokens.MintSession(user)
	if err != nil {
		return nil, "", err
	}

	s.logger.WithFields(logrus.Fields{
		"email": email,
		"user":  user.ID,
	}).Info("Login code verified")

	return user, token, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// generateCode produces a fixed-width numeric code. Each digit is drawn
// independently from crypto/rand, so a 6-digit code is always rendered
// as 6 characters, leading zeros included.
func generateCode(length int) (string, error) {
	code := make([]byte, length)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code[i] = byte('0' + num.Int64())
	}
	return string(code), nil
}
