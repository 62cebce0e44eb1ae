package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopmate/shopmate/internal/config"
	"github.com/shopmate/shopmate/internal/models"
	"github.com/sirupsen/logrus"
)

// TokenService mints and verifies stateless session tokens. A session
// is a single signed credential valid for the configured window; there
// is no server-side revocation list.
type TokenService struct {
	secretKey     []byte
	sessionExpiry time.Duration
	logger        *logrus.Logger
}

func NewTokenService(cfg *config.JWTConfig, logger *logrus.Logger) (*TokenService, error) {
	secretKey := []byte(cfg.SecretKey)
	if len(secretKey) < 32 {
		return nil, fmt.Errorf("secret key must be at least 32 bytes")
	}

	return &TokenService{
		secretKey:     secretKey,
		sessionExpiry: cfg.SessionExpiry,
		logger:        logger,
	}, nil
}

type SessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// MintSession signs a session token for the user. The subject is the
// user id. The role claim is informational only; authorization always
// re-resolves the user record.
func (s *TokenService) MintSession(user *models.User) (string, error) {
	now := time.Now()

	claims := &SessionClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionExpiry)),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		s.logger.WithError(err).Error("Failed to sign session token")
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

func (s *TokenService) VerifySession(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
