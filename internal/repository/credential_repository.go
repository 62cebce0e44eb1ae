package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopmate/shopmate/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrCredentialNotFound is returned when no outstanding login code
// exists for an email address.
var ErrCredentialNotFound = errors.New("credential not found")

type CredentialRepository struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewCredentialRepository(client *redis.Client, logger *logrus.Logger) *CredentialRepository {
	return &CredentialRepository{
		client: client,
		logger: logger,
	}
}

func credentialKey(email string) string {
	return fmt.Sprintf("otp:%s", email)
}

// Put stores the credential under the email key, replacing any
// outstanding record. The single SET is an atomic upsert, so the
// at-most-one-live-credential invariant holds even under concurrent
// issues for the same address. The key expires with the credential.
func (r *CredentialRepository) Put(ctx context.Context, cred models.Credential) error {
	dataJSON, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	ttl := time.Until(cred.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("credential already expired")
	}

	if err := r.client.Set(ctx, credentialKey(cred.Email), dataJSON, ttl).Err(); err != nil {
		r.logger.WithError(err).Error("Failed to store credential in Redis")
		return fmt.Errorf("failed to store credential: %w", err)
	}

	return nil
}

func (r *CredentialRepository) Get(ctx context.Context, email string) (*models.Credential, error) {
	dataJSON, err := r.client.Get(ctx, credentialKey(email)).Result()
	if err == redis.Nil {
		return nil, ErrCredentialNotFound
	}
	if err != nil {
		r.logger.WithError(err).Error("Failed to get credential from Redis")
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	var cred models.Credential
	if err := json.Unmarshal([]byte(dataJSON), &cred); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}

	return &cred, nil
}

func (r *CredentialRepository) Delete(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, credentialKey(email)).Err(); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}
