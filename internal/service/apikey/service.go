package apikey

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pablosocial/pablo/internal/domain"
	"github.com/pablosocial/pablo/internal/pkg/logger"
)

const (
	keyLength   = 32
	keyAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Service issues, lists, deletes, and validates API keys.
type Service struct {
	repo Repository
}

// NewService creates an API key service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Generate issues a new key for the user and returns it with the full key
// value. The full value is only available at creation time; listings
// redact it.
func (s *Service) Generate(ctx context.Context, userID string) (*domain.APIKey, error) {
	raw, err := randomKey(keyLength)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	key := &domain.APIKey{
		ID:        uuid.New().String(),
		UserID:    userID,
		Key:       raw,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, key); err != nil {
		return nil, fmt.Errorf("create key: %w", err)
	}
	logger.Info("issued api key", "user_id", userID, "key_id", key.ID)
	return key, nil
}

// List returns the user's keys with the key values redacted.
func (s *Service) List(ctx context.Context, userID string) ([]domain.APIKey, error) {
	keys, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	out := make([]domain.APIKey, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.Redacted())
	}
	return out, nil
}

// Delete revokes one key by id.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete key: %w", err)
	}
	logger.Info("revoked api key", "user_id", userID, "key_id", id)
	return nil
}

// Validate resolves a presented key to its owning user. The last-used
// timestamp is updated best effort: a failed touch never rejects an
// otherwise valid key.
func (s *Service) Validate(ctx context.Context, rawKey string) (string, error) {
	if rawKey == "" {
		return "", ErrInvalidKey
	}
	key, err := s.repo.GetByKey(ctx, rawKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidKey
		}
		return "", fmt.Errorf("validate key: %w", err)
	}
	if err := s.repo.TouchLastUsed(ctx, key.ID); err != nil {
		logger.Warn("touch last_used failed", "key_id", key.ID, "error", err.Error())
	}
	return key.UserID, nil
}

func randomKey(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = keyAlphabet[int(b)%len(keyAlphabet)]
	}
	return string(buf), nil
}
