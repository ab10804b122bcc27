package connection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pablosocial/pablo/internal/domain"
	"github.com/pablosocial/pablo/internal/pkg/logger"
)

// Service manages stored third-party credentials.
type Service struct {
	repo Repository
}

// NewService creates a connection service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Store saves the tokens obtained from a completed OAuth exchange,
// replacing any previous credential for the same service.
func (s *Service) Store(ctx context.Context, userID, serviceName, accessToken, refreshToken string, expires time.Time) error {
	now := time.Now().UTC()
	cred := &domain.ServiceCredential{
		UserID:             userID,
		ServiceName:        serviceName,
		AccessToken:        accessToken,
		RefreshToken:       refreshToken,
		AccessTokenExpires: expires,
		UpdatedAt:          now,
		CreatedAt:          now,
	}
	if err := s.repo.Upsert(ctx, cred); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	logger.Info("stored credential", "user_id", userID, "service", serviceName)
	return nil
}

// Connections returns the services the user currently has linked. Rows
// whose token was emptied by a disconnect are filtered out.
func (s *Service) Connections(ctx context.Context, userID string) ([]*domain.ServiceCredential, error) {
	creds, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	connected := make([]*domain.ServiceCredential, 0, len(creds))
	for _, c := range creds {
		if c.Connected() {
			connected = append(connected, c)
		}
	}
	return connected, nil
}

// Credential returns the user's credential for one service. It returns
// ErrNotConnected when no row exists or the stored token is empty.
func (s *Service) Credential(ctx context.Context, userID, serviceName string) (*domain.ServiceCredential, error) {
	cred, err := s.repo.Get(ctx, userID, serviceName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotConnected, serviceName)
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	if !cred.Connected() {
		return nil, fmt.Errorf("%w: %s", ErrNotConnected, serviceName)
	}
	return cred, nil
}

// Disconnect removes the user's credential for one service. Disconnecting
// a service that was never linked succeeds.
func (s *Service) Disconnect(ctx context.Context, userID, serviceName string) error {
	if err := s.repo.Delete(ctx, userID, serviceName); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	logger.Info("disconnected service", "user_id", userID, "service", serviceName)
	return nil
}
