package apikey

import (
	"context"

	"github.com/pablosocial/pablo/internal/domain"
)

// Repository defines the persistence contract for API keys.
type Repository interface {
	// Create inserts a freshly generated key.
	Create(ctx context.Context, key *domain.APIKey) error

	// GetByKey returns the row matching the raw key value, or sql.ErrNoRows
	// wrapped by the implementation when none exists.
	GetByKey(ctx context.Context, key string) (*domain.APIKey, error)

	// ListByUser returns every key issued to the user.
	ListByUser(ctx context.Context, userID string) ([]*domain.APIKey, error)

	// Delete removes one key by id, scoped to the owning user.
	Delete(ctx context.Context, userID, id string) error

	// TouchLastUsed records that the key was just used for authentication.
	TouchLastUsed(ctx context.Context, id string) error
}
