package connection

import (
	"context"

	"github.com/pablosocial/pablo/internal/domain"
)

// Repository defines the persistence contract for service credentials.
type Repository interface {
	// Upsert inserts or replaces the credential for (user, service).
	Upsert(ctx context.Context, cred *domain.ServiceCredential) error

	// Get returns the credential for (user, service), or sql.ErrNoRows
	// wrapped by the implementation when none exists.
	Get(ctx context.Context, userID, serviceName string) (*domain.ServiceCredential, error)

	// ListByUser returns every credential row stored for the user.
	ListByUser(ctx context.Context, userID string) ([]*domain.ServiceCredential, error)

	// Delete removes the credential for (user, service). Deleting a
	// missing row is not an error.
	Delete(ctx context.Context, userID, serviceName string) error
}
