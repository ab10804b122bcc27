package build

import (
	"context"

	"github.com/pablosocial/pablo/internal/domain"
)

// Repository defines the persistence contract for ad imports.
type Repository interface {
	// CreateImport inserts one canonical record. Writes are append-only:
	// each build carries a fresh build_id, so no upsert semantics are needed.
	CreateImport(ctx context.Context, ad *domain.AdData) error

	// Get returns one record by build id, or ErrNotFound.
	Get(ctx context.Context, buildID string) (*domain.AdData, error)

	// UpdateStatus transitions one record's lifecycle status, or returns
	// ErrNotFound when no such build exists.
	UpdateStatus(ctx context.Context, buildID string, status domain.ImportStatus) error
}
