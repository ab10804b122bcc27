package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pablosocial/pablo/internal/domain"
)

// CredentialRepo implements connection.Repository against PostgreSQL.
type CredentialRepo struct{ db *sql.DB }

// NewCredentialRepo creates a Postgres-backed credential repository.
func NewCredentialRepo(db *sql.DB) *CredentialRepo { return &CredentialRepo{db: db} }

func (r *CredentialRepo) Upsert(ctx context.Context, c *domain.ServiceCredential) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO service_credentials
			(user_id, service_name, access_token, refresh_token,
			 access_token_expires, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (user_id, service_name) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			access_token_expires = EXCLUDED.access_token_expires,
			updated_at = NOW()
	`, c.UserID, c.ServiceName, c.AccessToken, nullIfEmpty(c.RefreshToken), c.AccessTokenExpires)
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	return nil
}

func (r *CredentialRepo) Get(ctx context.Context, userID, serviceName string) (*domain.ServiceCredential, error) {
	c := &domain.ServiceCredential{}
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, service_name, access_token, COALESCE(refresh_token, ''),
		       access_token_expires, updated_at, created_at
		FROM service_credentials
		WHERE user_id = $1 AND service_name = $2
	`, userID, serviceName).Scan(
		&c.UserID, &c.ServiceName, &c.AccessToken, &c.RefreshToken,
		&c.AccessTokenExpires, &c.UpdatedAt, &c.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return c, nil
}

func (r *CredentialRepo) ListByUser(ctx context.Context, userID string) ([]*domain.ServiceCredential, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, service_name, access_token, COALESCE(refresh_token, ''),
		       access_token_expires, updated_at, created_at
		FROM service_credentials
		WHERE user_id = $1
		ORDER BY service_name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var out []*domain.ServiceCredential
	for rows.Next() {
		c := &domain.ServiceCredential{}
		if err := rows.Scan(
			&c.UserID, &c.ServiceName, &c.AccessToken, &c.RefreshToken,
			&c.AccessTokenExpires, &c.UpdatedAt, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CredentialRepo) Delete(ctx context.Context, userID, serviceName string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM service_credentials
		WHERE user_id = $1 AND service_name = $2
	`, userID, serviceName)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}
