package profiles

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository stores profiles in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a profiles repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SetDeviceToken upserts the user's device_token.
func (r *Repository) SetDeviceToken(ctx context.Context, userID uuid.UUID, token *string) error {
	const q = `INSERT INTO profiles (id, device_token, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET device_token = EXCLUDED.device_token, updated_at = NOW()`
	_, err := r.pool.Exec(ctx, q, userID, token)
	return err
}
