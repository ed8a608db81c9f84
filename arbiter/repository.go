package arbiter

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository stores arbitrator authorization flags. Entries are only ever
// added; there is no revocation.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed registry implementation.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Register marks the identity as an authorized arbitrator. Idempotent.
func (r *Repository) Register(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("arbiter: empty arbitrator id")
	}
	if _, err := r.pool.Exec(ctx, `INSERT INTO arbitrators (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, id); err != nil {
		return fmt.Errorf("arbiter: register: %w", err)
	}
	return nil
}

// IsArbitrator reports whether the identity is a registered arbitrator.
func (r *Repository) IsArbitrator(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM arbitrators WHERE user_id = $1)`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("arbiter: query flag: %w", err)
	}
	return ok, nil
}

// IsArbitratorTx is IsArbitrator inside the caller's transaction so the
// flag read commits with the guarded action.
func (r *Repository) IsArbitratorTx(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
	var ok bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM arbitrators WHERE user_id = $1)`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("arbiter: query flag: %w", err)
	}
	return ok, nil
}
