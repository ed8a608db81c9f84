package evidence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides append-only access to the evidence registry.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// AppendTx records an evidence item inside the caller's transaction. The
// caller owns sequence allocation; the primary key rejects reuse.
func (r *Repository) AppendTx(ctx context.Context, tx pgx.Tx, item Item) error {
	if err := Validate(item.Digest, item.Weight); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO evidence (dispute_id, seq, submitter_id, digest, weight, submitted_height)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, item.DisputeID, item.Seq, item.SubmitterID, item.Digest, item.Weight, item.SubmittedHeight)
	if err != nil {
		return fmt.Errorf("evidence: append: %w", err)
	}
	return nil
}

// Get fetches a single evidence item by its composite key.
func (r *Repository) Get(ctx context.Context, disputeID int64, seq int) (Item, error) {
	const query = `
		SELECT dispute_id, seq, submitter_id, digest, weight, submitted_height, created_at
		FROM evidence
		WHERE dispute_id = $1 AND seq = $2
	`
	var item Item
	err := r.pool.QueryRow(ctx, query, disputeID, seq).Scan(
		&item.DisputeID,
		&item.Seq,
		&item.SubmitterID,
		&item.Digest,
		&item.Weight,
		&item.SubmittedHeight,
		&item.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, fmt.Errorf("evidence: get: %w", err)
	}
	return item, nil
}

// Count returns the number of evidence items recorded for the dispute.
func (r *Repository) Count(ctx context.Context, disputeID int64) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM evidence WHERE dispute_id = $1`, disputeID).Scan(&n); err != nil {
		return 0, fmt.Errorf("evidence: count: %w", err)
	}
	return n, nil
}

// ListByDispute returns all evidence for a dispute in sequence order.
func (r *Repository) ListByDispute(ctx context.Context, disputeID int64) ([]Item, error) {
	rows, err := r.pool.Query(ctx, listQuery, disputeID)
	if err != nil {
		return nil, fmt.Errorf("evidence: list: %w", err)
	}
	return scanItems(rows)
}

// ListByDisputeTx is ListByDispute inside the caller's transaction, used at
// resolution so the scored set is the committed set.
func (r *Repository) ListByDisputeTx(ctx context.Context, tx pgx.Tx, disputeID int64) ([]Item, error) {
	rows, err := tx.Query(ctx, listQuery, disputeID)
	if err != nil {
		return nil, fmt.Errorf("evidence: list: %w", err)
	}
	return scanItems(rows)
}

const listQuery = `
	SELECT dispute_id, seq, submitter_id, digest, weight, submitted_height, created_at
	FROM evidence
	WHERE dispute_id = $1
	ORDER BY seq ASC
`

func scanItems(rows pgx.Rows) ([]Item, error) {
	defer rows.Close()

	out := make([]Item, 0, 8)
	for rows.Next() {
		var item Item
		if err := rows.Scan(
			&item.DisputeID,
			&item.Seq,
			&item.SubmitterID,
			&item.Digest,
			&item.Weight,
			&item.SubmittedHeight,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("evidence: scan: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("evidence: iterate: %w", err)
	}
	return out, nil
}
