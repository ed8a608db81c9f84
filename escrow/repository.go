package escrow

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAlreadyLocked signals a second lock attempt for the same dispute.
var ErrAlreadyLocked = errors.New("escrow: entry already exists")

// Transferrer moves value between accounts inside the caller's transaction.
type Transferrer interface {
	TransferTx(ctx context.Context, tx pgx.Tx, from, to string, amount int64) error
}

// Repository tracks value locked per dispute in the engine's custody account.
type Repository struct {
	pool    *pgxpool.Pool
	funds   Transferrer
	custody string
}

// NewRepository wires an escrow repository. custody is the engine account
// that holds locked value between creation and resolution.
func NewRepository(pool *pgxpool.Pool, funds Transferrer, custody string) *Repository {
	return &Repository{pool: pool, funds: funds, custody: custody}
}

// Custody returns the custody account identifier.
func (r *Repository) Custody() string { return r.custody }

// LockTx records the escrow entry for a dispute. The caller has already
// moved the funds into custody within the same transaction.
func (r *Repository) LockTx(ctx context.Context, tx pgx.Tx, disputeID int64, amount int64) error {
	tag, err := tx.Exec(ctx, `
		INSERT INTO escrow (dispute_id, amount)
		VALUES ($1, $2)
		ON CONFLICT (dispute_id) DO NOTHING
	`, disputeID, amount)
	if err != nil {
		return fmt.Errorf("escrow: lock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyLocked
	}
	return nil
}

// ReleaseTx removes the escrow entry and transfers its full amount from
// custody to the recipient as one step inside the caller's transaction.
// A missing entry releases zero and is a silent no-op, so a retried
// release cannot double-pay.
func (r *Repository) ReleaseTx(ctx context.Context, tx pgx.Tx, disputeID int64, recipient string) (int64, error) {
	var amount int64
	err := tx.QueryRow(ctx, `DELETE FROM escrow WHERE dispute_id = $1 RETURNING amount`, disputeID).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("escrow: release: %w", err)
	}

	if err := r.funds.TransferTx(ctx, tx, r.custody, recipient, amount); err != nil {
		return 0, fmt.Errorf("escrow: payout dispute %d: %w", disputeID, err)
	}
	return amount, nil
}

// Amount returns the locked amount for a dispute, zero when no entry exists.
func (r *Repository) Amount(ctx context.Context, disputeID int64) (int64, error) {
	var amount int64
	err := r.pool.QueryRow(ctx, `SELECT amount FROM escrow WHERE dispute_id = $1`, disputeID).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("escrow: query amount: %w", err)
	}
	return amount, nil
}
