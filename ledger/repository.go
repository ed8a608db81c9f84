package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrInsufficientFunds signals the debited account cannot cover the amount.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
	// ErrAccountNotFound signals the referenced account does not exist.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrInvalidAmount signals a non-positive transfer or credit amount.
	ErrInvalidAmount = errors.New("ledger: amount must be positive")
)

// Repository provides access to the hosting-ledger collaborator surface:
// account balances and the chain height counter.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed ledger repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureAccount creates the account if it does not exist yet. Idempotent.
func (r *Repository) EnsureAccount(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("ledger: empty account id")
	}
	if _, err := r.pool.Exec(ctx, `INSERT INTO accounts (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id); err != nil {
		return fmt.Errorf("ledger: ensure account: %w", err)
	}
	return nil
}

// Balance returns the current balance of the account.
func (r *Repository) Balance(ctx context.Context, id string) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1`, id).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, fmt.Errorf("ledger: query balance: %w", err)
	}
	return balance, nil
}

// Credit adds funds to an account. Used by the bootstrap faucet and tests;
// value otherwise only enters accounts through the hosting chain.
func (r *Repository) Credit(ctx context.Context, id string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	tag, err := r.pool.Exec(ctx, `UPDATE accounts SET balance = balance + $2 WHERE id = $1`, id, amount)
	if err != nil {
		return fmt.Errorf("ledger: credit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// TransferTx moves amount from one account to another inside the caller's
// transaction. The debit and credit commit or roll back with the enclosing
// operation.
func (r *Repository) TransferTx(ctx context.Context, tx pgx.Tx, from, to string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	tag, err := tx.Exec(ctx, `
		UPDATE accounts
		SET balance = balance - $2
		WHERE id = $1 AND balance >= $2
	`, from, amount)
	if err != nil {
		return fmt.Errorf("ledger: debit %s: %w", from, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, from).Scan(&exists); err != nil {
			return fmt.Errorf("ledger: verify account %s: %w", from, err)
		}
		if !exists {
			return ErrAccountNotFound
		}
		return ErrInsufficientFunds
	}

	tag, err = tx.Exec(ctx, `UPDATE accounts SET balance = balance + $2 WHERE id = $1`, to, amount)
	if err != nil {
		return fmt.Errorf("ledger: credit %s: %w", to, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// CurrentHeight reads the chain height counter.
func (r *Repository) CurrentHeight(ctx context.Context) (int64, error) {
	var height int64
	if err := r.pool.QueryRow(ctx, `SELECT height FROM chain`).Scan(&height); err != nil {
		return 0, fmt.Errorf("ledger: query height: %w", err)
	}
	return height, nil
}

// CurrentHeightTx reads the chain height inside the caller's transaction so
// height stamps are consistent with the rest of the operation.
func (r *Repository) CurrentHeightTx(ctx context.Context, tx pgx.Tx) (int64, error) {
	var height int64
	if err := tx.QueryRow(ctx, `SELECT height FROM chain`).Scan(&height); err != nil {
		return 0, fmt.Errorf("ledger: query height: %w", err)
	}
	return height, nil
}

// AdvanceHeight moves the chain height forward by delta blocks and returns
// the new height. The engine never calls this itself; block production
// belongs to the hosting chain.
func (r *Repository) AdvanceHeight(ctx context.Context, delta int64) (int64, error) {
	if delta <= 0 {
		return 0, fmt.Errorf("ledger: height delta must be positive")
	}
	var height int64
	err := r.pool.QueryRow(ctx, `UPDATE chain SET height = height + $1 RETURNING height`, delta).Scan(&height)
	if err != nil {
		return 0, fmt.Errorf("ledger: advance height: %w", err)
	}
	return height, nil
}
