package dispute

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound signals the referenced dispute does not exist.
	ErrNotFound = errors.New("dispute: not found")
	// ErrUnauthorized signals the caller is neither a party nor holds the
	// capability the action requires.
	ErrUnauthorized = errors.New("dispute: unauthorized")
	// ErrInvalidState signals the action was attempted outside its required
	// lifecycle state.
	ErrInvalidState = errors.New("dispute: invalid state for operation")
)

const recordColumns = `
	id, plaintiff_id, defendant_id, amount, status::text,
	created_height, resolved_height, outcome, confidence,
	evidence_count, appeal_deadline, created_at, updated_at
`

// Repository stores dispute rows and owns the global dispute-id counter.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// NextIDTx allocates the next dispute id inside the caller's transaction.
// A rolled-back creation releases the id with it, so successful ids stay
// strictly sequential.
func (r *Repository) NextIDTx(ctx context.Context, tx pgx.Tx) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `UPDATE counters SET value = value + 1 WHERE name = 'dispute_id' RETURNING value`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("dispute: next id: %w", err)
	}
	return id, nil
}

// InsertTx stores a freshly created dispute and fills its timestamps.
func (r *Repository) InsertTx(ctx context.Context, tx pgx.Tx, rec *Record) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO disputes (id, plaintiff_id, defendant_id, amount, status, created_height)
		VALUES ($1, $2, $3, $4, $5::dispute_status, $6)
		RETURNING created_at, updated_at
	`, rec.ID, rec.PlaintiffID, rec.DefendantID, rec.Amount, rec.Status, rec.CreatedHeight).
		Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("dispute: insert: %w", err)
	}
	return nil
}

// Get fetches a dispute by id.
func (r *Repository) Get(ctx context.Context, id int64) (Record, error) {
	query := `SELECT ` + recordColumns + ` FROM disputes WHERE id = $1`
	return scanRecord(r.pool.QueryRow(ctx, query, id))
}

// GetForUpdateTx fetches a dispute and locks its row so the eligibility
// checks and the effects that follow commit as one step.
func (r *Repository) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id int64) (Record, error) {
	query := `SELECT ` + recordColumns + ` FROM disputes WHERE id = $1 FOR UPDATE`
	return scanRecord(tx.QueryRow(ctx, query, id))
}

// ListByParty returns disputes where id is plaintiff or defendant, newest
// first.
func (r *Repository) ListByParty(ctx context.Context, partyID string) ([]Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM disputes
		WHERE plaintiff_id = $1 OR defendant_id = $1
		ORDER BY id DESC
	`
	rows, err := r.pool.Query(ctx, query, partyID)
	if err != nil {
		return nil, fmt.Errorf("dispute: list: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0, 8)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dispute: iterate: %w", err)
	}
	return out, nil
}

// SetStatusTx moves the dispute to the given status.
func (r *Repository) SetStatusTx(ctx context.Context, tx pgx.Tx, id int64, status Status) error {
	tag, err := tx.Exec(ctx, `
		UPDATE disputes SET status = $2::dispute_status, updated_at = NOW() WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("dispute: set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementEvidenceTx bumps the evidence counter and returns the new count,
// which is also the sequence just assigned.
func (r *Repository) IncrementEvidenceTx(ctx context.Context, tx pgx.Tx, id int64) (int, error) {
	var count int
	err := tx.QueryRow(ctx, `
		UPDATE disputes SET evidence_count = evidence_count + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING evidence_count
	`, id).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("dispute: increment evidence count: %w", err)
	}
	return count, nil
}

// ResolutionUpdate carries the write-once resolution fields.
type ResolutionUpdate struct {
	ResolvedHeight int64
	Outcome        bool
	Confidence     int
	AppealDeadline int64
}

// MarkResolvedTx records the outcome and moves the dispute to resolved. The
// status guard keeps outcome and confidence write-once even under a retried
// transaction.
func (r *Repository) MarkResolvedTx(ctx context.Context, tx pgx.Tx, id int64, upd ResolutionUpdate) error {
	tag, err := tx.Exec(ctx, `
		UPDATE disputes
		SET status = 'resolved',
		    resolved_height = $2,
		    outcome = $3,
		    confidence = $4,
		    appeal_deadline = $5,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'evidence'
	`, id, upd.ResolvedHeight, upd.Outcome, upd.Confidence, upd.AppealDeadline)
	if err != nil {
		return fmt.Errorf("dispute: mark resolved: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID,
		&rec.PlaintiffID,
		&rec.DefendantID,
		&rec.Amount,
		&rec.Status,
		&rec.CreatedHeight,
		&rec.ResolvedHeight,
		&rec.Outcome,
		&rec.Confidence,
		&rec.EvidenceCount,
		&rec.AppealDeadline,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("dispute: scan: %w", err)
	}
	return rec, nil
}
