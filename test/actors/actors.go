package actors

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"arbiterflow/dispute"
	"arbiterflow/evidence"
	"arbiterflow/ledger"
)

// Filer opens disputes against the defendant and immediately moves them to
// the evidence phase. Runs until the account drains, then idles waiting for
// escrow to flow back through resolutions.
func Filer(ctx context.Context, svc *dispute.Service, plaintiff, defendant string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		amount := int64(1 + rand.Intn(500))
		rec, err := svc.Create(ctx, plaintiff, defendant, amount)
		switch {
		case err == nil:
			if _, err := svc.OpenEvidencePhase(ctx, plaintiff, rec.ID); err != nil && !tolerable(err) {
				return fmt.Errorf("filer open evidence phase: %w", err)
			}
		case errors.Is(err, ledger.ErrInsufficientFunds):
			// broke until a resolution pays out
		case tolerable(err):
		default:
			return fmt.Errorf("filer create: %w", err)
		}
		time.Sleep(time.Duration(10+rand.Intn(30)) * time.Millisecond)
	}
}

// Submitter picks a random dispute in the evidence phase and appends an item
// as one of its parties. State races with the arbitrator are expected.
func Submitter(ctx context.Context, pool *pgxpool.Pool, svc *dispute.Service, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		var (
			id                   int64
			plaintiff, defendant string
		)
		err := pool.QueryRow(ctx, `
			SELECT id, plaintiff_id, defendant_id FROM disputes
			WHERE status = 'evidence' ORDER BY random() LIMIT 1
		`).Scan(&id, &plaintiff, &defendant)
		if err == nil {
			submitter := plaintiff
			if rand.Intn(2) == 0 {
				submitter = defendant
			}
			digest := sha256.Sum256([]byte(fmt.Sprintf("exhibit-%d-%d", id, rand.Int63())))
			weight := evidence.MinWeight + rand.Intn(evidence.MaxWeight-evidence.MinWeight+1)
			if _, err := svc.SubmitEvidence(ctx, submitter, id, digest[:], weight); err != nil && !tolerable(err) {
				return fmt.Errorf("submitter: %w", err)
			}
		} else if !errors.Is(err, pgx.ErrNoRows) && ctx.Err() == nil {
			return fmt.Errorf("submitter pick: %w", err)
		}
		time.Sleep(time.Duration(15+rand.Intn(35)) * time.Millisecond)
	}
}

// Arbitrator resolves random disputes in the evidence phase. Losing the race
// to another arbitrator surfaces as an invalid-state error and is fine.
func Arbitrator(ctx context.Context, pool *pgxpool.Pool, svc *dispute.Service, arbitratorID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		var id int64
		err := pool.QueryRow(ctx, `
			SELECT id FROM disputes WHERE status = 'evidence' ORDER BY random() LIMIT 1
		`).Scan(&id)
		if err == nil {
			if _, err := svc.Resolve(ctx, arbitratorID, id); err != nil && !tolerable(err) {
				return fmt.Errorf("arbitrator resolve: %w", err)
			}
		} else if !errors.Is(err, pgx.ErrNoRows) && ctx.Err() == nil {
			return fmt.Errorf("arbitrator pick: %w", err)
		}
		time.Sleep(time.Duration(40+rand.Intn(60)) * time.Millisecond)
	}
}

// BlockProducer stands in for the hosting chain and ticks the height counter
// so height stamps, deadlines and the decay factors keep moving.
func BlockProducer(ctx context.Context, chain *ledger.Repository, stop <-chan struct{}) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		case <-ticker.C:
			if _, err := chain.AdvanceHeight(ctx, 1); err != nil && ctx.Err() == nil {
				return fmt.Errorf("block producer: %w", err)
			}
		}
	}
}

// OutboxWorker drains pending outbox messages with SKIP LOCKED, marking them
// processed. A slice of deliveries randomly fails to exercise the retry
// counter.
func OutboxWorker(ctx context.Context, pool *pgxpool.Pool, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			time.Sleep(50 * time.Millisecond)
			continue
		}
		rows, err := tx.Query(ctx, `
			SELECT id FROM outbox WHERE status = 'pending'
			ORDER BY created_at FOR UPDATE SKIP LOCKED LIMIT 10
		`)
		if err != nil {
			_ = tx.Rollback(ctx)
			time.Sleep(50 * time.Millisecond)
			continue
		}
		ids := make([]string, 0, 10)
		for rows.Next() {
			var id string
			_ = rows.Scan(&id)
			ids = append(ids, id)
		}
		rows.Close()
		for _, id := range ids {
			if rand.Intn(10) == 0 {
				_, _ = tx.Exec(ctx, `UPDATE outbox SET attempts = attempts + 1, last_attempt = NOW() WHERE id = $1`, id)
				continue
			}
			_, _ = tx.Exec(ctx, `UPDATE outbox SET status = 'processed', last_attempt = NOW() WHERE id = $1`, id)
		}
		_ = tx.Commit(ctx)
		time.Sleep(100 * time.Millisecond)
	}
}

// tolerable reports whether the error is an expected loss of a state or
// authorization race under concurrency, not an engine defect.
func tolerable(err error) bool {
	return errors.Is(err, dispute.ErrInvalidState) ||
		errors.Is(err, dispute.ErrNotFound) ||
		errors.Is(err, dispute.ErrUnauthorized) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
