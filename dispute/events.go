package dispute

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Timeline event types appended on successful lifecycle mutations.
const (
	EventDisputeCreated    = "DISPUTE_CREATED"
	EventEvidencePhase     = "EVIDENCE_PHASE_OPENED"
	EventEvidenceSubmitted = "EVIDENCE_SUBMITTED"
	EventDisputeResolved   = "DISPUTE_RESOLVED"
)

// Outbox topics published alongside the timeline, one per lifecycle
// mutation.
const (
	TopicDisputeCreated    = "dispute.created"
	TopicEvidencePhase     = "dispute.evidence_phase"
	TopicEvidenceSubmitted = "dispute.evidence_submitted"
	TopicDisputeResolved   = "dispute.resolved"
)

// Event captures an immutable business event for a dispute.
type Event struct {
	DisputeID int64
	Seq       int
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventLog appends timeline events and enqueues outbox messages in the
// same transaction as the mutation they describe.
type EventLog struct {
	pool *pgxpool.Pool
}

// NewEventLog wires a pgxpool-backed event log.
func NewEventLog(pool *pgxpool.Pool) *EventLog {
	return &EventLog{pool: pool}
}

// AppendTx records a timeline event with the next per-dispute sequence.
func (l *EventLog) AppendTx(ctx context.Context, tx pgx.Tx, disputeID int64, eventType string, payload map[string]any) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO dispute_events (dispute_id, seq, type, payload)
		SELECT $1, COALESCE(MAX(seq), 0) + 1, $2, $3::jsonb
		FROM dispute_events
		WHERE dispute_id = $1
	`, disputeID, eventType, mustJSON(payload))
	if err != nil {
		return fmt.Errorf("dispute: append event: %w", err)
	}
	return nil
}

// EnqueueTx stages an outbox message for asynchronous publication.
func (l *EventLog) EnqueueTx(ctx context.Context, tx pgx.Tx, topic string, payload map[string]any) error {
	_, err := tx.Exec(ctx, `INSERT INTO outbox (topic, payload) VALUES ($1, $2::jsonb)`, topic, mustJSON(payload))
	if err != nil {
		return fmt.Errorf("dispute: enqueue outbox: %w", err)
	}
	return nil
}

// Timeline returns a dispute's events in sequence order.
func (l *EventLog) Timeline(ctx context.Context, disputeID int64) ([]Event, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT dispute_id, seq, type, payload, created_at
		FROM dispute_events
		WHERE dispute_id = $1
		ORDER BY seq ASC
	`, disputeID)
	if err != nil {
		return nil, fmt.Errorf("dispute: timeline: %w", err)
	}
	defer rows.Close()

	out := make([]Event, 0, 8)
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.DisputeID, &ev.Seq, &ev.Type, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("dispute: scan event: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dispute: iterate events: %w", err)
	}
	return out, nil
}

func mustJSON(m map[string]any) string {
	if m == nil {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	return string(b)
}
