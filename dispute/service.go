package dispute

import (
	"context"
	"fmt"

	"arbiterflow/arbiter"
	"arbiterflow/evidence"
	"arbiterflow/prediction"

	"github.com/jackc/pgx/v5"
)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store defines the dispute-row access required by the service.
type Store interface {
	NextIDTx(ctx context.Context, tx pgx.Tx) (int64, error)
	InsertTx(ctx context.Context, tx pgx.Tx, rec *Record) error
	Get(ctx context.Context, id int64) (Record, error)
	GetForUpdateTx(ctx context.Context, tx pgx.Tx, id int64) (Record, error)
	ListByParty(ctx context.Context, partyID string) ([]Record, error)
	SetStatusTx(ctx context.Context, tx pgx.Tx, id int64, status Status) error
	IncrementEvidenceTx(ctx context.Context, tx pgx.Tx, id int64) (int, error)
	MarkResolvedTx(ctx context.Context, tx pgx.Tx, id int64, upd ResolutionUpdate) error
}

// EvidenceStore is the slice of the evidence registry the service drives.
type EvidenceStore interface {
	AppendTx(ctx context.Context, tx pgx.Tx, item evidence.Item) error
	ListByDispute(ctx context.Context, disputeID int64) ([]evidence.Item, error)
	ListByDisputeTx(ctx context.Context, tx pgx.Tx, disputeID int64) ([]evidence.Item, error)
}

// EscrowStore locks and releases the value held per dispute.
type EscrowStore interface {
	Custody() string
	LockTx(ctx context.Context, tx pgx.Tx, disputeID int64, amount int64) error
	ReleaseTx(ctx context.Context, tx pgx.Tx, disputeID int64, recipient string) (int64, error)
}

// Funds moves value between accounts inside the enclosing transaction.
type Funds interface {
	TransferTx(ctx context.Context, tx pgx.Tx, from, to string, amount int64) error
}

// Chain reads the hosting ledger's height counter.
type Chain interface {
	CurrentHeight(ctx context.Context) (int64, error)
	CurrentHeightTx(ctx context.Context, tx pgx.Tx) (int64, error)
}

// ArbiterFlags reads and writes arbitrator registrations.
type ArbiterFlags interface {
	Register(ctx context.Context, id string) error
	IsArbitratorTx(ctx context.Context, tx pgx.Tx, id string) (bool, error)
}

// EventSink captures timeline and outbox writes within the mutation's
// transaction. Optional; a nil sink disables event capture.
type EventSink interface {
	AppendTx(ctx context.Context, tx pgx.Tx, disputeID int64, eventType string, payload map[string]any) error
	EnqueueTx(ctx context.Context, tx pgx.Tx, topic string, payload map[string]any) error
}

// Recorder counts engine operations for observability. Optional.
type Recorder interface {
	DisputeCreated()
	EvidenceSubmitted()
	DisputeResolved(released int64)
}

// Service is the dispute lifecycle manager. Every mutation runs as one
// transaction: eligibility checks, effects, escrow movement and event
// capture commit together or not at all.
type Service struct {
	pool     TxBeginner
	repo     Store
	evidence EvidenceStore
	escrow   EscrowStore
	funds    Funds
	chain    Chain
	arbiters ArbiterFlags
	policy   arbiter.Policy
	events   EventSink
	metrics  Recorder
}

// NewService wires the lifecycle manager.
func NewService(pool TxBeginner, repo Store, ev EvidenceStore, esc EscrowStore, funds Funds, chain Chain, arbiters ArbiterFlags, policy arbiter.Policy) *Service {
	return &Service{
		pool:     pool,
		repo:     repo,
		evidence: ev,
		escrow:   esc,
		funds:    funds,
		chain:    chain,
		arbiters: arbiters,
		policy:   policy,
	}
}

// WithEvents enables transactional timeline/outbox capture.
func (s *Service) WithEvents(sink EventSink) *Service {
	s.events = sink
	return s
}

// WithMetrics enables operation counters.
func (s *Service) WithMetrics(m Recorder) *Service {
	s.metrics = m
	return s
}

// Create escrows amount from the caller and opens a new dispute against
// defendant. The funding transfer, id allocation, dispute row and escrow
// entry commit atomically; a failed transfer leaves no dispute behind.
func (s *Service) Create(ctx context.Context, caller, defendant string, amount int64) (Record, error) {
	if defendant == "" {
		return Record{}, fmt.Errorf("dispute: defendant required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("dispute: begin create: %w", err)
	}
	defer tx.Rollback(ctx)

	height, err := s.chain.CurrentHeightTx(ctx, tx)
	if err != nil {
		return Record{}, err
	}

	if err := s.funds.TransferTx(ctx, tx, caller, s.escrow.Custody(), amount); err != nil {
		return Record{}, err
	}

	id, err := s.repo.NextIDTx(ctx, tx)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:            id,
		PlaintiffID:   caller,
		DefendantID:   defendant,
		Amount:        amount,
		Status:        StatusOpen,
		CreatedHeight: height,
	}
	if err := s.repo.InsertTx(ctx, tx, &rec); err != nil {
		return Record{}, err
	}

	if err := s.escrow.LockTx(ctx, tx, id, amount); err != nil {
		return Record{}, err
	}

	if s.events != nil {
		payload := map[string]any{
			"plaintiff_id": caller,
			"defendant_id": defendant,
			"amount":       amount,
			"height":       height,
		}
		if err := s.events.AppendTx(ctx, tx, id, EventDisputeCreated, payload); err != nil {
			return Record{}, err
		}
		payload["dispute_id"] = id
		if err := s.events.EnqueueTx(ctx, tx, TopicDisputeCreated, payload); err != nil {
			return Record{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Record{}, fmt.Errorf("dispute: commit create: %w", err)
	}

	if s.metrics != nil {
		s.metrics.DisputeCreated()
	}
	return rec, nil
}

// OpenEvidencePhase moves a dispute from open to evidence. Only the
// plaintiff or defendant may do this.
func (s *Service) OpenEvidencePhase(ctx context.Context, caller string, id int64) (Record, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("dispute: begin evidence phase: %w", err)
	}
	defer tx.Rollback(ctx)

	rec, err := s.repo.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		return Record{}, err
	}
	if !rec.Party(caller) {
		return Record{}, ErrUnauthorized
	}
	if rec.Status != StatusOpen {
		return Record{}, ErrInvalidState
	}

	if err := s.repo.SetStatusTx(ctx, tx, id, StatusEvidence); err != nil {
		return Record{}, err
	}

	if s.events != nil {
		payload := map[string]any{"actor_id": caller}
		if err := s.events.AppendTx(ctx, tx, id, EventEvidencePhase, payload); err != nil {
			return Record{}, err
		}
		payload["dispute_id"] = id
		if err := s.events.EnqueueTx(ctx, tx, TopicEvidencePhase, payload); err != nil {
			return Record{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Record{}, fmt.Errorf("dispute: commit evidence phase: %w", err)
	}

	rec.Status = StatusEvidence
	return rec, nil
}

// SubmitEvidence appends a weighted item for the caller and returns its
// 1-based sequence within the dispute.
func (s *Service) SubmitEvidence(ctx context.Context, caller string, id int64, digest []byte, weight int) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("dispute: begin submit: %w", err)
	}
	defer tx.Rollback(ctx)

	rec, err := s.repo.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		return 0, err
	}
	if !rec.Party(caller) {
		return 0, ErrUnauthorized
	}
	if rec.Status != StatusEvidence {
		return 0, ErrInvalidState
	}
	if err := evidence.Validate(digest, weight); err != nil {
		return 0, err
	}

	height, err := s.chain.CurrentHeightTx(ctx, tx)
	if err != nil {
		return 0, err
	}

	seq := rec.EvidenceCount + 1
	item := evidence.Item{
		DisputeID:       id,
		Seq:             seq,
		SubmitterID:     caller,
		Digest:          digest,
		Weight:          weight,
		SubmittedHeight: height,
	}
	if err := s.evidence.AppendTx(ctx, tx, item); err != nil {
		return 0, err
	}

	count, err := s.repo.IncrementEvidenceTx(ctx, tx, id)
	if err != nil {
		return 0, err
	}
	if count != seq {
		return 0, fmt.Errorf("dispute: evidence counter drift: have %d, want %d", count, seq)
	}

	if s.events != nil {
		payload := map[string]any{"submitter_id": caller, "seq": seq, "weight": weight}
		if err := s.events.AppendTx(ctx, tx, id, EventEvidenceSubmitted, payload); err != nil {
			return 0, err
		}
		payload["dispute_id"] = id
		if err := s.events.EnqueueTx(ctx, tx, TopicEvidenceSubmitted, payload); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("dispute: commit submit: %w", err)
	}

	if s.metrics != nil {
		s.metrics.EvidenceSubmitted()
	}
	return seq, nil
}

// Resolve runs the basic prediction model, pays the full escrow to the
// predicted winner and closes the dispute. Escrow release and the state
// transition commit together; a failed payout rolls everything back.
// Caller must be a registered arbitrator.
func (s *Service) Resolve(ctx context.Context, caller string, id int64) (Resolution, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Resolution{}, fmt.Errorf("dispute: begin resolve: %w", err)
	}
	defer tx.Rollback(ctx)

	rec, err := s.repo.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		return Resolution{}, err
	}
	if rec.Status != StatusEvidence {
		return Resolution{}, ErrInvalidState
	}

	isArbitrator, err := s.arbiters.IsArbitratorTx(ctx, tx, caller)
	if err != nil {
		return Resolution{}, err
	}
	if err := s.policy.Check(caller, arbiter.CapabilityResolveDisputes, isArbitrator); err != nil {
		return Resolution{}, ErrUnauthorized
	}

	items, err := s.evidence.ListByDisputeTx(ctx, tx, id)
	if err != nil {
		return Resolution{}, err
	}

	verdict := prediction.Basic(caseOf(rec), items)
	if verdict.Confidence < 0 || verdict.Confidence > 100 {
		return Resolution{}, fmt.Errorf("dispute: resolve %d: %w", id, prediction.ErrPredictionFailure)
	}

	winner := rec.DefendantID
	if verdict.PlaintiffWins {
		winner = rec.PlaintiffID
	}

	released, err := s.escrow.ReleaseTx(ctx, tx, id, winner)
	if err != nil {
		return Resolution{}, err
	}

	height, err := s.chain.CurrentHeightTx(ctx, tx)
	if err != nil {
		return Resolution{}, err
	}

	upd := ResolutionUpdate{
		ResolvedHeight: height,
		Outcome:        verdict.PlaintiffWins,
		Confidence:     verdict.Confidence,
		AppealDeadline: height + AppealWindow,
	}
	if err := s.repo.MarkResolvedTx(ctx, tx, id, upd); err != nil {
		return Resolution{}, err
	}

	if s.events != nil {
		payload := map[string]any{
			"arbitrator_id": caller,
			"winner_id":     winner,
			"confidence":    verdict.Confidence,
			"amount":        released,
			"height":        height,
		}
		if err := s.events.AppendTx(ctx, tx, id, EventDisputeResolved, payload); err != nil {
			return Resolution{}, err
		}
		payload["dispute_id"] = id
		if err := s.events.EnqueueTx(ctx, tx, TopicDisputeResolved, payload); err != nil {
			return Resolution{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Resolution{}, fmt.Errorf("dispute: commit resolve: %w", err)
	}

	rec.Status = StatusResolved
	rec.ResolvedHeight = &upd.ResolvedHeight
	rec.Outcome = &upd.Outcome
	rec.Confidence = &upd.Confidence
	rec.AppealDeadline = &upd.AppealDeadline

	if s.metrics != nil {
		s.metrics.DisputeResolved(released)
	}
	return Resolution{
		Record:     rec,
		WinnerID:   winner,
		Amount:     released,
		Confidence: verdict.Confidence,
	}, nil
}

// RegisterArbitrator marks an identity as authorized to resolve disputes.
// Owner-only, idempotent.
func (s *Service) RegisterArbitrator(ctx context.Context, caller, arbitratorID string) error {
	if err := s.policy.Check(caller, arbiter.CapabilityRegisterArbitrators, false); err != nil {
		return err
	}
	return s.arbiters.Register(ctx, arbitratorID)
}

// AdvancedPrediction computes the read-only multi-factor report for a
// dispute at the current chain height.
func (s *Service) AdvancedPrediction(ctx context.Context, id int64) (prediction.Report, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return prediction.Report{}, err
	}
	height, err := s.chain.CurrentHeight(ctx)
	if err != nil {
		return prediction.Report{}, err
	}
	return prediction.Advanced(caseOf(rec), height), nil
}

// Get returns a dispute by id.
func (s *Service) Get(ctx context.Context, id int64) (Record, error) {
	return s.repo.Get(ctx, id)
}

// ListByParty returns the caller's disputes, newest first.
func (s *Service) ListByParty(ctx context.Context, partyID string) ([]Record, error) {
	return s.repo.ListByParty(ctx, partyID)
}

// Evidence returns a dispute's evidence in sequence order.
func (s *Service) Evidence(ctx context.Context, id int64) ([]evidence.Item, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.evidence.ListByDispute(ctx, id)
}

func caseOf(rec Record) prediction.Case {
	return prediction.Case{
		PlaintiffID:   rec.PlaintiffID,
		DefendantID:   rec.DefendantID,
		Amount:        rec.Amount,
		CreatedHeight: rec.CreatedHeight,
		EvidenceCount: rec.EvidenceCount,
	}
}
