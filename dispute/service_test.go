package dispute

import (
	"context"
	"errors"
	"testing"

	"arbiterflow/arbiter"
	"arbiterflow/evidence"
	"arbiterflow/ledger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func newTestService(pool *fakePool, repo *fakeStore, ev *fakeEvidence, esc *fakeEscrow, funds *fakeFunds, chain *fakeChain, flags *fakeArbiters) *Service {
	return NewService(pool, repo, ev, esc, funds, chain, flags, arbiter.NewPolicy("owner"))
}

func TestCreate_EscrowsAndCommits(t *testing.T) {
	pool := &fakePool{}
	repo := &fakeStore{nextID: 41}
	esc := &fakeEscrow{custody: "vault"}
	funds := &fakeFunds{}
	chain := &fakeChain{height: 900}
	svc := newTestService(pool, repo, &fakeEvidence{}, esc, funds, chain, &fakeArbiters{})

	rec, err := svc.Create(context.Background(), "alice", "bob", 5000)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if rec.ID != 42 {
		t.Errorf("expected id 42, got %d", rec.ID)
	}
	if rec.Status != StatusOpen {
		t.Errorf("expected status open, got %q", rec.Status)
	}
	if rec.CreatedHeight != 900 {
		t.Errorf("expected created height 900, got %d", rec.CreatedHeight)
	}
	if len(funds.transfers) != 1 {
		t.Fatalf("expected one transfer, got %d", len(funds.transfers))
	}
	tr := funds.transfers[0]
	if tr.from != "alice" || tr.to != "vault" || tr.amount != 5000 {
		t.Errorf("unexpected transfer %+v", tr)
	}
	if esc.locked[42] != 5000 {
		t.Errorf("expected escrow lock of 5000 for dispute 42, got %d", esc.locked[42])
	}
	if !pool.tx.committed {
		t.Error("expected transaction commit")
	}
}

func TestCreate_SequentialIDs(t *testing.T) {
	pool := &fakePool{}
	repo := &fakeStore{}
	svc := newTestService(pool, repo, &fakeEvidence{}, &fakeEscrow{custody: "vault"}, &fakeFunds{}, &fakeChain{}, &fakeArbiters{})

	for want := int64(1); want <= 3; want++ {
		rec, err := svc.Create(context.Background(), "alice", "bob", 10)
		if err != nil {
			t.Fatalf("Create %d: %v", want, err)
		}
		if rec.ID != want {
			t.Fatalf("expected id %d, got %d", want, rec.ID)
		}
	}
}

func TestCreate_InsufficientFundsLeavesNoDispute(t *testing.T) {
	pool := &fakePool{}
	repo := &fakeStore{}
	funds := &fakeFunds{err: ledger.ErrInsufficientFunds}
	svc := newTestService(pool, repo, &fakeEvidence{}, &fakeEscrow{custody: "vault"}, funds, &fakeChain{}, &fakeArbiters{})

	_, err := svc.Create(context.Background(), "alice", "bob", 5000)
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	if repo.inserted != nil {
		t.Error("expected no dispute row after failed funding")
	}
	if pool.tx.committed {
		t.Error("expected transaction rollback")
	}
	if !pool.tx.rolled {
		t.Error("expected rollback to be called")
	}
}

func TestCreate_RequiresDefendant(t *testing.T) {
	pool := &fakePool{}
	svc := newTestService(pool, &fakeStore{}, &fakeEvidence{}, &fakeEscrow{}, &fakeFunds{}, &fakeChain{}, &fakeArbiters{})

	if _, err := svc.Create(context.Background(), "alice", "", 100); err == nil {
		t.Fatal("expected error for empty defendant")
	}
	if pool.tx != nil {
		t.Error("expected no transaction for rejected input")
	}
}

func TestOpenEvidencePhase(t *testing.T) {
	base := Record{ID: 7, PlaintiffID: "alice", DefendantID: "bob", Amount: 100, Status: StatusOpen}

	t.Run("party moves open to evidence", func(t *testing.T) {
		pool := &fakePool{}
		repo := &fakeStore{rec: base}
		svc := newTestService(pool, repo, &fakeEvidence{}, &fakeEscrow{}, &fakeFunds{}, &fakeChain{}, &fakeArbiters{})

		rec, err := svc.OpenEvidencePhase(context.Background(), "bob", 7)
		if err != nil {
			t.Fatalf("OpenEvidencePhase: %v", err)
		}
		if rec.Status != StatusEvidence {
			t.Errorf("expected status evidence, got %q", rec.Status)
		}
		if repo.setStatus != StatusEvidence {
			t.Errorf("expected status write, got %q", repo.setStatus)
		}
		if !pool.tx.committed {
			t.Error("expected commit")
		}
	})

	t.Run("outsider rejected", func(t *testing.T) {
		repo := &fakeStore{rec: base}
		svc := newTestService(&fakePool{}, repo, &fakeEvidence{}, &fakeEscrow{}, &fakeFunds{}, &fakeChain{}, &fakeArbiters{})

		if _, err := svc.OpenEvidencePhase(context.Background(), "mallory", 7); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("already in evidence rejected", func(t *testing.T) {
		rec := base
		rec.Status = StatusEvidence
		repo := &fakeStore{rec: rec}
		svc := newTestService(&fakePool{}, repo, &fakeEvidence{}, &fakeEscrow{}, &fakeFunds{}, &fakeChain{}, &fakeArbiters{})

		if _, err := svc.OpenEvidencePhase(context.Background(), "alice", 7); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("missing dispute", func(t *testing.T) {
		repo := &fakeStore{getErr: ErrNotFound}
		svc := newTestService(&fakePool{}, repo, &fakeEvidence{}, &fakeEscrow{}, &fakeFunds{}, &fakeChain{}, &fakeArbiters{})

		if _, err := svc.OpenEvidencePhase(context.Background(), "alice", 7); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSubmitEvidence(t *testing.T) {
	digest := make([]byte, evidence.DigestSize)
	base := Record{ID: 3, PlaintiffID: "alice", DefendantID: "bob", Amount: 100, Status: StatusEvidence, EvidenceCount: 2}

	t.Run("appends with next sequence", func(t *testing.T) {
		pool := &fakePool{}
		repo := &fakeStore{rec: base}
		ev := &fakeEvidence{}
		chain := &fakeChain{height: 120}
		svc := newTestService(pool, repo, ev, &fakeEscrow{}, &fakeFunds{}, chain, &fakeArbiters{})

		seq, err := svc.SubmitEvidence(context.Background(), "bob", 3, digest, 8)
		if err != nil {
			t.Fatalf("SubmitEvidence: %v", err)
		}
		if seq != 3 {
			t.Errorf("expected seq 3, got %d", seq)
		}
		if len(ev.items) != 1 {
			t.Fatalf("expected one appended item, got %d", len(ev.items))
		}
		item := ev.items[0]
		if item.Seq != 3 || item.SubmitterID != "bob" || item.Weight != 8 || item.SubmittedHeight != 120 {
			t.Errorf("unexpected item %+v", item)
		}
		if !pool.tx.committed {
			t.Error("expected commit")
		}
	})

	t.Run("invalid weight rejected", func(t *testing.T) {
		pool := &fakePool{}
		ev := &fakeEvidence{}
		svc := newTestService(pool, &fakeStore{rec: base}, ev, &fakeEscrow{}, &fakeFunds{}, &fakeChain{}, &fakeArbiters{})

		if _, err := svc.SubmitEvidence(context.Background(), "alice", 3, digest, 11); !errors.Is(err, evidence.ErrInvalidWeight) {
			t.Fatalf("expected ErrInvalidWeight, got %v", err)
		}
		if len(ev.items) != 0 {
			t.Error("expected no appended item")
		}
		if pool.tx.committed {
			t.Error("expected rollback")
		}
	})

	t.Run("missing dispute outranks bad weight", func(t *testing.T) {
		svc := newTestService(&fakePool{}, &fakeStore{getErr: ErrNotFound}, &fakeEvidence{}, &fakeEscrow{}, &fakeFunds{}, &fakeChain{}, &fakeArbiters{})

		if _, err := svc.SubmitEvidence(context.Background(), "alice", 3, digest, 11); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("outsider outranks bad weight", func(t *testing.T) {
		svc := newTestService(&fakePool{}, &fakeStore{rec: base}, &fakeEvidence{}, &fakeEscrow{}, &fakeFunds{}, &fakeChain{}, &fakeArbiters{})

		if _, err := svc.SubmitEvidence(context.Background(), "mallory", 3, digest, 11); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("wrong phase outranks bad weight", func(t *testing.T) {
		rec := base
		rec.Status = StatusOpen
		svc := newTestService(&fakePool{}, &fakeStore{rec: rec}, &fakeEvidence{}, &fakeEscrow{}, &fakeFunds{}, &fakeChain{}, &fakeArbiters{})

		if _, err := svc.SubmitEvidence(context.Background(), "alice", 3, digest, 11); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("outsider rejected", func(t *testing.T) {
		svc := newTestService(&fakePool{}, &fakeStore{rec: base}, &fakeEvidence{}, &fakeEscrow{}, &fakeFunds{}, &fakeChain{}, &fakeArbiters{})

		if _, err := svc.SubmitEvidence(context.Background(), "mallory", 3, digest, 5); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("open dispute rejected", func(t *testing.T) {
		rec := base
		rec.Status = StatusOpen
		svc := newTestService(&fakePool{}, &fakeStore{rec: rec}, &fakeEvidence{}, &fakeEscrow{}, &fakeFunds{}, &fakeChain{}, &fakeArbiters{})

		if _, err := svc.SubmitEvidence(context.Background(), "alice", 3, digest, 5); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("resolved dispute rejected", func(t *testing.T) {
		rec := base
		rec.Status = StatusResolved
		svc := newTestService(&fakePool{}, &fakeStore{rec: rec}, &fakeEvidence{}, &fakeEscrow{}, &fakeFunds{}, &fakeChain{}, &fakeArbiters{})

		if _, err := svc.SubmitEvidence(context.Background(), "alice", 3, digest, 5); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})
}

func TestResolve(t *testing.T) {
	base := Record{ID: 9, PlaintiffID: "alice", DefendantID: "bob", Amount: 700, Status: StatusEvidence}

	t.Run("zero evidence pays plaintiff at half confidence", func(t *testing.T) {
		pool := &fakePool{}
		repo := &fakeStore{rec: base}
		esc := &fakeEscrow{custody: "vault", held: map[int64]int64{9: 700}}
		chain := &fakeChain{height: 1500}
		flags := &fakeArbiters{set: map[string]bool{"judge": true}}
		svc := newTestService(pool, repo, &fakeEvidence{}, esc, &fakeFunds{}, chain, flags)

		res, err := svc.Resolve(context.Background(), "judge", 9)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}

		if res.WinnerID != "alice" {
			t.Errorf("expected plaintiff payout, got %q", res.WinnerID)
		}
		if res.Confidence != 50 {
			t.Errorf("expected confidence 50, got %d", res.Confidence)
		}
		if res.Amount != 700 {
			t.Errorf("expected full escrow 700, got %d", res.Amount)
		}
		if len(esc.releases) != 1 {
			t.Fatalf("expected one release, got %d", len(esc.releases))
		}
		if repo.resolved == nil {
			t.Fatal("expected resolution update")
		}
		if repo.resolved.ResolvedHeight != 1500 {
			t.Errorf("expected resolved height 1500, got %d", repo.resolved.ResolvedHeight)
		}
		if repo.resolved.AppealDeadline != 1500+AppealWindow {
			t.Errorf("expected appeal deadline %d, got %d", 1500+AppealWindow, repo.resolved.AppealDeadline)
		}
		if !repo.resolved.Outcome {
			t.Error("expected plaintiff outcome recorded")
		}
		if !pool.tx.committed {
			t.Error("expected commit")
		}
	})

	t.Run("with evidence the tie pays defendant", func(t *testing.T) {
		pool := &fakePool{}
		rec := base
		rec.EvidenceCount = 2
		repo := &fakeStore{rec: rec}
		ev := &fakeEvidence{items: []evidence.Item{
			{DisputeID: 9, Seq: 1, SubmitterID: "alice", Digest: make([]byte, evidence.DigestSize), Weight: 9},
			{DisputeID: 9, Seq: 2, SubmitterID: "bob", Digest: make([]byte, evidence.DigestSize), Weight: 2},
		}}
		esc := &fakeEscrow{custody: "vault", held: map[int64]int64{9: 700}}
		flags := &fakeArbiters{set: map[string]bool{"judge": true}}
		svc := newTestService(pool, repo, ev, esc, &fakeFunds{}, &fakeChain{height: 2000}, flags)

		res, err := svc.Resolve(context.Background(), "judge", 9)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if res.WinnerID != "bob" {
			t.Errorf("expected defendant payout, got %q", res.WinnerID)
		}
		if res.Confidence != 50 {
			t.Errorf("expected confidence 50, got %d", res.Confidence)
		}
		if repo.resolved == nil || repo.resolved.Outcome {
			t.Error("expected defendant outcome recorded")
		}
	})

	t.Run("non-arbitrator rejected", func(t *testing.T) {
		repo := &fakeStore{rec: base}
		svc := newTestService(&fakePool{}, repo, &fakeEvidence{}, &fakeEscrow{}, &fakeFunds{}, &fakeChain{}, &fakeArbiters{})

		if _, err := svc.Resolve(context.Background(), "alice", 9); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("state checked before authorization", func(t *testing.T) {
		rec := base
		rec.Status = StatusOpen
		repo := &fakeStore{rec: rec}
		svc := newTestService(&fakePool{}, repo, &fakeEvidence{}, &fakeEscrow{}, &fakeFunds{}, &fakeChain{}, &fakeArbiters{})

		if _, err := svc.Resolve(context.Background(), "mallory", 9); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("already resolved rejected", func(t *testing.T) {
		rec := base
		rec.Status = StatusResolved
		repo := &fakeStore{rec: rec}
		flags := &fakeArbiters{set: map[string]bool{"judge": true}}
		svc := newTestService(&fakePool{}, repo, &fakeEvidence{}, &fakeEscrow{}, &fakeFunds{}, &fakeChain{}, flags)

		if _, err := svc.Resolve(context.Background(), "judge", 9); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("payout failure rolls back", func(t *testing.T) {
		pool := &fakePool{}
		repo := &fakeStore{rec: base}
		esc := &fakeEscrow{custody: "vault", held: map[int64]int64{9: 700}, releaseErr: errors.New("escrow: payout failed")}
		flags := &fakeArbiters{set: map[string]bool{"judge": true}}
		svc := newTestService(pool, repo, &fakeEvidence{}, esc, &fakeFunds{}, &fakeChain{}, flags)

		if _, err := svc.Resolve(context.Background(), "judge", 9); err == nil {
			t.Fatal("expected error from failed payout")
		}
		if repo.resolved != nil {
			t.Error("expected no resolution recorded")
		}
		if pool.tx.committed {
			t.Error("expected rollback")
		}
	})
}

func TestRegisterArbitrator(t *testing.T) {
	flags := &fakeArbiters{set: map[string]bool{}}
	svc := newTestService(&fakePool{}, &fakeStore{}, &fakeEvidence{}, &fakeEscrow{}, &fakeFunds{}, &fakeChain{}, flags)

	if err := svc.RegisterArbitrator(context.Background(), "alice", "judge"); !errors.Is(err, arbiter.ErrOwnerOnly) {
		t.Fatalf("expected ErrOwnerOnly, got %v", err)
	}
	if flags.set["judge"] {
		t.Fatal("expected no registration after denial")
	}

	if err := svc.RegisterArbitrator(context.Background(), "owner", "judge"); err != nil {
		t.Fatalf("RegisterArbitrator: %v", err)
	}
	if !flags.set["judge"] {
		t.Fatal("expected judge to be registered")
	}
}

func TestLifecycleEventCapture(t *testing.T) {
	// Every successful mutation appends a timeline event and enqueues an
	// outbox message in the same transaction.
	pool := &fakePool{}
	repo := &fakeStore{}
	esc := &fakeEscrow{custody: "vault", held: map[int64]int64{1: 100}}
	flags := &fakeArbiters{set: map[string]bool{"judge": true}}
	events := &fakeEvents{}
	svc := newTestService(pool, repo, &fakeEvidence{}, esc, &fakeFunds{}, &fakeChain{}, flags).
		WithEvents(events)

	rec, err := svc.Create(context.Background(), "alice", "bob", 100)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	repo.rec = Record{ID: rec.ID, PlaintiffID: "alice", DefendantID: "bob", Amount: 100, Status: StatusOpen}
	if _, err := svc.OpenEvidencePhase(context.Background(), "alice", rec.ID); err != nil {
		t.Fatalf("OpenEvidencePhase: %v", err)
	}

	repo.rec.Status = StatusEvidence
	digest := make([]byte, evidence.DigestSize)
	if _, err := svc.SubmitEvidence(context.Background(), "bob", rec.ID, digest, 5); err != nil {
		t.Fatalf("SubmitEvidence: %v", err)
	}

	if _, err := svc.Resolve(context.Background(), "judge", rec.ID); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	wantAppends := []string{EventDisputeCreated, EventEvidencePhase, EventEvidenceSubmitted, EventDisputeResolved}
	if !equalStrings(events.appends, wantAppends) {
		t.Errorf("appends = %v, want %v", events.appends, wantAppends)
	}
	wantEnqueues := []string{TopicDisputeCreated, TopicEvidencePhase, TopicEvidenceSubmitted, TopicDisputeResolved}
	if !equalStrings(events.enqueues, wantEnqueues) {
		t.Errorf("enqueues = %v, want %v", events.enqueues, wantEnqueues)
	}
}

func TestMetricsRecordPayout(t *testing.T) {
	pool := &fakePool{}
	repo := &fakeStore{rec: Record{ID: 9, PlaintiffID: "alice", DefendantID: "bob", Amount: 700, Status: StatusEvidence}}
	esc := &fakeEscrow{custody: "vault", held: map[int64]int64{9: 700}}
	flags := &fakeArbiters{set: map[string]bool{"judge": true}}
	recorder := &fakeRecorder{}
	svc := newTestService(pool, repo, &fakeEvidence{}, esc, &fakeFunds{}, &fakeChain{}, flags).
		WithMetrics(recorder)

	if _, err := svc.Resolve(context.Background(), "judge", 9); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if recorder.resolved != 1 {
		t.Errorf("expected one resolution recorded, got %d", recorder.resolved)
	}
	if recorder.released != 700 {
		t.Errorf("expected released amount 700, got %d", recorder.released)
	}
}

func TestAdvancedPrediction_UsesCurrentHeight(t *testing.T) {
	repo := &fakeStore{rec: Record{ID: 5, PlaintiffID: "alice", DefendantID: "bob", Amount: 20_000, Status: StatusEvidence, CreatedHeight: 100, EvidenceCount: 5}}
	chain := &fakeChain{height: 300}
	svc := newTestService(&fakePool{}, repo, &fakeEvidence{}, &fakeEscrow{}, &fakeFunds{}, chain, &fakeArbiters{})

	report, err := svc.AdvancedPrediction(context.Background(), 5)
	if err != nil {
		t.Fatalf("AdvancedPrediction: %v", err)
	}
	if report.EvidenceScore != 40 {
		t.Errorf("expected saturated evidence score, got %d", report.EvidenceScore)
	}
	if report.ComplexityScore != 20 {
		t.Errorf("expected complexity 20, got %d", report.ComplexityScore)
	}
	if report.UrgencyScore != 20 {
		t.Errorf("expected urgency 20 for age 200, got %d", report.UrgencyScore)
	}
}

// --- fakes ---

type fakeStore struct {
	rec       Record
	getErr    error
	nextID    int64
	inserted  *Record
	setStatus Status
	resolved  *ResolutionUpdate
}

func (f *fakeStore) NextIDTx(ctx context.Context, tx pgx.Tx) (int64, error) {
	f.nextID++
	return f.nextID, nil
}

func (f *fakeStore) InsertTx(ctx context.Context, tx pgx.Tx, rec *Record) error {
	cp := *rec
	f.inserted = &cp
	return nil
}

func (f *fakeStore) Get(ctx context.Context, id int64) (Record, error) {
	if f.getErr != nil {
		return Record{}, f.getErr
	}
	return f.rec, nil
}

func (f *fakeStore) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id int64) (Record, error) {
	return f.Get(ctx, id)
}

func (f *fakeStore) ListByParty(ctx context.Context, partyID string) ([]Record, error) {
	return []Record{f.rec}, nil
}

func (f *fakeStore) SetStatusTx(ctx context.Context, tx pgx.Tx, id int64, status Status) error {
	f.setStatus = status
	return nil
}

func (f *fakeStore) IncrementEvidenceTx(ctx context.Context, tx pgx.Tx, id int64) (int, error) {
	f.rec.EvidenceCount++
	return f.rec.EvidenceCount, nil
}

func (f *fakeStore) MarkResolvedTx(ctx context.Context, tx pgx.Tx, id int64, upd ResolutionUpdate) error {
	cp := upd
	f.resolved = &cp
	return nil
}

type fakeEvidence struct {
	items []evidence.Item
}

func (f *fakeEvidence) AppendTx(ctx context.Context, tx pgx.Tx, item evidence.Item) error {
	f.items = append(f.items, item)
	return nil
}

func (f *fakeEvidence) ListByDispute(ctx context.Context, disputeID int64) ([]evidence.Item, error) {
	return f.items, nil
}

func (f *fakeEvidence) ListByDisputeTx(ctx context.Context, tx pgx.Tx, disputeID int64) ([]evidence.Item, error) {
	return f.items, nil
}

type escrowRelease struct {
	disputeID int64
	recipient string
}

type fakeEscrow struct {
	custody    string
	locked     map[int64]int64
	held       map[int64]int64
	releases   []escrowRelease
	releaseErr error
}

func (f *fakeEscrow) Custody() string { return f.custody }

func (f *fakeEscrow) LockTx(ctx context.Context, tx pgx.Tx, disputeID, amount int64) error {
	if f.locked == nil {
		f.locked = map[int64]int64{}
	}
	f.locked[disputeID] = amount
	return nil
}

func (f *fakeEscrow) ReleaseTx(ctx context.Context, tx pgx.Tx, disputeID int64, recipient string) (int64, error) {
	if f.releaseErr != nil {
		return 0, f.releaseErr
	}
	f.releases = append(f.releases, escrowRelease{disputeID: disputeID, recipient: recipient})
	amount := f.held[disputeID]
	delete(f.held, disputeID)
	return amount, nil
}

type transfer struct {
	from, to string
	amount   int64
}

type fakeFunds struct {
	transfers []transfer
	err       error
}

func (f *fakeFunds) TransferTx(ctx context.Context, tx pgx.Tx, from, to string, amount int64) error {
	if f.err != nil {
		return f.err
	}
	f.transfers = append(f.transfers, transfer{from: from, to: to, amount: amount})
	return nil
}

type fakeChain struct {
	height int64
}

func (f *fakeChain) CurrentHeight(ctx context.Context) (int64, error) { return f.height, nil }

func (f *fakeChain) CurrentHeightTx(ctx context.Context, tx pgx.Tx) (int64, error) {
	return f.height, nil
}

type fakeArbiters struct {
	set map[string]bool
}

func (f *fakeArbiters) Register(ctx context.Context, id string) error {
	if f.set == nil {
		f.set = map[string]bool{}
	}
	f.set[id] = true
	return nil
}

func (f *fakeArbiters) IsArbitratorTx(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
	return f.set[id], nil
}

type fakeEvents struct {
	appends  []string
	enqueues []string
}

func (f *fakeEvents) AppendTx(ctx context.Context, tx pgx.Tx, disputeID int64, eventType string, payload map[string]any) error {
	f.appends = append(f.appends, eventType)
	return nil
}

func (f *fakeEvents) EnqueueTx(ctx context.Context, tx pgx.Tx, topic string, payload map[string]any) error {
	f.enqueues = append(f.enqueues, topic)
	return nil
}

type fakeRecorder struct {
	created  int
	evidence int
	resolved int
	released int64
}

func (f *fakeRecorder) DisputeCreated() { f.created++ }

func (f *fakeRecorder) EvidenceSubmitted() { f.evidence++ }

func (f *fakeRecorder) DisputeResolved(released int64) {
	f.resolved++
	f.released += released
}

func equalStrings(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

type fakePool struct {
	tx *fakeTx
}

func (f *fakePool) Begin(ctx context.Context) (pgx.Tx, error) {
	f.tx = &fakeTx{}
	return f.tx, nil
}

type fakeTx struct {
	rolled    bool
	committed bool
}

func (f *fakeTx) Begin(context.Context) (pgx.Tx, error) {
	return nil, errors.New("fakeTx does not support nested transactions")
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rolled = true
	return nil
}

func (f *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}

func (f *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}

func (f *fakeTx) LargeObjects() pgx.LargeObjects {
	panic("not implemented")
}

func (f *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}

func (f *fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}

func (f *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("not implemented")
}

func (f *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("not implemented")
}

func (f *fakeTx) Conn() *pgx.Conn {
	return nil
}
