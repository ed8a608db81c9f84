package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"arbiterflow/arbiter"
	"arbiterflow/auth"
	"arbiterflow/db"
	"arbiterflow/dispute"
	"arbiterflow/escrow"
	"arbiterflow/evidence"
	"arbiterflow/ledger"
	"arbiterflow/metrics"
)

const defaultCustodyAccount = "engine-custody"

func main() {
	ctx := context.Background()

	pool, err := db.NewPool(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatalf("bootstrap database pool: %v", err)
	}
	defer pool.Close()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	ownerID := os.Getenv("OWNER_USER_ID")
	if ownerID == "" {
		log.Fatal("OWNER_USER_ID is required")
	}

	custody := os.Getenv("CUSTODY_ACCOUNT")
	if custody == "" {
		custody = defaultCustodyAccount
	}

	ledgerRepo := ledger.NewRepository(pool)
	if err := ledgerRepo.EnsureAccount(ctx, custody); err != nil {
		log.Fatalf("bootstrap custody account: %v", err)
	}

	disputeRepo := dispute.NewRepository(pool)
	evidenceRepo := evidence.NewRepository(pool)
	escrowRepo := escrow.NewRepository(pool, ledgerRepo, custody)
	arbiterRepo := arbiter.NewRepository(pool)
	eventLog := dispute.NewEventLog(pool)
	policy := arbiter.NewPolicy(ownerID)

	disputeService := dispute.NewService(pool, disputeRepo, evidenceRepo, escrowRepo, ledgerRepo, ledgerRepo, arbiterRepo, policy).
		WithEvents(eventLog).
		WithMetrics(metrics.New())

	authService := auth.NewService(auth.NewRepository(pool), jwtSecret).
		WithAccounts(ledgerRepo)

	server := &Server{
		authService:    authService,
		disputeService: disputeService,
		balances:       ledgerRepo,
		timeline:       eventLog,
	}

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	log.Printf("dispute engine listening on %s", addr)
	if err := http.ListenAndServe(addr, server.Routes()); err != nil {
		log.Fatalf("http server: %v", err)
	}
}
