package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"arbiterflow/arbiter"
	"arbiterflow/auth"
	"arbiterflow/dispute"
	"arbiterflow/evidence"
	"arbiterflow/ledger"
	"arbiterflow/prediction"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type authService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.User, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
	VerifyToken(token string) (string, auth.Role, error)
}

type disputeService interface {
	Create(ctx context.Context, caller, defendant string, amount int64) (dispute.Record, error)
	OpenEvidencePhase(ctx context.Context, caller string, id int64) (dispute.Record, error)
	SubmitEvidence(ctx context.Context, caller string, id int64, digest []byte, weight int) (int, error)
	Resolve(ctx context.Context, caller string, id int64) (dispute.Resolution, error)
	RegisterArbitrator(ctx context.Context, caller, arbitratorID string) error
	AdvancedPrediction(ctx context.Context, id int64) (prediction.Report, error)
	Get(ctx context.Context, id int64) (dispute.Record, error)
	ListByParty(ctx context.Context, partyID string) ([]dispute.Record, error)
	Evidence(ctx context.Context, id int64) ([]evidence.Item, error)
}

type balanceReader interface {
	Balance(ctx context.Context, id string) (int64, error)
}

type timelineReader interface {
	Timeline(ctx context.Context, disputeID int64) ([]dispute.Event, error)
}

// Server holds the HTTP handlers for the dispute engine API.
type Server struct {
	authService    authService
	disputeService disputeService
	balances       balanceReader
	timeline       timelineReader
}

// Routes assembles the API surface.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/auth/register", s.handleRegister)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/disputes", s.handleDisputes)
	mux.HandleFunc("/api/disputes/", s.handleDispute)
	mux.HandleFunc("/api/arbitrators", s.handleArbitrators)
	mux.HandleFunc("/api/accounts/", s.handleBalance)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type registerResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.authService.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	})
}

type loginResponse struct {
	Token string `json:"token"`
	ID    string `json:"id"`
	Role  string `json:"role"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.authService.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: result.Token,
		ID:    result.User.ID,
		Role:  string(result.User.Role),
	})
}

type createDisputeRequest struct {
	DefendantID string `json:"defendant_id"`
	Amount      int64  `json:"amount"`
}

func (s *Server) handleDisputes(w http.ResponseWriter, r *http.Request) {
	caller, _, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req createDisputeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		rec, err := s.disputeService.Create(r.Context(), caller, req.DefendantID, req.Amount)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toDisputeResponse(rec))
	case http.MethodGet:
		records, err := s.disputeService.ListByParty(r.Context(), caller)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		out := make([]disputeResponse, 0, len(records))
		for _, rec := range records {
			out = append(out, toDisputeResponse(rec))
		}
		writeJSON(w, http.StatusOK, out)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type submitEvidenceRequest struct {
	Digest string `json:"digest"`
	Weight int    `json:"weight"`
}

type submitEvidenceResponse struct {
	EvidenceID int `json:"evidence_id"`
}

// handleDispute dispatches /api/disputes/{id} and its subresources.
func (s *Server) handleDispute(w http.ResponseWriter, r *http.Request) {
	caller, _, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/disputes/")
	idPart, sub, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusNotFound, "invalid dispute id")
		return
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		rec, err := s.disputeService.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDisputeResponse(rec))

	case sub == "evidence-phase" && r.Method == http.MethodPost:
		rec, err := s.disputeService.OpenEvidencePhase(r.Context(), caller, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDisputeResponse(rec))

	case sub == "evidence" && r.Method == http.MethodPost:
		var req submitEvidenceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		digest, err := hex.DecodeString(req.Digest)
		if err != nil {
			writeError(w, http.StatusBadRequest, "digest must be hex")
			return
		}
		seq, err := s.disputeService.SubmitEvidence(r.Context(), caller, id, digest, req.Weight)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, submitEvidenceResponse{EvidenceID: seq})

	case sub == "evidence" && r.Method == http.MethodGet:
		items, err := s.disputeService.Evidence(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		out := make([]evidenceResponse, 0, len(items))
		for _, item := range items {
			out = append(out, toEvidenceResponse(item))
		}
		writeJSON(w, http.StatusOK, out)

	case sub == "resolve" && r.Method == http.MethodPost:
		res, err := s.disputeService.Resolve(r.Context(), caller, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resolutionResponse{
			Dispute:    toDisputeResponse(res.Record),
			WinnerID:   res.WinnerID,
			Amount:     res.Amount,
			Confidence: res.Confidence,
		})

	case sub == "prediction" && r.Method == http.MethodGet:
		report, err := s.disputeService.AdvancedPrediction(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)

	case sub == "timeline" && r.Method == http.MethodGet:
		if s.timeline == nil {
			writeError(w, http.StatusNotFound, "timeline disabled")
			return
		}
		events, err := s.timeline.Timeline(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		out := make([]timelineResponse, 0, len(events))
		for _, ev := range events {
			out = append(out, timelineResponse{
				Seq:       ev.Seq,
				Type:      ev.Type,
				Payload:   json.RawMessage(ev.Payload),
				CreatedAt: ev.CreatedAt.Format(time.RFC3339),
			})
		}
		writeJSON(w, http.StatusOK, out)

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

type registerArbitratorRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleArbitrators(w http.ResponseWriter, r *http.Request) {
	caller, _, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req registerArbitratorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}

	if err := s.disputeService.RegisterArbitrator(r.Context(), caller, req.UserID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}

type balanceResponse struct {
	AccountID string `json:"account_id"`
	Balance   int64  `json:"balance"`
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.authenticate(w, r); !ok {
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/accounts/")
	accountID, sub, _ := strings.Cut(rest, "/")
	if accountID == "" || sub != "balance" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	balance, err := s.balances.Balance(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{AccountID: accountID, Balance: balance})
}

// authenticate extracts and verifies the bearer token, writing a 401 on
// failure.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (string, auth.Role, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return "", "", false
	}
	userID, role, err := s.authService.VerifyToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return "", "", false
	}
	return userID, role, true
}

type disputeResponse struct {
	ID             int64  `json:"id"`
	PlaintiffID    string `json:"plaintiff_id"`
	DefendantID    string `json:"defendant_id"`
	Amount         int64  `json:"amount"`
	Status         string `json:"status"`
	CreatedHeight  int64  `json:"created_height"`
	ResolvedHeight *int64 `json:"resolved_height,omitempty"`
	Outcome        *bool  `json:"outcome,omitempty"`
	Confidence     *int   `json:"confidence,omitempty"`
	EvidenceCount  int    `json:"evidence_count"`
	AppealDeadline *int64 `json:"appeal_deadline,omitempty"`
	CreatedAt      string `json:"created_at"`
}

func toDisputeResponse(rec dispute.Record) disputeResponse {
	return disputeResponse{
		ID:             rec.ID,
		PlaintiffID:    rec.PlaintiffID,
		DefendantID:    rec.DefendantID,
		Amount:         rec.Amount,
		Status:         string(rec.Status),
		CreatedHeight:  rec.CreatedHeight,
		ResolvedHeight: rec.ResolvedHeight,
		Outcome:        rec.Outcome,
		Confidence:     rec.Confidence,
		EvidenceCount:  rec.EvidenceCount,
		AppealDeadline: rec.AppealDeadline,
		CreatedAt:      rec.CreatedAt.Format(time.RFC3339),
	}
}

type evidenceResponse struct {
	Seq             int    `json:"seq"`
	SubmitterID     string `json:"submitter_id"`
	Digest          string `json:"digest"`
	Weight          int    `json:"weight"`
	SubmittedHeight int64  `json:"submitted_height"`
}

func toEvidenceResponse(item evidence.Item) evidenceResponse {
	return evidenceResponse{
		Seq:             item.Seq,
		SubmitterID:     item.SubmitterID,
		Digest:          hex.EncodeToString(item.Digest),
		Weight:          item.Weight,
		SubmittedHeight: item.SubmittedHeight,
	}
}

type resolutionResponse struct {
	Dispute    disputeResponse `json:"dispute"`
	WinnerID   string          `json:"winner_id"`
	Amount     int64           `json:"amount"`
	Confidence int             `json:"confidence"`
}

type timelineResponse struct {
	Seq       int             `json:"seq"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt string          `json:"created_at"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps domain sentinel errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dispute.ErrNotFound),
		errors.Is(err, evidence.ErrNotFound),
		errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, ledger.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, dispute.ErrUnauthorized),
		errors.Is(err, arbiter.ErrOwnerOnly):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, dispute.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, evidence.ErrInvalidWeight),
		errors.Is(err, evidence.ErrInvalidDigest),
		errors.Is(err, ledger.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
