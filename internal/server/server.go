// Package server exposes the ledger services over JSON REST.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/anakol/pokerpot/internal/auth"
	"github.com/anakol/pokerpot/internal/ledger"
	"github.com/anakol/pokerpot/internal/middleware"
)

// Syncer triggers one reconciliation run. Satisfied by sync.Reconciler.
type Syncer interface {
	Sync(ctx context.Context) error
}

// Server binds the ledger services to HTTP handlers.
type Server struct {
	authn    auth.Authenticator
	jwt      *auth.JWTManager
	sessions *ledger.SessionService
	buyIns   *ledger.BuyInService
	results  *ledger.ResultService
	balances *ledger.BalanceService
	syncer   Syncer
}

// New creates a server over the given services. syncer may be nil, in
// which case the manual sync endpoint reports the remote as unconfigured.
func New(
	authn auth.Authenticator,
	jwt *auth.JWTManager,
	sessions *ledger.SessionService,
	buyIns *ledger.BuyInService,
	results *ledger.ResultService,
	balances *ledger.BalanceService,
	syncer Syncer,
) *Server {
	return &Server{
		authn:    authn,
		jwt:      jwt,
		sessions: sessions,
		buyIns:   buyIns,
		results:  results,
		balances: balances,
		syncer:   syncer,
	}
}

// Handler assembles the route table. Everything except registration,
// login and health requires a valid bearer token.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /v1/auth/login", s.handleLogin)

	protect := middleware.RequireAuth(s.jwt)
	protected := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, protect(h))
	}

	protected("POST /v1/sessions", s.handleCreateSession)
	protected("GET /v1/sessions/{id}", s.handleGetSession)
	protected("DELETE /v1/sessions/{id}", s.handleDeleteSession)
	protected("POST /v1/sessions/join", s.handleJoinSession)
	protected("POST /v1/sessions/{id}/complete", s.handleCompleteSession)
	protected("POST /v1/sessions/{id}/members", s.handleAddMember)
	protected("GET /v1/sessions/{id}/balances", s.handleBalances)
	protected("GET /v1/sessions/{id}/settlements", s.handleListSettlements)

	protected("POST /v1/sessions/{id}/buyins", s.handleCreateBuyIn)
	protected("GET /v1/sessions/{id}/buyins/pending", s.handlePendingBuyIns)
	protected("POST /v1/buyins/{id}/approve", s.handleApproveBuyIn)
	protected("POST /v1/buyins/{id}/reject", s.handleRejectBuyIn)
	protected("POST /v1/buyins/bulk-approve", s.handleBulkApprove)
	protected("POST /v1/buyins/bulk-reject", s.handleBulkReject)

	protected("PUT /v1/sessions/{id}/members/{memberID}/cashout", s.handleRecordCashout)
	protected("POST /v1/settlements/{id}/paid", s.handleMarkSettlementPaid)

	protected("GET /v1/me/stats", s.handleLifetimeStats)
	protected("POST /v1/me/adjustments", s.handleAddAdjustment)

	protected("POST /v1/sync", s.handleSync)

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("Failed to encode response", "error", err)
		}
	}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

type errorResponse struct {
	Error            string            `json:"error"`
	DiscrepancyCents int64             `json:"discrepancy_cents,omitempty"`
	Failed           map[string]string `json:"failed,omitempty"`
}

// writeError maps the service error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *ledger.ValidationError
		bulkErr       *ledger.PartialBulkError
	)

	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrSessionCompleted):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:            validationErr.Msg,
			DiscrepancyCents: int64(validationErr.DiscrepancyCents),
		})
	case errors.As(err, &bulkErr):
		failed := make(map[string]string, len(bulkErr.Failed))
		for id, itemErr := range bulkErr.Failed {
			failed[id] = itemErr.Error()
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:  "some items failed",
			Failed: failed,
		})
	case errors.Is(err, auth.ErrEmailExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrWeakPassword):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	default:
		slog.Error("Internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
