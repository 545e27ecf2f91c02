package server

import (
	"net/http"

	"github.com/anakol/pokerpot/internal/middleware"
	"github.com/anakol/pokerpot/internal/models"
	"github.com/anakol/pokerpot/internal/money"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Email == "" || req.Name == "" {
		badRequest(w, "email and name are required")
		return
	}

	user, err := s.authn.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := s.jwt.Generate(user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	user, err := s.authn.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := s.jwt.Generate(user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

type createSessionRequest struct {
	Name string `json:"name"`
	Date int64  `json:"date"`
	Note string `json:"note"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		badRequest(w, "name is required")
		return
	}

	session, err := s.sessions.CreateSession(r.Context(), middleware.GetUserID(r.Context()), req.Name, req.Date, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.DeleteSession(r.Context(), r.PathValue("id"), middleware.GetUserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type joinSessionRequest struct {
	JoinCode string `json:"join_code"`
	Name     string `json:"name"`
}

type joinSessionResponse struct {
	Session *models.Session `json:"session"`
	Member  *models.Member  `json:"member"`
}

func (s *Server) handleJoinSession(w http.ResponseWriter, r *http.Request) {
	var req joinSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	session, member, err := s.sessions.JoinSession(r.Context(), req.JoinCode, middleware.GetUserID(r.Context()), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, joinSessionResponse{Session: session, Member: member})
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	settlements, err := s.sessions.CompleteSession(r.Context(), r.PathValue("id"), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settlements": settlements})
}

type addMemberRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		badRequest(w, "name is required")
		return
	}

	member, err := s.sessions.AddLocalMember(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.balances.MemberBalances(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"balances": balances})
}

func (s *Server) handleListSettlements(w http.ResponseWriter, r *http.Request) {
	settlements, err := s.sessions.ListSettlements(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settlements": settlements})
}

type createBuyInRequest struct {
	MemberID    string      `json:"member_id"`
	AmountCents money.Cents `json:"amount_cents"`
}

func (s *Server) handleCreateBuyIn(w http.ResponseWriter, r *http.Request) {
	var req createBuyInRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	buyIn, err := s.buyIns.CreateBuyIn(r.Context(), r.PathValue("id"), req.MemberID, req.AmountCents, middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, buyIn)
}

func (s *Server) handlePendingBuyIns(w http.ResponseWriter, r *http.Request) {
	buyIns, err := s.buyIns.PendingBuyIns(r.Context(), r.PathValue("id"), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"buy_ins": buyIns})
}

func (s *Server) handleApproveBuyIn(w http.ResponseWriter, r *http.Request) {
	if err := s.buyIns.ApproveBuyIn(r.Context(), r.PathValue("id"), middleware.GetUserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleRejectBuyIn(w http.ResponseWriter, r *http.Request) {
	if err := s.buyIns.RejectBuyIn(r.Context(), r.PathValue("id"), middleware.GetUserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type bulkRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleBulkApprove(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := s.buyIns.BulkApprove(r.Context(), req.IDs, middleware.GetUserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleBulkReject(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := s.buyIns.BulkReject(r.Context(), req.IDs, middleware.GetUserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type recordCashoutRequest struct {
	CashoutCents money.Cents `json:"cashout_cents"`
}

func (s *Server) handleRecordCashout(w http.ResponseWriter, r *http.Request) {
	var req recordCashoutRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	result, err := s.results.RecordCashout(
		r.Context(),
		r.PathValue("id"),
		r.PathValue("memberID"),
		req.CashoutCents,
		middleware.GetUserID(r.Context()),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type markPaidRequest struct {
	Paid bool `json:"paid"`
}

func (s *Server) handleMarkSettlementPaid(w http.ResponseWriter, r *http.Request) {
	var req markPaidRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := s.sessions.MarkSettlementPaid(r.Context(), r.PathValue("id"), middleware.GetUserID(r.Context()), req.Paid); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleLifetimeStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.balances.LifetimeNet(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type addAdjustmentRequest struct {
	AmountCents money.Cents `json:"amount_cents"`
	Note        string      `json:"note"`
}

func (s *Server) handleAddAdjustment(w http.ResponseWriter, r *http.Request) {
	var req addAdjustmentRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	adjustment, err := s.balances.AddAdjustment(r.Context(), middleware.GetUserID(r.Context()), req.AmountCents, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, adjustment)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "no remote configured"})
		return
	}
	if err := s.syncer.Sync(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}
