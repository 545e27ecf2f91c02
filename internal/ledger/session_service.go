package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/anakol/pokerpot/internal/calculator"
	"github.com/anakol/pokerpot/internal/joincode"
	"github.com/anakol/pokerpot/internal/models"
	"github.com/anakol/pokerpot/internal/money"
	"github.com/anakol/pokerpot/internal/storage"
)

// RemoteSessionLookup resolves a join code against the remote data service
// when the session is not in the local ledger yet. Optional; nil means
// local-only lookup.
type RemoteSessionLookup interface {
	FetchSessionByJoinCode(ctx context.Context, code string) (*models.Session, error)
}

// SessionService manages session lifecycle: creation, joining by code,
// completion with settlement generation, and deletion.
type SessionService struct {
	store  storage.Store
	remote RemoteSessionLookup
}

// NewSessionService creates a SessionService. remote may be nil.
func NewSessionService(store storage.Store, remote RemoteSessionLookup) *SessionService {
	return &SessionService{store: store, remote: remote}
}

// CreateSession creates a session with a fresh join code and seats the
// creating user as its first member and admin.
func (s *SessionService) CreateSession(ctx context.Context, userID, name string, date int64, note string) (*models.Session, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	code, err := joincode.New()
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		Name:     name,
		JoinCode: code,
		Date:     date,
		Note:     note,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	if err := s.store.AddSessionMember(ctx, &models.SessionMember{
		SessionID: session.ID,
		UserID:    userID,
		Role:      models.RoleAdmin,
	}); err != nil {
		return nil, err
	}

	member := &models.Member{
		SessionID: session.ID,
		UserID:    userID,
		Name:      user.Name,
	}
	if err := s.store.CreateMember(ctx, member); err != nil {
		return nil, err
	}

	slog.Info("Session created", "session_id", session.ID, "join_code", session.JoinCode, "admin", userID)
	return session, nil
}

// JoinSession attaches a user to an existing session by join code. When
// the session is unknown locally, the remote data service is consulted and
// the fetched copy is stored locally before joining.
func (s *SessionService) JoinSession(ctx context.Context, code, userID, displayName string) (*models.Session, *models.Member, error) {
	session, err := s.store.GetSessionByJoinCode(ctx, code)
	if errors.Is(err, storage.ErrNotFound) && s.remote != nil {
		remote, rerr := s.remote.FetchSessionByJoinCode(ctx, code)
		if rerr != nil {
			return nil, nil, err
		}
		// The fetched copy matches the remote store, so it is not pending.
		remote.PendingSync = false
		if uerr := s.store.UpsertSession(ctx, remote); uerr != nil {
			return nil, nil, uerr
		}
		session, err = remote, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if session.Status == models.SessionCompleted {
		return nil, nil, ErrSessionCompleted
	}

	// Joining twice must not seat the user a second time or demote an
	// admin's existing membership.
	existing, err := s.store.ListMembers(ctx, session.ID)
	if err != nil {
		return nil, nil, err
	}
	for i := range existing {
		if existing[i].UserID == userID {
			return session, &existing[i], nil
		}
	}

	if err := s.store.AddSessionMember(ctx, &models.SessionMember{
		SessionID: session.ID,
		UserID:    userID,
		Role:      models.RolePlayer,
	}); err != nil {
		return nil, nil, err
	}

	member := &models.Member{
		SessionID: session.ID,
		UserID:    userID,
		Name:      displayName,
	}
	if err := s.store.CreateMember(ctx, member); err != nil {
		return nil, nil, err
	}

	slog.Info("Member joined session", "session_id", session.ID, "member_id", member.ID, "user_id", userID)
	return session, member, nil
}

// AddLocalMember seats a local-only placeholder member (no linked account)
// at the table. Anyone in the session may add or edit such members.
func (s *SessionService) AddLocalMember(ctx context.Context, sessionID, name string) (*models.Member, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionCompleted {
		return nil, ErrSessionCompleted
	}

	member := &models.Member{SessionID: sessionID, Name: name}
	if err := s.store.CreateMember(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// GetSession retrieves a session by ID.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	return s.store.GetSession(ctx, sessionID)
}

// CompleteSession validates the session totals, runs the settlement
// engine, persists the payment instructions and transitions the session to
// completed, all in one transaction. Admin only.
//
// The caller is responsible for the precondition that all cashouts are
// final; there is no quiescence detection.
func (s *SessionService) CompleteSession(ctx context.Context, sessionID, adminUserID string) ([]models.Settlement, error) {
	if err := s.requireAdmin(ctx, sessionID, adminUserID); err != nil {
		return nil, err
	}

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionCompleted {
		return nil, ErrSessionCompleted
	}

	members, err := s.store.ListMembers(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	buyIns, err := s.store.ListBuyIns(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	results, err := s.store.ListResults(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// Total chips in must equal total chips out before completion.
	var totalIn, totalOut money.Cents
	for _, b := range buyIns {
		if b.Approved {
			totalIn += b.AmountCents
		}
	}
	for _, r := range results {
		totalOut += r.CashoutCents
	}
	if totalIn != totalOut {
		return nil, &ValidationError{
			Msg:              "approved buy-ins do not match cashouts",
			DiscrepancyCents: totalOut - totalIn,
		}
	}

	balances := calculator.MemberBalances(members, buyIns, results)
	transfers := calculator.CalculateSettlements(balances)

	settlements := make([]*models.Settlement, len(transfers))
	now := time.Now().Unix()
	for i, tr := range transfers {
		settlements[i] = &models.Settlement{
			SessionID:    sessionID,
			FromMemberID: tr.FromMemberID,
			ToMemberID:   tr.ToMemberID,
			AmountCents:  tr.AmountCents,
			SettledAt:    now,
		}
	}

	if err := s.store.CreateSettlements(ctx, session, settlements); err != nil {
		return nil, err
	}

	slog.Info("Session completed",
		"session_id", sessionID,
		"members", len(members),
		"settlements", len(settlements),
		"total_pot", money.Format(totalIn),
	)

	out := make([]models.Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = *st
	}
	return out, nil
}

// ListSettlements returns the persisted settlements for a session.
func (s *SessionService) ListSettlements(ctx context.Context, sessionID string) ([]models.Settlement, error) {
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.store.ListSettlements(ctx, sessionID)
}

// MarkSettlementPaid toggles a settlement's paid flag. This is the only
// edit allowed after completion and is open to any session member.
func (s *SessionService) MarkSettlementPaid(ctx context.Context, settlementID, userID string, paid bool) error {
	settlement, err := s.store.GetSettlement(ctx, settlementID)
	if err != nil {
		return err
	}
	if _, err := s.store.GetSessionRole(ctx, settlement.SessionID, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrPermissionDenied
		}
		return err
	}

	paidAt := int64(0)
	paidBy := ""
	if paid {
		paidAt = time.Now().Unix()
		paidBy = userID
	}
	return s.store.SetSettlementPaid(ctx, settlementID, paid, paidBy, paidAt)
}

// DeleteSession removes a session and everything hanging off it. Admin only.
func (s *SessionService) DeleteSession(ctx context.Context, sessionID, adminUserID string) error {
	if err := s.requireAdmin(ctx, sessionID, adminUserID); err != nil {
		return err
	}
	return s.store.DeleteSession(ctx, sessionID)
}

func (s *SessionService) requireAdmin(ctx context.Context, sessionID, userID string) error {
	role, err := s.store.GetSessionRole(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrPermissionDenied
		}
		return err
	}
	if role != models.RoleAdmin {
		return ErrPermissionDenied
	}
	return nil
}
