package ledger

import (
	"context"
	"log/slog"

	"github.com/anakol/pokerpot/internal/models"
	"github.com/anakol/pokerpot/internal/money"
	"github.com/anakol/pokerpot/internal/storage"
)

// ResultService records cashouts and keeps each result's derived net in
// step with the member's approved buy-ins.
type ResultService struct {
	store storage.Store
}

// NewResultService creates a ResultService.
func NewResultService(store storage.Store) *ResultService {
	return &ResultService{store: store}
}

// RecordCashout upserts the single result for a (session, member) pair.
// Cashouts are counted regardless of approval state; zero is the sentinel
// for "not yet cashed out". Permission follows buy-ins: owner, anyone for
// placeholder members, or a session admin.
func (s *ResultService) RecordCashout(ctx context.Context, sessionID, memberID string, cashoutCents money.Cents, actorUserID string) (*models.Result, error) {
	if cashoutCents < 0 {
		return nil, &ValidationError{Msg: "cashout cannot be negative"}
	}

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionCompleted {
		return nil, ErrSessionCompleted
	}

	member, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member.SessionID != sessionID {
		return nil, &ValidationError{Msg: "member does not belong to this session"}
	}

	if err := s.requireOwnerOrAdmin(ctx, member, actorUserID); err != nil {
		return nil, err
	}

	buyIns, err := s.store.ListBuyIns(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var approved money.Cents
	for _, b := range buyIns {
		if b.Approved && b.MemberID == memberID {
			approved += b.AmountCents
		}
	}

	result := &models.Result{
		SessionID:    sessionID,
		MemberID:     memberID,
		CashoutCents: cashoutCents,
		NetCents:     cashoutCents - approved,
		PendingSync:  true,
	}
	if err := s.store.UpsertResult(ctx, result); err != nil {
		return nil, err
	}

	slog.Info("Cashout recorded",
		"session_id", sessionID,
		"member_id", memberID,
		"cashout", money.Format(cashoutCents),
		"net", money.FormatWithSign(result.NetCents),
	)
	return result, nil
}

func (s *ResultService) requireOwnerOrAdmin(ctx context.Context, member *models.Member, actorUserID string) error {
	if member.UserID == "" || member.UserID == actorUserID {
		return nil
	}
	role, err := s.store.GetSessionRole(ctx, member.SessionID, actorUserID)
	if err != nil || role != models.RoleAdmin {
		return ErrPermissionDenied
	}
	return nil
}
