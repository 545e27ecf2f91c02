package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/anakol/pokerpot/internal/events"
	"github.com/anakol/pokerpot/internal/models"
	"github.com/anakol/pokerpot/internal/money"
	"github.com/anakol/pokerpot/internal/storage"
)

// BuyInService implements the buy-in approval workflow:
//
//	Pending -> Approved (admin, immutable afterwards)
//	Pending -> Rejected (admin, hard delete, no audit trail)
type BuyInService struct {
	store storage.Store
	bus   *events.Bus

	// Serializes approve-and-refresh so concurrent bulk approvals for
	// the same member cannot persist a stale net.
	approveMu sync.Mutex
}

// NewBuyInService creates a BuyInService publishing onto bus.
func NewBuyInService(store storage.Store, bus *events.Bus) *BuyInService {
	return &BuyInService{store: store, bus: bus}
}

// CreateBuyIn records a pending buy-in for a member. The actor must own
// the member record (or the member must be a local-only placeholder);
// session admins may record buy-ins for anyone.
func (s *BuyInService) CreateBuyIn(ctx context.Context, sessionID, memberID string, amountCents money.Cents, actorUserID string) (*models.BuyIn, error) {
	if amountCents <= 0 {
		return nil, &ValidationError{Msg: "buy-in amount must be positive"}
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

	buyIn := &models.BuyIn{
		SessionID:   sessionID,
		MemberID:    memberID,
		AmountCents: amountCents,
	}
	if err := s.store.CreateBuyIn(ctx, buyIn); err != nil {
		return nil, err
	}

	s.bus.Publish(events.BuyInRequested{
		SessionID:   sessionID,
		MemberName:  member.Name,
		AmountCents: amountCents,
	})

	slog.Info("Buy-in created", "buy_in_id", buyIn.ID, "session_id", sessionID, "amount", money.Format(amountCents))
	return buyIn, nil
}

// ApproveBuyIn transitions a pending buy-in to approved. Admin only.
// The approval notification is fire-and-forget: its failure never rolls
// back the transition.
func (s *BuyInService) ApproveBuyIn(ctx context.Context, buyInID, approverUserID string) error {
	buyIn, err := s.store.GetBuyIn(ctx, buyInID)
	if err != nil {
		return err
	}
	if err := s.requireOpenSession(ctx, buyIn.SessionID); err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, buyIn.SessionID, approverUserID); err != nil {
		return err
	}

	s.approveMu.Lock()
	err = s.store.ApproveBuyIn(ctx, buyInID, approverUserID, time.Now().Unix())
	if err == nil {
		// The member may have cashed out before this approval landed;
		// the stored net must track the new approved total.
		err = s.refreshResult(ctx, buyIn.SessionID, buyIn.MemberID)
	}
	s.approveMu.Unlock()
	if err != nil {
		return err
	}

	member, err := s.store.GetMember(ctx, buyIn.MemberID)
	if err == nil && member.UserID != "" {
		s.bus.Publish(events.BuyInApproved{
			SessionID:   buyIn.SessionID,
			UserID:      member.UserID,
			AmountCents: buyIn.AmountCents,
		})
	}

	slog.Info("Buy-in approved", "buy_in_id", buyInID, "approved_by", approverUserID)
	return nil
}

// RejectBuyIn deletes a pending buy-in. Admin only. Approved buy-ins are
// immutable and cannot be rejected.
func (s *BuyInService) RejectBuyIn(ctx context.Context, buyInID, approverUserID string) error {
	buyIn, err := s.store.GetBuyIn(ctx, buyInID)
	if err != nil {
		return err
	}
	if err := s.requireOpenSession(ctx, buyIn.SessionID); err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, buyIn.SessionID, approverUserID); err != nil {
		return err
	}
	if buyIn.Approved {
		return &ValidationError{Msg: "approved buy-ins cannot be rejected"}
	}

	if err := s.store.DeleteBuyIn(ctx, buyInID); err != nil {
		return err
	}
	slog.Info("Buy-in rejected", "buy_in_id", buyInID, "rejected_by", approverUserID)
	return nil
}

// BulkApprove applies the approval transition to each id independently and
// concurrently. A failed item does not roll back the others; failures are
// reported together as a PartialBulkError.
func (s *BuyInService) BulkApprove(ctx context.Context, ids []string, approverUserID string) error {
	return s.bulk(ids, func(id string) error {
		return s.ApproveBuyIn(ctx, id, approverUserID)
	})
}

// BulkReject applies the reject transition to each id independently and
// concurrently, with the same at-least-partial-success semantics as
// BulkApprove.
func (s *BuyInService) BulkReject(ctx context.Context, ids []string, approverUserID string) error {
	return s.bulk(ids, func(id string) error {
		return s.RejectBuyIn(ctx, id, approverUserID)
	})
}

func (s *BuyInService) bulk(ids []string, apply func(id string) error) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := make(map[string]error)

	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := apply(id); err != nil {
				mu.Lock()
				failed[id] = err
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	if len(failed) > 0 {
		return &PartialBulkError{Failed: failed}
	}
	return nil
}

// PendingBuyIns returns a session's unapproved buy-ins for admin review,
// newest first.
func (s *BuyInService) PendingBuyIns(ctx context.Context, sessionID, userID string) ([]models.BuyIn, error) {
	if err := s.requireAdmin(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	return s.store.ListPendingApproval(ctx, sessionID)
}

// refreshResult recomputes the stored net for a member whose approved
// buy-in total just changed. Members who have not cashed out have no
// result row and nothing to refresh.
func (s *BuyInService) refreshResult(ctx context.Context, sessionID, memberID string) error {
	result, err := s.store.GetResult(ctx, sessionID, memberID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	buyIns, err := s.store.ListBuyIns(ctx, sessionID)
	if err != nil {
		return err
	}
	var approved money.Cents
	for _, b := range buyIns {
		if b.Approved && b.MemberID == memberID {
			approved += b.AmountCents
		}
	}

	result.NetCents = result.CashoutCents - approved
	result.UpdatedAt = time.Now().Unix()
	result.PendingSync = true
	return s.store.UpsertResult(ctx, result)
}

// requireOpenSession rejects approval transitions on completed sessions;
// a pending buy-in approved after completion would desynchronize the
// validated totals and the persisted settlements.
func (s *BuyInService) requireOpenSession(ctx context.Context, sessionID string) error {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status == models.SessionCompleted {
		return ErrSessionCompleted
	}
	return nil
}

func (s *BuyInService) requireAdmin(ctx context.Context, sessionID, userID string) error {
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

// requireOwnerOrAdmin allows the member's owning user, anyone for
// local-only placeholder members, and session admins.
func (s *BuyInService) requireOwnerOrAdmin(ctx context.Context, member *models.Member, actorUserID string) error {
	if member.UserID == "" || member.UserID == actorUserID {
		return nil
	}
	return s.requireAdmin(ctx, member.SessionID, actorUserID)
}
