package ledger

import (
	"context"

	"github.com/anakol/pokerpot/internal/calculator"
	"github.com/anakol/pokerpot/internal/models"
	"github.com/anakol/pokerpot/internal/money"
	"github.com/anakol/pokerpot/internal/storage"
)

// LifetimeStats is a user's aggregate net across all their sessions plus
// manual adjustments.
type LifetimeStats struct {
	TotalNetCents money.Cents             `json:"total_net_cents"`
	PerSession    []calculator.SessionNet `json:"per_session"`
	Adjustments   []models.Adjustment     `json:"adjustments"`
}

// BalanceService derives balances from the ledger. Pure reads except for
// AddAdjustment.
type BalanceService struct {
	store storage.Store
}

// NewBalanceService creates a BalanceService.
func NewBalanceService(store storage.Store) *BalanceService {
	return &BalanceService{store: store}
}

// MemberBalances computes each member's current net for a session.
// Fails with ErrNotFound when the session does not exist.
func (s *BalanceService) MemberBalances(ctx context.Context, sessionID string) ([]calculator.MemberBalance, error) {
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
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

	return calculator.MemberBalances(members, buyIns, results), nil
}

// LifetimeNet aggregates the caller's own per-session nets and manual
// adjustments. The store query is scoped to the user's member records, so
// other players' results never leak in.
func (s *BalanceService) LifetimeNet(ctx context.Context, userID string) (*LifetimeStats, error) {
	rows, err := s.store.ListUserSessionResults(ctx, userID)
	if err != nil {
		return nil, err
	}
	adjustments, err := s.store.ListAdjustments(ctx, userID)
	if err != nil {
		return nil, err
	}

	perSession := make([]calculator.SessionNet, len(rows))
	for i, r := range rows {
		perSession[i] = calculator.SessionNet{
			SessionID:   r.SessionID,
			SessionName: r.SessionName,
			NetCents:    r.NetCents,
		}
	}

	return &LifetimeStats{
		TotalNetCents: calculator.LifetimeNet(perSession, adjustments),
		PerSession:    perSession,
		Adjustments:   adjustments,
	}, nil
}

// AddAdjustment records a manual correction on the user's lifetime total.
func (s *BalanceService) AddAdjustment(ctx context.Context, userID string, amountCents money.Cents, note string) (*models.Adjustment, error) {
	if amountCents == 0 {
		return nil, &ValidationError{Msg: "adjustment amount cannot be zero"}
	}
	adjustment := &models.Adjustment{
		UserID:      userID,
		AmountCents: amountCents,
		Note:        note,
	}
	if err := s.store.CreateAdjustment(ctx, adjustment); err != nil {
		return nil, err
	}
	return adjustment, nil
}
