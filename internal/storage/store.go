// Package storage provides abstractions for the persistent ledger.
package storage

import (
	"context"
	"errors"

	"github.com/anakol/pokerpot/internal/models"
	"github.com/anakol/pokerpot/internal/money"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// UserSessionResult is one row of a user's per-session history, used for
// lifetime statistics. The query is scoped to the user's own member
// records only.
type UserSessionResult struct {
	SessionID   string
	SessionName string
	NetCents    money.Cents
}

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
//
// Records are created locally first with PendingSync set; the sync
// reconciler reads ListPending* and clears flags with Mark*Synced after a
// successful push, and replaces records wholesale via Upsert* during a
// pull.
type Store interface {
	// Users.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Sessions.
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	GetSessionByJoinCode(ctx context.Context, code string) (*models.Session, error)
	UpdateSession(ctx context.Context, session *models.Session) error
	// DeleteSession removes a session and cascades to its members,
	// buy-ins, results and settlements.
	DeleteSession(ctx context.Context, id string) error
	UpsertSession(ctx context.Context, session *models.Session) error
	ListPendingSessions(ctx context.Context) ([]*models.Session, error)
	MarkSessionsSynced(ctx context.Context, ids []string) error

	// Session membership roles.
	AddSessionMember(ctx context.Context, sm *models.SessionMember) error
	GetSessionRole(ctx context.Context, sessionID, userID string) (models.SessionRole, error)

	// Members.
	CreateMember(ctx context.Context, member *models.Member) error
	GetMember(ctx context.Context, id string) (*models.Member, error)
	ListMembers(ctx context.Context, sessionID string) ([]models.Member, error)
	UpsertMember(ctx context.Context, member *models.Member) error
	ListPendingMembers(ctx context.Context) ([]*models.Member, error)
	MarkMembersSynced(ctx context.Context, ids []string) error

	// Buy-ins.
	CreateBuyIn(ctx context.Context, buyIn *models.BuyIn) error
	// CreateBuyIns inserts multiple buy-ins in one transaction.
	CreateBuyIns(ctx context.Context, buyIns []*models.BuyIn) error
	GetBuyIn(ctx context.Context, id string) (*models.BuyIn, error)
	ListBuyIns(ctx context.Context, sessionID string) ([]models.BuyIn, error)
	// ListPendingApproval returns unapproved buy-ins, newest first.
	ListPendingApproval(ctx context.Context, sessionID string) ([]models.BuyIn, error)
	ApproveBuyIn(ctx context.Context, id, approvedBy string, approvedAt int64) error
	DeleteBuyIn(ctx context.Context, id string) error
	UpsertBuyIn(ctx context.Context, buyIn *models.BuyIn) error
	ListPendingBuyIns(ctx context.Context) ([]*models.BuyIn, error)
	MarkBuyInsSynced(ctx context.Context, ids []string) error

	// Results. One per (session, member); UpsertResult replaces on conflict.
	UpsertResult(ctx context.Context, result *models.Result) error
	GetResult(ctx context.Context, sessionID, memberID string) (*models.Result, error)
	ListResults(ctx context.Context, sessionID string) ([]models.Result, error)
	ListUserSessionResults(ctx context.Context, userID string) ([]UserSessionResult, error)
	ListPendingResults(ctx context.Context) ([]*models.Result, error)
	MarkResultsSynced(ctx context.Context, ids []string) error

	// Settlements.
	// CreateSettlements inserts the full settlement set for a session in
	// one transaction, alongside the session's status change.
	CreateSettlements(ctx context.Context, session *models.Session, settlements []*models.Settlement) error
	ListSettlements(ctx context.Context, sessionID string) ([]models.Settlement, error)
	GetSettlement(ctx context.Context, id string) (*models.Settlement, error)
	SetSettlementPaid(ctx context.Context, id string, paid bool, paidBy string, paidAt int64) error
	UpsertSettlement(ctx context.Context, settlement *models.Settlement) error
	ListPendingSettlements(ctx context.Context) ([]*models.Settlement, error)
	MarkSettlementsSynced(ctx context.Context, ids []string) error

	// Adjustments.
	CreateAdjustment(ctx context.Context, adjustment *models.Adjustment) error
	ListAdjustments(ctx context.Context, userID string) ([]models.Adjustment, error)

	// App metadata key-value store (sync watermark lives here).
	// GetMetadata returns "" without error when the key is absent.
	GetMetadata(ctx context.Context, key string) (string, error)
	SetMetadata(ctx context.Context, key, value string) error

	// Close releases any resources held by the store.
	Close() error
}
