package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/anakol/pokerpot/internal/models"
	"github.com/anakol/pokerpot/internal/storage"
)

// buyInColumns and scanBuyIn are the single source of truth for the
// buy_ins row mapping, shared by every query in this file.
const buyInColumns = "id, session_id, member_id, amount_cents, approved, approved_by, approved_at, created_at, pending_sync"

func scanBuyIn(row scanner) (*models.BuyIn, error) {
	buyIn := &models.BuyIn{}
	var approvedBy sql.NullString
	var approvedAt sql.NullInt64
	err := row.Scan(
		&buyIn.ID,
		&buyIn.SessionID,
		&buyIn.MemberID,
		&buyIn.AmountCents,
		&buyIn.Approved,
		&approvedBy,
		&approvedAt,
		&buyIn.CreatedAt,
		&buyIn.PendingSync,
	)
	if err != nil {
		return nil, err
	}
	buyIn.ApprovedBy = approvedBy.String
	buyIn.ApprovedAt = approvedAt.Int64
	return buyIn, nil
}

func buyInArgs(b *models.BuyIn) []any {
	var approvedBy, approvedAt any
	if b.ApprovedBy != "" {
		approvedBy = b.ApprovedBy
	}
	if b.ApprovedAt != 0 {
		approvedAt = b.ApprovedAt
	}
	return []any{
		b.ID, b.SessionID, b.MemberID, int64(b.AmountCents),
		boolToInt(b.Approved), approvedBy, approvedAt,
		b.CreatedAt, boolToInt(b.PendingSync),
	}
}

func prepareBuyIn(buyIn *models.BuyIn) {
	if buyIn.ID == "" {
		buyIn.ID = uuid.New().String()
	}
	if buyIn.CreatedAt == 0 {
		buyIn.CreatedAt = time.Now().Unix()
	}
	buyIn.PendingSync = true
}

// CreateBuyIn persists a single new buy-in.
func (s *SQLiteStore) CreateBuyIn(ctx context.Context, buyIn *models.BuyIn) error {
	prepareBuyIn(buyIn)
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO buy_ins ("+buyInColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		buyInArgs(buyIn)...,
	)
	if err != nil {
		return fmt.Errorf("failed to insert buy-in: %w", err)
	}
	return nil
}

// CreateBuyIns inserts multiple buy-ins as one atomic transaction.
func (s *SQLiteStore) CreateBuyIns(ctx context.Context, buyIns []*models.BuyIn) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, buyIn := range buyIns {
		prepareBuyIn(buyIn)
		_, err := tx.ExecContext(ctx,
			"INSERT INTO buy_ins ("+buyInColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			buyInArgs(buyIn)...,
		)
		if err != nil {
			return fmt.Errorf("failed to insert buy-in: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetBuyIn retrieves a buy-in by ID.
func (s *SQLiteStore) GetBuyIn(ctx context.Context, id string) (*models.BuyIn, error) {
	buyIn, err := scanBuyIn(s.db.QueryRowContext(ctx,
		"SELECT "+buyInColumns+" FROM buy_ins WHERE id = ?", id,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("buy-in %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get buy-in: %w", err)
	}
	return buyIn, nil
}

// ListBuyIns returns all buy-ins for a session in creation order.
func (s *SQLiteStore) ListBuyIns(ctx context.Context, sessionID string) ([]models.BuyIn, error) {
	return s.listBuyIns(ctx,
		"SELECT "+buyInColumns+" FROM buy_ins WHERE session_id = ? ORDER BY created_at, id",
		sessionID,
	)
}

// ListPendingApproval returns a session's unapproved buy-ins, newest first.
func (s *SQLiteStore) ListPendingApproval(ctx context.Context, sessionID string) ([]models.BuyIn, error) {
	return s.listBuyIns(ctx,
		"SELECT "+buyInColumns+" FROM buy_ins WHERE session_id = ? AND approved = 0 ORDER BY created_at DESC, id",
		sessionID,
	)
}

func (s *SQLiteStore) listBuyIns(ctx context.Context, query string, args ...any) ([]models.BuyIn, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list buy-ins: %w", err)
	}
	defer rows.Close()

	var buyIns []models.BuyIn
	for rows.Next() {
		buyIn, err := scanBuyIn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan buy-in: %w", err)
		}
		buyIns = append(buyIns, *buyIn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate buy-ins: %w", err)
	}
	return buyIns, nil
}

// ApproveBuyIn records the approval transition. A buy-in that is already
// approved or missing reports not-found.
func (s *SQLiteStore) ApproveBuyIn(ctx context.Context, id, approvedBy string, approvedAt int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE buy_ins SET approved = 1, approved_by = ?, approved_at = ?, pending_sync = 1
		 WHERE id = ? AND approved = 0`,
		approvedBy, approvedAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to approve buy-in: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("pending buy-in %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// DeleteBuyIn removes a buy-in (rejection is a hard delete).
func (s *SQLiteStore) DeleteBuyIn(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM buy_ins WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete buy-in: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("buy-in %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// UpsertBuyIn replaces a buy-in wholesale (sync pull path).
func (s *SQLiteStore) UpsertBuyIn(ctx context.Context, buyIn *models.BuyIn) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO buy_ins ("+buyInColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		buyInArgs(buyIn)...,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert buy-in: %w", err)
	}
	return nil
}

// ListPendingBuyIns returns buy-ins with unpushed local changes.
func (s *SQLiteStore) ListPendingBuyIns(ctx context.Context) ([]*models.BuyIn, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+buyInColumns+" FROM buy_ins WHERE pending_sync = 1",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending buy-ins: %w", err)
	}
	defer rows.Close()

	var buyIns []*models.BuyIn
	for rows.Next() {
		buyIn, err := scanBuyIn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan buy-in: %w", err)
		}
		buyIns = append(buyIns, buyIn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate buy-ins: %w", err)
	}
	return buyIns, nil
}

// MarkBuyInsSynced clears the pending_sync flag after a successful push.
func (s *SQLiteStore) MarkBuyInsSynced(ctx context.Context, ids []string) error {
	return s.markSynced(ctx, "buy_ins", ids)
}
