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

// settlementColumns and scanSettlement are the single source of truth for
// the settlements row mapping, shared by every query in this file.
const settlementColumns = "id, session_id, from_member_id, to_member_id, amount_cents, settled_at, note, paid, paid_at, paid_by, pending_sync"

func scanSettlement(row scanner) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	var note, paidBy sql.NullString
	var paidAt sql.NullInt64
	err := row.Scan(
		&settlement.ID,
		&settlement.SessionID,
		&settlement.FromMemberID,
		&settlement.ToMemberID,
		&settlement.AmountCents,
		&settlement.SettledAt,
		&note,
		&settlement.Paid,
		&paidAt,
		&paidBy,
		&settlement.PendingSync,
	)
	if err != nil {
		return nil, err
	}
	settlement.Note = note.String
	settlement.PaidAt = paidAt.Int64
	settlement.PaidBy = paidBy.String
	return settlement, nil
}

func settlementArgs(st *models.Settlement) []any {
	var note, paidBy, paidAt any
	if st.Note != "" {
		note = st.Note
	}
	if st.PaidBy != "" {
		paidBy = st.PaidBy
	}
	if st.PaidAt != 0 {
		paidAt = st.PaidAt
	}
	return []any{
		st.ID, st.SessionID, st.FromMemberID, st.ToMemberID, int64(st.AmountCents),
		st.SettledAt, note, boolToInt(st.Paid), paidAt, paidBy, boolToInt(st.PendingSync),
	}
}

// CreateSettlements persists the full settlement set for a session and the
// session's transition to completed in one atomic transaction, so a
// failure can never leave a completed session without its settlements.
func (s *SQLiteStore) CreateSettlements(ctx context.Context, session *models.Session, settlements []*models.Settlement) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for _, settlement := range settlements {
		if settlement.ID == "" {
			settlement.ID = uuid.New().String()
		}
		if settlement.SettledAt == 0 {
			settlement.SettledAt = now
		}
		settlement.PendingSync = true

		_, err := tx.ExecContext(ctx,
			"INSERT INTO settlements ("+settlementColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			settlementArgs(settlement)...,
		)
		if err != nil {
			return fmt.Errorf("failed to insert settlement: %w", err)
		}
	}

	session.Status = models.SessionCompleted
	session.UpdatedAt = now
	session.PendingSync = true
	res, err := tx.ExecContext(ctx,
		"UPDATE sessions SET status = ?, updated_at = ?, pending_sync = 1 WHERE id = ?",
		string(session.Status), session.UpdatedAt, session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", session.ID, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListSettlements returns all settlements for a session in generation order.
func (s *SQLiteStore) ListSettlements(ctx context.Context, sessionID string) ([]models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+settlementColumns+" FROM settlements WHERE session_id = ? ORDER BY settled_at, id",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, *settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}

// GetSettlement retrieves a settlement by ID.
func (s *SQLiteStore) GetSettlement(ctx context.Context, id string) (*models.Settlement, error) {
	settlement, err := scanSettlement(s.db.QueryRowContext(ctx,
		"SELECT "+settlementColumns+" FROM settlements WHERE id = ?", id,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("settlement %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return settlement, nil
}

// SetSettlementPaid toggles the paid flag. This is the only settlement
// edit permitted after session completion.
func (s *SQLiteStore) SetSettlementPaid(ctx context.Context, id string, paid bool, paidBy string, paidAt int64) error {
	var by, at any
	if paid {
		by, at = paidBy, paidAt
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE settlements SET paid = ?, paid_by = ?, paid_at = ?, pending_sync = 1 WHERE id = ?",
		boolToInt(paid), by, at, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set settlement paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("settlement %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// UpsertSettlement replaces a settlement wholesale (sync pull path).
func (s *SQLiteStore) UpsertSettlement(ctx context.Context, settlement *models.Settlement) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO settlements ("+settlementColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		settlementArgs(settlement)...,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert settlement: %w", err)
	}
	return nil
}

// ListPendingSettlements returns settlements with unpushed local changes.
func (s *SQLiteStore) ListPendingSettlements(ctx context.Context) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+settlementColumns+" FROM settlements WHERE pending_sync = 1",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}

// MarkSettlementsSynced clears the pending_sync flag after a successful push.
func (s *SQLiteStore) MarkSettlementsSynced(ctx context.Context, ids []string) error {
	return s.markSynced(ctx, "settlements", ids)
}
