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

// resultColumns and scanResult are the single source of truth for the
// results row mapping, shared by every query in this file.
const resultColumns = "id, session_id, member_id, net_cents, cashout_cents, updated_at, pending_sync"

func scanResult(row scanner) (*models.Result, error) {
	result := &models.Result{}
	err := row.Scan(
		&result.ID,
		&result.SessionID,
		&result.MemberID,
		&result.NetCents,
		&result.CashoutCents,
		&result.UpdatedAt,
		&result.PendingSync,
	)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func resultArgs(r *models.Result) []any {
	return []any{
		r.ID, r.SessionID, r.MemberID, int64(r.NetCents), int64(r.CashoutCents),
		r.UpdatedAt, boolToInt(r.PendingSync),
	}
}

// UpsertResult inserts or replaces the single result for a
// (session, member) pair. Local writes mark the record pending; the sync
// pull path passes PendingSync=false and an explicit UpdatedAt.
func (s *SQLiteStore) UpsertResult(ctx context.Context, result *models.Result) error {
	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	if result.UpdatedAt == 0 {
		result.UpdatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (`+resultColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id, member_id) DO UPDATE SET
		   net_cents = excluded.net_cents,
		   cashout_cents = excluded.cashout_cents,
		   updated_at = excluded.updated_at,
		   pending_sync = excluded.pending_sync`,
		resultArgs(result)...,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert result: %w", err)
	}
	return nil
}

// GetResult retrieves the result for a (session, member) pair.
func (s *SQLiteStore) GetResult(ctx context.Context, sessionID, memberID string) (*models.Result, error) {
	result, err := scanResult(s.db.QueryRowContext(ctx,
		"SELECT "+resultColumns+" FROM results WHERE session_id = ? AND member_id = ?",
		sessionID, memberID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("result for member %s in session %s: %w", memberID, sessionID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return result, nil
}

// ListResults returns all results for a session.
func (s *SQLiteStore) ListResults(ctx context.Context, sessionID string) ([]models.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+resultColumns+" FROM results WHERE session_id = ?",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []models.Result
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, *result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate results: %w", err)
	}
	return results, nil
}

// ListUserSessionResults returns the per-session nets belonging to the
// user's own member records. Other members' results are excluded here, at
// the query boundary.
func (s *SQLiteStore) ListUserSessionResults(ctx context.Context, userID string) ([]storage.UserSessionResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.session_id, s.name, r.net_cents
		 FROM results r
		 JOIN members m ON m.id = r.member_id
		 JOIN sessions s ON s.id = r.session_id
		 WHERE m.user_id = ?
		 ORDER BY s.date DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list user session results: %w", err)
	}
	defer rows.Close()

	var results []storage.UserSessionResult
	for rows.Next() {
		var r storage.UserSessionResult
		if err := rows.Scan(&r.SessionID, &r.SessionName, &r.NetCents); err != nil {
			return nil, fmt.Errorf("failed to scan user session result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user session results: %w", err)
	}
	return results, nil
}

// ListPendingResults returns results with unpushed local changes.
func (s *SQLiteStore) ListPendingResults(ctx context.Context) ([]*models.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+resultColumns+" FROM results WHERE pending_sync = 1",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending results: %w", err)
	}
	defer rows.Close()

	var results []*models.Result
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate results: %w", err)
	}
	return results, nil
}

// MarkResultsSynced clears the pending_sync flag after a successful push.
func (s *SQLiteStore) MarkResultsSynced(ctx context.Context, ids []string) error {
	return s.markSynced(ctx, "results", ids)
}
