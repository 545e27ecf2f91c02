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

// sessionColumns and scanSession are the single source of truth for the
// sessions row mapping, shared by every query in this file.
const sessionColumns = "id, name, join_code, date, note, status, created_at, updated_at, pending_sync"

func scanSession(row scanner) (*models.Session, error) {
	session := &models.Session{}
	var note sql.NullString
	err := row.Scan(
		&session.ID,
		&session.Name,
		&session.JoinCode,
		&session.Date,
		&note,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
		&session.PendingSync,
	)
	if err != nil {
		return nil, err
	}
	session.Note = note.String
	return session, nil
}

func sessionArgs(s *models.Session) []any {
	var note any
	if s.Note != "" {
		note = s.Note
	}
	return []any{
		s.ID, s.Name, s.JoinCode, s.Date, note, string(s.Status),
		s.CreatedAt, s.UpdatedAt, boolToInt(s.PendingSync),
	}
}

// CreateSession persists a new session. ID, timestamps and status are
// defaulted when unset; new local records start with pending_sync set.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if session.CreatedAt == 0 {
		session.CreatedAt = now
	}
	if session.UpdatedAt == 0 {
		session.UpdatedAt = now
	}
	if session.Status == "" {
		session.Status = models.SessionActive
	}
	session.PendingSync = true

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions ("+sessionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		sessionArgs(session)...,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	session, err := scanSession(s.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// GetSessionByJoinCode retrieves a session by its join code.
func (s *SQLiteStore) GetSessionByJoinCode(ctx context.Context, code string) (*models.Session, error) {
	session, err := scanSession(s.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE join_code = ?", code,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session with code %s: %w", code, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session by join code: %w", err)
	}
	return session, nil
}

// UpdateSession updates an existing session, bumping updated_at and
// marking it pending for sync.
func (s *SQLiteStore) UpdateSession(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = time.Now().Unix()
	session.PendingSync = true

	var note any
	if session.Note != "" {
		note = session.Note
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET name = ?, date = ?, note = ?, status = ?, updated_at = ?, pending_sync = 1
		 WHERE id = ?`,
		session.Name, session.Date, note, string(session.Status), session.UpdatedAt, session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", session.ID, storage.ErrNotFound)
	}
	return nil
}

// DeleteSession removes a session; members, buy-ins, results and
// settlements go with it via foreign-key cascade.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// UpsertSession replaces a session wholesale. Used by the sync pull path,
// which supplies the authoritative remote copy including its PendingSync
// value (normally false). ON CONFLICT DO UPDATE rather than INSERT OR
// REPLACE: REPLACE deletes the old row first, which would cascade to the
// session's children.
func (s *SQLiteStore) UpsertSession(ctx context.Context, session *models.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   join_code = excluded.join_code,
		   date = excluded.date,
		   note = excluded.note,
		   status = excluded.status,
		   created_at = excluded.created_at,
		   updated_at = excluded.updated_at,
		   pending_sync = excluded.pending_sync`,
		sessionArgs(session)...,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

// ListPendingSessions returns sessions with unpushed local changes.
func (s *SQLiteStore) ListPendingSessions(ctx context.Context) ([]*models.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE pending_sync = 1",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

// MarkSessionsSynced clears the pending_sync flag after a successful push.
func (s *SQLiteStore) MarkSessionsSynced(ctx context.Context, ids []string) error {
	return s.markSynced(ctx, "sessions", ids)
}

// AddSessionMember records a user's role in a session.
func (s *SQLiteStore) AddSessionMember(ctx context.Context, sm *models.SessionMember) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO session_members (session_id, user_id, role) VALUES (?, ?, ?)`,
		sm.SessionID, sm.UserID, string(sm.Role),
	)
	if err != nil {
		return fmt.Errorf("failed to add session member: %w", err)
	}
	return nil
}

// GetSessionRole returns the user's role in a session.
func (s *SQLiteStore) GetSessionRole(ctx context.Context, sessionID, userID string) (models.SessionRole, error) {
	var role string
	err := s.db.QueryRowContext(ctx,
		"SELECT role FROM session_members WHERE session_id = ? AND user_id = ?",
		sessionID, userID,
	).Scan(&role)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("membership of %s in session %s: %w", userID, sessionID, storage.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session role: %w", err)
	}
	return models.SessionRole(role), nil
}
