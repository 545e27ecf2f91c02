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

// memberColumns and scanMember are the single source of truth for the
// members row mapping, shared by every query in this file.
const memberColumns = "id, session_id, user_id, name, created_at, updated_at, pending_sync"

func scanMember(row scanner) (*models.Member, error) {
	member := &models.Member{}
	var userID sql.NullString
	err := row.Scan(
		&member.ID,
		&member.SessionID,
		&userID,
		&member.Name,
		&member.CreatedAt,
		&member.UpdatedAt,
		&member.PendingSync,
	)
	if err != nil {
		return nil, err
	}
	member.UserID = userID.String
	return member, nil
}

func memberArgs(m *models.Member) []any {
	var userID any
	if m.UserID != "" {
		userID = m.UserID
	}
	return []any{
		m.ID, m.SessionID, userID, m.Name,
		m.CreatedAt, m.UpdatedAt, boolToInt(m.PendingSync),
	}
}

// CreateMember persists a new member for a session.
func (s *SQLiteStore) CreateMember(ctx context.Context, member *models.Member) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if member.CreatedAt == 0 {
		member.CreatedAt = now
	}
	if member.UpdatedAt == 0 {
		member.UpdatedAt = now
	}
	member.PendingSync = true

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO members ("+memberColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		memberArgs(member)...,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// GetMember retrieves a member by ID.
func (s *SQLiteStore) GetMember(ctx context.Context, id string) (*models.Member, error) {
	member, err := scanMember(s.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE id = ?", id,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("member %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return member, nil
}

// ListMembers returns all members of a session in creation order.
func (s *SQLiteStore) ListMembers(ctx context.Context, sessionID string) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE session_id = ? ORDER BY created_at, id",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, *member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// UpsertMember replaces a member wholesale (sync pull path). ON CONFLICT
// DO UPDATE, not INSERT OR REPLACE: REPLACE deletes the old row first,
// which would cascade to the member's buy-ins and results.
func (s *SQLiteStore) UpsertMember(ctx context.Context, member *models.Member) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO members (`+memberColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   session_id = excluded.session_id,
		   user_id = excluded.user_id,
		   name = excluded.name,
		   created_at = excluded.created_at,
		   updated_at = excluded.updated_at,
		   pending_sync = excluded.pending_sync`,
		memberArgs(member)...,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}
	return nil
}

// ListPendingMembers returns members with unpushed local changes.
func (s *SQLiteStore) ListPendingMembers(ctx context.Context) ([]*models.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE pending_sync = 1",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// MarkMembersSynced clears the pending_sync flag after a successful push.
func (s *SQLiteStore) MarkMembersSynced(ctx context.Context, ids []string) error {
	return s.markSynced(ctx, "members", ids)
}
