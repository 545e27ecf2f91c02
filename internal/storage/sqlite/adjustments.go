package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/anakol/pokerpot/internal/models"
)

// adjustmentColumns and scanAdjustment are the single source of truth for
// the adjustments row mapping, shared by every query in this file.
const adjustmentColumns = "id, user_id, amount_cents, note, created_at"

func scanAdjustment(row scanner) (*models.Adjustment, error) {
	adjustment := &models.Adjustment{}
	var note sql.NullString
	err := row.Scan(
		&adjustment.ID,
		&adjustment.UserID,
		&adjustment.AmountCents,
		&note,
		&adjustment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	adjustment.Note = note.String
	return adjustment, nil
}

// CreateAdjustment persists a new manual adjustment.
func (s *SQLiteStore) CreateAdjustment(ctx context.Context, adjustment *models.Adjustment) error {
	if adjustment.ID == "" {
		adjustment.ID = uuid.New().String()
	}
	if adjustment.CreatedAt == 0 {
		adjustment.CreatedAt = time.Now().Unix()
	}

	var note any
	if adjustment.Note != "" {
		note = adjustment.Note
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO adjustments ("+adjustmentColumns+") VALUES (?, ?, ?, ?, ?)",
		adjustment.ID, adjustment.UserID, int64(adjustment.AmountCents), note, adjustment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert adjustment: %w", err)
	}
	return nil
}

// ListAdjustments returns a user's adjustments, newest first.
func (s *SQLiteStore) ListAdjustments(ctx context.Context, userID string) ([]models.Adjustment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+adjustmentColumns+" FROM adjustments WHERE user_id = ? ORDER BY created_at DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []models.Adjustment
	for rows.Next() {
		adjustment, err := scanAdjustment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan adjustment: %w", err)
		}
		adjustments = append(adjustments, *adjustment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate adjustments: %w", err)
	}
	return adjustments, nil
}
