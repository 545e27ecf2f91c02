package models

import "github.com/anakol/pokerpot/internal/money"

// Adjustment is a user-scoped manual correction added directly to the
// user's lifetime net total. It is independent of any session.
type Adjustment struct {
	// ID is the unique identifier for the adjustment (UUID format).
	ID string `json:"id"`

	// UserID is the account the adjustment applies to.
	UserID string `json:"user_id"`

	// AmountCents is the signed correction amount.
	AmountCents money.Cents `json:"amount_cents"`

	// Note is an optional description of why the correction exists.
	Note string `json:"note,omitempty"`

	// CreatedAt is the Unix timestamp when the adjustment was created.
	CreatedAt int64 `json:"created_at"`
}
