package models

import "github.com/anakol/pokerpot/internal/money"

// Settlement represents one payment instruction produced by the settlement
// engine at session completion: FromMember pays ToMember AmountCents.
// Settlements are persisted for audit and "mark paid" tracking.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string `json:"id"`

	// SessionID is the session this settlement belongs to.
	SessionID string `json:"session_id"`

	// FromMemberID is the debtor paying.
	FromMemberID string `json:"from_member_id"`

	// ToMemberID is the creditor being paid.
	ToMemberID string `json:"to_member_id"`

	// AmountCents is the payment amount. Always > 0.
	AmountCents money.Cents `json:"amount_cents"`

	// SettledAt is the Unix timestamp when the settlement was generated.
	SettledAt int64 `json:"settled_at"`

	// Note is an optional description.
	Note string `json:"note,omitempty"`

	// Paid tracks whether the payment actually happened. Toggling it is
	// the only edit allowed after a session completes.
	Paid bool `json:"paid"`

	// PaidAt is the Unix timestamp when the settlement was marked paid.
	PaidAt int64 `json:"paid_at,omitempty"`

	// PaidBy is the user ID who marked it paid.
	PaidBy string `json:"paid_by,omitempty"`

	// PendingSync is true while the local copy has unpushed changes.
	PendingSync bool `json:"-"`
}
