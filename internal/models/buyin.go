package models

import "github.com/anakol/pokerpot/internal/money"

// BuyIn represents money a member has put into the pot.
//
// A buy-in is immutable once created except for the approval transition.
// Unapproved buy-ins do not count toward balances. Rejection is a hard
// delete; no audit trail is kept for rejected buy-ins.
type BuyIn struct {
	// ID is the unique identifier for the buy-in (UUID format).
	ID string `json:"id"`

	// SessionID is the session the buy-in belongs to.
	SessionID string `json:"session_id"`

	// MemberID is the member who bought in. Must reference a member of
	// the same session.
	MemberID string `json:"member_id"`

	// AmountCents is the buy-in amount. Always > 0.
	AmountCents money.Cents `json:"amount_cents"`

	// Approved is set by an admin via the approval workflow. There is no
	// transition out of the approved state.
	Approved bool `json:"approved"`

	// ApprovedBy is the user ID of the approving admin, empty until approved.
	ApprovedBy string `json:"approved_by,omitempty"`

	// ApprovedAt is the Unix timestamp of approval, zero until approved.
	ApprovedAt int64 `json:"approved_at,omitempty"`

	// CreatedAt is the Unix timestamp when the buy-in was created.
	CreatedAt int64 `json:"created_at"`

	// PendingSync is true while the local copy has unpushed changes.
	PendingSync bool `json:"-"`
}
