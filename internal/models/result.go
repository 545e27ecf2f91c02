package models

import "github.com/anakol/pokerpot/internal/money"

// Result records a member's cashout and derived net for a session.
// There is at most one result per (session, member) pair.
type Result struct {
	// ID is the unique identifier for the result (UUID format).
	ID string `json:"id"`

	// SessionID is the session this result belongs to.
	SessionID string `json:"session_id"`

	// MemberID is the member this result belongs to. Must reference a
	// member of the same session.
	MemberID string `json:"member_id"`

	// NetCents = CashoutCents - sum of the member's approved buy-ins.
	NetCents money.Cents `json:"net_cents"`

	// CashoutCents is the amount the member left the table with.
	// Zero is the sentinel for "not yet cashed out": such a member is
	// excluded from net-result display but included in totals validation.
	CashoutCents money.Cents `json:"cashout_cents"`

	// UpdatedAt is the Unix timestamp of the last change.
	UpdatedAt int64 `json:"updated_at"`

	// PendingSync is true while the local copy has unpushed changes.
	PendingSync bool `json:"-"`
}
