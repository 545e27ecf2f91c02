package models

// Member represents one seat at a session. A member belongs to exactly one
// session and is never reassigned to another.
type Member struct {
	// ID is the unique identifier for the member (UUID format).
	ID string `json:"id"`

	// SessionID is the session this member belongs to.
	SessionID string `json:"session_id"`

	// UserID links the member to an authenticated account. Empty for
	// local-only placeholder members, which anyone at the table may edit.
	UserID string `json:"user_id,omitempty"`

	// Name is the display name shown at the table.
	Name string `json:"name"`

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`

	// PendingSync is true while the local copy has unpushed changes.
	PendingSync bool `json:"-"`
}
