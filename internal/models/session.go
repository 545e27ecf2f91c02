package models

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	// SessionActive is the initial state: buy-ins and cashouts may be recorded.
	SessionActive SessionStatus = "active"

	// SessionCompleted is the terminal state. The transition happens once,
	// after the chips-in/chips-out totals validate, and is irreversible.
	// No edits are permitted after completion except toggling a
	// settlement's paid flag.
	SessionCompleted SessionStatus = "completed"
)

// Session represents one poker session shared by a group of players.
type Session struct {
	// ID is the unique identifier for the session (UUID format).
	ID string `json:"id"`

	// Name is the display name of the session (e.g., "Friday Night Game").
	Name string `json:"name"`

	// JoinCode is the short public handle used to join the session.
	// 6 uppercase base-36 characters, unique across all sessions.
	JoinCode string `json:"join_code"`

	// Date is the Unix timestamp of the session date.
	Date int64 `json:"date"`

	// Note is an optional free-form description.
	Note string `json:"note,omitempty"`

	// Status is active or completed.
	Status SessionStatus `json:"status"`

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`

	// PendingSync is true while the local copy has changes not yet pushed
	// to the remote store.
	PendingSync bool `json:"-"`
}

// SessionRole is a user's role within a session.
type SessionRole string

const (
	RoleAdmin  SessionRole = "admin"
	RolePlayer SessionRole = "player"
)

// SessionMember links a user account to a session with a role.
// Only admins may approve or reject buy-ins and complete the session.
type SessionMember struct {
	SessionID string      `json:"session_id"`
	UserID    string      `json:"user_id"`
	Role      SessionRole `json:"role"`
}
