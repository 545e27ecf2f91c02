// Package ledger implements the application services over the ledger
// store: sessions, buy-in approval, cashouts, balances and settlement
// generation.
package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/anakol/pokerpot/internal/money"
	"github.com/anakol/pokerpot/internal/storage"
)

// ErrNotFound is returned when a referenced session, member, buy-in or
// result does not exist. It aliases the storage sentinel so errors.Is
// works across both layers.
var ErrNotFound = storage.ErrNotFound

// ErrPermissionDenied is returned when a non-admin attempts an admin-only
// transition, or a member tries to edit a record they do not own. The
// check happens at the service boundary before any mutation.
var ErrPermissionDenied = errors.New("permission denied")

// ErrSessionCompleted is returned when attempting to modify a session
// after its irreversible transition to completed.
var ErrSessionCompleted = errors.New("session is completed")

// ValidationError reports invalid input or a totals mismatch. For the
// session-completion sum check, DiscrepancyCents carries the computed
// difference so the admin can reconcile.
type ValidationError struct {
	Msg              string
	DiscrepancyCents money.Cents
}

func (e *ValidationError) Error() string {
	if e.DiscrepancyCents != 0 {
		return fmt.Sprintf("%s (discrepancy %s)", e.Msg, money.FormatWithSign(e.DiscrepancyCents))
	}
	return e.Msg
}

// PartialBulkError aggregates per-item failures from a bulk approve or
// reject. Items that succeeded before or alongside the failures remain
// applied; the transition is at-least-partial-success, not atomic.
type PartialBulkError struct {
	Failed map[string]error
}

func (e *PartialBulkError) Error() string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return fmt.Sprintf("%d of bulk items failed: %v", len(ids), ids)
}
