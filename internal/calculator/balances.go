// Package calculator implements the pure balance and settlement math.
// Nothing in this package touches storage; services load the ledger and
// feed it in.
package calculator

import (
	"github.com/anakol/pokerpot/internal/models"
	"github.com/anakol/pokerpot/internal/money"
)

// MemberBalance is one member's net position within a session.
// Positive TotalCents means the pot owes the member money; negative means
// the member owes the pot.
type MemberBalance struct {
	MemberID   string      `json:"member_id"`
	MemberName string      `json:"member_name"`
	TotalCents money.Cents `json:"total_cents"`
}

// MemberBalances derives each member's net result for a session:
//
//	total = cashout - sum(approved buy-ins)
//
// Unapproved buy-ins never count. A member with no result record
// contributes -sum(approved buy-ins): they bought in but have not cashed
// out yet, which is only meaningful before the session completes.
//
// Output order matches the members input order.
func MemberBalances(members []models.Member, buyIns []models.BuyIn, results []models.Result) []MemberBalance {
	bought := make(map[string]money.Cents, len(members))
	for _, b := range buyIns {
		if !b.Approved {
			continue
		}
		bought[b.MemberID] += b.AmountCents
	}

	cashouts := make(map[string]money.Cents, len(results))
	for _, r := range results {
		cashouts[r.MemberID] = r.CashoutCents
	}

	balances := make([]MemberBalance, 0, len(members))
	for _, m := range members {
		balances = append(balances, MemberBalance{
			MemberID:   m.ID,
			MemberName: m.Name,
			TotalCents: cashouts[m.ID] - bought[m.ID],
		})
	}
	return balances
}

// SessionNet is a user's own net result for one session, used in lifetime
// statistics.
type SessionNet struct {
	SessionID   string      `json:"session_id"`
	SessionName string      `json:"session_name"`
	NetCents    money.Cents `json:"net_cents"`
}

// LifetimeNet sums a user's net results across sessions plus their manual
// adjustments. Only the user's own results belong in perSession; the
// query boundary enforces that, not this function.
func LifetimeNet(perSession []SessionNet, adjustments []models.Adjustment) money.Cents {
	var total money.Cents
	for _, s := range perSession {
		total += s.NetCents
	}
	for _, a := range adjustments {
		total += a.AmountCents
	}
	return total
}
