package calculator

import (
	"sort"

	"github.com/anakol/pokerpot/internal/money"
)

// Transfer is one directed payment: From pays To AmountCents.
type Transfer struct {
	FromMemberID   string
	FromMemberName string
	ToMemberID     string
	ToMemberName   string
	AmountCents    money.Cents
}

// CalculateSettlements computes a minimal set of payments that zeroes out
// the given balances.
//
// Callers must ensure the balances sum to zero; the function does not
// re-validate, and unbalanced input leaves residual on the last
// creditor or debtor.
//
// Algorithm (greedy two-pointer matching):
//  1. Partition into creditors (> 0) and debtors (< 0).
//  2. Sort creditors descending, debtors most-negative first. Ties keep
//     input order.
//  3. Walk both lists, transferring min(|debtor|, creditor) each step and
//     advancing whichever side hits exactly zero (possibly both).
//
// The result has at most n-1 transfers for n non-zero balances. It is the
// standard greedy largest-first approximation, not a guaranteed optimum
// over all pairings (that problem is NP-hard).
func CalculateSettlements(balances []MemberBalance) []Transfer {
	var creditors, debtors []MemberBalance
	for _, b := range balances {
		switch {
		case b.TotalCents > 0:
			creditors = append(creditors, b)
		case b.TotalCents < 0:
			debtors = append(debtors, b)
		}
	}
	if len(creditors) == 0 || len(debtors) == 0 {
		return nil
	}

	sort.SliceStable(creditors, func(i, j int) bool {
		return creditors[i].TotalCents > creditors[j].TotalCents
	})
	sort.SliceStable(debtors, func(i, j int) bool {
		return debtors[i].TotalCents < debtors[j].TotalCents
	})

	var transfers []Transfer
	i, j := 0, 0
	for i < len(creditors) && j < len(debtors) {
		owed := creditors[i].TotalCents
		debt := -debtors[j].TotalCents

		amount := owed
		if debt < amount {
			amount = debt
		}

		transfers = append(transfers, Transfer{
			FromMemberID:   debtors[j].MemberID,
			FromMemberName: debtors[j].MemberName,
			ToMemberID:     creditors[i].MemberID,
			ToMemberName:   creditors[i].MemberName,
			AmountCents:    amount,
		})

		creditors[i].TotalCents -= amount
		debtors[j].TotalCents += amount

		if creditors[i].TotalCents == 0 {
			i++
		}
		if debtors[j].TotalCents == 0 {
			j++
		}
	}

	return transfers
}
