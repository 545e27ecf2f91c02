// Package models defines the core domain models for Pokerpot.
//
// # Models
//
//   - Session: one poker night, identified externally by a short join code
//   - Member: a seat at a session, optionally linked to a User account
//   - BuyIn: money a member put into the pot, gated by admin approval
//   - Result: a member's final cashout and derived net for a session
//   - Settlement: one directed payment instruction that clears debts
//   - Adjustment: a user-scoped correction to lifetime totals
//   - User: a registered account
//
// # Design Principles
//
//  1. **Integer cents everywhere**: amounts are money.Cents, never floats
//  2. **Local-first**: records carry a PendingSync flag; they are created
//     optimistically on the device and reconciled with the remote store later
//  3. **Avoid circular references**: relationships use ID strings, not pointers
//  4. **Timestamps are Unix seconds** unless a field doc says otherwise
package models
