package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/anakol/pokerpot/internal/models"
	"github.com/anakol/pokerpot/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "pokerpot-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func createTestSession(t *testing.T, store *SQLiteStore) *models.Session {
	t.Helper()
	session := &models.Session{Name: "Friday Night", JoinCode: newCode(t)}
	if err := store.CreateSession(context.Background(), session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return session
}

var codeCounter int

// newCode returns a unique 6-char code per call, since join_code carries a
// UNIQUE constraint.
func newCode(t *testing.T) string {
	t.Helper()
	codeCounter++
	return string(rune('A'+codeCounter%26)) + "BC12" + string(rune('0'+codeCounter%10))
}

func TestSessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateSession defaults ID, status and pending flag", func(t *testing.T) {
		session := createTestSession(t, store)

		if session.ID == "" {
			t.Error("Expected session ID to be generated")
		}
		if session.Status != models.SessionActive {
			t.Errorf("Status = %s, want active", session.Status)
		}
		if !session.PendingSync {
			t.Error("Expected new session to be pending sync")
		}

		got, err := store.GetSession(ctx, session.ID)
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if got.Name != session.Name || got.JoinCode != session.JoinCode {
			t.Errorf("retrieved session mismatch: %+v", got)
		}
	})

	t.Run("GetSessionByJoinCode", func(t *testing.T) {
		session := createTestSession(t, store)
		got, err := store.GetSessionByJoinCode(ctx, session.JoinCode)
		if err != nil {
			t.Fatalf("GetSessionByJoinCode failed: %v", err)
		}
		if got.ID != session.ID {
			t.Errorf("got session %s, want %s", got.ID, session.ID)
		}

		_, err = store.GetSessionByJoinCode(ctx, "ZZZZZZ")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("session roles", func(t *testing.T) {
		session := createTestSession(t, store)
		err := store.AddSessionMember(ctx, &models.SessionMember{
			SessionID: session.ID, UserID: "u1", Role: models.RoleAdmin,
		})
		if err != nil {
			t.Fatalf("AddSessionMember failed: %v", err)
		}

		role, err := store.GetSessionRole(ctx, session.ID, "u1")
		if err != nil {
			t.Fatalf("GetSessionRole failed: %v", err)
		}
		if role != models.RoleAdmin {
			t.Errorf("role = %s, want admin", role)
		}

		_, err = store.GetSessionRole(ctx, session.ID, "stranger")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound for non-member, got %v", err)
		}
	})
}

func TestBuyIns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	session := createTestSession(t, store)
	member := &models.Member{SessionID: session.ID, Name: "Alice"}
	if err := store.CreateMember(ctx, member); err != nil {
		t.Fatalf("CreateMember failed: %v", err)
	}

	t.Run("approve transitions once", func(t *testing.T) {
		buyIn := &models.BuyIn{SessionID: session.ID, MemberID: member.ID, AmountCents: 5000}
		if err := store.CreateBuyIn(ctx, buyIn); err != nil {
			t.Fatalf("CreateBuyIn failed: %v", err)
		}

		if err := store.ApproveBuyIn(ctx, buyIn.ID, "admin1", 1000); err != nil {
			t.Fatalf("ApproveBuyIn failed: %v", err)
		}

		got, err := store.GetBuyIn(ctx, buyIn.ID)
		if err != nil {
			t.Fatalf("GetBuyIn failed: %v", err)
		}
		if !got.Approved || got.ApprovedBy != "admin1" || got.ApprovedAt != 1000 {
			t.Errorf("approval fields not set: %+v", got)
		}

		// Second approval must report not-found (no pending row matches).
		err = store.ApproveBuyIn(ctx, buyIn.ID, "admin2", 2000)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound on double approval, got %v", err)
		}
	})

	t.Run("pending approval is newest first", func(t *testing.T) {
		first := &models.BuyIn{SessionID: session.ID, MemberID: member.ID, AmountCents: 1000, CreatedAt: 100}
		second := &models.BuyIn{SessionID: session.ID, MemberID: member.ID, AmountCents: 2000, CreatedAt: 200}
		if err := store.CreateBuyIns(ctx, []*models.BuyIn{first, second}); err != nil {
			t.Fatalf("CreateBuyIns failed: %v", err)
		}

		pending, err := store.ListPendingApproval(ctx, session.ID)
		if err != nil {
			t.Fatalf("ListPendingApproval failed: %v", err)
		}
		if len(pending) != 2 {
			t.Fatalf("got %d pending buy-ins, want 2", len(pending))
		}
		if pending[0].ID != second.ID {
			t.Errorf("expected newest buy-in first, got %s", pending[0].ID)
		}
	})

	t.Run("reject deletes the row", func(t *testing.T) {
		buyIn := &models.BuyIn{SessionID: session.ID, MemberID: member.ID, AmountCents: 3000}
		if err := store.CreateBuyIn(ctx, buyIn); err != nil {
			t.Fatalf("CreateBuyIn failed: %v", err)
		}
		if err := store.DeleteBuyIn(ctx, buyIn.ID); err != nil {
			t.Fatalf("DeleteBuyIn failed: %v", err)
		}
		_, err := store.GetBuyIn(ctx, buyIn.ID)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestResults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	session := createTestSession(t, store)
	member := &models.Member{SessionID: session.ID, Name: "Bob", UserID: "u-bob"}
	if err := store.CreateMember(ctx, member); err != nil {
		t.Fatalf("CreateMember failed: %v", err)
	}

	t.Run("upsert replaces on conflict", func(t *testing.T) {
		first := &models.Result{
			SessionID: session.ID, MemberID: member.ID,
			CashoutCents: 5000, NetCents: 1000, PendingSync: true,
		}
		if err := store.UpsertResult(ctx, first); err != nil {
			t.Fatalf("UpsertResult failed: %v", err)
		}

		second := &models.Result{
			SessionID: session.ID, MemberID: member.ID,
			CashoutCents: 8000, NetCents: 4000, PendingSync: true,
		}
		if err := store.UpsertResult(ctx, second); err != nil {
			t.Fatalf("second UpsertResult failed: %v", err)
		}

		results, err := store.ListResults(ctx, session.ID)
		if err != nil {
			t.Fatalf("ListResults failed: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("got %d results, want 1 per (session, member)", len(results))
		}
		if results[0].CashoutCents != 8000 {
			t.Errorf("cashout = %d, want 8000", results[0].CashoutCents)
		}
	})

	t.Run("user session results are scoped to the user", func(t *testing.T) {
		other := &models.Member{SessionID: session.ID, Name: "Carol", UserID: "u-carol"}
		if err := store.CreateMember(ctx, other); err != nil {
			t.Fatalf("CreateMember failed: %v", err)
		}
		if err := store.UpsertResult(ctx, &models.Result{
			SessionID: session.ID, MemberID: other.ID, CashoutCents: 100, NetCents: -900,
		}); err != nil {
			t.Fatalf("UpsertResult failed: %v", err)
		}

		rows, err := store.ListUserSessionResults(ctx, "u-bob")
		if err != nil {
			t.Fatalf("ListUserSessionResults failed: %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("got %d rows, want 1", len(rows))
		}
		if rows[0].NetCents != 4000 {
			t.Errorf("net = %d, want 4000", rows[0].NetCents)
		}
	})
}

func TestSettlementsAndCompletion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	session := createTestSession(t, store)
	settlements := []*models.Settlement{
		{SessionID: session.ID, FromMemberID: "m1", ToMemberID: "m2", AmountCents: 3000},
		{SessionID: session.ID, FromMemberID: "m1", ToMemberID: "m3", AmountCents: 2000},
	}

	if err := store.CreateSettlements(ctx, session, settlements); err != nil {
		t.Fatalf("CreateSettlements failed: %v", err)
	}

	got, err := store.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.Status != models.SessionCompleted {
		t.Errorf("session status = %s, want completed", got.Status)
	}

	listed, err := store.ListSettlements(ctx, session.ID)
	if err != nil {
		t.Fatalf("ListSettlements failed: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("got %d settlements, want 2", len(listed))
	}

	t.Run("mark paid round trip", func(t *testing.T) {
		id := listed[0].ID
		if err := store.SetSettlementPaid(ctx, id, true, "u1", 12345); err != nil {
			t.Fatalf("SetSettlementPaid failed: %v", err)
		}
		paid, err := store.GetSettlement(ctx, id)
		if err != nil {
			t.Fatalf("GetSettlement failed: %v", err)
		}
		if !paid.Paid || paid.PaidBy != "u1" || paid.PaidAt != 12345 {
			t.Errorf("paid fields not set: %+v", paid)
		}

		if err := store.SetSettlementPaid(ctx, id, false, "", 0); err != nil {
			t.Fatalf("unpaid toggle failed: %v", err)
		}
		unpaid, _ := store.GetSettlement(ctx, id)
		if unpaid.Paid || unpaid.PaidBy != "" || unpaid.PaidAt != 0 {
			t.Errorf("paid fields not cleared: %+v", unpaid)
		}
	})
}

func TestCascadeDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	session := createTestSession(t, store)
	member := &models.Member{SessionID: session.ID, Name: "Dave"}
	if err := store.CreateMember(ctx, member); err != nil {
		t.Fatalf("CreateMember failed: %v", err)
	}
	buyIn := &models.BuyIn{SessionID: session.ID, MemberID: member.ID, AmountCents: 1000}
	if err := store.CreateBuyIn(ctx, buyIn); err != nil {
		t.Fatalf("CreateBuyIn failed: %v", err)
	}
	if err := store.UpsertResult(ctx, &models.Result{
		SessionID: session.ID, MemberID: member.ID, CashoutCents: 1000,
	}); err != nil {
		t.Fatalf("UpsertResult failed: %v", err)
	}

	if err := store.DeleteSession(ctx, session.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	if _, err := store.GetMember(ctx, member.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("member survived cascade: %v", err)
	}
	if _, err := store.GetBuyIn(ctx, buyIn.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("buy-in survived cascade: %v", err)
	}
	results, err := store.ListResults(ctx, session.ID)
	if err != nil {
		t.Fatalf("ListResults failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results survived cascade: %d rows", len(results))
	}
}

func TestPendingSyncFlow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	session := createTestSession(t, store)

	pending, err := store.ListPendingSessions(ctx)
	if err != nil {
		t.Fatalf("ListPendingSessions failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("got %d pending sessions, want 1", len(pending))
	}

	if err := store.MarkSessionsSynced(ctx, []string{session.ID}); err != nil {
		t.Fatalf("MarkSessionsSynced failed: %v", err)
	}

	pending, err = store.ListPendingSessions(ctx)
	if err != nil {
		t.Fatalf("ListPendingSessions failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("got %d pending sessions after sync, want 0", len(pending))
	}

	t.Run("upsert from pull keeps records clean", func(t *testing.T) {
		remote := *session
		remote.Name = "Renamed Remotely"
		remote.UpdatedAt = session.UpdatedAt + 10
		remote.PendingSync = false
		if err := store.UpsertSession(ctx, &remote); err != nil {
			t.Fatalf("UpsertSession failed: %v", err)
		}

		got, err := store.GetSession(ctx, session.ID)
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if got.Name != "Renamed Remotely" {
			t.Errorf("name = %q, want remote value", got.Name)
		}
		if got.PendingSync {
			t.Error("pulled record must not be pending sync")
		}
	})
}

func TestMetadata(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	value, err := store.GetMetadata(ctx, "last_sync_at")
	if err != nil {
		t.Fatalf("GetMetadata failed: %v", err)
	}
	if value != "" {
		t.Errorf("absent key = %q, want empty", value)
	}

	if err := store.SetMetadata(ctx, "last_sync_at", "12345"); err != nil {
		t.Fatalf("SetMetadata failed: %v", err)
	}
	if err := store.SetMetadata(ctx, "last_sync_at", "67890"); err != nil {
		t.Fatalf("SetMetadata overwrite failed: %v", err)
	}

	value, err = store.GetMetadata(ctx, "last_sync_at")
	if err != nil {
		t.Fatalf("GetMetadata failed: %v", err)
	}
	if value != "67890" {
		t.Errorf("value = %q, want 67890", value)
	}
}
