package sync

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anakol/pokerpot/internal/models"
	"github.com/anakol/pokerpot/internal/remote"
	"github.com/anakol/pokerpot/internal/storage"
	"github.com/anakol/pokerpot/internal/storage/sqlite"
)

type fakeRemote struct {
	online  bool
	changes map[string][]json.RawMessage
	pushed  map[string]int
	pullErr error

	// blockOnline, when set, holds Online until the channel is closed.
	blockOnline chan struct{}

	lastSince map[string]int64
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		online:    true,
		changes:   map[string][]json.RawMessage{},
		pushed:    map[string]int{},
		lastSince: map[string]int64{},
	}
}

func (f *fakeRemote) Online(ctx context.Context) bool {
	if f.blockOnline != nil {
		<-f.blockOnline
	}
	return f.online
}

func (f *fakeRemote) FetchChangesSince(ctx context.Context, entity string, since int64) ([]json.RawMessage, error) {
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	f.lastSince[entity] = since
	return f.changes[entity], nil
}

func (f *fakeRemote) Upsert(ctx context.Context, entity string, records any) error {
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	var batch []json.RawMessage
	if err := json.Unmarshal(data, &batch); err != nil {
		return err
	}
	f.pushed[entity] += len(batch)
	return nil
}

func (f *fakeRemote) FetchSessionByJoinCode(ctx context.Context, code string) (*models.Session, error) {
	return nil, storage.ErrNotFound
}

func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

// seedSession places a clean session/member pair so pulled child records
// have their foreign keys satisfied.
func seedSession(t *testing.T, store *sqlite.SQLiteStore) (*models.Session, *models.Member) {
	t.Helper()
	ctx := context.Background()

	session := &models.Session{
		ID: "s1", Name: "Game", JoinCode: "AAAAAA",
		Status:    models.SessionActive,
		CreatedAt: 1000, UpdatedAt: 1000,
	}
	require.NoError(t, store.UpsertSession(ctx, session))

	member := &models.Member{
		ID: "m1", SessionID: "s1", Name: "Alice",
		CreatedAt: 1000, UpdatedAt: 1000,
	}
	require.NoError(t, store.UpsertMember(ctx, member))
	return session, member
}

func TestSyncPushClearsPendingFlags(t *testing.T) {
	store := newTestStore(t)
	client := newFakeRemote()
	r := NewReconciler(store, client, nil)
	ctx := context.Background()

	session := &models.Session{Name: "Game", JoinCode: "BBBBBB"}
	require.NoError(t, store.CreateSession(ctx, session))

	require.NoError(t, r.Sync(ctx))

	assert.Equal(t, 1, client.pushed[remote.EntitySessions])

	pending, err := store.ListPendingSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// The watermark is set after a fully-successful run.
	mark, err := store.GetMetadata(ctx, "last_sync_at")
	require.NoError(t, err)
	assert.NotEmpty(t, mark)
}

func TestSyncPullLastWriterWins(t *testing.T) {
	ctx := context.Background()

	newer := &models.Result{
		ID: "r1", SessionID: "s1", MemberID: "m1",
		NetCents: 200, CashoutCents: 300, UpdatedAt: 2000,
	}
	older := &models.Result{
		ID: "r1", SessionID: "s1", MemberID: "m1",
		NetCents: 200, CashoutCents: 300, UpdatedAt: 500,
	}

	tests := []struct {
		name     string
		pulled   *models.Result
		wantNet  int64
		wantTime int64
	}{
		{name: "strictly newer remote overwrites", pulled: newer, wantNet: 200, wantTime: 2000},
		{name: "older remote is discarded", pulled: older, wantNet: 100, wantTime: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			seedSession(t, store)

			local := &models.Result{
				ID: "r1", SessionID: "s1", MemberID: "m1",
				NetCents: 100, CashoutCents: 150, UpdatedAt: 1000,
			}
			require.NoError(t, store.UpsertResult(ctx, local))

			client := newFakeRemote()
			client.changes[remote.EntityResults] = []json.RawMessage{raw(t, tt.pulled)}
			r := NewReconciler(store, client, nil)

			require.NoError(t, r.Sync(ctx))

			got, err := store.GetResult(ctx, "s1", "m1")
			require.NoError(t, err)
			assert.EqualValues(t, tt.wantNet, got.NetCents)
			assert.EqualValues(t, tt.wantTime, got.UpdatedAt)
			assert.False(t, got.PendingSync)
		})
	}
}

func TestSyncPullTieKeepsLocal(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedSession(t, store)

	local := &models.Result{
		ID: "r1", SessionID: "s1", MemberID: "m1",
		NetCents: 100, CashoutCents: 150, UpdatedAt: 1000,
	}
	require.NoError(t, store.UpsertResult(ctx, local))

	tied := &models.Result{
		ID: "r1", SessionID: "s1", MemberID: "m1",
		NetCents: 999, CashoutCents: 999, UpdatedAt: 1000,
	}
	client := newFakeRemote()
	client.changes[remote.EntityResults] = []json.RawMessage{raw(t, tied)}

	require.NoError(t, NewReconciler(store, client, nil).Sync(ctx))

	got, err := store.GetResult(ctx, "s1", "m1")
	require.NoError(t, err)
	assert.EqualValues(t, 100, got.NetCents)
}

func TestSyncPullMissingLocalIsAdopted(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedSession(t, store)

	pulled := &models.BuyIn{
		ID: "b1", SessionID: "s1", MemberID: "m1",
		AmountCents: 5000, CreatedAt: 1500,
	}
	client := newFakeRemote()
	client.changes[remote.EntityBuyIns] = []json.RawMessage{raw(t, pulled)}

	require.NoError(t, NewReconciler(store, client, nil).Sync(ctx))

	got, err := store.GetBuyIn(ctx, "b1")
	require.NoError(t, err)
	assert.EqualValues(t, 5000, got.AmountCents)
	assert.False(t, got.PendingSync)
}

func TestSyncSkipsWhenOffline(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	session := &models.Session{Name: "Game", JoinCode: "CCCCCC"}
	require.NoError(t, store.CreateSession(ctx, session))

	client := newFakeRemote()
	client.online = false

	require.NoError(t, NewReconciler(store, client, nil).Sync(ctx))

	assert.Zero(t, client.pushed[remote.EntitySessions])
	pending, err := store.ListPendingSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	mark, err := store.GetMetadata(ctx, "last_sync_at")
	require.NoError(t, err)
	assert.Empty(t, mark)
}

func TestSyncPullFailureDoesNotAdvanceWatermark(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	session := &models.Session{Name: "Game", JoinCode: "DDDDDD"}
	require.NoError(t, store.CreateSession(ctx, session))

	client := newFakeRemote()
	client.pullErr = errors.New("remote exploded")

	err := NewReconciler(store, client, nil).Sync(ctx)
	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, "pull", syncErr.Phase)

	// The push phase ran and cleared flags before the pull failed; those
	// flags stay cleared even though the run failed.
	pending, listErr := store.ListPendingSessions(ctx)
	require.NoError(t, listErr)
	assert.Empty(t, pending)

	mark, getErr := store.GetMetadata(ctx, "last_sync_at")
	require.NoError(t, getErr)
	assert.Empty(t, mark)
}

func TestSyncResumesFromWatermark(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SetMetadata(ctx, "last_sync_at", "1234"))

	client := newFakeRemote()
	require.NoError(t, NewReconciler(store, client, nil).Sync(ctx))

	assert.EqualValues(t, 1234, client.lastSince[remote.EntitySessions])
	assert.EqualValues(t, 1234, client.lastSince[remote.EntityResults])
}

func TestSyncOverlappingCallIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	client := newFakeRemote()
	client.blockOnline = make(chan struct{})
	r := NewReconciler(store, client, nil)

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(started)
		done <- r.Sync(ctx)
	}()
	<-started

	// Give the first call time to take the in-flight guard, then the
	// second call must return immediately without touching the remote.
	deadline := time.After(2 * time.Second)
	for !r.inFlight.Load() {
		select {
		case <-deadline:
			t.Fatal("first sync never took the guard")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	require.NoError(t, r.Sync(ctx))
	assert.Empty(t, client.lastSince, "overlapping call must not reach the remote")

	close(client.blockOnline)
	require.NoError(t, <-done)
}
