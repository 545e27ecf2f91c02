// Package sync reconciles the local ledger with the remote service.
//
// Local writes always land in the store first with their pending flag set;
// the reconciler pushes dirty records out, then pulls remotely-newer
// records back in. Conflicts resolve last-writer-wins by wall-clock
// updatedAt, replacing records wholesale.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/anakol/pokerpot/internal/models"
	"github.com/anakol/pokerpot/internal/remote"
	"github.com/anakol/pokerpot/internal/storage"
)

// metadataLastSync is the app_metadata key holding the Unix timestamp of
// the last fully-successful sync.
const metadataLastSync = "last_sync_at"

// SyncError wraps a failure in one phase of a sync run.
type SyncError struct {
	Phase  string // "push" or "pull"
	Entity string
	Err    error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s %s: %v", e.Phase, e.Entity, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// Reconciler runs the push-then-pull cycle. Safe to call concurrently: a
// Sync arriving while another run is in flight is a no-op.
type Reconciler struct {
	store  storage.Store
	client remote.Client

	inFlight atomic.Bool

	runs     prometheus.Counter
	failures prometheus.Counter
}

// NewReconciler creates a reconciler and registers its metrics.
func NewReconciler(store storage.Store, client remote.Client, reg prometheus.Registerer) *Reconciler {
	r := &Reconciler{
		store:  store,
		client: client,
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pokerpot_sync_runs_total",
			Help: "Number of sync runs attempted while online.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pokerpot_sync_failures_total",
			Help: "Number of sync runs aborted by an error.",
		}),
	}
	if reg != nil {
		reg.MustRegister(r.runs, r.failures)
	}
	return r
}

// Start runs one sync immediately, then one per reconnect signal until the
// context is cancelled. There is no periodic polling.
func (r *Reconciler) Start(ctx context.Context, reconnect <-chan struct{}) {
	if err := r.Sync(ctx); err != nil {
		slog.Error("Startup sync failed", "error", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-reconnect:
				if !ok {
					return
				}
				if err := r.Sync(ctx); err != nil {
					slog.Error("Sync failed", "error", err)
				}
			}
		}
	}()
}

// Sync performs one push-then-pull cycle. When the remote is unreachable
// the whole run is skipped. Any error aborts the run without advancing the
// watermark; pending flags already cleared by the push phase stay cleared.
func (r *Reconciler) Sync(ctx context.Context) error {
	if !r.inFlight.CompareAndSwap(false, true) {
		slog.Debug("Sync already in flight, skipping")
		return nil
	}
	defer r.inFlight.Store(false)

	if !r.client.Online(ctx) {
		slog.Info("Remote unreachable, skipping sync")
		return nil
	}

	r.runs.Inc()
	start := time.Now().Unix()

	since, err := r.watermark(ctx)
	if err != nil {
		r.failures.Inc()
		return err
	}

	if err := r.push(ctx); err != nil {
		r.failures.Inc()
		return err
	}
	if err := r.pull(ctx, since); err != nil {
		r.failures.Inc()
		return err
	}

	if err := r.store.SetMetadata(ctx, metadataLastSync, strconv.FormatInt(start, 10)); err != nil {
		r.failures.Inc()
		return err
	}

	slog.Info("Sync completed", "since", since, "watermark", start)
	return nil
}

func (r *Reconciler) watermark(ctx context.Context) (int64, error) {
	raw, err := r.store.GetMetadata(ctx, metadataLastSync)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, nil
	}
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s value %q: %w", metadataLastSync, raw, err)
	}
	return ts, nil
}

// push sends every locally-dirty record to the remote, entity by entity,
// and clears the pending flag for each pushed batch.
func (r *Reconciler) push(ctx context.Context) error {
	if err := pushEntity(ctx, r, remote.EntitySessions,
		r.store.ListPendingSessions, r.store.MarkSessionsSynced,
		func(s *models.Session) string { return s.ID }); err != nil {
		return err
	}
	if err := pushEntity(ctx, r, remote.EntityMembers,
		r.store.ListPendingMembers, r.store.MarkMembersSynced,
		func(m *models.Member) string { return m.ID }); err != nil {
		return err
	}
	if err := pushEntity(ctx, r, remote.EntityBuyIns,
		r.store.ListPendingBuyIns, r.store.MarkBuyInsSynced,
		func(b *models.BuyIn) string { return b.ID }); err != nil {
		return err
	}
	if err := pushEntity(ctx, r, remote.EntityResults,
		r.store.ListPendingResults, r.store.MarkResultsSynced,
		func(res *models.Result) string { return res.ID }); err != nil {
		return err
	}
	return pushEntity(ctx, r, remote.EntitySettlements,
		r.store.ListPendingSettlements, r.store.MarkSettlementsSynced,
		func(st *models.Settlement) string { return st.ID })
}

func pushEntity[T any](
	ctx context.Context,
	r *Reconciler,
	entity string,
	listPending func(context.Context) ([]T, error),
	markSynced func(context.Context, []string) error,
	id func(T) string,
) error {
	records, err := listPending(ctx)
	if err != nil {
		return &SyncError{Phase: "push", Entity: entity, Err: err}
	}
	if len(records) == 0 {
		return nil
	}

	if err := r.client.Upsert(ctx, entity, records); err != nil {
		return &SyncError{Phase: "push", Entity: entity, Err: err}
	}

	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = id(rec)
	}
	if err := markSynced(ctx, ids); err != nil {
		return &SyncError{Phase: "push", Entity: entity, Err: err}
	}

	slog.Debug("Pushed records", "entity", entity, "count", len(ids))
	return nil
}

// pull fetches remote records changed since the watermark and applies each
// one unless the local copy is newer or equally new.
func (r *Reconciler) pull(ctx context.Context, since int64) error {
	if err := pullEntity(ctx, r, remote.EntitySessions, since,
		func(s *models.Session) (int64, error) {
			local, err := r.store.GetSession(ctx, s.ID)
			if err != nil {
				return 0, err
			}
			return local.UpdatedAt, nil
		},
		func(s *models.Session) error { return r.store.UpsertSession(ctx, s) },
		func(s *models.Session) int64 { return s.UpdatedAt }); err != nil {
		return err
	}
	if err := pullEntity(ctx, r, remote.EntityMembers, since,
		func(m *models.Member) (int64, error) {
			local, err := r.store.GetMember(ctx, m.ID)
			if err != nil {
				return 0, err
			}
			return local.UpdatedAt, nil
		},
		func(m *models.Member) error { return r.store.UpsertMember(ctx, m) },
		func(m *models.Member) int64 { return m.UpdatedAt }); err != nil {
		return err
	}
	// Buy-ins carry no updatedAt; the approval transition is the only
	// change after creation, so the modification time is whichever of
	// createdAt/approvedAt is later.
	if err := pullEntity(ctx, r, remote.EntityBuyIns, since,
		func(b *models.BuyIn) (int64, error) {
			local, err := r.store.GetBuyIn(ctx, b.ID)
			if err != nil {
				return 0, err
			}
			return buyInModifiedAt(local), nil
		},
		func(b *models.BuyIn) error { return r.store.UpsertBuyIn(ctx, b) },
		buyInModifiedAt); err != nil {
		return err
	}
	if err := pullEntity(ctx, r, remote.EntityResults, since,
		func(res *models.Result) (int64, error) {
			local, err := r.store.GetResult(ctx, res.SessionID, res.MemberID)
			if err != nil {
				return 0, err
			}
			return local.UpdatedAt, nil
		},
		func(res *models.Result) error { return r.store.UpsertResult(ctx, res) },
		func(res *models.Result) int64 { return res.UpdatedAt }); err != nil {
		return err
	}
	return pullEntity(ctx, r, remote.EntitySettlements, since,
		func(st *models.Settlement) (int64, error) {
			local, err := r.store.GetSettlement(ctx, st.ID)
			if err != nil {
				return 0, err
			}
			return settlementModifiedAt(local), nil
		},
		func(st *models.Settlement) error { return r.store.UpsertSettlement(ctx, st) },
		settlementModifiedAt)
}

func buyInModifiedAt(b *models.BuyIn) int64 {
	if b.ApprovedAt > b.CreatedAt {
		return b.ApprovedAt
	}
	return b.CreatedAt
}

func settlementModifiedAt(st *models.Settlement) int64 {
	if st.PaidAt > st.SettledAt {
		return st.PaidAt
	}
	return st.SettledAt
}

func pullEntity[T any](
	ctx context.Context,
	r *Reconciler,
	entity string,
	since int64,
	localModifiedAt func(T) (int64, error),
	upsert func(T) error,
	modifiedAt func(T) int64,
) error {
	records, err := r.client.FetchChangesSince(ctx, entity, since)
	if err != nil {
		return &SyncError{Phase: "pull", Entity: entity, Err: err}
	}

	applied := 0
	for _, raw := range records {
		record, err := decode[T](raw)
		if err != nil {
			return &SyncError{Phase: "pull", Entity: entity, Err: err}
		}

		localAt, err := localModifiedAt(record)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			// No local copy, take the remote one.
		case err != nil:
			return &SyncError{Phase: "pull", Entity: entity, Err: err}
		case localAt >= modifiedAt(record):
			// Local copy is newer or equally new; local wins ties.
			continue
		}

		if err := upsert(record); err != nil {
			return &SyncError{Phase: "pull", Entity: entity, Err: err}
		}
		applied++
	}

	if applied > 0 {
		slog.Debug("Pulled records", "entity", entity, "fetched", len(records), "applied", applied)
	}
	return nil
}

func decode[T any](raw json.RawMessage) (T, error) {
	var record T
	err := json.Unmarshal(raw, &record)
	return record, err
}
