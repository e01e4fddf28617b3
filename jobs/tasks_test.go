package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ledgerdesk/ledgerdesk/internal/ledger"
)

type mockPurger struct {
	cutoff time.Time
	purged int64
}

func (m *mockPurger) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.cutoff = cutoff
	return m.purged, nil
}

func TestTrashSweepHandler(t *testing.T) {
	purger := &mockPurger{purged: 3}
	handler := NewTrashSweepHandler(purger, 90*24*time.Hour, slog.Default())

	task, err := NewTrashSweepTask(TrashSweepPayload{Retention: 30 * 24 * time.Hour})
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), task))
	wantCutoff := time.Now().Add(-30 * 24 * time.Hour)
	require.WithinDuration(t, wantCutoff, purger.cutoff, time.Minute)
}

func TestTrashSweepHandlerDefaultRetention(t *testing.T) {
	purger := &mockPurger{}
	handler := NewTrashSweepHandler(purger, 90*24*time.Hour, slog.Default())

	task, err := NewTrashSweepTask(TrashSweepPayload{})
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), task))
	wantCutoff := time.Now().Add(-90 * 24 * time.Hour)
	require.WithinDuration(t, wantCutoff, purger.cutoff, time.Minute)
}

func TestTrashSweepHandlerBadPayload(t *testing.T) {
	handler := NewTrashSweepHandler(&mockPurger{}, time.Hour, slog.Default())
	err := handler(context.Background(), asynq.NewTask(TaskTrashSweep, []byte("{broken")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

type mockChecker struct {
	used map[string]bool
}

func (m *mockChecker) TransactionIDUsedSince(ctx context.Context, transactionID string, since time.Time) (bool, error) {
	return m.used[transactionID], nil
}

func TestReservationCleanupHandler(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	// Landed: the database row exists, the claim is redundant.
	require.NoError(t, client.Set(ctx, ledger.ReservationKeyPrefix+"UTR-1", 1, time.Hour).Err())
	// In flight: claimed but not yet inserted, must survive.
	require.NoError(t, client.Set(ctx, ledger.ReservationKeyPrefix+"UTR-2", 1, time.Hour).Err())
	// Orphaned: lost its TTL, dropped outright.
	require.NoError(t, client.Set(ctx, ledger.ReservationKeyPrefix+"UTR-3", 1, 0).Err())

	checker := &mockChecker{used: map[string]bool{"UTR-1": true}}
	handler := NewReservationCleanupHandler(client, checker, 48*time.Hour, slog.Default())

	payload, err := json.Marshal(ReservationCleanupPayload{})
	require.NoError(t, err)
	require.NoError(t, handler(ctx, asynq.NewTask(TaskReservationCleanup, payload)))

	require.Equal(t, int64(0), client.Exists(ctx, ledger.ReservationKeyPrefix+"UTR-1").Val())
	require.Equal(t, int64(1), client.Exists(ctx, ledger.ReservationKeyPrefix+"UTR-2").Val())
	require.Equal(t, int64(0), client.Exists(ctx, ledger.ReservationKeyPrefix+"UTR-3").Val())
}
