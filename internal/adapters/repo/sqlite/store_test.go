package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bnema/shiftlog/internal/domain"
	"github.com/bnema/shiftlog/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "shiftlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

var baseTime = time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

func TestStoreCreateAndFindActiveSession(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	created, err := store.CreateSession(ctx, domain.NewSession("guild", "alice", baseTime))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	found, err := store.FindActiveSession(ctx, "guild", "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.True(t, baseTime.Equal(found.StartAt))
	assert.Nil(t, found.EndAt)

	_, err = store.CreateSession(ctx, domain.NewSession("guild", "alice", baseTime))
	require.ErrorIs(t, err, domain.ErrConflict)

	_, err = store.FindActiveSession(ctx, "guild", "bob")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = store.GetSession(ctx, 404)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStoreApplyTransitionPersistsPauses(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	schedule := domain.Schedule{Location: time.UTC, Windows: []domain.Window{{Start: 960, End: 1080}}}

	session, err := store.CreateSession(ctx, domain.NewSession("guild", "alice", baseTime))
	require.NoError(t, err)

	paused, err := session.Pause(baseTime.Add(30*time.Minute), nil)
	require.NoError(t, err)
	require.NoError(t, store.ApplyTransition(ctx, paused))

	pauses, err := store.ListPauses(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, pauses, 1)
	assert.True(t, pauses[0].IsOpen())

	resumed, err := paused.Session.Resume(baseTime.Add(90*time.Minute), pauses)
	require.NoError(t, err)
	require.NoError(t, store.ApplyTransition(ctx, resumed))

	pauses, err = store.ListPauses(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, pauses, 1)
	require.NotNil(t, pauses[0].End)

	closed, err := resumed.Session.Close(baseTime.Add(3*time.Hour), domain.CloseReasonUser, pauses, schedule)
	require.NoError(t, err)
	require.NoError(t, store.ApplyTransition(ctx, closed))

	stored, err := store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, stored.Status)
	assert.Equal(t, int64(30), stored.NormalMinutes)
	assert.Equal(t, int64(90), stored.StellarMinutes)
	assert.Equal(t, domain.CloseReasonUser, stored.CloseReason)
	require.NotNil(t, stored.EndAt)

	_, err = store.FindActiveSession(ctx, "guild", "alice")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStoreApplyTransitionGuardsStatus(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	schedule := domain.Schedule{Location: time.UTC}

	session, err := store.CreateSession(ctx, domain.NewSession("guild", "alice", baseTime))
	require.NoError(t, err)

	first, err := session.Close(baseTime.Add(time.Hour), domain.CloseReasonUser, nil, schedule)
	require.NoError(t, err)
	second, err := session.Close(baseTime.Add(2*time.Hour), domain.CloseReasonTimeout, nil, schedule)
	require.NoError(t, err)

	require.NoError(t, store.ApplyTransition(ctx, first))
	require.ErrorIs(t, store.ApplyTransition(ctx, second), domain.ErrAlreadyClosed)

	stored, err := store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(60), stored.NormalMinutes)
	assert.Equal(t, domain.CloseReasonUser, stored.CloseReason)
}

func TestStoreUpdatePing(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	session, err := store.CreateSession(ctx, domain.NewSession("guild", "alice", baseTime))
	require.NoError(t, err)

	pingAt := baseTime.Add(2 * time.Hour)
	session.LastPingAt = &pingAt
	session.PendingPing = true
	require.NoError(t, store.UpdatePing(ctx, session))

	open, err := store.ListOpenSessions(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.True(t, open[0].PendingPing)
	assert.True(t, pingAt.Equal(*open[0].LastPingAt))

	session.Status = domain.StatusPaused
	require.ErrorIs(t, store.UpdatePing(ctx, session), domain.ErrConflict)
}

func TestStoreListSessionsFiltersByStatus(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	_, err := store.CreateSession(ctx, domain.NewSession("guild", "alice", baseTime))
	require.NoError(t, err)
	bob, err := store.CreateSession(ctx, domain.NewSession("guild", "bob", baseTime))
	require.NoError(t, err)
	paused, err := bob.Pause(baseTime.Add(time.Minute), nil)
	require.NoError(t, err)
	require.NoError(t, store.ApplyTransition(ctx, paused))
	_, err = store.CreateSession(ctx, domain.NewSession("other", "carol", baseTime))
	require.NoError(t, err)

	all, err := store.ListSessions(ctx, "guild")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyPaused, err := store.ListSessions(ctx, "guild", domain.StatusPaused)
	require.NoError(t, err)
	require.Len(t, onlyPaused, 1)
	assert.Equal(t, domain.UserID("bob"), onlyPaused[0].UserID)

	open, err := store.ListOpenSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 2)

	tenants, err := store.ListTenants(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.TenantID{"guild", "other"}, tenants)
}

func TestStoreAdjustments(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	saved, err := store.AddAdjustment(ctx, domain.Adjustment{
		TenantID: "guild", UserID: "alice", Minutes: -20, Reason: "left early", ActorID: "admin", CreatedAt: baseTime,
	})
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)

	_, err = store.AddAdjustment(ctx, domain.Adjustment{TenantID: "guild", UserID: "alice", ActorID: "admin"})
	require.ErrorIs(t, err, domain.ErrValidation)

	listed, err := store.ListAdjustments(ctx, "guild")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, int64(-20), listed[0].Minutes)
	assert.True(t, baseTime.Equal(listed[0].CreatedAt))
}

func TestStoreArchiveMovesTenantToHistory(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	alice, err := store.CreateSession(ctx, domain.NewSession("guild", "alice", baseTime))
	require.NoError(t, err)
	paused, err := alice.Pause(baseTime.Add(10*time.Minute), nil)
	require.NoError(t, err)
	require.NoError(t, store.ApplyTransition(ctx, paused))
	_, err = store.CreateSession(ctx, domain.NewSession("other", "bob", baseTime))
	require.NoError(t, err)

	pauses, err := store.ListPauses(ctx, alice.ID)
	require.NoError(t, err)

	adj, err := store.AddAdjustment(ctx, domain.Adjustment{
		TenantID: "guild", UserID: "alice", Minutes: 15, ActorID: "admin", CreatedAt: baseTime,
	})
	require.NoError(t, err)

	archivedAt := baseTime.Add(time.Hour)
	restart, restartPause := paused.Session.Restart(archivedAt)

	restarted, err := store.Archive(ctx, ports.ArchiveBatch{
		RunID:       "run-1",
		TenantID:    "guild",
		ArchivedAt:  archivedAt,
		Records:     []domain.HistoryRecord{{Session: paused.Session, Pauses: pauses, ArchivedAt: archivedAt}},
		Restart:     []ports.RestartSession{{Session: restart, Pause: restartPause}},
		Adjustments: []int64{adj.ID},
	})
	require.NoError(t, err)
	require.Len(t, restarted, 1)
	assert.NotEqual(t, alice.ID, restarted[0].ID)

	live, err := store.ListSessions(ctx, "guild")
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, restarted[0].ID, live[0].ID)
	assert.Equal(t, domain.StatusPaused, live[0].Status)

	restartedPauses, err := store.ListPauses(ctx, restarted[0].ID)
	require.NoError(t, err)
	require.Len(t, restartedPauses, 1)
	assert.True(t, restartedPauses[0].IsOpen())
	assert.True(t, archivedAt.Equal(restartedPauses[0].Start))

	adjustments, err := store.ListAdjustments(ctx, "guild")
	require.NoError(t, err)
	require.Len(t, adjustments, 1)
	assert.Equal(t, "run-1", adjustments[0].RunID)

	oldPauses, err := store.ListPauses(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, oldPauses)

	history, err := store.ListHistory(ctx, "guild")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, alice.ID, history[0].Session.ID)
	assert.Equal(t, domain.StatusPaused, history[0].Session.Status)
	assert.True(t, archivedAt.Equal(history[0].ArchivedAt))
	require.Len(t, history[0].Pauses, 1)
	assert.True(t, history[0].Pauses[0].IsOpen())

	other, err := store.ListSessions(ctx, "other")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestStoreListTenantsSkipsExportedAdjustments(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	exported, err := store.AddAdjustment(ctx, domain.Adjustment{
		TenantID: "quiet", UserID: "alice", Minutes: 10, ActorID: "admin", CreatedAt: baseTime,
	})
	require.NoError(t, err)

	tenants, err := store.ListTenants(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.TenantID{"quiet"}, tenants)

	_, err = store.Archive(ctx, ports.ArchiveBatch{
		RunID: "run-1", TenantID: "quiet", ArchivedAt: baseTime.Add(time.Hour), Adjustments: []int64{exported.ID},
	})
	require.NoError(t, err)

	tenants, err = store.ListTenants(ctx)
	require.NoError(t, err)
	assert.Empty(t, tenants)

	_, err = store.AddAdjustment(ctx, domain.Adjustment{
		TenantID: "quiet", UserID: "alice", Minutes: 5, ActorID: "admin", CreatedAt: baseTime.Add(2 * time.Hour),
	})
	require.NoError(t, err)

	tenants, err = store.ListTenants(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.TenantID{"quiet"}, tenants)
}

func TestStoreReopenKeepsData(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "shiftlog.db")
	store, err := Open(context.Background(), path)
	require.NoError(t, err)
	created, err := store.CreateSession(context.Background(), domain.NewSession("guild", "alice", baseTime))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.GetSession(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("alice"), got.UserID)
}

func TestExtractUpMigration(t *testing.T) {
	t.Parallel()

	content := "-- +migrate Up\nCREATE TABLE a (id INTEGER);\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "\nCREATE TABLE a (id INTEGER);\n", extractUpMigration(content))
	assert.Equal(t, "SELECT 1;", extractUpMigration("SELECT 1;"))
}

func TestStoreRejectsCanceledContext(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.ListOpenSessions(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
