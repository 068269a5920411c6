package application

import (
	"context"
	"testing"
	"time"

	"github.com/bnema/shiftlog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportComputeTotalsCombinesSourcesInRange(t *testing.T) {
	t.Parallel()

	store := newInMemorySessionStore()
	now := time.Date(2026, 3, 6, 17, 0, 0, 0, time.UTC)
	svc := NewReportService(store, staticTenants{}, domain.DefaultRates(), nil, fixedClock{now: now})

	from := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)

	// Closed inside the range: stored accumulators are used.
	closedEnd := from.Add(11 * time.Hour)
	store.put(domain.Session{
		TenantID: "guild", UserID: "alice", Status: domain.StatusClosed,
		StartAt: from.Add(10 * time.Hour), EndAt: &closedEnd, NormalMinutes: 60,
	})
	// Open since 16:00: one stellar hour up to now.
	store.put(domain.Session{
		TenantID: "guild", UserID: "alice", Status: domain.StatusOpen,
		StartAt: from.Add(16 * time.Hour),
	})
	// Archived record straddling midnight: only 00:00-01:00 counts, inside a window.
	recordEnd := from.Add(time.Hour)
	store.history = append(store.history, domain.HistoryRecord{
		Session: domain.Session{
			ID: 99, TenantID: "guild", UserID: "alice", Status: domain.StatusClosed,
			StartAt: from.Add(-time.Hour), EndAt: &recordEnd, NormalMinutes: 60, StellarMinutes: 60,
		},
		ArchivedAt: recordEnd,
	})
	store.adjustments = append(store.adjustments,
		domain.Adjustment{TenantID: "guild", UserID: "alice", Minutes: -15, CreatedAt: from.Add(12 * time.Hour)},
		domain.Adjustment{TenantID: "guild", UserID: "alice", Minutes: 500, CreatedAt: from.Add(-time.Hour)},
	)

	totals, err := svc.ComputeTotals(context.Background(), "guild", "alice", from, now)
	require.NoError(t, err)

	assert.Equal(t, int64(-15), totals.AdjustmentMinutes)
	assert.Equal(t, domain.Split{Normal: 45, Stellar: 120}, totals.Split)
	assert.InDelta(t, 4.75, totals.Coins, 1e-9)
}

func TestReportComputeTotalsSubtractsPauses(t *testing.T) {
	t.Parallel()

	store := newInMemorySessionStore()
	now := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
	svc := NewReportService(store, staticTenants{}, domain.DefaultRates(), nil, fixedClock{now: now})

	pauseEnd := now.Add(-time.Hour)
	store.put(domain.Session{
		TenantID: "guild", UserID: "bob", Status: domain.StatusOpen,
		StartAt: now.Add(-3 * time.Hour),
	}, domain.Pause{Start: now.Add(-2 * time.Hour), End: &pauseEnd})

	totals, err := svc.ComputeTotals(context.Background(), "guild", "bob", time.Time{}, now)
	require.NoError(t, err)
	assert.Equal(t, domain.Split{Normal: 120}, totals.Split)
}

func TestReportTopRanksByCoinsThenUser(t *testing.T) {
	t.Parallel()

	store := newInMemorySessionStore()
	now := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
	svc := NewReportService(store, staticTenants{}, domain.DefaultRates(), nil, fixedClock{now: now})

	end := now.Add(-time.Hour)
	for user, split := range map[domain.UserID]domain.Split{
		"carol": {Normal: 60},
		"alice": {Normal: 60},
		"bob":   {Stellar: 60},
		"dave":  {Normal: 10},
	} {
		store.put(domain.Session{
			TenantID: "guild", UserID: user, Status: domain.StatusClosed,
			StartAt: now.Add(-2 * time.Hour), EndAt: &end,
			NormalMinutes: split.Normal, StellarMinutes: split.Stellar,
		})
	}

	top, err := svc.Top(context.Background(), "guild", time.Time{}, now, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)

	assert.Equal(t, domain.UserID("bob"), top[0].UserID)
	assert.Equal(t, 1, top[0].Rank)
	assert.InDelta(t, 2.0, top[0].Coins, 1e-9)
	assert.Equal(t, domain.UserID("alice"), top[1].UserID)
	assert.Equal(t, domain.UserID("carol"), top[2].UserID)
	assert.Equal(t, 3, top[2].Rank)
}

func TestReportPeriodRangeUsesTenantTimezone(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)
	cfg := domain.DefaultTenantConfig("guild")
	svc := NewReportService(newInMemorySessionStore(), staticTenants{"guild": cfg}, domain.DefaultRates(), nil, fixedClock{now: now})

	got, err := svc.PeriodRange(context.Background(), "guild", domain.PeriodToday)
	require.NoError(t, err)

	loc, err := time.LoadLocation(domain.DefaultTimezone)
	require.NoError(t, err)
	assert.True(t, time.Date(2026, 3, 1, 0, 0, 0, 0, loc).Equal(got.Start))
}
