package domain

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustWindows(t *testing.T, raw string) []Window {
	t.Helper()
	windows, err := ParseWindows(raw)
	require.NoError(t, err)
	return windows
}

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestSplitIntervalSameDayAcrossWindowEdge(t *testing.T) {
	t.Parallel()

	windows := mustWindows(t, "00:00-02:00,16:00-18:00")
	start := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)

	got := SplitInterval(start, end, time.UTC, windows)

	assert.Equal(t, Split{Normal: 60, Stellar: 60}, got)
}

func TestSplitIntervalTotalsMatchFlooredDuration(t *testing.T) {
	t.Parallel()

	mexico := mustLocation(t, "America/Mexico_City")
	tests := []struct {
		name    string
		windows string
		loc     *time.Location
		start   time.Time
		end     time.Time
		want    Split
	}{
		{
			name:    "fractional edges are floored",
			windows: "11:00-11:30",
			loc:     time.UTC,
			start:   time.Date(2026, 3, 2, 10, 0, 30, 0, time.UTC),
			end:     time.Date(2026, 3, 2, 12, 59, 59, 0, time.UTC),
			want:    Split{Normal: 149, Stellar: 30},
		},
		{
			name:    "wrapping window across midnight",
			windows: "22:00-02:00",
			loc:     time.UTC,
			start:   time.Date(2026, 3, 2, 21, 0, 0, 0, time.UTC),
			end:     time.Date(2026, 3, 3, 3, 0, 0, 0, time.UTC),
			want:    Split{Normal: 120, Stellar: 240},
		},
		{
			name:    "no windows",
			windows: "",
			loc:     time.UTC,
			start:   time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
			end:     time.Date(2026, 3, 2, 9, 45, 0, 0, time.UTC),
			want:    Split{Normal: 105},
		},
		{
			name:    "tenant timezone projection",
			windows: "16:00-18:00",
			loc:     mexico,
			start:   time.Date(2026, 3, 2, 22, 0, 0, 0, time.UTC),
			end:     time.Date(2026, 3, 3, 0, 30, 0, 0, time.UTC),
			want:    Split{Normal: 30, Stellar: 120},
		},
		{
			name:    "multi day",
			windows: "00:00-02:00,16:00-18:00",
			loc:     time.UTC,
			start:   time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
			end:     time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC),
			want:    Split{Normal: 48*60 - 480, Stellar: 480},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := SplitInterval(tc.start, tc.end, tc.loc, mustWindows(t, tc.windows))
			assert.Equal(t, tc.want, got)
			assert.Equal(t, int64(tc.end.Sub(tc.start)/time.Minute), got.Total())
		})
	}
}

func TestSplitIntervalUnionsOverlappingWindows(t *testing.T) {
	t.Parallel()

	windows := mustWindows(t, "16:00-18:00,17:00-19:00")
	start := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)

	got := SplitInterval(start, end, time.UTC, windows)

	assert.Equal(t, Split{Normal: 120, Stellar: 180}, got)
}

func TestSplitIntervalFollowsLocalMidnightAcrossDST(t *testing.T) {
	t.Parallel()

	ny := mustLocation(t, "America/New_York")
	windows := mustWindows(t, "12:00-13:00")

	springStart := time.Date(2026, 3, 7, 12, 0, 0, 0, ny)
	springEnd := time.Date(2026, 3, 9, 12, 0, 0, 0, ny)
	spring := SplitInterval(springStart, springEnd, ny, windows)
	assert.Equal(t, Split{Normal: 47*60 - 120, Stellar: 120}, spring)

	fallStart := time.Date(2026, 10, 31, 12, 0, 0, 0, ny)
	fallEnd := time.Date(2026, 11, 2, 12, 0, 0, 0, ny)
	fall := SplitInterval(fallStart, fallEnd, ny, windows)
	assert.Equal(t, Split{Normal: 49*60 - 120, Stellar: 120}, fall)
}

func TestSplitIntervalDegenerate(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 2, 16, 30, 0, 0, time.UTC)
	windows := mustWindows(t, "16:00-18:00")

	assert.Equal(t, Split{}, SplitInterval(at, at, time.UTC, windows))
	assert.Equal(t, Split{}, SplitInterval(at, at.Add(-time.Hour), time.UTC, windows))
}

func TestActiveSubintervals(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	at := func(minutes int) time.Time { return base.Add(time.Duration(minutes) * time.Minute) }
	end := func(minutes int) *time.Time { v := at(minutes); return &v }

	got := ActiveSubintervals(at(0), at(120), []Pause{
		{Start: at(90), End: nil},
		{Start: at(30), End: end(45)},
		{Start: at(-10), End: end(5)},
	})

	assert.Equal(t, []Interval{
		{Start: at(5), End: at(30)},
		{Start: at(45), End: at(90)},
	}, got)
}

func TestActiveSubintervalsIgnoresPausesOutsideRange(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	before := base.Add(-time.Minute)
	after := base.Add(3 * time.Hour)

	got := ActiveSubintervals(base, base.Add(time.Hour), []Pause{
		{Start: base.Add(-time.Hour), End: &before},
		{Start: base.Add(2 * time.Hour), End: &after},
	})

	assert.Equal(t, []Interval{{Start: base, End: base.Add(time.Hour)}}, got)
}

func TestScheduleSplitActiveFullyPaused(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	schedule := Schedule{Location: time.UTC, Windows: mustWindows(t, "16:00-18:00")}

	got := schedule.SplitActive(start, start.Add(3*time.Hour), []Pause{{Start: start}})

	assert.Equal(t, Split{}, got)
}

func TestScheduleSplitActiveSumsSubintervals(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	pauseEnd := start.Add(90 * time.Minute)
	schedule := Schedule{Location: time.UTC, Windows: mustWindows(t, "16:00-18:00")}

	got := schedule.SplitActive(start, start.Add(3*time.Hour), []Pause{{Start: start.Add(30 * time.Minute), End: &pauseEnd}})

	assert.Equal(t, Split{Normal: 30, Stellar: 90}, got)
}
