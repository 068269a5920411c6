package domain

import (
	"strings"
	"time"
)

type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

func ParsePeriod(raw string) (Period, error) {
	period := Period(strings.ToLower(strings.TrimSpace(raw)))
	switch period {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodAll:
		return period, nil
	default:
		return "", validationError("unknown period %q (want today, week, month or all)", raw)
	}
}

// Range returns [start of period in loc, now). Weeks start on Monday; the
// all-time period starts at the zero time.
func (p Period) Range(now time.Time, loc *time.Location) Interval {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	y, m, d := local.Date()

	var start time.Time
	switch p {
	case PeriodToday:
		start = time.Date(y, m, d, 0, 0, 0, 0, loc)
	case PeriodWeek:
		offset := (int(local.Weekday()) + 6) % 7
		start = time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
	case PeriodMonth:
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
	default:
		start = time.Time{}
	}

	return Interval{Start: start, End: now}
}
