package domain

import (
	"sort"
	"time"
)

type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) Empty() bool {
	return !i.End.After(i.Start)
}

func (i Interval) intersect(other Interval) Interval {
	start := i.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := i.End
	if other.End.Before(end) {
		end = other.End
	}
	return Interval{Start: start, End: end}
}

// Split is a minute count divided into the two rate tiers.
type Split struct {
	Normal  int64
	Stellar int64
}

func (s Split) Total() int64 {
	return s.Normal + s.Stellar
}

func (s Split) Add(other Split) Split {
	return Split{Normal: s.Normal + other.Normal, Stellar: s.Stellar + other.Stellar}
}

// Schedule is a tenant's local time projection: where midnight falls and
// which recurring windows pay the stellar rate.
type Schedule struct {
	Location *time.Location
	Windows  []Window
}

func (s Schedule) Split(start, end time.Time) Split {
	return SplitInterval(start, end, s.Location, s.Windows)
}

func (s Schedule) SplitActive(start, end time.Time, pauses []Pause) Split {
	var total Split
	for _, interval := range ActiveSubintervals(start, end, pauses) {
		total = total.Add(s.Split(interval.Start, interval.End))
	}
	return total
}

// SplitInterval divides [start, end) into normal and stellar minutes.
// Normal+Stellar always equals the floored whole minutes of the interval;
// overlapping windows are unioned before counting.
func SplitInterval(start, end time.Time, loc *time.Location, windows []Window) Split {
	if !end.After(start) {
		return Split{}
	}
	if loc == nil {
		loc = time.UTC
	}

	var stellar time.Duration
	cursor := start.In(loc)
	last := end.In(loc)
	for cursor.Before(last) {
		y, m, d := cursor.Date()
		// Next local midnight; DST days are 23 or 25 hours long.
		segEnd := time.Date(y, m, d+1, 0, 0, 0, 0, loc)
		if segEnd.After(last) {
			segEnd = last
		}
		if !segEnd.After(cursor) {
			break
		}

		stellar += stellarWithin(Interval{Start: cursor, End: segEnd}, dayWindows(y, m, d, loc, windows))
		cursor = segEnd
	}

	total := int64(end.Sub(start) / time.Minute)
	stellarMinutes := int64(stellar / time.Minute)
	if stellarMinutes > total {
		stellarMinutes = total
	}

	return Split{Normal: total - stellarMinutes, Stellar: stellarMinutes}
}

// ActiveSubintervals removes every [pause.Start, pause.End ?? end) from
// [start, end) and returns the ordered gaps.
func ActiveSubintervals(start, end time.Time, pauses []Pause) []Interval {
	if !end.After(start) {
		return nil
	}

	sorted := make([]Pause, len(pauses))
	copy(sorted, pauses)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	var out []Interval
	cursor := start
	for _, p := range sorted {
		pauseStart := p.Start
		pauseEnd := end
		if p.End != nil {
			pauseEnd = *p.End
		}
		if pauseEnd.After(end) {
			pauseEnd = end
		}
		if !pauseEnd.After(cursor) {
			continue
		}
		if pauseStart.After(cursor) {
			if !pauseStart.Before(end) {
				break
			}
			out = append(out, Interval{Start: cursor, End: pauseStart})
		}
		cursor = pauseEnd
	}
	if end.After(cursor) {
		out = append(out, Interval{Start: cursor, End: end})
	}

	return out
}

// dayWindows instantiates windows on one local calendar day. A wrapping window
// contributes its morning tail and its evening head to the same day.
func dayWindows(y int, m time.Month, d int, loc *time.Location, windows []Window) []Interval {
	at := func(mins int) time.Time {
		return time.Date(y, m, d, mins/60, mins%60, 0, 0, loc)
	}

	out := make([]Interval, 0, len(windows)+1)
	for _, w := range windows {
		if !w.Wraps() {
			out = append(out, Interval{Start: at(w.Start), End: at(w.End)})
			continue
		}
		out = append(out,
			Interval{Start: at(0), End: at(w.End)},
			Interval{Start: at(w.Start), End: at(minutesPerDay)},
		)
	}
	return out
}

func stellarWithin(segment Interval, windows []Interval) time.Duration {
	hits := make([]Interval, 0, len(windows))
	for _, w := range windows {
		overlap := segment.intersect(w)
		if !overlap.Empty() {
			hits = append(hits, overlap)
		}
	}
	if len(hits) == 0 {
		return 0
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Start.Before(hits[j].Start) })

	var total time.Duration
	current := hits[0]
	for _, next := range hits[1:] {
		if !next.Start.After(current.End) {
			if next.End.After(current.End) {
				current.End = next.End
			}
			continue
		}
		total += current.End.Sub(current.Start)
		current = next
	}
	total += current.End.Sub(current.Start)

	return total
}
