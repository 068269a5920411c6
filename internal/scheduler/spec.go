package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Spec is a recurring wall-clock time, either daily or on one weekday.
type Spec struct {
	Weekly  bool
	Weekday time.Weekday
	Hour    int
	Minute  int
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseSpec accepts "HH:MM", "daily HH:MM" or "<weekday> HH:MM".
func ParseSpec(raw string) (Spec, error) {
	fields := strings.Fields(strings.ToLower(raw))

	var spec Spec
	var clock string
	switch len(fields) {
	case 1:
		clock = fields[0]
	case 2:
		clock = fields[1]
		if fields[0] != "daily" {
			day, ok := weekdays[fields[0]]
			if !ok {
				return Spec{}, fmt.Errorf("unknown weekday %q in schedule %q", fields[0], raw)
			}
			spec.Weekly = true
			spec.Weekday = day
		}
	default:
		return Spec{}, fmt.Errorf("invalid schedule %q", raw)
	}

	hh, mm, ok := strings.Cut(clock, ":")
	if !ok {
		return Spec{}, fmt.Errorf("invalid time %q in schedule %q", clock, raw)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return Spec{}, fmt.Errorf("invalid hour in schedule %q", raw)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 || len(mm) != 2 {
		return Spec{}, fmt.Errorf("invalid minute in schedule %q", raw)
	}
	spec.Hour, spec.Minute = hour, minute

	return spec, nil
}

// Next returns the first occurrence strictly after after, in loc.
func (s Spec) Next(after time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := after.In(loc)
	y, m, d := local.Date()

	for i := 0; i <= 8; i++ {
		candidate := time.Date(y, m, d+i, s.Hour, s.Minute, 0, 0, loc)
		if s.Weekly && candidate.Weekday() != s.Weekday {
			continue
		}
		if candidate.After(after) {
			return candidate
		}
	}

	// Unreachable for valid specs.
	return after.Add(24 * time.Hour)
}

func (s Spec) String() string {
	clock := fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
	if s.Weekly {
		return strings.ToLower(s.Weekday.String()[:3]) + " " + clock
	}
	return "daily " + clock
}
