package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// Window is a recurring daily local-time range in minutes since midnight.
// End may be 1440 (24:00). End < Start wraps past midnight.
type Window struct {
	Start int
	End   int
}

func (w Window) Wraps() bool {
	return w.End < w.Start
}

func (w Window) String() string {
	return formatClock(w.Start) + "-" + formatClock(w.End)
}

// ParseWindows parses "HH:MM-HH:MM,HH:MM-HH:MM". An empty string yields no windows.
func ParseWindows(raw string) ([]Window, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	windows := make([]Window, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		window, err := parseWindow(part)
		if err != nil {
			return nil, err
		}
		windows = append(windows, window)
	}

	return windows, nil
}

func FormatWindows(windows []Window) string {
	parts := make([]string, 0, len(windows))
	for _, w := range windows {
		parts = append(parts, w.String())
	}
	return strings.Join(parts, ",")
}

func parseWindow(raw string) (Window, error) {
	sep := "-"
	if strings.Contains(raw, "–") {
		sep = "–"
	}
	bounds := strings.Split(raw, sep)
	if len(bounds) != 2 {
		return Window{}, validationError("window %q: expected HH:MM-HH:MM", raw)
	}

	start, err := parseClock(bounds[0], false)
	if err != nil {
		return Window{}, fmt.Errorf("window %q start: %w", raw, err)
	}
	end, err := parseClock(bounds[1], true)
	if err != nil {
		return Window{}, fmt.Errorf("window %q end: %w", raw, err)
	}
	if start == end {
		return Window{}, validationError("window %q has zero length", raw)
	}

	return Window{Start: start, End: end}, nil
}

func parseClock(raw string, allowEndOfDay bool) (int, error) {
	raw = strings.TrimSpace(raw)
	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return 0, validationError("expected HH:MM, got %q", raw)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, validationError("invalid hour in %q", raw)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, validationError("invalid minute in %q", raw)
	}

	total := h*60 + m
	if total == minutesPerDay && allowEndOfDay {
		return total, nil
	}
	if total >= minutesPerDay {
		return 0, validationError("time %q out of range", raw)
	}

	return total, nil
}

func formatClock(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}
