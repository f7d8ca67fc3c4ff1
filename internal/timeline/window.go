package timeline

import (
	"time"

	"grocery-price-lab/internal/domain"
)

// DefaultStart is the first day reconstructed when a window has no start.
var DefaultStart = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

// Window bounds a reconstruction to the days [Start, End).
// Nil Start means DefaultStart, nil End means today.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// ParseWindow parses optional YYYY-MM-DD bounds. Empty strings leave the bound unset.
func ParseWindow(start, end string) (Window, error) {
	var w Window

	if start != "" {
		t, err := parseDay("start", start)
		if err != nil {
			return Window{}, err
		}
		w.Start = &t
	}
	if end != "" {
		t, err := parseDay("end", end)
		if err != nil {
			return Window{}, err
		}
		w.End = &t
	}

	if w.Start != nil && w.End != nil && w.Start.After(*w.End) {
		return Window{}, &domain.ValidationError{
			Field:  "start",
			Value:  start,
			Reason: "must not be after end " + end,
		}
	}
	return w, nil
}

func parseDay(field, s string) (time.Time, error) {
	t, err := time.Parse(domain.DayLayout, s)
	if err != nil {
		return time.Time{}, &domain.ValidationError{
			Field:  field,
			Value:  s,
			Reason: "expected YYYY-MM-DD",
		}
	}
	return t, nil
}

// resolve fills defaults and truncates both bounds to UTC midnight.
// A start after the default end (today) gives an empty window; only an explicit
// end before start is rejected.
func (w Window) resolve(today time.Time) (time.Time, time.Time, error) {
	start := DefaultStart
	if w.Start != nil {
		start = truncateDay(*w.Start)
	}
	if w.End == nil {
		end := truncateDay(today)
		if start.After(end) {
			end = start
		}
		return start, end, nil
	}
	end := truncateDay(*w.End)
	if start.After(end) {
		return time.Time{}, time.Time{}, &domain.ValidationError{
			Field:  "start",
			Value:  start.Format(domain.DayLayout),
			Reason: "must not be after end " + end.Format(domain.DayLayout),
		}
	}
	return start, end, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
