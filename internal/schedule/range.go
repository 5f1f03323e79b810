// Package schedule derives the day-indexed schedule from parsed
// documents and keeps the "today" selection live across day boundaries.
package schedule

import (
	"time"

	"fosdemcal/internal/model"
)

// Range is the conference's declared date range clamped against the
// invocation instant. It is derived per build and not stored as
// independent state.
type Range struct {
	Start   time.Time
	End     time.Time
	Current time.Time
}

// ResolveRange derives the range from the declared start/end date
// strings. An absent (or unparseable) boundary defaults to now, a
// degraded fallback rather than a failure. Current pins to Start
// before the conference and to End after it, both boundaries
// inclusive; mid-conference it is now itself.
func ResolveRange(startDate, endDate string, now time.Time) Range {
	start := now
	if startDate != "" {
		if t, err := model.ParseDate(startDate); err == nil {
			start = t
		}
	}
	end := now
	if endDate != "" {
		if t, err := model.ParseDate(endDate); err == nil {
			end = time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, model.ReferenceZone)
		}
	}

	switch {
	case !now.After(start):
		return Range{Start: start, End: end, Current: start}
	case !now.Before(end):
		return Range{Start: start, End: end, Current: end}
	default:
		return Range{Start: start, End: end, Current: now}
	}
}
