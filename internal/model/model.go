package model

import (
	"fmt"
	"time"
)

// ReferenceZone is the fixed UTC+1 offset used for all date and time
// derivation. The schedule document encodes Brussels local time as a
// fixed +01:00 offset rather than a named zone, so the rest of the
// system follows suit.
var ReferenceZone = time.FixedZone("UTC+1", 60*60)

const (
	// dateLayout is the canonical zero-padded date key format.
	// Zero-padding keeps lexicographic order chronological.
	dateLayout = "2006-01-02"

	// looseDateLayout also accepts unpadded month/day on input.
	looseDateLayout = "2006-1-2"
)

// DateOf returns t's calendar date in the reference timezone as a
// canonical date string.
func DateOf(t time.Time) string {
	return t.In(ReferenceZone).Format(dateLayout)
}

// NormalizeDate reparses a date string (padded or not) into canonical
// zero-padded form. Unparseable input is returned unchanged.
func NormalizeDate(s string) string {
	t, err := time.ParseInLocation(looseDateLayout, s, ReferenceZone)
	if err != nil {
		return s
	}
	return t.Format(dateLayout)
}

// ParseDate parses a date string in the reference timezone, yielding
// the midnight instant of that day.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(looseDateLayout, s, ReferenceZone)
}

// EndOfDay returns the 23:59:59 instant of the given date in the
// reference timezone. ok is false when the date does not parse.
func EndOfDay(date string) (time.Time, bool) {
	t, err := ParseDate(date)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, ReferenceZone), true
}

// Event is a single schedule entry. Immutable once extracted; optional
// fields (Slug, Subtitle, Room) are empty when absent in the source
// document. Start/End are absolute UTC-normalized instants and marshal
// as RFC 3339 strings.
type Event struct {
	ID       string    `json:"id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Slug     string    `json:"slug,omitempty"`
	Title    string    `json:"title,omitempty"`
	Subtitle string    `json:"subtitle,omitempty"`
	Room     string    `json:"room,omitempty"`
}

// URL builds the canonical detail-page link for the event. The year
// component is the event's start year in the reference timezone.
func (e Event) URL() string {
	return fmt.Sprintf("https://fosdem.org/%d/schedule/event/%s",
		e.Start.In(ReferenceZone).Year(), e.Slug)
}

// Schedule maps canonical date strings to that day's events in
// document order (not necessarily time-sorted). Replaced wholesale on
// each successful build; never partially updated. Events are bucketed
// under the day their start falls on; an end spilling past midnight is
// accepted and not re-bucketed.
type Schedule struct {
	Days  map[string][]Event `json:"days"`
	Start time.Time          `json:"start"`
	End   time.Time          `json:"end"`
}
