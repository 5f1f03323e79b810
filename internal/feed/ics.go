// Package feed exports the in-memory schedule as an iCalendar feed so
// the conference program can be subscribed to from calendar clients.
package feed

import (
	"sort"

	ical "github.com/arran4/golang-ical"

	"fosdemcal/internal/model"
)

// Calendar renders the whole schedule as a VCALENDAR, one VEVENT per
// event. Days are emitted in date order for stable output; within a
// day, document order is kept.
func Calendar(sched *model.Schedule) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//fosdemcal//schedule//EN")
	if sched == nil {
		return cal
	}

	dates := make([]string, 0, len(sched.Days))
	for d := range sched.Days {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	for _, date := range dates {
		for _, ev := range sched.Days[date] {
			ve := cal.AddEvent(ev.ID)
			// DTSTAMP pinned to the event start keeps serialization
			// deterministic across runs.
			ve.SetDtStampTime(ev.Start)
			ve.SetStartAt(ev.Start)
			ve.SetEndAt(ev.End)
			ve.SetSummary(ev.Title)
			if ev.Subtitle != "" {
				ve.SetDescription(ev.Subtitle)
			}
			if ev.Room != "" {
				ve.SetLocation(ev.Room)
			}
			if ev.Slug != "" {
				ve.SetURL(ev.URL())
			}
		}
	}
	return cal
}
