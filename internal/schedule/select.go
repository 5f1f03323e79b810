package schedule

import (
	"sort"

	appLog "fosdemcal/internal/log"
	"fosdemcal/internal/model"
)

// Select returns the event list to show for today. A direct hit in the
// day map wins; otherwise today is clamped to the nearest end of the
// schedule: before the first day shows the first day, after the last
// day shows the last day. An unset today (empty string) sorts before
// every date and therefore clamps to the first day.
func Select(sched *model.Schedule, today string) []model.Event {
	if sched == nil {
		return []model.Event{}
	}
	if events, ok := sched.Days[today]; ok {
		return events
	}

	dates := make([]string, 0, len(sched.Days))
	for d := range sched.Days {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	if len(dates) == 0 {
		return []model.Event{}
	}
	if today < dates[0] {
		return sched.Days[dates[0]]
	}
	if today > dates[len(dates)-1] {
		return sched.Days[dates[len(dates)-1]]
	}

	// Today falls inside the conference range but the document has no
	// bucket for it. Intentionally degraded: warn and show nothing
	// rather than guess a neighboring day.
	appLog.Warn("today is inside the schedule range but has no events", "today", today)
	return []model.Event{}
}
