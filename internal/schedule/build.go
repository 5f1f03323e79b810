package schedule

import (
	"time"

	"fosdemcal/internal/model"
	"fosdemcal/internal/pentabarf"
)

// Build parses a schedule document and buckets its events by day.
// roomFilter limits extraction to a single named room; empty means all
// rooms. now feeds the range resolver and the degraded start-time
// fallback, so Build is a pure function of its inputs.
func Build(body []byte, roomFilter string, now time.Time) (*model.Schedule, error) {
	doc, err := pentabarf.Parse(body)
	if err != nil {
		return nil, err
	}

	r := ResolveRange(doc.Conference.Start, doc.Conference.End, now)

	days := make(map[string][]model.Event, len(doc.Days))
	for _, day := range doc.Days {
		date := model.NormalizeDate(day.Date)
		days[date] = pentabarf.ExtractEvents(day, roomFilter, now)
	}

	return &model.Schedule{
		Days:  days,
		Start: r.Start.UTC(),
		End:   r.End.UTC(),
	}, nil
}
