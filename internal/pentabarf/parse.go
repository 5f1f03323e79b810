// Package pentabarf parses the Pentabarf-style schedule XML published
// at https://fosdem.org/<year>/schedule/xml and maps it onto the
// internal event model.
package pentabarf

import (
	"encoding/xml"
	"regexp"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"fosdemcal/internal/model"
)

// Document is the parsed schedule XML. Only the fields this system
// consumes are mapped; the document is assumed well-formed and is not
// validated against a schema.
type Document struct {
	XMLName    xml.Name   `xml:"schedule"`
	Conference Conference `xml:"conference"`
	Days       []Day      `xml:"day"`
}

// Conference carries the declared conference date range as YYYY-MM-DD
// child text fields. Either may be empty.
type Conference struct {
	Title string `xml:"title"`
	Start string `xml:"start"`
	End   string `xml:"end"`
}

type Day struct {
	Index int    `xml:"index,attr"`
	Date  string `xml:"date,attr"`
	Rooms []Room `xml:"room"`
}

type Room struct {
	Name   string      `xml:"name,attr"`
	Events []EventNode `xml:"event"`
}

// EventNode is one event element. All child fields are optional in the
// source; absent fields stay empty.
type EventNode struct {
	ID       string `xml:"id,attr"`
	Start    string `xml:"start"`
	Duration string `xml:"duration"`
	Room     string `xml:"room"`
	Slug     string `xml:"slug"`
	Subtitle string `xml:"subtitle"`
	Title    string `xml:"title"`
}

// Parse unmarshals a schedule document. Malformed XML propagates as an
// error for the caller to surface.
func Parse(body []byte) (*Document, error) {
	if len(body) == 0 {
		return nil, errors.New("empty schedule document")
	}
	var doc Document
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, errors.Wrap(err, "parse schedule xml")
	}
	return &doc, nil
}

// durationPattern matches the first hours:minutes group anywhere in
// the duration string; the hours part may be multi-digit.
var durationPattern = regexp.MustCompile(`(\d+):(\d+)`)

// durationMinutes converts an "H:MM" duration string to minutes.
// Anything that doesn't match the pattern degrades to zero.
func durationMinutes(s string) int {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	return hours*60 + minutes
}

// eventTimes resolves an event's absolute start/end instants from the
// day's date string and the node's HH:MM start and duration fields.
// An absent or unparseable start degrades to now; end is start plus
// the duration, so an event may spill past midnight.
func eventTimes(date, start, duration string, now time.Time) (time.Time, time.Time) {
	s := now
	if start != "" {
		if t, err := time.ParseInLocation("2006-1-2T15:04", date+"T"+start, model.ReferenceZone); err == nil {
			s = t
		}
	}
	s = s.UTC()
	return s, s.Add(time.Duration(durationMinutes(duration)) * time.Minute)
}

// ExtractEvents maps a day's event nodes to model events in document
// order. An empty roomFilter selects every room; otherwise only rooms
// whose name attribute matches exactly (case-sensitive) contribute.
// Identifier uniqueness is an invariant of the source document and is
// not checked here.
func ExtractEvents(day Day, roomFilter string, now time.Time) []model.Event {
	events := make([]model.Event, 0)
	for _, room := range day.Rooms {
		if roomFilter != "" && room.Name != roomFilter {
			continue
		}
		for _, node := range room.Events {
			start, end := eventTimes(day.Date, node.Start, node.Duration, now)
			events = append(events, model.Event{
				ID:       node.ID,
				Start:    start,
				End:      end,
				Slug:     node.Slug,
				Title:    node.Title,
				Subtitle: node.Subtitle,
				Room:     node.Room,
			})
		}
	}
	return events
}
