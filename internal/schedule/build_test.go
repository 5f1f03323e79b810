package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const buildXML = `<?xml version="1.0" encoding="UTF-8"?>
<schedule>
  <conference>
    <title>FOSDEM 2026</title>
    <start>2026-01-31</start>
    <end>2026-02-01</end>
  </conference>
  <day index="1" date="2026-1-31">
    <room name="Janson">
      <event id="1001">
        <start>10:30</start>
        <duration>00:50</duration>
        <room>Janson</room>
        <slug>welcome</slug>
        <title>Welcome to FOSDEM</title>
      </event>
    </room>
    <room name="UB2.252A">
      <event id="1002">
        <start>11:00</start>
        <duration>00:30</duration>
        <room>UB2.252A</room>
        <slug>go-devroom</slug>
        <title>Go devroom intro</title>
      </event>
    </room>
  </day>
  <day index="2" date="2026-02-01">
    <room name="Janson">
      <event id="2001">
        <start>23:30</start>
        <duration>01:00</duration>
        <room>Janson</room>
        <slug>closing</slug>
        <title>Closing</title>
      </event>
    </room>
  </day>
</schedule>`

func TestBuild(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 31, 11, 0, 0, 0, time.UTC)

	sched, err := Build([]byte(buildXML), "", now)
	require.NoError(t, err)
	require.Len(t, sched.Days, 2)

	// Day keys are normalized to canonical zero-padded form even when
	// the document attribute is not padded.
	require.Contains(t, sched.Days, "2026-01-31")
	require.Contains(t, sched.Days, "2026-02-01")
	require.Len(t, sched.Days["2026-01-31"], 2)

	// Conference boundaries come out UTC-normalized.
	require.Equal(t, time.Date(2026, 1, 30, 23, 0, 0, 0, time.UTC), sched.Start)
	require.Equal(t, time.Date(2026, 2, 1, 22, 59, 59, 0, time.UTC), sched.End)

	// An event ending past midnight stays bucketed under its start day.
	closing := sched.Days["2026-02-01"][0]
	require.Equal(t, "2001", closing.ID)
	require.True(t, closing.End.After(closing.Start))
	require.Equal(t, "https://fosdem.org/2026/schedule/event/closing", closing.URL())
}

func TestBuildRoomFilter(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 31, 11, 0, 0, 0, time.UTC)

	sched, err := Build([]byte(buildXML), "Janson", now)
	require.NoError(t, err)
	require.Len(t, sched.Days["2026-01-31"], 1)
	require.Equal(t, "1001", sched.Days["2026-01-31"][0].ID)
}

func TestBuildIdempotent(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 31, 11, 0, 0, 0, time.UTC)

	a, err := Build([]byte(buildXML), "", now)
	require.NoError(t, err)
	b, err := Build([]byte(buildXML), "", now)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestBuildParseError(t *testing.T) {
	t.Parallel()
	_, err := Build([]byte("<schedule"), "", time.Now())
	require.Error(t, err)
}
