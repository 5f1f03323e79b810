package schedule

import (
	"testing"

	"fosdemcal/internal/model"
)

func twoDaySchedule() *model.Schedule {
	return &model.Schedule{
		Days: map[string][]model.Event{
			"2026-02-01": {{ID: "11"}, {ID: "12"}},
			"2026-02-02": {{ID: "21"}},
		},
	}
}

func TestSelect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		sched   *model.Schedule
		today   string
		wantIDs []string
	}{
		{name: "direct hit", sched: twoDaySchedule(), today: "2026-02-01", wantIDs: []string{"11", "12"}},
		{name: "before range clamps to first day", sched: twoDaySchedule(), today: "2025-12-31", wantIDs: []string{"11", "12"}},
		{name: "after range clamps to last day", sched: twoDaySchedule(), today: "2026-03-01", wantIDs: []string{"21"}},
		{name: "unset today clamps to first day", sched: twoDaySchedule(), today: "", wantIDs: []string{"11", "12"}},
		{name: "empty schedule", sched: &model.Schedule{Days: map[string][]model.Event{}}, today: "", wantIDs: nil},
		{name: "nil schedule", sched: nil, today: "2026-02-01", wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(tt.sched, tt.today)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Fatalf("event[%d].ID = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestSelectHoleInsideRange(t *testing.T) {
	t.Parallel()
	sched := &model.Schedule{
		Days: map[string][]model.Event{
			"2026-02-01": {{ID: "11"}},
			"2026-02-03": {{ID: "31"}},
		},
	}
	// A data hole between start and end returns empty, never a guess.
	if got := Select(sched, "2026-02-02"); len(got) != 0 {
		t.Fatalf("expected empty list for hole day, got %d events", len(got))
	}
}
