package schedule

import (
	"context"
	"testing"
	"time"

	"fosdemcal/internal/model"
)

func TestRolloverTickPublishesOnce(t *testing.T) {
	t.Parallel()
	store := NewStore()
	r := NewRollover(store)

	clock := time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }

	today, wait := r.tick("")
	if today != "2026-01-31" {
		t.Fatalf("today = %q, want 2026-01-31", today)
	}
	if store.Today() != "2026-01-31" {
		t.Fatalf("store today = %q", store.Today())
	}
	if wait < minRolloverWait {
		t.Fatalf("wait = %v, below the %v floor", wait, minRolloverWait)
	}
	// 12:00Z is 13:00 at +01:00; end of day is 23:59:59, so the wait is
	// 10h59m59s plus the floor.
	want := 10*time.Hour + 59*time.Minute + 59*time.Second + minRolloverWait
	if wait != want {
		t.Fatalf("wait = %v, want %v", wait, want)
	}

	// Same date again: no republish.
	ch, unsub := store.SubscribeToday(1)
	defer unsub()
	if _, w := r.tick(today); w != want {
		t.Fatalf("second tick wait = %v, want %v", w, want)
	}
	select {
	case got := <-ch:
		t.Fatalf("unexpected republish of %q", got)
	default:
	}
}

func TestRolloverTickCrossesMidnight(t *testing.T) {
	t.Parallel()
	store := NewStore()
	r := NewRollover(store)

	// 23:30Z on Jan 31 is already Feb 1 at +01:00.
	clock := time.Date(2026, 1, 31, 23, 30, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }

	today, _ := r.tick("2026-01-31")
	if today != "2026-02-01" {
		t.Fatalf("today = %q, want 2026-02-01", today)
	}
	if store.Today() != "2026-02-01" {
		t.Fatalf("store today = %q", store.Today())
	}
}

func TestRolloverWaitNeverBelowFloor(t *testing.T) {
	t.Parallel()
	r := NewRollover(NewStore())

	// A clock already past the end of today (negative remainder) still
	// waits the floor.
	now := time.Date(2026, 1, 31, 23, 59, 59, 0, model.ReferenceZone).Add(time.Hour)
	if wait := r.waitFor(now, "2026-01-31"); wait != minRolloverWait {
		t.Fatalf("wait = %v, want exactly the %v floor", wait, minRolloverWait)
	}
	if wait := r.waitFor(now, "garbage"); wait != minRolloverWait {
		t.Fatalf("wait for unparseable date = %v, want the floor", wait)
	}
}

func TestRolloverRunStopsOnCancel(t *testing.T) {
	t.Parallel()
	store := NewStore()
	r := NewRollover(store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	// First publish happens promptly on loop entry.
	deadline := time.After(2 * time.Second)
	for store.Today() == "" {
		select {
		case <-deadline:
			t.Fatal("rollover never published today")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
