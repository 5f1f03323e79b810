package schedule

import (
	"context"
	"time"

	appLog "fosdemcal/internal/log"
	"fosdemcal/internal/model"
)

// minRolloverWait floors the sleep so the loop cannot busy-spin if the
// end-of-day computation ever yields zero or negative.
const minRolloverWait = 30 * time.Second

// Rollover re-derives "today" in the reference timezone and publishes
// it to the store whenever it changes, sleeping until just past the
// next day boundary between cycles. On wake it always recomputes from
// scratch rather than trusting the previous sleep duration, which
// keeps it robust against clock skew and suspended processes.
type Rollover struct {
	store *Store

	// now is the clock; injectable for tests.
	now func() time.Time
}

func NewRollover(store *Store) *Rollover {
	return &Rollover{store: store, now: time.Now}
}

// Run loops until ctx is cancelled; that is the only way out.
func (r *Rollover) Run(ctx context.Context) error {
	var lastToday string
	for {
		today, wait := r.tick(lastToday)
		lastToday = today

		appLog.Debug("waiting for next day", "today", today, "wait", wait.String())
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// tick performs one cycle: publish today if it changed, and report how
// long to sleep until the next cycle.
func (r *Rollover) tick(lastToday string) (string, time.Duration) {
	now := r.now()
	today := model.DateOf(now)
	if today != lastToday {
		r.store.SetToday(today)
		appLog.Info("new day published", "today", today)
	}
	return today, r.waitFor(now, today)
}

// waitFor is the time until 23:59:59 of today at the reference offset,
// clamped at zero, plus the 30-second floor.
func (r *Rollover) waitFor(now time.Time, today string) time.Duration {
	end, ok := model.EndOfDay(today)
	if !ok {
		// Pure clock arithmetic should never get here; fall back to the
		// floor and keep looping.
		appLog.Warn("could not compute end of day", "today", today)
		return minRolloverWait
	}
	d := end.Sub(now)
	if d < 0 {
		d = 0
	}
	return d + minRolloverWait
}
