package fetch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	appLog "fosdemcal/internal/log"
	"fosdemcal/internal/schedule"
)

// DefaultDebounce is the window within which rapid refresh triggers
// collapse to a single execution.
const DefaultDebounce = 400 * time.Millisecond

// BodyFetcher supplies the schedule document text. Satisfied by
// *Fetcher; tests substitute a stub.
type BodyFetcher interface {
	Fetch(ctx context.Context, url string) (body []byte, fromCache bool, err error)
}

// Service coordinates schedule refreshes against the store. Triggers
// are debounced (last arguments win) and every refresh carries a
// monotonically increasing token so a superseded in-flight fetch can
// never overwrite fresher state.
type Service struct {
	fetcher  BodyFetcher
	store    *schedule.Store
	url      string
	debounce time.Duration

	// now feeds the range resolver; injectable for tests.
	now func() time.Time

	mu          sync.Mutex
	timer       *time.Timer
	pendingRoom string

	seq atomic.Uint64
}

func NewService(fetcher BodyFetcher, store *schedule.Store, url string, debounce time.Duration) *Service {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Service{
		fetcher:  fetcher,
		store:    store,
		url:      url,
		debounce: debounce,
		now:      time.Now,
	}
}

// Trigger schedules a refresh after the debounce window. Calls inside
// the window restart the timer and replace the pending room filter, so
// a burst collapses to one refresh with the last arguments. ctx should
// be a lifecycle context, not a per-request one; the refresh outlives
// the trigger call.
func (s *Service) Trigger(ctx context.Context, room string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pendingRoom = room
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		pending := s.pendingRoom
		s.mu.Unlock()

		if err := s.Refresh(ctx, pending); err != nil {
			appLog.Warn("debounced schedule refresh failed", "err", err, "room", pending)
		}
	})
}

// Refresh fetches and rebuilds the schedule immediately. A transport
// failure leaves the previous schedule untouched; a document-parse
// failure is recorded on the store as a user-visible error. When a
// newer refresh has started in the meantime the result is discarded.
func (s *Service) Refresh(ctx context.Context, room string) error {
	token := s.seq.Add(1)
	s.store.SetLoading(true)
	defer s.store.SetLoading(false)

	body, fromCache, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		// Stale-but-valid data beats blanking the schedule.
		appLog.Warn("schedule fetch failed; keeping previous schedule", "err", err, "url", s.url)
		return err
	}

	sched, err := schedule.Build(body, room, s.now())
	if err != nil {
		appLog.Error("schedule document parse failed", err, "url", s.url)
		s.store.SetError(err.Error())
		return err
	}

	if s.seq.Load() != token {
		appLog.Debug("discarding superseded schedule refresh", "token", token, "newest", s.seq.Load())
		return nil
	}

	s.store.SetSchedule(sched)
	appLog.Info("schedule updated", "days", len(sched.Days), "room", room, "from_cache", fromCache)
	return nil
}
