package schedule

import (
	"sync"
	"sync/atomic"

	"fosdemcal/internal/model"
)

// Store owns the two independently updated state slots: the schedule
// (written only by the refresh service) and today (written only by the
// rollover loop). Handlers read both; nothing else mutates either.
//
// Today changes fan out to subscribers over buffered channels.
// Publish never blocks; a slow subscriber drops updates.
type Store struct {
	mu      sync.RWMutex
	sched   *model.Schedule
	today   string
	lastErr string
	loading bool

	subs map[uint64]chan string
	seq  atomic.Uint64
}

func NewStore() *Store {
	return &Store{subs: map[uint64]chan string{}}
}

// SetSchedule replaces the schedule wholesale and clears any recorded
// error.
func (s *Store) SetSchedule(sched *model.Schedule) {
	s.mu.Lock()
	s.sched = sched
	s.lastErr = ""
	s.mu.Unlock()
}

// SetError records a user-visible error string and clears the loading
// flag. The previous schedule stays in place.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.loading = false
	s.mu.Unlock()
}

func (s *Store) SetLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// SetToday publishes a new today value and notifies subscribers.
func (s *Store) SetToday(date string) {
	s.mu.Lock()
	s.today = date
	chs := make([]chan string, 0, len(s.subs))
	for _, ch := range s.subs {
		chs = append(chs, ch)
	}
	s.mu.Unlock()

	for _, ch := range chs {
		// Non-blocking delivery. If a subscriber unsubscribes
		// concurrently and the channel closes, recover from the send
		// panic.
		func() {
			defer func() { _ = recover() }()
			select {
			case ch <- date:
			default:
			}
		}()
	}
}

func (s *Store) Schedule() *model.Schedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sched
}

func (s *Store) Today() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.today
}

// Snapshot returns both state slots under a single lock so a render
// request sees a consistent pair.
func (s *Store) Snapshot() (*model.Schedule, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sched, s.today
}

func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// SubscribeToday returns a channel receiving today values as they are
// published, and an unsubscribe func that is safe to call more than
// once.
func (s *Store) SubscribeToday(buffer int) (<-chan string, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan string, buffer)
	id := s.seq.Add(1)

	s.mu.Lock()
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsub
}
