package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"fosdemcal/internal/config"
	"fosdemcal/internal/feed"
	appLog "fosdemcal/internal/log"
	"fosdemcal/internal/model"
	"fosdemcal/internal/schedule"
)

// Refresher triggers a debounced schedule refresh. Satisfied by
// *fetch.Service.
type Refresher interface {
	Trigger(ctx context.Context, room string)
}

// Server provides the HTTP API over the schedule state.
type Server struct {
	cfg       *config.Config
	store     *schedule.Store
	refresher Refresher
	mux       *http.ServeMux

	// baseCtx is the process lifecycle context handed to refresh
	// triggers, which outlive the HTTP request that caused them.
	baseCtx context.Context

	// refreshLimit bounds how often the refresh endpoint may schedule
	// work, on top of the service-level debounce.
	refreshLimit *rate.Limiter
}

// NewServer constructs a new Server. ctx is the process lifecycle
// context, not a request context.
func NewServer(ctx context.Context, cfg *config.Config, store *schedule.Store, refresher Refresher) *Server {
	s := &Server{
		cfg:          cfg,
		store:        store,
		refresher:    refresher,
		mux:          http.NewServeMux(),
		baseCtx:      ctx,
		refreshLimit: rate.NewLimiter(rate.Every(time.Second), 3),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
// Empty username or password counts as disabled.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP
// Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="fosdemcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/schedule", s.handleSchedule)
	s.mux.HandleFunc("/api/today", s.handleToday)
	s.mux.HandleFunc("/api/refresh", s.handleRefresh)
	s.mux.HandleFunc("/schedule.ics", s.handleFeed)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Today   string        `json:"today"`
	Events  []model.Event `json:"events"`
	Loading bool          `json:"loading"`
	Error   string        `json:"error,omitempty"`
}

// handleEvents returns the event list for the currently selected day:
// today's events when today is a conference day, otherwise the nearest
// end of the conference.
func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	sched, today := s.store.Snapshot()
	writeJSON(w, http.StatusOK, eventsResponse{
		Today:   today,
		Events:  schedule.Select(sched, today),
		Loading: s.store.Loading(),
		Error:   s.store.Err(),
	})
}

// handleSchedule returns the full date map plus the conference range.
func (s *Server) handleSchedule(w http.ResponseWriter, _ *http.Request) {
	sched := s.store.Schedule()
	if sched == nil {
		sched = &model.Schedule{Days: map[string][]model.Event{}}
	}
	writeJSON(w, http.StatusOK, sched)
}

func (s *Server) handleToday(w http.ResponseWriter, _ *http.Request) {
	type todayResponse struct {
		Today string `json:"today"`
	}
	writeJSON(w, http.StatusOK, todayResponse{Today: s.store.Today()})
}

// handleRefresh schedules a debounced schedule refresh.
//
// POST /api/refresh?room=Janson
//   - room: exact room-name filter; empty fetches all rooms.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	if !s.refreshLimit.Allow() {
		writeError(w, http.StatusTooManyRequests, "refresh rate limit exceeded")
		return
	}

	room := r.URL.Query().Get("room")
	appLog.Info("api refresh request", "room", room)
	s.refresher.Trigger(s.baseCtx, room)

	type refreshResponse struct {
		Status string `json:"status"`
		Room   string `json:"room,omitempty"`
	}
	writeJSON(w, http.StatusAccepted, refreshResponse{Status: "scheduled", Room: room})
}

// handleFeed serves the whole schedule as an iCalendar feed.
func (s *Server) handleFeed(w http.ResponseWriter, _ *http.Request) {
	cal := feed.Calendar(s.store.Schedule())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(cal.Serialize())); err != nil {
		appLog.Error("failed to write calendar response", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
