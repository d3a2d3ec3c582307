// Package httpapi exposes the plan and tracking services over HTTP.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexanderramin/dayplan/internal/service"
	"github.com/gorilla/mux"
)

// Server routes HTTP requests onto the services.
type Server struct {
	plans   service.PlanService
	tracker service.ActivityTracker
	log     *slog.Logger
	router  *mux.Router
}

// NewServer builds the router. tracker may be nil, in which case the
// tracking endpoints answer 503.
func NewServer(plans service.PlanService, tracker service.ActivityTracker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{plans: plans, tracker: tracker, log: logger, router: mux.NewRouter()}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.logRequests)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	u := r.PathPrefix("/v1/users/{user}").Subrouter()
	u.HandleFunc("/plans/today", s.handleGetToday).Methods(http.MethodGet)
	u.HandleFunc("/plans/today", s.handleCreateToday).Methods(http.MethodPost)
	u.HandleFunc("/plans/today", s.handleClearToday).Methods(http.MethodDelete)
	u.HandleFunc("/plans/today/completions", s.handleComplete).Methods(http.MethodPost)
	u.HandleFunc("/plans/today/completions", s.handleCompletionStatus).Methods(http.MethodGet)
	u.HandleFunc("/carryover", s.handleCarryover).Methods(http.MethodGet)
	u.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	u.HandleFunc("/completion-rate", s.handleCompletionRate).Methods(http.MethodGet)

	r.HandleFunc("/v1/activities/{id}/start", s.requireTracker(s.handleStart)).Methods(http.MethodPost)
	r.HandleFunc("/v1/feedback", s.requireTracker(s.handleFeedback)).Methods(http.MethodPost)
	r.HandleFunc("/v1/stats/durations", s.requireTracker(s.handleDurationStats)).Methods(http.MethodGet)
	r.HandleFunc("/v1/stats/feedback", s.requireTracker(s.handleFeedbackStats)).Methods(http.MethodGet)
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// NewHTTPServer wraps the handler with the timeouts used in production.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.InfoContext(r.Context(), "http_request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) requireTracker(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.tracker == nil {
			writeError(w, http.StatusServiceUnavailable, "activity tracking is disabled")
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
