// Package httpapi exposes recent chord events and the split point over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/leandrodaf/chordsense/internal/logger"
	"github.com/leandrodaf/chordsense/sdk/contracts"
	"github.com/rs/cors"
)

const (
	defaultHistory = 256
	defaultLimit   = 32
)

// ErrInvalidLimit is reported for a limit query parameter that is not a positive integer.
var ErrInvalidLimit = errors.New("limit must be a positive integer")

// Server records chord events from an interpreter and serves them as JSON.
type Server struct {
	interp  contracts.Interpreter
	logger  contracts.Logger
	origins []string
	history int

	mu     sync.RWMutex
	recent []contracts.ChordEvent // ring buffer
	next   int
	count  int

	unsubscribe func()
	handler     http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request failures.
func WithLogger(l contracts.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithHistorySize sets how many chord events are retained.
func WithHistorySize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.history = n
		}
	}
}

// WithAllowedOrigins restricts CORS to the given origins. The default allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// New subscribes to interp and builds the router.
//
// Returns:
//   - *Server: call Close to stop recording.
func New(interp contracts.Interpreter, opts ...Option) *Server {
	s := &Server{
		interp:  interp,
		history: defaultHistory,
		origins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.NewNopLogger()
	}
	s.recent = make([]contracts.ChordEvent, s.history)

	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/split", s.handleSplit).Methods(http.MethodGet)
	router.HandleFunc("/chords", s.handleChords).Methods(http.MethodGet)
	router.HandleFunc("/chords/latest", s.handleLatest).Methods(http.MethodGet)

	s.handler = cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet},
	}).Handler(router)

	s.unsubscribe = interp.SubscribeToChordEvents(s.record)
	return s
}

// Handler returns the HTTP handler with CORS applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Close stops recording chord events.
func (s *Server) Close() {
	s.unsubscribe()
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP API listening", s.logger.Field().String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) record(ev contracts.ChordEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent[s.next] = ev
	s.next = (s.next + 1) % len(s.recent)
	if s.count < len(s.recent) {
		s.count++
	}
}

// latest returns up to n events, oldest first.
func (s *Server) latest(n int) []contracts.ChordEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n > s.count {
		n = s.count
	}
	out := make([]contracts.ChordEvent, n)
	for i := 0; i < n; i++ {
		idx := (s.next - n + i + len(s.recent)) % len(s.recent)
		out[i] = s.recent[idx]
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]int{"splitPitch": s.interp.CurrentSplitPoint()})
}

func (s *Server) handleChords(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": ErrInvalidLimit.Error()})
			return
		}
		limit = n
	}
	s.writeJSON(w, http.StatusOK, s.latest(limit))
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	events := s.latest(1)
	if len(events) == 0 {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no chord events yet"})
		return
	}
	s.writeJSON(w, http.StatusOK, events[0])
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", s.logger.Field().Error("error", err))
	}
}
