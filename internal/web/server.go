// Package web provides the HTTP status page and refresh API.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/aet/internal/pipeline"
	"github.com/JonMunkholm/aet/internal/refresh"
	"github.com/JonMunkholm/aet/internal/store"
	appmw "github.com/JonMunkholm/aet/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Refresher runs refreshes on demand.
type Refresher interface {
	Run(ctx context.Context) (refresh.RunResult, error)
	Sources() []pipeline.Source
}

// Store reads what the status surfaces show.
type Store interface {
	ReadTable(ctx context.Context) (*pipeline.Table, error)
	RecentRuns(ctx context.Context, limit int) ([]store.RunRecord, error)
}

// Options tunes the server.
type Options struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration // read-only routes
	RefreshTimeout time.Duration // POST /api/refresh
	RateLimit      bool
	RequestsPerMin int
	RateBurst      int
	Location       *time.Location
	HistoryLimit   int
}

// Server is the HTTP server.
type Server struct {
	refresher Refresher
	store     Store
	opts      Options
	router    *chi.Mux
	server    *http.Server
	now       func() time.Time
}

// NewServer creates a Server with defaults applied to zero options.
func NewServer(refresher Refresher, st Store, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = 10 * time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 10
	}

	s := &Server{
		refresher: refresher,
		store:     st,
		opts:      opts,
		router:    chi.NewRouter(),
		now:       time.Now,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(appmw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders)

	if s.opts.RateLimit && s.opts.RequestsPerMin > 0 {
		burst := s.opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		s.router.Use(appmw.NewRateLimiter(s.opts.RequestsPerMin, burst).Handler)
	}
}

// setupRoutes configures all HTTP routes. A refresh can outlast the
// read-only request timeout, so it is mounted outside that group.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.opts.RequestTimeout))

		r.Get("/", s.handleStatusPage)
		r.Get("/api/status", s.handleStatus)
		r.Get("/api/rows", s.handleRows)
	})

	s.router.Post("/api/refresh", s.handleRefresh)
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		// The status page uses one inline stylesheet and no scripts.
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
