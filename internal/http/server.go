package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	applog "tracker/internal/log"
	"tracker/internal/metrics"
	"tracker/internal/middleware/ratelimit"
	"tracker/internal/middleware/security"
	"tracker/internal/middleware/trace"
	"tracker/internal/services"
)

// Pinger reports whether a dependency is reachable; used by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the use cases the API exposes.
type Services struct {
	Transactions *services.TransactionService
	Analytics    *services.AnalyticsService
	Categories   *services.CategoryService
	Settings     *services.SettingsService
}

type Options struct {
	RateLimitPerMinute int
	MetricsEnabled     bool
	RequestTimeout     time.Duration
	Logger             *applog.Logger
	Ready              Pinger
	// Now is the clock for analytics and notifications; defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server

	transactions *services.TransactionService
	analytics    *services.AnalyticsService
	categories   *services.CategoryService
	settings     *services.SettingsService

	ready        Pinger
	now          func() time.Time
	rateLimiter  *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc Services, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}

	s := &Server{
		transactions: svc.Transactions,
		analytics:    svc.Analytics,
		categories:   svc.Categories,
		settings:     svc.Settings,
		ready:        opts.Ready,
		now:          opts.Now,
		rateLimiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
	}
	detector := security.NewDetector(metrics.SuspiciousRequests.Inc)

	r := chi.NewRouter()
	r.Use(trace.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(applog.Middleware(opts.Logger, trace.FromRequest))
	r.Use(trace.Metrics)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(detector.Middleware)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	if opts.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(opts.RequestTimeout))
		r.Use(requireUser)
		r.Use(s.limitWrites(detector.ExtractClientIP))

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", s.handleCreateTransaction)
			r.Get("/", s.handleListTransactions)
			r.Get("/analytics/{period}", s.handleAnalytics)
			r.Get("/{id}", s.handleGetTransaction)
			r.Put("/{id}", s.handleUpdateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})
		r.Get("/notifications", s.handleNotifications)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Post("/", s.handleCreateCategory)
			r.Delete("/{id}", s.handleDeleteCategory)
		})
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleUpdateSettings)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      opts.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// limitWrites rate limits everything except reads.
func (s *Server) limitWrites(extractIP func(*http.Request) string) func(http.Handler) http.Handler {
	onLimit := func(w http.ResponseWriter, r *http.Request) {
		metrics.RateLimited.Inc()
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
	}
	limit := s.rateLimiter.Middleware(extractIP, onLimit)
	return func(next http.Handler) http.Handler {
		limited := limit(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}

// Shutdown gracefully shuts down the server and the rate limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
