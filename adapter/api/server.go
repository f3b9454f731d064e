// Package api provides the HTTP API of the job tracker.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/jobtrack/pkg/observability"
	"github.com/rs/cors"
)

// maxBodyBytes caps JSON and webhook request bodies.
const maxBodyBytes = 1 << 20

// Server is the HTTP API server.
type Server struct {
	mux     *http.ServeMux
	server  *http.Server
	handler http.Handler
	deps    Dependencies
	logger  *slog.Logger
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
	// SignInURL is where unauthenticated browser navigations are sent.
	SignInURL string
	// ConfigProblems switches every route to the configuration error page.
	ConfigProblems []string
	// CheckoutRate and CheckoutBurst bound checkout attempts per owner.
	CheckoutRate  float64
	CheckoutBurst int
	// PaystackSecret verifies webhook signatures.
	PaystackSecret string
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:          "0.0.0.0:8080",
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   60 * time.Second,
		SignInURL:     "/sign-in",
		CheckoutRate:  1,
		CheckoutBurst: 5,
	}
}

// Dependencies are the application services behind the routes.
type Dependencies struct {
	Auth          Authenticator
	Jobs          JobService
	Subscriptions SubscriptionService
	Profiles      ProfileService
	Health        HealthChecker
	Metrics       observability.Metrics
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, deps Dependencies, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NoopMetrics{}
	}
	if cfg.SignInURL == "" {
		cfg.SignInURL = "/sign-in"
	}

	s := &Server{
		mux:    http.NewServeMux(),
		deps:   deps,
		logger: logger,
	}

	var routes http.Handler = s.mux
	if len(cfg.ConfigProblems) > 0 {
		routes = configErrorHandler(cfg.ConfigProblems)
	} else {
		s.registerRoutes(cfg)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type", requestIDHeader},
		AllowCredentials: true,
	})

	s.handler = chain(routes,
		requestID,
		recoverer(logger),
		accessLog(logger, deps.Metrics),
		c.Handler,
	)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes(cfg ServerConfig) {
	auth := requireOwner(s.deps.Auth, cfg.SignInURL, s.logger)

	jobs := NewJobHandler(s.deps.Jobs, s.logger)
	billing := &SubscriptionHandler{
		subscriptions: s.deps.Subscriptions,
		profiles:      s.deps.Profiles,
		limiter:       newOwnerLimiter(cfg.CheckoutRate, cfg.CheckoutBurst),
		webhookSecret: cfg.PaystackSecret,
		logger:        s.logger,
	}
	dashboard := &DashboardHandler{
		jobs:          s.deps.Jobs,
		subscriptions: s.deps.Subscriptions,
		profiles:      s.deps.Profiles,
		logger:        s.logger,
	}
	me := &ProfileHandler{profiles: s.deps.Profiles, logger: s.logger}

	// Public
	s.mux.HandleFunc("GET /health", s.handleHealth)
	if s.deps.MetricsHandler != nil {
		s.mux.Handle("GET /metrics", s.deps.MetricsHandler)
	}
	s.mux.HandleFunc("GET /api/plans", billing.ListPlans)
	s.mux.HandleFunc("GET /api/subscription/success", billing.CheckoutSuccess)
	s.mux.HandleFunc("POST /api/webhook/paystack", billing.Webhook)

	// Jobs
	s.mux.Handle("GET /api/jobs", auth(http.HandlerFunc(jobs.List)))
	s.mux.Handle("GET /api/jobs/stats", auth(http.HandlerFunc(jobs.Stats)))
	s.mux.Handle("GET /api/jobs/{id}", auth(http.HandlerFunc(jobs.Get)))
	s.mux.Handle("POST /api/jobs", auth(http.HandlerFunc(jobs.Create)))
	s.mux.Handle("PUT /api/jobs/{id}", auth(http.HandlerFunc(jobs.Update)))
	s.mux.Handle("PATCH /api/jobs/{id}/status", auth(http.HandlerFunc(jobs.UpdateStatus)))
	s.mux.Handle("DELETE /api/jobs/{id}", auth(http.HandlerFunc(jobs.Delete)))

	// Dashboard and subscription
	s.mux.Handle("GET /api/dashboard", auth(http.HandlerFunc(dashboard.Get)))
	s.mux.Handle("GET /api/subscription", auth(http.HandlerFunc(billing.GetSubscription)))
	s.mux.Handle("POST /api/subscription/checkout", auth(http.HandlerFunc(billing.Checkout)))

	// Identity
	s.mux.Handle("GET /api/me", auth(http.HandlerFunc(me.Get)))
	s.mux.Handle("POST /api/me/sync", auth(http.HandlerFunc(me.Sync)))
}

// handleHealth reports the health registry; 503 when a component is down.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health == nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": string(observability.HealthStatusHealthy),
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	health := s.deps.Health.Check(r.Context())
	status := http.StatusOK
	if health.Status == observability.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting API server",
		"addr", s.server.Addr,
	)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// writeError writes the {error} body every failed action returns.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return errors.New("request body must be valid JSON")
	}
	return nil
}
