// Package server provides the HTTP JSON API of the content studio.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonathan/content-studio/internal/config"
	"github.com/jonathan/content-studio/internal/generation"
	"github.com/jonathan/content-studio/internal/llm"
	"github.com/jonathan/content-studio/internal/logging"
	"github.com/jonathan/content-studio/internal/presets"
	"github.com/jonathan/content-studio/internal/recipes"
	"github.com/jonathan/content-studio/internal/server/middleware"
	"github.com/jonathan/content-studio/internal/server/ratelimit"
	"github.com/jonathan/content-studio/internal/types"
	"github.com/jonathan/content-studio/internal/usage"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const maxBodyBytes = 1 << 20

// HeadlineService builds headline digests.
type HeadlineService interface {
	Headlines(ctx context.Context, req *types.HeadlinesRequest) (*types.HeadlinesResponse, error)
}

// ClientFactory returns the LLM client of a provider, or of the default provider when
// provider is empty. A missing key is a *config.MissingKeyError.
type ClientFactory func(ctx context.Context, provider string) (llm.Client, error)

// ProfileStore reads and writes user profiles.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*types.Profile, error)
	UpsertProfile(ctx context.Context, userID uuid.UUID, req *types.UpsertProfileRequest) (*types.Profile, error)
}

// Pinger reports database health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the routes. Optional fields may be nil; the routes that
// need them answer with the error in Missing.
type Deps struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Headlines HeadlineService
	LLM       ClientFactory
	// Searcher, Excerpts and Usage feed the article generator.
	Searcher generation.Searcher
	Excerpts generation.ExcerptFetcher
	Usage    usage.Store
	Recipes  recipes.Store
	Presets  *presets.Service
	Profiles ProfileStore
	Auth     middleware.TokenValidator
	DB       Pinger
	// Missing explains why an optional dependency is nil, keyed by feature.
	Missing map[string]error
}

// Feature keys of Deps.Missing.
const (
	FeatureRecipes  = "recipes"
	FeatureProfiles = "profiles"
	FeatureAuth     = "auth"
)

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	deps        *Deps
	cfg         *config.Config
	logger      zerolog.Logger
	rateLimiter *ratelimit.Limiter
	handler     http.Handler
}

// New creates the server and its routes.
func New(deps *Deps) *Server {
	cfg := deps.Config
	s := &Server{
		deps:        deps,
		cfg:         cfg,
		logger:      deps.Logger,
		rateLimiter: ratelimit.NewLimiter(ratelimit.FromConfig(cfg.RateLimit)),
	}
	if deps.Presets == nil {
		deps.Presets = presets.NewService(nil, deps.Logger)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/headlines", s.handleHeadlines)
	mux.HandleFunc("POST /api/headlines/review", s.handleReviewHeadlines)
	mux.HandleFunc("POST /api/generate", s.handleGenerate)

	mux.HandleFunc("POST /api/findRecipes", s.handleFindRecipes)
	mux.HandleFunc("POST /api/generate-recipe", s.handleGenerateRecipe)

	mux.Handle("GET /api/travel-presets", s.optionalAuth(http.HandlerFunc(s.handleListPresets)))
	mux.Handle("POST /api/travel-presets", s.requireAuth(http.HandlerFunc(s.handleCreatePreset)))

	mux.Handle("GET /api/profiles", s.requireAuth(http.HandlerFunc(s.handleGetProfile)))
	mux.Handle("POST /api/profiles", s.requireAuth(http.HandlerFunc(s.handleUpsertProfile)))

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.rateLimiter.Stop()
			return fmt.Errorf("server error: %w", err)
		}
	case <-stop:
	}
	s.logger.Info().Msg("shutting down server")

	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.rateLimiter.Stop()
	s.logger.Info().Msg("server stopped")
	return nil
}

// Close stops background work without serving. Used by tests.
func (s *Server) Close() {
	s.rateLimiter.Stop()
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	allowed := s.cfg.Server.AllowedOrigins
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := allowedOrigin(allowed, r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+RequestIDHeader)
			w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func allowedOrigin(allowed []string, origin string) string {
	for _, a := range allowed {
		if a == "*" {
			return "*"
		}
		if origin != "" && a == origin {
			return origin
		}
	}
	return ""
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// withLogging assigns a request id, puts a request-scoped logger in the context and logs
// each completed request.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		logger := s.logger.With().Str("request_id", requestID).Logger()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(logging.WithContext(r.Context(), logger)))

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		event := logger.Info()
		if status >= http.StatusInternalServerError {
			event = logger.Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", rec.bytes).
			Dur("duration", time.Since(start)).
			Str("remote", clientID(r)).
			Msg("request completed")
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	if s.deps.Auth == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.writeError(w, r, s.missing(FeatureAuth))
		})
	}
	return middleware.AuthMiddleware(s.deps.Auth)(next)
}

func (s *Server) optionalAuth(next http.Handler) http.Handler {
	if s.deps.Auth == nil {
		return next
	}
	return middleware.OptionalAuthMiddleware(s.deps.Auth)(next)
}

// missing returns the recorded reason a feature is unavailable.
func (s *Server) missing(feature string) error {
	if err, ok := s.deps.Missing[feature]; ok && err != nil {
		return err
	}
	return &config.MissingKeyError{Feature: feature, EnvVar: "its configuration"}
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}
	if s.deps.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.DB.Ping(ctx); err != nil {
			logging.FromContext(r.Context()).Warn().Err(err).Msg("database ping failed")
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
			return
		}
		resp["database"] = "ok"
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps err to a status and writes it.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	event := logging.FromContext(r.Context()).Warn()
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		event = logging.FromContext(r.Context()).Error()
	}
	event.Err(err).Int("status", status).Msg("request failed")
	s.errorResponse(w, status, publicMessage(err, status))
}

// decodeJSON reads a JSON request body into v and runs its Validate method.
func decodeJSON[T interface{ Validate() error }](w http.ResponseWriter, r *http.Request, v T) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	if err := v.Validate(); err != nil {
		return validationError(err)
	}
	return nil
}

// clientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; forwarded headers are not trusted.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate limit exceeded, please try again later",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["resetAt"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Round(time.Second).Seconds())
		if seconds < 1 {
			seconds = 1
		}
		response["retryAfter"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Warn().
		Str("path", r.URL.Path).
		Str("remote", clientID(r)).
		Int("limit", info.Limit).
		Msg("rate limit exceeded")

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
