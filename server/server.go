// Package server exposes the orchestration core over HTTP: a server-sent
// events endpoint that streams a pipeline run, the model router as a query
// endpoint, state and audit lookups, Prometheus metrics and a health check.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/linolazarous/cursorcode-ai/audit"
	"github.com/linolazarous/cursorcode-ai/config"
	"github.com/linolazarous/cursorcode-ai/core"
	"github.com/linolazarous/cursorcode-ai/logging"
	"github.com/linolazarous/cursorcode-ai/metrics"
	"github.com/linolazarous/cursorcode-ai/orchestrator"
	"github.com/linolazarous/cursorcode-ai/router"
)

// UserHeader carries the caller's user id. Authentication happens upstream.
const UserHeader = "X-User-ID"

// defaultAuditLimit bounds GET /v1/audit when no limit is given.
const defaultAuditLimit = 50

// Options configures a Server.
type Options struct {
	Store    core.StateStore
	Audit    audit.Reader
	Sink     audit.Sink
	Logger   logging.Logger
	Metrics  metrics.Recorder
	Gatherer prometheus.Gatherer
	// RateLimitPerMinute applies per user (or client IP) to /v1 routes.
	// Zero disables limiting.
	RateLimitPerMinute int
	// AuditAllRateLimits records every rate-limit trip instead of a 1 in 10
	// sample of callers.
	AuditAllRateLimits bool
}

// Server serves the HTTP API.
type Server struct {
	cfg     *config.Config
	router  *router.Router
	orch    *orchestrator.Orchestrator
	opts    Options
	limiter *RateLimiter
	handler http.Handler
}

// New builds a Server. Rate limit settings default to cfg.Server().
func New(cfg *config.Config, r *router.Router, orch *orchestrator.Orchestrator, optFns ...func(o *Options)) *Server {
	srv := cfg.Server()
	opts := Options{
		Sink:               audit.NopSink{},
		Logger:             logging.NoOpLogger{},
		Metrics:            metrics.Nop(),
		RateLimitPerMinute: srv.RateLimitPerMinute,
		AuditAllRateLimits: srv.AuditAllRateLimits,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		cfg:     cfg,
		router:  r,
		orch:    orch,
		opts:    opts,
		limiter: NewRateLimiter(opts.RateLimitPerMinute, time.Minute),
	}

	api := http.NewServeMux()
	api.HandleFunc("POST /v1/orchestrate", s.handleOrchestrate)
	api.HandleFunc("GET /v1/runs", s.handleRuns)
	api.HandleFunc("DELETE /v1/runs/{id}", s.handleCancelRun)
	api.HandleFunc("GET /v1/router/model", s.handleRouteModel)
	api.HandleFunc("GET /v1/projects/{id}/state", s.handleState)
	api.HandleFunc("GET /v1/audit", s.handleAudit)

	mux := http.NewServeMux()
	mux.Handle("/v1/", s.rateLimit(api))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if opts.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	s.handler = s.instrument(mux)
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("HTTP server listening", "addr", addr)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleOrchestrate(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return
	}
	if req.UserID == "" {
		req.UserID = r.Header.Get(UserHeader)
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// A client disconnect cancels the request context and with it the run.
	for ev := range s.orch.Orchestrate(r.Context(), req) {
		if _, err := w.Write(ev.SSE()); err != nil {
			s.opts.Logger.Warn("SSE write failed", "project_id", req.ProjectID, "run_id", ev.RunID, "error", err.Error())
			continue
		}
		flusher.Flush()
	}
}

func (s *Server) handleRuns(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"runs": s.orch.Active()})
}

func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.orch.Cancel(id); err != nil {
		if errors.Is(err, orchestrator.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRouteModel(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := router.Request{
		AgentType:      core.AgentType(q.Get("agent_type")),
		UserTier:       core.Tier(q.Get("user_tier")),
		TaskComplexity: core.Complexity(q.Get("task_complexity")),
		ForceModel:     q.Get("force_model"),
		UserID:         r.Header.Get(UserHeader),
		ProjectID:      q.Get("project_id"),
	}
	switch {
	case req.AgentType == "":
		writeError(w, http.StatusBadRequest, "agent_type is required")
		return
	case req.UserTier != "" && !req.UserTier.Valid():
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown user_tier %q", req.UserTier))
		return
	case req.TaskComplexity != "" && !req.TaskComplexity.Valid():
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown task_complexity %q", req.TaskComplexity))
		return
	}
	writeJSON(w, http.StatusOK, s.router.SelectModel(r.Context(), req))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store == nil {
		writeError(w, http.StatusNotImplemented, "state store not configured")
		return
	}
	st, err := s.opts.Store.Get(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, core.ErrStateNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if s.opts.Audit == nil {
		writeError(w, http.StatusNotImplemented, "audit reader not configured")
		return
	}
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	events, err := s.opts.Audit.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"environment": s.cfg.Settings().Environment,
		"active_runs": len(s.orch.Active()),
	})
}

// rateLimit rejects callers over their per-minute budget with 429.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(UserHeader)
		key := userID
		if key == "" {
			key = clientIP(r)
		}
		ok, retryAfter := s.limiter.Allow(key)
		if left := s.limiter.Remaining(key); left >= 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(s.opts.RateLimitPerMinute))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(left))
		}
		if ok {
			next.ServeHTTP(w, r)
			return
		}

		seconds := int(retryAfter.Round(time.Second) / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		s.opts.Metrics.IncRateLimited(r.URL.Path)
		if s.opts.AuditAllRateLimits || sampled(key) {
			s.opts.Sink.Emit(audit.NewEvent(userID, audit.ActionRateLimitExceeded, map[string]any{
				"path":         r.URL.Path,
				"method":       r.Method,
				"ip":           clientIP(r),
				"limit_detail": fmt.Sprintf("%d per 1 minute", s.opts.RateLimitPerMinute),
				"retry_after":  seconds,
			}))
		}
		s.opts.Logger.Warn("Rate limit exceeded", "key", key, "path", r.URL.Path)

		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"detail":              "Rate limit exceeded. Please try again later.",
			"retry_after_seconds": seconds,
		})
	})
}

// sampled selects roughly one in ten callers for rate-limit auditing.
func sampled(key string) bool {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32()%10 == 0
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE working through the recorder.
func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.opts.Metrics.ObserveHTTP(r.Method, route, rec.status, time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
