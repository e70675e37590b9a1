// Package api serves architecture searches over HTTP.
//
// Searches run as asynchronous jobs:
//
//	POST   /v1/jobs          submit a job, returns 202 {"id": ...}
//	GET    /v1/jobs/{id}     job status and, once done, its report
//	DELETE /v1/jobs/{id}     cancel a queued or running job
//	GET    /v1/devices       built-in device names
//	GET    /v1/devices/{name} a built-in device
//	GET    /healthz          liveness
//	GET    /metrics          Prometheus metrics
//
// Jobs accept inline OpenQASM only and resolve devices by built-in name or
// inline description; the server never reads paths supplied by clients.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/qarchsearch/pkg/buildinfo"
	"github.com/matzehuels/qarchsearch/pkg/errors"
	"github.com/matzehuels/qarchsearch/pkg/pipeline"
)

const (
	// DefaultMaxJobs bounds concurrently running searches. Further jobs
	// wait in the queued state.
	DefaultMaxJobs = 2

	// DefaultJobTTL is how long finished jobs stay queryable.
	DefaultJobTTL = time.Hour

	// MaxRequestBytes bounds the size of a job submission.
	MaxRequestBytes = 4 << 20
)

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the request and job logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMaxJobs sets how many searches run at once.
func WithMaxJobs(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxJobs = n
		}
	}
}

// WithJobTTL sets how long finished jobs are kept.
func WithJobTTL(d time.Duration) Option {
	return func(s *Server) { s.jobTTL = d }
}

// WithMetricsHandler replaces the /metrics handler. The default serves the
// Prometheus default registry.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// Server runs search jobs submitted over HTTP.
type Server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	metrics http.Handler
	maxJobs int
	jobTTL  time.Duration

	router chi.Router
	jobs   *jobStore
	slots  chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a server executing jobs with runner.
func New(runner *pipeline.Runner, opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		runner:  runner,
		logger:  log.Default(),
		metrics: promhttp.Handler(),
		maxJobs: DefaultMaxJobs,
		jobTTL:  DefaultJobTTL,
		jobs:    newJobStore(),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.slots = make(chan struct{}, s.maxJobs)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/jobs", s.handleSubmit)
		r.Get("/jobs/{id}", s.handleGetJob)
		r.Delete("/jobs/{id}", s.handleCancelJob)
		r.Get("/devices", s.handleListDevices)
		r.Get("/devices/{name}", s.handleGetDevice)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Shutdown cancels all jobs and waits for them to stop or for ctx to end.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, statusFor(code), errorBody{Error: apiError{Code: code, Message: errors.UserMessage(err)}})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound, errors.ErrCodeDeviceNotFound, errors.ErrCodeJobNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusUnprocessableEntity
	}
	if errors.IsInputError(errors.New(code, "")) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
