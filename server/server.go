// Package server exposes the dispatch framework over HTTP: execute,
// validate, catalog discovery, per-operation help and rendered docs,
// plus health and Prometheus metrics endpoints.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smallnest/toolgate/adapter"
	"github.com/smallnest/toolgate/docs"
	"github.com/smallnest/toolgate/log"
)

const maxBodyBytes = 1 << 20 // 1 MB

// Server routes HTTP requests to registered adapters.
type Server struct {
	registry *adapter.Registry
	logger   log.Logger
	timeout  time.Duration
	gatherer prometheus.Gatherer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// WithMetrics serves /metrics from the given registry. Pass a
// *prometheus.Registry to share it with monitor.NewPrometheus.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.gatherer = reg
	}
}

// New creates a Server over the adapter registry.
func New(registry *adapter.Registry, opts ...Option) *Server {
	s := &Server{
		registry: registry,
		logger:   log.GetDefaultLogger(),
		timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/services", s.handleServices)
		r.Route("/services/{service}", func(r chi.Router) {
			r.Get("/catalog", s.handleCatalog)
			r.Get("/operations/{name}", s.handleOperationHelp)
			r.Get("/docs", s.handleDocs)
			r.Post("/validate", s.handleValidate)
			r.Post("/execute", s.handleExecute)
			r.Post("/execute/raw", s.handleExecuteRaw)
		})
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http %s %s took=%s", r.Method, r.URL.Path, time.Since(start))
	})
}

func (s *Server) adapterFor(w http.ResponseWriter, r *http.Request) (adapter.Adapter, bool) {
	service := chi.URLParam(r, "service")
	a, err := s.registry.Get(service)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown service: "+service)
		return nil, false
	}
	return a, true
}

func (s *Server) handleServices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"services": s.registry.Services()})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	a, ok := s.adapterFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.Catalog())
}

func (s *Server) handleOperationHelp(w http.ResponseWriter, r *http.Request) {
	a, ok := s.adapterFor(w, r)
	if !ok {
		return
	}
	op, err := a.OperationHelp(chi.URLParam(r, "name"))
	if err != nil {
		var unknown *adapter.ErrUnknownOperation
		if errors.As(err, &unknown) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	a, ok := s.adapterFor(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(docs.HTML(a.Catalog()))
}

// executeRequest is the execute/validate request body. Params stays
// raw so a non-object value is rejected here, at the JSON boundary,
// instead of panicking deeper in.
type executeRequest struct {
	Action    string          `json:"action"`
	Params    json.RawMessage `json:"params"`
	UserID    string          `json:"userId"`
	AccountID string          `json:"accountId"`
}

// decodeParams turns the raw params into a map. Absent or null params
// mean an empty map; anything that is not a JSON object is an error.
func (req *executeRequest) decodeParams() (map[string]any, error) {
	if len(req.Params) == 0 || string(req.Params) == "null" {
		return map[string]any{}, nil
	}
	var params map[string]any
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, errors.New("params must be a JSON object")
	}
	return params, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	a, ok := s.adapterFor(w, r)
	if !ok {
		return
	}
	var req executeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	params, err := req.decodeParams()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a.Validate(req.Action, params))
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	a, ok := s.adapterFor(w, r)
	if !ok {
		return
	}
	var req executeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	params, err := req.decodeParams()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	env := a.Execute(r.Context(), req.Action, params, req.UserID, req.AccountID)
	// Envelope errors are dispatch outcomes, not HTTP failures: the
	// transport status stays 200 and isError carries the signal.
	writeJSON(w, http.StatusOK, env)
}

type rawRequest struct {
	adapter.RawRequest
	UserID    string `json:"userId"`
	AccountID string `json:"accountId"`
}

func (s *Server) handleExecuteRaw(w http.ResponseWriter, r *http.Request) {
	a, ok := s.adapterFor(w, r)
	if !ok {
		return
	}
	var req rawRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	env := a.ExecuteRaw(r.Context(), req.RawRequest, req.UserID, req.AccountID)
	writeJSON(w, http.StatusOK, env)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
