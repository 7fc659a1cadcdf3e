package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/flowplan"
	"github.com/aretw0/flowplan/internal/logging"
	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/aretw0/flowplan/pkg/options"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RequestIDHeader carries the correlation id of each request.
const RequestIDHeader = "X-Request-Id"

const maxBodyBytes = 4 << 20

// Service is the part of flowplan.Service the handler needs.
type Service interface {
	Validate(flow *domain.FlowDefinition) flowplan.ValidationResult
	Compile(flow *domain.FlowDefinition, set options.Set, lookahead int) (*flowplan.Compilation, error)
	Plan(ctx context.Context, req flowplan.PlanRequest) (*flowplan.PlanResult, error)
}

// Server serves the flowplan HTTP API.
type Server struct {
	Service  Service
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// HandlerOption configures the handler.
type HandlerOption func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics exposes gatherer on GET /metrics.
func WithMetrics(gatherer prometheus.Gatherer) HandlerOption {
	return func(s *Server) {
		s.gatherer = gatherer
	}
}

// NewHandler creates a new HTTP handler for the service.
func NewHandler(svc Service, opts ...HandlerOption) http.Handler {
	server := &Server{Service: svc, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Post("/validate", server.Validate)
	r.Post("/compile", server.Compile)
	r.Post("/plan", server.Plan)
	if server.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(server.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

type ctxKey struct{}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{
		"app":     "flowplan-http",
		"version": strings.TrimSpace(flowplan.Version),
	})
}

// Validate handles the POST /validate request. An invalid flow is still a 200:
// the failing checks are the answer.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	flow, _, ok := s.decode(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.Service.Validate(flow))
}

// Compile handles the POST /compile request.
func (s *Server) Compile(w http.ResponseWriter, r *http.Request) {
	flow, req, ok := s.decode(w, r)
	if !ok {
		return
	}
	set, err := req.Options.Parse()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	comp, err := s.Service.Compile(flow, set, req.Lookahead)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := CompileResponse{Flow: flow.Name, Domain: comp.PDDL.Domain, Problem: comp.PDDL.Problem}
	for _, t := range comp.Registry.Transforms() {
		resp.Transforms = append(resp.Transforms, transformPair{Source: t.Source, Target: t.Target})
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

// Plan handles the POST /plan request.
func (s *Server) Plan(w http.ResponseWriter, r *http.Request) {
	flow, req, ok := s.decode(w, r)
	if !ok {
		return
	}
	set, err := req.Options.Parse()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	start := time.Now()
	res, err := s.Service.Plan(r.Context(), flowplan.PlanRequest{
		Flow:         flow,
		Options:      set,
		Lookahead:    req.Lookahead,
		CollapseMaps: req.CollapseMaps,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("plan served", "request_id", requestIDFrom(r.Context()), "flow", flow.Name,
		"steps", res.Plan.Len(), "duration", time.Since(start))
	s.writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (*domain.FlowDefinition, FlowRequest, bool) {
	var req FlowRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.logger.Warn("invalid request body", "request_id", requestIDFrom(r.Context()), "error", err)
		s.writeJSON(w, r, http.StatusBadRequest, ErrorResponse{
			Error:     fmt.Sprintf("invalid request body: %v", err),
			RequestID: requestIDFrom(r.Context()),
		})
		return nil, req, false
	}
	flow, err := req.Flow.Definition()
	if err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: err.Error(), RequestID: requestIDFrom(r.Context())})
		return nil, req, false
	}
	return flow, req, true
}

// statusOf maps pipeline errors to HTTP statuses.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidFlow),
		errors.Is(err, domain.ErrCompilation),
		errors.Is(err, domain.ErrRegistryCollision),
		errors.Is(err, domain.ErrNoPlan):
		return http.StatusUnprocessableEntity
	case errors.Is(err, flowplan.ErrNoPlanner):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrPlannerFailure):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	resp := ErrorResponse{Error: err.Error(), RequestID: requestIDFrom(r.Context())}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Diagnostics = verr.Diagnostics
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", resp.RequestID, "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("request rejected", "request_id", resp.RequestID, "path", r.URL.Path, "error", err)
	}
	s.writeJSON(w, r, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "request_id", requestIDFrom(r.Context()), "error", err)
	}
}
