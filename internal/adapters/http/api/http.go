// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/merch/internal/domain/analytics"
	"github.com/okian/merch/internal/domain/model"
	"github.com/okian/merch/internal/domain/ranking"
	"github.com/okian/merch/internal/domain/types"
	"github.com/okian/merch/pkg/logger"
)

const defaultMaxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Touchpoints() []string
	Config(ctx context.Context, id string) (model.TouchpointConfig, error)

	Rankings(ctx context.Context, id string, force bool) (types.Rankings, error)
	Analytics(ctx context.Context, id string) (types.Analytics, error)
	Performance(ctx context.Context, id string) (analytics.Report, error)
	Overrides(ctx context.Context, id string) ([]ranking.Override, error)

	SetOverride(ctx context.Context, id, product string, position int) error
	ClearOverride(ctx context.Context, id, product string) error
	Blacklist(ctx context.Context, id, product string) error
	SetSeasonalBoost(ctx context.Context, id, product string, multiplier float64) error
	UpdateWeights(ctx context.Context, id string, updates map[string]float64) error

	GetStats(ctx context.Context) types.Stats
}

// Server wires HTTP routes for the merchandising API.
type Server struct {
	deps    Dependencies
	logger  logger.Logger
	maxBody int64

	healthHandler *HealthHandler
	statsHandler  *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:          deps,
		logger:        logger.Nop(),
		maxBody:       defaultMaxBodyBytes,
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", MetricsHandler())
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /touchpoints", MetricsMiddleware(s.handleTouchpoints, "touchpoints"))

	mux.HandleFunc("GET /rankings/{touchpoint}", MetricsMiddleware(s.handleRankings, "rankings"))
	mux.HandleFunc("GET /analytics/{touchpoint}", MetricsMiddleware(s.handleAnalytics, "analytics"))
	mux.HandleFunc("GET /performance/{touchpoint}", MetricsMiddleware(s.handlePerformance, "performance"))

	mux.HandleFunc("GET /overrides/{touchpoint}", MetricsMiddleware(s.handleListOverrides, "overrides"))
	mux.HandleFunc("POST /overrides/{touchpoint}", MetricsMiddleware(s.handleSetOverride, "overrides"))
	mux.HandleFunc("DELETE /overrides/{touchpoint}/{product}", MetricsMiddleware(s.handleClearOverride, "overrides"))
	mux.HandleFunc("POST /blacklist/{touchpoint}", MetricsMiddleware(s.handleBlacklist, "blacklist"))
	mux.HandleFunc("PUT /weights/{touchpoint}", MetricsMiddleware(s.handleUpdateWeights, "weights"))
	mux.HandleFunc("PUT /boosts/{touchpoint}", MetricsMiddleware(s.handleSeasonalBoost, "boosts"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// writeJSON encodes v before committing the status. Encoding failures
// are reported as 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Code: "internal_error", Message: "response encoding failed"})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail maps err to a status and writes it. Server errors are logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}

// decodeJSON reads a single JSON value from the request body into dst.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrInvalidBody)
		}
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	return nil
}
