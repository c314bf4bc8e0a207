package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"jugglerbayes/app"
	"jugglerbayes/domain/setting"
	apperrors "jugglerbayes/internal/errors"
)

// Estimator is the slice of the estimation service the API needs
type Estimator interface {
	Catalog() *setting.Catalog
	Estimate(ctx context.Context, req app.EstimateRequest) (*app.EstimateReport, error)
	Sweep(ctx context.Context, req app.SweepRequest) (*app.SweepReport, error)
}

// Server serves estimates and sweeps as JSON
type Server struct {
	router  *chi.Mux
	service Estimator
	logger  *log.Entry
}

// estimateBody uses pointers so a missing field is distinguishable from 0
type estimateBody struct {
	Trials    *int `json:"trials"`
	Successes *int `json:"successes"`
}

type sweepBody struct {
	Trials *int `json:"trials"`
	From   *int `json:"from"`
	To     *int `json:"to"`
	Step   int  `json:"step"`
}

// CatalogResponse describes the loaded setting tables
type CatalogResponse struct {
	Name          string          `json:"name"`
	Labels        []setting.Label `json:"labels"`
	Probabilities setting.Table   `json:"probabilities"`
	Priors        setting.Table   `json:"priors"`
}

// errorResponse is the body of every non-2xx reply
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// NewServer creates the JSON API server
func NewServer(service Estimator) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		service: service,
		logger:  log.WithField("component", "api"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.requestLogger)
}

func (s *Server) setupRoutes() {
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/catalog", s.handleCatalog)
		r.Post("/estimate", s.handleEstimate)
		r.Post("/sweep", s.handleSweep)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	catalog := s.service.Catalog()
	s.writeJSON(w, http.StatusOK, CatalogResponse{
		Name:          catalog.Name,
		Labels:        catalog.Labels(),
		Probabilities: catalog.Probabilities,
		Priors:        catalog.Priors,
	})
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var body estimateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Trials == nil || body.Successes == nil {
		s.writeError(w, r, apperrors.InvalidInput("body must carry integer trials and successes"))
		return
	}

	report, err := s.service.Estimate(r.Context(), app.EstimateRequest{
		Trials:    *body.Trials,
		Successes: *body.Successes,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	var body sweepBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Trials == nil || body.From == nil || body.To == nil {
		s.writeError(w, r, apperrors.InvalidInput("body must carry integer trials, from and to"))
		return
	}
	if body.Step == 0 {
		body.Step = 1
	}

	report, err := s.service.Sweep(r.Context(), app.SweepRequest{
		Trials: *body.Trials,
		From:   *body.From,
		To:     *body.To,
		Step:   body.Step,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithFields(log.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"path":       r.URL.Path,
		}).WithError(err).Error("Request failed")
		// the cause stays in the log
		err = apperrors.InternalError("internal error")
	}
	s.writeJSON(w, status, errorResponse{
		Error: err.Error(),
		Code:  apperrors.GetCode(err),
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.WithFields(log.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
		}).Debug("Handled request")
	})
}
