package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"jugglerbayes/app"
	"jugglerbayes/domain/setting"
	"jugglerbayes/internal/report"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Estimator is the slice of the estimation service the web form needs
type Estimator interface {
	Catalog() *setting.Catalog
	Estimate(ctx context.Context, req app.EstimateRequest) (*app.EstimateReport, error)
	Sweep(ctx context.Context, req app.SweepRequest) (*app.SweepReport, error)
}

// Server represents the web server for the estimation form
type Server struct {
	router    *gin.Engine
	service   Estimator
	templates *template.Template
	logger    *log.Entry
}

// NewServer creates a new web server instance
func NewServer(service Estimator) (*Server, error) {
	funcMap := template.FuncMap{
		"percent": report.FormatPercent,
		"odds": func(p float64) string {
			if p <= 0 {
				return "-"
			}
			return fmt.Sprintf("1/%.2f", 1/p)
		},
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		router:    gin.New(),
		service:   service,
		templates: templates,
		logger:    log.WithField("component", "ui"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// Handler exposes the router for http.Server and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLogger())
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.POST("/estimate", s.handleEstimate)
	s.router.POST("/sweep", s.handleSweep)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("Handled request")
	}
}
