// Package server exposes the OCR, analysis and report pipelines over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bloodlab/internal/analysis"
	"bloodlab/internal/logger"
	"bloodlab/internal/ocr"
	"bloodlab/internal/report"
)

// Limits bounds the work a single request may cause.
type Limits struct {
	MaxUploadBytes  int64
	OCRTimeout      time.Duration
	AnalysisTimeout time.Duration
}

// Server wires the collaborators to the HTTP routes. Handlers share no
// mutable state, so one Server serves any number of concurrent requests.
type Server struct {
	ocr      ocr.OCRService
	analyzer analysis.Analyzer
	renderer *report.Renderer
	limits   Limits
	now      func() time.Time
	log      zerolog.Logger
}

// Option customizes a Server.
type Option func(*Server)

// WithClock replaces time.Now for report timestamps and filenames.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// New creates a Server.
func New(ocrService ocr.OCRService, analyzer analysis.Analyzer, renderer *report.Renderer, limits Limits, opts ...Option) *Server {
	s := &Server{
		ocr:      ocrService,
		analyzer: analyzer,
		renderer: renderer,
		limits:   limits,
		now:      time.Now,
		log:      logger.WithComponent("server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the gin engine with middleware and routes.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(requestID(), accessLog(), recovery())
	r.Use(cors.New(corsConfig()))

	r.GET("/", s.handleRoot)
	r.GET("/ping", s.handlePing)
	r.POST("/upload", s.handleUpload)
	r.POST("/analyze", s.handleAnalyze)
	r.POST("/generate_report", s.handleGenerateReport)

	return r
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	cfg.AllowHeaders = []string{"*"}
	cfg.ExposeHeaders = []string{"Content-Disposition", requestIDHeader}
	return cfg
}
