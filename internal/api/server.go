// Package api serves the scoring dashboard over HTTP: read endpoints over
// the latest persisted run, ad-hoc scoring of posted tables, and a
// websocket feed of completed runs and alerts.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"stablecoin-risk-monitor/internal/logging"
	"stablecoin-risk-monitor/internal/metrics"
	"stablecoin-risk-monitor/internal/observability"
	"stablecoin-risk-monitor/internal/pipeline"
	"stablecoin-risk-monitor/internal/scoring"
	"stablecoin-risk-monitor/internal/storage"
)

// Version is reported by /health.
const Version = pipeline.GeneratorVersion

// StatusSource reports scheduler state for /status.
type StatusSource interface {
	Status() pipeline.Status
}

// Options configures a Server. Runs and Scores are required.
type Options struct {
	Runs   storage.ScoringRunStore
	Scores storage.RiskScoreStore

	// Status backs /status; nil serves 404.
	Status StatusSource

	// Policy scores POST /api/v1/score bodies.
	Policy scoring.Policy

	// Hub backs /ws; nil disables the route.
	Hub *Hub

	Logger logrus.FieldLogger
}

// Server is the HTTP API.
type Server struct {
	runs       storage.ScoringRunStore
	scores     storage.RiskScoreStore
	aggregator *metrics.Aggregator
	status     StatusSource
	scorer     *scoring.Scorer
	hub        *Hub
	logger     logrus.FieldLogger
	router     *gin.Engine
	started    time.Time
}

var errMissingStores = errors.New("api: run and score stores are required")

// NewServer validates the policy and builds the router.
func NewServer(opts Options) (*Server, error) {
	if opts.Runs == nil || opts.Scores == nil {
		return nil, errMissingStores
	}
	scorer, err := scoring.NewScorer(opts.Policy)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Server{
		runs:       opts.Runs,
		scores:     opts.Scores,
		aggregator: metrics.NewAggregator(opts.Runs, opts.Scores),
		status:     opts.Status,
		scorer:     scorer,
		hub:        opts.Hub,
		logger:     logging.Component(logger, "api"),
		started:    time.Now().UTC(),
	}

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (s *Server) setupMiddleware() {
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		s.logger.WithFields(logrus.Fields{
			"error": recovered,
			"path":  c.Request.URL.Path,
		}).Error("panic recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))
	s.router.Use(metricsMiddleware())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// Route pattern keeps label cardinality bounded.
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		observability.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start).Seconds())
	}
}

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		entry := s.logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       path,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"request_id": c.GetString("request_id"),
		})
		switch {
		case status >= 500:
			entry.WithField("client_ip", c.ClientIP()).Error("request completed")
		case status >= 400:
			entry.Warn("request completed")
		default:
			entry.Debug("request completed")
		}
	}
}

// -----------------------------------------------------------------------------
// Routes
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/metrics", gin.WrapH(observability.Handler()))
	s.router.GET("/status", s.statusHandler)

	if s.hub != nil {
		s.router.GET("/ws", func(c *gin.Context) {
			s.hub.HandleWebSocket(c.Writer, c.Request)
		})
	}

	v1 := s.router.Group("/api/v1")
	v1.GET("/summary", s.summaryHandler)
	v1.GET("/runs/latest", s.latestRunHandler)
	v1.GET("/scores", s.scoresHandler)
	v1.GET("/wallets/top", s.topWalletsHandler)
	v1.POST("/score", s.scoreHandler)
}
