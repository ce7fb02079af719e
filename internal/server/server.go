// Package server exposes the coordinator over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/raphaelgruber/zerosrv/internal/metrics"
	"github.com/raphaelgruber/zerosrv/internal/models"
	"github.com/raphaelgruber/zerosrv/internal/service"
)

// LegacyVersionLine is the second line of /best-network-hash, still read by
// old workers.
const LegacyVersionLine = "11"

// TaskDispatcher hands out tasks.
type TaskDispatcher interface {
	Dispatch(ctx context.Context, client string, allowMatch bool) (*models.Task, error)
}

// MatchResultSubmitter ingests match games.
type MatchResultSubmitter interface {
	SubmitMatchResult(ctx context.Context, sub service.MatchSubmission) (*service.MatchOutcome, error)
}

// GameSubmitter ingests self-play games.
type GameSubmitter interface {
	SubmitGame(ctx context.Context, sub service.GameSubmission) (string, error)
}

// MatchRequester creates matches.
type MatchRequester interface {
	RequestMatch(ctx context.Context, req service.MatchRequest) (*models.Match, error)
}

// MatchLister lists recent matches.
type MatchLister interface {
	List(ctx context.Context) ([]service.MatchSummary, error)
}

// ChampionResolver returns the current champion hash.
type ChampionResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// Pinger checks the store connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators behind the HTTP routes.
type Deps struct {
	Dispatcher TaskDispatcher
	Results    MatchResultSubmitter
	SelfPlay   GameSubmitter
	Matches    MatchRequester
	Listing    MatchLister
	Champion   ChampionResolver
	Store      Pinger

	Metrics   *metrics.Metrics
	Collector *metrics.Collector
	Gatherer  prometheus.Gatherer

	// AdminKey protects /request-match. Empty disables the route.
	AdminKey string
}

// Server routes HTTP requests to the coordinator services.
type Server struct {
	deps   Deps
	engine *gin.Engine
	logger *slog.Logger
}

// New creates the server and registers its routes.
func New(deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{deps: deps, engine: gin.New(), logger: logger}
	s.engine.Use(gin.Recovery(), LoggingMiddleware(logger, deps.Metrics))
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine
	r.GET("/get-task/:version", s.getTask)
	r.POST("/submit-match", s.submitMatch)
	r.POST("/submit", s.submitGame)
	r.POST("/request-match", s.requestMatch)
	r.GET("/best-network-hash", s.bestNetworkHash)
	r.GET("/matches", s.listMatches)
	r.GET("/stats", s.stats)
	r.GET("/health", s.health)
	if s.deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}
