// Package api exposes the decision engine over HTTP. Handlers are
// thin: validate the request, call the engine, map error kinds to
// statuses.
package api

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"

	"github.com/meridianfin/tradegate/internal/batch"
	"github.com/meridianfin/tradegate/internal/cache"
	"github.com/meridianfin/tradegate/internal/engine"
	apperrors "github.com/meridianfin/tradegate/pkg/errors"
	"github.com/meridianfin/tradegate/pkg/models"
)

// Server wires the HTTP surface.
type Server struct {
	engine       *engine.Engine
	orchestrator *batch.Orchestrator
	cache        *cache.ScreeningCache // nil when caching is disabled
	logger       *zap.Logger
}

// NewServer builds the HTTP layer. cache may be nil.
func NewServer(eng *engine.Engine, orch *batch.Orchestrator, scrCache *cache.ScreeningCache, logger *zap.Logger) *Server {
	return &Server{engine: eng, orchestrator: orch, cache: scrCache, logger: logger}
}

// Router assembles the gin engine with logging, recovery and CORS
// middleware.
func (s *Server) Router(allowOrigins []string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(ginzap.Ginzap(s.logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(s.logger, true))

	corsCfg := cors.DefaultConfig()
	if len(allowOrigins) > 0 {
		corsCfg.AllowOrigins = allowOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/screening", s.handleScreen)
		v1.POST("/scoring", s.handleScore)
		v1.POST("/batch/screening", s.handleBatchScreen)
		v1.POST("/batch/decisions", s.handleBatchDecide)
	}
	return r
}

type scoreRequest struct {
	Name         string            `json:"name" binding:"required"`
	Type         models.EntityType `json:"type" binding:"required"`
	LookbackDays int               `json:"lookback_days"`
}

type batchRequest struct {
	Entities []models.Entity `json:"entities" binding:"required,min=1,dive"`
}

type batchResponse struct {
	Results []batch.Result `json:"results"`
	Summary batch.Summary  `json:"summary"`
}

func (s *Server) handleScreen(c *gin.Context) {
	var entity models.Entity
	if err := c.ShouldBindJSON(&entity); err != nil {
		badRequest(c, err)
		return
	}
	if !entity.Type.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be Buyer, Seller or Bank"})
		return
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(c.Request.Context(), entity); ok {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	result, err := s.engine.Screen(c.Request.Context(), entity)
	if err != nil {
		respondError(c, err)
		return
	}
	if s.cache != nil {
		s.cache.Put(c.Request.Context(), entity, result)
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleScore(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !req.Type.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be Buyer, Seller or Bank"})
		return
	}

	score, err := s.engine.Score(c.Request.Context(), req.Name, req.Type, req.LookbackDays)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, score)
}

func (s *Server) handleBatchScreen(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	results, summary := s.orchestrator.ScreenAll(c.Request.Context(), req.Entities)
	c.JSON(http.StatusOK, batchResponse{Results: results, Summary: summary})
}

func (s *Server) handleBatchDecide(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	results, summary := s.orchestrator.DecideAll(c.Request.Context(), req.Entities)
	c.JSON(http.StatusOK, batchResponse{Results: results, Summary: summary})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.HTTPStatus(err), gin.H{
		"error": err.Error(),
		"kind":  string(apperrors.KindOf(err)),
	})
}
